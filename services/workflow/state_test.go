package workflow

import (
	// Go Internal Packages
	"testing"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitions(t *testing.T) {
	legal := []struct{ from, to State }{
		{StatePayment, StatePolling},
		{StatePayment, StateClosed},
		{StatePolling, StateSuccess},
		{StatePolling, StateCancelled},
		{StateSuccess, StateClosed},
		{StateCancelled, StateClosed},
	}
	for _, tt := range legal {
		got, err := step(tt.from, tt.to)
		require.NoError(t, err, "%s -> %s", tt.from, tt.to)
		assert.Equal(t, tt.to, got)
	}

	illegal := []struct{ from, to State }{
		{StatePayment, StateSuccess}, // can never skip verification
		{StatePayment, StateCancelled},
		{StatePolling, StateClosed}, // polling only leaves via success or cancel
		{StatePolling, StatePayment},
		{StateSuccess, StatePolling},
		{StateCancelled, StatePolling},
		{StateClosed, StatePayment},
		{StateClosed, StatePolling},
	}
	for _, tt := range illegal {
		got, err := step(tt.from, tt.to)
		require.Error(t, err, "%s -> %s", tt.from, tt.to)
		assert.Equal(t, tt.from, got, "state must not move on a refused transition")
	}
}
