package models

import (
	// Go Internal Packages
	"testing"

	// Local Packages
	errors "waypay/errors"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validIntent() Intent {
	return Intent{
		Kind:     FlowVote,
		TargetID: "candidate-7",
		Quantity: 1,
		Amount:   1000,
		Method:   MethodMTNMomo,
		Phone:    "650123456",
		Email:    "voter@example.com",
		FullName: "Ama Nkolo",
	}
}

func TestIntentValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Intent)
		field  string
	}{
		{"unknown kind", func(i *Intent) { i.Kind = "raffle" }, "kind"},
		{"missing target", func(i *Intent) { i.TargetID = "" }, "target_id"},
		{"zero quantity", func(i *Intent) { i.Quantity = 0 }, "quantity"},
		{"below minimum", func(i *Intent) { i.Amount = 50 }, "amount"},
		{"bad method", func(i *Intent) { i.Method = "CASH" }, "payment_method"},
		{"bad phone", func(i *Intent) { i.Phone = "12345" }, "phone"},
		{"missing email", func(i *Intent) { i.Email = "" }, "email"},
		{"missing name", func(i *Intent) { i.FullName = "" }, "full_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := validIntent()
			tt.mutate(&intent)
			err := intent.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(errors.Invalid, err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestIntentValidateOK(t *testing.T) {
	intent := validIntent()
	require.NoError(t, intent.Validate())

	intent.Method = MethodOrangeMoney
	intent.Kind = FlowTicket
	intent.Amount = MinAmount
	require.NoError(t, intent.Validate())
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusSuccessful.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusTimeout.Terminal())
}

func TestReceiptTransformDropsPhone(t *testing.T) {
	r := Receipt{TxRef: "TX1", Kind: FlowTicket, Phone: "650123456", Amount: 5000, Method: MethodMTNMomo}
	doc := r.Transform()
	assert.Equal(t, "TX1", doc.TxRef)
	assert.Equal(t, "ticket", doc.Kind)
	assert.Equal(t, string(MethodMTNMomo), doc.Method)
}
