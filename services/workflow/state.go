package workflow

import (
	// Local Packages
	errors "waypay/errors"
)

// State is the lifecycle step of a payment session. The zero value is not
// valid; sessions start in StatePayment.
type State string

const (
	StatePayment   State = "payment"   // collecting/resubmitting the intent
	StatePolling   State = "polling"   // txRef issued, verification running
	StateSuccess   State = "success"   // confirmed, auto-close scheduled
	StateCancelled State = "cancelled" // user-confirmed soft cancel
	StateClosed    State = "closed"    // session torn down
)

// transitions is the full set of legal moves. Anything absent is refused,
// in particular payment -> success: a session can never skip verification.
var transitions = map[State][]State{
	StatePayment:   {StatePolling, StateClosed},
	StatePolling:   {StateSuccess, StateCancelled},
	StateSuccess:   {StateClosed},
	StateCancelled: {StateClosed},
}

func (s State) canTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// step validates and returns the transition, or an error naming both ends.
func step(from, to State) (State, error) {
	if !from.canTransition(to) {
		return from, errors.TransitionErr(string(from), string(to))
	}
	return to, nil
}
