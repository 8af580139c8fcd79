package errors

import "fmt"

func InvalidIntentErr(err error) error {
	return E(Invalid, "invalid intent", err)
}

func ValidationFailedErr(err error) error {
	return E(Invalid, "validation failed", err)
}

func EmptyParamErr(field string) error {
	ve := ValidationErrs()
	ve.Add(field, "cannot be empty")
	return E(Invalid, "validation failed", ve.Err())
}

func InitiationFailedErr(err error) error {
	return E(Initiation, "payment initiation failed", err)
}

// PollTimeoutErr is surfaced when the polling budget is exhausted without
// observing a terminal status.
func PollTimeoutErr(attempts int) error {
	return E(Timeout, fmt.Sprintf("no terminal status after %d attempts", attempts), nil)
}

// DeclinedErr reports a transaction the remote marked failed or cancelled,
// distinct from a timeout.
func DeclinedErr(status, message string) error {
	if message == "" {
		message = fmt.Sprintf("transaction %s", status)
	}
	return E(Declined, message, nil)
}

// TransitionErr reports a session state transition the machine refuses.
func TransitionErr(from, to string) error {
	return E(Internal, fmt.Sprintf("illegal transition %s -> %s", from, to), nil)
}
