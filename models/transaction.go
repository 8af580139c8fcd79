package models

// TxStatus is the transaction status vocabulary of the payment backend,
// plus the client-side timeout classification. The backend owns all
// transitions; this module only observes them.
type TxStatus string

const (
	StatusPending    TxStatus = "pending"
	StatusSuccessful TxStatus = "successful"
	StatusFailed     TxStatus = "failed"
	StatusCancelled  TxStatus = "cancelled"

	// StatusTimeout is never returned by the backend; the poller reports it
	// when its attempt budget runs out.
	StatusTimeout TxStatus = "timeout"
)

// Terminal reports whether polling stops permanently on this status.
func (s TxStatus) Terminal() bool {
	switch s {
	case StatusSuccessful, StatusFailed, StatusCancelled, StatusTimeout:
		return true
	}
	return false
}

// InitiationResult is what the backend returns when a purchase or vote is
// accepted for payment. Exactly one of TicketNumber/PaymentLink is set
// depending on the flow and payment method.
type InitiationResult struct {
	TxRef        string `json:"tx_ref"`
	TicketNumber string `json:"ticket_number,omitempty"`
	PaymentLink  string `json:"payment_link,omitempty"`
	Instructions string `json:"payment_instructions,omitempty"`
}

// StatusResult is a single observation of a transaction's state.
type StatusResult struct {
	TxRef        string   `json:"tx_ref"`
	Status       TxStatus `json:"status"`
	Points       int      `json:"points,omitempty"`
	TicketNumber string   `json:"ticket_number,omitempty"`
	Message      string   `json:"message,omitempty"`
}
