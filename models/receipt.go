package models

import "time"

// Receipt is the record of a confirmed transaction, archived for the
// festival ops team and published for downstream fulfilment.
type Receipt struct {
	TxRef        string        `json:"tx_ref"`
	Kind         FlowKind      `json:"kind"`
	TargetID     string        `json:"target_id"`
	Quantity     int           `json:"quantity"`
	Amount       int64         `json:"amount"`
	Currency     string        `json:"currency"`
	Method       PaymentMethod `json:"payment_method"`
	Phone        string        `json:"phone"`
	Email        string        `json:"email"`
	FullName     string        `json:"full_name"`
	Points       int           `json:"points,omitempty"`
	TicketNumber string        `json:"ticket_number,omitempty"`
	ConfirmedAt  time.Time     `json:"confirmed_at"`
}

type MongoReceipt struct {
	TxRef        string    `json:"tx_ref" bson:"_id"`
	Kind         string    `json:"kind" bson:"kind"`
	TargetID     string    `json:"target_id" bson:"target_id"`
	Quantity     int       `json:"quantity" bson:"quantity"`
	Amount       int64     `json:"amount" bson:"amount"`
	Currency     string    `json:"currency" bson:"currency"`
	Method       string    `json:"payment_method" bson:"payment_method"`
	Email        string    `json:"email" bson:"email"`
	FullName     string    `json:"full_name" bson:"full_name"`
	Points       int       `json:"points,omitempty" bson:"points,omitempty"`
	TicketNumber string    `json:"ticket_number,omitempty" bson:"ticket_number,omitempty"`
	ConfirmedAt  time.Time `json:"confirmed_at" bson:"confirmed_at"`
}

// Transform maps a receipt to its archive document. The phone number is
// dropped on purpose; the archive does not need it.
func (r *Receipt) Transform() MongoReceipt {
	return MongoReceipt{
		TxRef:        r.TxRef,
		Kind:         string(r.Kind),
		TargetID:     r.TargetID,
		Quantity:     r.Quantity,
		Amount:       r.Amount,
		Currency:     r.Currency,
		Method:       string(r.Method),
		Email:        r.Email,
		FullName:     r.FullName,
		Points:       r.Points,
		TicketNumber: r.TicketNumber,
		ConfirmedAt:  r.ConfirmedAt,
	}
}
