package models

import (
	// Go Internal Packages
	"time"

	// Local Packages
	errors "waypay/errors"
	utils "waypay/utils"
)

type FlowKind string

const (
	FlowTicket FlowKind = "ticket"
	FlowVote   FlowKind = "vote"
)

type PaymentMethod string

// Wire values expected by the payment backend.
const (
	MethodMTNMomo     PaymentMethod = "MOMO CM"
	MethodOrangeMoney PaymentMethod = "OM CM"
)

// MinAmount is the smallest accepted charge in XAF; one pageant vote costs
// exactly this much, ticket prices are multiples of it.
const MinAmount int64 = 100

// Intent is a purchase or vote the user wants to pay for. One Intent type
// serves both flows; Kind selects the backend route and TargetID names
// either a ticket type or a pageant candidate.
type Intent struct {
	Kind     FlowKind      `json:"kind"`
	TargetID string        `json:"target_id"`
	Quantity int           `json:"quantity"`
	Amount   int64         `json:"amount"`
	Method   PaymentMethod `json:"payment_method"`
	Phone    string        `json:"phone"`
	Email    string        `json:"email"`
	FullName string        `json:"full_name"`
}

// Validate checks the intent locally. A non-nil result means no network
// call may be made for this intent.
func (i *Intent) Validate() error {
	ve := errors.ValidationErrs()

	if i.Kind != FlowTicket && i.Kind != FlowVote {
		ve.Add("kind", "must be ticket or vote")
	}
	if i.TargetID == "" {
		ve.Add("target_id", "cannot be empty")
	}
	if i.Quantity < 1 {
		ve.Add("quantity", "must be at least 1")
	}
	if i.Amount < MinAmount {
		ve.Add("amount", "below minimum charge")
	}
	if i.Method != MethodMTNMomo && i.Method != MethodOrangeMoney {
		ve.Add("payment_method", "unsupported payment method")
	}
	if !utils.ValidPhone(i.Phone) {
		ve.Add("phone", "not a valid mobile money number")
	}
	if i.Email == "" {
		ve.Add("email", "cannot be empty")
	}
	if i.FullName == "" {
		ve.Add("full_name", "cannot be empty")
	}

	if err := ve.Err(); err != nil {
		return errors.InvalidIntentErr(err)
	}
	return nil
}

// PendingIntent is the durably stored record of an initiated but not yet
// confirmed transaction. It exists exactly while verification is pending
// and is deleted once, on confirmed success.
type PendingIntent struct {
	TxRef     string    `json:"tx_ref"`
	Kind      FlowKind  `json:"kind"`
	TargetID  string    `json:"target_id"`
	Quantity  int       `json:"quantity"`
	Amount    int64     `json:"amount"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

// NewPendingIntent snapshots an intent under the txRef issued for it.
func NewPendingIntent(txRef string, intent Intent) PendingIntent {
	return PendingIntent{
		TxRef:     txRef,
		Kind:      intent.Kind,
		TargetID:  intent.TargetID,
		Quantity:  intent.Quantity,
		Amount:    intent.Amount,
		Phone:     intent.Phone,
		Email:     intent.Email,
		FullName:  intent.FullName,
		CreatedAt: time.Now().UTC(),
	}
}
