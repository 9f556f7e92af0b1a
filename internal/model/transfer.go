package model

import (
	"fmt"
	"math"
	"time"
)

// WithdrawalEntry is one line of a transfer's payout trail.
type WithdrawalEntry struct {
	Date time.Time `json:"date"`
	Mode string    `json:"mode"`
}

// Transfer is a recorded money-transfer transaction. Code is unique
// across transfers and stocks and never changes once assigned.
// RecoveryAmount is a snapshot of amount - fees taken at creation; the
// generic update path does not recompute it.
type Transfer struct {
	ID                  int64             `json:"id"`
	Code                string            `json:"code"`
	UserType            string            `json:"user_type"`
	SenderFirstName     string            `json:"sender_first_name"`
	SenderPhone         string            `json:"sender_phone"`
	OriginLocation      string            `json:"origin_location"`
	ReceiverFirstName   string            `json:"receiver_first_name"`
	ReceiverPhone       string            `json:"receiver_phone"`
	DestinationLocation string            `json:"destination_location"`
	Amount              float64           `json:"amount"`
	Fees                float64           `json:"fees"`
	RecoveryAmount      float64           `json:"recovery_amount"`
	Currency            string            `json:"currency"`
	RecoveryMode        string            `json:"recovery_mode"`
	Retired             bool              `json:"retired"`
	RetraitHistory      []WithdrawalEntry `json:"retrait_history"`
	CreatedAt           time.Time         `json:"created_at"`
}

// TransferCreateRequest is the input for recording a transfer. Code is
// optional; when empty the ledger allocates one.
type TransferCreateRequest struct {
	Code                string
	UserType            string
	SenderFirstName     string
	SenderPhone         string
	OriginLocation      string
	ReceiverFirstName   string
	ReceiverPhone       string
	DestinationLocation string
	Amount              float64
	Fees                float64
	Currency            string
	RecoveryMode        string
}

// Validate normalizes the request in place and checks it field by
// field, stopping at the first failure. The check order is part of the
// contract: locations, names, phones, amount, fees, currency, mode.
func (r *TransferCreateRequest) Validate() error {
	r.OriginLocation = Normalize(r.OriginLocation)
	if !ValidLocation(r.OriginLocation) {
		return fmt.Errorf("%w: origin %q", ErrInvalidLocation, r.OriginLocation)
	}
	r.DestinationLocation = Normalize(r.DestinationLocation)
	if !ValidLocation(r.DestinationLocation) {
		return fmt.Errorf("%w: destination %q", ErrInvalidLocation, r.DestinationLocation)
	}

	if r.SenderFirstName == "" {
		return fmt.Errorf("%w: sender first name", ErrMissingField)
	}
	if r.ReceiverFirstName == "" {
		return fmt.Errorf("%w: receiver first name", ErrMissingField)
	}

	if !ValidPhone(r.SenderPhone) {
		return fmt.Errorf("%w: sender phone %q", ErrInvalidPhone, r.SenderPhone)
	}
	if !ValidPhone(r.ReceiverPhone) {
		return fmt.Errorf("%w: receiver phone %q", ErrInvalidPhone, r.ReceiverPhone)
	}

	if math.IsNaN(r.Amount) || math.IsInf(r.Amount, 0) || r.Amount <= 0 {
		return fmt.Errorf("%w: amount must be > 0", ErrInvalidAmount)
	}
	if math.IsNaN(r.Fees) || math.IsInf(r.Fees, 0) || r.Fees < 0 {
		return fmt.Errorf("%w: fees must be >= 0", ErrInvalidAmount)
	}
	if r.Fees > r.Amount {
		return fmt.Errorf("%w: fees exceed amount", ErrInvalidAmount)
	}

	r.Currency = Normalize(r.Currency)
	if !ValidCurrency(r.Currency) {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, r.Currency)
	}

	r.RecoveryMode = Normalize(r.RecoveryMode)
	if !ValidRecoveryMode(r.RecoveryMode) {
		return fmt.Errorf("%w: %q", ErrInvalidMode, r.RecoveryMode)
	}

	return nil
}

// TransferUpdate carries field-level changes. Nil fields are left
// untouched. The update path intentionally skips the creation
// validation; recovery_amount is not recomputed when amount or fees
// change.
type TransferUpdate struct {
	UserType            *string
	SenderFirstName     *string
	SenderPhone         *string
	OriginLocation      *string
	ReceiverFirstName   *string
	ReceiverPhone       *string
	DestinationLocation *string
	Amount              *float64
	Fees                *float64
	Currency            *string
	RecoveryMode        *string
}

// IsEmpty reports whether the update carries no changes at all.
func (u TransferUpdate) IsEmpty() bool {
	return u.UserType == nil &&
		u.SenderFirstName == nil &&
		u.SenderPhone == nil &&
		u.OriginLocation == nil &&
		u.ReceiverFirstName == nil &&
		u.ReceiverPhone == nil &&
		u.DestinationLocation == nil &&
		u.Amount == nil &&
		u.Fees == nil &&
		u.Currency == nil &&
		u.RecoveryMode == nil
}

// TransferFilter controls List queries.
type TransferFilter struct {
	Code    *string
	Phone   *string // matches either sender or receiver
	Retired *bool
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
	Desc    bool
}
