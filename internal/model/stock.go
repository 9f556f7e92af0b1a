package model

import (
	"fmt"
	"math"
	"time"
)

// Stock is a held-item ledger entry. It shares the code namespace with
// Transfer but has no lifecycle beyond create/update/delete.
type Stock struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Quantity  int64     `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
}

type StockCreateRequest struct {
	Code      string
	Name      string
	Quantity  int64
	UnitPrice float64
	Location  string
}

func (r *StockCreateRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: name", ErrMissingField)
	}
	if r.Quantity < 0 {
		return fmt.Errorf("%w: quantity must be >= 0", ErrInvalidAmount)
	}
	if math.IsNaN(r.UnitPrice) || math.IsInf(r.UnitPrice, 0) || r.UnitPrice < 0 {
		return fmt.Errorf("%w: unit price must be >= 0", ErrInvalidAmount)
	}
	r.Location = Normalize(r.Location)
	if !ValidLocation(r.Location) {
		return fmt.Errorf("%w: %q", ErrInvalidLocation, r.Location)
	}
	return nil
}

type StockUpdate struct {
	Name      *string
	Quantity  *int64
	UnitPrice *float64
	Location  *string
}

type StockFilter struct {
	Code     *string
	Location *string
	Limit    int
	Offset   int
	Desc     bool
}
