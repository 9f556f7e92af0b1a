package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTransferCreated   = "transfer.created"
	EventTransferWithdrawn = "transfer.withdrawn"
)

// TransferEvent is published on the receipts queue whenever a transfer
// is recorded or paid out. ID dedupes redeliveries on the consumer
// side.
type TransferEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Transfer   *Transfer `json:"transfer"`
}

func NewTransferEvent(eventType string, t *Transfer) TransferEvent {
	return TransferEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Transfer:   t,
	}
}
