package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gateway "github.com/sowlabs/transfer-office/internal/gateways"
	"github.com/sowlabs/transfer-office/internal/model"
	"github.com/sowlabs/transfer-office/internal/queue"
	"github.com/sowlabs/transfer-office/pkg/logger"
	"github.com/sowlabs/transfer-office/pkg/prom"
	"github.com/sowlabs/transfer-office/pkg/redis"
)

const processedTTL = 24 * time.Hour

// ReceiptProcessor turns transfer events into receiver-facing SMS
// receipts. A SetNX marker per event id keeps redeliveries from
// sending the same receipt twice.
type ReceiptProcessor struct {
	client *gateway.Client
	redis  redis.RedisAdapter
}

func NewReceiptProcessor(client *gateway.Client, redis redis.RedisAdapter) *ReceiptProcessor {
	return &ReceiptProcessor{
		client: client,
		redis:  redis,
	}
}

func (p *ReceiptProcessor) GetType() string {
	return "receipt"
}

func (p *ReceiptProcessor) Process(ctx context.Context, queueMessage *queue.Message) error {
	var event model.TransferEvent
	if err := json.Unmarshal(queueMessage.Data, &event); err != nil {
		logger.Error("failed to unmarshal transfer event", "error", err)
		// malformed payload, retrying cannot help
		return nil
	}
	if event.Transfer == nil {
		logger.Error("transfer event without transfer", "event_id", event.ID)
		return nil
	}

	fresh, err := p.redis.SetNX("receipt:processed:"+event.ID, []byte("1"), processedTTL)
	if err != nil {
		return err
	}
	if !fresh {
		logger.Info("receipt already sent, skipping", "event_id", event.ID)
		return nil
	}

	req := &gateway.SendRequest{
		MessageID:   event.ID,
		PhoneNumber: event.Transfer.ReceiverPhone,
		Content:     receiptText(event),
	}

	res, err := p.client.SendSMS(ctx, req)
	if err != nil {
		// free the marker so the redelivery can try again
		_ = p.redis.Del("receipt:processed:" + event.ID)
		logger.Error("failed to send receipt",
			"event_id", event.ID,
			"transfer_code", event.Transfer.Code,
			"error", err)
		return err
	}

	prom.ObserveReceiptDeliveryDuration(time.Since(event.OccurredAt).Seconds(), event.Type)
	logger.Info("receipt sent",
		"event_id", event.ID,
		"transfer_code", event.Transfer.Code,
		"status", res.Status,
		"provider", res.ProviderID)
	return nil
}

func receiptText(event model.TransferEvent) string {
	t := event.Transfer
	switch event.Type {
	case model.EventTransferWithdrawn:
		mode := t.RecoveryMode
		if n := len(t.RetraitHistory); n > 0 {
			mode = t.RetraitHistory[n-1].Mode
		}
		return fmt.Sprintf("Transfert %s: retrait de %.0f %s effectue (%s).",
			t.Code, t.RecoveryAmount, t.Currency, mode)
	default:
		return fmt.Sprintf("Transfert %s: %.0f %s disponible a %s. Presentez ce code au guichet.",
			t.Code, t.RecoveryAmount, t.Currency, t.DestinationLocation)
	}
}
