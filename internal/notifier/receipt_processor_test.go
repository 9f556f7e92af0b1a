package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	gateway "github.com/sowlabs/transfer-office/internal/gateways"
	"github.com/sowlabs/transfer-office/internal/model"
	"github.com/sowlabs/transfer-office/internal/queue"
	"github.com/sowlabs/transfer-office/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	connName := t.Name() + "-" + mr.Addr()
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func setupProviderServer(t *testing.T, status int, sent *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sent != nil {
			sent.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status < 500 {
			_ = json.NewEncoder(w).Encode(gateway.SendResponse{
				Status:      gateway.StatusDelivered,
				ProcessedAt: time.Now(),
			})
		}
	}))
}

func eventMessage(t *testing.T, eventType string) *queue.Message {
	t.Helper()
	event := model.NewTransferEvent(eventType, &model.Transfer{
		ID:                  1,
		Code:                "A123",
		ReceiverPhone:       "+224620000002",
		DestinationLocation: "LABE",
		RecoveryAmount:      900,
		Currency:            "GNF",
		RecoveryMode:        "ESPECES",
	})
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return &queue.Message{ID: "1-0", Data: data}
}

func TestReceiptProcessor_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("sends one receipt per event", func(t *testing.T) {
		mr, adapter := setupTestRedis(t)
		defer mr.Close()

		var sent atomic.Int32
		srv := setupProviderServer(t, http.StatusOK, &sent)
		defer srv.Close()

		client := gateway.NewClient(&gateway.Config{
			Providers: []gateway.ProviderConfig{{Name: "primary", URL: srv.URL}},
		})
		processor := NewReceiptProcessor(client, adapter)

		msg := eventMessage(t, model.EventTransferCreated)
		require.NoError(t, processor.Process(ctx, msg))
		assert.Equal(t, int32(1), sent.Load())

		// redelivery of the same event is deduplicated
		require.NoError(t, processor.Process(ctx, msg))
		assert.Equal(t, int32(1), sent.Load())
	})

	t.Run("send failure frees the dedupe marker", func(t *testing.T) {
		mr, adapter := setupTestRedis(t)
		defer mr.Close()

		srv := setupProviderServer(t, http.StatusInternalServerError, nil)
		defer srv.Close()

		client := gateway.NewClient(&gateway.Config{
			Providers: []gateway.ProviderConfig{{Name: "primary", URL: srv.URL}},
		})
		processor := NewReceiptProcessor(client, adapter)

		msg := eventMessage(t, model.EventTransferWithdrawn)
		require.Error(t, processor.Process(ctx, msg))

		// a retry is allowed to send again
		require.Error(t, processor.Process(ctx, msg))
	})

	t.Run("malformed payload is dropped without error", func(t *testing.T) {
		mr, adapter := setupTestRedis(t)
		defer mr.Close()

		processor := NewReceiptProcessor(gateway.NewClient(&gateway.Config{}), adapter)

		msg := &queue.Message{ID: "1-0", Data: []byte("not json")}
		assert.NoError(t, processor.Process(ctx, msg))
	})
}

func TestReceiptText(t *testing.T) {
	transfer := &model.Transfer{
		Code:                "B200",
		RecoveryAmount:      450000,
		Currency:            "GNF",
		DestinationLocation: "KANKAN",
		RecoveryMode:        "ESPECES",
		RetraitHistory: []model.WithdrawalEntry{
			{Date: time.Now().UTC(), Mode: "ORANGE MONEY"},
		},
	}

	t.Run("creation receipt names the pickup location", func(t *testing.T) {
		text := receiptText(model.TransferEvent{Type: model.EventTransferCreated, Transfer: transfer})
		assert.Contains(t, text, "B200")
		assert.Contains(t, text, "KANKAN")
		assert.Contains(t, text, "450000 GNF")
	})

	t.Run("withdrawal receipt uses the recorded mode", func(t *testing.T) {
		text := receiptText(model.TransferEvent{Type: model.EventTransferWithdrawn, Transfer: transfer})
		assert.Contains(t, text, "B200")
		assert.Contains(t, text, "ORANGE MONEY")
	})
}
