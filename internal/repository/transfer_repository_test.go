package repository

import (
	"context"
	"testing"
	"time"

	"github.com/sowlabs/transfer-office/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransfer(code string) *model.Transfer {
	return &model.Transfer{
		Code:                code,
		UserType:            "Client",
		SenderFirstName:     "Mamadou",
		SenderPhone:         "+224620000001",
		OriginLocation:      "CONAKRY",
		ReceiverFirstName:   "Fatou",
		ReceiverPhone:       "+224620000002",
		DestinationLocation: "LABE",
		Amount:              1000,
		Fees:                100,
		RecoveryAmount:      900,
		Currency:            "GNF",
		RecoveryMode:        "ESPECES",
		RetraitHistory:      []model.WithdrawalEntry{},
	}
}

func TestTransferRepository_Create(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransferRepository(db)
	ctx := context.Background()

	t.Run("create transfer successfully", func(t *testing.T) {
		created, err := repo.Create(ctx, newTestTransfer("A123"))
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, "A123", created.Code)
		assert.Equal(t, float64(900), created.RecoveryAmount)
		assert.False(t, created.Retired)
		assert.Empty(t, created.RetraitHistory)
		assert.NotZero(t, created.CreatedAt)
	})

	t.Run("duplicate code is rejected", func(t *testing.T) {
		_, err := repo.Create(ctx, newTestTransfer("B200"))
		require.NoError(t, err)

		_, err = repo.Create(ctx, newTestTransfer("B200"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDuplicateCode)
	})
}

func TestTransferRepository_GetByID(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransferRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newTestTransfer("C300"))
	require.NoError(t, err)

	t.Run("get existing transfer", func(t *testing.T) {
		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "C300", got.Code)
		assert.Equal(t, "Mamadou", got.SenderFirstName)
	})

	t.Run("missing transfer returns not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 99999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestTransferRepository_Update(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransferRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newTestTransfer("D400"))
	require.NoError(t, err)

	t.Run("partial update changes only the given fields", func(t *testing.T) {
		name := "Aissatou"
		err := repo.Update(ctx, created.ID, model.TransferUpdate{ReceiverFirstName: &name})
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Aissatou", got.ReceiverFirstName)
		assert.Equal(t, "Mamadou", got.SenderFirstName)
	})

	t.Run("amount change leaves recovery amount untouched", func(t *testing.T) {
		amount := float64(5000)
		err := repo.Update(ctx, created.ID, model.TransferUpdate{Amount: &amount})
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, float64(5000), got.Amount)
		assert.Equal(t, float64(900), got.RecoveryAmount)
	})

	t.Run("locations are normalized on update", func(t *testing.T) {
		loc := "  kindia "
		err := repo.Update(ctx, created.ID, model.TransferUpdate{DestinationLocation: &loc})
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "KINDIA", got.DestinationLocation)
	})

	t.Run("missing transfer returns not found", func(t *testing.T) {
		name := "X"
		err := repo.Update(ctx, 99999, model.TransferUpdate{SenderFirstName: &name})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestTransferRepository_Delete(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransferRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newTestTransfer("E500"))
	require.NoError(t, err)

	t.Run("delete existing transfer", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, created.ID))

		_, err := repo.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete missing transfer returns not found", func(t *testing.T) {
		err := repo.Delete(ctx, created.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("deleted code is reusable", func(t *testing.T) {
		fresh, err := repo.Create(ctx, newTestTransfer("E500"))
		require.NoError(t, err)
		assert.Equal(t, "E500", fresh.Code)
	})
}

func TestTransferRepository_Withdraw(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransferRepository(db)
	ctx := context.Background()

	entry := model.WithdrawalEntry{
		Date: time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
		Mode: "ORANGE MONEY",
	}

	t.Run("withdraw retires the transfer and records the entry", func(t *testing.T) {
		created, err := repo.Create(ctx, newTestTransfer("F600"))
		require.NoError(t, err)

		got, err := repo.Withdraw(ctx, created.ID, entry)
		require.NoError(t, err)
		assert.True(t, got.Retired)
		require.Len(t, got.RetraitHistory, 1)
		assert.Equal(t, "ORANGE MONEY", got.RetraitHistory[0].Mode)
		assert.Equal(t, entry.Date, got.RetraitHistory[0].Date)

		reloaded, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, reloaded.Retired)
		assert.Len(t, reloaded.RetraitHistory, 1)
	})

	t.Run("second withdrawal fails", func(t *testing.T) {
		created, err := repo.Create(ctx, newTestTransfer("G700"))
		require.NoError(t, err)

		_, err = repo.Withdraw(ctx, created.ID, entry)
		require.NoError(t, err)

		_, err = repo.Withdraw(ctx, created.ID, entry)
		assert.ErrorIs(t, err, ErrAlreadyWithdrawn)

		reloaded, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Len(t, reloaded.RetraitHistory, 1)
	})

	t.Run("withdraw missing transfer returns not found", func(t *testing.T) {
		_, err := repo.Withdraw(ctx, 99999, entry)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestTransferRepository_List(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransferRepository(db)
	ctx := context.Background()

	codes := []string{"H100", "H200", "H300", "H400", "H500"}
	for i, code := range codes {
		tr := newTestTransfer(code)
		if i == 0 {
			tr.SenderPhone = "+33612345678"
		}
		created, err := repo.Create(ctx, tr)
		require.NoError(t, err)
		if i == 4 {
			_, err := repo.Withdraw(ctx, created.ID, model.WithdrawalEntry{Date: time.Now().UTC(), Mode: "ESPECES"})
			require.NoError(t, err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Run("list all transfers", func(t *testing.T) {
		items, total, err := repo.List(ctx, model.TransferFilter{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Len(t, items, 5)
	})

	t.Run("filter by code", func(t *testing.T) {
		code := "h200"
		items, total, err := repo.List(ctx, model.TransferFilter{Code: &code, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Equal(t, "H200", items[0].Code)
	})

	t.Run("filter by phone matches sender or receiver", func(t *testing.T) {
		phone := "+33612345678"
		_, total, err := repo.List(ctx, model.TransferFilter{Phone: &phone, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)

		phone = "+224620000002"
		_, total, err = repo.List(ctx, model.TransferFilter{Phone: &phone, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
	})

	t.Run("filter by retired", func(t *testing.T) {
		retired := true
		items, total, err := repo.List(ctx, model.TransferFilter{Retired: &retired, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Equal(t, "H500", items[0].Code)
	})

	t.Run("pagination", func(t *testing.T) {
		items, total, err := repo.List(ctx, model.TransferFilter{Limit: 2, Offset: 3})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Len(t, items, 2)
	})

	t.Run("descending order", func(t *testing.T) {
		items, _, err := repo.List(ctx, model.TransferFilter{Limit: 10, Desc: true})
		require.NoError(t, err)
		require.Len(t, items, 5)
		assert.Equal(t, "H500", items[0].Code)
	})
}
