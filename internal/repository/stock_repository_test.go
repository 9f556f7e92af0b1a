package repository

import (
	"context"
	"testing"

	"github.com/sowlabs/transfer-office/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStock(code string) *model.Stock {
	return &model.Stock{
		Code:      code,
		Name:      "Riz 50kg",
		Quantity:  20,
		UnitPrice: 350000,
		Location:  "CONAKRY",
	}
}

func TestStockRepository_Create(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewStockRepository(db)
	ctx := context.Background()

	t.Run("create stock successfully", func(t *testing.T) {
		created, err := repo.Create(ctx, newTestStock("S100"))
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, "S100", created.Code)
		assert.NotZero(t, created.CreatedAt)
	})

	t.Run("duplicate code is rejected", func(t *testing.T) {
		_, err := repo.Create(ctx, newTestStock("S200"))
		require.NoError(t, err)

		_, err = repo.Create(ctx, newTestStock("S200"))
		assert.ErrorIs(t, err, ErrDuplicateCode)
	})
}

func TestStockRepository_Update(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewStockRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newTestStock("S300"))
	require.NoError(t, err)

	t.Run("partial update", func(t *testing.T) {
		qty := int64(5)
		err := repo.Update(ctx, created.ID, model.StockUpdate{Quantity: &qty})
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(5), got.Quantity)
		assert.Equal(t, "Riz 50kg", got.Name)
	})

	t.Run("missing stock returns not found", func(t *testing.T) {
		qty := int64(1)
		err := repo.Update(ctx, 99999, model.StockUpdate{Quantity: &qty})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStockRepository_Delete(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewStockRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newTestStock("S400"))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), ErrNotFound)
}

func TestStockRepository_List(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewStockRepository(db)
	ctx := context.Background()

	for _, code := range []string{"T100", "T200", "T300"} {
		s := newTestStock(code)
		if code == "T300" {
			s.Location = "LABE"
		}
		_, err := repo.Create(ctx, s)
		require.NoError(t, err)
	}

	t.Run("list all stocks", func(t *testing.T) {
		items, total, err := repo.List(ctx, model.StockFilter{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, items, 3)
	})

	t.Run("filter by location", func(t *testing.T) {
		loc := "LABE"
		items, total, err := repo.List(ctx, model.StockFilter{Location: &loc, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Equal(t, "T300", items[0].Code)
	})
}

func TestCodeRepository_ExistsByCode(t *testing.T) {
	db := setupTestDB(t).DB
	transferRepo := NewTransferRepository(db)
	stockRepo := NewStockRepository(db)
	codeRepo := NewCodeRepository(db)
	ctx := context.Background()

	_, err := transferRepo.Create(ctx, newTestTransfer("Z900"))
	require.NoError(t, err)
	_, err = stockRepo.Create(ctx, newTestStock("Z901"))
	require.NoError(t, err)

	t.Run("sees transfer codes", func(t *testing.T) {
		exists, err := codeRepo.ExistsByCode(ctx, "Z900")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("sees stock codes", func(t *testing.T) {
		exists, err := codeRepo.ExistsByCode(ctx, "Z901")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("unknown code is free", func(t *testing.T) {
		exists, err := codeRepo.ExistsByCode(ctx, "Z999")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
