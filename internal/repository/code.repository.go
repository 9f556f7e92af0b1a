package repository

import (
	"context"

	"github.com/sowlabs/transfer-office/pkg/pg"
)

// CodeRepository answers existence probes over the shared code
// namespace. Transfers and stocks each carry a unique index on code;
// the probe spans both tables so the allocator never hands out a code
// either ledger is already using.
type CodeRepository struct {
	*pg.DB
}

func NewCodeRepository(db *pg.DB) *CodeRepository {
	return &CodeRepository{
		db,
	}
}

func (r *CodeRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var n int64
	err := r.Read(ctx).WithContext(ctx).
		Model(&TransferEntity{}).
		Where("code = ?", code).
		Count(&n).
		Error
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	err = r.Read(ctx).WithContext(ctx).
		Model(&StockEntity{}).
		Where("code = ?", code).
		Count(&n).
		Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
