package repository

import (
	"context"
	"errors"

	"github.com/sowlabs/transfer-office/internal/model"
	"github.com/sowlabs/transfer-office/pkg/pg"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateCode is returned when an insert loses the race for a
	// code; the unique index on code is the backstop for allocation.
	ErrDuplicateCode = errors.New("code already exists")
	// ErrAlreadyWithdrawn is returned when a withdrawal hits a transfer
	// that has already been paid out.
	ErrAlreadyWithdrawn = errors.New("transfer already withdrawn")
)

type TransferRepository struct {
	*pg.DB
}

func NewTransferRepository(db *pg.DB) *TransferRepository {
	return &TransferRepository{
		db,
	}
}

func (r *TransferRepository) Create(ctx context.Context, t *model.Transfer) (*model.Transfer, error) {
	entity := toTransferEntity(t)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}

	return toTransferModel(entity), nil
}

func (r *TransferRepository) GetByID(ctx context.Context, id int64) (*model.Transfer, error) {
	var entity TransferEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toTransferModel(&entity), nil
}

// Update applies field-level changes as-is. Values are normalized but
// not re-validated against the creation rules.
func (r *TransferRepository) Update(ctx context.Context, id int64, u model.TransferUpdate) error {
	fields := transferUpdateFields(u)
	if len(fields) == 0 {
		return r.exists(ctx, id)
	}

	if err := r.exists(ctx, id); err != nil {
		return err
	}

	res := r.Write(ctx).WithContext(ctx).
		Model(&TransferEntity{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicateCode
		}
		return res.Error
	}
	return nil
}

func (r *TransferRepository) Delete(ctx context.Context, id int64) error {
	res := r.Write(ctx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&TransferEntity{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Withdraw flips retired and appends the payout entry in a single
// conditional update. The WHERE retired = false guard makes sure at
// most one of two racing withdrawals succeeds.
func (r *TransferRepository) Withdraw(ctx context.Context, id int64, entry model.WithdrawalEntry) (*model.Transfer, error) {
	var entity TransferEntity
	err := r.Write(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if entity.Retired {
		return nil, ErrAlreadyWithdrawn
	}

	history := append(unmarshalHistory(entity.RetraitHistory), entry)

	res := r.Write(ctx).WithContext(ctx).
		Model(&TransferEntity{}).
		Where("id = ? AND retired = ?", id, false).
		Updates(map[string]interface{}{
			"retired":         true,
			"retrait_history": marshalHistory(history),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// lost the race against a concurrent withdrawal
		return nil, ErrAlreadyWithdrawn
	}

	entity.Retired = true
	entity.RetraitHistory = marshalHistory(history)
	return toTransferModel(&entity), nil
}

func (r *TransferRepository) List(ctx context.Context, f model.TransferFilter) ([]*model.Transfer, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&TransferEntity{})

	if f.Code != nil && *f.Code != "" {
		q = q.Where("code = ?", model.Normalize(*f.Code))
	}
	if f.Phone != nil && *f.Phone != "" {
		q = q.Where("sender_phone = ? OR receiver_phone = ?", *f.Phone, *f.Phone)
	}
	if f.Retired != nil {
		q = q.Where("retired = ?", *f.Retired)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at"
	if f.Desc {
		order += " DESC"
	} else {
		order += " ASC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*TransferEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toTransferModels(entities), total, nil
}

func (r *TransferRepository) exists(ctx context.Context, id int64) error {
	var n int64
	err := r.Read(ctx).WithContext(ctx).
		Model(&TransferEntity{}).
		Where("id = ?", id).
		Count(&n).
		Error
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
