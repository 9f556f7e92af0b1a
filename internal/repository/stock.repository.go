package repository

import (
	"context"
	"errors"

	"github.com/sowlabs/transfer-office/internal/model"
	"github.com/sowlabs/transfer-office/pkg/pg"
	"gorm.io/gorm"
)

type StockRepository struct {
	*pg.DB
}

func NewStockRepository(db *pg.DB) *StockRepository {
	return &StockRepository{
		db,
	}
}

func (r *StockRepository) Create(ctx context.Context, s *model.Stock) (*model.Stock, error) {
	entity := toStockEntity(s)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}

	return toStockModel(entity), nil
}

func (r *StockRepository) GetByID(ctx context.Context, id int64) (*model.Stock, error) {
	var entity StockEntity
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
	return toStockModel(&entity), nil
}

func (r *StockRepository) Update(ctx context.Context, id int64, u model.StockUpdate) error {
	fields := stockUpdateFields(u)

	var n int64
	err := r.Read(ctx).WithContext(ctx).
		Model(&StockEntity{}).
		Where("id = ?", id).
		Count(&n).
		Error
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	if len(fields) == 0 {
		return nil
	}

	return r.Write(ctx).WithContext(ctx).
		Model(&StockEntity{}).
		Where("id = ?", id).
		Updates(fields).
		Error
}

func (r *StockRepository) Delete(ctx context.Context, id int64) error {
	res := r.Write(ctx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&StockEntity{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *StockRepository) List(ctx context.Context, f model.StockFilter) ([]*model.Stock, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&StockEntity{})

	if f.Code != nil && *f.Code != "" {
		q = q.Where("code = ?", model.Normalize(*f.Code))
	}
	if f.Location != nil && *f.Location != "" {
		q = q.Where("location = ?", model.Normalize(*f.Location))
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

	var entities []*StockEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toStockModels(entities), total, nil
}
