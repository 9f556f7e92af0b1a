package repository

import (
	"time"

	"github.com/sowlabs/transfer-office/internal/model"
)

type StockEntity struct {
	ID        int64     `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	Code      string    `db:"code"       gorm:"column:code;not null;uniqueIndex:idx_stocks_code"`
	Name      string    `db:"name"       gorm:"column:name;not null"`
	Quantity  int64     `db:"quantity"   gorm:"column:quantity;not null;default:0"`
	UnitPrice float64   `db:"unit_price" gorm:"column:unit_price;not null;default:0"`
	Location  string    `db:"location"   gorm:"column:location;not null"`
	CreatedAt time.Time `db:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (StockEntity) TableName() string {
	return "stocks"
}

func toStockEntity(s *model.Stock) *StockEntity {
	if s == nil {
		return nil
	}
	return &StockEntity{
		ID:        s.ID,
		Code:      s.Code,
		Name:      s.Name,
		Quantity:  s.Quantity,
		UnitPrice: s.UnitPrice,
		Location:  s.Location,
		CreatedAt: s.CreatedAt,
	}
}

func toStockModel(e *StockEntity) *model.Stock {
	if e == nil {
		return nil
	}
	return &model.Stock{
		ID:        e.ID,
		Code:      e.Code,
		Name:      e.Name,
		Quantity:  e.Quantity,
		UnitPrice: e.UnitPrice,
		Location:  e.Location,
		CreatedAt: e.CreatedAt,
	}
}

func toStockModels(entities []*StockEntity) []*model.Stock {
	if entities == nil {
		return nil
	}
	models := make([]*model.Stock, len(entities))
	for i, e := range entities {
		models[i] = toStockModel(e)
	}
	return models
}

func stockUpdateFields(u model.StockUpdate) map[string]interface{} {
	fields := make(map[string]interface{})
	if u.Name != nil {
		fields["name"] = *u.Name
	}
	if u.Quantity != nil {
		fields["quantity"] = *u.Quantity
	}
	if u.UnitPrice != nil {
		fields["unit_price"] = *u.UnitPrice
	}
	if u.Location != nil {
		fields["location"] = model.Normalize(*u.Location)
	}
	return fields
}
