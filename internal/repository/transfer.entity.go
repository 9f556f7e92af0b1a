package repository

import (
	"encoding/json"
	"time"

	"github.com/sowlabs/transfer-office/internal/model"
)

type TransferEntity struct {
	ID                  int64     `db:"id"                   gorm:"primaryKey;autoIncrement;column:id"`
	Code                string    `db:"code"                 gorm:"column:code;not null;uniqueIndex:idx_transfers_code"`
	UserType            string    `db:"user_type"            gorm:"column:user_type;not null;default:Client"`
	SenderFirstName     string    `db:"sender_first_name"    gorm:"column:sender_first_name;not null"`
	SenderPhone         string    `db:"sender_phone"         gorm:"column:sender_phone;not null"`
	OriginLocation      string    `db:"origin_location"      gorm:"column:origin_location;not null"`
	ReceiverFirstName   string    `db:"receiver_first_name"  gorm:"column:receiver_first_name;not null"`
	ReceiverPhone       string    `db:"receiver_phone"       gorm:"column:receiver_phone;not null"`
	DestinationLocation string    `db:"destination_location" gorm:"column:destination_location;not null"`
	Amount              float64   `db:"amount"               gorm:"column:amount;not null"`
	Fees                float64   `db:"fees"                 gorm:"column:fees;not null;default:0"`
	RecoveryAmount      float64   `db:"recovery_amount"      gorm:"column:recovery_amount;not null"`
	Currency            string    `db:"currency"             gorm:"column:currency;not null"`
	RecoveryMode        string    `db:"recovery_mode"        gorm:"column:recovery_mode;not null"`
	Retired             bool      `db:"retired"              gorm:"column:retired;not null;default:false"`
	RetraitHistory      string    `db:"retrait_history"      gorm:"column:retrait_history;not null;default:'[]'"`
	CreatedAt           time.Time `db:"created_at"           gorm:"column:created_at;autoCreateTime"`
}

func (TransferEntity) TableName() string {
	return "transfers"
}

func marshalHistory(entries []model.WithdrawalEntry) string {
	if len(entries) == 0 {
		return "[]"
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func unmarshalHistory(raw string) []model.WithdrawalEntry {
	if raw == "" {
		return []model.WithdrawalEntry{}
	}
	var entries []model.WithdrawalEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return []model.WithdrawalEntry{}
	}
	if entries == nil {
		entries = []model.WithdrawalEntry{}
	}
	return entries
}

func toTransferEntity(t *model.Transfer) *TransferEntity {
	if t == nil {
		return nil
	}
	return &TransferEntity{
		ID:                  t.ID,
		Code:                t.Code,
		UserType:            t.UserType,
		SenderFirstName:     t.SenderFirstName,
		SenderPhone:         t.SenderPhone,
		OriginLocation:      t.OriginLocation,
		ReceiverFirstName:   t.ReceiverFirstName,
		ReceiverPhone:       t.ReceiverPhone,
		DestinationLocation: t.DestinationLocation,
		Amount:              t.Amount,
		Fees:                t.Fees,
		RecoveryAmount:      t.RecoveryAmount,
		Currency:            t.Currency,
		RecoveryMode:        t.RecoveryMode,
		Retired:             t.Retired,
		RetraitHistory:      marshalHistory(t.RetraitHistory),
		CreatedAt:           t.CreatedAt,
	}
}

func toTransferModel(e *TransferEntity) *model.Transfer {
	if e == nil {
		return nil
	}
	return &model.Transfer{
		ID:                  e.ID,
		Code:                e.Code,
		UserType:            e.UserType,
		SenderFirstName:     e.SenderFirstName,
		SenderPhone:         e.SenderPhone,
		OriginLocation:      e.OriginLocation,
		ReceiverFirstName:   e.ReceiverFirstName,
		ReceiverPhone:       e.ReceiverPhone,
		DestinationLocation: e.DestinationLocation,
		Amount:              e.Amount,
		Fees:                e.Fees,
		RecoveryAmount:      e.RecoveryAmount,
		Currency:            e.Currency,
		RecoveryMode:        e.RecoveryMode,
		Retired:             e.Retired,
		RetraitHistory:      unmarshalHistory(e.RetraitHistory),
		CreatedAt:           e.CreatedAt,
	}
}

func toTransferModels(entities []*TransferEntity) []*model.Transfer {
	if entities == nil {
		return nil
	}
	models := make([]*model.Transfer, len(entities))
	for i, e := range entities {
		models[i] = toTransferModel(e)
	}
	return models
}

// transferUpdateFields maps a partial update onto column assignments.
func transferUpdateFields(u model.TransferUpdate) map[string]interface{} {
	fields := make(map[string]interface{})
	if u.UserType != nil {
		fields["user_type"] = *u.UserType
	}
	if u.SenderFirstName != nil {
		fields["sender_first_name"] = *u.SenderFirstName
	}
	if u.SenderPhone != nil {
		fields["sender_phone"] = *u.SenderPhone
	}
	if u.OriginLocation != nil {
		fields["origin_location"] = model.Normalize(*u.OriginLocation)
	}
	if u.ReceiverFirstName != nil {
		fields["receiver_first_name"] = *u.ReceiverFirstName
	}
	if u.ReceiverPhone != nil {
		fields["receiver_phone"] = *u.ReceiverPhone
	}
	if u.DestinationLocation != nil {
		fields["destination_location"] = model.Normalize(*u.DestinationLocation)
	}
	if u.Amount != nil {
		fields["amount"] = *u.Amount
	}
	if u.Fees != nil {
		fields["fees"] = *u.Fees
	}
	if u.Currency != nil {
		fields["currency"] = model.Normalize(*u.Currency)
	}
	if u.RecoveryMode != nil {
		fields["recovery_mode"] = model.Normalize(*u.RecoveryMode)
	}
	return fields
}
