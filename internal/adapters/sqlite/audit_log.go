package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/adapters/sqlite/gormsqlite"
	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/core/domain"
)

type auditModel struct {
	Seq             uint64    `gorm:"column:seq;primaryKey;autoIncrement"`
	RecordID        string    `gorm:"column:record_id;not null;uniqueIndex"`
	AssetID         string    `gorm:"column:asset_id;not null;index"`
	Action          string    `gorm:"column:action;not null"`
	Actor           string    `gorm:"column:actor;not null"`
	Timestamp       time.Time `gorm:"column:timestamp;not null"`
	PreviousVersion int64     `gorm:"column:previous_version;not null"`
	NewVersion      int64     `gorm:"column:new_version;not null"`
	Note            string    `gorm:"column:note;not null"`
}

func (auditModel) TableName() string {
	return "audit_records"
}

// AuditLog is the append-only ledger. There is intentionally no update or
// delete path.
type AuditLog struct {
	db *gormsqlite.DB
}

func NewAuditLog(db *gormsqlite.DB) *AuditLog {
	return &AuditLog{db: db}
}

func (l *AuditLog) Append(ctx context.Context, rec domain.AuditRecord) error {
	model := auditModel{
		RecordID:        rec.ID,
		AssetID:         rec.AssetID,
		Action:          rec.Action,
		Actor:           rec.Actor,
		Timestamp:       rec.Timestamp,
		PreviousVersion: rec.PreviousVersion,
		NewVersion:      rec.NewVersion,
		Note:            rec.Note,
	}
	if model.Timestamp.IsZero() {
		model.Timestamp = time.Now().UTC()
	}

	err := l.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return classify(fmt.Errorf("append audit record: %w", err))
	}
	return nil
}

func (l *AuditLog) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditRecord, error) {
	var models []auditModel
	err := l.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		query := tx.Model(&auditModel{})
		if filter.AssetID != "" {
			query = query.Where("asset_id = ?", filter.AssetID)
		}
		if filter.Action != "" {
			query = query.Where("action = ?", filter.Action)
		}
		if filter.Actor != "" {
			query = query.Where("actor = ?", filter.Actor)
		}
		return query.Order("seq DESC").Limit(filter.Limit).Find(&models).Error
	})
	if err != nil {
		return nil, classify(fmt.Errorf("list audit records: %w", err))
	}

	records := make([]domain.AuditRecord, 0, len(models))
	for _, model := range models {
		records = append(records, domain.AuditRecord{
			ID:              model.RecordID,
			AssetID:         model.AssetID,
			Action:          model.Action,
			Actor:           model.Actor,
			Timestamp:       model.Timestamp,
			PreviousVersion: model.PreviousVersion,
			NewVersion:      model.NewVersion,
			Note:            model.Note,
		})
	}
	return records, nil
}
