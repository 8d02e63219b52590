// Package sqlite implements the registry's storage ports on a local sqlite
// file. It deliberately honors the same contract as the remote sheet
// backend: no multi-row transactions across assets, append-only rows, and a
// version-guarded single-row update as the only mutation primitive.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/adapters/sqlite/gormsqlite"
	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/core/domain"
)

type assetModel struct {
	AssetID        string    `gorm:"column:asset_id;primaryKey"`
	Branch         string    `gorm:"column:branch;not null"`
	Category       string    `gorm:"column:category;not null"`
	Description    string    `gorm:"column:description;not null"`
	Status         string    `gorm:"column:status;not null"`
	Holder         string    `gorm:"column:holder;not null"`
	Version        int64     `gorm:"column:version;not null"`
	LastModifiedAt time.Time `gorm:"column:last_modified_at;not null"`
	LastModifiedBy string    `gorm:"column:last_modified_by;not null"`
}

func (assetModel) TableName() string {
	return "assets"
}

type SheetStore struct {
	db *gormsqlite.DB
}

func NewSheetStore(db *gormsqlite.DB) *SheetStore {
	return &SheetStore{db: db}
}

func (s *SheetStore) Read(ctx context.Context, assetID string) (domain.Asset, error) {
	var model assetModel
	err := s.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("asset_id = ?", assetID).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Asset{}, domain.ErrNotFound
		}
		return domain.Asset{}, classify(fmt.Errorf("read asset: %w", err))
	}
	return toAsset(model), nil
}

// ConditionalWrite applies the row in a single guarded UPDATE. RowsAffected
// distinguishes a lost race from a missing row.
func (s *SheetStore) ConditionalWrite(ctx context.Context, assetID string, expectedVersion int64, row domain.Asset) (bool, error) {
	var affected int64
	err := s.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Model(&assetModel{}).
			Where("asset_id = ? AND version = ?", assetID, expectedVersion).
			Updates(map[string]any{
				"branch":           row.Branch,
				"category":         row.Category,
				"description":      row.Description,
				"status":           string(row.Status),
				"holder":           row.Holder,
				"version":          row.Version,
				"last_modified_at": row.LastModifiedAt,
				"last_modified_by": row.LastModifiedBy,
			})
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		return false, classify(fmt.Errorf("conditional write: %w", err))
	}
	if affected > 0 {
		return true, nil
	}

	// Nothing matched: either the row is gone or another writer advanced
	// the version first.
	if _, err := s.Read(ctx, assetID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, domain.ErrNotFound
		}
		return false, err
	}
	return false, nil
}

func (s *SheetStore) Append(ctx context.Context, row domain.Asset) error {
	model := toModel(row)
	err := s.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return classify(fmt.Errorf("append asset: %w", err))
	}
	return nil
}

func (s *SheetStore) List(ctx context.Context) ([]domain.Asset, error) {
	var models []assetModel
	err := s.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Order("asset_id ASC").Find(&models).Error
	})
	if err != nil {
		return nil, classify(fmt.Errorf("list assets: %w", err))
	}

	assets := make([]domain.Asset, 0, len(models))
	for _, model := range models {
		assets = append(assets, toAsset(model))
	}
	return assets, nil
}

func toModel(a domain.Asset) assetModel {
	return assetModel{
		AssetID:        a.ID,
		Branch:         a.Branch,
		Category:       a.Category,
		Description:    a.Description,
		Status:         string(a.Status),
		Holder:         a.Holder,
		Version:        a.Version,
		LastModifiedAt: a.LastModifiedAt,
		LastModifiedBy: a.LastModifiedBy,
	}
}

func toAsset(m assetModel) domain.Asset {
	return domain.Asset{
		ID:             m.AssetID,
		Branch:         m.Branch,
		Category:       m.Category,
		Description:    m.Description,
		Status:         domain.Status(m.Status),
		Holder:         m.Holder,
		Version:        m.Version,
		LastModifiedAt: m.LastModifiedAt,
		LastModifiedBy: m.LastModifiedBy,
	}
}

// classify tags errors so the registry can tell retriable backend hiccups
// from hard failures. For local sqlite only lock contention and deadlines
// are transient.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") {
		return fmt.Errorf("%v: %w", err, domain.ErrTransientBackend)
	}
	return fmt.Errorf("%v: %w", err, domain.ErrPermanentBackend)
}
