package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/adapters/sqlite/gormsqlite"
)

type kvModel struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (kvModel) TableName() string {
	return "kv_entries"
}

// ReplayCache persists idempotent responses so a retried mutation request
// replays the original outcome instead of re-running the transition.
type ReplayCache struct {
	db *gormsqlite.DB
}

func NewReplayCache(db *gormsqlite.DB) *ReplayCache {
	return &ReplayCache{db: db}
}

func (c *ReplayCache) Put(ctx context.Context, key string, value json.RawMessage) error {
	model := kvModel{
		Key:       key,
		Value:     string(value),
		UpdatedAt: time.Now().UTC(),
	}
	err := c.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("put replay entry: %w", err)
	}
	return nil
}

func (c *ReplayCache) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	var model kvModel
	err := c.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("key = ?", key).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get replay entry: %w", err)
	}
	return json.RawMessage(model.Value), true, nil
}
