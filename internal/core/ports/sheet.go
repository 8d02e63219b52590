package ports

import (
	"context"

	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/core/domain"
)

// SheetStore is the row-oriented backend holding one row per asset. The
// backend offers no transactions; ConditionalWrite is the only mutation
// primitive for existing rows and must verify the stored version within the
// same call.
type SheetStore interface {
	// Read returns the latest stored row, or domain.ErrNotFound.
	Read(ctx context.Context, assetID string) (domain.Asset, error)

	// ConditionalWrite replaces the row only if its stored version still
	// equals expectedVersion. It returns false when another writer advanced
	// the version first. A false return means nothing was written.
	ConditionalWrite(ctx context.Context, assetID string, expectedVersion int64, row domain.Asset) (bool, error)

	// Append inserts a brand-new row. Rows are never physically deleted.
	Append(ctx context.Context, row domain.Asset) error

	// List returns every stored row.
	List(ctx context.Context) ([]domain.Asset, error)
}
