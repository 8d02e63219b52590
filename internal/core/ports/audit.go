package ports

import (
	"context"

	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/core/domain"
)

type AuditLog interface {
	Append(ctx context.Context, rec domain.AuditRecord) error
	List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditRecord, error)
}
