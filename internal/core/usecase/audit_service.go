package usecase

import (
	"context"

	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/core/domain"
	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/core/ports"
)

// AuditService reads the history ledger. Writes go through the registry
// only; nothing here mutates the log.
type AuditService struct {
	log ports.AuditLog
}

func NewAuditService(log ports.AuditLog) *AuditService {
	return &AuditService{log: log}
}

func (s *AuditService) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditRecord, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}
	return s.log.List(ctx, filter)
}
