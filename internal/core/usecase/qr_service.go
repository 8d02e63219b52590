package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/core/domain"
)

// QRService maps scanned label payloads to canonical asset ids. Payload
// shape and checksum are verified before the registry is consulted, so a
// corrupted scan never reads as an unknown asset. Resolution never mutates
// state.
type QRService struct {
	registry *RegistryService
}

func NewQRService(registry *RegistryService) *QRService {
	return &QRService{registry: registry}
}

func (s *QRService) Resolve(ctx context.Context, raw string) (string, error) {
	assetID, err := domain.ParseQRPayload(raw)
	if err != nil {
		return "", err
	}

	if _, err := s.registry.GetAsset(ctx, assetID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", assetID, domain.ErrUnknownAsset)
		}
		return "", fmt.Errorf("resolve %s: %w", assetID, err)
	}
	return assetID, nil
}
