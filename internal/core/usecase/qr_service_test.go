package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/core/domain"
)

func TestQRResolveKnownAsset(t *testing.T) {
	registry, _ := newTestRegistry(newMemStore())
	asset := mustCreate(t, registry, "SWC001")
	svc := NewQRService(registry)

	id, err := svc.Resolve(context.Background(), domain.EncodeQRPayload(asset.ID))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != asset.ID {
		t.Fatalf("resolved %q, want %q", id, asset.ID)
	}
}

func TestQRResolveUnknownAsset(t *testing.T) {
	registry, _ := newTestRegistry(newMemStore())
	svc := NewQRService(registry)

	_, err := svc.Resolve(context.Background(), domain.EncodeQRPayload("0012699999"))
	if !errors.Is(err, domain.ErrUnknownAsset) {
		t.Fatalf("expected unknown asset, got %v", err)
	}
}

// Checksum failures are reported as malformed scans, never as lookup
// misses, so label reprint and data-repair workflows can tell them apart.
func TestQRResolveMalformedBeforeLookup(t *testing.T) {
	reads := 0
	store := &stubStore{readFn: func(ctx context.Context, assetID string) (domain.Asset, error) {
		reads++
		return domain.Asset{}, domain.ErrNotFound
	}}
	registry := NewRegistryService(store, &recordingAudit{})
	svc := NewQRService(registry)

	_, err := svc.Resolve(context.Background(), "ITA-0012600001-00000000")
	if !errors.Is(err, domain.ErrMalformedPayload) {
		t.Fatalf("expected malformed payload, got %v", err)
	}
	if reads != 0 {
		t.Fatalf("store must not be consulted for malformed payloads, got %d reads", reads)
	}
}

func TestQRResolveBackendErrorPassedThrough(t *testing.T) {
	store := &stubStore{readFn: func(ctx context.Context, assetID string) (domain.Asset, error) {
		return domain.Asset{}, domain.ErrPermanentBackend
	}}
	registry := NewRegistryService(store, &recordingAudit{})
	svc := NewQRService(registry)

	_, err := svc.Resolve(context.Background(), domain.EncodeQRPayload("0012600001"))
	if !errors.Is(err, domain.ErrPermanentBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if errors.Is(err, domain.ErrUnknownAsset) {
		t.Fatalf("backend failure must not masquerade as unknown asset")
	}
}
