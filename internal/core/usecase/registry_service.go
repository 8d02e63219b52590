package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/core/domain"
	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/core/ports"
)

// CheckoutPolicy decides whether staff may check assets out to (or in from)
// someone other than themselves. Admins are never restricted.
type CheckoutPolicy string

const (
	PolicySelfOnly      CheckoutPolicy = "self_only"
	PolicyAdminOverride CheckoutPolicy = "admin_override"
)

func (p CheckoutPolicy) Valid() bool {
	return p == PolicySelfOnly || p == PolicyAdminOverride
}

const (
	maxTagAttempts  = 5
	maxReadAttempts = 3
)

var ErrInvalidArgument = errors.New("invalid argument")

// RegistryService is the asset registry core. Every mutation follows
// read-verify-write against the sheet store: the freshly read version must
// match the caller's expected version, and the conditional write re-verifies
// it inside the store. A lost race is surfaced as ErrVersionConflict and is
// never retried here; the caller must re-read and resubmit.
type RegistryService struct {
	store  ports.SheetStore
	audit  ports.AuditLog
	policy CheckoutPolicy

	now       func() time.Time
	runNumber func() string
	backoff   func(attempt int) time.Duration
}

type RegistryOption func(*RegistryService)

func WithCheckoutPolicy(p CheckoutPolicy) RegistryOption {
	return func(s *RegistryService) {
		if p.Valid() {
			s.policy = p
		}
	}
}

func WithClock(now func() time.Time) RegistryOption {
	return func(s *RegistryService) { s.now = now }
}

func WithRunNumber(fn func() string) RegistryOption {
	return func(s *RegistryService) { s.runNumber = fn }
}

func WithReadBackoff(fn func(attempt int) time.Duration) RegistryOption {
	return func(s *RegistryService) { s.backoff = fn }
}

func NewRegistryService(store ports.SheetStore, audit ports.AuditLog, opts ...RegistryOption) *RegistryService {
	s := &RegistryService{
		store:     store,
		audit:     audit,
		policy:    PolicyAdminOverride,
		now:       time.Now,
		runNumber: func() string { return fmt.Sprintf("%05d", rand.IntN(100000)) },
		backoff:   readBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAsset issues a fresh asset tag, probes the store for collisions, and
// appends the new row with status in_stock and version 0.
func (s *RegistryService) CreateAsset(ctx context.Context, p domain.Principal, branch, category, description string) (domain.Asset, error) {
	if p.Role != domain.RoleAdmin {
		return domain.Asset{}, fmt.Errorf("create asset: %w", domain.ErrPermission)
	}

	var assetID string
	for attempt := 0; attempt < maxTagAttempts; attempt++ {
		candidate := branchDigits(branch) + s.now().Format("06") + s.runNumber()
		_, err := s.readWithRetry(ctx, candidate)
		if errors.Is(err, domain.ErrNotFound) {
			assetID = candidate
			break
		}
		if err != nil {
			return domain.Asset{}, err
		}
		// Tag already taken, regenerate.
	}
	if assetID == "" {
		return domain.Asset{}, fmt.Errorf("create asset: %w", domain.ErrTagExhausted)
	}

	asset := domain.Asset{
		ID:             assetID,
		Branch:         branch,
		Category:       category,
		Description:    description,
		Status:         domain.StatusInStock,
		Version:        0,
		LastModifiedAt: s.now().UTC(),
		LastModifiedBy: p.Name,
	}
	if err := asset.Validate(); err != nil {
		return domain.Asset{}, fmt.Errorf("create asset: %v: %w", err, ErrInvalidArgument)
	}

	if err := s.store.Append(ctx, asset); err != nil {
		if errors.Is(err, domain.ErrTransientBackend) {
			// The insert may or may not have landed. Never re-issue it.
			return domain.Asset{}, fmt.Errorf("create asset %s: %v: %w", assetID, err, domain.ErrIndeterminate)
		}
		return domain.Asset{}, fmt.Errorf("create asset %s: %w", assetID, err)
	}

	return asset, s.appendAudit(ctx, assetID, domain.ActionCreate, p.Name, 0, 0, category)
}

// CheckOut assigns an in-stock asset to holder.
func (s *RegistryService) CheckOut(ctx context.Context, p domain.Principal, assetID, holder string, expectedVersion int64) (domain.Asset, error) {
	if strings.TrimSpace(holder) == "" {
		return domain.Asset{}, fmt.Errorf("check out: holder must not be empty: %w", ErrInvalidArgument)
	}
	if s.policy == PolicySelfOnly && p.Role != domain.RoleAdmin && holder != p.Name {
		return domain.Asset{}, fmt.Errorf("check out for %s: %w", holder, domain.ErrPermission)
	}

	return s.transition(ctx, p, assetID, expectedVersion, domain.ActionCheckOut, holder, true,
		func(cur domain.Asset) error {
			if cur.Status != domain.StatusInStock {
				return fmt.Errorf("asset is %s: %w", cur.Status, domain.ErrInvalidState)
			}
			return nil
		},
		func(next *domain.Asset) {
			next.Status = domain.StatusAssigned
			next.Holder = holder
		})
}

// CheckIn returns an assigned asset to stock and clears its holder.
func (s *RegistryService) CheckIn(ctx context.Context, p domain.Principal, assetID string, expectedVersion int64) (domain.Asset, error) {
	return s.transition(ctx, p, assetID, expectedVersion, domain.ActionCheckIn, "", true,
		func(cur domain.Asset) error {
			if cur.Status != domain.StatusAssigned {
				return fmt.Errorf("asset is %s: %w", cur.Status, domain.ErrInvalidState)
			}
			if s.policy == PolicySelfOnly && p.Role != domain.RoleAdmin && cur.Holder != p.Name {
				return fmt.Errorf("asset held by %s: %w", cur.Holder, domain.ErrPermission)
			}
			return nil
		},
		func(next *domain.Asset) {
			next.Status = domain.StatusInStock
			next.Holder = ""
		})
}

// Retire moves an asset into the terminal retired status. The row stays in
// the store for audit purposes.
func (s *RegistryService) Retire(ctx context.Context, p domain.Principal, assetID string, expectedVersion int64, note string) (domain.Asset, error) {
	if p.Role != domain.RoleAdmin {
		return domain.Asset{}, fmt.Errorf("retire: %w", domain.ErrPermission)
	}

	return s.transition(ctx, p, assetID, expectedVersion, domain.ActionRetire, note, true,
		nil,
		func(next *domain.Asset) {
			next.Status = domain.StatusRetired
			next.Holder = ""
		})
}

// MetadataPatch carries the editable free-text fields. Absent fields are
// left untouched.
type MetadataPatch struct {
	Category    *string `json:"category"`
	Description *string `json:"description"`
}

// EditMetadata updates category/description without moving the status
// machine. Retired assets stay editable; only status transitions are frozen.
func (s *RegistryService) EditMetadata(ctx context.Context, p domain.Principal, assetID string, fields json.RawMessage, expectedVersion int64) (domain.Asset, error) {
	if err := validateMetadataPatch(fields); err != nil {
		return domain.Asset{}, err
	}
	var patch MetadataPatch
	if err := json.Unmarshal(fields, &patch); err != nil {
		return domain.Asset{}, fmt.Errorf("edit metadata: %v: %w", err, ErrInvalidArgument)
	}

	return s.transition(ctx, p, assetID, expectedVersion, domain.ActionEdit, "", false,
		nil,
		func(next *domain.Asset) {
			if patch.Category != nil {
				next.Category = *patch.Category
			}
			if patch.Description != nil {
				next.Description = *patch.Description
			}
		})
}

// GetAsset reads the latest stored row. No caching across calls; a stale
// read here would feed stale expected versions into the next mutation.
func (s *RegistryService) GetAsset(ctx context.Context, assetID string) (domain.Asset, error) {
	return s.readWithRetry(ctx, assetID)
}

type ListFilter struct {
	Status   domain.Status
	Category string
	Holder   string
}

// ListAssets returns the full inventory filtered in memory. The tabular
// backends have no query surface beyond a range read.
func (s *RegistryService) ListAssets(ctx context.Context, filter ListFilter) ([]domain.Asset, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}

	out := make([]domain.Asset, 0, len(rows))
	for _, a := range rows {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(a.Category, filter.Category) {
			continue
		}
		if filter.Holder != "" && a.Holder != filter.Holder {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *RegistryService) transition(
	ctx context.Context,
	p domain.Principal,
	assetID string,
	expectedVersion int64,
	action, note string,
	statusChanging bool,
	check func(domain.Asset) error,
	apply func(*domain.Asset),
) (domain.Asset, error) {
	cur, err := s.readWithRetry(ctx, assetID)
	if err != nil {
		return domain.Asset{}, err
	}

	// Retired is absorbing: status transitions fail regardless of the
	// supplied expected version.
	if statusChanging && cur.Status == domain.StatusRetired {
		return domain.Asset{}, fmt.Errorf("%s %s: asset is retired: %w", action, assetID, domain.ErrInvalidState)
	}
	if cur.Version != expectedVersion {
		return domain.Asset{}, fmt.Errorf("%s %s: expected version %d, stored %d: %w",
			action, assetID, expectedVersion, cur.Version, domain.ErrVersionConflict)
	}
	if check != nil {
		if err := check(cur); err != nil {
			return domain.Asset{}, fmt.Errorf("%s %s: %w", action, assetID, err)
		}
	}

	next := cur
	apply(&next)
	next.Version = cur.Version + 1
	next.LastModifiedAt = s.now().UTC()
	next.LastModifiedBy = p.Name
	if err := next.Validate(); err != nil {
		return domain.Asset{}, fmt.Errorf("%s %s: %w", action, assetID, err)
	}

	applied, err := s.store.ConditionalWrite(ctx, assetID, expectedVersion, next)
	if err != nil {
		if errors.Is(err, domain.ErrTransientBackend) {
			// The write was issued; whether it committed is unknown. The
			// caller must re-read before resubmitting.
			return domain.Asset{}, fmt.Errorf("%s %s: %v: %w", action, assetID, err, domain.ErrIndeterminate)
		}
		return domain.Asset{}, fmt.Errorf("%s %s: %w", action, assetID, err)
	}
	if !applied {
		return domain.Asset{}, fmt.Errorf("%s %s: %w", action, assetID, domain.ErrVersionConflict)
	}

	return next, s.appendAudit(ctx, assetID, action, p.Name, cur.Version, next.Version, note)
}

// appendAudit writes the ledger entry for an already-committed mutation.
// Failure is non-fatal: the asset row is the primary record and the gap can
// be reconciled from the version sequence later.
func (s *RegistryService) appendAudit(ctx context.Context, assetID, action, actor string, prev, next int64, note string) error {
	rec := domain.AuditRecord{
		ID:              uuid.NewString(),
		AssetID:         assetID,
		Action:          action,
		Actor:           actor,
		Timestamp:       s.now().UTC(),
		PreviousVersion: prev,
		NewVersion:      next,
		Note:            note,
	}
	if err := s.audit.Append(ctx, rec); err != nil {
		log.Printf("audit append %s %s: %v", action, assetID, err)
		return fmt.Errorf("%s %s: %v: %w", action, assetID, err, domain.ErrAuditWrite)
	}
	return nil
}

func (s *RegistryService) readWithRetry(ctx context.Context, assetID string) (domain.Asset, error) {
	var lastErr error
	for attempt := 1; attempt <= maxReadAttempts; attempt++ {
		asset, err := s.store.Read(ctx, assetID)
		if err == nil {
			return asset, nil
		}
		if !errors.Is(err, domain.ErrTransientBackend) {
			return domain.Asset{}, err
		}
		lastErr = err
		if attempt == maxReadAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return domain.Asset{}, ctx.Err()
		case <-time.After(s.backoff(attempt)):
		}
	}
	return domain.Asset{}, fmt.Errorf("read %s: %w", assetID, lastErr)
}

func readBackoff(attempt int) time.Duration {
	return time.Duration(attempt*attempt) * 100 * time.Millisecond
}

// branchDigits keeps at most three digits of the branch code, left-padded
// with zeros, matching the printed tag scheme.
func branchDigits(branch string) string {
	digits := make([]byte, 0, 3)
	for i := 0; i < len(branch) && len(digits) < 3; i++ {
		if branch[i] >= '0' && branch[i] <= '9' {
			digits = append(digits, branch[i])
		}
	}
	for len(digits) < 3 {
		digits = append([]byte{'0'}, digits...)
	}
	return string(digits)
}
