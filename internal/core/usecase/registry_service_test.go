package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/core/domain"
)

type stubStore struct {
	readFn   func(ctx context.Context, assetID string) (domain.Asset, error)
	writeFn  func(ctx context.Context, assetID string, expectedVersion int64, row domain.Asset) (bool, error)
	appendFn func(ctx context.Context, row domain.Asset) error
	listFn   func(ctx context.Context) ([]domain.Asset, error)
}

func (s *stubStore) Read(ctx context.Context, assetID string) (domain.Asset, error) {
	if s.readFn != nil {
		return s.readFn(ctx, assetID)
	}
	return domain.Asset{}, domain.ErrNotFound
}

func (s *stubStore) ConditionalWrite(ctx context.Context, assetID string, expectedVersion int64, row domain.Asset) (bool, error) {
	if s.writeFn != nil {
		return s.writeFn(ctx, assetID, expectedVersion, row)
	}
	return true, nil
}

func (s *stubStore) Append(ctx context.Context, row domain.Asset) error {
	if s.appendFn != nil {
		return s.appendFn(ctx, row)
	}
	return nil
}

func (s *stubStore) List(ctx context.Context) ([]domain.Asset, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

type recordingAudit struct {
	mu       sync.Mutex
	appendFn func(ctx context.Context, rec domain.AuditRecord) error
	records  []domain.AuditRecord
}

func (a *recordingAudit) Append(ctx context.Context, rec domain.AuditRecord) error {
	if a.appendFn != nil {
		return a.appendFn(ctx, rec)
	}
	a.mu.Lock()
	a.records = append(a.records, rec)
	a.mu.Unlock()
	return nil
}

func (a *recordingAudit) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.AuditRecord(nil), a.records...), nil
}

// memStore implements the conditional-write contract in memory so lifecycle
// and race tests can run against real compare-and-swap semantics.
type memStore struct {
	mu   sync.Mutex
	rows map[string]domain.Asset
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]domain.Asset{}}
}

func (m *memStore) Read(ctx context.Context, assetID string) (domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[assetID]
	if !ok {
		return domain.Asset{}, domain.ErrNotFound
	}
	return row, nil
}

func (m *memStore) ConditionalWrite(ctx context.Context, assetID string, expectedVersion int64, row domain.Asset) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[assetID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return false, nil
	}
	m.rows[assetID] = row
	return true, nil
}

func (m *memStore) Append(ctx context.Context, row domain.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.rows[row.ID]; exists {
		return fmt.Errorf("duplicate asset id %s: %w", row.ID, domain.ErrPermanentBackend)
	}
	m.rows[row.ID] = row
	return nil
}

func (m *memStore) List(ctx context.Context) ([]domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Asset, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}
	return out, nil
}

var (
	admin = domain.Principal{Name: "root", Role: domain.RoleAdmin}
	staff = domain.Principal{Name: "alice", Role: domain.RoleStaff}
)

func fixedClock() func() time.Time {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func sequence(values ...string) func() string {
	i := 0
	return func() string {
		v := values[i%len(values)]
		i++
		return v
	}
}

func newTestRegistry(store *memStore, opts ...RegistryOption) (*RegistryService, *recordingAudit) {
	audit := &recordingAudit{}
	base := []RegistryOption{
		WithClock(fixedClock()),
		WithRunNumber(sequence("00001", "00002", "00003", "00004", "00005")),
		WithReadBackoff(func(int) time.Duration { return 0 }),
	}
	return NewRegistryService(store, audit, append(base, opts...)...), audit
}

func mustCreate(t *testing.T, svc *RegistryService, branch string) domain.Asset {
	t.Helper()
	asset, err := svc.CreateAsset(context.Background(), admin, branch, "Laptop", "Dell XPS 13")
	if err != nil {
		t.Fatalf("create asset: %v", err)
	}
	return asset
}

func checkInvariant(t *testing.T, a domain.Asset) {
	t.Helper()
	if (a.Holder != "") != (a.Status == domain.StatusAssigned) {
		t.Fatalf("holder/status invariant violated: status=%s holder=%q", a.Status, a.Holder)
	}
}

func TestCreateAssetRequiresAdmin(t *testing.T) {
	svc, _ := newTestRegistry(newMemStore())

	_, err := svc.CreateAsset(context.Background(), staff, "SWC001", "Laptop", "")
	if !errors.Is(err, domain.ErrPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestCreateAssetInitialState(t *testing.T) {
	svc, audit := newTestRegistry(newMemStore())

	asset := mustCreate(t, svc, "SWC001")
	if asset.ID != "0012600001" {
		t.Fatalf("unexpected asset id %q", asset.ID)
	}
	if asset.Status != domain.StatusInStock || asset.Version != 0 {
		t.Fatalf("unexpected initial state: %+v", asset)
	}
	checkInvariant(t, asset)

	if len(audit.records) != 1 || audit.records[0].Action != domain.ActionCreate {
		t.Fatalf("expected one create audit record, got %+v", audit.records)
	}
	if audit.records[0].AssetID != asset.ID {
		t.Fatalf("audit record for wrong asset: %s", audit.records[0].AssetID)
	}
}

func TestCreateAssetRegeneratesOnTagCollision(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestRegistry(store)

	first := mustCreate(t, svc, "SWC001")
	if first.ID != "0012600001" {
		t.Fatalf("unexpected first id %q", first.ID)
	}

	// The run-number sequence restarts per service; a fresh service with
	// the same sequence collides on its first candidate and must move on.
	svc2 := NewRegistryService(store, &recordingAudit{},
		WithClock(fixedClock()),
		WithRunNumber(sequence("00001", "77777")),
		WithReadBackoff(func(int) time.Duration { return 0 }))
	second, err := svc2.CreateAsset(context.Background(), admin, "SWC001", "Monitor", "")
	if err != nil {
		t.Fatalf("create after collision: %v", err)
	}
	if second.ID != "0012677777" {
		t.Fatalf("expected regenerated tag, got %q", second.ID)
	}
}

func TestCreateAssetTagExhausted(t *testing.T) {
	store := &stubStore{readFn: func(ctx context.Context, assetID string) (domain.Asset, error) {
		return domain.Asset{ID: assetID, Status: domain.StatusInStock}, nil
	}}
	svc := NewRegistryService(store, &recordingAudit{},
		WithClock(fixedClock()),
		WithRunNumber(sequence("00001")))

	_, err := svc.CreateAsset(context.Background(), admin, "SWC001", "Laptop", "")
	if !errors.Is(err, domain.ErrTagExhausted) {
		t.Fatalf("expected tag exhaustion, got %v", err)
	}
}

func TestCheckOutAssignsHolder(t *testing.T) {
	svc, audit := newTestRegistry(newMemStore())
	asset := mustCreate(t, svc, "SWC001")

	out, err := svc.CheckOut(context.Background(), staff, asset.ID, "alice", 0)
	if err != nil {
		t.Fatalf("check out: %v", err)
	}
	if out.Status != domain.StatusAssigned || out.Holder != "alice" || out.Version != 1 {
		t.Fatalf("unexpected state after check out: %+v", out)
	}
	checkInvariant(t, out)

	last := audit.records[len(audit.records)-1]
	if last.Action != domain.ActionCheckOut || last.PreviousVersion != 0 || last.NewVersion != 1 {
		t.Fatalf("unexpected audit record: %+v", last)
	}
}

func TestCheckOutStaleVersion(t *testing.T) {
	svc, _ := newTestRegistry(newMemStore())
	asset := mustCreate(t, svc, "SWC001")

	if _, err := svc.CheckOut(context.Background(), staff, asset.ID, "alice", 0); err != nil {
		t.Fatalf("first check out: %v", err)
	}
	if _, err := svc.CheckIn(context.Background(), staff, asset.ID, 1); err != nil {
		t.Fatalf("check in: %v", err)
	}

	_, err := svc.CheckOut(context.Background(), staff, asset.ID, "bob", 0)
	if !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
}

func TestCheckOutLostRace(t *testing.T) {
	store := &stubStore{
		readFn: func(ctx context.Context, assetID string) (domain.Asset, error) {
			return domain.Asset{ID: assetID, Status: domain.StatusInStock, Version: 0}, nil
		},
		writeFn: func(ctx context.Context, assetID string, expectedVersion int64, row domain.Asset) (bool, error) {
			// Another writer advanced the version between our read and
			// the conditional write.
			return false, nil
		},
	}
	svc := NewRegistryService(store, &recordingAudit{})

	_, err := svc.CheckOut(context.Background(), staff, "0012600001", "alice", 0)
	if !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
}

func TestCheckOutAssignedAsset(t *testing.T) {
	svc, _ := newTestRegistry(newMemStore())
	asset := mustCreate(t, svc, "SWC001")

	if _, err := svc.CheckOut(context.Background(), staff, asset.ID, "alice", 0); err != nil {
		t.Fatalf("first check out: %v", err)
	}

	_, err := svc.CheckOut(context.Background(), staff, asset.ID, "bob", 1)
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestCheckInClearsHolder(t *testing.T) {
	svc, _ := newTestRegistry(newMemStore())
	asset := mustCreate(t, svc, "SWC001")

	if _, err := svc.CheckOut(context.Background(), staff, asset.ID, "alice", 0); err != nil {
		t.Fatalf("check out: %v", err)
	}
	in, err := svc.CheckIn(context.Background(), staff, asset.ID, 1)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if in.Status != domain.StatusInStock || in.Holder != "" || in.Version != 2 {
		t.Fatalf("unexpected state after check in: %+v", in)
	}
	checkInvariant(t, in)
}

func TestCheckInRequiresAssigned(t *testing.T) {
	svc, _ := newTestRegistry(newMemStore())
	asset := mustCreate(t, svc, "SWC001")

	_, err := svc.CheckIn(context.Background(), staff, asset.ID, 0)
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestRetiredIsTerminal(t *testing.T) {
	svc, _ := newTestRegistry(newMemStore())
	asset := mustCreate(t, svc, "SWC001")

	retired, err := svc.Retire(context.Background(), admin, asset.ID, 0, "scrapped")
	if err != nil {
		t.Fatalf("retire: %v", err)
	}
	if retired.Status != domain.StatusRetired || retired.Version != 1 {
		t.Fatalf("unexpected state after retire: %+v", retired)
	}
	checkInvariant(t, retired)

	// Correct and stale expected versions both fail with invalid state.
	for _, expected := range []int64{1, 0, 42} {
		if _, err := svc.CheckOut(context.Background(), staff, asset.ID, "alice", expected); !errors.Is(err, domain.ErrInvalidState) {
			t.Fatalf("check out after retire (v=%d): expected invalid state, got %v", expected, err)
		}
		if _, err := svc.CheckIn(context.Background(), staff, asset.ID, expected); !errors.Is(err, domain.ErrInvalidState) {
			t.Fatalf("check in after retire (v=%d): expected invalid state, got %v", expected, err)
		}
		if _, err := svc.Retire(context.Background(), admin, asset.ID, expected, ""); !errors.Is(err, domain.ErrInvalidState) {
			t.Fatalf("retire after retire (v=%d): expected invalid state, got %v", expected, err)
		}
	}
}

func TestRetireRequiresAdmin(t *testing.T) {
	svc, _ := newTestRegistry(newMemStore())
	asset := mustCreate(t, svc, "SWC001")

	_, err := svc.Retire(context.Background(), staff, asset.ID, 0, "")
	if !errors.Is(err, domain.ErrPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestSelfOnlyPolicy(t *testing.T) {
	svc, _ := newTestRegistry(newMemStore(), WithCheckoutPolicy(PolicySelfOnly))
	asset := mustCreate(t, svc, "SWC001")

	if _, err := svc.CheckOut(context.Background(), staff, asset.ID, "bob", 0); !errors.Is(err, domain.ErrPermission) {
		t.Fatalf("staff checking out for someone else: expected permission error, got %v", err)
	}

	out, err := svc.CheckOut(context.Background(), admin, asset.ID, "bob", 0)
	if err != nil {
		t.Fatalf("admin check out on behalf of bob: %v", err)
	}
	if out.Holder != "bob" {
		t.Fatalf("unexpected holder %q", out.Holder)
	}

	if _, err := svc.CheckIn(context.Background(), staff, asset.ID, 1); !errors.Is(err, domain.ErrPermission) {
		t.Fatalf("staff checking in someone else's asset: expected permission error, got %v", err)
	}
	if _, err := svc.CheckIn(context.Background(), admin, asset.ID, 1); err != nil {
		t.Fatalf("admin check in: %v", err)
	}
}

func TestEditMetadataUpdatesFieldsOnly(t *testing.T) {
	svc, audit := newTestRegistry(newMemStore())
	asset := mustCreate(t, svc, "SWC001")

	if _, err := svc.CheckOut(context.Background(), staff, asset.ID, "alice", 0); err != nil {
		t.Fatalf("check out: %v", err)
	}

	edited, err := svc.EditMetadata(context.Background(), staff, asset.ID,
		json.RawMessage(`{"category":"Ultrabook"}`), 1)
	if err != nil {
		t.Fatalf("edit metadata: %v", err)
	}
	if edited.Category != "Ultrabook" || edited.Description != "Dell XPS 13" {
		t.Fatalf("unexpected metadata: %+v", edited)
	}
	if edited.Status != domain.StatusAssigned || edited.Holder != "alice" || edited.Version != 2 {
		t.Fatalf("edit must not move the state machine: %+v", edited)
	}

	last := audit.records[len(audit.records)-1]
	if last.Action != domain.ActionEdit {
		t.Fatalf("expected edit audit record, got %+v", last)
	}
}

func TestEditMetadataRejectsUnknownField(t *testing.T) {
	svc, _ := newTestRegistry(newMemStore())
	asset := mustCreate(t, svc, "SWC001")

	_, err := svc.EditMetadata(context.Background(), staff, asset.ID,
		json.RawMessage(`{"status":"retired"}`), 0)
	var fieldErr *domain.ErrFieldViolation
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected field violation, got %v", err)
	}
}

func TestEditMetadataAllowedOnRetired(t *testing.T) {
	svc, _ := newTestRegistry(newMemStore())
	asset := mustCreate(t, svc, "SWC001")

	if _, err := svc.Retire(context.Background(), admin, asset.ID, 0, ""); err != nil {
		t.Fatalf("retire: %v", err)
	}

	edited, err := svc.EditMetadata(context.Background(), staff, asset.ID,
		json.RawMessage(`{"description":"disposed 2026"}`), 1)
	if err != nil {
		t.Fatalf("edit retired asset: %v", err)
	}
	if edited.Status != domain.StatusRetired || edited.Description != "disposed 2026" {
		t.Fatalf("unexpected state: %+v", edited)
	}
}

func TestReadRetriesTransientErrors(t *testing.T) {
	calls := 0
	store := &stubStore{readFn: func(ctx context.Context, assetID string) (domain.Asset, error) {
		calls++
		if calls < 3 {
			return domain.Asset{}, fmt.Errorf("timeout: %w", domain.ErrTransientBackend)
		}
		return domain.Asset{ID: assetID, Status: domain.StatusInStock, Version: 4}, nil
	}}
	svc := NewRegistryService(store, &recordingAudit{},
		WithReadBackoff(func(int) time.Duration { return 0 }))

	asset, err := svc.GetAsset(context.Background(), "0012600001")
	if err != nil {
		t.Fatalf("get asset: %v", err)
	}
	if calls != 3 || asset.Version != 4 {
		t.Fatalf("expected 3 read attempts, got %d (asset %+v)", calls, asset)
	}
}

func TestReadGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	store := &stubStore{readFn: func(ctx context.Context, assetID string) (domain.Asset, error) {
		calls++
		return domain.Asset{}, fmt.Errorf("timeout: %w", domain.ErrTransientBackend)
	}}
	svc := NewRegistryService(store, &recordingAudit{},
		WithReadBackoff(func(int) time.Duration { return 0 }))

	_, err := svc.GetAsset(context.Background(), "0012600001")
	if !errors.Is(err, domain.ErrTransientBackend) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if calls != maxReadAttempts {
		t.Fatalf("expected %d attempts, got %d", maxReadAttempts, calls)
	}
}

func TestPermanentReadErrorNotRetried(t *testing.T) {
	calls := 0
	store := &stubStore{readFn: func(ctx context.Context, assetID string) (domain.Asset, error) {
		calls++
		return domain.Asset{}, fmt.Errorf("forbidden: %w", domain.ErrPermanentBackend)
	}}
	svc := NewRegistryService(store, &recordingAudit{})

	_, err := svc.GetAsset(context.Background(), "0012600001")
	if !errors.Is(err, domain.ErrPermanentBackend) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("permanent errors must not be retried, got %d calls", calls)
	}
}

func TestTransientWriteIsIndeterminate(t *testing.T) {
	writes := 0
	store := &stubStore{
		readFn: func(ctx context.Context, assetID string) (domain.Asset, error) {
			return domain.Asset{ID: assetID, Status: domain.StatusInStock, Version: 0}, nil
		},
		writeFn: func(ctx context.Context, assetID string, expectedVersion int64, row domain.Asset) (bool, error) {
			writes++
			return false, fmt.Errorf("connection reset: %w", domain.ErrTransientBackend)
		},
	}
	svc := NewRegistryService(store, &recordingAudit{})

	_, err := svc.CheckOut(context.Background(), staff, "0012600001", "alice", 0)
	if !errors.Is(err, domain.ErrIndeterminate) {
		t.Fatalf("expected indeterminate outcome, got %v", err)
	}
	if writes != 1 {
		t.Fatalf("mutating writes must never be retried, got %d", writes)
	}
}

func TestAuditFailureDoesNotRollBack(t *testing.T) {
	store := newMemStore()
	audit := &recordingAudit{appendFn: func(ctx context.Context, rec domain.AuditRecord) error {
		if rec.Action == domain.ActionCheckOut {
			return errors.New("history sheet unavailable")
		}
		return nil
	}}
	svc := NewRegistryService(store, audit,
		WithClock(fixedClock()),
		WithRunNumber(sequence("00001")))

	asset, err := svc.CreateAsset(context.Background(), admin, "SWC001", "Laptop", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	out, err := svc.CheckOut(context.Background(), staff, asset.ID, "alice", 0)
	if !errors.Is(err, domain.ErrAuditWrite) {
		t.Fatalf("expected audit write warning, got %v", err)
	}
	if out.Status != domain.StatusAssigned || out.Version != 1 {
		t.Fatalf("mutation must survive audit failure: %+v", out)
	}

	stored, err := store.Read(context.Background(), asset.ID)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if stored.Version != 1 {
		t.Fatalf("committed row lost: %+v", stored)
	}
}

func TestLifecycleScenario(t *testing.T) {
	svc, audit := newTestRegistry(newMemStore())

	a1 := mustCreate(t, svc, "SWC001")
	if a1.Status != domain.StatusInStock || a1.Version != 0 {
		t.Fatalf("create: %+v", a1)
	}

	out, err := svc.CheckOut(context.Background(), staff, a1.ID, "alice", 0)
	if err != nil {
		t.Fatalf("check out: %v", err)
	}
	if out.Status != domain.StatusAssigned || out.Holder != "alice" || out.Version != 1 {
		t.Fatalf("check out state: %+v", out)
	}

	// Second check-out issued with the stale pre-read version.
	if _, err := svc.CheckOut(context.Background(), staff, a1.ID, "bob", 0); !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("stale check out: expected version conflict, got %v", err)
	}

	in, err := svc.CheckIn(context.Background(), staff, a1.ID, 1)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if in.Status != domain.StatusInStock || in.Holder != "" || in.Version != 2 {
		t.Fatalf("check in state: %+v", in)
	}

	retired, err := svc.Retire(context.Background(), admin, a1.ID, 2, "")
	if err != nil {
		t.Fatalf("retire: %v", err)
	}
	if retired.Status != domain.StatusRetired || retired.Version != 3 {
		t.Fatalf("retire state: %+v", retired)
	}

	if _, err := svc.CheckOut(context.Background(), staff, a1.ID, "alice", 3); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("check out after retire: expected invalid state, got %v", err)
	}

	// One audit record per successful mutation, versions forming an
	// unbroken chain.
	if len(audit.records) != 4 {
		t.Fatalf("expected 4 audit records, got %d", len(audit.records))
	}
	for i, rec := range audit.records[1:] {
		if rec.PreviousVersion != int64(i) || rec.NewVersion != int64(i+1) {
			t.Fatalf("audit version chain broken at %d: %+v", i, rec)
		}
	}
}

func TestConcurrentCheckOutExactlyOneWins(t *testing.T) {
	svc, _ := newTestRegistry(newMemStore())
	asset := mustCreate(t, svc, "SWC001")

	const writers = 8
	var wg sync.WaitGroup
	results := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			holder := fmt.Sprintf("user-%d", i)
			_, err := svc.CheckOut(context.Background(), admin, asset.ID, holder, 0)
			results[i] = err
		}(i)
	}
	wg.Wait()

	successes, conflicts := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrVersionConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != writers-1 {
		t.Fatalf("expected exactly one winner, got %d successes / %d conflicts", successes, conflicts)
	}

	final, err := svc.GetAsset(context.Background(), asset.ID)
	if err != nil {
		t.Fatalf("get asset: %v", err)
	}
	if final.Version != 1 {
		t.Fatalf("final version must equal successful mutation count, got %d", final.Version)
	}
	checkInvariant(t, final)
}

func TestListAssetsFilters(t *testing.T) {
	svc, _ := newTestRegistry(newMemStore())
	a := mustCreate(t, svc, "SWC001")
	b, err := svc.CreateAsset(context.Background(), admin, "SWC002", "Monitor", "")
	if err != nil {
		t.Fatalf("create second asset: %v", err)
	}
	if _, err := svc.CheckOut(context.Background(), staff, a.ID, "alice", 0); err != nil {
		t.Fatalf("check out: %v", err)
	}

	assigned, err := svc.ListAssets(context.Background(), ListFilter{Status: domain.StatusAssigned})
	if err != nil {
		t.Fatalf("list assigned: %v", err)
	}
	if len(assigned) != 1 || assigned[0].ID != a.ID {
		t.Fatalf("unexpected assigned list: %+v", assigned)
	}

	monitors, err := svc.ListAssets(context.Background(), ListFilter{Category: "monitor"})
	if err != nil {
		t.Fatalf("list monitors: %v", err)
	}
	if len(monitors) != 1 || monitors[0].ID != b.ID {
		t.Fatalf("unexpected category list: %+v", monitors)
	}
}
