package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/adapters/httpapi"
	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/adapters/sheets"
	sqliteadapter "github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/adapters/sqlite"
	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/adapters/sqlite/gormsqlite"
	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/core/domain"
	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/core/ports"
	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/core/usecase"
	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/migrations"
)

const (
	StoreSQLite = "sqlite"
	StoreSheets = "sheets"
)

type Config struct {
	Addr   string
	DBPath string

	Store         string
	SheetsBaseURL string
	SheetID       string
	SheetsToken   string

	CheckoutPolicy string

	BootstrapAPIKey    string
	BootstrapPrincipal string
	BootstrapRole      string
}

type resourceCloser struct {
	closers []io.Closer
}

func (r resourceCloser) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewServer wires the registry. The sqlite file always backs API keys and
// the idempotency cache; asset rows and the audit ledger live either in the
// same file or in the remote spreadsheet, per Config.Store.
func NewServer(ctx context.Context, cfg Config) (*http.Server, io.Closer, error) {
	db, err := gormsqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}

	writeSQLDB, err := db.WriteSQLDB()
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("resolve writer sql db: %w", err)
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := migrations.Up(migrateCtx, writeSQLDB); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	var store ports.SheetStore
	var auditLog ports.AuditLog
	switch cfg.Store {
	case StoreSheets:
		client := sheets.NewClient(cfg.SheetsBaseURL, cfg.SheetID, cfg.SheetsToken, 0)
		indexCtx, indexCancel := context.WithTimeout(ctx, 30*time.Second)
		err := client.RefreshIndex(indexCtx)
		indexCancel()
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("build sheet row index: %w", err)
		}
		store = client
		auditLog = sheets.NewAuditLog(client)
	case StoreSQLite, "":
		store = sqliteadapter.NewSheetStore(db)
		auditLog = sqliteadapter.NewAuditLog(db)
	default:
		_ = db.Close()
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	apiKeyRepo := sqliteadapter.NewAPIKeyRepository(db)
	cache := sqliteadapter.NewReplayCache(db)

	registry := usecase.NewRegistryService(store, auditLog,
		usecase.WithCheckoutPolicy(usecase.CheckoutPolicy(cfg.CheckoutPolicy)))
	authService := usecase.NewAuthService(apiKeyRepo)
	auditService := usecase.NewAuditService(auditLog)
	qrService := usecase.NewQRService(registry)

	if cfg.BootstrapAPIKey != "" {
		role := domain.Role(cfg.BootstrapRole)
		if !role.Valid() {
			role = domain.RoleAdmin
		}
		principal := cfg.BootstrapPrincipal
		if principal == "" {
			principal = "bootstrap"
		}

		bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := apiKeyRepo.Upsert(bootstrapCtx, domain.APIKey{
			TokenHash: usecase.HashToken(cfg.BootstrapAPIKey),
			Principal: principal,
			Role:      role,
			Active:    true,
			CreatedAt: time.Now().UTC(),
		})
		bootstrapCancel()
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("bootstrap api key: %w", err)
		}
	}

	handler := httpapi.NewHandler(registry, qrService, authService, auditService, cache)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return server, resourceCloser{closers: []io.Closer{db}}, nil
}
