package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/app"
)

func main() {
	cmd := &cli.Command{
		Name:  "it-asset-tracker",
		Usage: "IT asset registry with optimistic-concurrency check-in/check-out",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Value: ":8080",
				Usage: "HTTP listen address",
			},
			&cli.StringFlag{
				Name:  "db-path",
				Value: "./assets.sqlite",
				Usage: "SQLite file path (API keys, idempotency cache, local store)",
			},
			&cli.StringFlag{
				Name:    "store",
				Value:   app.StoreSQLite,
				Sources: cli.EnvVars("ASSET_STORE"),
				Usage:   "Asset row backend: sqlite or sheets",
			},
			&cli.StringFlag{
				Name:    "sheets-base-url",
				Value:   "https://sheets.googleapis.com/v4/spreadsheets",
				Sources: cli.EnvVars("ASSET_SHEETS_BASE_URL"),
				Usage:   "Base URL of the spreadsheet values API",
			},
			&cli.StringFlag{
				Name:    "sheet-id",
				Sources: cli.EnvVars("ASSET_SHEET_ID"),
				Usage:   "Spreadsheet id holding the assets and asset_history worksheets",
			},
			&cli.StringFlag{
				Name:    "sheets-token",
				Sources: cli.EnvVars("ASSET_SHEETS_TOKEN"),
				Usage:   "Bearer token for the spreadsheet backend",
			},
			&cli.StringFlag{
				Name:    "checkout-policy",
				Value:   "admin_override",
				Sources: cli.EnvVars("ASSET_CHECKOUT_POLICY"),
				Usage:   "self_only or admin_override",
			},
			&cli.StringFlag{
				Name:    "bootstrap-api-key",
				Sources: cli.EnvVars("ASSET_BOOTSTRAP_API_KEY"),
				Usage:   "Optional API key to upsert at startup",
			},
			&cli.StringFlag{
				Name:    "bootstrap-principal",
				Value:   "bootstrap",
				Sources: cli.EnvVars("ASSET_BOOTSTRAP_PRINCIPAL"),
				Usage:   "Principal name for the bootstrap API key",
			},
			&cli.StringFlag{
				Name:    "bootstrap-role",
				Value:   "admin",
				Sources: cli.EnvVars("ASSET_BOOTSTRAP_ROLE"),
				Usage:   "Role for the bootstrap API key (admin or staff)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := app.Config{
				Addr:               c.String("addr"),
				DBPath:             c.String("db-path"),
				Store:              c.String("store"),
				SheetsBaseURL:      c.String("sheets-base-url"),
				SheetID:            c.String("sheet-id"),
				SheetsToken:        c.String("sheets-token"),
				CheckoutPolicy:     c.String("checkout-policy"),
				BootstrapAPIKey:    c.String("bootstrap-api-key"),
				BootstrapPrincipal: c.String("bootstrap-principal"),
				BootstrapRole:      c.String("bootstrap-role"),
			}

			server, closer, err := app.NewServer(ctx, cfg)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			defer func() {
				if closeErr := closer.Close(); closeErr != nil {
					log.Printf("close resources: %v", closeErr)
				}
			}()

			errCh := make(chan error, 1)
			go func() {
				log.Printf("listening on %s (store=%s)", cfg.Addr, cfg.Store)
				errCh <- server.ListenAndServe()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case sig := <-sigCh:
				log.Printf("received signal %s", sig)
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
