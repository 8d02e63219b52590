// Package gormsqlite opens a sqlite file with split read/write handles: a
// pooled read-only connection set and a single-connection writer. Serializing
// writes onto one connection keeps the WAL file healthy and avoids
// SQLITE_BUSY churn under concurrent request handlers.
package gormsqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	gormdriver "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

type DB struct {
	R *gorm.DB
	W *gorm.DB
}

type Tx struct {
	*gorm.DB
}

func (db *DB) ReadTX(ctx context.Context, fn func(tx *Tx) error) error {
	return db.R.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Tx{DB: tx})
	}, &sql.TxOptions{ReadOnly: true})
}

func (db *DB) WriteTX(ctx context.Context, fn func(tx *Tx) error) error {
	return db.W.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Tx{DB: tx})
	})
}

// WriteSQLDB exposes the writer's database/sql handle for migrations.
func (db *DB) WriteSQLDB() (*sql.DB, error) {
	return db.W.DB()
}

func (db *DB) Close() error {
	var firstErr error
	for _, g := range []*gorm.DB{db.R, db.W} {
		if g == nil {
			continue
		}
		sqlDB, err := g.DB()
		if err == nil {
			err = sqlDB.Close()
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func Open(file string) (*DB, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
		},
	)

	open := func(role string, maxConns int, readOnly bool) (*gorm.DB, error) {
		g, err := gorm.Open(gormdriver.Dialector{DriverName: "sqlite", DSN: file}, &gorm.Config{
			PrepareStmt: true,
			Logger:      gormLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("open %s db: %w", role, err)
		}
		sqlDB, err := g.DB()
		if err != nil {
			return nil, fmt.Errorf("%s sql db: %w", role, err)
		}
		sqlDB.SetMaxOpenConns(maxConns)
		sqlDB.SetMaxIdleConns(maxConns)
		sqlDB.SetConnMaxLifetime(0)
		if err := applyPragmas(sqlDB, readOnly); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("%s pragmas: %w", role, err)
		}
		return g, nil
	}

	reader, err := open("reader", runtime.NumCPU(), true)
	if err != nil {
		return nil, err
	}
	writer, err := open("writer", 1, false)
	if err != nil {
		if sqlDB, dbErr := reader.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}

	return &DB{R: reader, W: writer}, nil
}

func applyPragmas(db *sql.DB, readOnly bool) error {
	stmts := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA temp_store = MEMORY;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
		"PRAGMA trusted_schema = OFF;",
	}
	if readOnly {
		stmts = append(stmts, "PRAGMA query_only = ON;")
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return nil
}
