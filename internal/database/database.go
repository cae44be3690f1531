// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/cartographus/internal/config"
	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/metrics"
)

// DB wraps the DuckDB connection and provides the Persistence Gateway (C1)
// operations.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig

	stmtCache   map[string]*sql.Stmt
	stmtCacheMu sync.RWMutex
}

// New opens (creating if necessary) the DuckDB file at cfg.Path and
// prepares the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "2GB"
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:      conn,
		cfg:       cfg,
		stmtCache: make(map[string]*sql.Stmt),
	}

	conn.SetMaxOpenConns(numThreads)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.createSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Conn exposes the underlying *sql.DB for packages (stats reconciliation
// crons, test fixtures) that need to run raw queries outside the typed CRUD
// surface.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Close closes prepared statements and the underlying connection.
func (db *DB) Close() error {
	db.stmtCacheMu.Lock()
	for _, stmt := range db.stmtCache {
		if stmt != nil {
			if err := stmt.Close(); err != nil {
				logging.Warn().Err(err).Msg("failed to close prepared statement")
			}
		}
	}
	db.stmtCache = make(map[string]*sql.Stmt)
	db.stmtCacheMu.Unlock()

	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// OnStartup verifies connectivity by requesting database statistics; a bare
// connect is not sufficient per spec.md §4.1, since DuckDB lazily opens the
// underlying file.
func (db *DB) OnStartup(ctx context.Context) error {
	row := db.conn.QueryRowContext(ctx, "SELECT database_size FROM pragma_database_size()")
	var size sql.NullString
	if err := row.Scan(&size); err != nil {
		return fmt.Errorf("database statistics probe failed: %w", err)
	}
	return nil
}

// RunTx runs fn inside a transaction with the given timeout and commits on
// success, rolling back on any error (spec.md §4.1 "atomic commit ... return
// the outcome"). Generic over the return type so callers (ingest, delete,
// merge) can thread a result out of the closure.
func RunTx[T any](ctx context.Context, db *DB, timeout time.Duration, fn func(ctx context.Context, tx *sql.Tx) (T, error)) (T, error) {
	var zero T
	start := time.Now()
	var txErr error
	defer func() { metrics.RecordDBQuery("transaction", time.Since(start), txErr) }()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		txErr = fmt.Errorf("failed to begin transaction: %w", err)
		return zero, txErr
	}

	result, err := fn(ctx, tx)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logging.Error().Err(rbErr).AnErr("original_error", err).Msg("transaction rollback failed")
		}
		txErr = err
		return zero, txErr
	}

	if err := tx.Commit(); err != nil {
		txErr = fmt.Errorf("failed to commit transaction: %w", err)
		return zero, txErr
	}

	return result, nil
}
