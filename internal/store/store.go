// Package store provides the durable backing for documents, jobs,
// batches, and usage records (§4.1). It is a thin wrapper around
// database/sql and modernc.org/sqlite — a pure-Go, cgo-free driver for
// the single-file embedded relational database the design calls for.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/docmark/internal/common"
	"github.com/joseph-ayodele/docmark/internal/store/migrations"
)

// Store owns the single *sql.DB handle shared by the Submission API
// writer, the cleanup writer, and worker writers (§5).
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to the embedded store at cfg.Path, applying the pragmas
// named in §4.1 (WAL journaling, ≥5s busy timeout, NORMAL synchronous,
// in-memory temp store) and auto-migrating if the documents table does
// not yet exist. A persistent open failure is fatal; transient busy
// errors during subsequent writes are absorbed by internal/retry, not
// here.
func Open(ctx context.Context, cfg common.StoreConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	if cfg.Path != ":memory:" {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create store directory: %w", err)
			}
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", cfg.Path, cfg.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to open store", "path", cfg.Path, "error", err)
		return nil, fmt.Errorf("open store: %w", err)
	}
	// A single-file store has a single writer; serialize all connections
	// through database/sql's pool so WAL readers never contend with the
	// one writer holding the lock.
	db.SetMaxOpenConns(1)

	if cfg.RemoteSyncURL != "" {
		logger.Warn("store remote sync is configured but not implemented; running local-only",
			"remote_sync_url", cfg.RemoteSyncURL)
	}

	s := &Store{db: db, logger: logger}
	if err := s.applyPragmas(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := s.autoMigrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	logger.Info("store opened", "path", cfg.Path)
	return s, nil
}

func (s *Store) applyPragmas(ctx context.Context) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		if _, err := s.db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// autoMigrate applies the highest-numbered embedded migration if the
// documents table does not yet exist. Statements that would duplicate
// existing objects (IF NOT EXISTS already guards every DDL statement in
// the migration files) are tolerated; any other failure aborts startup.
func (s *Store) autoMigrate(ctx context.Context) error {
	exists, err := s.tableExists(ctx, "documents")
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	file, err := latestMigration(migrations.Files)
	if err != nil {
		return err
	}
	sqlBytes, err := migrations.Files.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", file, err)
	}

	s.logger.Info("applying migration", "file", file)
	for _, stmt := range splitStatements(string(sqlBytes)) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			if isDuplicateObjectErr(err) {
				continue
			}
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
	}
	return nil
}

func (s *Store) tableExists(ctx context.Context, name string) (bool, error) {
	var found string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, name,
	).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func latestMigration(migFS fs.FS) (string, error) {
	entries, err := fs.ReadDir(migFS, ".")
	if err != nil {
		return "", err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no embedded migrations found")
	}
	sort.Strings(files)
	return files[len(files)-1], nil
}

func splitStatements(script string) []string {
	return strings.Split(script, ";")
}

func isDuplicateObjectErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists")
}

// Close releases the store's handle.
func (s *Store) Close() error {
	s.logger.Info("closing store")
	return s.db.Close()
}

// Transaction runs fn atomically, committing on success and rolling back
// on any error (including a panic, which it re-raises after rollback).
func (s *Store) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// DB exposes the underlying handle for statements run outside a
// transaction: reads such as GetDocument and single-statement writes.
func (s *Store) DB() *sql.DB { return s.db }
