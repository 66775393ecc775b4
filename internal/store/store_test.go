package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/docmark/internal/common"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docmark.db")
	s, err := Open(context.Background(), common.StoreConfig{Path: path}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenAutoMigratesFreshStore(t *testing.T) {
	s := newTestStore(t)
	exists, err := s.tableExists(context.Background(), "documents")
	if err != nil {
		t.Fatalf("tableExists: %v", err)
	}
	if !exists {
		t.Fatalf("expected the documents table to exist after auto-migration")
	}
}

func TestOpenOnExistingStoreDoesNotReapplyMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docmark.db")
	ctx := context.Background()

	s1, err := Open(ctx, common.StoreConfig{Path: path}, nil)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := Open(ctx, common.StoreConfig{Path: path}, nil)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer s2.Close()

	exists, err := s2.tableExists(ctx, "documents")
	if err != nil {
		t.Fatalf("tableExists: %v", err)
	}
	if !exists {
		t.Fatalf("expected the documents table to survive a reopen")
	}
}

func TestTransactionCommitsOnSuccess(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `PRAGMA user_version`)
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTransactionRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := newTestDocument("doc-1")
	if err := InsertDocument(ctx, s.DB(), d); err != nil {
		t.Fatalf("seed InsertDocument: %v", err)
	}

	wantErr := errors.New("boom")
	err := s.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE documents SET file_name = ? WHERE id = ?`, "renamed", d.ID); err != nil {
			return err
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected the transaction error to propagate, got %v", err)
	}

	got, err := GetDocument(ctx, s.DB(), d.ID)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.FileName != d.FileName {
		t.Fatalf("expected the rename to be rolled back, got file_name=%q", got.FileName)
	}
}

func TestSplitStatementsIgnoresTrailingEmptyStatement(t *testing.T) {
	stmts := splitStatements("CREATE TABLE a (id TEXT); CREATE TABLE b (id TEXT);")
	nonEmpty := 0
	for _, stmt := range stmts {
		if len(stmt) > 0 {
			nonEmpty++
		}
	}
	if nonEmpty != 2 {
		t.Fatalf("expected 2 non-empty statements, got %d: %v", nonEmpty, stmts)
	}
}

func TestIsDuplicateObjectErr(t *testing.T) {
	if !isDuplicateObjectErr(errors.New(`table "documents" already exists`)) {
		t.Fatalf("expected an 'already exists' error to be detected")
	}
	if isDuplicateObjectErr(errors.New("syntax error")) {
		t.Fatalf("did not expect an unrelated error to be detected as a duplicate-object error")
	}
}
