package blob

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/docmark/internal/apperr"
)

func newTestStore(t *testing.T) *FSStore {
	t.Helper()
	s, err := NewFSStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	return s
}

func TestPutThenGetRoundTrips(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	want := []byte("hello document")

	if err := s.Put(ctx, "documents/a.txt", want, PutOptions{MimeType: "text/plain"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "documents/a.txt")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("Get returned %q, want %q", got, want)
	}
}

func TestGetMissingKeyReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "documents/missing.txt")
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected a NotFound error, got %v", err)
	}
}

func TestStatMissingKeyReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Stat(context.Background(), "documents/missing.txt")
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected a NotFound error, got %v", err)
	}
}

func TestExistsReflectsPresenceWithoutError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "documents/a.txt")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Fatalf("expected key to be absent before Put")
	}

	if err := s.Put(ctx, "documents/a.txt", []byte("x"), PutOptions{}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	ok, err = s.Exists(ctx, "documents/a.txt")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !ok {
		t.Fatalf("expected key to be present after Put")
	}
}

func TestCopyDuplicatesContentUnderNewKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	want := []byte("archived content")

	if err := s.Put(ctx, "documents/a.txt", want, PutOptions{}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Copy(ctx, "documents/a.txt", "archive/a.txt"); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	got, err := s.Get(ctx, "archive/a.txt")
	if err != nil {
		t.Fatalf("Get archived copy: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("archived copy = %q, want %q", got, want)
	}
	// original is untouched by Copy.
	original, err := s.Get(ctx, "documents/a.txt")
	if err != nil {
		t.Fatalf("Get original: %v", err)
	}
	if !bytes.Equal(original, want) {
		t.Fatalf("original changed after Copy: %q", original)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "documents/a.txt", []byte("x"), PutOptions{}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Delete(ctx, "documents/a.txt"); err != nil {
		t.Fatalf("first Delete: %v", err)
	}
	if err := s.Delete(ctx, "documents/a.txt"); err != nil {
		t.Fatalf("second Delete on an already-absent key should not error: %v", err)
	}
}

func TestGetStreamWritesToLocalPath(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	want := []byte("streamed")

	if err := s.Put(ctx, "documents/a.txt", want, PutOptions{}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	dst := filepath.Join(t.TempDir(), "nested", "out.txt")
	if err := s.GetStream(ctx, "documents/a.txt", dst); err != nil {
		t.Fatalf("GetStream: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("GetStream wrote %q, want %q", got, want)
	}
}

func TestPresignGetOnMissingKeyReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Presign(context.Background(), "documents/missing.txt", PresignOptions{Method: PresignGet})
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected a NotFound error, got %v", err)
	}
}
