// Package blob defines the blob store collaborator contract consumed by
// the Worker (§6.1) and a filesystem-backed reference implementation for
// local development and tests, grounded on the teacher's
// internal/ingest/fs_ingestor.go (os.Open + sha256 hashing over
// filepath-rooted paths).
package blob

import (
	"context"
	"io"
	"time"

	"github.com/joseph-ayodele/docmark/internal/apperr"
)

// Stat is the metadata §6.1's stat(key) returns.
type Stat struct {
	Size         int64
	LastModified time.Time
	ETag         string
	MimeType     string
}

// PutOptions carries the optional attributes of a put.
type PutOptions struct {
	MimeType string
	ACL      string
}

// PresignMethod names the HTTP method a presigned URL authorizes.
type PresignMethod string

const (
	PresignGet PresignMethod = "GET"
	PresignPut PresignMethod = "PUT"
)

// PresignOptions carries the parameters of a presign request.
type PresignOptions struct {
	Method   PresignMethod
	Expires  time.Duration
	MimeType string
}

// Store is the narrow blob-store contract named in §6.1. Implementations
// return apperr.NotFound for a missing key where the contract calls for it.
type Store interface {
	Stat(ctx context.Context, key string) (Stat, error)
	Get(ctx context.Context, key string) ([]byte, error)
	GetStream(ctx context.Context, key, localPath string) error
	Put(ctx context.Context, key string, data []byte, opts PutOptions) error
	PutStream(ctx context.Context, key string, r io.Reader, opts PutOptions) error
	Copy(ctx context.Context, src, dst string) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Presign(ctx context.Context, key string, opts PresignOptions) (string, error)
}

// errKeyNotFound builds the error returned (wrapped in apperr.NotFound) when a key is
// absent from the backing store.
func errKeyNotFound(key string) error {
	return apperr.NotFound("blob key not found: " + key)
}
