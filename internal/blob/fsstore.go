package blob

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// FSStore is a filesystem-backed reference implementation of Store, for
// local development and tests. Keys are relative paths rooted at Dir.
type FSStore struct {
	Dir string
	log *slog.Logger
}

// NewFSStore builds an FSStore rooted at dir, creating it if absent.
func NewFSStore(dir string, log *slog.Logger) (*FSStore, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{Dir: dir, log: log}, nil
}

func (s *FSStore) path(key string) string {
	return filepath.Join(s.Dir, filepath.FromSlash(key))
}

func (s *FSStore) Stat(ctx context.Context, key string) (Stat, error) {
	info, err := os.Stat(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return Stat{}, errKeyNotFound(key)
	}
	if err != nil {
		return Stat{}, err
	}
	return Stat{
		Size:         info.Size(),
		LastModified: info.ModTime(),
		ETag:         "",
		MimeType:     "",
	}, nil
}

func (s *FSStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, errKeyNotFound(key)
	}
	return b, err
}

func (s *FSStore) GetStream(ctx context.Context, key, localPath string) error {
	src, err := os.Open(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return errKeyNotFound(key)
	}
	if err != nil {
		return err
	}
	defer src.Close()

	if dir := filepath.Dir(localPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	dst, err := os.Create(localPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

func (s *FSStore) Put(ctx context.Context, key string, data []byte, opts PutOptions) error {
	target := s.path(key)
	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(target, data, 0o644)
}

func (s *FSStore) PutStream(ctx context.Context, key string, r io.Reader, opts PutOptions) error {
	target := s.path(key)
	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, r)
	return err
}

func (s *FSStore) Copy(ctx context.Context, src, dst string) error {
	data, err := s.Get(ctx, src)
	if err != nil {
		return err
	}
	return s.Put(ctx, dst, data, PutOptions{})
}

func (s *FSStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *FSStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Presign returns a file:// URL for local development; a real object
// store's presign is an external concern §6.1 excludes from the core.
func (s *FSStore) Presign(ctx context.Context, key string, opts PresignOptions) (string, error) {
	exists, err := s.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !exists && opts.Method == PresignGet {
		return "", errKeyNotFound(key)
	}
	expiry := time.Now().Add(opts.Expires)
	s.log.Debug("presigned local url", "key", key, "method", opts.Method, "expires_at", expiry)
	return "file://" + s.path(key), nil
}

var _ Store = (*FSStore)(nil)
