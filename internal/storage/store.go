// Package storage keeps uploaded event documents.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidName = errors.New("invalid object name")

type ObjectStore interface {
	// Put stores r under a fresh name derived from name and returns the
	// reference to persist.
	Put(ctx context.Context, name string, r io.Reader) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
}

// LocalStore writes objects below root. References are slash separated and
// relative to root, e.g. "uploads/<uuid><name>".
type LocalStore struct {
	root   string
	prefix string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root, prefix: filepath.Base(root)}
}

func (s *LocalStore) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "", ErrInvalidName
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	object := uuid.NewString() + base
	f, err := os.OpenFile(filepath.Join(s.root, object), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create object: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, readerWithContext(ctx, r)); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	return path.Join(s.prefix, object), nil
}

func (s *LocalStore) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	p, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

func (s *LocalStore) Delete(_ context.Context, ref string) error {
	p, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (s *LocalStore) resolve(ref string) (string, error) {
	object, ok := strings.CutPrefix(ref, s.prefix+"/")
	if !ok || object == "" || strings.Contains(object, "/") || strings.Contains(object, "..") {
		return "", ErrInvalidName
	}
	return filepath.Join(s.root, object), nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
