// Package file provides a Medium that keeps one file per key in a directory.
// Writes go through a temp file and rename so a crash never leaves a torn value.
package file

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/and161185/casebuddy/internal/errs"
	"github.com/and161185/casebuddy/internal/repository"
)

var _ repository.Medium = (*Medium)(nil)

const fileExt = ".json"

// Medium stores values under dir.
type Medium struct {
	dir string
}

// New creates dir if needed and returns a medium rooted there.
func New(dir string) (*Medium, error) {
	if dir == "" {
		return nil, errors.New("file medium: directory is empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("file medium: create %s: %w", dir, err)
	}
	return &Medium{dir: dir}, nil
}

// path maps a key to a file name. Keys embed usernames, so they are encoded
// rather than trusted as path components.
func (m *Medium) path(key string) string {
	return filepath.Join(m.dir, base64.RawURLEncoding.EncodeToString([]byte(key))+fileExt)
}

// Get reads the file for key.
func (m *Medium) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(m.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errs.ErrNotFound
	}
	return b, err
}

// Set atomically replaces the file for key.
func (m *Medium) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return atomic.WriteFile(m.path(key), bytes.NewReader(value))
}

// Delete removes the file for key.
func (m *Medium) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(m.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Close is a no-op.
func (m *Medium) Close() error { return nil }
