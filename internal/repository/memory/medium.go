// Package memory provides an in-process Medium, used for tests and ephemeral sessions.
package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/and161185/casebuddy/internal/errs"
	"github.com/and161185/casebuddy/internal/repository"
)

var _ repository.Medium = (*Medium)(nil)

// Medium keeps values in a map. Values are copied in and out.
type Medium struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New returns an empty in-memory medium.
func New() *Medium { return &Medium{data: make(map[string][]byte)} }

// Get returns a copy of the value under key.
func (m *Medium) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return bytes.Clone(v), nil
}

// Set stores a copy of value.
func (m *Medium) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = bytes.Clone(value)
	return nil
}

// Delete removes key.
func (m *Medium) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Close is a no-op.
func (m *Medium) Close() error { return nil }
