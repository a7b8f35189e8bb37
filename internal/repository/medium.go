// Package repository defines storage interfaces implemented by concrete backends.
package repository

import "context"

// Medium is the key/value byte store every backend provides.
type Medium interface {
	// Get returns the value stored under key or errs.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}
