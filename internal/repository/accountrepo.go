package repository

import (
	"context"

	"github.com/and161185/casebuddy/internal/model"
)

// AccountRepository provides access to the account registry and the active account marker.
type AccountRepository interface {
	// Create inserts a new account; errs.ErrAlreadyExists if the username is taken.
	Create(ctx context.Context, a *model.Account) error
	// GetByUsername loads an account or returns errs.ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*model.Account, error)
	// Active returns the active username, or "" if none is set.
	Active(ctx context.Context) (string, error)
	// SetActive records username as the active account.
	SetActive(ctx context.Context, username string) error
	// ClearActive removes the active account marker.
	ClearActive(ctx context.Context) error
}
