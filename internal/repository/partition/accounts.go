package partition

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/casebuddy/internal/convert"
	"github.com/and161185/casebuddy/internal/errs"
	"github.com/and161185/casebuddy/internal/model"
	"github.com/and161185/casebuddy/internal/repository"
)

var _ repository.AccountRepository = (*AccountRepo)(nil)

// AccountRepo implements AccountRepository over a Medium. The whole registry lives under
// one key and is rewritten on every Create.
type AccountRepo struct {
	m   repository.Medium
	log *zap.Logger
}

// NewAccountRepo constructs an account repository.
func NewAccountRepo(m repository.Medium, log *zap.Logger) *AccountRepo {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountRepo{m: m, log: log}
}

func (r *AccountRepo) list(ctx context.Context) ([]model.Account, error) {
	data, err := r.m.Get(ctx, repository.KeyAccounts)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	accounts, err := convert.UnmarshalAccounts(data)
	if err != nil {
		r.log.Warn("discarding malformed account registry", zap.Error(err))
		return nil, nil
	}
	return accounts, nil
}

// Create appends a to the registry.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	accounts, err := r.list(ctx)
	if err != nil {
		return err
	}
	for _, existing := range accounts {
		if existing.Username == a.Username {
			return errs.ErrAlreadyExists
		}
	}
	data, err := convert.MarshalAccounts(append(accounts, *a))
	if err != nil {
		return fmt.Errorf("encode accounts: %w", err)
	}
	if err := r.m.Set(ctx, repository.KeyAccounts, data); err != nil {
		return fmt.Errorf("save accounts: %w", err)
	}
	return nil
}

// GetByUsername looks an account up by username.
func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	accounts, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].Username == username {
			return &accounts[i], nil
		}
	}
	return nil, errs.ErrNotFound
}

// Active returns the stored active username.
func (r *AccountRepo) Active(ctx context.Context) (string, error) {
	data, err := r.m.Get(ctx, repository.KeyActiveAccount)
	if errors.Is(err, errs.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load active account: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SetActive stores username as the active account.
func (r *AccountRepo) SetActive(ctx context.Context, username string) error {
	if err := r.m.Set(ctx, repository.KeyActiveAccount, []byte(username)); err != nil {
		return fmt.Errorf("save active account: %w", err)
	}
	return nil
}

// ClearActive deletes the active account marker.
func (r *AccountRepo) ClearActive(ctx context.Context) error {
	if err := r.m.Delete(ctx, repository.KeyActiveAccount); err != nil {
		return fmt.Errorf("clear active account: %w", err)
	}
	return nil
}
