// Package service contains the application services for accounts and cases.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	pkgcrypto "github.com/and161185/casebuddy/internal/crypto"
	"github.com/and161185/casebuddy/internal/errs"
	"github.com/and161185/casebuddy/internal/limiter"
	"github.com/and161185/casebuddy/internal/model"
	"github.com/and161185/casebuddy/internal/repository"
)

// AccountService manages the account registry and the active account, and keeps the
// case view switched to whoever is active.
type AccountService struct {
	accounts repository.AccountRepository
	cases    *CaseService
	lim      limiter.Limiter
	log      *zap.Logger
	now      func() time.Time
}

// NewAccountService constructs AccountService with required dependencies.
func NewAccountService(accounts repository.AccountRepository, cases *CaseService, lim limiter.Limiter, log *zap.Logger) *AccountService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountService{accounts: accounts, cases: cases, lim: lim, log: log, now: time.Now}
}

// Signup registers a new account, makes it active and switches to its empty partition.
func (s *AccountService) Signup(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return errors.New("empty username/password")
	}
	hash, salt, err := pkgcrypto.NewPassword([]byte(password))
	if err != nil {
		return err
	}
	a := &model.Account{
		Username:  username,
		PwdHash:   hash,
		Salt:      salt,
		CreatedAt: s.now().UTC(),
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return err
	}
	return s.activate(ctx, username)
}

// Login authenticates with rate limiting by username and activates the account.
func (s *AccountService) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)

	allowed, retry, err := s.lim.Allow(ctx, username)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Info("login blocked", zap.String("account", username), zap.Duration("retry_after", retry))
		return errs.ErrRateLimited
	}

	a, err := s.accounts.GetByUsername(ctx, username)
	if err != nil || !pkgcrypto.VerifyPassword([]byte(password), a.Salt, a.PwdHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, username); ferr == nil && blocked {
			return errs.ErrRateLimited
		}
		if err != nil && !errors.Is(err, errs.ErrNotFound) {
			s.log.Warn("account lookup failed", zap.String("account", username), zap.Error(err))
		}
		// unknown user and wrong password look the same
		return errs.ErrUnauthorized
	}

	_ = s.lim.Success(ctx, username)
	return s.activate(ctx, username)
}

// Logout clears the active account and empties the case view.
func (s *AccountService) Logout(ctx context.Context) error {
	if err := s.accounts.ClearActive(ctx); err != nil {
		return err
	}
	s.cases.SwitchAccount(ctx, "")
	return nil
}

// Rehydrate restores the account that was active when the process last ran.
// It returns the username, or "" if nobody is logged in.
func (s *AccountService) Rehydrate(ctx context.Context) (string, error) {
	username, err := s.accounts.Active(ctx)
	if err != nil {
		return "", err
	}
	s.cases.SwitchAccount(ctx, username)
	return username, nil
}

func (s *AccountService) activate(ctx context.Context, username string) error {
	if err := s.accounts.SetActive(ctx, username); err != nil {
		return err
	}
	s.cases.SwitchAccount(ctx, username)
	return nil
}
