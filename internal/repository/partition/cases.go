// Package partition implements the case and account repositories on top of a key/value
// medium, one key per account partition.
package partition

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/and161185/casebuddy/internal/convert"
	"github.com/and161185/casebuddy/internal/errs"
	"github.com/and161185/casebuddy/internal/model"
	"github.com/and161185/casebuddy/internal/repository"
)

var _ repository.CaseRepository = (*CaseRepo)(nil)

// CaseRepo implements CaseRepository over a Medium.
type CaseRepo struct {
	m   repository.Medium
	log *zap.Logger
}

// NewCaseRepo constructs a case repository. A nil logger discards warnings.
func NewCaseRepo(m repository.Medium, log *zap.Logger) *CaseRepo {
	if log == nil {
		log = zap.NewNop()
	}
	return &CaseRepo{m: m, log: log}
}

// Load reads the partition of account. A missing key or a payload that is not a
// case array yields an empty collection; only medium failures are returned.
func (r *CaseRepo) Load(ctx context.Context, account string) (model.Collection, error) {
	if account == "" {
		return nil, errs.ErrNoAccount
	}
	key := repository.CasesKey(account)
	data, err := r.m.Get(ctx, key)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	cases, err := convert.UnmarshalCollection(data)
	if err != nil {
		r.log.Warn("discarding malformed partition", zap.String("key", key), zap.Error(err))
		return nil, nil
	}
	return cases, nil
}

// Save serializes cases into the partition of account.
func (r *CaseRepo) Save(ctx context.Context, account string, cases model.Collection) error {
	if account == "" {
		return errs.ErrNoAccount
	}
	key := repository.CasesKey(account)
	data, err := convert.MarshalCollection(cases)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.m.Set(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
