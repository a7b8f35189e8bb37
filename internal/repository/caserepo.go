package repository

import (
	"context"

	"github.com/and161185/casebuddy/internal/model"
)

// CaseRepository loads and stores the case partition of one account.
type CaseRepository interface {
	// Load returns the account's cases. Missing or malformed partitions load as empty.
	Load(ctx context.Context, account string) (model.Collection, error)
	// Save replaces the account's partition with cases.
	Save(ctx context.Context, account string, cases model.Collection) error
}
