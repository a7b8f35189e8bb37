package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/and161185/casebuddy/internal/config"
	"github.com/and161185/casebuddy/internal/migrate"
	"github.com/and161185/casebuddy/internal/repository"
	"github.com/and161185/casebuddy/internal/repository/file"
	"github.com/and161185/casebuddy/internal/repository/memory"
	"github.com/and161185/casebuddy/internal/repository/postgres"
	"github.com/and161185/casebuddy/internal/repository/sqlite"
)

// openMedium opens the configured backend. Postgres is migrated before use.
func openMedium(ctx context.Context, st config.Storage, log *zap.Logger) (repository.Medium, error) {
	switch st.Backend {
	case config.BackendMemory:
		log.Info("memory backend: nothing will survive this process")
		return memory.New(), nil
	case config.BackendFile:
		return file.New(st.FileDir())
	case config.BackendSQLite:
		return sqlite.Open(ctx, st.SQLitePath())
	case config.BackendPostgres:
		if err := migrate.Up(ctx, st.DSN); err != nil {
			return nil, fmt.Errorf("migrate up: %w", err)
		}
		db, err := postgres.New(ctx, st.DSN)
		if err != nil {
			return nil, err
		}
		return postgres.NewMedium(db), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", st.Backend)
	}
}
