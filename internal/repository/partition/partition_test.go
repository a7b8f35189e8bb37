package partition

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/and161185/casebuddy/internal/errs"
	"github.com/and161185/casebuddy/internal/model"
	"github.com/and161185/casebuddy/internal/repository"
	"github.com/and161185/casebuddy/internal/repository/memory"
)

type failingMedium struct{ err error }

var _ repository.Medium = failingMedium{}

func (f failingMedium) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingMedium) Set(context.Context, string, []byte) error   { return f.err }
func (f failingMedium) Delete(context.Context, string) error        { return f.err }
func (f failingMedium) Close() error                                { return nil }

func TestCaseRepo_SaveLoadIsolatedPerAccount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := memory.New()
	r := NewCaseRepo(m, nil)

	alice := model.Collection{{ID: "a1", Title: "Alice case"}}
	bob := model.Collection{{ID: "b1", Title: "Bob case"}, {ID: "b2", Title: "Bob older"}}
	require.NoError(t, r.Save(ctx, "alice", alice))
	require.NoError(t, r.Save(ctx, "bob", bob))

	gotA, err := r.Load(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, gotA, 1)
	require.Equal(t, "Alice case", gotA[0].Title)

	gotB, err := r.Load(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, gotB, 2)
	require.Equal(t, "b2", gotB[1].ID)

	raw, err := m.Get(ctx, "cases_alice")
	require.NoError(t, err)
	require.Contains(t, string(raw), `"Alice case"`)
}

func TestCaseRepo_MissingPartitionIsEmpty(t *testing.T) {
	t.Parallel()
	got, err := NewCaseRepo(memory.New(), nil).Load(context.Background(), "nobody")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestCaseRepo_MalformedPartitionIsEmpty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := memory.New()
	require.NoError(t, m.Set(ctx, repository.CasesKey("alice"), []byte(`{"id":"x","title":"single object"}`)))

	core, logs := observer.New(zapcore.WarnLevel)
	got, err := NewCaseRepo(m, zap.New(core)).Load(ctx, "alice")
	require.NoError(t, err)
	require.Empty(t, got)
	require.Equal(t, 1, logs.FilterMessage("discarding malformed partition").Len())
}

func TestCaseRepo_MediumErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	boom := errors.New("disk full")
	r := NewCaseRepo(failingMedium{err: boom}, nil)

	_, err := r.Load(ctx, "alice")
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, r.Save(ctx, "alice", nil), boom)
}

func TestCaseRepo_RequiresAccount(t *testing.T) {
	t.Parallel()
	r := NewCaseRepo(memory.New(), nil)
	_, err := r.Load(context.Background(), "")
	require.ErrorIs(t, err, errs.ErrNoAccount)
	require.ErrorIs(t, r.Save(context.Background(), "", nil), errs.ErrNoAccount)
}

func TestAccountRepo_CreateAndGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewAccountRepo(memory.New(), nil)

	_, err := r.GetByUsername(ctx, "alice")
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, r.Create(ctx, &model.Account{Username: "alice", PwdHash: []byte{1}, Salt: []byte{2}}))
	require.NoError(t, r.Create(ctx, &model.Account{Username: "bob"}))
	require.ErrorIs(t, r.Create(ctx, &model.Account{Username: "alice"}), errs.ErrAlreadyExists)

	a, err := r.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []byte{1}, a.PwdHash)

	b, err := r.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, "bob", b.Username)
}

func TestAccountRepo_MalformedRegistryStartsOver(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := memory.New()
	require.NoError(t, m.Set(ctx, repository.KeyAccounts, []byte(`"garbage"`)))
	r := NewAccountRepo(m, nil)

	_, err := r.GetByUsername(ctx, "alice")
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, r.Create(ctx, &model.Account{Username: "alice"}))
}

func TestAccountRepo_ActiveLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewAccountRepo(memory.New(), nil)

	active, err := r.Active(ctx)
	require.NoError(t, err)
	require.Equal(t, "", active)

	require.NoError(t, r.SetActive(ctx, "alice"))
	active, err = r.Active(ctx)
	require.NoError(t, err)
	require.Equal(t, "alice", active)

	require.NoError(t, r.ClearActive(ctx))
	active, err = r.Active(ctx)
	require.NoError(t, err)
	require.Equal(t, "", active)
}
