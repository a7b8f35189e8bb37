// Package mediumtest holds the behaviour every repository.Medium must share.
package mediumtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/casebuddy/internal/errs"
	"github.com/and161185/casebuddy/internal/repository"
)

// Run exercises get/set/delete semantics against m.
func Run(t *testing.T, m repository.Medium) {
	t.Helper()
	ctx := context.Background()

	_, err := m.Get(ctx, "missing")
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, m.Set(ctx, repository.CasesKey("alice"), []byte(`[{"id":"a"}]`)))
	require.NoError(t, m.Set(ctx, repository.CasesKey("bob"), []byte(`[]`)))

	v, err := m.Get(ctx, repository.CasesKey("alice"))
	require.NoError(t, err)
	require.Equal(t, `[{"id":"a"}]`, string(v))

	require.NoError(t, m.Set(ctx, repository.CasesKey("alice"), []byte(`[]`)))
	v, err = m.Get(ctx, repository.CasesKey("alice"))
	require.NoError(t, err)
	require.Equal(t, `[]`, string(v))

	// keys that look like paths stay opaque
	odd := repository.CasesKey("../x/y")
	require.NoError(t, m.Set(ctx, odd, []byte("z")))
	v, err = m.Get(ctx, odd)
	require.NoError(t, err)
	require.Equal(t, "z", string(v))

	require.NoError(t, m.Delete(ctx, repository.CasesKey("alice")))
	_, err = m.Get(ctx, repository.CasesKey("alice"))
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, m.Delete(ctx, repository.CasesKey("alice")), "deleting twice is fine")

	v, err = m.Get(ctx, repository.CasesKey("bob"))
	require.NoError(t, err)
	require.Equal(t, `[]`, string(v))
}
