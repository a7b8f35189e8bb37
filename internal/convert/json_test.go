package convert

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	model "github.com/and161185/casebuddy/internal/model"
)

func TestCollection_RoundTrip(t *testing.T) {
	t.Parallel()
	in := model.Collection{
		{
			ID:          "c2",
			Title:       "Smith v. Jones",
			Description: "contract dispute",
			Documents:   []model.Document{{ID: "d1", Name: "contract.pdf", Content: "data:application/pdf;base64,JVBERi0="}},
			Evidence:    []model.EvidenceItem{{ID: "e1", Name: "photo", Tags: []string{"scene", "night"}}, {ID: "e2", Name: "note"}},
			Timeline:    []model.TimelineEvent{{ID: "t1", Date: "2024-01-05", Title: "Filed", Description: "court"}},
			Foia:        []model.FoiaRequest{{ID: "f1", Subject: "Police report"}},
			Witnesses:   []model.Witness{{ID: "w1", Name: "Jane"}},
			Tasks:       []model.Task{{ID: "k1", Title: "Call clerk", Status: model.TaskInProgress}},
		},
		{ID: "c1", Title: "Empty"},
	}

	data, err := MarshalCollection(in)
	require.NoError(t, err)

	out, err := UnmarshalCollection(data)
	require.NoError(t, err)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-in +out):\n%s", diff)
	}
}

func TestMarshalCollection_EmptySubCollectionsAreArrays(t *testing.T) {
	t.Parallel()
	data, err := MarshalCollection(model.Collection{{ID: "c", Title: "t"}, nil})
	require.NoError(t, err)
	require.JSONEq(t,
		`[{"id":"c","title":"t","description":"","documents":[],"evidence":[],"timeline":[],"foia":[],"witnesses":[]}]`,
		string(data))
}

func TestUnmarshalCollection_AcceptsMissingKeys(t *testing.T) {
	t.Parallel()
	// records written before witnesses existed have no such key
	data := []byte(`[{"id":"x","title":"T","description":"","documents":[{"id":"d","name":"n"}],"timeline":null}]`)
	out, err := UnmarshalCollection(data)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "n", out[0].Documents[0].Name)
	require.Nil(t, out[0].Timeline)
	require.Nil(t, out[0].Witnesses)
}

func TestUnmarshalCollection_UnknownTaskStatusIsOpen(t *testing.T) {
	t.Parallel()
	data := []byte(`[{"id":"x","title":"T","tasks":[{"id":"k","title":"a","status":"someday"},{"id":"k2","title":"b","status":"done"}]}]`)
	out, err := UnmarshalCollection(data)
	require.NoError(t, err)
	require.Equal(t, model.TaskOpen, out[0].Tasks[0].Status)
	require.Equal(t, model.TaskDone, out[0].Tasks[1].Status)
}

func TestUnmarshalCollection_Malformed(t *testing.T) {
	t.Parallel()
	for _, in := range []string{``, `   `, `{"id":"x"}`, `null`, `"cases"`, `42`, `[{"id":`, `[1,2]`} {
		out, err := UnmarshalCollection([]byte(in))
		require.Error(t, err, "input %q", in)
		require.True(t, errors.Is(err, ErrMalformed), "input %q: %v", in, err)
		require.Empty(t, out)
	}
}

func TestUnmarshalCollection_EmptyArray(t *testing.T) {
	t.Parallel()
	out, err := UnmarshalCollection([]byte(` [] `))
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestAccounts_RoundTrip(t *testing.T) {
	t.Parallel()
	in := []model.Account{{
		Username:  "alice",
		PwdHash:   []byte{1, 2, 3},
		Salt:      []byte{4, 5},
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}}
	data, err := MarshalAccounts(in)
	require.NoError(t, err)
	out, err := UnmarshalAccounts(data)
	require.NoError(t, err)
	require.Equal(t, in, out)

	_, err = UnmarshalAccounts([]byte(`{"username":"x"}`))
	require.ErrorIs(t, err, ErrMalformed)
}
