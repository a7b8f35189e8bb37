package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/casebuddy/internal/model"
)

func sampleCases() model.Collection {
	return model.Collection{
		{
			ID:    "c1",
			Title: "Insurance Claim",
			Timeline: []model.TimelineEvent{
				{ID: "t1", Date: "2024-02-01", Title: "Adjuster visit", Description: "insurance adjuster"},
			},
		},
		{
			ID:        "c2",
			Title:     "Smith v. Jones",
			Documents: []model.Document{{ID: "d1", Name: "insurance-photo.jpg"}},
			Evidence:  []model.EvidenceItem{{ID: "e1", Name: "Insurance card"}},
			Foia:      []model.FoiaRequest{{ID: "f1", Subject: "Records", Description: "INSURANCE files"}},
			Witnesses: []model.Witness{{ID: "w1", Name: "Agent", Description: "insurance broker"}},
		},
	}
}

func TestSearch_ScanOrder(t *testing.T) {
	t.Parallel()
	got := Search(sampleCases(), "  InSuRaNcE ")
	want := []Hit{
		{Kind: KindCase, Label: "Insurance Claim", CaseID: "c1"},
		{Kind: KindTimeline, Label: "2024-02-01: Adjuster visit", CaseID: "c1"},
		{Kind: KindDocument, Label: "insurance-photo.jpg", CaseID: "c2"},
		{Kind: KindEvidence, Label: "Insurance card", CaseID: "c2"},
		{Kind: KindFOIA, Label: "Records", CaseID: "c2"},
		{Kind: KindWitness, Label: "Agent", CaseID: "c2"},
	}
	require.Equal(t, want, got)
}

func TestSearch_TwoHitScenario(t *testing.T) {
	t.Parallel()
	cases := model.Collection{
		{ID: "a", Title: "Insurance Claim"},
		{ID: "b", Title: "Other", Documents: []model.Document{{ID: "d", Name: "insurance-photo.jpg"}}},
	}
	got := Search(cases, "insurance")
	require.Equal(t, []Hit{
		{Kind: KindCase, Label: "Insurance Claim", CaseID: "a"},
		{Kind: KindDocument, Label: "insurance-photo.jpg", CaseID: "b"},
	}, got)
}

func TestSearch_OneHitPerEntity(t *testing.T) {
	t.Parallel()
	cases := model.Collection{{
		ID:       "c",
		Title:    "x",
		Timeline: []model.TimelineEvent{{ID: "t", Date: "2024-01-01", Title: "fraud", Description: "fraud again"}},
	}}
	require.Len(t, Search(cases, "fraud"), 1)
}

func TestSearch_BlankQueryAndNilCollections(t *testing.T) {
	t.Parallel()
	require.Empty(t, Search(sampleCases(), ""))
	require.Empty(t, Search(sampleCases(), "   "))
	require.Empty(t, Search(model.Collection{{ID: "c"}, nil}, "anything"))
}

func TestSearch_Idempotent(t *testing.T) {
	t.Parallel()
	cases := sampleCases()
	require.Equal(t, Search(cases, "in"), Search(cases, "in"))
}

func TestSummarize_Scenario(t *testing.T) {
	t.Parallel()
	c := &model.Case{
		ID:        "c",
		Title:     "Smith v. Jones",
		Documents: []model.Document{{ID: "d", Name: "contract.pdf"}},
		Timeline:  []model.TimelineEvent{{ID: "t", Date: "2024-01-05", Title: "Filed"}},
	}
	got := Summarize(c)
	require.Contains(t, got, "Case Title: Smith v. Jones.\n")
	require.Contains(t, got, "Documents: contract.pdf.\n")
	require.Contains(t, got, "Timeline: 2024-01-05: Filed.\n")
	require.NotContains(t, got, "Description")
	require.NotContains(t, got, "Evidence")
	require.NotContains(t, got, "FOIA")
}

func TestSummarize_FullCase(t *testing.T) {
	t.Parallel()
	c := &model.Case{
		Title:       "T",
		Description: "D",
		Documents:   []model.Document{{Name: "a"}, {Name: "b"}},
		Evidence:    []model.EvidenceItem{{Name: "e1"}, {Name: "e2"}},
		Timeline: []model.TimelineEvent{
			{ID: "2", Date: "2024-05-01", Title: "Later"},
			{ID: "1", Date: "2023-12-31", Title: "Earlier", Description: "first"},
			{ID: "3", Date: "2024-05-01", Title: "Same day"},
		},
		Foia:      []model.FoiaRequest{{Subject: "S1", Description: "why"}, {Subject: "S2"}},
		Witnesses: []model.Witness{{Name: "W", Description: "neighbour"}},
	}
	want := "Case Title: T.\n" +
		"Description: D.\n" +
		"Documents: a, b.\n" +
		"Evidence: e1, e2.\n" +
		"Timeline: 2023-12-31: Earlier (first); 2024-05-01: Later; 2024-05-01: Same day.\n" +
		"FOIA Requests: S1 (why); S2.\n" +
		"Witnesses: W (neighbour).\n"
	require.Equal(t, want, Summarize(c))
	require.Equal(t, "2", c.Timeline[0].ID, "stored order is left alone")
}

func TestSummarize_NoCase(t *testing.T) {
	t.Parallel()
	require.Equal(t, NoSelection, Summarize(nil))
	require.Equal(t, "", Summarize(&model.Case{}))
}
