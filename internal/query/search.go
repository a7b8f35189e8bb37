// Package query derives read-only views from a case collection: cross-entity search hits
// and plain-text case summaries.
package query

import (
	"strings"

	"github.com/and161185/casebuddy/internal/model"
)

// Kind tags the entity a hit points at.
type Kind string

// Hit kinds, in the order a case's fields are scanned.
const (
	KindCase     Kind = "Case"
	KindDocument Kind = "Document"
	KindEvidence Kind = "Evidence"
	KindTimeline Kind = "Timeline"
	KindFOIA     Kind = "FOIA"
	KindWitness  Kind = "Witness"
)

// Hit is one search result.
type Hit struct {
	Kind   Kind   `json:"type"`
	Label  string `json:"label"`
	CaseID string `json:"caseId"`
}

// Search returns every entity whose text fields contain q, case-insensitively.
// Hits come in scan order: cases in collection order, and within a case the title, then
// documents, evidence, timeline, FOIA requests and witnesses in insertion order.
// An entity yields at most one hit. A blank query yields no hits.
func Search(cases model.Collection, q string) []Hit {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return nil
	}
	match := func(fields ...string) bool {
		for _, f := range fields {
			if f != "" && strings.Contains(strings.ToLower(f), q) {
				return true
			}
		}
		return false
	}

	var hits []Hit
	for _, c := range cases {
		if c == nil {
			continue
		}
		if match(c.Title) {
			hits = append(hits, Hit{Kind: KindCase, Label: c.Title, CaseID: c.ID})
		}
		for _, d := range c.Documents {
			if match(d.Name) {
				hits = append(hits, Hit{Kind: KindDocument, Label: d.Name, CaseID: c.ID})
			}
		}
		for _, e := range c.Evidence {
			if match(e.Name) {
				hits = append(hits, Hit{Kind: KindEvidence, Label: e.Name, CaseID: c.ID})
			}
		}
		for _, ev := range c.Timeline {
			if match(ev.Title, ev.Description) {
				hits = append(hits, Hit{Kind: KindTimeline, Label: ev.Date + ": " + ev.Title, CaseID: c.ID})
			}
		}
		for _, f := range c.Foia {
			if match(f.Subject, f.Description) {
				hits = append(hits, Hit{Kind: KindFOIA, Label: f.Subject, CaseID: c.ID})
			}
		}
		for _, w := range c.Witnesses {
			if match(w.Name, w.Description) {
				hits = append(hits, Hit{Kind: KindWitness, Label: w.Name, CaseID: c.ID})
			}
		}
	}
	return hits
}
