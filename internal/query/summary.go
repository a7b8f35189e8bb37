package query

import (
	"slices"
	"strings"

	"github.com/and161185/casebuddy/internal/model"
)

// NoSelection is returned by Summarize when there is no case to summarize.
const NoSelection = "Select a case first to generate a summary."

// Summarize renders a deterministic plain-text summary of c. Each part is one line
// ending in ".\n"; parts with nothing to say are left out.
func Summarize(c *model.Case) string {
	if c == nil {
		return NoSelection
	}
	var b strings.Builder
	line := func(label, body string) {
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(body)
		b.WriteString(".\n")
	}

	if c.Title != "" {
		line("Case Title", c.Title)
	}
	if c.Description != "" {
		line("Description", c.Description)
	}
	if len(c.Documents) > 0 {
		names := make([]string, 0, len(c.Documents))
		for _, d := range c.Documents {
			names = append(names, d.Name)
		}
		line("Documents", strings.Join(names, ", "))
	}
	if len(c.Evidence) > 0 {
		names := make([]string, 0, len(c.Evidence))
		for _, e := range c.Evidence {
			names = append(names, e.Name)
		}
		line("Evidence", strings.Join(names, ", "))
	}
	if len(c.Timeline) > 0 {
		parts := make([]string, 0, len(c.Timeline))
		for _, ev := range SortedTimeline(c.Timeline) {
			parts = append(parts, ev.Date+": "+withDetail(ev.Title, ev.Description))
		}
		line("Timeline", strings.Join(parts, "; "))
	}
	if len(c.Foia) > 0 {
		parts := make([]string, 0, len(c.Foia))
		for _, f := range c.Foia {
			parts = append(parts, withDetail(f.Subject, f.Description))
		}
		line("FOIA Requests", strings.Join(parts, "; "))
	}
	if len(c.Witnesses) > 0 {
		parts := make([]string, 0, len(c.Witnesses))
		for _, w := range c.Witnesses {
			parts = append(parts, withDetail(w.Name, w.Description))
		}
		line("Witnesses", strings.Join(parts, "; "))
	}
	return b.String()
}

// SortedTimeline returns a copy of events in display order: ascending by date, ties kept
// in insertion order. YYYY-MM-DD dates sort chronologically as strings.
func SortedTimeline(events []model.TimelineEvent) []model.TimelineEvent {
	out := slices.Clone(events)
	slices.SortStableFunc(out, func(a, b model.TimelineEvent) int {
		return strings.Compare(a.Date, b.Date)
	})
	return out
}

func withDetail(s, detail string) string {
	if detail == "" {
		return s
	}
	return s + " (" + detail + ")"
}
