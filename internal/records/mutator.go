package records

import (
	"slices"
	"strings"
	"time"

	"github.com/and161185/casebuddy/internal/model"
)

// Mutator applies intents to a collection. Every method is a pure function of its
// arguments plus the id source and clock: inputs are never modified, untouched cases
// are shared by pointer and untouched sub-collections share their backing arrays.
// A rejected intent (empty required text, unknown target id) returns the input unchanged.
type Mutator struct {
	ids   IDSource
	clock Clock
}

// NewMutator constructs a Mutator. Nil arguments select UUIDv7 ids and time.Now.
func NewMutator(ids IDSource, clock Clock) *Mutator {
	if ids == nil {
		ids = UUIDSource{}
	}
	if clock == nil {
		clock = time.Now
	}
	return &Mutator{ids: ids, clock: clock}
}

// CreateCase prepends a new empty case and selects it.
func (m *Mutator) CreateCase(cases model.Collection, sess Session, title, description string) (model.Collection, Session) {
	title = strings.TrimSpace(title)
	if title == "" {
		return cases, sess
	}
	c := &model.Case{
		ID:          m.ids.NewID(),
		Title:       title,
		Description: strings.TrimSpace(description),
	}
	next := make(model.Collection, 0, len(cases)+1)
	next = append(next, c)
	next = append(next, cases...)
	sess.Selection = c.ID
	return next, sess
}

// UpdateCase replaces the title and description of a case.
func (m *Mutator) UpdateCase(cases model.Collection, caseID, title, description string) model.Collection {
	title = strings.TrimSpace(title)
	if title == "" {
		return cases
	}
	return modify(cases, caseID, func(c *model.Case) bool {
		c.Title = title
		c.Description = strings.TrimSpace(description)
		return true
	})
}

// DeleteCase removes a case. A selection pointing at it moves to the first remaining case, or none.
func (m *Mutator) DeleteCase(cases model.Collection, sess Session, caseID string) (model.Collection, Session) {
	_, i := cases.Find(caseID)
	if i < 0 {
		return cases, sess
	}
	next := slices.Concat(cases[:i], cases[i+1:])
	if sess.Selection == caseID {
		sess.Selection = DefaultSelection(next)
	}
	return next, sess
}

// AppendDocument adds a document to a case. contentRef may be empty.
func (m *Mutator) AppendDocument(cases model.Collection, caseID, name, contentRef string) model.Collection {
	name = strings.TrimSpace(name)
	if name == "" {
		return cases
	}
	return modify(cases, caseID, func(c *model.Case) bool {
		c.Documents = appendClipped(c.Documents, model.Document{ID: m.ids.NewID(), Name: name, Content: contentRef})
		return true
	})
}

// AppendEvidence adds an evidence item to a case. Tags are trimmed and deduplicated.
func (m *Mutator) AppendEvidence(cases model.Collection, caseID, name, contentRef string, tags []string) model.Collection {
	name = strings.TrimSpace(name)
	if name == "" {
		return cases
	}
	return modify(cases, caseID, func(c *model.Case) bool {
		c.Evidence = appendClipped(c.Evidence, model.EvidenceItem{
			ID:      m.ids.NewID(),
			Name:    name,
			Content: contentRef,
			Tags:    normalizeTags(tags),
		})
		return true
	})
}

// AppendTimelineEvent adds a dated event. An empty date means today; a date that is not
// YYYY-MM-DD rejects the intent.
func (m *Mutator) AppendTimelineEvent(cases model.Collection, caseID, date, title, description string) model.Collection {
	title = strings.TrimSpace(title)
	if title == "" {
		return cases
	}
	date = strings.TrimSpace(date)
	if date == "" {
		date = m.clock.Today()
	} else if !ValidDate(date) {
		return cases
	}
	return modify(cases, caseID, func(c *model.Case) bool {
		c.Timeline = appendClipped(c.Timeline, model.TimelineEvent{
			ID:          m.ids.NewID(),
			Date:        date,
			Title:       title,
			Description: strings.TrimSpace(description),
		})
		return true
	})
}

// AppendFoiaRequest adds a FOIA request.
func (m *Mutator) AppendFoiaRequest(cases model.Collection, caseID, subject, description string) model.Collection {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return cases
	}
	return modify(cases, caseID, func(c *model.Case) bool {
		c.Foia = appendClipped(c.Foia, model.FoiaRequest{
			ID:          m.ids.NewID(),
			Subject:     subject,
			Description: strings.TrimSpace(description),
		})
		return true
	})
}

// AppendWitness adds a witness.
func (m *Mutator) AppendWitness(cases model.Collection, caseID, name, description string) model.Collection {
	name = strings.TrimSpace(name)
	if name == "" {
		return cases
	}
	return modify(cases, caseID, func(c *model.Case) bool {
		c.Witnesses = appendClipped(c.Witnesses, model.Witness{
			ID:          m.ids.NewID(),
			Name:        name,
			Description: strings.TrimSpace(description),
		})
		return true
	})
}

// AddEvidenceTag adds tag to an evidence item unless it is already present.
func (m *Mutator) AddEvidenceTag(cases model.Collection, caseID, evidenceID, tag string) model.Collection {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return cases
	}
	return modify(cases, caseID, func(c *model.Case) bool {
		i := slices.IndexFunc(c.Evidence, func(e model.EvidenceItem) bool { return e.ID == evidenceID })
		if i < 0 || c.Evidence[i].HasTag(tag) {
			return false
		}
		ev := slices.Clone(c.Evidence)
		ev[i].Tags = appendClipped(ev[i].Tags, tag)
		c.Evidence = ev
		return true
	})
}

// RemoveEvidenceTag removes tag from an evidence item.
func (m *Mutator) RemoveEvidenceTag(cases model.Collection, caseID, evidenceID, tag string) model.Collection {
	tag = strings.TrimSpace(tag)
	return modify(cases, caseID, func(c *model.Case) bool {
		i := slices.IndexFunc(c.Evidence, func(e model.EvidenceItem) bool { return e.ID == evidenceID })
		if i < 0 || !c.Evidence[i].HasTag(tag) {
			return false
		}
		ev := slices.Clone(c.Evidence)
		ev[i].Tags = slices.DeleteFunc(slices.Clone(ev[i].Tags), func(t string) bool { return t == tag })
		if len(ev[i].Tags) == 0 {
			ev[i].Tags = nil
		}
		c.Evidence = ev
		return true
	})
}

// RemoveDocument deletes a document by id.
func (m *Mutator) RemoveDocument(cases model.Collection, caseID, id string) model.Collection {
	return modify(cases, caseID, func(c *model.Case) bool {
		var ok bool
		c.Documents, ok = removeByID(c.Documents, id, func(d model.Document) string { return d.ID })
		return ok
	})
}

// RemoveEvidence deletes an evidence item by id.
func (m *Mutator) RemoveEvidence(cases model.Collection, caseID, id string) model.Collection {
	return modify(cases, caseID, func(c *model.Case) bool {
		var ok bool
		c.Evidence, ok = removeByID(c.Evidence, id, func(e model.EvidenceItem) string { return e.ID })
		return ok
	})
}

// RemoveTimelineEvent deletes a timeline event by id.
func (m *Mutator) RemoveTimelineEvent(cases model.Collection, caseID, id string) model.Collection {
	return modify(cases, caseID, func(c *model.Case) bool {
		var ok bool
		c.Timeline, ok = removeByID(c.Timeline, id, func(e model.TimelineEvent) string { return e.ID })
		return ok
	})
}

// RemoveFoiaRequest deletes a FOIA request by id.
func (m *Mutator) RemoveFoiaRequest(cases model.Collection, caseID, id string) model.Collection {
	return modify(cases, caseID, func(c *model.Case) bool {
		var ok bool
		c.Foia, ok = removeByID(c.Foia, id, func(f model.FoiaRequest) string { return f.ID })
		return ok
	})
}

// RemoveWitness deletes a witness by id.
func (m *Mutator) RemoveWitness(cases model.Collection, caseID, id string) model.Collection {
	return modify(cases, caseID, func(c *model.Case) bool {
		var ok bool
		c.Witnesses, ok = removeByID(c.Witnesses, id, func(w model.Witness) string { return w.ID })
		return ok
	})
}

// UpdateDocument renames a document. Its content reference is kept.
func (m *Mutator) UpdateDocument(cases model.Collection, caseID, id, name string) model.Collection {
	name = strings.TrimSpace(name)
	if name == "" {
		return cases
	}
	return modify(cases, caseID, func(c *model.Case) bool {
		var ok bool
		c.Documents, ok = updateByID(c.Documents, id, func(d model.Document) string { return d.ID }, func(d *model.Document) bool {
			if d.Name == name {
				return false
			}
			d.Name = name
			return true
		})
		return ok
	})
}

// UpdateEvidence renames an evidence item. Content and tags are kept.
func (m *Mutator) UpdateEvidence(cases model.Collection, caseID, id, name string) model.Collection {
	name = strings.TrimSpace(name)
	if name == "" {
		return cases
	}
	return modify(cases, caseID, func(c *model.Case) bool {
		var ok bool
		c.Evidence, ok = updateByID(c.Evidence, id, func(e model.EvidenceItem) string { return e.ID }, func(e *model.EvidenceItem) bool {
			if e.Name == name {
				return false
			}
			e.Name = name
			return true
		})
		return ok
	})
}

// UpdateTimelineEvent replaces the date, title and description of an event.
// An empty date keeps the current one; a malformed date rejects the intent.
func (m *Mutator) UpdateTimelineEvent(cases model.Collection, caseID, id, date, title, description string) model.Collection {
	title = strings.TrimSpace(title)
	date = strings.TrimSpace(date)
	if title == "" || (date != "" && !ValidDate(date)) {
		return cases
	}
	description = strings.TrimSpace(description)
	return modify(cases, caseID, func(c *model.Case) bool {
		var ok bool
		c.Timeline, ok = updateByID(c.Timeline, id, func(e model.TimelineEvent) string { return e.ID }, func(e *model.TimelineEvent) bool {
			next := model.TimelineEvent{ID: e.ID, Date: e.Date, Title: title, Description: description}
			if date != "" {
				next.Date = date
			}
			if next == *e {
				return false
			}
			*e = next
			return true
		})
		return ok
	})
}

// UpdateFoiaRequest replaces the subject and description of a FOIA request.
func (m *Mutator) UpdateFoiaRequest(cases model.Collection, caseID, id, subject, description string) model.Collection {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return cases
	}
	next := model.FoiaRequest{ID: id, Subject: subject, Description: strings.TrimSpace(description)}
	return modify(cases, caseID, func(c *model.Case) bool {
		var ok bool
		c.Foia, ok = updateByID(c.Foia, id, func(f model.FoiaRequest) string { return f.ID }, func(f *model.FoiaRequest) bool {
			if *f == next {
				return false
			}
			*f = next
			return true
		})
		return ok
	})
}

// UpdateWitness replaces the name and description of a witness.
func (m *Mutator) UpdateWitness(cases model.Collection, caseID, id, name, description string) model.Collection {
	name = strings.TrimSpace(name)
	if name == "" {
		return cases
	}
	next := model.Witness{ID: id, Name: name, Description: strings.TrimSpace(description)}
	return modify(cases, caseID, func(c *model.Case) bool {
		var ok bool
		c.Witnesses, ok = updateByID(c.Witnesses, id, func(w model.Witness) string { return w.ID }, func(w *model.Witness) bool {
			if *w == next {
				return false
			}
			*w = next
			return true
		})
		return ok
	})
}

// AppendTask adds an open task to a case.
func (m *Mutator) AppendTask(cases model.Collection, caseID, title, description string) model.Collection {
	title = strings.TrimSpace(title)
	if title == "" {
		return cases
	}
	return modify(cases, caseID, func(c *model.Case) bool {
		c.Tasks = appendClipped(c.Tasks, model.Task{
			ID:          m.ids.NewID(),
			Title:       title,
			Description: strings.TrimSpace(description),
			Status:      model.TaskOpen,
		})
		return true
	})
}

// UpdateTask replaces the title and description of a task. Its status is kept.
func (m *Mutator) UpdateTask(cases model.Collection, caseID, id, title, description string) model.Collection {
	title = strings.TrimSpace(title)
	if title == "" {
		return cases
	}
	description = strings.TrimSpace(description)
	return modify(cases, caseID, func(c *model.Case) bool {
		var ok bool
		c.Tasks, ok = updateByID(c.Tasks, id, func(t model.Task) string { return t.ID }, func(t *model.Task) bool {
			if t.Title == title && t.Description == description {
				return false
			}
			t.Title, t.Description = title, description
			return true
		})
		return ok
	})
}

// SetTaskStatus moves a task to status. Unknown statuses reject the intent.
func (m *Mutator) SetTaskStatus(cases model.Collection, caseID, id string, status model.TaskStatus) model.Collection {
	if !status.Valid() {
		return cases
	}
	return modify(cases, caseID, func(c *model.Case) bool {
		var ok bool
		c.Tasks, ok = updateByID(c.Tasks, id, func(t model.Task) string { return t.ID }, func(t *model.Task) bool {
			if t.Status == status {
				return false
			}
			t.Status = status
			return true
		})
		return ok
	})
}

// RemoveTask deletes a task by id.
func (m *Mutator) RemoveTask(cases model.Collection, caseID, id string) model.Collection {
	return modify(cases, caseID, func(c *model.Case) bool {
		var ok bool
		c.Tasks, ok = removeByID(c.Tasks, id, func(t model.Task) string { return t.ID })
		return ok
	})
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// modify replaces the case with id by a shallow copy edited by fn.
// fn returning false discards the copy and leaves cases untouched.
func modify(cases model.Collection, id string, fn func(c *model.Case) bool) model.Collection {
	cur, i := cases.Find(id)
	if cur == nil {
		return cases
	}
	nc := *cur
	if !fn(&nc) {
		return cases
	}
	next := slices.Clone(cases)
	next[i] = &nc
	return next
}

// appendClipped appends v into a fresh backing array so the previous slice value stays valid.
func appendClipped[T any](s []T, v T) []T {
	return append(slices.Clip(s), v)
}

func removeByID[T any](s []T, id string, idOf func(T) string) ([]T, bool) {
	i := slices.IndexFunc(s, func(v T) bool { return idOf(v) == id })
	if i < 0 {
		return s, false
	}
	out := slices.Concat(s[:i], s[i+1:])
	if len(out) == 0 {
		out = nil
	}
	return out, true
}

// updateByID edits the element with id in a copy of s. fn reports whether it changed anything.
func updateByID[T any](s []T, id string, idOf func(T) string, fn func(*T) bool) ([]T, bool) {
	i := slices.IndexFunc(s, func(v T) bool { return idOf(v) == id })
	if i < 0 {
		return s, false
	}
	v := s[i]
	if !fn(&v) {
		return s, false
	}
	out := slices.Clone(s)
	out[i] = v
	return out, true
}

func normalizeTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}
