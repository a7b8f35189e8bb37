package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/casebuddy/internal/ingest"
	"github.com/and161185/casebuddy/internal/model"
	"github.com/and161185/casebuddy/internal/query"
	"github.com/and161185/casebuddy/internal/records"
	"github.com/and161185/casebuddy/internal/repository"
)

// CaseService is the single writer of the active account's cases. It owns the current
// snapshot and session, applies record store operations and persists after each change.
// Intents return false when the record store rejected them and nothing changed.
type CaseService struct {
	mu    sync.Mutex
	mut   *records.Mutator
	repo  repository.CaseRepository
	log   *zap.Logger
	cases model.Collection
	sess  records.Session
	query string

	// loadFailed holds saves back while the active partition could not be read,
	// so an empty view never overwrites the stored cases.
	loadFailed bool
}

// NewCaseService constructs a CaseService with no active account.
func NewCaseService(repo repository.CaseRepository, mut *records.Mutator, log *zap.Logger) *CaseService {
	if mut == nil {
		mut = records.NewMutator(nil, nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CaseService{repo: repo, mut: mut, log: log}
}

// SwitchAccount replaces the visible collection with the partition of account.
// The previous partition is left as it was last saved. An empty account clears the view.
// A partition that cannot be read loads as empty and is not saved over until a later
// SwitchAccount reads it successfully.
func (s *CaseService) SwitchAccount(ctx context.Context, account string) {
	account = strings.TrimSpace(account)
	var cases model.Collection
	loadFailed := false
	if account != "" {
		loaded, err := s.repo.Load(ctx, account)
		if err != nil {
			s.log.Error("load partition failed",
				zap.String("account", account),
				zap.String("key", repository.CasesKey(account)),
				zap.Error(err))
			loadFailed = true
		}
		cases = loaded
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases = cases
	s.loadFailed = loadFailed
	s.sess = records.Session{Account: account, Selection: records.DefaultSelection(cases)}
	s.query = ""
}

// Snapshot returns the current collection and session. The collection must not be modified.
func (s *CaseService) Snapshot() (model.Collection, records.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cases, s.sess
}

// Current returns the selected case or nil.
func (s *CaseService) Current() *model.Case {
	s.mu.Lock()
	defer s.mu.Unlock()
	return records.Current(s.cases, s.sess)
}

// Select changes the selected case. Selecting an unknown id is allowed and resolves to no case.
func (s *CaseService) Select(caseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = records.SelectCase(s.sess, caseID)
}

// CreateCase adds a case to the front of the collection and selects it.
func (s *CaseService) CreateCase(ctx context.Context, title, description string) bool {
	return s.applySession(ctx, func(c model.Collection, sess records.Session) (model.Collection, records.Session) {
		return s.mut.CreateCase(c, sess, title, description)
	})
}

// UpdateCase edits the title and description of a case.
func (s *CaseService) UpdateCase(ctx context.Context, caseID, title, description string) bool {
	return s.apply(ctx, func(c model.Collection) model.Collection {
		return s.mut.UpdateCase(c, caseID, title, description)
	})
}

// DeleteCase removes a case; a selection pointing at it moves to the first remaining case.
func (s *CaseService) DeleteCase(ctx context.Context, caseID string) bool {
	return s.applySession(ctx, func(c model.Collection, sess records.Session) (model.Collection, records.Session) {
		return s.mut.DeleteCase(c, sess, caseID)
	})
}

// AppendDocument adds a document to a case.
func (s *CaseService) AppendDocument(ctx context.Context, caseID, name, contentRef string) bool {
	return s.apply(ctx, func(c model.Collection) model.Collection {
		return s.mut.AppendDocument(c, caseID, name, contentRef)
	})
}

// AppendEvidence adds an evidence item to a case.
func (s *CaseService) AppendEvidence(ctx context.Context, caseID, name, contentRef string, tags []string) bool {
	return s.apply(ctx, func(c model.Collection) model.Collection {
		return s.mut.AppendEvidence(c, caseID, name, contentRef, tags)
	})
}

// AppendDocumentFile reads path into a content reference and adds it as a document.
// An empty name defaults to the file's base name.
func (s *CaseService) AppendDocumentFile(ctx context.Context, caseID, name, path string) (bool, error) {
	fileName, ref, err := ingest.ReadFile(ctx, path)
	if err != nil {
		return false, fmt.Errorf("attach document: %w", err)
	}
	if strings.TrimSpace(name) == "" {
		name = fileName
	}
	return s.AppendDocument(ctx, caseID, name, ref), nil
}

// AppendEvidenceFile reads path into a content reference and adds it as evidence.
func (s *CaseService) AppendEvidenceFile(ctx context.Context, caseID, name, path string, tags []string) (bool, error) {
	fileName, ref, err := ingest.ReadFile(ctx, path)
	if err != nil {
		return false, fmt.Errorf("attach evidence: %w", err)
	}
	if strings.TrimSpace(name) == "" {
		name = fileName
	}
	return s.AppendEvidence(ctx, caseID, name, ref, tags), nil
}

// AppendTimelineEvent adds a dated event; an empty date means today.
func (s *CaseService) AppendTimelineEvent(ctx context.Context, caseID, date, title, description string) bool {
	return s.apply(ctx, func(c model.Collection) model.Collection {
		return s.mut.AppendTimelineEvent(c, caseID, date, title, description)
	})
}

// AppendFoiaRequest adds a FOIA request to a case.
func (s *CaseService) AppendFoiaRequest(ctx context.Context, caseID, subject, description string) bool {
	return s.apply(ctx, func(c model.Collection) model.Collection {
		return s.mut.AppendFoiaRequest(c, caseID, subject, description)
	})
}

// AppendWitness adds a witness to a case.
func (s *CaseService) AppendWitness(ctx context.Context, caseID, name, description string) bool {
	return s.apply(ctx, func(c model.Collection) model.Collection {
		return s.mut.AppendWitness(c, caseID, name, description)
	})
}

// AddEvidenceTag tags an evidence item.
func (s *CaseService) AddEvidenceTag(ctx context.Context, caseID, evidenceID, tag string) bool {
	return s.apply(ctx, func(c model.Collection) model.Collection {
		return s.mut.AddEvidenceTag(c, caseID, evidenceID, tag)
	})
}

// RemoveEvidenceTag untags an evidence item.
func (s *CaseService) RemoveEvidenceTag(ctx context.Context, caseID, evidenceID, tag string) bool {
	return s.apply(ctx, func(c model.Collection) model.Collection {
		return s.mut.RemoveEvidenceTag(c, caseID, evidenceID, tag)
	})
}

// UpdateDocument renames a document.
func (s *CaseService) UpdateDocument(ctx context.Context, caseID, id, name string) bool {
	return s.apply(ctx, func(c model.Collection) model.Collection {
		return s.mut.UpdateDocument(c, caseID, id, name)
	})
}

// UpdateEvidence renames an evidence item.
func (s *CaseService) UpdateEvidence(ctx context.Context, caseID, id, name string) bool {
	return s.apply(ctx, func(c model.Collection) model.Collection {
		return s.mut.UpdateEvidence(c, caseID, id, name)
	})
}

// UpdateTimelineEvent edits an event; an empty date keeps the current one.
func (s *CaseService) UpdateTimelineEvent(ctx context.Context, caseID, id, date, title, description string) bool {
	return s.apply(ctx, func(c model.Collection) model.Collection {
		return s.mut.UpdateTimelineEvent(c, caseID, id, date, title, description)
	})
}

// UpdateFoiaRequest edits a FOIA request.
func (s *CaseService) UpdateFoiaRequest(ctx context.Context, caseID, id, subject, description string) bool {
	return s.apply(ctx, func(c model.Collection) model.Collection {
		return s.mut.UpdateFoiaRequest(c, caseID, id, subject, description)
	})
}

// UpdateWitness edits a witness.
func (s *CaseService) UpdateWitness(ctx context.Context, caseID, id, name, description string) bool {
	return s.apply(ctx, func(c model.Collection) model.Collection {
		return s.mut.UpdateWitness(c, caseID, id, name, description)
	})
}

// AppendTask adds an open task to a case.
func (s *CaseService) AppendTask(ctx context.Context, caseID, title, description string) bool {
	return s.apply(ctx, func(c model.Collection) model.Collection {
		return s.mut.AppendTask(c, caseID, title, description)
	})
}

// UpdateTask edits the title and description of a task.
func (s *CaseService) UpdateTask(ctx context.Context, caseID, id, title, description string) bool {
	return s.apply(ctx, func(c model.Collection) model.Collection {
		return s.mut.UpdateTask(c, caseID, id, title, description)
	})
}

// SetTaskStatus moves a task to status.
func (s *CaseService) SetTaskStatus(ctx context.Context, caseID, id string, status model.TaskStatus) bool {
	return s.apply(ctx, func(c model.Collection) model.Collection {
		return s.mut.SetTaskStatus(c, caseID, id, status)
	})
}

// Entity names accepted by Remove.
const (
	EntityDocument = "document"
	EntityEvidence = "evidence"
	EntityTimeline = "timeline"
	EntityFoia     = "foia"
	EntityWitness  = "witness"
	EntityTask     = "task"
)

// Remove deletes a sub-entity of kind entity from a case.
func (s *CaseService) Remove(ctx context.Context, entity, caseID, id string) bool {
	var fn func(model.Collection, string, string) model.Collection
	switch entity {
	case EntityDocument:
		fn = s.mut.RemoveDocument
	case EntityEvidence:
		fn = s.mut.RemoveEvidence
	case EntityTimeline:
		fn = s.mut.RemoveTimelineEvent
	case EntityFoia:
		fn = s.mut.RemoveFoiaRequest
	case EntityWitness:
		fn = s.mut.RemoveWitness
	case EntityTask:
		fn = s.mut.RemoveTask
	default:
		return false
	}
	return s.apply(ctx, func(c model.Collection) model.Collection { return fn(c, caseID, id) })
}

// SetSearchQuery stores the query that Results evaluates.
func (s *CaseService) SetSearchQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = q
}

// Results evaluates the stored query against the current snapshot.
func (s *CaseService) Results() []query.Hit {
	s.mu.Lock()
	cases, q := s.cases, s.query
	s.mu.Unlock()
	return query.Search(cases, q)
}

// Summary summarizes the selected case.
func (s *CaseService) Summary() string {
	return query.Summarize(s.Current())
}

func (s *CaseService) apply(ctx context.Context, fn func(model.Collection) model.Collection) bool {
	return s.applySession(ctx, func(c model.Collection, sess records.Session) (model.Collection, records.Session) {
		return fn(c), sess
	})
}

// applySession runs fn under the lock and persists the result if the collection changed.
func (s *CaseService) applySession(ctx context.Context, fn func(model.Collection, records.Session) (model.Collection, records.Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, sess := fn(s.cases, s.sess)
	if sameCollection(next, s.cases) {
		return false
	}
	s.cases, s.sess = next, sess
	s.persist(ctx)
	return true
}

// persist saves the current partition. Failures are logged; memory stays authoritative.
func (s *CaseService) persist(ctx context.Context) {
	if !s.sess.LoggedIn() {
		return
	}
	if s.loadFailed {
		s.log.Warn("partition not saved: last load failed",
			zap.String("account", s.sess.Account),
			zap.String("key", repository.CasesKey(s.sess.Account)))
		return
	}
	if err := s.repo.Save(ctx, s.sess.Account, s.cases); err != nil {
		s.log.Error("persist partition failed",
			zap.String("account", s.sess.Account),
			zap.String("key", repository.CasesKey(s.sess.Account)),
			zap.Error(err))
	}
}

// sameCollection reports whether the record store returned its input unchanged.
func sameCollection(a, b model.Collection) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}
