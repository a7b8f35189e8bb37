// Package model defines domain entities used by services and repositories.
package model

import "time"

// Case is the top-level aggregate a user organizes work around.
// Values reachable from a Collection are shared between snapshots and must not be mutated in place.
type Case struct {
	ID          string
	Title       string
	Description string
	Documents   []Document
	Evidence    []EvidenceItem
	Timeline    []TimelineEvent
	Foia        []FoiaRequest
	Witnesses   []Witness
	Tasks       []Task
}

// Document is a named file attached to a case.
type Document struct {
	ID      string
	Name    string
	Content string // opaque content reference, empty if no file attached
}

// EvidenceItem is a piece of evidence with optional free-form tags.
type EvidenceItem struct {
	ID      string
	Name    string
	Content string
	Tags    []string // set semantics, insertion ordered
}

// HasTag reports whether the item carries tag.
func (e EvidenceItem) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// TimelineEvent is a dated entry of a case chronology.
type TimelineEvent struct {
	ID          string
	Date        string // ISO-8601 calendar date, YYYY-MM-DD
	Title       string
	Description string
}

// FoiaRequest records a freedom-of-information request made for a case.
type FoiaRequest struct {
	ID          string
	Subject     string
	Description string
}

// Witness is a person connected to a case.
type Witness struct {
	ID          string
	Name        string
	Description string
}

// TaskStatus is the progress state of a Task.
type TaskStatus string

const (
	TaskOpen       TaskStatus = "open"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

// TaskStatuses lists the accepted statuses in workflow order.
var TaskStatuses = []TaskStatus{TaskOpen, TaskInProgress, TaskDone}

// Valid reports whether s is one of TaskStatuses.
func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Task is a to-do item of a case.
type Task struct {
	ID          string
	Title       string
	Description string
	Status      TaskStatus
}

// Collection is the ordered list of cases of one account, newest first.
type Collection []*Case

// Find returns the case with id and its position, or (nil, -1).
func (c Collection) Find(id string) (*Case, int) {
	if id == "" {
		return nil, -1
	}
	for i, cs := range c {
		if cs != nil && cs.ID == id {
			return cs, i
		}
	}
	return nil, -1
}

// Account is a local registry entry. Username doubles as the persistence partition id.
type Account struct {
	Username  string
	PwdHash   []byte // Argon2id(password, Salt)
	Salt      []byte
	CreatedAt time.Time
}
