// Package convert maps domain entities to and from their persisted JSON shape.
package convert

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	model "github.com/and161185/casebuddy/internal/model"
)

// ErrMalformed reports a payload that is not a JSON array of the expected records.
// Loaders treat it as an empty collection.
var ErrMalformed = errors.New("malformed payload")

// --- wire shapes ---

type caseJSON struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Documents   []documentJSON `json:"documents"`
	Evidence    []evidenceJSON `json:"evidence"`
	Timeline    []timelineJSON `json:"timeline"`
	Foia        []foiaJSON     `json:"foia"`
	Witnesses   []witnessJSON  `json:"witnesses"`
	Tasks       []taskJSON     `json:"tasks,omitempty"`
}

type documentJSON struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content,omitempty"`
}

type evidenceJSON struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Content string   `json:"content,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

type timelineJSON struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type foiaJSON struct {
	ID          string `json:"id"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

type witnessJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type taskJSON struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Status      model.TaskStatus `json:"status"`
}

type accountJSON struct {
	Username  string    `json:"username"`
	PwdHash   []byte    `json:"pwd_hash"`
	Salt      []byte    `json:"salt"`
	CreatedAt time.Time `json:"created_at"`
}

// --- collection ---

// MarshalCollection encodes cases as a JSON array. Absent sub-collections encode as [].
func MarshalCollection(cases model.Collection) ([]byte, error) {
	out := make([]caseJSON, 0, len(cases))
	for _, c := range cases {
		if c == nil {
			continue
		}
		out = append(out, toCaseJSON(c))
	}
	return json.Marshal(out)
}

// UnmarshalCollection decodes a JSON array of cases. Anything that is not an array
// returns ErrMalformed. Absent or null sub-collections decode as nil slices.
func UnmarshalCollection(data []byte) (model.Collection, error) {
	var raw []caseJSON
	if err := unmarshalArray(data, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(model.Collection, 0, len(raw))
	for i := range raw {
		out = append(out, fromCaseJSON(&raw[i]))
	}
	return out, nil
}

func toCaseJSON(c *model.Case) caseJSON {
	cj := caseJSON{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Documents:   make([]documentJSON, 0, len(c.Documents)),
		Evidence:    make([]evidenceJSON, 0, len(c.Evidence)),
		Timeline:    make([]timelineJSON, 0, len(c.Timeline)),
		Foia:        make([]foiaJSON, 0, len(c.Foia)),
		Witnesses:   make([]witnessJSON, 0, len(c.Witnesses)),
	}
	for _, d := range c.Documents {
		cj.Documents = append(cj.Documents, documentJSON(d))
	}
	for _, e := range c.Evidence {
		cj.Evidence = append(cj.Evidence, evidenceJSON(e))
	}
	for _, ev := range c.Timeline {
		cj.Timeline = append(cj.Timeline, timelineJSON(ev))
	}
	for _, f := range c.Foia {
		cj.Foia = append(cj.Foia, foiaJSON(f))
	}
	for _, w := range c.Witnesses {
		cj.Witnesses = append(cj.Witnesses, witnessJSON(w))
	}
	for _, t := range c.Tasks {
		cj.Tasks = append(cj.Tasks, taskJSON(t))
	}
	return cj
}

func fromCaseJSON(cj *caseJSON) *model.Case {
	c := &model.Case{ID: cj.ID, Title: cj.Title, Description: cj.Description}
	for _, d := range cj.Documents {
		c.Documents = append(c.Documents, model.Document(d))
	}
	for _, e := range cj.Evidence {
		if len(e.Tags) == 0 {
			e.Tags = nil
		}
		c.Evidence = append(c.Evidence, model.EvidenceItem(e))
	}
	for _, ev := range cj.Timeline {
		c.Timeline = append(c.Timeline, model.TimelineEvent(ev))
	}
	for _, f := range cj.Foia {
		c.Foia = append(c.Foia, model.FoiaRequest(f))
	}
	for _, w := range cj.Witnesses {
		c.Witnesses = append(c.Witnesses, model.Witness(w))
	}
	for _, t := range cj.Tasks {
		if !t.Status.Valid() {
			t.Status = model.TaskOpen
		}
		c.Tasks = append(c.Tasks, model.Task(t))
	}
	return c
}

// --- accounts ---

// MarshalAccounts encodes the account registry as a JSON array.
func MarshalAccounts(accounts []model.Account) ([]byte, error) {
	out := make([]accountJSON, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountJSON(a))
	}
	return json.Marshal(out)
}

// UnmarshalAccounts decodes the account registry; non-array payloads return ErrMalformed.
func UnmarshalAccounts(data []byte) ([]model.Account, error) {
	var raw []accountJSON
	if err := unmarshalArray(data, &raw); err != nil {
		return nil, err
	}
	out := make([]model.Account, 0, len(raw))
	for _, a := range raw {
		out = append(out, model.Account(a))
	}
	return out, nil
}

// unmarshalArray rejects anything but a JSON array before decoding into dst.
func unmarshalArray(data []byte, dst any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return ErrMalformed
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
