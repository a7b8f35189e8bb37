// Package records implements the case record store: copy-on-write operations over a
// case collection and the session they run against.
package records

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// IDSource produces fresh entity ids.
type IDSource interface {
	NewID() string
}

// UUIDSource issues UUIDv7 ids: a millisecond timestamp followed by random bits,
// so no central counter is needed.
type UUIDSource struct{}

// NewID returns a new UUIDv7 string. It falls back to v4 if the clock source fails.
func (UUIDSource) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Must(uuid.NewV4()).String()
	}
	return id.String()
}

// Clock returns the current time.
type Clock func() time.Time

// dateLayout is the calendar date format used by timeline events.
const dateLayout = "2006-01-02"

// Today formats the clock's current UTC day as YYYY-MM-DD.
func (c Clock) Today() string {
	return c().UTC().Format(dateLayout)
}
