package records

import "github.com/and161185/casebuddy/internal/model"

// Session is the context every record store operation runs against:
// the active account partition and the currently viewed case.
// Selection is a weak reference and may point at a case that no longer exists.
type Session struct {
	Account   string
	Selection string
}

// LoggedIn reports whether an account is active.
func (s Session) LoggedIn() bool { return s.Account != "" }

// SelectCase sets the selection without checking that the case exists.
func SelectCase(sess Session, caseID string) Session {
	sess.Selection = caseID
	return sess
}

// Current resolves the selection against cases; a dangling selection resolves to nil.
func Current(cases model.Collection, sess Session) *model.Case {
	c, _ := cases.Find(sess.Selection)
	return c
}

// DefaultSelection returns the id a freshly loaded partition selects: its first case, or none.
func DefaultSelection(cases model.Collection) string {
	if len(cases) == 0 || cases[0] == nil {
		return ""
	}
	return cases[0].ID
}
