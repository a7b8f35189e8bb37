package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/casebuddy/internal/config"
	"github.com/and161185/casebuddy/internal/query"
)

type harness struct {
	t   *testing.T
	a   *app
	dir string
	be  string
}

func newHarness(t *testing.T, backend, dir string) *harness {
	t.Helper()
	h := &harness{t: t, a: &app{in: strings.NewReader("")}, dir: dir, be: backend}
	t.Cleanup(h.a.close)
	return h
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	root := newRootCmd(h.a)
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	base := []string{
		"--backend", h.be,
		"--data-dir", h.dir,
		"--config", filepath.Join(h.dir, "config.toml"),
		"--log-level", "error",
	}
	root.SetArgs(append(base, args...))
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func (h *harness) must(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "casebuddy %s\n%s", strings.Join(args, " "), out)
	return out
}

func TestCLI_RequiresLogin(t *testing.T) {
	h := newHarness(t, "memory", t.TempDir())

	out := h.must("whoami")
	require.Contains(t, out, "Not logged in.")

	_, err := h.run("case", "new", "Smith v. Jones")
	require.ErrorIs(t, err, errNotLoggedIn)
}

func TestCLI_CaseWorkflow(t *testing.T) {
	h := newHarness(t, "memory", t.TempDir())
	h.must("signup", "alice", "--password", "s3cret")
	require.Equal(t, "alice\n", h.must("whoami"))

	h.must("case", "new", "Smith", "v.", "Jones", "-d", "Contract dispute")
	h.must("doc", "add", "Contract.pdf")
	h.must("doc", "add", "Letter.pdf")
	h.must("evidence", "add", "Email thread", "--tag", "email,exhibit")
	h.must("timeline", "add", "Complaint filed", "--date", "2024-01-15")
	h.must("timeline", "add", "Contract signed", "--date", "2023-06-01", "-d", "Original agreement")
	h.must("foia", "add", "City records", "-d", "Permits")
	h.must("witness", "add", "Jane Roe", "-d", "Neighbor")

	want := "Case Title: Smith v. Jones.\n" +
		"Description: Contract dispute.\n" +
		"Documents: Contract.pdf, Letter.pdf.\n" +
		"Evidence: Email thread.\n" +
		"Timeline: 2023-06-01: Contract signed (Original agreement); 2024-01-15: Complaint filed.\n" +
		"FOIA Requests: City records (Permits).\n" +
		"Witnesses: Jane Roe (Neighbor).\n"
	require.Equal(t, want, h.must("summary"))

	_, err := h.run("timeline", "add", "Bad", "--date", "15/01/2024")
	require.Error(t, err)
	_, err = h.run("doc", "add", "   ")
	require.Error(t, err)

	out := h.must("case", "show")
	require.Contains(t, out, "Smith v. Jones")
	require.Contains(t, out, "email, exhibit")
	require.Less(t, strings.Index(out, "2023-06-01"), strings.Index(out, "2024-01-15"))
}

func TestCLI_SearchJSON(t *testing.T) {
	h := newHarness(t, "memory", t.TempDir())
	h.must("signup", "alice", "-p", "pw")
	h.must("case", "new", "Insurance claim")
	h.must("doc", "add", "Insurance policy")
	h.must("case", "new", "Unrelated")

	out := h.must("search", "INSURANCE", "--json")
	var hits []query.Hit
	require.NoError(t, json.Unmarshal([]byte(out), &hits))
	require.Len(t, hits, 2)
	require.Equal(t, query.KindCase, hits[0].Kind)
	require.Equal(t, query.KindDocument, hits[1].Kind)
	require.Equal(t, hits[0].CaseID, hits[1].CaseID)

	require.Contains(t, h.must("search", "nothing-matches"), "No results found.")
}

func TestCLI_AttachAndExport(t *testing.T) {
	dir := t.TempDir()
	h := newHarness(t, "memory", dir)
	h.must("signup", "alice", "-p", "pw")
	h.must("case", "new", "Files")

	src := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(src, []byte("meeting notes"), 0o600))
	h.must("doc", "add", "--file", src)

	c := h.a.cases.Current()
	require.Len(t, c.Documents, 1)
	require.Equal(t, "notes.txt", c.Documents[0].Name)

	dst := filepath.Join(dir, "out.txt")
	out := h.must("export", c.Documents[0].ID[:12], "-o", dst)
	require.Contains(t, out, "text/plain")
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "meeting notes", string(got))

	require.Equal(t, "meeting notes", h.must("export", c.Documents[0].ID))

	h.must("doc", "add", "Paper only")
	_, err = h.run("export", h.a.cases.Current().Documents[1].ID)
	require.ErrorContains(t, err, "no attached file")
}

func TestCLI_EditTagAndRemove(t *testing.T) {
	h := newHarness(t, "memory", t.TempDir())
	h.must("signup", "alice", "-p", "pw")
	h.must("case", "new", "Older")
	h.must("case", "new", "Newer")

	h.must("case", "edit", "--title", "Renamed")
	require.Equal(t, "Renamed", h.a.cases.Current().Title)
	_, err := h.run("case", "edit", "--title", " ")
	require.Error(t, err)

	h.must("evidence", "add", "Photo")
	ev := h.a.cases.Current().Evidence[0]
	h.must("tag", "add", ev.ID, "exhibit")
	_, err = h.run("tag", "add", ev.ID, "exhibit")
	require.Error(t, err)
	h.must("tag", "rm", ev.ID, "exhibit")
	require.Empty(t, h.a.cases.Current().Evidence[0].Tags)

	h.must("rm", "evidence", ev.ID)
	require.Empty(t, h.a.cases.Current().Evidence)
	_, err = h.run("rm", "subpoena", "x")
	require.ErrorContains(t, err, "unknown entry kind")

	cur := h.a.cases.Current()
	h.must("case", "rm", cur.ID)
	require.Equal(t, "Older", h.a.cases.Current().Title)

	out := h.must("case", "list")
	require.Contains(t, out, "Older")
	require.NotContains(t, out, "Renamed")
}

func TestCLI_LoginLogoutIsolation(t *testing.T) {
	h := newHarness(t, "memory", t.TempDir())
	h.must("signup", "alice", "-p", "pw-a")
	h.must("case", "new", "Alice case")
	h.must("signup", "bob", "-p", "pw-b")
	require.Contains(t, h.must("case", "list"), "No cases yet.")

	h.must("logout")
	_, err := h.run("case", "list")
	require.ErrorIs(t, err, errNotLoggedIn)

	_, err = h.run("login", "alice", "-p", "wrong")
	require.ErrorContains(t, err, "invalid username or password")

	out := h.must("login", "alice", "-p", "pw-a")
	require.Contains(t, out, "(1 cases)")
	require.Contains(t, h.must("case", "list"), "Alice case")

	_, err = h.run("signup", "alice", "-p", "again")
	require.ErrorContains(t, err, "taken")
}

func TestCLI_FileBackendSurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	first := newHarness(t, "file", dir)
	first.must("signup", "alice", "-p", "pw")
	first.must("case", "new", "Durable")
	first.must("witness", "add", "John Doe")
	first.a.close()

	second := newHarness(t, "file", dir)
	require.Equal(t, "alice\n", second.must("whoami"))
	c := second.a.cases.Current()
	require.NotNil(t, c)
	require.Equal(t, "Durable", c.Title)
	require.Len(t, c.Witnesses, 1)
}

func TestCLI_SQLiteBackendSurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	first := newHarness(t, "sqlite", dir)
	first.must("signup", "alice", "-p", "pw")
	first.must("case", "new", "In SQLite")
	first.a.close()

	second := newHarness(t, "sqlite", dir)
	require.Contains(t, second.must("case", "list"), "In SQLite")
}

func TestCLI_LoginThrottleHoldsAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"),
		[]byte("[auth]\nmax_failures = 2\nwindow = \"5m\"\nblock_for = \"1h\"\n"), 0o600))

	setup := newHarness(t, "file", dir)
	setup.must("signup", "alice", "-p", "right")
	setup.must("logout")
	setup.a.close()

	// every attempt is a separate process over the same data directory
	for i, want := range []string{"invalid username or password", "too many failed attempts"} {
		h := newHarness(t, "file", dir)
		_, err := h.run("login", "alice", "-p", "wrong")
		require.ErrorContains(t, err, want, "attempt %d", i)
		h.a.close()
	}

	h := newHarness(t, "file", dir)
	_, err := h.run("login", "alice", "-p", "right")
	require.ErrorContains(t, err, "too many failed attempts")
}

func TestCLI_CaseUseNeedsShell(t *testing.T) {
	h := newHarness(t, "memory", t.TempDir())
	h.must("signup", "alice", "-p", "pw")
	h.must("case", "new", "Older")
	older := h.a.cases.Current().ID
	h.must("case", "new", "Newer")

	_, err := h.run("case", "use", older)
	require.ErrorIs(t, err, errUseNeedShell)
	require.Equal(t, "Newer", h.a.cases.Current().Title)

	h.a.inShell = true
	h.must("case", "use", older)
	require.Equal(t, "Older", h.a.cases.Current().Title)
}

func TestCLI_SummaryForCaseKeepsSelection(t *testing.T) {
	h := newHarness(t, "memory", t.TempDir())
	h.must("signup", "alice", "-p", "pw")
	h.must("case", "new", "Older")
	older := h.a.cases.Current().ID
	h.must("case", "new", "Newer")

	require.Equal(t, "Case Title: Older.\n", h.must("summary", "--case", older))
	require.Equal(t, "Newer", h.a.cases.Current().Title)
	require.Equal(t, "Case Title: Newer.\n", h.must("summary"))
}

func TestCLI_EmptyTagIsRejected(t *testing.T) {
	h := newHarness(t, "memory", t.TempDir())
	h.must("signup", "alice", "-p", "pw")
	h.must("case", "new", "Case")
	h.must("evidence", "add", "Photo")
	ev := h.a.cases.Current().Evidence[0]

	for _, sub := range []string{"add", "rm"} {
		_, err := h.run("tag", sub, ev.ID, "  ")
		require.EqualError(t, err, "tag must not be empty", sub)
	}
}

func TestCLI_EditEntriesAndTasks(t *testing.T) {
	h := newHarness(t, "memory", t.TempDir())
	h.must("signup", "alice", "-p", "pw")
	h.must("case", "new", "Case")
	h.must("doc", "add", "Brief")
	h.must("evidence", "add", "Photo", "--tag", "scene")
	h.must("timeline", "add", "Filed", "--date", "2024-01-15", "-d", "court")
	h.must("foia", "add", "Police report", "-d", "county")
	h.must("witness", "add", "Jane", "-d", "neighbor")
	c := h.a.cases.Current()

	h.must("doc", "edit", c.Documents[0].ID, "Amended", "brief")
	h.must("evidence", "edit", c.Evidence[0].ID, "Photo 1")
	h.must("timeline", "edit", c.Timeline[0].ID, "--date", "2024-02-01")
	h.must("foia", "edit", c.Foia[0].ID, "-d", "state")
	h.must("witness", "edit", c.Witnesses[0].ID, "Jane", "Roe")
	require.Contains(t, h.must("witness", "edit", c.Witnesses[0].ID), "Nothing to change.")
	_, err := h.run("timeline", "edit", c.Timeline[0].ID, "--date", "soon")
	require.ErrorContains(t, err, "invalid date")
	_, err = h.run("foia", "edit", "missing")
	require.ErrorContains(t, err, "not found")

	got := h.a.cases.Current()
	require.Equal(t, "Amended brief", got.Documents[0].Name)
	require.Equal(t, "Photo 1", got.Evidence[0].Name)
	require.Equal(t, []string{"scene"}, got.Evidence[0].Tags)
	require.Equal(t, "2024-02-01", got.Timeline[0].Date)
	require.Equal(t, "Filed", got.Timeline[0].Title)
	require.Equal(t, "court", got.Timeline[0].Description)
	require.Equal(t, "Police report", got.Foia[0].Subject)
	require.Equal(t, "state", got.Foia[0].Description)
	require.Equal(t, "Jane Roe", got.Witnesses[0].Name)
	require.Equal(t, "neighbor", got.Witnesses[0].Description)

	h.must("task", "add", "Call", "clerk")
	task := h.a.cases.Current().Tasks[0]
	require.Equal(t, "Call clerk", task.Title)
	h.must("task", "edit", task.ID, "-d", "about the hearing")
	h.must("task", "status", task.ID, "in_progress")
	_, err = h.run("task", "status", task.ID, "someday")
	require.ErrorContains(t, err, "unknown status")

	out := h.must("case", "show")
	require.Contains(t, out, "Tasks:")
	require.Contains(t, out, "[in_progress]")
	require.Contains(t, out, "about the hearing")

	h.must("rm", "task", task.ID)
	require.Empty(t, h.a.cases.Current().Tasks)
}

func TestCLI_ConfigInit(t *testing.T) {
	dir := t.TempDir()
	h := newHarness(t, "file", dir)
	path := filepath.Join(dir, "config.toml")

	require.Contains(t, h.must("config", "init"), path)
	cfg, err := config.Load(path, dir)
	require.NoError(t, err)
	require.Equal(t, config.BackendFile, cfg.Storage.Backend)
	require.Equal(t, "error", cfg.Log.Level)
	require.Equal(t, 5, cfg.Auth.MaxFailures)
	require.Nil(t, h.a.medium, "config commands must not open storage")

	_, err = h.run("config", "init")
	require.ErrorContains(t, err, "already exists")
	h.must("config", "init", "--force")

	require.Equal(t, path+"\n", h.must("config", "path"))
}

func TestHasSecret(t *testing.T) {
	t.Parallel()
	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"login", "alice", "-p", "pw"}, true},
		{[]string{"login", "alice", "-ppw"}, true},
		{[]string{"signup", "bob", "--password", "pw"}, true},
		{[]string{"signup", "bob", "--password=pw"}, true},
		{[]string{"login", "alice"}, false},
		{[]string{"case", "new", "Smith", "-d", "pending"}, false},
		{[]string{"doc", "add", "--", "-p notes"}, false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, hasSecret(tt.args), strings.Join(tt.args, " "))
	}
}

func TestWritePrivate(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "sub", "history")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("old old old"), 0o644))

	require.NoError(t, writePrivate(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "case list\n")
		return err
	}))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "case list\n", string(got))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestReadPassword_FromPipe(t *testing.T) {
	h := newHarness(t, "memory", t.TempDir())
	h.a.in = strings.NewReader("piped-secret\n")
	h.must("signup", "alice")

	h.must("logout")
	h.a.in = strings.NewReader("piped-secret\r\n")
	h.must("login", "alice")

	h.a.in = strings.NewReader("")
	_, err := h.run("login", "alice")
	require.ErrorContains(t, err, "no password")
}

func TestSplitArgs(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want []string
		err  bool
	}{
		{in: "case list", want: []string{"case", "list"}},
		{in: `case new "Smith v. Jones" -d 'a b'`, want: []string{"case", "new", "Smith v. Jones", "-d", "a b"}},
		{in: `doc add O\'Brien\ memo`, want: []string{"doc", "add", "O'Brien memo"}},
		{in: `search ""`, want: []string{"search", ""}},
		{in: "  spaced \t out  ", want: []string{"spaced", "out"}},
		{in: `say "unterminated`, err: true},
		{in: `trailing \`, err: true},
	}
	for _, tt := range tests {
		got, err := splitArgs(tt.in)
		if tt.err {
			require.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, got, tt.in)
	}
}

func TestMatchID(t *testing.T) {
	t.Parallel()
	ids := []string{"0190abc", "0190abd", "0191fff"}
	at := func(i int) string { return ids[i] }

	i, err := matchID(len(ids), at, "0191")
	require.NoError(t, err)
	require.Equal(t, 2, i)

	i, err = matchID(len(ids), at, "0190abd")
	require.NoError(t, err)
	require.Equal(t, 1, i)

	_, err = matchID(len(ids), at, "0190")
	require.ErrorContains(t, err, "ambiguous")

	_, err = matchID(len(ids), at, "ffff")
	require.ErrorContains(t, err, "not found")
}

func TestCompleter(t *testing.T) {
	t.Parallel()
	a := &app{}
	require.ElementsMatch(t, []string{"case"}, a.completer("ca"))
	require.Contains(t, a.completer("e"), "evidence")
	require.Contains(t, a.completer("e"), "exit")
	require.Nil(t, a.completer("case "))
}
