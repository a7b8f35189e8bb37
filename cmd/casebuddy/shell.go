package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session with history and tab completion",
		Long: `Start an interactive session. Every casebuddy command works without the
program name; the selected case stays selected between commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.inShell {
				return errors.New("already in the shell")
			}
			return a.runShell(cmd)
		},
	}
}

// historyFile returns the path to the shell history file.
func historyFile() string {
	dir := os.Getenv("CASEBUDDY_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".casebuddy")
	}
	return filepath.Join(dir, "history")
}

func (a *app) runShell(parent *cobra.Command) error {
	a.line = liner.NewLiner()
	a.inShell = true
	defer func() {
		a.saveHistory()
		a.line.Close()
		a.line, a.inShell = nil, false
	}()

	a.line.SetCtrlCAborts(true)
	a.line.SetCompleter(a.completer)
	if f, err := os.Open(historyFile()); err == nil {
		_, _ = a.line.ReadHistory(f)
		f.Close()
	}

	out := parent.OutOrStdout()
	fmt.Fprintf(out, "casebuddy %s. Type 'help' for commands, 'exit' to leave.\n", version)

	for {
		line, err := a.line.Prompt(a.prompt())
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(out, "\nBye!")
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		args, err := splitArgs(line)
		if err != nil {
			fmt.Fprintln(parent.ErrOrStderr(), "error:", err)
			continue
		}
		if !hasSecret(args) {
			a.line.AppendHistory(line)
		}
		switch args[0] {
		case "exit", "quit", "q":
			fmt.Fprintln(out, "Bye!")
			return nil
		case "clear", "cls":
			fmt.Fprint(out, "\033[H\033[2J")
			continue
		}

		if err := a.runLine(parent, args); err != nil {
			fmt.Fprintln(parent.ErrOrStderr(), "error:", err)
		}
	}
}

// runLine executes one shell line on a fresh command tree so flag values never leak
// between lines.
func (a *app) runLine(parent *cobra.Command, args []string) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(parent.InOrStdin())
	root.SetOut(parent.OutOrStdout())
	root.SetErr(parent.ErrOrStderr())
	return root.ExecuteContext(parent.Context())
}

func (a *app) prompt() string {
	if a.account == "" {
		return "casebuddy> "
	}
	if c := a.cases.Current(); c != nil {
		return fmt.Sprintf("%s [%s]> ", a.account, truncate(c.Title, 24))
	}
	return a.account + "> "
}

// saveHistory persists command history to disk, readable by the owner only.
func (a *app) saveHistory() {
	path := historyFile()
	if path == "" {
		return
	}
	if err := writePrivate(path, func(w io.Writer) error {
		_, err := a.line.WriteHistory(w)
		return err
	}); err != nil {
		a.logger().Warn("could not save shell history", zap.String("path", path), zap.Error(err))
	}
}

// writePrivate truncates path and fills it through write with 0600 permissions,
// tightening the mode of a file that already exists.
func writePrivate(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := f.Chmod(0o600); err != nil {
		f.Close()
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// hasSecret reports whether a line passes a password on the command line.
// Such lines are kept out of the history file.
func hasSecret(args []string) bool {
	for _, arg := range args {
		if arg == "--" {
			return false
		}
		if arg == "--password" || strings.HasPrefix(arg, "--password=") ||
			(strings.HasPrefix(arg, "-p") && !strings.HasPrefix(arg, "--")) {
			return true
		}
	}
	return false
}

// completer offers top-level command names for the first word.
func (a *app) completer(line string) []string {
	if strings.Contains(line, " ") {
		return nil
	}
	var out []string
	for _, c := range newRootCmd(a).Commands() {
		if c.Name() != "shell" && strings.HasPrefix(c.Name(), line) {
			out = append(out, c.Name())
		}
	}
	for _, w := range []string{"exit", "help"} {
		if strings.HasPrefix(w, line) {
			out = append(out, w)
		}
	}
	return out
}

// splitArgs splits a shell line into words. Single and double quotes group words
// and a backslash escapes the next character outside single quotes.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped, inWord = true, true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote, inWord = r, true
		case r == ' ' || r == '\t':
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if escaped {
		return nil, errors.New("trailing backslash")
	}
	if inWord {
		args = append(args, cur.String())
	}
	return args, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
