package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/and161185/casebuddy/internal/ingest"
	"github.com/and161185/casebuddy/internal/model"
	"github.com/and161185/casebuddy/internal/query"
	"github.com/and161185/casebuddy/internal/records"
)

var (
	errNoCase       = errors.New("no case selected: create one with 'case new' or pass --case")
	errUseNeedShell = errors.New("'case use' only lasts for a shell session: pass --case to single commands")
)

func newCaseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "case",
		Short: "Create, list and manage cases",
	}
	cmd.AddCommand(
		newCaseNewCmd(a),
		newCaseListCmd(a),
		newCaseShowCmd(a),
		newCaseUseCmd(a),
		newCaseEditCmd(a),
		newCaseRmCmd(a),
	)
	return cmd
}

func newCaseNewCmd(a *app) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "new [title]",
		Short: "Create a case and select it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAccount(); err != nil {
				return err
			}
			if !a.cases.CreateCase(cmd.Context(), strings.Join(args, " "), description) {
				return errors.New("case title must not be empty")
			}
			c := a.cases.Current()
			cmd.Printf("Created case %s %q.\n", c.ID, c.Title)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "case description")
	return cmd
}

func newCaseListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List cases, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireAccount(); err != nil {
				return err
			}
			cases, sess := a.cases.Snapshot()
			if len(cases) == 0 {
				cmd.Println("No cases yet.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, c := range cases {
				mark := " "
				if c.ID == sess.Selection {
					mark = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d docs, %d evidence, %d events\n",
					mark, c.ID, c.Title, len(c.Documents), len(c.Evidence), len(c.Timeline))
			}
			return tw.Flush()
		},
	}
}

func newCaseShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [case-id]",
		Short: "Show everything recorded for a case",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.resolveCase(firstArg(args))
			if err != nil {
				return err
			}
			return printCase(cmd.OutOrStdout(), c)
		},
	}
}

func newCaseUseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "use [case-id]",
		Short: "Select the case later shell commands work on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.inShell {
				return errUseNeedShell
			}
			c, err := a.resolveCase(args[0])
			if err != nil {
				return err
			}
			a.cases.Select(c.ID)
			cmd.Printf("Selected %q.\n", c.Title)
			return nil
		},
	}
}

func newCaseEditCmd(a *app) *cobra.Command {
	var title, description string
	cmd := &cobra.Command{
		Use:   "edit [case-id]",
		Short: "Change a case's title or description",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.resolveCase(firstArg(args))
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("title") {
				title = c.Title
			}
			if !cmd.Flags().Changed("description") {
				description = c.Description
			}
			if !a.cases.UpdateCase(cmd.Context(), c.ID, title, description) {
				return errors.New("case title must not be empty")
			}
			cmd.Println("Case updated.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	return cmd
}

func newCaseRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm [case-id]",
		Short: "Delete a case and everything in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.resolveCase(args[0])
			if err != nil {
				return err
			}
			if !a.cases.DeleteCase(cmd.Context(), c.ID) {
				return fmt.Errorf("case %s was not deleted", c.ID)
			}
			cmd.Printf("Deleted case %q.\n", c.Title)
			return nil
		},
	}
}

// resolveCase finds a case by full id or unique id prefix; an empty ref means the selection.
func (a *app) resolveCase(ref string) (*model.Case, error) {
	if err := a.requireAccount(); err != nil {
		return nil, err
	}
	cases, sess := a.cases.Snapshot()
	if ref == "" {
		if c := records.Current(cases, sess); c != nil {
			return c, nil
		}
		return nil, errNoCase
	}
	i, err := matchID(len(cases), func(i int) string { return cases[i].ID }, ref)
	if err != nil {
		return nil, fmt.Errorf("case %w", err)
	}
	return cases[i], nil
}

// matchID returns the index whose id equals ref, or the only one that starts with it.
func matchID(n int, idAt func(int) string, ref string) (int, error) {
	found := -1
	for i := 0; i < n; i++ {
		id := idAt(i)
		if id == ref {
			return i, nil
		}
		if strings.HasPrefix(id, ref) {
			if found >= 0 {
				return -1, fmt.Errorf("%q is ambiguous", ref)
			}
			found = i
		}
	}
	if found < 0 {
		return -1, fmt.Errorf("%q not found", ref)
	}
	return found, nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func printCase(w io.Writer, c *model.Case) error {
	fmt.Fprintf(w, "%s  (%s)\n", c.Title, c.ID)
	if c.Description != "" {
		fmt.Fprintln(w, c.Description)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	section := func(name string, n int) {
		if n > 0 {
			fmt.Fprintf(tw, "\n%s:\n", name)
		}
	}

	section("Documents", len(c.Documents))
	for _, d := range c.Documents {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", d.ID, d.Name, ingest.MediaType(d.Content))
	}
	section("Evidence", len(c.Evidence))
	for _, e := range c.Evidence {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", e.ID, e.Name, strings.Join(e.Tags, ", "))
	}
	section("Timeline", len(c.Timeline))
	for _, ev := range query.SortedTimeline(c.Timeline) {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", ev.ID, ev.Date, ev.Title, ev.Description)
	}
	section("FOIA Requests", len(c.Foia))
	for _, f := range c.Foia {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", f.ID, f.Subject, f.Description)
	}
	section("Witnesses", len(c.Witnesses))
	for _, wt := range c.Witnesses {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", wt.ID, wt.Name, wt.Description)
	}
	section("Tasks", len(c.Tasks))
	for _, t := range c.Tasks {
		fmt.Fprintf(tw, "  %s\t[%s]\t%s\t%s\n", t.ID, t.Status, t.Title, t.Description)
	}
	return tw.Flush()
}
