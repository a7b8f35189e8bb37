package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/and161185/casebuddy/internal/model"
	"github.com/and161185/casebuddy/internal/records"
	"github.com/and161185/casebuddy/internal/service"
)

func newDocCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "doc",
		Aliases: []string{"document"},
		Short:   "Manage case documents",
	}
	var caseRef, file string
	add := &cobra.Command{
		Use:   "add [name]",
		Short: "Add a document, optionally attaching a file",
		Long:  `Add a document to a case. With --file the name defaults to the file's base name.`,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.resolveCase(caseRef)
			if err != nil {
				return err
			}
			name := strings.Join(args, " ")
			ok := false
			if file != "" {
				if ok, err = a.cases.AppendDocumentFile(cmd.Context(), c.ID, name, file); err != nil {
					return err
				}
			} else {
				ok = a.cases.AppendDocument(cmd.Context(), c.ID, name, "")
			}
			if !ok {
				return errors.New("document name must not be empty")
			}
			cmd.Printf("Added document to %q.\n", c.Title)
			return nil
		},
	}
	add.Flags().StringVarP(&caseRef, "case", "c", "", "case id (default: selected case)")
	add.Flags().StringVarP(&file, "file", "f", "", "file to attach")
	cmd.AddCommand(add, newEditCmd(a, service.EntityDocument, "name", documentEntries, renameFn((*service.CaseService).UpdateDocument), false))
	return cmd
}

func newEvidenceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evidence",
		Short: "Manage case evidence",
	}
	var (
		caseRef, file string
		tags          []string
	)
	add := &cobra.Command{
		Use:   "add [name]",
		Short: "Add an evidence item",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.resolveCase(caseRef)
			if err != nil {
				return err
			}
			name := strings.Join(args, " ")
			ok := false
			if file != "" {
				if ok, err = a.cases.AppendEvidenceFile(cmd.Context(), c.ID, name, file, tags); err != nil {
					return err
				}
			} else {
				ok = a.cases.AppendEvidence(cmd.Context(), c.ID, name, "", tags)
			}
			if !ok {
				return errors.New("evidence name must not be empty")
			}
			cmd.Printf("Added evidence to %q.\n", c.Title)
			return nil
		},
	}
	add.Flags().StringVarP(&caseRef, "case", "c", "", "case id (default: selected case)")
	add.Flags().StringVarP(&file, "file", "f", "", "file to attach")
	add.Flags().StringSliceVarP(&tags, "tag", "t", nil, "tag, repeatable or comma separated")
	cmd.AddCommand(add, newEditCmd(a, service.EntityEvidence, "name", evidenceEntries, renameFn((*service.CaseService).UpdateEvidence), false))
	return cmd
}

func newTagCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Tag or untag evidence",
	}
	var caseRef string
	run := func(add bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			c, err := a.resolveCase(caseRef)
			if err != nil {
				return err
			}
			i, err := matchID(len(c.Evidence), func(i int) string { return c.Evidence[i].ID }, args[0])
			if err != nil {
				return fmt.Errorf("evidence %w", err)
			}
			ev := c.Evidence[i]
			if strings.TrimSpace(args[1]) == "" {
				return errors.New("tag must not be empty")
			}
			if add {
				if !a.cases.AddEvidenceTag(cmd.Context(), c.ID, ev.ID, args[1]) {
					return fmt.Errorf("%q already has tag %q", ev.Name, strings.TrimSpace(args[1]))
				}
				cmd.Printf("Tagged %q.\n", ev.Name)
				return nil
			}
			if !a.cases.RemoveEvidenceTag(cmd.Context(), c.ID, ev.ID, args[1]) {
				return fmt.Errorf("%q has no tag %q", ev.Name, strings.TrimSpace(args[1]))
			}
			cmd.Printf("Untagged %q.\n", ev.Name)
			return nil
		}
	}
	addCmd := &cobra.Command{
		Use:   "add [evidence-id] [tag]",
		Short: "Add a tag to an evidence item",
		Args:  cobra.ExactArgs(2),
		RunE:  run(true),
	}
	rmCmd := &cobra.Command{
		Use:   "rm [evidence-id] [tag]",
		Short: "Remove a tag from an evidence item",
		Args:  cobra.ExactArgs(2),
		RunE:  run(false),
	}
	for _, c := range []*cobra.Command{addCmd, rmCmd} {
		c.Flags().StringVarP(&caseRef, "case", "c", "", "case id (default: selected case)")
		cmd.AddCommand(c)
	}
	return cmd
}

func newTimelineCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Manage the case timeline",
	}
	var caseRef, date, description string
	add := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a dated event",
		Long:  `Add an event to the case timeline. The date is YYYY-MM-DD and defaults to today.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.resolveCase(caseRef)
			if err != nil {
				return err
			}
			if date != "" && !records.ValidDate(strings.TrimSpace(date)) {
				return fmt.Errorf("invalid date %q: want YYYY-MM-DD", date)
			}
			if !a.cases.AppendTimelineEvent(cmd.Context(), c.ID, date, strings.Join(args, " "), description) {
				return errors.New("event title must not be empty")
			}
			cmd.Printf("Added event to %q.\n", c.Title)
			return nil
		},
	}
	add.Flags().StringVarP(&caseRef, "case", "c", "", "case id (default: selected case)")
	add.Flags().StringVar(&date, "date", "", "event date, YYYY-MM-DD")
	add.Flags().StringVarP(&description, "description", "d", "", "event description")

	edit := &cobra.Command{
		Use:   "edit [event-id] [title]",
		Short: "Change an event's date, title or description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.resolveCase(caseRef)
			if err != nil {
				return err
			}
			i, err := matchID(len(c.Timeline), func(i int) string { return c.Timeline[i].ID }, args[0])
			if err != nil {
				return fmt.Errorf("timeline %w", err)
			}
			ev := c.Timeline[i]
			if date != "" && !records.ValidDate(strings.TrimSpace(date)) {
				return fmt.Errorf("invalid date %q: want YYYY-MM-DD", date)
			}
			title := ev.Title
			if len(args) > 1 {
				title = strings.Join(args[1:], " ")
			}
			desc := ev.Description
			if cmd.Flags().Changed("description") {
				desc = description
			}
			if strings.TrimSpace(title) == "" {
				return errors.New("event title must not be empty")
			}
			if !a.cases.UpdateTimelineEvent(cmd.Context(), c.ID, ev.ID, date, title, desc) {
				cmd.Println("Nothing to change.")
				return nil
			}
			cmd.Printf("Updated event %s.\n", ev.ID)
			return nil
		},
	}
	edit.Flags().StringVarP(&caseRef, "case", "c", "", "case id (default: selected case)")
	edit.Flags().StringVar(&date, "date", "", "new date, YYYY-MM-DD")
	edit.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.AddCommand(add, edit)
	return cmd
}

func newFoiaCmd(a *app) *cobra.Command {
	return newTextEntryCmd(a, service.EntityFoia, "Manage FOIA requests", "subject", foiaEntries,
		(*service.CaseService).AppendFoiaRequest, (*service.CaseService).UpdateFoiaRequest)
}

func newWitnessCmd(a *app) *cobra.Command {
	return newTextEntryCmd(a, service.EntityWitness, "Manage witnesses", "name", witnessEntries,
		(*service.CaseService).AppendWitness, (*service.CaseService).UpdateWitness)
}

func newTaskCmd(a *app) *cobra.Command {
	cmd := newTextEntryCmd(a, service.EntityTask, "Manage case tasks", "title", taskEntries,
		(*service.CaseService).AppendTask, (*service.CaseService).UpdateTask)

	var caseRef string
	statuses := make([]string, 0, len(model.TaskStatuses))
	for _, st := range model.TaskStatuses {
		statuses = append(statuses, string(st))
	}
	status := &cobra.Command{
		Use:       "status [task-id] [" + strings.Join(statuses, "|") + "]",
		Short:     "Move a task to another status",
		Args:      cobra.ExactArgs(2),
		ValidArgs: statuses,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.resolveCase(caseRef)
			if err != nil {
				return err
			}
			i, err := matchID(len(c.Tasks), func(i int) string { return c.Tasks[i].ID }, args[0])
			if err != nil {
				return fmt.Errorf("task %w", err)
			}
			st := model.TaskStatus(strings.ToLower(strings.TrimSpace(args[1])))
			if !st.Valid() {
				return fmt.Errorf("unknown status %q: want one of %s", args[1], strings.Join(statuses, ", "))
			}
			task := c.Tasks[i]
			if !a.cases.SetTaskStatus(cmd.Context(), c.ID, task.ID, st) {
				cmd.Printf("%q is already %s.\n", task.Title, st)
				return nil
			}
			cmd.Printf("%q is now %s.\n", task.Title, st)
			return nil
		},
	}
	status.Flags().StringVarP(&caseRef, "case", "c", "", "case id (default: selected case)")
	cmd.AddCommand(status)
	return cmd
}

// entry is the editable text of one sub-entity.
type entry struct {
	id, text, description string
}

type (
	appendTextFn func(*service.CaseService, context.Context, string, string, string) bool
	updateTextFn func(*service.CaseService, context.Context, string, string, string, string) bool
)

// renameFn adapts an update that only takes a name; the description is dropped.
func renameFn(fn func(*service.CaseService, context.Context, string, string, string) bool) updateTextFn {
	return func(s *service.CaseService, ctx context.Context, caseID, id, name, _ string) bool {
		return fn(s, ctx, caseID, id, name)
	}
}

// newTextEntryCmd builds "<use> add|edit" for entries that carry one required line of
// text and an optional description.
func newTextEntryCmd(a *app, use, short, argName string, list func(*model.Case) []entry,
	appendFn appendTextFn, updateFn updateTextFn,
) *cobra.Command {
	cmd := &cobra.Command{Use: use, Short: short}
	var caseRef, description string
	add := &cobra.Command{
		Use:   "add [" + argName + "]",
		Short: "Add a " + use + " entry",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.resolveCase(caseRef)
			if err != nil {
				return err
			}
			if !appendFn(a.cases, cmd.Context(), c.ID, strings.Join(args, " "), description) {
				return fmt.Errorf("%s %s must not be empty", use, argName)
			}
			cmd.Printf("Added %s to %q.\n", use, c.Title)
			return nil
		},
	}
	add.Flags().StringVarP(&caseRef, "case", "c", "", "case id (default: selected case)")
	add.Flags().StringVarP(&description, "description", "d", "", "description")
	cmd.AddCommand(add, newEditCmd(a, use, argName, list, updateFn, true))
	return cmd
}

// newEditCmd builds "edit <id> [text]". Text and description not given are kept.
func newEditCmd(a *app, kind, argName string, list func(*model.Case) []entry, updateFn updateTextFn, withDescription bool) *cobra.Command {
	var caseRef, description string
	cmd := &cobra.Command{
		Use:   "edit [" + kind + "-id] [" + argName + "]",
		Short: "Change a " + kind + " entry",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.resolveCase(caseRef)
			if err != nil {
				return err
			}
			entries := list(c)
			i, err := matchID(len(entries), func(i int) string { return entries[i].id }, args[0])
			if err != nil {
				return fmt.Errorf("%s %w", kind, err)
			}
			e := entries[i]
			text := e.text
			if len(args) > 1 {
				text = strings.Join(args[1:], " ")
			}
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("%s %s must not be empty", kind, argName)
			}
			desc := e.description
			if withDescription && cmd.Flags().Changed("description") {
				desc = description
			}
			if !updateFn(a.cases, cmd.Context(), c.ID, e.id, text, desc) {
				cmd.Println("Nothing to change.")
				return nil
			}
			cmd.Printf("Updated %s %s.\n", kind, e.id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&caseRef, "case", "c", "", "case id (default: selected case)")
	if withDescription {
		cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	}
	return cmd
}

func documentEntries(c *model.Case) []entry {
	out := make([]entry, 0, len(c.Documents))
	for _, d := range c.Documents {
		out = append(out, entry{id: d.ID, text: d.Name})
	}
	return out
}

func evidenceEntries(c *model.Case) []entry {
	out := make([]entry, 0, len(c.Evidence))
	for _, e := range c.Evidence {
		out = append(out, entry{id: e.ID, text: e.Name})
	}
	return out
}

func foiaEntries(c *model.Case) []entry {
	out := make([]entry, 0, len(c.Foia))
	for _, f := range c.Foia {
		out = append(out, entry{id: f.ID, text: f.Subject, description: f.Description})
	}
	return out
}

func witnessEntries(c *model.Case) []entry {
	out := make([]entry, 0, len(c.Witnesses))
	for _, w := range c.Witnesses {
		out = append(out, entry{id: w.ID, text: w.Name, description: w.Description})
	}
	return out
}

func taskEntries(c *model.Case) []entry {
	out := make([]entry, 0, len(c.Tasks))
	for _, t := range c.Tasks {
		out = append(out, entry{id: t.ID, text: t.Title, description: t.Description})
	}
	return out
}

func newRmCmd(a *app) *cobra.Command {
	var caseRef string
	cmd := &cobra.Command{
		Use:   "rm [document|evidence|timeline|foia|witness|task] [id]",
		Short: "Remove an entry from a case",
		Args:  cobra.ExactArgs(2),
		ValidArgs: []string{
			service.EntityDocument, service.EntityEvidence, service.EntityTimeline,
			service.EntityFoia, service.EntityWitness, service.EntityTask,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.resolveCase(caseRef)
			if err != nil {
				return err
			}
			kind := strings.ToLower(args[0])
			ids := entryIDs(c, kind)
			if ids == nil {
				return fmt.Errorf("unknown entry kind %q", args[0])
			}
			i, err := matchID(len(ids), func(i int) string { return ids[i] }, args[1])
			if err != nil {
				return fmt.Errorf("%s %w", kind, err)
			}
			if !a.cases.Remove(cmd.Context(), kind, c.ID, ids[i]) {
				return fmt.Errorf("%s %s was not removed", kind, ids[i])
			}
			cmd.Printf("Removed %s %s.\n", kind, ids[i])
			return nil
		},
	}
	cmd.Flags().StringVarP(&caseRef, "case", "c", "", "case id (default: selected case)")
	return cmd
}

// entryIDs lists the ids of one sub-collection; nil means the kind is unknown.
func entryIDs(c *model.Case, kind string) []string {
	ids := []string{}
	switch kind {
	case service.EntityDocument:
		for _, d := range c.Documents {
			ids = append(ids, d.ID)
		}
	case service.EntityEvidence:
		for _, e := range c.Evidence {
			ids = append(ids, e.ID)
		}
	case service.EntityTimeline:
		for _, e := range c.Timeline {
			ids = append(ids, e.ID)
		}
	case service.EntityFoia:
		for _, f := range c.Foia {
			ids = append(ids, f.ID)
		}
	case service.EntityWitness:
		for _, w := range c.Witnesses {
			ids = append(ids, w.ID)
		}
	case service.EntityTask:
		for _, t := range c.Tasks {
			ids = append(ids, t.ID)
		}
	default:
		return nil
	}
	return ids
}
