package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/and161185/casebuddy/internal/ingest"
	"github.com/and161185/casebuddy/internal/query"
)

func newSearchCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search all cases of the active account",
		Long: `Case-insensitive substring search over case titles, document and evidence names,
timeline events, FOIA requests and witnesses. Results come in collection order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAccount(); err != nil {
				return err
			}
			a.cases.SetSearchQuery(strings.Join(args, " "))
			hits := a.cases.Results()
			if asJSON {
				data, err := json.MarshalIndent(hits, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal results: %w", err)
				}
				cmd.Println(string(data))
				return nil
			}
			if len(hits) == 0 {
				cmd.Println("No results found.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, h := range hits {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", h.Kind, h.Label, h.CaseID)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output results as JSON")
	return cmd
}

func newSummaryCmd(a *app) *cobra.Command {
	var caseRef string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print a plain-text summary of a case",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireAccount(); err != nil {
				return err
			}
			if caseRef == "" {
				cmd.Print(a.cases.Summary())
				if a.cases.Current() == nil {
					cmd.Println()
				}
				return nil
			}
			// an explicit case is summarized without touching the selection
			c, err := a.resolveCase(caseRef)
			if err != nil {
				return err
			}
			cmd.Print(query.Summarize(c))
			return nil
		},
	}
	cmd.Flags().StringVarP(&caseRef, "case", "c", "", "case id (default: selected case)")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var caseRef, out string
	cmd := &cobra.Command{
		Use:   "export [document-or-evidence-id]",
		Short: "Write an attached file back out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.resolveCase(caseRef)
			if err != nil {
				return err
			}
			var ids, names, refs []string
			for _, d := range c.Documents {
				ids, names, refs = append(ids, d.ID), append(names, d.Name), append(refs, d.Content)
			}
			for _, e := range c.Evidence {
				ids, names, refs = append(ids, e.ID), append(names, e.Name), append(refs, e.Content)
			}
			i, err := matchID(len(ids), func(i int) string { return ids[i] }, args[0])
			if err != nil {
				return fmt.Errorf("attachment %w", err)
			}
			if refs[i] == "" {
				return fmt.Errorf("%q has no attached file", names[i])
			}
			mt, data, err := ingest.Decode(refs[i])
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o600); err != nil {
				return err
			}
			cmd.Printf("Wrote %d bytes (%s) to %s.\n", len(data), mt, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&caseRef, "case", "c", "", "case id (default: selected case)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default: stdout)")
	return cmd
}
