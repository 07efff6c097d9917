package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"catalog-sync/internal/config"
	"catalog-sync/internal/history"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newRunsCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List recorded runs, or show the discontinued products of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			if a.cfg.History.DSN == "" {
				return fmt.Errorf("run history is not configured (set history.dsn or %sHISTORY_DSN)", config.EnvPrefix)
			}

			store, err := history.Open(cmd.Context(), a.cfg.History.DSN)
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printRun(cmd.OutOrStdout(), run)
				return nil
			}

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of runs to list")
	return cmd
}

func printRuns(w io.Writer, runs []history.Run) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Run", "Started", "Duration", "Vendors", "Scraped", "New", "Updated", "Unchanged"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Second),
			strings.Join(r.Vendors, ", "),
			r.Scraped, r.New, r.Updated, r.Unchanged,
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func printRun(w io.Writer, run *history.Run) {
	printRuns(w, []history.Run{*run})
	if len(run.Discontinued) == 0 {
		fmt.Fprintln(w, "No discontinued products recorded.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Potentially Discontinued")
	t.AppendHeader(table.Row{"Vendor", "Name", "Key"})
	for _, d := range run.Discontinued {
		t.AppendRow(table.Row{d.Vendor, d.Name, d.Key})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
	if run.ReportPath != "" {
		fmt.Fprintf(w, "Report: %s\n", run.ReportPath)
	}
}
