package main

import (
	"fmt"
	"io"
	"sort"

	"catalog-sync/extractor"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newProbeCmd(opts *options) *cobra.Command {
	var sample int

	cmd := &cobra.Command{
		Use:   "probe --vendor <name>",
		Short: "Show how each selector strategy matches a vendor's category pages",
		Long: `probe fetches the first page of every category of the given vendors and
prints how many elements each selector strategy matches, which strategy the
cascade picks and a sample of the extracted product names. Nothing is written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, opts)
			if err != nil {
				return err
			}

			ext := extractor.NewExtractor(a.fetch, a.logger, a.vendors)
			defer ext.Close()

			keys, err := ext.Resolve(opts.vendors)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, key := range keys {
				fmt.Fprintf(out, "=== Probing %s ===\n", key)
				results, err := ext.Probe(cmd.Context(), key, sample)
				printProbe(out, results)
				if err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&sample, "sample", 5, "Number of extracted names to show per category")
	return cmd
}

func printProbe(w io.Writer, results []extractor.ProbeResult) {
	for _, r := range results {
		fmt.Fprintf(w, "\n%s (%s)\n", r.URL, r.Category.Material)
		if r.Err != nil {
			fmt.Fprintf(w, "  Failed to fetch: %v\n", r.Err)
			continue
		}

		names := make([]string, 0, len(r.Counts))
		for name := range r.Counts {
			names = append(names, name)
		}
		sort.Strings(names)

		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.AppendHeader(table.Row{"Strategy", "Matches", "Used"})
		for _, name := range names {
			used := ""
			if name == r.Strategy {
				used = "*"
			}
			t.AppendRow(table.Row{name, r.Counts[name], used})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()

		fmt.Fprintf(w, "Products extracted: %d\n", r.Products)
		for i, name := range r.Sample {
			fmt.Fprintf(w, "  %d: %s\n", i+1, name)
		}
	}
}
