package main

import (
	"io"
	"strings"

	"catalog-sync/adapters"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newVendorsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "vendors",
		Short: "List the configured vendors",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			printVendors(cmd.OutOrStdout(), a.vendors)
			return nil
		},
	}
}

func printVendors(w io.Writer, vendors []adapters.VendorConfig) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Key", "Vendor", "Name", "Categories", "JS", "Base URL", "Aliases"})
	for i := range vendors {
		v := &vendors[i]
		js := ""
		if v.RenderJS {
			js = "yes"
		}
		t.AppendRow(table.Row{v.Key, v.Vendor, v.Name(), len(v.Categories), js, v.BaseURL, strings.Join(v.Aliases, ", ")})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
