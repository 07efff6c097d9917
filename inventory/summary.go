package inventory

import (
	"io"
	"time"

	"catalog-sync/internal/types"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// PrintSummary renders the per-vendor results and the diff totals as
// console tables
func PrintSummary(w io.Writer, d *Diff, result *types.RunResult, reportPath string) {
	if result != nil && len(result.Vendors) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetTitle("Vendors")
		t.AppendHeader(table.Row{"Vendor", "Products", "Duration", "Error"})
		for _, v := range result.Vendors {
			t.AppendRow(table.Row{v.Vendor, len(v.Products), v.Duration.Round(time.Millisecond), v.Error})
		}
		t.AppendFooter(table.Row{"Total", len(result.AllProducts()), "", ""})
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight},
		})
		t.SetStyle(table.StyleRounded)
		t.Render()
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Inventory Scrape Summary")
	t.AppendRows([]table.Row{
		{"Total Scraped", d.TotalScraped},
		{"Existing Products", d.TotalExisting},
		{"New Products", len(d.New)},
		{"Updated Products", len(d.Updated)},
		{"Unchanged", d.Unchanged},
		{"Discontinued", len(d.Discontinued)},
	})
	if reportPath != "" {
		t.AppendSeparator()
		t.AppendRow(table.Row{"Report", reportPath})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
