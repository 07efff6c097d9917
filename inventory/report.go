package inventory

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"
)

// Row limits per report section
const (
	MaxNewRows          = 100
	MaxUpdatedRows      = 50
	MaxDiscontinuedRows = 50
)

// ReportPrefix is the file name prefix of the Markdown report
const ReportPrefix = "inventory_report"

// ReportOptions carries run metadata shown in the report
type ReportOptions struct {
	RunID       string
	GeneratedAt time.Time
	Renames     []Rename
}

// WriteReport renders the diff as Markdown into a fresh timestamped file in
// dir and returns its path
func WriteReport(d *Diff, dir string, opts ReportOptions) (string, error) {
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}

	var buf bytes.Buffer
	if err := RenderReport(&buf, d, opts); err != nil {
		return "", err
	}

	return writeUnique(dir, ReportPrefix+"_"+opts.GeneratedAt.Format(TimestampFormat), ".md", buf.Bytes())
}

// RenderReport writes the Markdown report for d to w
func RenderReport(w io.Writer, d *Diff, opts ReportOptions) error {
	r := &reportWriter{w: w}

	r.printf("# Inventory Scrape Report\n\n")
	r.printf("**Generated:** %s\n\n", opts.GeneratedAt.Format("2006-01-02 15:04:05"))
	if opts.RunID != "" {
		r.printf("**Run ID:** %s\n\n", opts.RunID)
	}
	r.printf("**Total Scraped:** %d\n", d.TotalScraped)
	r.printf("**Existing Products:** %d\n", d.TotalExisting)
	if len(d.Vendors) > 0 {
		r.printf("**Vendors:** %s\n", strings.Join(d.Vendors, ", "))
	}
	if d.Collisions > 0 {
		r.printf("**Snapshot Key Collisions:** %d\n", d.Collisions)
	}
	r.printf("\n")

	r.printf("## New Products (%d)\n\n", len(d.New))
	if len(d.New) == 0 {
		r.printf("No new products found.\n")
	} else {
		r.printf("| Vendor | Name | Material | Color |\n")
		r.printf("|--------|------|----------|-------|\n")
		for _, p := range head(len(d.New), MaxNewRows) {
			n := d.New[p]
			r.row(n.Vendor, n.Name, n.MaterialType, n.ColorFamily)
		}
		r.more(len(d.New), MaxNewRows)
	}

	r.printf("\n## Updated Products (%d)\n\n", len(d.Updated))
	if len(d.Updated) == 0 {
		r.printf("No product updates detected.\n")
	} else {
		r.printf("| Vendor | Name | Material |\n")
		r.printf("|--------|------|----------|\n")
		for _, i := range head(len(d.Updated), MaxUpdatedRows) {
			p := d.Updated[i].Product
			r.row(p.Vendor, p.Name, p.MaterialType)
		}
		r.more(len(d.Updated), MaxUpdatedRows)
	}

	r.printf("\n## Potentially Discontinued (%d)\n\n", len(d.Discontinued))
	if len(d.Discontinued) == 0 {
		r.printf("No discontinued products detected.\n")
	} else {
		r.printf("These products were not found in the latest scrape:\n\n")
		r.printf("| Vendor | Name |\n")
		r.printf("|--------|------|\n")
		for _, i := range head(len(d.Discontinued), MaxDiscontinuedRows) {
			rec := d.Discontinued[i]
			r.row(displayVendor(rec), rec.Name)
		}
		r.more(len(d.Discontinued), MaxDiscontinuedRows)
	}

	if len(opts.Renames) > 0 {
		r.printf("\n## Possible Renames (%d)\n\n", len(opts.Renames))
		r.printf("| Vendor | Discontinued | New Name | Similarity |\n")
		r.printf("|--------|--------------|----------|------------|\n")
		for _, rn := range opts.Renames {
			r.row(rn.Discontinued.Vendor, rn.Discontinued.Name, rn.Candidate.Name, fmt.Sprintf("%.2f", rn.Similarity))
		}
	}

	return r.err
}

type reportWriter struct {
	w   io.Writer
	err error
}

func (r *reportWriter) printf(format string, args ...any) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, format, args...)
}

func (r *reportWriter) row(cells ...string) {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = escapeCell(c)
	}
	r.printf("| %s |\n", strings.Join(escaped, " | "))
}

func (r *reportWriter) more(total, limit int) {
	if total > limit {
		r.printf("\n*...and %d more*\n", total-limit)
	}
}

// head returns the indexes of the first min(n, limit) items
func head(n, limit int) []int {
	if n > limit {
		n = limit
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

// displayVendor shows the vendor as spelled in the snapshot
func displayVendor(rec Record) string {
	if v := firstString(rec.Raw, "brand", "vendor"); v != "" {
		return v
	}
	return rec.Vendor
}
