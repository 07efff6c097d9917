package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"catalog-sync/extractor"
	"catalog-sync/internal/history"
	"catalog-sync/inventory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const acmeListing = `<html><body>
<div class="grid">
  <div class="product-card"><a href="/colors/bianco-drift"><img src="/img/bianco.jpg"></a><h3 class="product-name">Bianco Drift</h3></div>
  <div class="product-card"><a href="/colors/nero-marquina"><img src="/img/nero.jpg"></a><h3 class="product-name">Nero Marquina</h3></div>
</div>
</body></html>`

type fixture struct {
	dir     string
	config  string
	output  string
	history string
}

func newFixture(t *testing.T, listing string) *fixture {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, listing)
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	f := &fixture{
		dir:     dir,
		config:  filepath.Join(dir, "catalog-sync.json5"),
		output:  filepath.Join(dir, "out"),
		history: filepath.Join(dir, "history.db"),
	}

	dataDir := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0755))
	snapshot := fmt.Sprintf(`[
  {"vendor": "Acme Stone", "title": "Bianco Drift", "image": %q, "url": %q},
  {"vendor": "acme", "title": "Old Color"},
  {"vendor": "Daltile", "title": "Arctic White"}
]`, srv.URL+"/img/bianco.jpg", srv.URL+"/colors/bianco-drift")
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "countertops.json"), []byte(snapshot), 0644))

	cfg := fmt.Sprintf(`{
  data_dir: %q,
  output_dir: %q,
  fetch: { request_delay: "1.5s", max_retries: 1, retry_backoff: "0s", timeout: "5s" },
  history: { dsn: %q },
  vendors: [{
    key: "acme",
    vendor: "acme-stone",
    display_name: "Acme Stone",
    base_url: %q,
    categories: [{ path: "/quartz", material: "quartz" }],
    strategies: [{ name: "cards", selector: ".product-card" }],
    name_selectors: [".product-name"],
  }],
}`, dataDir, f.output, "sqlite://"+f.history, srv.URL)
	require.NoError(t, os.WriteFile(f.config, []byte(cfg), 0644))
	return f
}

func (f *fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", f.config}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func outputFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRun_WritesReportExportsAndHistory(t *testing.T) {
	f := newFixture(t, acmeListing)

	out, err := f.run(t, "--vendor", "acme")

	require.NoError(t, err)
	assert.Contains(t, out, "acme-stone")

	reports, _ := filepath.Glob(filepath.Join(f.output, "inventory_report_*.md"))
	require.Len(t, reports, 1)
	report, err := os.ReadFile(reports[0])
	require.NoError(t, err)
	assert.Contains(t, string(report), "## New Products (1)")
	assert.Contains(t, string(report), "Nero Marquina")
	assert.Contains(t, string(report), "## Potentially Discontinued (1)")
	assert.Contains(t, string(report), "Old Color")
	assert.NotContains(t, string(report), "Arctic White")

	scraped, _ := filepath.Glob(filepath.Join(f.output, "scraped_products_*.json"))
	require.Len(t, scraped, 1)
	export, err := inventory.LoadExport(scraped[0])
	require.NoError(t, err)
	assert.Equal(t, 2, export.Count)

	newProducts, _ := filepath.Glob(filepath.Join(f.output, "new_products_*.json"))
	require.Len(t, newProducts, 1)

	store, err := history.Open(context.Background(), "sqlite://"+f.history)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.RecentRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].Scraped)
	assert.Equal(t, []string{"acme-stone"}, runs[0].Vendors)
}

func TestRun_DryRunWritesReportOnly(t *testing.T) {
	f := newFixture(t, acmeListing)

	_, err := f.run(t, "--vendor", "acme", "--dry-run")

	require.NoError(t, err)
	files := outputFiles(t, f.output)
	require.Len(t, files, 1)
	assert.True(t, strings.HasPrefix(files[0], "inventory_report_"))
	_, err = os.Stat(f.history)
	assert.True(t, os.IsNotExist(err))
}

func TestRun_DryRunIsNotRecordedInHistory(t *testing.T) {
	f := newFixture(t, acmeListing)

	_, err := f.run(t, "--vendor", "acme")
	require.NoError(t, err)
	_, err = f.run(t, "--vendor", "acme", "--dry-run")
	require.NoError(t, err)

	store, err := history.Open(context.Background(), "sqlite://"+f.history)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.RecentRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRun_NoProducts(t *testing.T) {
	f := newFixture(t, `<html><body><p>Under maintenance</p></body></html>`)

	_, err := f.run(t, "--vendor", "acme")

	assert.ErrorIs(t, err, inventory.ErrNoProducts)
	_, statErr := os.Stat(f.output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_UnknownVendor(t *testing.T) {
	f := newFixture(t, acmeListing)

	_, err := f.run(t, "--vendor", "nonexistent")

	assert.ErrorIs(t, err, extractor.ErrUnknownVendor)
}

func TestRun_MissingConfigFile(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.json5"), "vendors"})

	assert.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestVendorsCommand(t *testing.T) {
	f := newFixture(t, acmeListing)

	out, err := f.run(t, "vendors")

	require.NoError(t, err)
	assert.Contains(t, out, "msi-surfaces")
	assert.Contains(t, out, "caesarstone")
	assert.Contains(t, out, "Acme Stone")
}

func TestProbeCommand(t *testing.T) {
	f := newFixture(t, acmeListing)

	out, err := f.run(t, "probe", "--vendor", "acme", "--sample", "1")

	require.NoError(t, err)
	assert.Contains(t, out, "=== Probing acme ===")
	assert.Contains(t, out, "cards")
	assert.Contains(t, out, "Products extracted: 2")
	assert.Contains(t, out, "1: Bianco Drift")
	assert.NotContains(t, out, "Nero Marquina")
	_, err = os.Stat(f.output)
	assert.True(t, os.IsNotExist(err))
}
