package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog-sync/adapters"
	"catalog-sync/internal/types"
	"catalog-sync/utils"
)

// AllVendors selects every configured vendor
const AllVendors = "all"

// ErrUnknownVendor is returned when a requested vendor has no adapter
var ErrUnknownVendor = errors.New("unknown vendor")

// Extractor runs vendor adapters one after another and collects their results
type Extractor struct {
	config   *types.Config
	logger   types.Logger
	adapters map[string]*adapters.VendorAdapter
	order    []string
	closers  []func()
}

// NewExtractor creates an extractor for vendors backed by a polite HTTP
// client and a headless browser for vendors that render with JavaScript
func NewExtractor(config *types.Config, logger types.Logger, vendors []adapters.VendorConfig) *Extractor {
	httpClient := utils.NewHTTPClient(config, logger)
	browserClient := utils.NewBrowserClient(config, logger)

	e := NewExtractorWithSources(config, logger, vendors, httpClient, browserClient)
	e.closers = append(e.closers, httpClient.Close)
	return e
}

// NewExtractorWithSources creates an extractor that fetches pages through
// the given sources. browserSource may be nil.
func NewExtractorWithSources(config *types.Config, logger types.Logger, vendors []adapters.VendorConfig, httpSource, browserSource utils.PageSource) *Extractor {
	e := &Extractor{
		config:   config,
		logger:   logger,
		adapters: make(map[string]*adapters.VendorAdapter, len(vendors)),
	}

	base := adapters.NewBaseAdapter(config, logger, httpSource, browserSource)
	for _, v := range vendors {
		if err := v.Validate(); err != nil {
			logger.Warnf("Ignoring vendor: %v", err)
			continue
		}
		if _, dup := e.adapters[v.Key]; dup {
			logger.Warnf("Ignoring duplicate vendor key %s", v.Key)
			continue
		}
		e.adapters[v.Key] = adapters.NewVendorAdapter(v, base)
		e.order = append(e.order, v.Key)
	}
	return e
}

// Keys returns the configured vendor keys in run order
func (e *Extractor) Keys() []string {
	return append([]string(nil), e.order...)
}

// Resolve expands a --vendor selection into vendor keys. "all" (or an
// empty selection) selects every vendor; other names may be keys or aliases.
func (e *Extractor) Resolve(names []string) ([]string, error) {
	if len(names) == 0 {
		return e.Keys(), nil
	}

	aliases := make(map[string]string)
	for _, key := range e.order {
		v := e.adapters[key].Vendor()
		for slug := range adapters.Aliases([]adapters.VendorConfig{v}) {
			aliases[slug] = key
		}
	}

	var keys []string
	seen := make(map[string]bool)
	for _, name := range names {
		if strings.EqualFold(strings.TrimSpace(name), AllVendors) {
			return e.Keys(), nil
		}
		key, ok := aliases[types.Slugify(name)]
		if !ok {
			return nil, fmt.Errorf("%w %q (known vendors: %s)", ErrUnknownVendor, name, strings.Join(e.order, ", "))
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Run scrapes the given vendors sequentially. A vendor that fails
// contributes an empty result with its error recorded; only context
// cancellation stops the run early, returning what was collected so far.
func (e *Extractor) Run(ctx context.Context, keys []string) (*types.RunResult, error) {
	startTime := time.Now()
	e.logger.Infof("Starting catalog sync for %d vendors at %v", len(keys), startTime.Format("15:04:05.000"))

	result := &types.RunResult{}
	for i, key := range keys {
		e.logger.Infof("Vendor %d/%d: %s", i+1, len(keys), key)

		vendorResult, err := e.extractVendor(ctx, key)
		result.Vendors = append(result.Vendors, *vendorResult)
		if err != nil {
			e.logger.Warnf("Run interrupted during %s: %v", key, err)
			return result, err
		}
	}

	e.logger.Infof("Catalog sync completed in %v: %d products", time.Since(startTime).Round(time.Millisecond), len(result.AllProducts()))
	return result, nil
}

// extractVendor scrapes a single vendor. The returned error is non-nil only
// when ctx was cancelled.
func (e *Extractor) extractVendor(ctx context.Context, key string) (*types.VendorResult, error) {
	startTime := time.Now()
	result := &types.VendorResult{Key: key, Vendor: key}

	adapter, ok := e.adapters[key]
	if !ok {
		result.Error = fmt.Sprintf("no adapter found for vendor: %s", key)
		return result, nil
	}
	v := adapter.Vendor()
	result.Vendor = v.Vendor

	products, err := adapter.Scrape(ctx)
	result.Products = products
	result.Duration = time.Since(startTime)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	if len(products) == 0 {
		e.logger.Warnf("%s returned no products", v.Name())
	}
	return result, nil
}

// ProbeResult describes how the selector cascade behaves on one category page
type ProbeResult struct {
	Category adapters.Category
	URL      string
	Counts   map[string]int
	Strategy string
	Products int
	Sample   []string
	Err      error
}

// Probe fetches the first page of every category of a vendor and reports
// per-strategy match counts and a sample of extracted names
func (e *Extractor) Probe(ctx context.Context, key string, sampleSize int) ([]ProbeResult, error) {
	adapter, ok := e.adapters[key]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownVendor, key)
	}
	vendor := adapter.Vendor()

	var results []ProbeResult
	for _, category := range vendor.Categories {
		pr := ProbeResult{Category: category, URL: vendor.CategoryURL(category, 1)}

		doc, err := adapter.GetDocument(ctx, pr.URL, vendor.RenderJS)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			pr.Err = err
			results = append(results, pr)
			continue
		}

		pr.Counts = adapter.StrategyCounts(doc)
		pr.Strategy, _ = adapter.Cascade(doc)

		products := adapter.ExtractProducts(doc, category, make(map[string]bool))
		pr.Products = len(products)
		for i := 0; i < len(products) && i < sampleSize; i++ {
			pr.Sample = append(pr.Sample, products[i].Name)
		}
		results = append(results, pr)
	}
	return results, nil
}

// Close cleans up resources
func (e *Extractor) Close() {
	for _, c := range e.closers {
		c()
	}
}
