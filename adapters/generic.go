package adapters

import (
	"context"
	"fmt"
	"time"

	"catalog-sync/classifier"
	"catalog-sync/internal/types"
	"catalog-sync/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// VendorAdapter scrapes one vendor site as described by its VendorConfig
type VendorAdapter struct {
	*BaseAdapter
	vendor VendorConfig
	logger types.Logger
}

// NewVendorAdapter creates an adapter for vendor on top of base
func NewVendorAdapter(vendor VendorConfig, base *BaseAdapter) *VendorAdapter {
	return &VendorAdapter{
		BaseAdapter: base,
		vendor:      vendor,
		logger:      base.logger.WithField("vendor", vendor.Key),
	}
}

// Vendor returns the config driving this adapter
func (a *VendorAdapter) Vendor() VendorConfig {
	return a.vendor
}

// Scrape walks every category of the vendor and returns the accepted
// products. Pages that cannot be fetched contribute nothing; the error is
// only returned when ctx is cancelled.
func (a *VendorAdapter) Scrape(ctx context.Context) ([]types.Product, error) {
	startTime := time.Now()
	a.logger.Infof("Starting %s scrape (%d categories)", a.vendor.Name(), len(a.vendor.Categories))

	seen := make(map[string]bool)
	var products []types.Product

	for _, category := range a.vendor.Categories {
		if err := ctx.Err(); err != nil {
			return products, err
		}

		found, err := a.scrapeCategory(ctx, category, seen)
		products = append(products, found...)
		if err != nil {
			return products, err
		}
	}

	a.logger.Infof("%s scrape completed in %v: %d products", a.vendor.Name(), time.Since(startTime).Round(time.Millisecond), len(products))
	return products, nil
}

func (a *VendorAdapter) scrapeCategory(ctx context.Context, category Category, seen map[string]bool) ([]types.Product, error) {
	log := a.logger.WithField("category", category.Path)

	maxPages := 1
	if a.vendor.Pagination != nil && a.vendor.Pagination.MaxPages > 1 {
		maxPages = a.vendor.Pagination.MaxPages
	}

	var products []types.Product
	for page := 1; page <= maxPages; page++ {
		pageURL := a.vendor.CategoryURL(category, page)
		log.Debugf("Fetching page %d: %s", page, pageURL)

		doc, err := a.GetDocument(ctx, pageURL, a.vendor.RenderJS)
		if err != nil {
			if ctx.Err() != nil {
				return products, ctx.Err()
			}
			log.Warnf("Skipping %s: %v", pageURL, err)
			break
		}

		found := a.ExtractProducts(doc, category, seen)
		log.Infof("Page %d: %d products", page, len(found))
		products = append(products, found...)

		if len(found) == 0 || !a.hasNextPage(doc) {
			break
		}
	}
	return products, nil
}

func (a *VendorAdapter) hasNextPage(doc *goquery.Document) bool {
	p := a.vendor.Pagination
	if p == nil {
		return false
	}
	if p.NextSelector == "" {
		return true
	}
	return doc.Find(p.NextSelector).Not(disabledNext).Length() > 0
}

// disabledNext matches next-page controls rendered on the last page
const disabledNext = `.disabled, [disabled], [aria-disabled="true"]`

// ExtractProducts runs the document hook and the selector cascade over doc
// and converts every accepted candidate into a Product. Ids already present
// in seen are dropped; accepted ids are added to it.
func (a *VendorAdapter) ExtractProducts(doc *goquery.Document, category Category, seen map[string]bool) []types.Product {
	var candidates []Candidate
	if a.vendor.DocumentHook != nil {
		hooked := a.vendor.DocumentHook(doc, category)
		a.logger.WithField("category", category.Path).Debugf("Document hook: %d candidates", len(hooked))
		candidates = append(candidates, hooked...)
	}

	strategy, matches := a.Cascade(doc)
	if matches != nil {
		matches.Each(func(i int, s *goquery.Selection) {
			candidates = append(candidates, a.candidateFrom(s, strategy))
		})
	}

	var products []types.Product
	for i := range candidates {
		c := &candidates[i]
		if c.Material == "" {
			c.Material = category.Material
		}

		product, err := a.accept(c)
		if err == nil && seen[product.ID] {
			err = ErrDuplicateItem
		}
		if err != nil {
			a.logger.WithFields(logrus.Fields{
				"strategy": c.Strategy,
				"name":     c.Name,
			}).Debugf("Candidate skipped: %v", err)
			continue
		}

		seen[product.ID] = true
		products = append(products, *product)
	}
	return products
}

// Cascade tries each strategy in order and returns the first one that
// matches at least one element. The match count of every attempted step is
// logged.
func (a *VendorAdapter) Cascade(doc *goquery.Document) (string, *goquery.Selection) {
	for _, strategy := range a.vendor.Strategies {
		matches := doc.Find(strategy.Selector)
		a.logger.WithField("strategy", strategy.Name).Debugf("Selector %q matched %d elements", strategy.Selector, matches.Length())
		if matches.Length() > 0 {
			a.logger.WithField("strategy", strategy.Name).Infof("Using strategy %s (%d candidates)", strategy.Name, matches.Length())
			return strategy.Name, matches
		}
	}
	if len(a.vendor.Strategies) > 0 {
		a.logger.Warn("No selector strategy matched")
	}
	return "", nil
}

// StrategyCounts returns the number of matches for every strategy, without
// stopping at the first hit
func (a *VendorAdapter) StrategyCounts(doc *goquery.Document) map[string]int {
	counts := make(map[string]int, len(a.vendor.Strategies))
	for _, strategy := range a.vendor.Strategies {
		counts[strategy.Name] = doc.Find(strategy.Selector).Length()
	}
	return counts
}

func (a *VendorAdapter) candidateFrom(sel *goquery.Selection, strategy string) Candidate {
	link := a.FindLink(sel)

	c := Candidate{
		Strategy:    strategy,
		Selection:   sel,
		Name:        a.ExtractText(sel, a.vendor.NameSelectors),
		Description: a.ExtractText(sel, a.vendor.DescriptionSelectors),
		SKU:         a.ExtractText(sel, a.vendor.SKUSelectors),
		Collection:  a.ExtractText(sel, a.vendor.CollectionSelectors),
		ImageURL:    a.ExtractImage(sel, a.vendor.BaseURL),
	}
	if c.SKU == "" {
		c.SKU = a.ExtractAttribute(sel, "data-sku", "data-product-id")
	}
	if href := a.ExtractAttribute(link, "href"); href != "" {
		c.ProductURL = utils.ResolveURL(a.vendor.BaseURL, href)
	}

	// name fallbacks: link title, link text
	if c.Name == "" {
		c.Name = utils.CleanText(a.ExtractAttribute(link, "title"))
	}
	if c.Name == "" && link.Length() > 0 {
		c.Name = utils.CleanText(link.Text())
	}
	return c
}

// accept applies the vendor filters to c and builds the product
func (a *VendorAdapter) accept(c *Candidate) (*types.Product, error) {
	if c.Selection != nil && goquery.NodeName(c.Selection) == "a" && !a.vendor.AcceptsHref(c.ProductURL) {
		return nil, fmt.Errorf("%w: %s", ErrHrefMismatch, c.ProductURL)
	}

	if a.vendor.CandidateHook != nil {
		if err := a.vendor.CandidateHook(c); err != nil {
			return nil, err
		}
	}

	if c.Name == "" && c.ProductURL != "" {
		c.Name = utils.NameFromURL(c.ProductURL)
	}
	c.Name = utils.CleanText(c.Name)
	if len([]rune(c.Name)) < a.vendor.minNameLength() {
		return nil, ErrNoName
	}
	if a.vendor.ShouldSkip(c.Name) {
		return nil, ErrSkipWord
	}

	c.ImageURL = CleanImageURL(c.ImageURL, a.vendor.BaseURL)
	if a.vendor.RequireImage && c.ImageURL == "" {
		return nil, ErrNoImage
	}

	if c.Description == "" {
		c.Description = a.vendor.Description(c.Collection, c.Material)
	}

	product := types.NewProduct(a.vendor.Vendor, c.Name, c.Material)
	product.Description = c.Description
	product.ImageURL = c.ImageURL
	product.ProductURL = c.ProductURL
	product.SKU = c.SKU
	product.Collection = c.Collection
	product.ColorFamily = classifier.Classify(c.Name, c.Description)
	return product, nil
}
