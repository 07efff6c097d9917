package adapters

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"catalog-sync/internal/types"
	"catalog-sync/utils"
)

// builtinVendors returns the vendor definitions shipped with the tool.
// A fresh slice is built on every call so callers may modify the result.
func builtinVendors() []VendorConfig {
	return []VendorConfig{
		{
			Key:         "msi",
			Vendor:      "msi-surfaces",
			DisplayName: "MSI Surfaces",
			Aliases:     []string{"MSI", "MSI Stone", "M S International"},
			BaseURL:     "https://www.msisurfaces.com",
			Categories: []Category{
				{Path: "/countertops/quartz-countertops/", Material: types.MaterialQuartz},
				{Path: "/countertops/granite-countertops/", Material: types.MaterialGranite},
				{Path: "/countertops/marble-countertops/", Material: types.MaterialMarble},
				{Path: "/countertops/quartzite-countertops/", Material: types.MaterialQuartzite},
				{Path: "/tile/", Material: types.MaterialTile},
				{Path: "/flooring/luxury-vinyl-tile/", Material: types.MaterialLVP},
			},
			Pagination: &Pagination{
				Param:        "page",
				MaxPages:     50,
				NextSelector: `.pagination .next, [rel="next"], .load-more`,
			},
			Strategies: []Strategy{
				{Name: "product-cards", Selector: ".product-card, .product-item, [data-product-id]"},
				{Name: "grid-items", Selector: ".grid-item, .collection-item, .product-tile"},
			},
			NameSelectors:        []string{".product-name", ".product-title", "h3", "h4"},
			DescriptionSelectors: []string{".product-description", ".description", "p"},
			SKUSelectors:         []string{".product-sku", ".sku"},
			SkipWords:            []string{"view all", "see all", "learn more", "warranty", "where to buy"},
			SkipMode:             SkipContains,
			DocumentHook:         jsonLDProducts,
		},
		{
			Key:         "arizona-tile",
			Vendor:      "arizona-tile",
			DisplayName: "Arizona Tile",
			Aliases:     []string{"Arizona", "AZ Tile"},
			BaseURL:     "https://www.arizonatile.com",
			Categories: []Category{
				{Path: "/products/slab/quartz/", Material: types.MaterialQuartz},
				{Path: "/products/slab/granite/", Material: types.MaterialGranite},
				{Path: "/products/slab/marble/", Material: types.MaterialMarble},
				{Path: "/products/slab/quartzite/", Material: types.MaterialQuartzite},
				{Path: "/products/tile/floor-wall/", Material: types.MaterialTile},
				{Path: "/products/tile/porcelain/", Material: types.MaterialTile},
			},
			Strategies: []Strategy{
				{Name: "product-cards", Selector: ".product-card, .product-item, .product-tile"},
				{Name: "product-links", Selector: `a[href*="/products/slab/"], a[href*="/products/tile/"]`},
			},
			NameSelectors: []string{".product-name", ".product-title", "h3", "h4"},
			SkipWords:     []string{"slab", "slabs", "tile", "quartz", "granite", "marble", "quartzite", "products", "view all"},
			SkipMode:      SkipExact,
			RenderJS:      true,
			CandidateHook: minPathDepth(4),
		},
		{
			Key:         "daltile",
			Vendor:      "daltile",
			DisplayName: "Daltile",
			Aliases:     []string{"Dal-Tile", "Daltile ONE Quartz"},
			BaseURL:     "https://www.daltile.com",
			Categories: []Category{
				{Path: "/products/one-quartz-surfaces", Material: types.MaterialQuartz},
				{Path: "/products/panoramic-porcelain", Material: types.MaterialPorcelain},
				{Path: "/products/floor-tile", Material: types.MaterialTile},
				{Path: "/products/wall-tile", Material: types.MaterialTile},
			},
			Strategies: []Strategy{
				{Name: "product-tiles", Selector: ".product-tile, .product-card, [data-product]"},
				{Name: "product-links", Selector: `a[href*="/products/"], a[href*="/color/"]`},
			},
			NameSelectors:      []string{".product-name", ".product-title", "h3", "h4"},
			SkipWords:          []string{"explore", "view", "see all", "shop", "filter", "sort"},
			SkipMode:           SkipContains,
			RequireImage:       true,
			DefaultDescription: "Daltile {material}",
		},
		{
			Key:         "cambria",
			Vendor:      "cambria",
			DisplayName: "Cambria",
			Aliases:     []string{"Cambria Quartz", "Cambria USA"},
			BaseURL:     "https://www.cambriausa.com",
			Categories: []Category{
				{Path: "/quartz-countertops/quartz-colors", Material: types.MaterialQuartz},
			},
			Strategies: []Strategy{
				{Name: "design-cards", Selector: ".design-card, .color-card, .product-item, [data-design]"},
				{Name: "design-links", Selector: `a[href*="/quartz-design/"], a[href*="/design/"]`},
			},
			NameSelectors:       []string{".design-name", ".color-name", "h3", "h4", ".title"},
			CollectionSelectors: []string{".collection", ".series"},
			HrefContains:        []string{"/quartz-design/", "/design/"},
			SkipWords:           []string{"skip", "menu", "nav", "home", "about", "contact", "sample", "dealer"},
			SkipMode:            SkipContains,
			DefaultDescription:  "Cambria Quartz - {collection}",
			RenderJS:            true,
		},
		{
			Key:         "caesarstone",
			Vendor:      "caesarstone",
			DisplayName: "Caesarstone",
			Aliases:     []string{"Caesarstone US", "Caesar Stone"},
			BaseURL:     "https://www.caesarstoneus.com",
			Categories: []Category{
				{Path: "/countertops/", Material: types.MaterialQuartz},
			},
			Strategies: []Strategy{
				{Name: "color-cards", Selector: ".color-card, .product-card, [data-color]"},
				{Name: "countertop-links", Selector: `a[href*="/countertops/"]`},
			},
			NameSelectors:      []string{".color-name", ".product-name", "h3", "h4"},
			SKUSelectors:       []string{".color-code", ".sku"},
			SkipWords:          []string{"view all", "compare", "catalog", "inspiration"},
			SkipMode:           SkipContains,
			DefaultDescription: "Caesarstone Quartz",
			CandidateHook:      caesarstoneCandidate,
		},
		{
			Key:         "silestone",
			Vendor:      "silestone",
			DisplayName: "Silestone",
			Aliases:     []string{"Cosentino", "Silestone by Cosentino"},
			BaseURL:     "https://www.cosentino.com",
			Categories: []Category{
				{Path: "/usa/colors/silestone/", Material: types.MaterialQuartz},
			},
			Strategies: []Strategy{
				{Name: "colour-cards", Selector: ".colour-card, .product-card, .color-item, [data-colour]"},
				{Name: "colour-links", Selector: `a[href*="/colors/silestone/"]`},
			},
			NameSelectors:      []string{".colour-name", ".color-name", "h3", "h4"},
			SkipWords:          []string{"color", "colors", "silestone", "menu", "nav", "about", "contact", "find", "where"},
			SkipMode:           SkipExact,
			DefaultDescription: "Silestone Quartz by Cosentino",
			RenderJS:           true,
			CandidateHook:      rejectCategoryPages("/silestone", "/colors"),
		},
	}
}

// Builtin returns the built-in vendor definitions in run order
func Builtin() []VendorConfig {
	return builtinVendors()
}

// Keys returns the CLI keys of the built-in vendors, sorted
func Keys() []string {
	var keys []string
	for _, v := range builtinVendors() {
		keys = append(keys, v.Key)
	}
	sort.Strings(keys)
	return keys
}

// Lookup finds a built-in vendor by CLI key, canonical vendor key or alias
func Lookup(name string) (VendorConfig, bool) {
	vendors := builtinVendors()
	canonical, ok := Aliases(vendors)[types.Slugify(name)]
	if !ok {
		return VendorConfig{}, false
	}
	for _, v := range vendors {
		if v.Vendor == canonical {
			return v, true
		}
	}
	return VendorConfig{}, false
}

// minPathDepth rejects link candidates whose URL path is shallower than
// depth, which filters category and filter pages out of product listings
func minPathDepth(depth int) CandidateHook {
	return func(c *Candidate) error {
		if c.ProductURL != "" && utils.PathDepth(c.ProductURL) < depth {
			return fmt.Errorf("%w: %s", ErrHrefMismatch, c.ProductURL)
		}
		return nil
	}
}

// rejectCategoryPages rejects candidates whose URL path ends in one of the
// given suffixes
func rejectCategoryPages(suffixes ...string) CandidateHook {
	return func(c *Candidate) error {
		path := strings.TrimRight(urlPath(c.ProductURL), "/")
		for _, suffix := range suffixes {
			if strings.HasSuffix(path, suffix) {
				return fmt.Errorf("%w: %s", ErrHrefMismatch, c.ProductURL)
			}
		}
		return nil
	}
}

var caesarstonePattern = regexp.MustCompile(`/countertops/(\d+)-([^/]+)/?$`)

// caesarstoneCandidate reads the SKU and name from /countertops/<sku>-<slug>/
// links. Candidates without a SKU that do not follow the pattern are
// category or marketing links.
func caesarstoneCandidate(c *Candidate) error {
	m := caesarstonePattern.FindStringSubmatch(urlPath(c.ProductURL))
	if m == nil {
		if c.SKU == "" {
			return fmt.Errorf("%w: %s", ErrHrefMismatch, c.ProductURL)
		}
		return nil
	}

	if c.SKU == "" {
		c.SKU = m[1]
	}
	if c.Name == "" || strings.HasPrefix(c.Name, m[1]) {
		c.Name = utils.NameFromURL(m[2])
	}
	return nil
}

func urlPath(raw string) string {
	if u, err := url.Parse(raw); err == nil {
		return u.Path
	}
	return raw
}
