package types

import (
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Material types recognised across vendor catalogs
const (
	MaterialQuartz        = "quartz"
	MaterialGranite       = "granite"
	MaterialMarble        = "marble"
	MaterialQuartzite     = "quartzite"
	MaterialTile          = "tile"
	MaterialLVP           = "lvp"
	MaterialSinteredStone = "sintered-stone"
	MaterialPorcelain     = "porcelain"
	MaterialSoapstone     = "soapstone"
	MaterialOnyx          = "onyx"
)

// DefaultUserAgent identifies the bot and gives vendors a contact address
const DefaultUserAgent = "CatalogSyncBot/1.0 (inventory update; contact@surprisegranite.com)"

// Product represents a single scraped stone, tile or flooring product
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Vendor       string    `json:"vendor"`
	MaterialType string    `json:"material_type"`
	ColorFamily  string    `json:"color_family"`
	Description  string    `json:"description,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	ProductURL   string    `json:"product_url,omitempty"`
	SKU          string    `json:"sku,omitempty"`
	Collection   string    `json:"collection,omitempty"`
	Finish       string    `json:"finish,omitempty"`
	Thickness    string    `json:"thickness,omitempty"`
	PriceRange   string    `json:"price_range,omitempty"`
	Available    bool      `json:"available"`
	LastUpdated  time.Time `json:"last_updated"`
}

// NewProduct creates an available product with its id and timestamp filled in
func NewProduct(vendor, name, materialType string) *Product {
	p := &Product{
		Name:         name,
		Vendor:       vendor,
		MaterialType: materialType,
		Available:    true,
	}
	p.Normalize()
	return p
}

// Normalize fills in derived fields that are missing
func (p *Product) Normalize() {
	if p.ID == "" {
		p.ID = DeriveID(p.Vendor, p.Name)
	}
	if p.LastUpdated.IsZero() {
		p.LastUpdated = time.Now().UTC().Truncate(time.Second)
	}
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and collapses every run of non-alphanumeric
// characters into a single hyphen, trimming hyphens at both ends.
func Slugify(s string) string {
	return strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// DeriveID returns the dedup and diff key for a (vendor, name) pair.
// The same pair always yields the same id; names that differ only in case,
// whitespace or punctuation collapse to the same id.
func DeriveID(vendor, name string) string {
	return Slugify(vendor + "-" + name)
}

// VendorResult holds the outcome of scraping a single vendor
type VendorResult struct {
	Key      string        `json:"key"`
	Vendor   string        `json:"vendor"`
	Products []Product     `json:"products"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// RunResult holds the outcome of a whole sync run
type RunResult struct {
	Vendors []VendorResult `json:"vendors"`
}

// AllProducts flattens the products of every vendor in run order
func (r *RunResult) AllProducts() []Product {
	var all []Product
	for _, v := range r.Vendors {
		all = append(all, v.Products...)
	}
	return all
}

// ScrapedVendors returns the canonical vendor key of every vendor that was
// attempted in this run, including vendors that produced no products.
func (r *RunResult) ScrapedVendors() []string {
	vendors := make([]string, 0, len(r.Vendors))
	for _, v := range r.Vendors {
		vendors = append(vendors, v.Vendor)
	}
	return vendors
}

// Config holds the configuration for fetching and extraction
type Config struct {
	RequestDelay       time.Duration
	MaxRetries         int
	RetryBackoff       time.Duration
	Timeout            time.Duration
	UseHeadlessBrowser bool
	ScrollPasses       int
	BrowserPath        string // Chrome executable, located automatically when empty
	UserAgent          string
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		RequestDelay:       2 * time.Second,
		MaxRetries:         3,
		RetryBackoff:       5 * time.Second,
		Timeout:            30 * time.Second,
		UseHeadlessBrowser: false,
		ScrollPasses:       10,
		UserAgent:          DefaultUserAgent,
	}
}

// Logger defines the logging interface. Both *logrus.Logger and
// *logrus.Entry satisfy it, so components can hand down tagged entries.
type Logger = logrus.FieldLogger
