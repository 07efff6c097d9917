package adapters

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"catalog-sync/internal/types"

	"github.com/PuerkitoBio/goquery"
)

// SkipMode controls how SkipWords are matched against a candidate name
type SkipMode string

const (
	// SkipContains rejects names containing any skip word
	SkipContains SkipMode = "contains"
	// SkipExact rejects names equal to a skip word
	SkipExact SkipMode = "exact"
)

// DefaultMinNameLength is used when a vendor does not set MinNameLength
const DefaultMinNameLength = 3

// Category is one catalog listing page of a vendor site
type Category struct {
	Path     string `json:"path"`
	Material string `json:"material"`
}

// Pagination describes how further listing pages are addressed
type Pagination struct {
	Param        string `json:"param"`         // query parameter holding the page number
	MaxPages     int    `json:"max_pages"`     // upper bound on pages per category
	NextSelector string `json:"next_selector"` // optional; stop when no element matches
}

// Strategy is one step of the candidate selector cascade
type Strategy struct {
	Name     string `json:"name"`
	Selector string `json:"selector"`
}

// Candidate is a matched element before it is accepted as a Product
type Candidate struct {
	Name        string
	Description string
	ImageURL    string
	ProductURL  string
	SKU         string
	Collection  string
	Material    string
	Strategy    string

	// Selection is the matched element; nil for candidates produced by a
	// DocumentHook
	Selection *goquery.Selection
}

// DocumentHook produces extra candidates from a whole listing page
type DocumentHook func(doc *goquery.Document, category Category) []Candidate

// CandidateHook refines a candidate in place. A non-nil error rejects it.
type CandidateHook func(c *Candidate) error

// VendorConfig declares how a vendor site is scraped
type VendorConfig struct {
	Key         string   `json:"key"`          // CLI name, e.g. "msi"
	Vendor      string   `json:"vendor"`       // canonical vendor key, e.g. "msi-surfaces"
	DisplayName string   `json:"display_name"` // e.g. "MSI Surfaces"
	Aliases     []string `json:"aliases"`      // other spellings found in snapshots
	BaseURL     string   `json:"base_url"`

	Categories []Category  `json:"categories"`
	Pagination *Pagination `json:"pagination,omitempty"`

	Strategies           []Strategy `json:"strategies"`
	NameSelectors        []string   `json:"name_selectors"`
	DescriptionSelectors []string   `json:"description_selectors"`
	SKUSelectors         []string   `json:"sku_selectors"`
	CollectionSelectors  []string   `json:"collection_selectors"`

	SkipWords    []string `json:"skip_words"`
	SkipMode     SkipMode `json:"skip_mode"`
	HrefContains []string `json:"href_contains"`

	RequireImage       bool   `json:"require_image"`
	DefaultDescription string `json:"default_description"`
	RenderJS           bool   `json:"render_js"`
	MinNameLength      int    `json:"min_name_length"`

	DocumentHook  DocumentHook  `json:"-"`
	CandidateHook CandidateHook `json:"-"`
}

// Candidate rejection reasons
var (
	ErrNoName        = errors.New("no usable name")
	ErrSkipWord      = errors.New("name matches skip list")
	ErrNoImage       = errors.New("no product image")
	ErrHrefMismatch  = errors.New("link does not point at a product")
	ErrDuplicateItem = errors.New("duplicate product")
)

// Validate checks that the config can drive a scrape
func (v *VendorConfig) Validate() error {
	if v.Key == "" || v.Vendor == "" {
		return fmt.Errorf("vendor config requires key and vendor")
	}
	if _, err := url.ParseRequestURI(v.BaseURL); err != nil {
		return fmt.Errorf("vendor %s: invalid base url %q: %w", v.Key, v.BaseURL, err)
	}
	if len(v.Categories) == 0 {
		return fmt.Errorf("vendor %s: no categories", v.Key)
	}
	if len(v.Strategies) == 0 && v.DocumentHook == nil {
		return fmt.Errorf("vendor %s: no strategies", v.Key)
	}
	if v.SkipMode != "" && v.SkipMode != SkipContains && v.SkipMode != SkipExact {
		return fmt.Errorf("vendor %s: unknown skip mode %q", v.Key, v.SkipMode)
	}
	return nil
}

// Name returns the display name, falling back to the vendor key
func (v *VendorConfig) Name() string {
	if v.DisplayName != "" {
		return v.DisplayName
	}
	return v.Vendor
}

// ShouldSkip reports whether name is a navigation or marketing label
func (v *VendorConfig) ShouldSkip(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, word := range v.SkipWords {
		word = strings.ToLower(word)
		if v.SkipMode == SkipExact {
			if lower == word {
				return true
			}
		} else if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// AcceptsHref reports whether href points at a product page according to
// HrefContains. An empty HrefContains accepts everything.
func (v *VendorConfig) AcceptsHref(href string) bool {
	if len(v.HrefContains) == 0 {
		return true
	}
	for _, fragment := range v.HrefContains {
		if strings.Contains(href, fragment) {
			return true
		}
	}
	return false
}

// Description renders DefaultDescription for a product
func (v *VendorConfig) Description(collection, material string) string {
	if v.DefaultDescription == "" {
		return ""
	}
	desc := strings.NewReplacer("{collection}", collection, "{material}", material).Replace(v.DefaultDescription)
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(desc), " -"))
}

func (v *VendorConfig) minNameLength() int {
	if v.MinNameLength > 0 {
		return v.MinNameLength
	}
	return DefaultMinNameLength
}

// CategoryURL returns the listing URL of category for the given 1-based page
func (v *VendorConfig) CategoryURL(category Category, page int) string {
	raw := strings.TrimRight(v.BaseURL, "/") + "/" + strings.TrimLeft(category.Path, "/")
	if page <= 1 || v.Pagination == nil {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set(v.Pagination.Param, strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

// Aliases maps every known spelling of each vendor, normalized with
// types.Slugify, to its canonical vendor key
func Aliases(configs []VendorConfig) map[string]string {
	aliases := make(map[string]string)
	for _, c := range configs {
		aliases[types.Slugify(c.Vendor)] = c.Vendor
		aliases[types.Slugify(c.Key)] = c.Vendor
		if c.DisplayName != "" {
			aliases[types.Slugify(c.DisplayName)] = c.Vendor
		}
		for _, a := range c.Aliases {
			aliases[types.Slugify(a)] = c.Vendor
		}
	}
	return aliases
}
