package adapters

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"catalog-sync/internal/types"
	"catalog-sync/utils"

	"github.com/PuerkitoBio/goquery"
)

// imageRejectMarkers mark images that are never product photos
var imageRejectMarkers = []string{"icon", "logo", "placeholder", "loading", "spinner"}

// imageAttributes are read in order; lazy-load attributes win over src
var imageAttributes = []string{"data-src", "data-lazy-src", "data-original", "data-srcset", "srcset", "src"}

// BaseAdapter provides common functionality for vendor adapters: fetching
// documents through the configured page sources and the DOM helpers shared
// by every extraction strategy.
type BaseAdapter struct {
	config        *types.Config    // Fetch configuration (delays, browser mode)
	logger        types.Logger     // Structured logging interface
	httpClient    utils.PageSource // Plain HTTP fetcher
	browserClient utils.PageSource // Headless browser for JS-rendered pages, may be nil
	browserDown   atomic.Bool      // Set once the browser could not be started
}

// NewBaseAdapter creates a base adapter on top of the given page sources.
// browserClient may be nil, in which case every page is fetched over HTTP.
func NewBaseAdapter(config *types.Config, logger types.Logger, httpClient, browserClient utils.PageSource) *BaseAdapter {
	return &BaseAdapter{
		config:        config,
		logger:        logger,
		httpClient:    httpClient,
		browserClient: browserClient,
	}
}

// GetDocument fetches url and parses it. The headless browser is used when
// the page needs JavaScript (or browser mode is forced in the config) and a
// browser client is available. If the browser cannot be started, this and
// every later page is fetched over HTTP instead.
func (b *BaseAdapter) GetDocument(ctx context.Context, url string, renderJS bool) (*goquery.Document, error) {
	if b.useBrowser(renderJS) {
		page, err := b.browserClient.Get(ctx, url)
		if err == nil {
			return utils.ParseHTML(page)
		}
		if !errors.Is(err, utils.ErrBrowserUnavailable) {
			return nil, err
		}
		if b.browserDown.CompareAndSwap(false, true) {
			b.logger.Warnf("Headless browser unavailable, falling back to plain HTTP: %v", err)
		}
	}

	page, err := b.httpClient.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	return utils.ParseHTML(page)
}

func (b *BaseAdapter) useBrowser(renderJS bool) bool {
	if b.browserClient == nil || b.browserDown.Load() {
		return false
	}
	return renderJS || b.config.UseHeadlessBrowser
}

// ExtractText returns the cleaned text of the first selector that yields
// non-empty text inside sel
func (b *BaseAdapter) ExtractText(sel *goquery.Selection, selectors []string) string {
	for _, selector := range selectors {
		var text string
		sel.Find(selector).EachWithBreak(func(i int, s *goquery.Selection) bool {
			text = utils.CleanText(s.Text())
			return text == ""
		})
		if text != "" {
			return text
		}
	}
	return ""
}

// ExtractAttribute returns the first non-empty value among attrs on sel
func (b *BaseAdapter) ExtractAttribute(sel *goquery.Selection, attrs ...string) string {
	for _, attr := range attrs {
		if v, ok := sel.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// FindLink returns the anchor that represents sel: sel itself when it is an
// anchor, otherwise its first descendant link, otherwise its closest
// enclosing link.
func (b *BaseAdapter) FindLink(sel *goquery.Selection) *goquery.Selection {
	if goquery.NodeName(sel) == "a" {
		return sel
	}
	if link := sel.Find("a[href]").First(); link.Length() > 0 {
		return link
	}
	return sel.Closest("a[href]")
}

// ExtractImage returns the absolute URL of the product image for sel. Images
// inside sel are tried first, then images elsewhere in the parent element.
func (b *BaseAdapter) ExtractImage(sel *goquery.Selection, baseURL string) string {
	scopes := []*goquery.Selection{sel, sel.Parent()}
	for _, scope := range scopes {
		var found string
		imgs := scope.Find("img")
		if goquery.NodeName(scope) == "img" {
			imgs = scope
		}
		imgs.EachWithBreak(func(i int, img *goquery.Selection) bool {
			found = b.imageURL(img, baseURL)
			return found == ""
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func (b *BaseAdapter) imageURL(img *goquery.Selection, baseURL string) string {
	for _, attr := range imageAttributes {
		v, ok := img.Attr(attr)
		if !ok {
			continue
		}
		if strings.HasSuffix(attr, "srcset") {
			v = firstSrcsetEntry(v)
		}
		if u := CleanImageURL(v, baseURL); u != "" {
			return u
		}
	}
	return ""
}

// CleanImageURL resolves raw against baseURL and returns "" for data URIs
// and images whose URL marks them as icons, logos or placeholders
func CleanImageURL(raw, baseURL string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "data:") {
		return ""
	}

	lower := strings.ToLower(raw)
	for _, marker := range imageRejectMarkers {
		if strings.Contains(lower, marker) {
			return ""
		}
	}

	return utils.ResolveURL(baseURL, raw)
}

func firstSrcsetEntry(srcset string) string {
	first := strings.TrimSpace(strings.Split(srcset, ",")[0])
	if fields := strings.Fields(first); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// Close cleans up resources held by the page sources
func (b *BaseAdapter) Close() {
	for _, source := range []utils.PageSource{b.httpClient, b.browserClient} {
		if c, ok := source.(interface{ Close() }); ok {
			c.Close()
		}
	}
}

// Config returns the fetch configuration of the adapter
func (b *BaseAdapter) Config() *types.Config {
	return b.config
}
