package utils

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ParseHTML decodes the page body to UTF-8 according to its declared
// charset and parses it into a goquery document
func ParseHTML(page *Page) (*goquery.Document, error) {
	reader, err := charset.NewReader(bytes.NewReader(page.Body), page.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", page.URL, err)
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", page.URL, err)
	}

	if u, err := url.Parse(page.URL); err == nil {
		doc.Url = u
	}
	return doc, nil
}

// ResolveURL resolves href against base. Absolute URLs are returned as is;
// unparsable input yields an empty string.
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(ref).String()
}

var titleCaser = cases.Title(language.Und)

// NameFromURL derives a display name from the last path segment of href,
// e.g. "/quartz-design/brittanicca-gold/" becomes "Brittanicca Gold"
func NameFromURL(href string) string {
	if u, err := url.Parse(href); err == nil {
		href = u.Path
	}

	segments := strings.Split(strings.Trim(href, "/"), "/")
	last := segments[len(segments)-1]
	if last == "" {
		return ""
	}

	last = strings.NewReplacer("-", " ", "_", " ", "+", " ").Replace(last)
	return titleCaser.String(strings.Join(strings.Fields(last), " "))
}

// PathDepth returns the number of non-empty path segments in href
func PathDepth(href string) int {
	if u, err := url.Parse(href); err == nil {
		href = u.Path
	}

	depth := 0
	for _, s := range strings.Split(href, "/") {
		if s != "" {
			depth++
		}
	}
	return depth
}

// CleanText trims s and collapses internal whitespace runs to one space
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
