package adapters

import (
	"strings"

	"catalog-sync/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/titanous/json5"
)

// jsonLDProducts collects Product entries from the JSON-LD blocks of a
// listing page. Blocks are decoded with json5 because hand-written
// structured data often carries trailing commas or comments.
func jsonLDProducts(doc *goquery.Document, category Category) []Candidate {
	base := ""
	if doc.Url != nil {
		base = doc.Url.String()
	}

	var candidates []Candidate
	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, s *goquery.Selection) {
		var data any
		if err := json5.Unmarshal([]byte(strings.TrimSpace(s.Text())), &data); err != nil {
			return
		}
		for _, node := range productNodes(data) {
			candidates = append(candidates, Candidate{
				Name:        utils.CleanText(stringField(node, "name")),
				Description: utils.CleanText(stringField(node, "description")),
				ImageURL:    utils.ResolveURL(base, imageField(node["image"])),
				ProductURL:  utils.ResolveURL(base, stringField(node, "url")),
				SKU:         stringField(node, "sku"),
				Material:    category.Material,
				Strategy:    "json-ld",
			})
		}
	})
	return candidates
}

// productNodes walks a decoded JSON-LD value and returns every object typed
// as a Product, looking through arrays, @graph and ItemList entries
func productNodes(v any) []map[string]any {
	var nodes []map[string]any
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			nodes = append(nodes, productNodes(item)...)
		}
	case map[string]any:
		if isType(t["@type"], "Product") {
			nodes = append(nodes, t)
		}
		for _, key := range []string{"@graph", "itemListElement", "item"} {
			if child, ok := t[key]; ok {
				nodes = append(nodes, productNodes(child)...)
			}
		}
	}
	return nodes
}

func isType(v any, want string) bool {
	switch t := v.(type) {
	case string:
		return t == want
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}

func stringField(node map[string]any, key string) string {
	if s, ok := node[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// imageField accepts the string, array and ImageObject forms of "image"
func imageField(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		for _, item := range t {
			if s := imageField(item); s != "" {
				return s
			}
		}
	case map[string]any:
		if s, ok := t["url"].(string); ok {
			return s
		}
		if s, ok := t["contentUrl"].(string); ok {
			return s
		}
	}
	return ""
}
