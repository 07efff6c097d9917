package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHTML_DecodesDeclaredCharset(t *testing.T) {
	// "Crème" encoded as ISO-8859-1
	body := []byte("<html><body><h3>Cr\xe8me Quartz</h3></body></html>")
	page := &Page{URL: "https://example.com/quartz", ContentType: "text/html; charset=ISO-8859-1", Body: body}

	doc, err := ParseHTML(page)

	require.NoError(t, err)
	assert.Equal(t, "Crème Quartz", doc.Find("h3").Text())
	assert.Equal(t, "example.com", doc.Url.Host)
}

func TestParseHTML_DefaultsToUTF8(t *testing.T) {
	page := &Page{URL: "https://example.com", Body: []byte("<p>Blanco Orion™</p>")}

	doc, err := ParseHTML(page)

	require.NoError(t, err)
	assert.Equal(t, "Blanco Orion™", doc.Find("p").Text())
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		base     string
		href     string
		expected string
	}{
		{"https://www.cambriausa.com", "/quartz-design/brittanicca/", "https://www.cambriausa.com/quartz-design/brittanicca/"},
		{"https://www.cambriausa.com/", "images/a.jpg", "https://www.cambriausa.com/images/a.jpg"},
		{"https://www.cambriausa.com", "https://cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"https://www.cambriausa.com", "//cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"https://www.cambriausa.com", "  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveURL(tt.base, tt.href))
		})
	}
}

func TestNameFromURL(t *testing.T) {
	assert.Equal(t, "Brittanicca", NameFromURL("/quartz-design/brittanicca/"))
	assert.Equal(t, "London Grey", NameFromURL("https://www.caesarstoneus.com/countertops/london-grey"))
	assert.Equal(t, "Calacatta Gold", NameFromURL("/colors/calacatta_gold?ref=nav"))
	assert.Equal(t, "", NameFromURL("/"))
}

func TestPathDepth(t *testing.T) {
	assert.Equal(t, 4, PathDepth("/products/slab/granite-slab/black-pearl/"))
	assert.Equal(t, 3, PathDepth("https://www.arizonatile.com/products/slab/quartzite"))
	assert.Equal(t, 0, PathDepth("/"))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Calacatta Gold", CleanText("  Calacatta \n\t Gold "))
}
