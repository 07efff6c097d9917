package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveID(t *testing.T) {
	tests := []struct {
		vendor   string
		name     string
		expected string
	}{
		{"msi", "Calacatta  Gold", "msi-calacatta-gold"},
		{"msi", "calacatta-gold", "msi-calacatta-gold"},
		{"MSI", " CALACATTA GOLD ", "msi-calacatta-gold"},
		{"MSI Surfaces", "Calacatta Gold®", "msi-surfaces-calacatta-gold"},
		{"cambria", "Brittanicca", "cambria-brittanicca"},
		{"caesarstone", "5000 London Grey", "caesarstone-5000-london-grey"},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.vendor+"/"+tt.name, func(t *testing.T) {
			id := DeriveID(tt.vendor, tt.name)
			assert.Equal(t, tt.expected, id)
			assert.Equal(t, id, DeriveID(tt.vendor, tt.name))
		})
	}
}

func TestNewProduct(t *testing.T) {
	p := NewProduct("cambria", "Brittanicca Gold", MaterialQuartz)

	assert.Equal(t, "cambria-brittanicca-gold", p.ID)
	assert.True(t, p.Available)
	assert.False(t, p.LastUpdated.IsZero())
	assert.Equal(t, MaterialQuartz, p.MaterialType)
}

func TestNormalize_KeepsExistingValues(t *testing.T) {
	p := &Product{ID: "custom", Vendor: "msi", Name: "Arctic White"}
	p.Normalize()

	assert.Equal(t, "custom", p.ID)
	assert.False(t, p.LastUpdated.IsZero())
}

func TestRunResult(t *testing.T) {
	result := RunResult{Vendors: []VendorResult{
		{Key: "msi", Vendor: "msi-surfaces", Products: []Product{{Name: "A"}, {Name: "B"}}},
		{Key: "daltile", Vendor: "daltile"},
		{Key: "cambria", Vendor: "cambria", Products: []Product{{Name: "C"}}},
	}}

	assert.Len(t, result.AllProducts(), 3)
	assert.Equal(t, []string{"msi-surfaces", "daltile", "cambria"}, result.ScrapedVendors())
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, 3, config.MaxRetries)
	assert.Equal(t, DefaultUserAgent, config.UserAgent)
	assert.Contains(t, config.UserAgent, "contact@")
	assert.False(t, config.UseHeadlessBrowser)
}
