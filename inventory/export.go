package inventory

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"catalog-sync/internal/types"
)

// Export file name prefixes
const (
	ScrapedPrefix = "scraped_products"
	NewPrefix     = "new_products"
)

// ExportFile is the JSON document written for every export
type ExportFile struct {
	Generated time.Time       `json:"generated"`
	Count     int             `json:"count"`
	Items     []types.Product `json:"items"`
}

// Export writes products to dir/<prefix>_<timestamp>.json and returns the
// path. An existing file is never overwritten.
func Export(products []types.Product, dir, prefix string, generated time.Time) (string, error) {
	if products == nil {
		products = []types.Product{}
	}

	data, err := json.MarshalIndent(ExportFile{
		Generated: generated,
		Count:     len(products),
		Items:     products,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal export: %w", err)
	}

	return writeUnique(dir, prefix+"_"+generated.Format(TimestampFormat), ".json", data)
}

// LoadExport reads an export written by Export. Product ids missing from
// the file are derived from vendor and name.
func LoadExport(path string) (*ExportFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var export ExportFile
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for i := range export.Items {
		if export.Items[i].ID == "" {
			export.Items[i].ID = types.DeriveID(export.Items[i].Vendor, export.Items[i].Name)
		}
	}
	return &export, nil
}
