// Package inventory compares scraped products against the site's on-disk
// catalog snapshot and writes the review report and exports.
package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"catalog-sync/internal/types"
)

// SnapshotFiles are the catalog files read from the data directory, in
// load order. Later files win on key collisions.
var SnapshotFiles = []string{"countertops.json", "site-search.json", "slabs.json", "flooring.json"}

// ErrNoProducts is returned when a run produced nothing to diff or export
var ErrNoProducts = errors.New("no products were scraped")

// Record is one product of the existing catalog, normalized across the
// differing snapshot schemas
type Record struct {
	Key      string         `json:"key"`
	Vendor   string         `json:"vendor"` // canonical vendor key
	Name     string         `json:"name"`
	Handle   string         `json:"handle,omitempty"`
	Material string         `json:"material,omitempty"`
	Image    string         `json:"image,omitempty"`
	URL      string         `json:"url,omitempty"`
	Source   string         `json:"source"` // snapshot file the record came from
	Raw      map[string]any `json:"-"`
}

// Manager holds the existing catalog index
type Manager struct {
	logger     types.Logger
	aliases    map[string]string
	existing   map[string]Record
	collisions int
}

// NewManager creates a manager. aliases maps slugified vendor spellings to
// canonical vendor keys and may be nil.
func NewManager(logger types.Logger, aliases map[string]string) *Manager {
	return &Manager{
		logger:   logger,
		aliases:  aliases,
		existing: make(map[string]Record),
	}
}

// CanonicalVendor maps a vendor or brand string to its canonical key.
// Unknown vendors are returned slugified.
func (m *Manager) CanonicalVendor(vendor string) string {
	slug := types.Slugify(vendor)
	if canonical, ok := m.aliases[slug]; ok {
		return canonical
	}
	return slug
}

// Key returns the index key for a vendor and product name
func (m *Manager) Key(vendor, name string) string {
	return types.DeriveID(m.CanonicalVendor(vendor), name)
}

// Load reads every snapshot file found in dataDir. Missing or malformed
// files are logged and skipped. Records sharing a key overwrite earlier ones.
func (m *Manager) Load(dataDir string) error {
	if info, err := os.Stat(dataDir); err == nil && !info.IsDir() {
		return fmt.Errorf("data dir %s is not a directory", dataDir)
	}

	for _, name := range SnapshotFiles {
		path := filepath.Join(dataDir, name)

		items, err := readSnapshot(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				m.logger.Debugf("Snapshot %s not found", path)
			} else {
				m.logger.Warnf("Error loading %s: %v", name, err)
			}
			continue
		}

		loaded := 0
		for _, item := range items {
			record, ok := m.normalize(item, name)
			if !ok {
				continue
			}
			if prev, dup := m.existing[record.Key]; dup {
				m.collisions++
				m.logger.Warnf("Key collision on %s: %s replaces %s", record.Key, name, prev.Source)
			}
			m.existing[record.Key] = record
			loaded++
		}
		m.logger.Infof("Loaded %d records from %s", loaded, name)
	}

	m.logger.Infof("Loaded %d existing products (%d key collisions)", len(m.existing), m.collisions)
	return nil
}

// Existing returns the loaded catalog index keyed by product key
func (m *Manager) Existing() map[string]Record {
	return m.existing
}

// Collisions returns how many records were replaced by a later record with
// the same key while loading
func (m *Manager) Collisions() int {
	return m.collisions
}

// readSnapshot decodes a snapshot file holding either a bare array or an
// object wrapping the array under products, items or data
func readSnapshot(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var list []map[string]any
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	for _, key := range []string{"products", "items", "data"} {
		raw, ok := wrapper[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		return list, nil
	}
	return nil, fmt.Errorf("no products, items or data array")
}

func (m *Manager) normalize(item map[string]any, source string) (Record, bool) {
	name := firstString(item, "title", "name")
	handle := firstString(item, "handle", "slug")
	if name == "" {
		name = handle
	}
	if name == "" {
		return Record{}, false
	}

	vendor := m.CanonicalVendor(firstString(item, "brand", "vendor"))
	record := Record{
		Key:      types.DeriveID(vendor, name),
		Vendor:   vendor,
		Name:     name,
		Handle:   handle,
		Material: firstString(item, "material", "type", "productType"),
		Image:    firstString(item, "image"),
		URL:      firstString(item, "url"),
		Source:   source,
		Raw:      item,
	}
	if record.Image == "" {
		record.Image = firstImage(item["images"])
	}
	return record, true
}

func firstString(item map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := item[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// firstImage accepts images as a single URL, a list of URLs or a list of
// {src|url} objects
func firstImage(v any) string {
	switch images := v.(type) {
	case string:
		return strings.TrimSpace(images)
	case []any:
		if len(images) == 0 {
			return ""
		}
		switch first := images[0].(type) {
		case string:
			return strings.TrimSpace(first)
		case map[string]any:
			return firstString(first, "src", "url")
		}
	}
	return ""
}
