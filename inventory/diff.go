package inventory

import (
	"sort"

	"catalog-sync/internal/types"
)

// Change pairs a scraped product with the snapshot record it differs from
type Change struct {
	Product  types.Product `json:"product"`
	Existing Record        `json:"existing"`
}

// Diff is the outcome of comparing a scrape against the snapshot. New,
// Updated and the unchanged products partition the scraped key set.
type Diff struct {
	New           []types.Product `json:"new"`
	Updated       []Change        `json:"updated"`
	Discontinued  []Record        `json:"discontinued"`
	Unchanged     int             `json:"unchanged"`
	TotalScraped  int             `json:"total_scraped"`
	TotalExisting int             `json:"total_existing"`
	Collisions    int             `json:"collisions"`
	Vendors       []string        `json:"vendors"`
}

// Diff classifies scraped products as new or updated and finds snapshot
// records that have disappeared. scrapedVendors lists every vendor that was
// attempted in the run, including vendors that returned nothing; only
// records of those vendors can be reported as discontinued.
func (m *Manager) Diff(scraped []types.Product, scrapedVendors []string) *Diff {
	d := &Diff{
		TotalScraped:  len(scraped),
		TotalExisting: len(m.existing),
		Collisions:    m.collisions,
	}

	vendors := make(map[string]bool)
	for _, v := range scrapedVendors {
		canonical := m.CanonicalVendor(v)
		if !vendors[canonical] {
			vendors[canonical] = true
			d.Vendors = append(d.Vendors, canonical)
		}
	}

	scrapedKeys := make(map[string]bool, len(scraped))
	for _, p := range scraped {
		key := m.Key(p.Vendor, p.Name)
		if scrapedKeys[key] {
			continue
		}
		scrapedKeys[key] = true
		if canonical := m.CanonicalVendor(p.Vendor); !vendors[canonical] {
			vendors[canonical] = true
			d.Vendors = append(d.Vendors, canonical)
		}

		existing, ok := m.existing[key]
		switch {
		case !ok:
			d.New = append(d.New, p)
		case hasChanges(existing, p):
			d.Updated = append(d.Updated, Change{Product: p, Existing: existing})
		default:
			d.Unchanged++
		}
	}

	for key, record := range m.existing {
		if vendors[record.Vendor] && !scrapedKeys[key] {
			d.Discontinued = append(d.Discontinued, record)
		}
	}
	sort.Slice(d.Discontinued, func(i, j int) bool {
		if d.Discontinued[i].Vendor != d.Discontinued[j].Vendor {
			return d.Discontinued[i].Vendor < d.Discontinued[j].Vendor
		}
		return d.Discontinued[i].Key < d.Discontinued[j].Key
	})

	m.logger.Infof("Diff: %d new, %d updated, %d unchanged, %d potentially discontinued",
		len(d.New), len(d.Updated), d.Unchanged, len(d.Discontinued))
	return d
}

// hasChanges compares the fields the site displays from vendor data
func hasChanges(existing Record, scraped types.Product) bool {
	return existing.Image != scraped.ImageURL || existing.URL != scraped.ProductURL
}
