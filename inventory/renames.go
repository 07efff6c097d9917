package inventory

import (
	"sort"
	"strings"

	"catalog-sync/internal/types"

	"github.com/antzucaro/matchr"
)

// RenameThreshold is the minimum Jaro-Winkler similarity for a rename
// suggestion
const RenameThreshold = 0.9

// Rename suggests that a discontinued record reappeared under a new name
type Rename struct {
	Discontinued Record        `json:"discontinued"`
	Candidate    types.Product `json:"candidate"`
	Similarity   float64       `json:"similarity"`
}

// SuggestRenames pairs each discontinued record with the most similar new
// product of the same vendor. Each new product is used at most once, and
// the most similar pairs are matched first.
func (m *Manager) SuggestRenames(d *Diff) []Rename {
	type pair struct {
		record  int
		product int
		sim     float64
	}

	var pairs []pair
	for i, record := range d.Discontinued {
		left := strings.ToLower(record.Name)
		for j, p := range d.New {
			if m.CanonicalVendor(p.Vendor) != record.Vendor {
				continue
			}
			sim := matchr.JaroWinkler(left, strings.ToLower(p.Name), false)
			if sim >= RenameThreshold {
				pairs = append(pairs, pair{record: i, product: j, sim: sim})
			}
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].sim > pairs[j].sim })

	usedRecord := make(map[int]bool)
	usedProduct := make(map[int]bool)
	var renames []Rename
	for _, p := range pairs {
		if usedRecord[p.record] || usedProduct[p.product] {
			continue
		}
		usedRecord[p.record] = true
		usedProduct[p.product] = true
		renames = append(renames, Rename{
			Discontinued: d.Discontinued[p.record],
			Candidate:    d.New[p.product],
			Similarity:   p.sim,
		})
	}

	sort.SliceStable(renames, func(i, j int) bool {
		return renames[i].Discontinued.Key < renames[j].Discontinued.Key
	})
	return renames
}
