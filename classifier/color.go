// Package classifier maps free-text product names to coarse color families.
package classifier

import "strings"

// Other is returned when no keyword matches
const Other = "other"

type family struct {
	name     string
	keywords []string
}

// colorTable is checked in order; the first family with any keyword
// contained in the text wins.
var colorTable = []family{
	{"white", []string{"white", "bianco", "blanco", "snow", "arctic", "pearl", "ivory", "cream", "calacatta", "carrara", "frost", "pure"}},
	{"black", []string{"black", "nero", "noir", "onyx", "obsidian", "charcoal", "midnight", "raven"}},
	{"gray", []string{"gray", "grey", "grigio", "gris", "ash", "silver", "steel", "slate", "concrete", "urban"}},
	{"brown", []string{"brown", "marrone", "tan", "coffee", "mocha", "chocolate", "bronze", "copper", "walnut", "woodlands"}},
	{"beige", []string{"beige", "sand", "taupe", "khaki", "camel", "fawn", "buff", "buttermilk"}},
	{"gold", []string{"gold", "oro", "amber", "honey", "brass", "champagne"}},
	{"blue", []string{"blue", "blu", "azul", "navy", "sapphire", "ocean", "marine", "cobalt"}},
	{"green", []string{"green", "verde", "emerald", "jade", "forest", "sage", "olive", "moss"}},
	{"red", []string{"red", "rosso", "rojo", "burgundy", "wine", "cherry", "crimson", "rust"}},
	{"pink", []string{"pink", "rosa", "rose", "blush", "coral", "salmon"}},
	{"multi", []string{"multi", "rainbow", "mixed", "exotic", "veined", "movement"}},
}

// Classify returns the color family for a product name and optional
// description. It is pure: the same input always yields the same family.
func Classify(name, description string) string {
	text := strings.ToLower(name + " " + description)
	for _, f := range colorTable {
		for _, kw := range f.keywords {
			if strings.Contains(text, kw) {
				return f.name
			}
		}
	}
	return Other
}

// Families returns every family Classify can produce, in table order,
// followed by Other.
func Families() []string {
	names := make([]string, 0, len(colorTable)+1)
	for _, f := range colorTable {
		names = append(names, f.name)
	}
	return append(names, Other)
}

// Keywords returns a copy of the keyword list for family, or nil if the
// family is unknown
func Keywords(familyName string) []string {
	for _, f := range colorTable {
		if f.name == familyName {
			return append([]string(nil), f.keywords...)
		}
	}
	return nil
}
