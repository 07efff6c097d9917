package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		productName string
		description string
		expected    string
	}{
		{"white keyword", "Bianco Drift", "", "white"},
		{"calacatta resolves to white before gold", "Calacatta Gold Quartz", "", "white"},
		{"black keyword", "Nero Marquina", "", "black"},
		{"gray keyword", "London Grey", "", "gray"},
		{"brown keyword", "Coffee Brown Granite", "", "brown"},
		{"beige keyword", "Desert Sand", "", "beige"},
		{"gold keyword", "Champagne Dune", "", "gold"},
		{"blue keyword", "Azul Macaubas", "", "blue"},
		{"green keyword", "Verde Butterfly", "", "green"},
		{"red keyword", "Rosso Levanto", "", "red"},
		{"pink keyword", "Coral Reef", "", "pink"},
		{"multi keyword", "Exotic Fusion", "", "multi"},
		{"case insensitive", "MIDNIGHT MAJESTY", "", "black"},
		{"description is considered", "Statuario Venato", "a soft gray background", "gray"},
		{"no keyword", "Statuario Venato", "", Other},
		{"empty input", "", "", Other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.productName, tt.description))
		})
	}
}

func TestClassify_FirstFamilyWins(t *testing.T) {
	// white is checked before black
	assert.Equal(t, "white", Classify("Black and White", ""))
	// "blu" is a blue keyword and appears inside "blush"
	assert.Equal(t, "blue", Classify("Blush", ""))
}

func TestClassify_Deterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		assert.Equal(t, "white", Classify("Carrara Marmi", "Italian marble look"))
	}
}

func TestClassify_EveryFamilyReachable(t *testing.T) {
	for _, fam := range colorTable {
		assert.Equal(t, fam.name, Classify(fam.keywords[0], ""), "first keyword of %s", fam.name)
	}
}

func TestFamilies(t *testing.T) {
	families := Families()

	assert.Equal(t, []string{"white", "black", "gray", "brown", "beige", "gold", "blue", "green", "red", "pink", "multi", "other"}, families)
}

func TestKeywords(t *testing.T) {
	kw := Keywords("gold")
	assert.Contains(t, kw, "champagne")

	kw[0] = "changed"
	assert.Equal(t, "gold", Keywords("gold")[0])

	assert.Nil(t, Keywords("purple"))
}
