package abrazadera

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrict(t *testing.T) {
	res := Parse("ABRAZADERA TREFILADA DE 1/2 X 85 X 260 CURVA")

	assert.Equal(t, map[string]string{
		AttrManufacture: "TREFILADA",
		AttrSize:        "1/2",
		AttrWidth:       "85",
		AttrLength:      "260",
		AttrShape:       "CURVA",
	}, res.Attributes)
	assert.Empty(t, res.Warnings)
}

func TestParseStrictNormalizesCaseAndQuotes(t *testing.T) {
	res := Parse(`  abrazadera laminada 3/4" x 50 x 120 /s/curva `)

	assert.Equal(t, "LAMINADA", res.Attributes[AttrManufacture])
	assert.Equal(t, "3/4", res.Attributes[AttrSize])
	assert.Equal(t, "50", res.Attributes[AttrWidth])
	assert.Equal(t, "120", res.Attributes[AttrLength])
	assert.Equal(t, "/S/CURVA", res.Attributes[AttrShape])
	assert.Empty(t, res.Warnings)
}

func TestParseFallback(t *testing.T) {
	res := Parse("ABRAZADERA SIMPLE DE 1/2")

	assert.Equal(t, "1/2", res.Attributes[AttrSize])
	assert.NotContains(t, res.Attributes, AttrManufacture)
	assert.Contains(t, res.Warnings, "manufacture type not detected (TREFILADA/LAMINADA)")
	assert.NotContains(t, res.Warnings, "size in inches not detected")
}

func TestParseFallbackKeywords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[string]string
	}{
		{
			name: "synonyms and dimensions",
			text: "ABRAZ. TREFIL GALV 5/16 X30 X 90 PLANA",
			want: map[string]string{
				AttrManufacture: "TREFILADA",
				AttrMaterial:    "GALVANIZADO",
				AttrSize:        "5/16",
				AttrWidth:       "30",
				AttrLength:      "90",
				AttrShape:       "PLANA",
			},
		},
		{
			name: "table order decides between overlapping keywords",
			text: "ABRAZADERA ACERO INOX 1-1/2 X 40",
			want: map[string]string{
				AttrMaterial: "ACERO",
				AttrSize:     "1-1/2",
				AttrWidth:    "40",
			},
		},
		{
			name: "non standard fraction",
			text: "GRAMPA FORJADA 17/32",
			want: map[string]string{
				AttrManufacture: "FORJADA",
				AttrSize:        "17/32",
			},
		},
		{
			name: "whole inch needs quote or space after it",
			text: `GRAMPA LAMI 2" RECTA`,
			want: map[string]string{
				AttrManufacture: "LAMINADA",
				AttrSize:        "2",
				AttrShape:       "RECTA",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(tt.text)
			assert.Equal(t, tt.want, res.Attributes)
			assert.Len(t, res.Warnings, 6-len(tt.want))
		})
	}
}

func TestParseEmpty(t *testing.T) {
	res := Parse("   ")
	assert.Empty(t, res.Attributes)
	assert.Empty(t, res.Warnings)
}

func TestParserTiersAreExclusive(t *testing.T) {
	calls := 0
	third := MatcherFunc(func(text string) (Result, bool) {
		calls++
		return Result{Attributes: map[string]string{"x": text}}, true
	})
	never := MatcherFunc(func(string) (Result, bool) { return Result{}, false })

	p := NewParser(StrictMatcher{}, never, third, KeywordMatcher{})

	res := p.Parse("ABRAZADERA FORJADA DE 1 X 10 X 20 CURVA")
	require.Equal(t, 0, calls)
	assert.Equal(t, "FORJADA", res.Attributes[AttrManufacture])
	assert.Equal(t, "1", res.Attributes[AttrSize])

	res = p.Parse("otra cosa")
	assert.Equal(t, 1, calls)
	assert.Equal(t, map[string]string{"x": "OTRA COSA"}, res.Attributes)
}

func TestHasSizeToken(t *testing.T) {
	assert.True(t, hasSizeToken("DE 1-1/2", "1-1/2"))
	assert.False(t, hasSizeToken("DE 1-1/2", "1"))
	assert.False(t, hasSizeToken("DE 1-1/2", "1/2"))
	assert.True(t, hasSizeToken("DE1/4", "1/4"))
	assert.True(t, hasSizeToken(`X 3/8" CURVA`, "3/8"))
}
