// Package abrazadera extracts structured attributes from free-text pipe
// clamp descriptions such as "ABRAZADERA TREFILADA DE 1/2 X 85 X 260 CURVA".
package abrazadera

import (
	"regexp"
	"slices"
	"strings"
)

// Result is the outcome of parsing one description.
type Result struct {
	Attributes map[string]string `json:"attributes"`
	Warnings   []string          `json:"warnings"`
}

// Matcher tries one extraction strategy on upper-cased, trimmed text. When
// ok is false the parser moves on to the next matcher.
type Matcher interface {
	Match(text string) (res Result, ok bool)
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(text string) (Result, bool)

func (f MatcherFunc) Match(text string) (Result, bool) { return f(text) }

// Parser runs its matchers in order and returns the first success.
type Parser struct {
	matchers []Matcher
}

func NewParser(matchers ...Matcher) *Parser {
	return &Parser{matchers: matchers}
}

// DefaultParser tries the canonical phrase shape first and falls back to a
// keyword scan.
var DefaultParser = NewParser(StrictMatcher{}, KeywordMatcher{})

// Parse runs DefaultParser.
func Parse(text string) Result {
	return DefaultParser.Parse(text)
}

func (p *Parser) Parse(text string) Result {
	text = strings.ToUpper(strings.TrimSpace(text))
	if text == "" {
		return newResult()
	}
	for _, m := range p.matchers {
		if res, ok := m.Match(text); ok {
			return res
		}
	}
	return newResult()
}

func newResult() Result {
	return Result{Attributes: map[string]string{}, Warnings: []string{}}
}

var strictPattern = regexp.MustCompile(
	`(?i)ABRAZADERA\s+(?P<tipo>TREFILADA|LAMINADA|FORJADA)\s+(?:DE\s+)?(?P<medida>[^X]+?)\s+X\s+(?P<ancho>\d+)\s+X\s+(?P<largo>\d+)\s+(?P<forma>.*)`)

// StrictMatcher recognises "<TYPE> [DE] <SIZE> X <WIDTH> X <LENGTH> <SHAPE>".
// A match yields all five fields and no warnings.
type StrictMatcher struct{}

func (StrictMatcher) Match(text string) (Result, bool) {
	m := strictPattern.FindStringSubmatch(text)
	if m == nil {
		return Result{}, false
	}
	group := func(name string) string {
		return m[strictPattern.SubexpIndex(name)]
	}

	res := newResult()
	res.Attributes[AttrManufacture] = strings.ToUpper(group("tipo"))
	res.Attributes[AttrSize] = NormalizeSize(group("medida"))
	res.Attributes[AttrWidth] = group("ancho")
	res.Attributes[AttrLength] = group("largo")
	res.Attributes[AttrShape] = strings.TrimSpace(group("forma"))
	return res, true
}

var (
	dimensionPattern = regexp.MustCompile(`\s*X\s*(\d+)`)
	fractionPattern  = regexp.MustCompile(`\b(\d+(?:-\d+)?/\d+)\b`)
	wholeInchPattern = regexp.MustCompile(`\b([1-4])\b`)
)

// KeywordMatcher scans for each attribute independently. It always
// succeeds; every attribute it cannot find adds a warning.
type KeywordMatcher struct{}

func (KeywordMatcher) Match(text string) (Result, bool) {
	res := newResult()
	found := func(attr, value, warning string) {
		if value == "" {
			res.Warnings = append(res.Warnings, warning)
			return
		}
		res.Attributes[attr] = value
	}

	found(AttrManufacture, firstSynonym(text, manufactureTypes),
		"manufacture type not detected (TREFILADA/LAMINADA)")
	found(AttrSize, extractSize(text), "size in inches not detected")

	var width, length string
	if dims := dimensionPattern.FindAllStringSubmatch(text, 2); len(dims) > 0 {
		width = dims[0][1]
		if len(dims) > 1 {
			length = dims[1][1]
		}
	}
	found(AttrWidth, width, "width not detected")
	found(AttrLength, length, "length not detected")

	found(AttrMaterial, firstSynonym(text, materials), "material not detected")

	var shape string
	if i := slices.IndexFunc(shapes, func(s string) bool { return strings.Contains(text, s) }); i >= 0 {
		shape = shapes[i]
	}
	found(AttrShape, shape, "shape not detected")

	return res, true
}

func firstSynonym(text string, table []synonyms) string {
	for _, entry := range table {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				return entry.value
			}
		}
	}
	return ""
}

// extractSize looks for a standard size first, then any fraction, then a
// whole inch from 1 to 4 followed by a quote or a space.
func extractSize(text string) string {
	for _, size := range StandardSizes {
		if hasSizeToken(text, size) {
			return size
		}
	}

	if m := fractionPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}

	for _, m := range wholeInchPattern.FindAllStringSubmatch(text, -1) {
		n := m[1]
		if strings.Contains(text, " "+n+`"`) || strings.Contains(text, " "+n+" ") {
			return n
		}
	}
	return ""
}

// hasSizeToken reports whether size appears as a whole token introduced by
// a space or "DE". "1" must not match inside "1-1/2".
func hasSizeToken(text, size string) bool {
	for from := 0; from < len(text); {
		i := strings.Index(text[from:], size)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(size)

		before := text[:start]
		leftOK := before == "" || strings.HasSuffix(before, " ") || strings.HasSuffix(before, "DE")
		rightOK := end == len(text) || strings.ContainsRune(` "'X`, rune(text[end]))
		if leftOK && rightOK {
			return true
		}
		from = start + 1
	}
	return false
}

// NormalizeSize trims a size and drops inch quote marks.
func NormalizeSize(size string) string {
	size = strings.TrimSpace(size)
	if slices.Contains(StandardSizes, size) {
		return size
	}
	return strings.TrimSpace(strings.NewReplacer(`"`, "", "'", "").Replace(size))
}
