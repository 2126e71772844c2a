// CLAUDE:SUMMARY Canonicalizes raw region and state names into comparable keys (Normalize, SuperNormalize, composite Key).
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer transforms a raw name before comparison.
type Normalizer func(string) string

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var (
	trailingParen = regexp.MustCompile(`\(([^()]*)\)\s*$`)
	ampersand     = regexp.MustCompile(`\s*&\s*`)
	spaces        = regexp.MustCompile(`\s+`)
)

// qualifiers are words inside a trailing parenthetical that carry a real
// distinction (24 Parganas (North) vs 24 Parganas (South)) and must survive.
var qualifiers = map[string]bool{
	"north": true, "south": true, "east": true, "west": true,
	"northeast": true, "northwest": true, "southeast": true, "southwest": true,
	"central": true, "upper": true, "lower": true,
	"metro": true, "metropolitan": true, "rural": true, "urban": true, "city": true,
}

// districtWords are trailing whole words meaning "district".
var districtWords = map[string]bool{
	"district": true, "zila": true, "zilla": true, "zillah": true, "jilla": true, "jila": true,
}

// Normalize canonicalizes a raw region name. It never fails; empty input
// yields "". Normalize(Normalize(x)) == Normalize(x) for every x.
func Normalize(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	if s == "" {
		return ""
	}
	s = norm.NFC.String(s)
	s = spliceParenthetical(s)
	s = ampersand.ReplaceAllString(s, " and ")
	s = spaces.ReplaceAllString(s, " ")
	s = strings.Map(keepRune, s)
	// Stripping can leave doubled spaces ("a . b").
	s = strings.TrimSpace(spaces.ReplaceAllString(s, " "))
	// A dropped rune may have separated a base letter from its mark ("e.\u0301").
	s = norm.NFC.String(s)
	s = dropDistrictSuffix(s)
	return strings.TrimSpace(s)
}

// SuperNormalize is the last-resort key: Normalize, fold accents, then keep
// letters and digits only. "North Twenty-Four Parganas" -> "northtwentyfourparganas".
func SuperNormalize(raw string) string {
	s := Normalize(raw)
	if s == "" {
		return ""
	}
	s, _, _ = transform.String(stripAccents, s)
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// Key is the canonical lookup key of a source region: "<state>:<district>",
// both halves normalized.
type Key string

// NewKey builds the composite key for a raw (state, district) pair.
func NewKey(state, district string) Key {
	return Key(Normalize(state) + ":" + Normalize(district))
}

// Split returns the normalized state and district halves of the key.
func (k Key) Split() (state, district string) {
	state, district, _ = strings.Cut(string(k), ":")
	return state, district
}

func (k Key) String() string { return string(k) }

// spliceParenthetical keeps a trailing "(North)" as a suffix word and drops
// any other trailing parenthetical as an alternate-spelling footnote.
func spliceParenthetical(s string) string {
	loc := trailingParen.FindStringSubmatchIndex(s)
	if loc == nil {
		return s
	}
	main := strings.TrimSpace(s[:loc[0]])
	inner := strings.TrimSpace(s[loc[2]:loc[3]])
	if main == "" {
		// Nothing outside the parentheses: the contents are the name.
		return inner
	}
	if hasQualifier(inner) {
		return main + " " + inner
	}
	return main
}

func hasQualifier(s string) bool {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if qualifiers[w] {
			return true
		}
	}
	return false
}

func keepRune(r rune) rune {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == ' ' || r == '-' {
		return r
	}
	if unicode.IsSpace(r) {
		return ' '
	}
	return -1
}

// dropDistrictSuffix removes trailing "district" words, repeatedly, but never
// empties the name ("District" alone stays as is).
func dropDistrictSuffix(s string) string {
	for {
		i := strings.LastIndexByte(s, ' ')
		if i < 0 || !districtWords[s[i+1:]] {
			return s
		}
		s = strings.TrimSpace(s[:i])
	}
}
