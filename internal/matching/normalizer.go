// Package matching provides model-number normalization and fuzzy scoring.
package matching

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// BrandToken is the first-party brand prefix stripped from model strings.
const BrandToken = "AXIS"

// NormalizeStrict uppercases s and drops every character outside A-Z and 0-9.
// Accented letters are folded to their base letter first. The result is used
// for index keys and equality checks.
func NormalizeStrict(s string) string {
	s = foldAccents(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeDisplay uppercases s, removes a leading brand token and collapses
// whitespace. Only for presentation; never use it for lookups.
func NormalizeDisplay(s string) string {
	s = StripBrand(strings.ToUpper(s))
	return strings.Join(strings.Fields(s), " ")
}

// StripBrand removes a leading brand token ("Axis P3265" -> "P3265").
// The token must stand alone, so "AXISP3265" is returned unchanged.
func StripBrand(s string) string {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < len(BrandToken) || !strings.EqualFold(trimmed[:len(BrandToken)], BrandToken) {
		return trimmed
	}
	rest := trimmed[len(BrandToken):]
	if rest == "" {
		return ""
	}
	if !isBrandSeparator(rune(rest[0])) {
		return trimmed
	}
	return strings.TrimLeftFunc(rest, isBrandSeparator)
}

func isBrandSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == '-' || r == '_'
}

func foldAccents(s string) string {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return s
	}

	// transform.Chain keeps state, so each call builds its own chain.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

const utf8RuneSelf = 0x80

var (
	unitWords = map[string]int{
		"zero": 0, "oh": 0, "one": 1, "two": 2, "three": 3, "four": 4,
		"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9,
	}
	teenWords = map[string]int{
		"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
		"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
	}
	tensWords = map[string]int{
		"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
		"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
	}
	punctuationWords = map[string]string{
		"dash":   "-",
		"hyphen": "-",
		"minus":  "-",
		"period": ".",
		"dot":    ".",
		"point":  ".",
	}

	spaceAroundPunct   = regexp.MustCompile(`\s*([-./])\s*`)
	spaceBetweenDigits = regexp.MustCompile(`(\d)\s+(\d)`)
)

// NormalizeVoice cleans up a speech transcript of a model number, e.g.
// "p thirty two sixty five dash l v e" -> "P 3265-L V E".
//
// This is a lossy heuristic, not a grammar. Number and punctuation words are
// substituted first, then whitespace around punctuation and between digits is
// collapsed, then the result is uppercased.
func NormalizeVoice(s string) string {
	words := strings.Fields(strings.ToLower(s))
	out := make([]string, 0, len(words))

	for i := 0; i < len(words); i++ {
		w := strings.Trim(words[i], ",;:!?")
		switch {
		case w == "hundred":
			out = append(out, "00")
		case tensWords[w] > 0:
			n := tensWords[w]
			if i+1 < len(words) {
				if u, ok := unitWords[strings.Trim(words[i+1], ",;:!?")]; ok && u > 0 {
					n += u
					i++
				}
			}
			out = append(out, strconv.Itoa(n))
		default:
			if n, ok := teenWords[w]; ok {
				out = append(out, strconv.Itoa(n))
			} else if n, ok := unitWords[w]; ok {
				out = append(out, strconv.Itoa(n))
			} else if p, ok := punctuationWords[w]; ok {
				out = append(out, p)
			} else if w != "" {
				out = append(out, w)
			}
		}
	}

	joined := strings.Join(out, " ")
	joined = spaceAroundPunct.ReplaceAllString(joined, "$1")
	// Matches cannot overlap ("1 2 3"), so repeat until stable.
	for spaceBetweenDigits.MatchString(joined) {
		joined = spaceBetweenDigits.ReplaceAllString(joined, "$1$2")
	}
	return strings.ToUpper(strings.Join(strings.Fields(joined), " "))
}

