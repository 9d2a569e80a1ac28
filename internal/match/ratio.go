package match

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"
)

// fold lowercases and strips everything but letters, digits and spaces, so
// that the sub-metrics compare words rather than punctuation or case.
func fold(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Ratio is the edit-distance similarity of the two full strings on a
// [0,100] scale. Symmetric; identical strings score 100.
func Ratio(a, b string) float64 {
	return ratioFolded(fold(a), fold(b))
}

func ratioFolded(a, b string) float64 {
	if a == b {
		return 100
	}
	la := len([]rune(a))
	lb := len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 100
	}
	d := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(d)/float64(longest))
}

// TokenSortRatio sorts each string's whitespace tokens before comparing,
// making the score insensitive to word order.
func TokenSortRatio(a, b string) float64 {
	return ratioFolded(sortTokens(fold(a)), sortTokens(fold(b)))
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// TokenSetRatio compares on token sets: insensitive to word order AND to
// one side being a subset of the other's tokens, which is what makes
// partial names ("בן גוריון" vs "דוד בן גוריון") score near 100.
func TokenSetRatio(a, b string) float64 {
	fa, fb := fold(a), fold(b)
	if fa == "" || fb == "" {
		return ratioFolded(fa, fb)
	}
	ta := tokenSet(fa)
	tb := tokenSet(fb)

	var inter, onlyA, onlyB []string
	for tok := range ta {
		if tb[tok] {
			inter = append(inter, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range tb {
		if !ta[tok] {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(inter)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(inter, " ")
	withA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	best := ratioFolded(base, withA)
	if r := ratioFolded(base, withB); r > best {
		best = r
	}
	if r := ratioFolded(withA, withB); r > best {
		best = r
	}
	return best
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

// JaroWinkler is kept alongside the blend as an explainability feature.
func JaroWinkler(a, b string) float64 {
	return 100 * smetrics.JaroWinkler(fold(a), fold(b), 0.7, 4)
}
