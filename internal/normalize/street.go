package normalize

import (
	"regexp"
	"strings"
)

// Rule expands one street-type abbreviation to its full word form. The
// short form matches as a whole word, optionally followed by a period or an
// apostrophe (regular or Hebrew geresh), case-insensitive for Latin input.
type Rule struct {
	Short string
	Full  string
}

// DefaultRules returns the abbreviation rules for Hebrew street registries.
func DefaultRules() []Rule {
	return []Rule{
		{Short: "שד", Full: "שדרות"}, // boulevard
		{Short: "רח", Full: "רחוב"},  // street
		{Short: "כי", Full: "כיכר"},  // square
		{Short: "סמ", Full: "סמטה"},  // alley
	}
}

// DefaultGenericWords returns the generic street-type words that may be
// stripped from the edges of a normalized name.
func DefaultGenericWords() []string {
	return []string{"שדרות", "רחוב", "כיכר", "דרך", "סמטה", "שביל"}
}

// Options configures a Normalizer. Zero values fall back to the defaults,
// except StripGenericWords which is an explicit policy choice: stripping
// makes "שדרות רוטשילד" and "רוטשילד" comparable, at the risk of eating a
// name whose distinguishing part is itself a street-type word. Both sides
// of a comparison must go through the same policy.
type Options struct {
	Rules             []Rule
	StripGenericWords bool
	GenericWords      []string
}

type compiledRule struct {
	re   *regexp.Regexp
	full string
}

// Normalizer canonicalizes raw street-name strings for comparison.
type Normalizer struct {
	rules        []compiledRule
	stripGeneric bool
	generic      map[string]bool
}

// Go's \b is ASCII-only, so whole-word boundaries around Hebrew tokens need
// explicit non-letter/non-digit groups.
const boundaryBefore = `(^|[^\p{L}\p{N}])`
const boundaryAfter = `($|[^\p{L}\p{N}])`

var punctuation = regexp.MustCompile(`[.,\-־–—]`)
var apostrophes = strings.NewReplacer("'", "", "׳", "", "’", "")
var whitespace = regexp.MustCompile(`\s+`)

// New builds a Normalizer from the given options.
func New(opts Options) *Normalizer {
	rules := opts.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	words := opts.GenericWords
	if words == nil {
		words = DefaultGenericWords()
	}

	n := &Normalizer{
		stripGeneric: opts.StripGenericWords,
		generic:      make(map[string]bool, len(words)),
	}
	for _, w := range words {
		n.generic[strings.ToLower(w)] = true
	}
	for _, r := range rules {
		pattern := `(?i)` + boundaryBefore + regexp.QuoteMeta(r.Short) + `['׳.]?` + boundaryAfter
		n.rules = append(n.rules, compiledRule{
			re:   regexp.MustCompile(pattern),
			full: r.Full,
		})
	}
	return n
}

// Normalize canonicalizes one raw street name. Empty input stays empty.
// The transform is idempotent: applying it twice yields the same string.
func (n *Normalizer) Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}

	// Expand abbreviations before touching punctuation: the trailing period
	// or apostrophe is the abbreviation marker.
	for _, r := range n.rules {
		s = r.re.ReplaceAllString(s, "${1}"+r.full+"${2}")
	}

	// Apostrophes left behind by abbreviation markers carry no meaning.
	s = apostrophes.Replace(s)

	// Separator punctuation becomes a space, not nothing, so adjacent words
	// are not fused.
	s = punctuation.ReplaceAllString(s, " ")
	s = strings.TrimSpace(whitespace.ReplaceAllString(s, " "))

	if n.stripGeneric {
		s = n.stripGenericWords(s)
	}
	return s
}

// NormalizePtr is the nil-preserving form for optional name fields.
func (n *Normalizer) NormalizePtr(raw *string) *string {
	if raw == nil {
		return nil
	}
	s := n.Normalize(*raw)
	return &s
}

// stripGenericWords removes generic street-type words from the edges of the
// name, but never erases the whole string: a street literally named
// "שדרות" keeps its name.
func (n *Normalizer) stripGenericWords(s string) string {
	tokens := strings.Fields(s)
	for len(tokens) > 1 && n.generic[strings.ToLower(tokens[0])] {
		tokens = tokens[1:]
	}
	for len(tokens) > 1 && n.generic[strings.ToLower(tokens[len(tokens)-1])] {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}
