package normalize

import (
	"testing"
)

func TestNormalizeDefaultRules(t *testing.T) {
	n := New(Options{})

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "boulevard abbreviation with apostrophe", input: "שד' רוטשילד", want: "שדרות רוטשילד"},
		{name: "boulevard abbreviation with period", input: "שד. בן גוריון", want: "שדרות בן גוריון"},
		{name: "street abbreviation", input: "רח' דיזנגוף", want: "רחוב דיזנגוף"},
		{name: "square abbreviation", input: "כי' המדינה", want: "כיכר המדינה"},
		{name: "already expanded name unchanged", input: "כיכר רבין", want: "כיכר רבין"},
		{name: "abbreviation glued to next word by period", input: "שד.רוטשילד", want: "שדרות רוטשילד"},
		{name: "short form inside longer word does not expand", input: "כינור דוד", want: "כינור דוד"},
		{name: "hyphen becomes space", input: "  בן-יהודה  ", want: "בן יהודה"},
		{name: "trailing period trimmed", input: "הרצל. ", want: "הרצל"},
		{name: "interior period splits words", input: "רחוב.הארבעה", want: "רחוב הארבעה"},
		{name: "whitespace collapsed", input: "  הנשיא   הראשון  ", want: "הנשיא הראשון"},
		{name: "geresh stripped", input: "ז׳בוטינסקי", want: "זבוטינסקי"},
		{name: "latin name keeps case", input: "King George St.", want: "King George St"},
		{name: "empty input stays empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}

			// Normalization is a fixed point after one pass.
			if again := n.Normalize(got); again != got {
				t.Errorf("Normalize not idempotent: %q -> %q -> %q", tt.input, got, again)
			}
		})
	}
}

func TestNormalizeStripGenericWords(t *testing.T) {
	n := New(Options{StripGenericWords: true})

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "leading generic word stripped", input: "שדרות רוטשילד", want: "רוטשילד"},
		{name: "abbreviation then strip", input: "שד' רוטשילד", want: "רוטשילד"},
		{name: "trailing generic word stripped", input: "מנחם בגין דרך", want: "מנחם בגין"},
		{name: "leading street word stripped", input: "רחוב הארבעה", want: "הארבעה"},
		{name: "bare generic word survives", input: "שדרות", want: "שדרות"},
		{name: "only whole-word edge tokens stripped", input: "דרך השדרה הישנה", want: "השדרה הישנה"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := n.Normalize(got); again != got {
				t.Errorf("Normalize not idempotent: %q -> %q -> %q", tt.input, got, again)
			}
		})
	}
}

func TestNormalizeCustomLatinRules(t *testing.T) {
	n := New(Options{
		Rules: []Rule{
			{Short: "blvd", Full: "boulevard"},
			{Short: "st", Full: "street"},
			{Short: "sq", Full: "square"},
		},
		StripGenericWords: true,
		GenericWords:      []string{"boulevard", "street", "square"},
	})

	tests := []struct {
		input string
		want  string
	}{
		{"Blvd. Rothschild", "Rothschild"},
		{"Rothschild Boulevard", "Rothschild"},
		{"King George St.", "King George"},
		// "sq" must not fire inside an unrelated word that starts with the
		// same two letters.
		{"Squadron Way", "Squadron Way"},
		{"The Boulevard", "The"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := n.Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizePtr(t *testing.T) {
	n := New(Options{})

	if got := n.NormalizePtr(nil); got != nil {
		t.Errorf("NormalizePtr(nil) = %v, want nil", got)
	}

	raw := " שד' רוטשילד "
	got := n.NormalizePtr(&raw)
	if got == nil || *got != "שדרות רוטשילד" {
		t.Errorf("NormalizePtr(%q) = %v, want שדרות רוטשילד", raw, got)
	}
}
