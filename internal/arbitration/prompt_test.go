package arbitration

import (
	"fmt"
	"strings"
	"testing"

	"github.com/streets-name-id/internal/street"
)

func sampleCandidates() []street.Candidate {
	return []street.Candidate{
		{RegistryID: "1234", RegistryName: "דוד בן גוריון", Score: 84.62},
		{RegistryID: "5678", RegistryName: "בן גוריון הצעיר", Score: 81.5},
	}
}

func TestFormatCandidatesRoundTrip(t *testing.T) {
	want := sampleCandidates()
	got := ParseCandidates(FormatCandidates(want))

	if len(got) != len(want) {
		t.Fatalf("round trip returned %d candidates, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].RegistryID != want[i].RegistryID {
			t.Errorf("candidate %d id = %q, want %q", i, got[i].RegistryID, want[i].RegistryID)
		}
		if got[i].RegistryName != want[i].RegistryName {
			t.Errorf("candidate %d name = %q, want %q", i, got[i].RegistryName, want[i].RegistryName)
		}
		if got[i].Score != want[i].Score {
			t.Errorf("candidate %d score = %v, want %v", i, got[i].Score, want[i].Score)
		}
	}
}

func TestParseCandidatesSkipsMalformedLines(t *testing.T) {
	text := "ID: 1234, Name: 'הרצל' (Score: 85.00)\n" +
		"this line is noise\n" +
		"ID: 5678, Name: 'ויצמן' (Score: 82.10)"
	got := ParseCandidates(text)
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	if got[0].RegistryID != "1234" || got[1].RegistryID != "5678" {
		t.Errorf("unexpected ids: %q, %q", got[0].RegistryID, got[1].RegistryID)
	}
}

func TestBuildPromptIncludesContext(t *testing.T) {
	prompt := BuildPrompt(PromptInput{
		SegmentID:     "w100",
		SegmentName:   "בן גוריון",
		Settlement:    "תל אביב",
		Candidates:    sampleCandidates(),
		AdjacentNames: []string{"רוטשילד", "אלנבי"},
	})

	for _, fragment := range []string{
		"תל אביב",
		"'בן גוריון'",
		"רוטשילד, אלנבי",
		"ID: 1234, Name: 'דוד בן גוריון' (Score: 84.62)",
		"registry_id",
	} {
		if !strings.Contains(prompt, fragment) {
			t.Errorf("prompt missing %q", fragment)
		}
	}
}

func TestBuildPromptCapsAdjacentNames(t *testing.T) {
	adjacent := make([]string, 15)
	for i := range adjacent {
		adjacent[i] = fmt.Sprintf("רחוב מספר %d", i)
	}
	prompt := BuildPrompt(PromptInput{
		SegmentName:   "הרצל",
		Settlement:    "חיפה",
		Candidates:    sampleCandidates(),
		AdjacentNames: adjacent,
	})
	if strings.Contains(prompt, adjacent[10]) {
		t.Error("prompt includes adjacent names beyond the cap")
	}
	if !strings.Contains(prompt, adjacent[9]) {
		t.Error("prompt missing the last adjacent name inside the cap")
	}
}

func TestBuildPromptNoAdjacency(t *testing.T) {
	prompt := BuildPrompt(PromptInput{
		SegmentName: "הרצל",
		Settlement:  "חיפה",
		Candidates:  sampleCandidates(),
	})
	if !strings.Contains(prompt, "אין מידע") {
		t.Error("prompt must state explicitly that no adjacency context exists")
	}
}
