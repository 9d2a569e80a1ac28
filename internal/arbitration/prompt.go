package arbitration

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/streets-name-id/internal/street"
)

// maxAdjacentNames caps the topological context included in a prompt so a
// junction-heavy segment cannot blow up the token count.
const maxAdjacentNames = 10

// PromptInput carries everything the arbitration model needs to decide one
// ambiguous segment.
type PromptInput struct {
	SegmentID     string
	SegmentName   string
	Settlement    string
	Candidates    []street.Candidate
	AdjacentNames []string
}

// SystemPrompt is the fixed instruction framing the model as a GIS
// resolver that must answer with structured JSON only.
const SystemPrompt = `אתה מערכת GIS אוטומטית המתמחה בזיהוי רחובות בישראל. ` +
	`תפקידך למצוא את המזהה הנכון של רחוב מתוך רשימת מועמדים רשמיים, ` +
	`על בסיס שם הרחוב וההקשר הטופולוגי שלו. השב ב-JSON בלבד.`

// FormatCandidates renders the candidate list in the canonical one-per-line
// form. ParseCandidates reverses this exactly, so the two must stay in sync.
func FormatCandidates(candidates []street.Candidate) string {
	lines := make([]string, 0, len(candidates))
	for _, c := range candidates {
		lines = append(lines, fmt.Sprintf("ID: %s, Name: '%s' (Score: %.2f)", c.RegistryID, c.RegistryName, c.Score))
	}
	return strings.Join(lines, "\n")
}

var candidateLineRe = regexp.MustCompile(`ID:\s*(\S+),\s*Name:\s*'([^']*)'\s*\(Score:\s*([\d.]+)\)`)

// ParseCandidates recovers a candidate list from the text produced by
// FormatCandidates. Lines that do not match the canonical form are skipped.
func ParseCandidates(text string) []street.Candidate {
	var candidates []street.Candidate
	for _, m := range candidateLineRe.FindAllStringSubmatch(text, -1) {
		score, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			continue
		}
		candidates = append(candidates, street.Candidate{
			RegistryID:   m[1],
			RegistryName: m[2],
			Score:        score,
		})
	}
	return candidates
}

// BuildPrompt assembles the user prompt for one ambiguous segment. Adjacent
// street names give the model topological context; when none are known the
// prompt says so explicitly rather than omitting the section.
func BuildPrompt(in PromptInput) string {
	adjacent := in.AdjacentNames
	if len(adjacent) > maxAdjacentNames {
		adjacent = adjacent[:maxAdjacentNames]
	}
	adjacentText := "אין מידע"
	if len(adjacent) > 0 {
		adjacentText = strings.Join(adjacent, ", ")
	}

	var b strings.Builder
	b.WriteString("המשימה: למצוא את המזהה הנכון של רחוב מתוך רשימת מועמדים רשמיים.\n\n")
	b.WriteString("פרטי הרחוב:\n")
	fmt.Fprintf(&b, "- יישוב: %s\n", in.Settlement)
	fmt.Fprintf(&b, "- שם הרחוב במפה: '%s'\n", in.SegmentName)
	fmt.Fprintf(&b, "- רחובות סמוכים (הקשר טופולוגי): %s\n\n", adjacentText)
	b.WriteString("מועמדים מהמרשם הרשמי:\n")
	b.WriteString(FormatCandidates(in.Candidates))
	b.WriteString("\n\n")
	b.WriteString("הנחיות:\n")
	b.WriteString("1. השווה את שם הרחוב במפה לשמות המועמדים.\n")
	b.WriteString("2. היעזר ברחובות הסמוכים להבנת ההקשר.\n")
	b.WriteString("3. שמות עשויים להיות שונים בגלל כינויים (\"בן גוריון\" לעומת \"דוד בן גוריון\"), ")
	b.WriteString("שמות חלקיים, שינויי איות או תוספת תואר.\n\n")
	b.WriteString("פורמט התשובה (JSON בלבד):\n")
	b.WriteString("```json\n")
	b.WriteString("{\n")
	b.WriteString("  \"registry_id\": \"המזהה של המועמד המתאים ביותר, או null אם אין התאמה\",\n")
	b.WriteString("  \"confidence\": 0.0,\n")
	b.WriteString("  \"reasoning\": \"הסבר קצר\"\n")
	b.WriteString("}\n")
	b.WriteString("```\n")
	b.WriteString("אם אין שום התאמה סבירה, החזר registry_id: null.")
	return b.String()
}
