package arbitration

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Verdict is the parsed outcome of one arbitration call. An empty
// RegistryID means the model declined to match; Raw keeps the unparsed
// response for diagnostics.
type Verdict struct {
	RegistryID string
	Confidence float64
	Reasoning  string
	Raw        string
}

// Matched reports whether the verdict names a registry identifier.
func (v Verdict) Matched() bool {
	return v.RegistryID != ""
}

var (
	jsonFenceRe     = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	jsonObjectRe    = regexp.MustCompile(`(?s)\{.*?\}`)
	idKeyRe         = regexp.MustCompile(`"registry_id"\s*:\s*"?(\d+)"?`)
	bareNumberRe    = regexp.MustCompile(`^\d+$`)
	lineCommentRe   = regexp.MustCompile(`(?m)//.*$`)
	trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)
)

type verdictPayload struct {
	RegistryID json.RawMessage `json:"registry_id"`
	Confidence json.Number     `json:"confidence"`
	Reasoning  string          `json:"reasoning"`
}

// ParseVerdict extracts a verdict from a model response. Models do not
// reliably honor the JSON-only instruction, so parsing degrades through a
// ladder: a fenced JSON block, then any brace-delimited object, then a
// registry_id key in broken JSON, then a response that is nothing but a
// number. Only when every rung fails is an error returned.
func ParseVerdict(response string) (Verdict, error) {
	verdict := Verdict{Raw: response}

	candidateJSON := ""
	if m := jsonFenceRe.FindStringSubmatch(response); m != nil {
		candidateJSON = m[1]
	} else if m := jsonObjectRe.FindString(response); m != "" {
		candidateJSON = m
	}

	if candidateJSON != "" {
		cleaned := trailingCommaRe.ReplaceAllString(lineCommentRe.ReplaceAllString(candidateJSON, ""), "$1")
		var payload verdictPayload
		if err := json.Unmarshal([]byte(cleaned), &payload); err == nil {
			verdict.RegistryID = decodeRegistryID(payload.RegistryID)
			if payload.Confidence != "" {
				verdict.Confidence, _ = payload.Confidence.Float64()
			}
			verdict.Reasoning = payload.Reasoning
			return verdict, nil
		}
	}

	if m := idKeyRe.FindStringSubmatch(response); m != nil {
		verdict.RegistryID = m[1]
		verdict.Confidence = 0.6
		verdict.Reasoning = "extracted identifier from partial JSON"
		return verdict, nil
	}

	trimmed := strings.TrimSpace(response)
	if bareNumberRe.MatchString(trimmed) {
		verdict.RegistryID = trimmed
		verdict.Confidence = 0.5
		verdict.Reasoning = "response was a bare identifier"
		return verdict, nil
	}

	return verdict, fmt.Errorf("unparseable arbitration response: %q", truncate(response, 120))
}

// decodeRegistryID handles the identifier arriving as a JSON string, a
// number, or an explicit null/none.
func decodeRegistryID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		asString = strings.TrimSpace(asString)
		lower := strings.ToLower(asString)
		if lower == "null" || lower == "none" {
			return ""
		}
		return asString
	}
	var asNumber json.Number
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return asNumber.String()
	}
	if string(raw) == "null" {
		return ""
	}
	return strings.Trim(string(raw), `"`)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
