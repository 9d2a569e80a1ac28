package arbitration

import (
	"testing"
)

func TestParseVerdictFencedJSON(t *testing.T) {
	response := "הנה התשובה:\n```json\n{\n  \"registry_id\": \"1234\",\n  \"confidence\": 0.9,\n  \"reasoning\": \"התאמת כינוי\"\n}\n```"
	v, err := ParseVerdict(response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.RegistryID != "1234" {
		t.Errorf("registry id = %q, want 1234", v.RegistryID)
	}
	if v.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", v.Confidence)
	}
	if v.Reasoning != "התאמת כינוי" {
		t.Errorf("reasoning = %q", v.Reasoning)
	}
}

func TestParseVerdictPlainJSONNumericID(t *testing.T) {
	v, err := ParseVerdict(`{"registry_id": 5678, "confidence": 0.7, "reasoning": "ok"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.RegistryID != "5678" {
		t.Errorf("registry id = %q, want 5678", v.RegistryID)
	}
}

func TestParseVerdictNullIsNoMatch(t *testing.T) {
	for _, response := range []string{
		`{"registry_id": null, "confidence": 0.0, "reasoning": "אין התאמה"}`,
		`{"registry_id": "null", "confidence": 0.0, "reasoning": "אין התאמה"}`,
		`{"registry_id": "None", "confidence": 0.0, "reasoning": "אין התאמה"}`,
	} {
		v, err := ParseVerdict(response)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", response, err)
		}
		if v.Matched() {
			t.Errorf("response %q parsed as a match: %q", response, v.RegistryID)
		}
	}
}

func TestParseVerdictMessyJSON(t *testing.T) {
	// Trailing comma and a line comment, both common in model output.
	response := "```json\n{\n  \"registry_id\": \"42\", // best match\n  \"confidence\": 0.8,\n}\n```"
	v, err := ParseVerdict(response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.RegistryID != "42" {
		t.Errorf("registry id = %q, want 42", v.RegistryID)
	}
}

func TestParseVerdictKeyScanFallback(t *testing.T) {
	v, err := ParseVerdict(`the answer has "registry_id": 999 but the JSON is { broken`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.RegistryID != "999" {
		t.Errorf("registry id = %q, want 999", v.RegistryID)
	}
	if v.Confidence != 0.6 {
		t.Errorf("confidence = %v, want the partial-parse default 0.6", v.Confidence)
	}
}

func TestParseVerdictBareNumber(t *testing.T) {
	v, err := ParseVerdict("  4321 \n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.RegistryID != "4321" {
		t.Errorf("registry id = %q, want 4321", v.RegistryID)
	}
}

func TestParseVerdictUnparseable(t *testing.T) {
	v, err := ParseVerdict("אני לא בטוח מה הרחוב הנכון")
	if err == nil {
		t.Fatal("expected error for unparseable response")
	}
	if v.Matched() {
		t.Errorf("unparseable response produced a match: %q", v.RegistryID)
	}
	if v.Raw == "" {
		t.Error("raw response must be preserved for diagnostics")
	}
}
