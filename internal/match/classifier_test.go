package match

import (
	"fmt"
	"testing"

	"github.com/streets-name-id/internal/street"
)

func namedSegment(id, name string) street.Segment {
	return street.Segment{
		ID:         id,
		Settlement: "תל אביב",
		Names:      []street.NameVariant{{Tag: "name", Raw: name, Normalized: name}},
	}
}

func scoredAt(id string, blended float64) Scored {
	return Scored{
		RegistryID:   id,
		RegistryName: "רחוב " + id,
		VariantTag:   "name",
		Blended:      blended,
	}
}

func TestClassifyConfidentAtThreshold(t *testing.T) {
	seg := namedSegment("s1", "רוטשילד")
	result := Classify(seg, []Scored{scoredAt("100", 90)}, DefaultTiers())

	if result.Status != street.StatusConfident {
		t.Fatalf("status = %s, want %s", result.Status, street.StatusConfident)
	}
	if result.BestRegistryID != "100" || result.BestScore != 90 {
		t.Errorf("best = (%s, %v), want (100, 90)", result.BestRegistryID, result.BestScore)
	}
	if result.MatchedVariant != "name" {
		t.Errorf("matched variant = %q, want name", result.MatchedVariant)
	}
}

func TestClassifyArbitrationBand(t *testing.T) {
	seg := namedSegment("s2", "בן גוריון")
	scored := []Scored{
		scoredAt("200", 89.99),
		scoredAt("201", 80), // exactly at the floor, still eligible
		scoredAt("202", 79.99),
	}
	result := Classify(seg, scored, DefaultTiers())

	if result.Status != street.StatusNeedsArbitration {
		t.Fatalf("status = %s, want %s", result.Status, street.StatusNeedsArbitration)
	}
	if len(result.Candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(result.Candidates))
	}
	if result.Candidates[0].RegistryID != "200" || result.Candidates[1].RegistryID != "201" {
		t.Errorf("candidates = %v, want [200 201]", result.Candidates)
	}
	if result.BestRegistryID != "200" || result.BestScore != 89.99 {
		t.Errorf("best = (%s, %v), want (200, 89.99)", result.BestRegistryID, result.BestScore)
	}
}

func TestClassifyCandidateCap(t *testing.T) {
	seg := namedSegment("s3", "הרצל")
	var scored []Scored
	for i := 0; i < 8; i++ {
		scored = append(scored, scoredAt(fmt.Sprintf("%d", 300+i), 88-float64(i)))
	}
	result := Classify(seg, scored, DefaultTiers())

	if result.Status != street.StatusNeedsArbitration {
		t.Fatalf("status = %s, want %s", result.Status, street.StatusNeedsArbitration)
	}
	if len(result.Candidates) != 5 {
		t.Fatalf("got %d candidates, want cap of 5", len(result.Candidates))
	}
	if result.Candidates[0].RegistryID != "300" || result.Candidates[4].RegistryID != "304" {
		t.Errorf("cap must keep the highest-scoring candidates, got %v", result.Candidates)
	}
}

func TestClassifyMissingBelowFloor(t *testing.T) {
	seg := namedSegment("s4", "דרך לא ידועה")
	result := Classify(seg, []Scored{scoredAt("400", 42.5)}, DefaultTiers())

	if result.Status != street.StatusMissing {
		t.Fatalf("status = %s, want %s", result.Status, street.StatusMissing)
	}
	if result.BestRegistryID != "" {
		t.Errorf("below-floor result must carry no identifier, got %q", result.BestRegistryID)
	}
	if result.BestScore != 42.5 {
		t.Errorf("best score = %v, want 42.5 kept for diagnostics", result.BestScore)
	}
	if result.Candidates != nil {
		t.Errorf("below-floor result must have no candidates, got %v", result.Candidates)
	}
}

func TestClassifyMissingNoCandidates(t *testing.T) {
	seg := namedSegment("s5", "שדרות העצמאות")
	result := Classify(seg, nil, DefaultTiers())

	if result.Status != street.StatusMissing {
		t.Fatalf("status = %s, want %s", result.Status, street.StatusMissing)
	}
	if result.BestScore != 0 || result.BestRegistryID != "" {
		t.Errorf("empty scored list must classify as (MISSING, 0, no id), got (%v, %q)",
			result.BestScore, result.BestRegistryID)
	}
}

func TestClassifyNilTiersUsesDefaults(t *testing.T) {
	seg := namedSegment("s6", "ויצמן")
	result := Classify(seg, []Scored{scoredAt("600", 95)}, nil)
	if result.Status != street.StatusConfident {
		t.Errorf("status = %s, want %s with default tiers", result.Status, street.StatusConfident)
	}
}
