package ingest

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/streets-name-id/internal/normalize"
	"github.com/streets-name-id/internal/street"
)

func testIngestor() *Ingestor {
	return NewIngestor(normalize.New(normalize.Options{
		Rules:             normalize.DefaultRules(),
		StripGenericWords: true,
		GenericWords:      normalize.DefaultGenericWords(),
	}))
}

func line(points ...orb.Point) orb.LineString {
	return orb.LineString(points)
}

func TestSegmentsValidation(t *testing.T) {
	raws := []RawSegment{
		{ID: "w1", Settlement: "תל אביב", Tags: map[string]string{"name": "רח' הרצל"}, Geometry: line(orb.Point{0, 0}, orb.Point{1, 1})},
		{ID: "", Settlement: "תל אביב", Geometry: line(orb.Point{0, 0}, orb.Point{1, 1})},
		{ID: "w3", Settlement: "  ", Geometry: line(orb.Point{0, 0}, orb.Point{1, 1})},
		{ID: "w4", Settlement: "תל אביב", Geometry: line(orb.Point{0, 0})},
	}

	segments, report := testIngestor().Segments(raws)
	if len(segments) != 1 {
		t.Fatalf("got %d segments, want 1", len(segments))
	}
	if report.Accepted != 1 {
		t.Errorf("accepted = %d, want 1", report.Accepted)
	}
	if report.TotalRejected() != 3 {
		t.Errorf("rejected = %d, want 3 (%v)", report.TotalRejected(), report.Rejected)
	}
	for _, reason := range []string{"missing identifier", "missing settlement", "degenerate geometry"} {
		if report.Rejected[reason] != 1 {
			t.Errorf("rejected[%q] = %d, want 1", reason, report.Rejected[reason])
		}
	}
	if got := segments[0].Names[0].Normalized; got != "הרצל" {
		t.Errorf("normalized name = %q, want הרצל", got)
	}
}

func TestSegmentVariantOrderAndDedupe(t *testing.T) {
	raws := []RawSegment{{
		ID:         "w10",
		Settlement: "חיפה",
		Tags: map[string]string{
			"name":    "שד' בן גוריון",
			"name:he": "שדרות בן גוריון", // same normalized form as name
			"name:en": "Ben Gurion Blvd",
		},
		Geometry: line(orb.Point{0, 0}, orb.Point{1, 0}),
	}}

	segments, _ := testIngestor().Segments(raws)
	names := segments[0].Names
	if len(names) != 2 {
		t.Fatalf("got %d variants, want 2 after dedupe: %v", len(names), names)
	}
	if names[0].Tag != "name" || names[0].Normalized != "בן גוריון" {
		t.Errorf("first variant = %+v, want the primary local-script name", names[0])
	}
	if names[1].Tag != "name:en" {
		t.Errorf("second variant tag = %q, want name:en", names[1].Tag)
	}
}

func TestSegmentsKeepNameless(t *testing.T) {
	raws := []RawSegment{{
		ID: "w20", Settlement: "חיפה",
		Geometry: line(orb.Point{0, 0}, orb.Point{1, 0}),
	}}
	segments, report := testIngestor().Segments(raws)
	if len(segments) != 1 || report.Accepted != 1 {
		t.Fatalf("nameless segment must survive validation")
	}
	if segments[0].HasName() {
		t.Error("segment without tags must report no name")
	}
}

func TestSegmentsExpandHookLatinOnly(t *testing.T) {
	ing := testIngestor()
	var expanded []string
	ing.Expand = func(name string) []string {
		expanded = append(expanded, name)
		return []string{name + " expanded"}
	}

	raws := []RawSegment{{
		ID: "w30", Settlement: "חיפה",
		Tags:     map[string]string{"name": "העצמאות", "name:en": "HaAtzmaut St"},
		Geometry: line(orb.Point{0, 0}, orb.Point{1, 0}),
	}}
	segments, _ := ing.Segments(raws)

	if len(expanded) != 1 || expanded[0] != "HaAtzmaut St" {
		t.Fatalf("expand hook called with %v, want only the Latin variant", expanded)
	}
	names := segments[0].Names
	last := names[len(names)-1]
	if last.Tag != "name:en:expanded" {
		t.Errorf("expanded variant tag = %q, want name:en:expanded", last.Tag)
	}
}

func TestRegistryDedupeKeepsSynonyms(t *testing.T) {
	// The second row is a synonym of the first (kept); the third repeats
	// the first triple exactly (dropped).
	rows := []RawRegistryRow{
		{ID: "100", Name: "דוד בן גוריון", Settlement: "תל אביב"},
		{ID: "100", Name: "בן גוריון", Settlement: "תל אביב"},
		{ID: "100", Name: "דוד בן גוריון", Settlement: "תל אביב"},
		{ID: "", Name: "חסר מזהה", Settlement: "תל אביב"},
		{ID: "101", Name: "", Settlement: "תל אביב"},
		{ID: "102", Name: "הרצל", Settlement: ""},
	}

	entries, report := testIngestor().Registry(rows)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %v", len(entries), entries)
	}
	if entries[0].ID != "100" || entries[1].ID != "100" {
		t.Errorf("synonym rows must keep their shared identifier")
	}
	if report.Rejected["duplicate triple"] != 1 {
		t.Errorf("duplicate triple rejections = %d, want 1", report.Rejected["duplicate triple"])
	}
	if report.TotalRejected() != 4 {
		t.Errorf("total rejected = %d, want 4 (%v)", report.TotalRejected(), report.Rejected)
	}
}

func TestSettlementsSortedDistinct(t *testing.T) {
	entries := []street.RegistryEntry{
		{ID: "1", Settlement: "חיפה"},
		{ID: "2", Settlement: "תל אביב"},
		{ID: "3", Settlement: "חיפה"},
	}
	got := Settlements(entries)
	if len(got) != 2 || got[0] != "חיפה" || got[1] != "תל אביב" {
		t.Errorf("settlements = %v, want [חיפה תל אביב]", got)
	}
}
