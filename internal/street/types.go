package street

import (
	"github.com/paulmach/orb"
)

// NameVariant is one raw name tag carried by a segment, together with its
// normalized form. OSM ways often carry several language/script variants
// (name, name:he, name:en, ...); any of them is valid match evidence.
type NameVariant struct {
	Tag        string `json:"tag"`
	Raw        string `json:"raw"`
	Normalized string `json:"normalized"`
}

// Segment is one street-network edge: stable identifier, settlement label,
// the explicit list of name variants populated at ingestion, and the line
// geometry used for endpoint adjacency.
type Segment struct {
	ID         string         `json:"id"`
	Settlement string         `json:"settlement"`
	Names      []NameVariant  `json:"names"`
	Geometry   orb.LineString `json:"geometry"`
}

// HasName reports whether the segment carries at least one non-empty
// normalized name variant.
func (s Segment) HasName() bool {
	for _, n := range s.Names {
		if n.Normalized != "" {
			return true
		}
	}
	return false
}

// RegistryEntry is one authoritative (identifier, name, settlement) row.
// Identifiers are NOT unique across rows: the same identifier appears once
// per synonym name of the same physical street, and every synonym row is a
// valid match target for that identifier.
type RegistryEntry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Settlement string `json:"settlement"`
	Normalized string `json:"normalized"`
}

// Status is the three-way classification outcome for a segment.
type Status string

const (
	StatusConfident        Status = "CONFIDENT"
	StatusNeedsArbitration Status = "NEEDS_ARBITRATION"
	StatusMissing          Status = "MISSING"
)

// Candidate is one (registry identifier, registry name, blended score)
// tuple retained for arbitration.
type Candidate struct {
	RegistryID   string  `json:"registry_id"`
	RegistryName string  `json:"registry_name"`
	Score        float64 `json:"score"`
}

// ClassificationResult is the per-segment outcome of candidate scoring.
// Exactly one status holds. CONFIDENT and NEEDS_ARBITRATION always carry a
// best registry identifier; MISSING never does (BestScore still records the
// highest score seen, for diagnostic visibility).
type ClassificationResult struct {
	SegmentID      string      `json:"segment_id"`
	Settlement     string      `json:"settlement"`
	SegmentName    string      `json:"segment_name"`
	Status         Status      `json:"status"`
	BestRegistryID string      `json:"best_registry_id,omitempty"`
	BestName       string      `json:"best_registry_name,omitempty"`
	BestScore      float64     `json:"best_score"`
	MatchedVariant string      `json:"matched_variant,omitempty"`
	Candidates     []Candidate `json:"candidates,omitempty"`
}

// FinalMapping is the externally-visible output: segment identifier to
// resolved registry identifier. Unresolved segments are absent.
type FinalMapping map[string]string

// UnmatchedRegistry describes one registry identifier that no segment
// matched under any of its synonym names. Name is one representative
// synonym for display.
type UnmatchedRegistry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ArbitrationFailure records an arbitration call or response that could not
// be turned into a verdict. The raw response is kept for manual inspection.
type ArbitrationFailure struct {
	SegmentID string `json:"segment_id"`
	Reason    string `json:"reason"`
	Raw       string `json:"raw,omitempty"`
}

// Diagnostics is the run summary. It must be producible even in a fully
// degraded run (arbitrator down): counts then simply reflect zero
// arbitration-resolved matches.
type Diagnostics struct {
	Settlement          string               `json:"settlement"`
	TotalSegments       int                  `json:"total_segments"`
	NamedSegments       int                  `json:"named_segments"`
	RejectedRecords     int                  `json:"rejected_records"`
	ConfidentMatches    int                  `json:"confident_matches"`
	ArbitrationResolved int                  `json:"arbitration_resolved"`
	ArbitrationFailed   int                  `json:"arbitration_failed"`
	TotalMatched        int                  `json:"total_matched"`
	UnmatchedSegments   int                  `json:"unmatched_segments"`
	UnmatchedNames      []string             `json:"unmatched_segment_names"`
	TotalRegistryIDs    int                  `json:"total_registry_ids"`
	UnmatchedRegistry   []UnmatchedRegistry  `json:"unmatched_registry"`
	ArbitrationFailures []ArbitrationFailure `json:"arbitration_failures,omitempty"`
}
