package match

import (
	"github.com/streets-name-id/internal/street"
)

// Classify turns a segment's sorted candidate scores into a three-way
// classification. Candidates must already be restricted to the registry
// subset sharing the segment's settlement and sorted by blended score
// descending (ScoreSegment guarantees both the order and its stability).
//
// Boundary semantics: a top score exactly at the confident threshold is
// CONFIDENT; a score exactly at the arbitration floor is eligible for
// NEEDS_ARBITRATION. A segment with no name or no candidates is MISSING
// with best score 0; a segment whose best score falls below the floor is
// MISSING but keeps the best score for diagnostic visibility, never a
// best identifier.
func Classify(seg street.Segment, scored []Scored, tiers *Tiers) street.ClassificationResult {
	if tiers == nil {
		tiers = DefaultTiers()
	}

	result := street.ClassificationResult{
		SegmentID:   seg.ID,
		Settlement:  seg.Settlement,
		SegmentName: primaryName(seg),
	}

	if len(scored) == 0 {
		result.Status = street.StatusMissing
		result.BestScore = 0
		return result
	}

	top := scored[0]
	if top.Blended >= tiers.Confident {
		result.Status = street.StatusConfident
		result.BestRegistryID = top.RegistryID
		result.BestName = top.RegistryName
		result.BestScore = top.Blended
		result.MatchedVariant = top.VariantTag
		return result
	}

	maxCandidates := tiers.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = 5
	}
	var candidates []street.Candidate
	for _, sc := range scored {
		if sc.Blended < tiers.ArbitrationFloor {
			break
		}
		candidates = append(candidates, street.Candidate{
			RegistryID:   sc.RegistryID,
			RegistryName: sc.RegistryName,
			Score:        sc.Blended,
		})
		if len(candidates) == maxCandidates {
			break
		}
	}

	if len(candidates) > 0 {
		result.Status = street.StatusNeedsArbitration
		result.BestRegistryID = candidates[0].RegistryID
		result.BestName = candidates[0].RegistryName
		result.BestScore = candidates[0].Score
		result.MatchedVariant = top.VariantTag
		result.Candidates = candidates
		return result
	}

	result.Status = street.StatusMissing
	result.BestScore = top.Blended
	return result
}

func primaryName(seg street.Segment) string {
	for _, v := range seg.Names {
		if v.Normalized != "" {
			return v.Normalized
		}
	}
	return ""
}
