package match

import (
	"sort"

	"github.com/streets-name-id/internal/debug"
	"github.com/streets-name-id/internal/street"
)

// Scorer computes blended similarity scores between a segment's name
// variants and registry entries.
type Scorer struct {
	weights *Weights
}

// NewScorer creates a scorer with the default blend weights.
func NewScorer() *Scorer {
	return &Scorer{weights: DefaultWeights()}
}

// NewScorerWithWeights creates a scorer with custom blend weights.
func NewScorerWithWeights(weights *Weights) *Scorer {
	return &Scorer{weights: weights}
}

// ScorePair computes the three sub-metrics and the blend for one
// (variant name, registry name) pair.
func (s *Scorer) ScorePair(variantName, registryName string) (ratio, tokenSort, tokenSet, blended float64) {
	ratio = Ratio(variantName, registryName)
	tokenSort = TokenSortRatio(variantName, registryName)
	tokenSet = TokenSetRatio(variantName, registryName)
	blended = s.weights.Ratio*ratio + s.weights.TokenSort*tokenSort + s.weights.TokenSet*tokenSet
	return
}

// ScoreSegment scores every non-empty name variant of the segment against
// every registry entry, keeping for each entry the single best-scoring
// variant: a high score on any one variant is sufficient match evidence,
// so scores are never averaged across variants. The result is sorted by
// blended score descending; the sort is stable, so equal scores keep the
// registry input order and reruns over identical input are deterministic.
func (s *Scorer) ScoreSegment(localDebug bool, seg street.Segment, entries []street.RegistryEntry) []Scored {
	debug.Header(localDebug)
	defer debug.Footer(localDebug)

	var variants []street.NameVariant
	for _, v := range seg.Names {
		if v.Normalized != "" {
			variants = append(variants, v)
		}
	}
	if len(variants) == 0 || len(entries) == 0 {
		return nil
	}

	scored := make([]Scored, 0, len(entries))
	for _, entry := range entries {
		best := Scored{
			RegistryID:   entry.ID,
			RegistryName: entry.Normalized,
			Settlement:   entry.Settlement,
			Blended:      -1,
		}
		for _, v := range variants {
			ratio, tokenSort, tokenSet, blended := s.ScorePair(v.Normalized, entry.Normalized)
			if blended > best.Blended {
				best.VariantTag = v.Tag
				best.VariantName = v.Normalized
				best.Ratio = ratio
				best.TokenSort = tokenSort
				best.TokenSet = tokenSet
				best.Blended = blended
			}
		}
		best.JaroWinkler = JaroWinkler(best.VariantName, entry.Normalized)
		scored = append(scored, best)

		debug.Output(localDebug, "Segment %s vs %s (%s): ratio=%.1f sort=%.1f set=%.1f blended=%.2f",
			seg.ID, entry.ID, entry.Normalized, best.Ratio, best.TokenSort, best.TokenSet, best.Blended)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Blended > scored[j].Blended
	})
	return scored
}
