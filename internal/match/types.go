package match

// Scored pairs one registry entry with the similarity evidence computed
// against a segment's best-scoring name variant. Transient: recomputed per
// run, never persisted.
type Scored struct {
	RegistryID   string
	RegistryName string
	Settlement   string

	// VariantTag identifies which of the segment's name variants produced
	// this score (e.g. "name", "name:he").
	VariantTag  string
	VariantName string

	// Sub-metrics on [0,100]. Ratio and TokenSort are symmetric in their
	// two string arguments.
	Ratio     float64
	TokenSort float64
	TokenSet  float64

	// JaroWinkler is carried for explainability only; it does not take
	// part in the blend.
	JaroWinkler float64

	// Blended is the weighted combination used for classification.
	Blended float64
}

// Weights blends the three sub-metrics. The token-set metric weighs
// heaviest: it is the most forgiving of the dominant failure mode, partial
// or nickname forms ("בן גוריון" against "דוד בן גוריון"). Keep
// TokenSet >= TokenSort >= Ratio.
type Weights struct {
	Ratio     float64
	TokenSort float64
	TokenSet  float64
}

// DefaultWeights returns the blend observed to work on registry data.
func DefaultWeights() *Weights {
	return &Weights{
		Ratio:     0.2,
		TokenSort: 0.3,
		TokenSet:  0.5,
	}
}

// Tiers holds the classification thresholds on the blended [0,100] scale.
// Confident is an inclusive lower bound for CONFIDENT; ArbitrationFloor is
// an inclusive lower bound for NEEDS_ARBITRATION.
type Tiers struct {
	Confident        float64
	ArbitrationFloor float64
	MaxCandidates    int
}

// DefaultTiers returns the tier configuration: confident at 90 rather than
// the stricter 98, trading a little precision for much better recall on
// partial name forms, and an arbitration floor of 80 below which candidates
// are noise.
func DefaultTiers() *Tiers {
	return &Tiers{
		Confident:        90,
		ArbitrationFloor: 80,
		MaxCandidates:    5,
	}
}
