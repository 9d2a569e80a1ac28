package config

import (
	"time"
)

// Settings holds the full runtime configuration, read from the environment
// with documented defaults. Thresholds are deliberately configuration: the
// confident cutoff of 90 trades some precision for substantially higher
// recall on partial/nickname name forms, which the token-set metric already
// penalizes heavily for unrelated names.
type Settings struct {
	// Match thresholds, on the [0,100] blended-score scale.
	ConfidentThreshold float64
	ArbitrationFloor   float64
	MaxCandidates      int

	// Normalization policy. Stripping generic street-type words (boulevard,
	// street, square, ...) at the edges of a name makes "Boulevard X" and
	// "X" comparable, at the risk of eating a name that legitimately ends
	// in a street-type word.
	StripGenericWords bool

	// Arbitration backend.
	OpenAIKey          string
	ArbitrationModel   string
	ArbitrationWorkers int
	RetryAttempts      int
	RetryBaseDelay     time.Duration

	// Data acquisition.
	OverpassURL        string
	RegistryURL        string
	RegistryResourceID string
	UserAgent          string
	CacheMaxAge        time.Duration

	// Report server.
	HTTPAddr string
}

// LoadSettings reads all settings from the environment (after .env merge).
func LoadSettings() *Settings {
	LoadEnv()

	return &Settings{
		ConfidentThreshold: GetEnvFloat("MATCH_CONFIDENT_THRESHOLD", 90),
		ArbitrationFloor:   GetEnvFloat("MATCH_ARBITRATION_FLOOR", 80),
		MaxCandidates:      GetEnvInt("MATCH_MAX_CANDIDATES", 5),

		StripGenericWords: GetEnvBool("NORMALIZE_STRIP_GENERIC_WORDS", true),

		OpenAIKey:          GetEnv("OPENAI_API_KEY", ""),
		ArbitrationModel:   GetEnv("ARBITRATION_MODEL", "gpt-4o-mini"),
		ArbitrationWorkers: GetEnvInt("ARBITRATION_WORKERS", 4),
		RetryAttempts:      GetEnvInt("ARBITRATION_RETRY_ATTEMPTS", 3),
		RetryBaseDelay:     time.Duration(GetEnvInt("ARBITRATION_RETRY_BASE_MS", 1000)) * time.Millisecond,

		OverpassURL:        GetEnv("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		RegistryURL:        GetEnv("REGISTRY_URL", "https://data.gov.il/api/3/action/datastore_search"),
		RegistryResourceID: GetEnv("REGISTRY_RESOURCE_ID", "bf185c7f-1a4e-4662-88c5-fa118a244bda"),
		UserAgent:          GetEnv("HTTP_USER_AGENT", "streets-name-id/1.0"),
		CacheMaxAge:        time.Duration(GetEnvInt("CACHE_MAX_AGE_DAYS", 182)) * 24 * time.Hour,

		HTTPAddr: GetEnv("HTTP_ADDR", ":8080"),
	}
}
