// Package postal isolates the libpostal cgo dependency behind a plain
// function so the ingestion layer and its tests stay cgo-free. Only the
// command wiring imports this package.
package postal

import (
	"strings"

	expand "github.com/openvenues/gopostal/expand"
)

// Variants returns libpostal's expansions of a Latin-script street name:
// abbreviation expansions ("St" to "street"), diacritic folding and
// spelling alternates. The input itself is excluded; callers already have
// it as a variant. Order is deterministic and duplicates are dropped.
func Variants(name string) []string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil
	}

	seen := map[string]bool{strings.ToLower(trimmed): true}
	var variants []string
	for _, v := range expand.ExpandAddress(trimmed) {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		variants = append(variants, v)
	}
	return variants
}
