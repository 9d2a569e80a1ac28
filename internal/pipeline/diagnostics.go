package pipeline

import (
	"sort"

	"github.com/streets-name-id/internal/street"
)

// fillDiagnostics completes the run summary after arbitration has settled
// every classification. Unmatched registry entries are grouped by
// identifier: an identifier matched under any one of its synonym names is
// matched, full stop.
func fillDiagnostics(result *Result, subset []street.RegistryEntry) {
	d := &result.Diagnostics

	matchedIDs := make(map[string]bool, len(result.Mapping))
	for _, registryID := range result.Mapping {
		matchedIDs[registryID] = true
	}
	d.TotalMatched = len(result.Mapping)

	for _, c := range result.Classifications {
		if c.Status == street.StatusMissing {
			d.UnmatchedSegments++
			if c.SegmentName != "" {
				d.UnmatchedNames = append(d.UnmatchedNames, c.SegmentName)
			}
		}
	}
	sort.Strings(d.UnmatchedNames)

	// One representative name per identifier, first synonym encountered in
	// registry order.
	representative := make(map[string]string)
	var idOrder []string
	for _, e := range subset {
		if _, ok := representative[e.ID]; !ok {
			representative[e.ID] = e.Name
			idOrder = append(idOrder, e.ID)
		}
	}
	d.TotalRegistryIDs = len(idOrder)

	for _, id := range idOrder {
		if !matchedIDs[id] {
			d.UnmatchedRegistry = append(d.UnmatchedRegistry, street.UnmatchedRegistry{
				ID:   id,
				Name: representative[id],
			})
		}
	}
}
