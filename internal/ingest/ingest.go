// Package ingest converts raw network and registry records into the
// validated internal shapes the pipeline operates on. All name
// normalization happens here, once, so downstream code never re-derives
// comparable forms or sniffs tag columns.
package ingest

import (
	"sort"
	"strings"
	"unicode"

	"github.com/paulmach/orb"

	"github.com/streets-name-id/internal/normalize"
	"github.com/streets-name-id/internal/street"
)

// nameTagOrder fixes which tags become name variants and in what order.
// The first non-empty normalized variant is the segment's display name, so
// the local-script name leads.
var nameTagOrder = []string{"name", "name:he", "name:en", "alt_name", "old_name"}

// RawSegment is a street-network edge as fetched, before validation.
type RawSegment struct {
	ID         string
	Settlement string
	Tags       map[string]string
	Geometry   orb.LineString
}

// RawRegistryRow is one government registry record as fetched.
type RawRegistryRow struct {
	ID         string
	Name       string
	Settlement string
}

// Report counts what validation rejected, keyed by reason.
type Report struct {
	Accepted int
	Rejected map[string]int
}

func newReport() *Report {
	return &Report{Rejected: make(map[string]int)}
}

func (r *Report) reject(reason string) {
	r.Rejected[reason]++
}

// TotalRejected sums the per-reason rejection counts.
func (r *Report) TotalRejected() int {
	total := 0
	for _, n := range r.Rejected {
		total += n
	}
	return total
}

// Ingestor validates raw records and attaches normalized name variants.
// Expand, when set, maps a Latin-script name to additional comparable
// forms (a libpostal hook); it is optional and never required for
// correctness.
type Ingestor struct {
	Normalizer *normalize.Normalizer
	Expand     func(name string) []string
}

// NewIngestor builds an ingestor over the given normalizer.
func NewIngestor(n *normalize.Normalizer) *Ingestor {
	return &Ingestor{Normalizer: n}
}

// Segments validates raw segments and builds their name-variant lists.
// A segment needs an identifier, a settlement, and a geometry of at least
// two points; nameless segments are kept (they classify as MISSING with a
// zero score) but counted separately by the caller via HasName.
func (ing *Ingestor) Segments(raws []RawSegment) ([]street.Segment, *Report) {
	report := newReport()
	segments := make([]street.Segment, 0, len(raws))
	for _, raw := range raws {
		if raw.ID == "" {
			report.reject("missing identifier")
			continue
		}
		if strings.TrimSpace(raw.Settlement) == "" {
			report.reject("missing settlement")
			continue
		}
		if len(raw.Geometry) < 2 {
			report.reject("degenerate geometry")
			continue
		}

		seg := street.Segment{
			ID:         raw.ID,
			Settlement: strings.TrimSpace(raw.Settlement),
			Names:      ing.variants(raw.Tags),
			Geometry:   raw.Geometry,
		}
		segments = append(segments, seg)
		report.Accepted++
	}
	return segments, report
}

func (ing *Ingestor) variants(tags map[string]string) []street.NameVariant {
	var variants []street.NameVariant
	seen := make(map[string]bool)
	add := func(tag, raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return
		}
		normalized := ing.Normalizer.Normalize(raw)
		if normalized == "" || seen[normalized] {
			return
		}
		seen[normalized] = true
		variants = append(variants, street.NameVariant{Tag: tag, Raw: raw, Normalized: normalized})
	}

	for _, tag := range nameTagOrder {
		add(tag, tags[tag])
	}

	if ing.Expand != nil {
		// Expand only Latin-script variants; libpostal's expansions of
		// Hebrew text are not meaningful here.
		for _, v := range append([]street.NameVariant(nil), variants...) {
			if !isLatin(v.Raw) {
				continue
			}
			for _, expanded := range ing.Expand(v.Raw) {
				add(v.Tag+":expanded", expanded)
			}
		}
	}
	return variants
}

// Registry validates registry rows, normalizes their names, and
// deduplicates on the (identifier, name, settlement) triple. Synonym rows
// sharing an identifier all survive; they are distinct match targets for
// the same street.
func (ing *Ingestor) Registry(rows []RawRegistryRow) ([]street.RegistryEntry, *Report) {
	report := newReport()
	type triple struct{ id, name, settlement string }
	seen := make(map[triple]bool)

	entries := make([]street.RegistryEntry, 0, len(rows))
	for _, row := range rows {
		id := strings.TrimSpace(row.ID)
		name := strings.TrimSpace(row.Name)
		settlement := strings.TrimSpace(row.Settlement)
		if id == "" {
			report.reject("missing identifier")
			continue
		}
		if name == "" {
			report.reject("missing name")
			continue
		}
		if settlement == "" {
			report.reject("missing settlement")
			continue
		}

		key := triple{id, name, settlement}
		if seen[key] {
			report.reject("duplicate triple")
			continue
		}
		seen[key] = true

		normalized := ing.Normalizer.Normalize(name)
		if normalized == "" {
			report.reject("name normalized to empty")
			continue
		}
		entries = append(entries, street.RegistryEntry{
			ID:         id,
			Name:       name,
			Settlement: settlement,
			Normalized: normalized,
		})
		report.Accepted++
	}
	return entries, report
}

// Settlements lists the distinct settlements present in the registry,
// sorted for deterministic batch iteration.
func Settlements(entries []street.RegistryEntry) []string {
	set := make(map[string]bool)
	for _, e := range entries {
		set[e.Settlement] = true
	}
	names := make([]string, 0, len(set))
	for s := range set {
		names = append(names, s)
	}
	sort.Strings(names)
	return names
}

func isLatin(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Hebrew, r) || unicode.Is(unicode.Arabic, r) || unicode.Is(unicode.Cyrillic, r) {
			return false
		}
	}
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}
