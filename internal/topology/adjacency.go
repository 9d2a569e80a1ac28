package topology

import (
	"sort"

	"github.com/paulmach/orb"

	"github.com/streets-name-id/internal/street"
)

// AdjacencyMap maps a segment identifier to the sorted identifiers of the
// other segments sharing one of its endpoint coordinates. The relation is
// symmetric by construction. It must be rebuilt whenever segment geometry
// changes; it is read-only for the duration of a run.
type AdjacencyMap map[string][]string

// Adjacent returns the neighbors of the given segment, or nil.
func (m AdjacencyMap) Adjacent(segmentID string) []string {
	return m[segmentID]
}

// Build computes the adjacency map over the segments' line geometries.
// Endpoint keys use exact floating-point equality, no snapping tolerance:
// street-network sources share node coordinates verbatim between connected
// ways. Segments with fewer than two points are skipped. An isolated
// segment gets an empty (nil) adjacency set, which is not an error.
func Build(segments []street.Segment) AdjacencyMap {
	index := make(map[orb.Point][]string)
	for _, seg := range segments {
		if len(seg.Geometry) < 2 {
			continue
		}
		start := seg.Geometry[0]
		end := seg.Geometry[len(seg.Geometry)-1]
		index[start] = append(index[start], seg.ID)
		if end != start {
			index[end] = append(index[end], seg.ID)
		}
	}

	adjacency := make(AdjacencyMap, len(segments))
	for _, seg := range segments {
		if len(seg.Geometry) < 2 {
			continue
		}

		neighbors := make(map[string]bool)
		for _, key := range []orb.Point{seg.Geometry[0], seg.Geometry[len(seg.Geometry)-1]} {
			for _, other := range index[key] {
				if other != seg.ID {
					neighbors[other] = true
				}
			}
		}

		if len(neighbors) == 0 {
			adjacency[seg.ID] = nil
			continue
		}
		ids := make([]string, 0, len(neighbors))
		for id := range neighbors {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		adjacency[seg.ID] = ids
	}
	return adjacency
}
