// Package report renders run output as tabular exports. The per-segment
// row shape is the interchange format downstream tooling consumes, so
// column order is stable.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/streets-name-id/internal/street"
)

// csvHeader is the stable column order. Appending columns is safe;
// reordering or renaming breaks downstream consumers.
var csvHeader = []string{
	"segment_id",
	"settlement",
	"segment_name",
	"status",
	"best_registry_id",
	"best_registry_name",
	"best_score",
	"matched_variant",
	"final_registry_id",
}

// WriteCSV streams one row per classification. The final identifier column
// comes from the mapping, so arbitration-resolved and score-confident
// segments render the same way.
func WriteCSV(w io.Writer, classifications []street.ClassificationResult, mapping street.FinalMapping) error {
	out := csv.NewWriter(w)
	if err := out.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, c := range classifications {
		row := []string{
			c.SegmentID,
			c.Settlement,
			c.SegmentName,
			string(c.Status),
			c.BestRegistryID,
			c.BestName,
			strconv.FormatFloat(c.BestScore, 'f', 2, 64),
			c.MatchedVariant,
			mapping[c.SegmentID],
		}
		if err := out.Write(row); err != nil {
			return fmt.Errorf("writing row for segment %s: %w", c.SegmentID, err)
		}
	}

	out.Flush()
	return out.Error()
}

// WriteUnmatchedRegistryCSV exports the unmatched registry identifiers, one
// representative name each.
func WriteUnmatchedRegistryCSV(w io.Writer, unmatched []street.UnmatchedRegistry) error {
	out := csv.NewWriter(w)
	if err := out.Write([]string{"registry_id", "name"}); err != nil {
		return err
	}
	for _, u := range unmatched {
		if err := out.Write([]string{u.ID, u.Name}); err != nil {
			return err
		}
	}
	out.Flush()
	return out.Error()
}
