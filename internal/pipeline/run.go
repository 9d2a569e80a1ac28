// Package pipeline sequences normalization, adjacency indexing, candidate
// scoring, classification and arbitration over one settlement's data, and
// batches settlements with failure isolation.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/streets-name-id/internal/arbitration"
	"github.com/streets-name-id/internal/debug"
	"github.com/streets-name-id/internal/match"
	"github.com/streets-name-id/internal/retry"
	"github.com/streets-name-id/internal/street"
	"github.com/streets-name-id/internal/topology"
)

// Orchestrator runs the reconciliation pipeline for one settlement at a
// time. The zero value is not usable; construct with NewOrchestrator.
type Orchestrator struct {
	Scorer      *match.Scorer
	Tiers       *match.Tiers
	Arbitrator  arbitration.Client
	Retry       *retry.Policy
	Parallelism int
	Debug       bool
}

// NewOrchestrator builds an orchestrator with default tiers and retry
// policy. A nil arbitrator is allowed: arbitration-tier segments then
// degrade to MISSING and are counted as arbitration failures.
func NewOrchestrator(arbitrator arbitration.Client) *Orchestrator {
	return &Orchestrator{
		Scorer:      match.NewScorer(),
		Tiers:       match.DefaultTiers(),
		Arbitrator:  arbitrator,
		Retry:       retry.DefaultPolicy(),
		Parallelism: 4,
	}
}

// Result is one settlement's complete pipeline output.
type Result struct {
	Settlement      string
	Classifications []street.ClassificationResult
	Mapping         street.FinalMapping
	Diagnostics     street.Diagnostics
	Adjacency       topology.AdjacencyMap
}

// Run reconciles one settlement's segments against its registry subset.
// Segments and entries must already be normalized (the ingest package's
// contract); entries from other settlements are ignored.
func (o *Orchestrator) Run(ctx context.Context, settlement string, segments []street.Segment, entries []street.RegistryEntry) (*Result, error) {
	if settlement == "" {
		return nil, fmt.Errorf("settlement must not be empty")
	}

	subset := make([]street.RegistryEntry, 0, len(entries))
	for _, e := range entries {
		if e.Settlement == settlement {
			subset = append(subset, e)
		}
	}

	adjacency := topology.Build(segments)

	result := &Result{
		Settlement: settlement,
		Mapping:    make(street.FinalMapping),
		Adjacency:  adjacency,
	}
	result.Diagnostics.Settlement = settlement
	result.Diagnostics.TotalSegments = len(segments)

	result.Classifications = make([]street.ClassificationResult, 0, len(segments))
	for _, seg := range segments {
		if seg.HasName() {
			result.Diagnostics.NamedSegments++
		}
		scored := o.Scorer.ScoreSegment(o.Debug, seg, subset)
		classified := match.Classify(seg, scored, o.Tiers)
		if classified.Status == street.StatusConfident {
			result.Diagnostics.ConfidentMatches++
		}
		result.Classifications = append(result.Classifications, classified)
	}

	if err := o.arbitrate(ctx, result); err != nil {
		return nil, err
	}

	for _, c := range result.Classifications {
		if c.Status == street.StatusConfident {
			result.Mapping[c.SegmentID] = c.BestRegistryID
		}
	}

	fillDiagnostics(result, subset)
	return result, nil
}

// arbitrate fans the NEEDS_ARBITRATION segments out across a bounded worker
// pool. Each verdict mutates only its own classification slot, so no lock
// is needed beyond the failure list's.
func (o *Orchestrator) arbitrate(ctx context.Context, result *Result) error {
	var pending []int
	for i, c := range result.Classifications {
		if c.Status == street.StatusNeedsArbitration {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	if o.Arbitrator == nil || !o.Arbitrator.Available() {
		for _, i := range pending {
			o.degrade(result, i, "arbitrator unavailable", "")
		}
		return nil
	}

	adjacentNames := func(c street.ClassificationResult) []string {
		var names []string
		for _, neighborID := range result.Adjacency[c.SegmentID] {
			for _, other := range result.Classifications {
				if other.SegmentID == neighborID && other.SegmentName != "" {
					names = append(names, other.SegmentName)
					break
				}
			}
		}
		return names
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	parallelism := o.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}
	g.SetLimit(parallelism)

	for _, i := range pending {
		i := i
		g.Go(func() error {
			c := result.Classifications[i]
			requestID := uuid.NewString()
			prompt := arbitration.BuildPrompt(arbitration.PromptInput{
				SegmentID:     c.SegmentID,
				SegmentName:   c.SegmentName,
				Settlement:    c.Settlement,
				Candidates:    c.Candidates,
				AdjacentNames: adjacentNames(c),
			})

			var verdict arbitration.Verdict
			err := o.Retry.Do(gctx, func(attempt int) error {
				debug.Output(o.Debug, "arbitration %s segment %s attempt %d", requestID, c.SegmentID, attempt)
				var resolveErr error
				verdict, resolveErr = o.Arbitrator.Resolve(gctx, requestID, prompt)
				return resolveErr
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				// Context cancellation aborts the batch; anything else is
				// a per-segment failure that must not halt the run.
				if gctx.Err() != nil {
					return gctx.Err()
				}
				o.degrade(result, i, err.Error(), verdict.Raw)
			case !verdict.Matched():
				o.degrade(result, i, "", verdict.Raw)
			case !candidateListed(c.Candidates, verdict.RegistryID):
				o.degrade(result, i, fmt.Sprintf("verdict %s not in candidate list", verdict.RegistryID), verdict.Raw)
			default:
				o.accept(result, i, verdict)
			}
			return nil
		})
	}
	return g.Wait()
}

// accept folds a matched verdict into the classification and mapping.
func (o *Orchestrator) accept(result *Result, i int, verdict arbitration.Verdict) {
	c := &result.Classifications[i]
	c.Status = street.StatusConfident
	c.BestRegistryID = verdict.RegistryID
	for _, cand := range c.Candidates {
		if cand.RegistryID == verdict.RegistryID {
			c.BestName = cand.RegistryName
			c.BestScore = cand.Score
			break
		}
	}
	result.Diagnostics.ArbitrationResolved++
}

// degrade resolves an arbitration-tier segment to MISSING. An empty reason
// means the arbitrator explicitly declined, which is an answer, not a
// failure.
func (o *Orchestrator) degrade(result *Result, i int, reason, raw string) {
	c := &result.Classifications[i]
	c.Status = street.StatusMissing
	c.BestRegistryID = ""
	c.BestName = ""
	if reason != "" {
		result.Diagnostics.ArbitrationFailed++
		result.Diagnostics.ArbitrationFailures = append(result.Diagnostics.ArbitrationFailures, street.ArbitrationFailure{
			SegmentID: c.SegmentID,
			Reason:    reason,
			Raw:       raw,
		})
		log.Printf("arbitration failed for segment %s: %s", c.SegmentID, reason)
	}
}

func candidateListed(candidates []street.Candidate, registryID string) bool {
	for _, c := range candidates {
		if c.RegistryID == registryID {
			return true
		}
	}
	return false
}
