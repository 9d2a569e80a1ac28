package pipeline

import (
	"context"
	"log"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/streets-name-id/internal/street"
)

// SettlementSource supplies one settlement's prepared data plus the count
// of raw records its ingestion rejected. Fetching and caching live behind
// this interface so the batch runner can be tested without a network or
// database.
type SettlementSource interface {
	Load(ctx context.Context, settlement string) (segments []street.Segment, entries []street.RegistryEntry, rejected int, err error)
}

// BatchOutcome is one settlement's slot in a batch run. Exactly one of
// Result and Err is set.
type BatchOutcome struct {
	Settlement string
	Result     *Result
	Err        error
}

// BatchSummary aggregates a whole batch run.
type BatchSummary struct {
	Outcomes  []BatchOutcome
	Succeeded int
	Failed    int
}

// RunBatch reconciles every settlement independently across a bounded
// worker pool. One settlement's failure is recorded in its outcome and
// never aborts the others; only context cancellation stops the batch.
func (o *Orchestrator) RunBatch(ctx context.Context, source SettlementSource, settlements []string, workers int) (*BatchSummary, error) {
	if workers < 1 {
		workers = 1
	}

	// Each worker writes only its own slot, so no lock is needed.
	outcomes := make([]BatchOutcome, len(settlements))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, settlement := range settlements {
		i, settlement := i, settlement
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcome := BatchOutcome{Settlement: settlement}

			segments, entries, rejected, err := source.Load(gctx, settlement)
			if err == nil {
				outcome.Result, err = o.Run(gctx, settlement, segments, entries)
			}
			if err == nil {
				outcome.Result.Diagnostics.RejectedRecords = rejected
			}
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Printf("settlement %s failed: %v", settlement, err)
				outcome.Err = err
			}

			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &BatchSummary{Outcomes: outcomes}
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary, nil
}

// SortedSettlements returns the batch's settlements in deterministic order
// for logs and reports.
func (s *BatchSummary) SortedSettlements() []string {
	names := make([]string, 0, len(s.Outcomes))
	for _, o := range s.Outcomes {
		names = append(names, o.Settlement)
	}
	sort.Strings(names)
	return names
}
