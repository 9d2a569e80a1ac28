package main

import (
	"context"
	"fmt"
	"log"

	"github.com/streets-name-id/internal/config"
	"github.com/streets-name-id/internal/db"
	"github.com/streets-name-id/internal/ingest"
	"github.com/streets-name-id/internal/osm"
	"github.com/streets-name-id/internal/postal"
	"github.com/streets-name-id/internal/registry"
	"github.com/streets-name-id/internal/retry"
	"github.com/streets-name-id/internal/street"
)

func newIngestor() *ingest.Ingestor {
	ing := ingest.NewIngestor(newNormalizer())
	ing.Expand = postal.Variants
	return ing
}

// cachingSource loads a settlement's data from the Postgres cache when it
// is fresh, fetching from Overpass and the registry datastore otherwise.
// One registry client is shared so a batch run downloads the full registry
// once, not once per settlement.
type cachingSource struct {
	store        *db.Store
	ingestor     *ingest.Ingestor
	settings     *config.Settings
	registry     *registry.Client
	forceRefresh bool
}

func (s *cachingSource) fetchPolicy() *retry.Policy {
	return &retry.Policy{
		MaxAttempts: s.settings.RetryAttempts,
		BaseDelay:   s.settings.RetryBaseDelay,
	}
}

// Load implements pipeline.SettlementSource. The rejected count covers both
// sides; cache hits report zero since their rejections were counted when
// the data was first fetched.
func (s *cachingSource) Load(ctx context.Context, settlement string) ([]street.Segment, []street.RegistryEntry, int, error) {
	segments, segRejected, err := s.loadSegments(ctx, settlement)
	if err != nil {
		return nil, nil, 0, err
	}
	entries, regRejected, err := s.loadRegistry(ctx, settlement)
	if err != nil {
		return nil, nil, 0, err
	}
	return segments, entries, segRejected + regRejected, nil
}

func (s *cachingSource) loadSegments(ctx context.Context, settlement string) ([]street.Segment, int, error) {
	if !s.forceRefresh {
		fresh, err := s.store.Fresh(ctx, settlement, "segments", s.settings.CacheMaxAge)
		if err != nil {
			return nil, 0, err
		}
		if fresh {
			segments, err := s.store.LoadSegments(ctx, settlement)
			return segments, 0, err
		}
	}

	client := osm.NewClient(s.settings.OverpassURL, s.settings.UserAgent, s.fetchPolicy())
	raws, err := client.FetchSettlement(ctx, settlement)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching segments: %w", err)
	}
	segments, rep := s.ingestor.Segments(raws)
	if rep.TotalRejected() > 0 {
		log.Printf("%s: rejected %d raw segments (%v)", settlement, rep.TotalRejected(), rep.Rejected)
	}
	if err := s.store.SaveSegments(ctx, settlement, segments); err != nil {
		return nil, 0, fmt.Errorf("caching segments: %w", err)
	}
	return segments, rep.TotalRejected(), nil
}

func (s *cachingSource) loadRegistry(ctx context.Context, settlement string) ([]street.RegistryEntry, int, error) {
	if !s.forceRefresh {
		fresh, err := s.store.Fresh(ctx, settlement, "registry", s.settings.CacheMaxAge)
		if err != nil {
			return nil, 0, err
		}
		if fresh {
			entries, err := s.store.LoadRegistry(ctx, settlement)
			return entries, 0, err
		}
	}

	rows, err := s.registry.FetchSettlement(ctx, settlement)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching registry: %w", err)
	}
	entries, rep := s.ingestor.Registry(rows)
	if rep.TotalRejected() > 0 {
		log.Printf("%s: rejected %d registry rows (%v)", settlement, rep.TotalRejected(), rep.Rejected)
	}
	if err := s.store.SaveRegistry(ctx, settlement, entries); err != nil {
		return nil, 0, fmt.Errorf("caching registry: %w", err)
	}
	return entries, rep.TotalRejected(), nil
}

// AllSettlements lists every settlement in the full registry, fetching it
// if needed. The shared client keeps the full fetch in memory, so the
// per-settlement Load calls that follow filter the same snapshot.
func (s *cachingSource) AllSettlements(ctx context.Context) ([]string, error) {
	rows, err := s.registry.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching full registry: %w", err)
	}
	entries, _ := s.ingestor.Registry(rows)
	return ingest.Settlements(entries), nil
}
