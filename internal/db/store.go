package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/streets-name-id/internal/street"
)

// Store persists fetched datasets and run results. Fetched segments and
// registry rows are cached per settlement with a fetched-at timestamp so
// reruns inside the staleness window skip the network entirely.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open connection.
func NewStore(conn *Connection) *Store {
	return &Store{db: conn.DB}
}

const schema = `
CREATE TABLE IF NOT EXISTS dataset_cache (
	settlement  TEXT NOT NULL,
	kind        TEXT NOT NULL,
	fetched_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (settlement, kind)
);

CREATE TABLE IF NOT EXISTS segments (
	id          TEXT NOT NULL,
	settlement  TEXT NOT NULL,
	names       JSONB NOT NULL,
	geometry    JSONB NOT NULL,
	PRIMARY KEY (settlement, id)
);

CREATE TABLE IF NOT EXISTS registry_entries (
	id          TEXT NOT NULL,
	name        TEXT NOT NULL,
	settlement  TEXT NOT NULL,
	normalized  TEXT NOT NULL,
	PRIMARY KEY (id, name, settlement)
);

CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	settlement   TEXT NOT NULL,
	started_at   TIMESTAMPTZ NOT NULL,
	finished_at  TIMESTAMPTZ,
	diagnostics  JSONB
);

CREATE TABLE IF NOT EXISTS run_results (
	run_id            TEXT NOT NULL REFERENCES runs(id),
	segment_id        TEXT NOT NULL,
	segment_name      TEXT,
	status            TEXT NOT NULL,
	best_registry_id  TEXT,
	best_name         TEXT,
	best_score        DOUBLE PRECISION NOT NULL,
	matched_variant   TEXT,
	candidates        JSONB,
	PRIMARY KEY (run_id, segment_id)
);
`

// Init creates the schema if it does not exist.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Fresh reports whether a cached dataset exists and was fetched within
// maxAge. A missing cache row is stale, not an error.
func (s *Store) Fresh(ctx context.Context, settlement, kind string, maxAge time.Duration) (bool, error) {
	var fetchedAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT fetched_at FROM dataset_cache WHERE settlement = $1 AND kind = $2`,
		settlement, kind).Scan(&fetchedAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking cache freshness: %w", err)
	}
	return time.Since(fetchedAt) < maxAge, nil
}

func (s *Store) touchCache(ctx context.Context, tx *sql.Tx, settlement, kind string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO dataset_cache (settlement, kind, fetched_at) VALUES ($1, $2, NOW())
		ON CONFLICT (settlement, kind) DO UPDATE SET fetched_at = NOW()`,
		settlement, kind)
	return err
}

// SaveSegments replaces a settlement's cached segments.
func (s *Store) SaveSegments(ctx context.Context, settlement string, segments []street.Segment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM segments WHERE settlement = $1`, settlement); err != nil {
		return fmt.Errorf("clearing cached segments: %w", err)
	}
	for _, seg := range segments {
		names, err := json.Marshal(seg.Names)
		if err != nil {
			return err
		}
		geometry, err := json.Marshal(seg.Geometry)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO segments (id, settlement, names, geometry) VALUES ($1, $2, $3, $4)`,
			seg.ID, seg.Settlement, names, geometry); err != nil {
			return fmt.Errorf("saving segment %s: %w", seg.ID, err)
		}
	}
	if err := s.touchCache(ctx, tx, settlement, "segments"); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadSegments returns a settlement's cached segments.
func (s *Store) LoadSegments(ctx context.Context, settlement string) ([]street.Segment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, settlement, names, geometry FROM segments WHERE settlement = $1 ORDER BY id`,
		settlement)
	if err != nil {
		return nil, fmt.Errorf("loading cached segments: %w", err)
	}
	defer rows.Close()

	var segments []street.Segment
	for rows.Next() {
		var seg street.Segment
		var names, geometry []byte
		if err := rows.Scan(&seg.ID, &seg.Settlement, &names, &geometry); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(names, &seg.Names); err != nil {
			return nil, fmt.Errorf("decoding names for segment %s: %w", seg.ID, err)
		}
		if err := json.Unmarshal(geometry, &seg.Geometry); err != nil {
			return nil, fmt.Errorf("decoding geometry for segment %s: %w", seg.ID, err)
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

// SaveRegistry replaces a settlement's cached registry entries.
func (s *Store) SaveRegistry(ctx context.Context, settlement string, entries []street.RegistryEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM registry_entries WHERE settlement = $1`, settlement); err != nil {
		return fmt.Errorf("clearing cached registry: %w", err)
	}
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO registry_entries (id, name, settlement, normalized) VALUES ($1, $2, $3, $4)
			ON CONFLICT (id, name, settlement) DO NOTHING`,
			e.ID, e.Name, e.Settlement, e.Normalized); err != nil {
			return fmt.Errorf("saving registry entry %s: %w", e.ID, err)
		}
	}
	if err := s.touchCache(ctx, tx, settlement, "registry"); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadRegistry returns a settlement's cached registry entries.
func (s *Store) LoadRegistry(ctx context.Context, settlement string) ([]street.RegistryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, settlement, normalized FROM registry_entries WHERE settlement = $1 ORDER BY id, name`,
		settlement)
	if err != nil {
		return nil, fmt.Errorf("loading cached registry: %w", err)
	}
	defer rows.Close()

	var entries []street.RegistryEntry
	for rows.Next() {
		var e street.RegistryEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.Settlement, &e.Normalized); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SaveRun persists one settlement run with its classifications and
// diagnostics.
func (s *Store) SaveRun(ctx context.Context, runID string, startedAt time.Time, diagnostics street.Diagnostics, classifications []street.ClassificationResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	diagJSON, err := json.Marshal(diagnostics)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, settlement, started_at, finished_at, diagnostics)
		VALUES ($1, $2, $3, NOW(), $4)`,
		runID, diagnostics.Settlement, startedAt, diagJSON); err != nil {
		return fmt.Errorf("saving run %s: %w", runID, err)
	}

	for _, c := range classifications {
		candidates, err := json.Marshal(c.Candidates)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_results (run_id, segment_id, segment_name, status, best_registry_id, best_name, best_score, matched_variant, candidates)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			runID, c.SegmentID, nullable(c.SegmentName), string(c.Status), nullable(c.BestRegistryID), nullable(c.BestName),
			c.BestScore, nullable(c.MatchedVariant), candidates); err != nil {
			return fmt.Errorf("saving result for segment %s: %w", c.SegmentID, err)
		}
	}
	return tx.Commit()
}

// LatestRun returns the most recent run identifier and diagnostics for a
// settlement, or sql.ErrNoRows when none exists.
func (s *Store) LatestRun(ctx context.Context, settlement string) (string, street.Diagnostics, error) {
	var runID string
	var diagJSON []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, diagnostics FROM runs
		WHERE settlement = $1 AND finished_at IS NOT NULL
		ORDER BY started_at DESC LIMIT 1`, settlement).Scan(&runID, &diagJSON)
	if err != nil {
		return "", street.Diagnostics{}, err
	}
	var diagnostics street.Diagnostics
	if err := json.Unmarshal(diagJSON, &diagnostics); err != nil {
		return "", street.Diagnostics{}, fmt.Errorf("decoding diagnostics for run %s: %w", runID, err)
	}
	return runID, diagnostics, nil
}

// RunResults returns one run's classifications in segment order.
func (s *Store) RunResults(ctx context.Context, runID string) ([]street.ClassificationResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.segment_id, r.segment_name, ru.settlement, r.status, r.best_registry_id, r.best_name, r.best_score, r.matched_variant, r.candidates
		FROM run_results r JOIN runs ru ON ru.id = r.run_id
		WHERE r.run_id = $1 ORDER BY r.segment_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("loading run %s results: %w", runID, err)
	}
	defer rows.Close()

	var results []street.ClassificationResult
	for rows.Next() {
		var c street.ClassificationResult
		var status string
		var segName, bestID, bestName, variant sql.NullString
		var candidates []byte
		if err := rows.Scan(&c.SegmentID, &segName, &c.Settlement, &status, &bestID, &bestName, &c.BestScore, &variant, &candidates); err != nil {
			return nil, err
		}
		c.SegmentName = segName.String
		c.Status = street.Status(status)
		c.BestRegistryID = bestID.String
		c.BestName = bestName.String
		c.MatchedVariant = variant.String
		if len(candidates) > 0 {
			if err := json.Unmarshal(candidates, &c.Candidates); err != nil {
				return nil, fmt.Errorf("decoding candidates for segment %s: %w", c.SegmentID, err)
			}
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
