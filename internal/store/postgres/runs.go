package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/eurlex-harvester/internal/store"
)

// RunStore implements store.RunRepository on Postgres.
type RunStore struct {
	pool querier
}

// NewRunStore connects a pool and ensures the run bookkeeping tables exist.
func NewRunStore(ctx context.Context, dsn string) (*RunStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("store.postgres.dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := &RunStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewRunStoreWithPool constructs a store from an existing pool (primarily for
// testing). No schema bootstrap is performed.
func NewRunStoreWithPool(pool querier) (*RunStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &RunStore{pool: pool}, nil
}

func (s *RunStore) ensureSchema(ctx context.Context) error {
	ddl := []string{
		`
CREATE TABLE IF NOT EXISTS harvest_runs (
	id UUID PRIMARY KEY,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	status TEXT NOT NULL,
	acts_saved BIGINT NOT NULL DEFAULT 0,
	error_message TEXT
)`,
		`
CREATE TABLE IF NOT EXISTS harvest_strategy_stats (
	run_id UUID NOT NULL,
	strategy TEXT NOT NULL,
	last_update TIMESTAMPTZ NOT NULL,
	saved BIGINT NOT NULL DEFAULT 0,
	failed BIGINT NOT NULL DEFAULT 0,
	PRIMARY KEY (run_id, strategy)
)`,
	}
	for _, stmt := range ddl {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create run tables: %w", err)
		}
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *RunStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// UpsertRunStart inserts or updates a run's start marker.
func (s *RunStore) UpsertRunStart(ctx context.Context, runID uuid.UUID, startedAt time.Time) error {
	query := `
		INSERT INTO harvest_runs (id, started_at, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status
		WHERE harvest_runs.status <> EXCLUDED.status;
	`
	if _, err := s.pool.Exec(ctx, query, runID, startedAt, store.RunRunning); err != nil {
		return fmt.Errorf("upsert run start: %w", err)
	}
	return nil
}

// CompleteRun marks a run finished with its status, final act count, and
// optional error message.
func (s *RunStore) CompleteRun(
	ctx context.Context,
	runID uuid.UUID,
	finishedAt time.Time,
	status store.RunStatus,
	actsSaved int64,
	errMsg *string,
) error {
	query := `
		UPDATE harvest_runs
		SET finished_at = $1, status = $2, acts_saved = $3, error_message = $4
		WHERE id = $5;
	`
	if _, err := s.pool.Exec(ctx, query, finishedAt, status, actsSaved, errMsg, runID); err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return nil
}

// UpsertStrategyStats applies saved/failed deltas for one strategy of a run.
func (s *RunStore) UpsertStrategyStats(
	ctx context.Context,
	runID uuid.UUID,
	strategy string,
	deltaSaved,
	deltaFailed int64,
	at time.Time,
) error {
	query := `
		INSERT INTO harvest_strategy_stats (run_id, strategy, last_update, saved, failed)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (run_id, strategy) DO UPDATE
		SET saved = harvest_strategy_stats.saved + EXCLUDED.saved,
			failed = harvest_strategy_stats.failed + EXCLUDED.failed,
			last_update = EXCLUDED.last_update;
	`
	if _, err := s.pool.Exec(ctx, query, runID, strategy, at, deltaSaved, deltaFailed); err != nil {
		return fmt.Errorf("upsert strategy stats: %w", err)
	}
	return nil
}

// GetRun retrieves a single harvest run by its ID.
func (s *RunStore) GetRun(ctx context.Context, runID uuid.UUID) (store.HarvestRun, error) {
	query := `
		SELECT id, started_at, finished_at, status, acts_saved, error_message
		FROM harvest_runs
		WHERE id = $1;
	`
	var run store.HarvestRun
	err := s.pool.QueryRow(ctx, query, runID).Scan(
		&run.ID,
		&run.StartedAt,
		&run.FinishedAt,
		&run.Status,
		&run.ActsSaved,
		&run.ErrorMessage,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.HarvestRun{}, store.ErrNotFound
		}
		return store.HarvestRun{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves harvest runs, newest first, with optional status
// filtering.
func (s *RunStore) ListRuns(
	ctx context.Context,
	status *store.RunStatus,
	limit,
	offset int,
) ([]store.HarvestRun, error) {
	query := `
		SELECT id, started_at, finished_at, status, acts_saved, error_message
		FROM harvest_runs
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3;
	`
	rows, err := s.pool.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []store.HarvestRun
	for rows.Next() {
		var run store.HarvestRun
		err := rows.Scan(
			&run.ID,
			&run.StartedAt,
			&run.FinishedAt,
			&run.Status,
			&run.ActsSaved,
			&run.ErrorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// ListRunStrategies retrieves aggregated per-strategy statistics for a run.
func (s *RunStore) ListRunStrategies(ctx context.Context, runID uuid.UUID) ([]store.StrategyStats, error) {
	query := `
		SELECT run_id, strategy, last_update, saved, failed
		FROM harvest_strategy_stats
		WHERE run_id = $1
		ORDER BY strategy;
	`
	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list run strategies: %w", err)
	}
	defer rows.Close()

	var stats []store.StrategyStats
	for rows.Next() {
		var stat store.StrategyStats
		err := rows.Scan(
			&stat.RunID,
			&stat.Strategy,
			&stat.LastUpdate,
			&stat.Saved,
			&stat.Failed,
		)
		if err != nil {
			return nil, fmt.Errorf("scan strategy stats row: %w", err)
		}
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list run strategies: %w", err)
	}
	return stats, nil
}
