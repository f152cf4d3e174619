package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound signals that the requested record does not exist.
var ErrNotFound = errors.New("store record not found")

// RunStatus mirrors the harvest_runs status column.
type RunStatus string

// Run statuses persisted in harvest_runs.status.
const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunError   RunStatus = "error"
)

// HarvestRun models the harvest_runs table for API responses.
type HarvestRun struct {
	// ID is the run identifier minted at run start.
	ID uuid.UUID
	// StartedAt captures when the run was first marked running.
	StartedAt time.Time
	// FinishedAt is nil until the run is marked success/error.
	FinishedAt *time.Time
	// Status is running/success/error.
	Status RunStatus
	// ActsSaved is the run's final persisted-act count, 0 while running.
	ActsSaved int64
	// ErrorMessage optionally stores the final failure reason.
	ErrorMessage *string
}

// StrategyStats captures per-strategy aggregation for a run.
type StrategyStats struct {
	// RunID is the owning harvest run.
	RunID uuid.UUID
	// Strategy is the discovery axis label (document_type, year, ...).
	Strategy string
	// LastUpdate captures the timestamp of the most recent aggregate.
	LastUpdate time.Time
	// Saved counts acts persisted by the strategy.
	Saved int64
	// Failed counts detail tasks the strategy lost to errors.
	Failed int64
}

// RunRepository persists incremental harvest-run bookkeeping.
type RunRepository interface {
	// UpsertRunStart inserts (or idempotently updates) the started_at timestamp.
	UpsertRunStart(ctx context.Context, runID uuid.UUID, startedAt time.Time) error
	// CompleteRun marks the run finished with the provided status, final act
	// count, and optional error message.
	CompleteRun(ctx context.Context, runID uuid.UUID, finishedAt time.Time, status RunStatus, actsSaved int64, errMsg *string) error
	// UpsertStrategyStats applies saved/failed deltas per (run, strategy).
	UpsertStrategyStats(ctx context.Context, runID uuid.UUID, strategy string, deltaSaved, deltaFailed int64, at time.Time) error

	// GetRun loads a single harvest run or returns ErrNotFound.
	GetRun(ctx context.Context, runID uuid.UUID) (HarvestRun, error)
	// ListRuns returns harvest runs filtered by optional status plus limit/offset.
	ListRuns(ctx context.Context, status *RunStatus, limit, offset int) ([]HarvestRun, error)
	// ListRunStrategies returns aggregated strategy stats for one run.
	ListRunStrategies(ctx context.Context, runID uuid.UUID) ([]StrategyStats, error)
}
