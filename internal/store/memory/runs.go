package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JakeFAU/eurlex-harvester/internal/store"
)

// RunStore keeps harvest-run bookkeeping in process memory.
type RunStore struct {
	mu         sync.RWMutex
	runs       map[uuid.UUID]store.HarvestRun
	strategies map[uuid.UUID]map[string]store.StrategyStats
}

// NewRunStore constructs an empty RunStore.
func NewRunStore() *RunStore {
	return &RunStore{
		runs:       make(map[uuid.UUID]store.HarvestRun),
		strategies: make(map[uuid.UUID]map[string]store.StrategyStats),
	}
}

// UpsertRunStart records the run as running, creating it on first sight.
func (s *RunStore) UpsertRunStart(_ context.Context, runID uuid.UUID, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		run = store.HarvestRun{ID: runID, StartedAt: startedAt}
	}
	run.Status = store.RunRunning
	s.runs[runID] = run
	return nil
}

// CompleteRun marks the run finished.
func (s *RunStore) CompleteRun(
	_ context.Context,
	runID uuid.UUID,
	finishedAt time.Time,
	status store.RunStatus,
	actsSaved int64,
	errMsg *string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return store.ErrNotFound
	}
	ts := finishedAt
	run.FinishedAt = &ts
	run.Status = status
	run.ActsSaved = actsSaved
	run.ErrorMessage = errMsg
	s.runs[runID] = run
	return nil
}

// UpsertStrategyStats accumulates saved/failed deltas per (run, strategy).
func (s *RunStore) UpsertStrategyStats(
	_ context.Context,
	runID uuid.UUID,
	strategy string,
	deltaSaved,
	deltaFailed int64,
	at time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byStrategy, ok := s.strategies[runID]
	if !ok {
		byStrategy = make(map[string]store.StrategyStats)
		s.strategies[runID] = byStrategy
	}
	stat := byStrategy[strategy]
	stat.RunID = runID
	stat.Strategy = strategy
	stat.Saved += deltaSaved
	stat.Failed += deltaFailed
	stat.LastUpdate = at
	byStrategy[strategy] = stat
	return nil
}

// GetRun fetches a run by ID.
func (s *RunStore) GetRun(_ context.Context, runID uuid.UUID) (store.HarvestRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runID]
	if !ok {
		return store.HarvestRun{}, store.ErrNotFound
	}
	return run, nil
}

// ListRuns returns runs newest first, optionally filtered by status.
func (s *RunStore) ListRuns(
	_ context.Context,
	status *store.RunStatus,
	limit,
	offset int,
) ([]store.HarvestRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := make([]store.HarvestRun, 0, len(s.runs))
	for _, run := range s.runs {
		if status != nil && run.Status != *status {
			continue
		}
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if offset >= len(runs) {
		return nil, nil
	}
	runs = runs[offset:]
	if limit > 0 && limit < len(runs) {
		runs = runs[:limit]
	}
	out := make([]store.HarvestRun, len(runs))
	copy(out, runs)
	return out, nil
}

// ListRunStrategies returns per-strategy aggregates for one run, sorted by
// strategy name.
func (s *RunStore) ListRunStrategies(_ context.Context, runID uuid.UUID) ([]store.StrategyStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byStrategy := s.strategies[runID]
	stats := make([]store.StrategyStats, 0, len(byStrategy))
	for _, stat := range byStrategy {
		stats = append(stats, stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Strategy < stats[j].Strategy
	})
	return stats, nil
}
