package sinks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/eurlex-harvester/internal/progress"
	"github.com/JakeFAU/eurlex-harvester/internal/store"
)

// StoreSink persists run bookkeeping via a store.RunRepository. It collapses
// per-act events into per-strategy deltas to reduce write amplification.
type StoreSink struct {
	repo   store.RunRepository
	logger *zap.Logger
}

// NewStoreSink constructs a StoreSink for the provided repository.
func NewStoreSink(repo store.RunRepository, logger *zap.Logger) *StoreSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreSink{repo: repo, logger: logger}
}

// Consume collapses strategy deltas and forwards them to the repository. It
// respects ctx deadlines and returns any repository errors verbatim.
func (s *StoreSink) Consume(ctx context.Context, batch []progress.Event) error {
	if s == nil || s.repo == nil {
		return nil
	}
	stats := make(map[statsKey]*statsDelta)

	for _, evt := range batch {
		runID, err := uuid.Parse(evt.RunID)
		if err != nil {
			s.logger.Debug("skipping event with malformed run id",
				zap.String("run_id", evt.RunID))
			continue
		}
		switch evt.Stage {
		case progress.StageRunStart, progress.StageRunDone:
			if err := s.handleRunEvent(ctx, runID, evt); err != nil {
				return err
			}
		case progress.StageActSaved, progress.StageActFailed:
			recordStrategyStats(stats, runID, evt)
		}
	}

	for key, delta := range stats {
		if delta.saved == 0 && delta.failed == 0 {
			continue
		}
		if err := s.repo.UpsertStrategyStats(
			ctx,
			key.runID,
			key.strategy,
			delta.saved,
			delta.failed,
			delta.at,
		); err != nil {
			return fmt.Errorf("upsert strategy stats: %w", err)
		}
	}
	return nil
}

func (s *StoreSink) handleRunEvent(ctx context.Context, runID uuid.UUID, evt progress.Event) error {
	switch evt.Stage {
	case progress.StageRunStart:
		if err := s.repo.UpsertRunStart(ctx, runID, evt.TS); err != nil {
			return fmt.Errorf("upsert run start: %w", err)
		}
	case progress.StageRunDone:
		status := store.RunSuccess
		var note *string
		if evt.ErrorKind != "" {
			status = store.RunError
			if evt.Note != "" {
				note = &evt.Note
			}
		}
		if err := s.repo.CompleteRun(ctx, runID, evt.TS, status, int64(evt.Count), note); err != nil {
			return fmt.Errorf("complete run: %w", err)
		}
	}
	return nil
}

func recordStrategyStats(stats map[statsKey]*statsDelta, runID uuid.UUID, evt progress.Event) {
	if evt.Strategy == "" {
		return
	}
	key := statsKey{runID: runID, strategy: evt.Strategy}
	stat := stats[key]
	if stat == nil {
		stat = &statsDelta{}
		stats[key] = stat
	}
	switch evt.Stage {
	case progress.StageActSaved:
		stat.saved++
	case progress.StageActFailed:
		stat.failed++
	}
	if evt.TS.After(stat.at) || stat.at.IsZero() {
		stat.at = evt.TS
	}
}

// Close implements the Sink interface; it performs no action.
func (s *StoreSink) Close(context.Context) error {
	return nil
}

type statsKey struct {
	runID    uuid.UUID
	strategy string
}

type statsDelta struct {
	saved  int64
	failed int64
	at     time.Time
}
