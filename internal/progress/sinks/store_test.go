package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/eurlex-harvester/internal/progress"
	"github.com/JakeFAU/eurlex-harvester/internal/store"
)

// TestStoreSinkPersistsEvents ensures act events are collapsed per strategy before persisting.
func TestStoreSinkPersistsEvents(t *testing.T) {
	t.Parallel()

	repo := &fakeRunRepo{}
	sink := NewStoreSink(repo, nil)
	runUUID := uuid.New()
	runID := runUUID.String()
	now := time.Now()

	batch := []progress.Event{
		{RunID: runID, Stage: progress.StageRunStart, TS: now},
		{
			RunID:    runID,
			Stage:    progress.StageActSaved,
			Strategy: "year",
			Celex:    "32024R0001",
			TS:       now.Add(1 * time.Second),
		},
		{
			RunID:    runID,
			Stage:    progress.StageActSaved,
			Strategy: "year",
			Celex:    "32024R0002",
			TS:       now.Add(2 * time.Second),
		},
		{
			RunID:     runID,
			Stage:     progress.StageActFailed,
			Strategy:  "year",
			Celex:     "32024R0003",
			ErrorKind: "parse",
			TS:        now.Add(3 * time.Second),
		},
		{RunID: runID, Stage: progress.StageRunDone, TS: now.Add(4 * time.Second), Count: 2, Dur: 4 * time.Second},
	}

	require.NoError(t, sink.Consume(context.Background(), batch))

	require.Len(t, repo.starts, 1)
	require.Equal(t, runUUID, repo.starts[0])
	require.Len(t, repo.completes, 1)
	require.Equal(t, int64(2), repo.completes[0].actsSaved)
	require.Len(t, repo.strategyStats, 1)
	stats := repo.strategyStats[0]
	require.Equal(t, "year", stats.strategy)
	require.Equal(t, int64(2), stats.deltaSaved)
	require.Equal(t, int64(1), stats.deltaFailed)
}

// TestStoreSinkHandlesErrors surfaces repository failures back to the caller.
func TestStoreSinkHandlesErrors(t *testing.T) {
	t.Parallel()

	repo := &fakeRunRepo{fail: true}
	sink := NewStoreSink(repo, nil)
	err := sink.Consume(context.Background(), []progress.Event{
		{RunID: uuid.NewString(), Stage: progress.StageRunStart, TS: time.Now()},
	})
	require.Error(t, err)
}

// TestStoreSinkSkipsMalformedRunIDs verifies a bad run id never reaches the repository.
func TestStoreSinkSkipsMalformedRunIDs(t *testing.T) {
	t.Parallel()

	repo := &fakeRunRepo{}
	sink := NewStoreSink(repo, nil)
	require.NoError(t, sink.Consume(context.Background(), []progress.Event{
		{RunID: "not-a-uuid", Stage: progress.StageRunStart, TS: time.Now()},
	}))
	require.Empty(t, repo.starts)
}

type fakeRunRepo struct {
	fail          bool
	starts        []uuid.UUID
	completes     []completeCall
	strategyStats []strategyCall
}

type completeCall struct {
	runID     uuid.UUID
	status    store.RunStatus
	actsSaved int64
}

type strategyCall struct {
	runID       uuid.UUID
	strategy    string
	deltaSaved  int64
	deltaFailed int64
}

func (f *fakeRunRepo) UpsertRunStart(_ context.Context, runID uuid.UUID, startedAt time.Time) error {
	if f.fail {
		return assertErr("start")
	}
	_ = startedAt
	f.starts = append(f.starts, runID)
	return nil
}

func (f *fakeRunRepo) CompleteRun(
	_ context.Context,
	runID uuid.UUID,
	finishedAt time.Time,
	status store.RunStatus,
	actsSaved int64,
	errMsg *string,
) error {
	if f.fail {
		return assertErr("complete")
	}
	_ = finishedAt
	_ = errMsg
	f.completes = append(f.completes, completeCall{runID: runID, status: status, actsSaved: actsSaved})
	return nil
}

func (f *fakeRunRepo) UpsertStrategyStats(
	_ context.Context,
	runID uuid.UUID,
	strategy string,
	deltaSaved int64,
	deltaFailed int64,
	at time.Time,
) error {
	if f.fail {
		return assertErr("strategy")
	}
	_ = at
	f.strategyStats = append(f.strategyStats, strategyCall{
		runID:       runID,
		strategy:    strategy,
		deltaSaved:  deltaSaved,
		deltaFailed: deltaFailed,
	})
	return nil
}

func (f *fakeRunRepo) GetRun(context.Context, uuid.UUID) (store.HarvestRun, error) {
	return store.HarvestRun{}, assertErr("read")
}

func (f *fakeRunRepo) ListRuns(context.Context, *store.RunStatus, int, int) ([]store.HarvestRun, error) {
	return nil, assertErr("list")
}

func (f *fakeRunRepo) ListRunStrategies(context.Context, uuid.UUID) ([]store.StrategyStats, error) {
	return nil, assertErr("strategies")
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
