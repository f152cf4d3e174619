package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/eurlex-harvester/internal/progress"
)

// TestPrometheusSinkRecordsMetrics ensures counters and histograms are incremented from events.
func TestPrometheusSinkRecordsMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	runID := uuid.NewString()
	batch := []progress.Event{
		{RunID: runID, TS: time.Now(), Stage: progress.StageRunStart},
		{
			RunID:    runID,
			TS:       time.Now().Add(time.Second),
			Stage:    progress.StagePageDone,
			Strategy: "document_type",
			Page:     1,
			Count:    4,
		},
		{
			RunID:    runID,
			TS:       time.Now().Add(2 * time.Second),
			Stage:    progress.StageActSaved,
			Strategy: "document_type",
			Celex:    "32016R0679",
			Dur:      200 * time.Millisecond,
		},
		{
			RunID:     runID,
			TS:        time.Now().Add(3 * time.Second),
			Stage:     progress.StageActFailed,
			Strategy:  "document_type",
			Celex:     "32019R0001",
			ErrorKind: "transport",
			Dur:       100 * time.Millisecond,
		},
		{RunID: runID, TS: time.Now().Add(15 * time.Second), Stage: progress.StageRunDone, Count: 1, Dur: 15 * time.Second},
	}

	require.NoError(t, sink.Consume(context.Background(), batch))

	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsStarted))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsCompleted.WithLabelValues("success")))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.runsCompleted.WithLabelValues("error")))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.runsRunning))

	require.InDelta(t, 1.0, testutil.ToFloat64(sink.pagesFetched.WithLabelValues("document_type")), 1e-9)
	require.InDelta(t, 4.0, testutil.ToFloat64(sink.stubsReserved.WithLabelValues("document_type")), 1e-9)
	require.InDelta(t, 1.0, testutil.ToFloat64(sink.actsSaved.WithLabelValues("document_type")), 1e-9)
	require.InDelta(
		t,
		1.0,
		testutil.ToFloat64(sink.actFailures.WithLabelValues("document_type", "transport")),
		1e-9,
	)
	require.Equal(t, 1, testutil.CollectAndCount(sink.detailLatency, "harvester_detail_duration_seconds"))
}

// TestPrometheusSinkSharesRegisteredCollectors ensures a second sink on the
// same registry adopts the existing collectors instead of failing.
func TestPrometheusSinkSharesRegisteredCollectors(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	first, err := NewPrometheusSink(reg)
	require.NoError(t, err)
	second, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	require.NoError(t, first.Consume(context.Background(), []progress.Event{
		{RunID: uuid.NewString(), TS: time.Now(), Stage: progress.StageRunStart},
	}))
	require.NoError(t, second.Consume(context.Background(), []progress.Event{
		{RunID: uuid.NewString(), TS: time.Now(), Stage: progress.StageRunStart},
	}))

	// Both sinks feed the same counter.
	require.Equal(t, 2.0, testutil.ToFloat64(second.runsStarted))
}

// TestPrometheusSinkTracksRunningGauge covers the start/complete transitions.
func TestPrometheusSinkTracksRunningGauge(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	runID := uuid.NewString()
	require.NoError(t, sink.Consume(context.Background(), []progress.Event{
		{RunID: runID, TS: time.Now(), Stage: progress.StageRunStart},
	}))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsRunning))

	// A duplicate start for the same run must not double-count.
	require.NoError(t, sink.Consume(context.Background(), []progress.Event{
		{RunID: runID, TS: time.Now(), Stage: progress.StageRunStart},
	}))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsRunning))

	require.NoError(t, sink.Consume(context.Background(), []progress.Event{
		{RunID: runID, TS: time.Now(), Stage: progress.StageRunDone},
	}))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.runsRunning))
}
