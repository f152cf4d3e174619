package sinks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/eurlex-harvester/internal/progress"
)

// PrometheusSink exports harvest progress metrics via Prometheus. It owns all
// collectors for runs started/completed/running and per-strategy act
// counters.
type PrometheusSink struct {
	runsStarted   prometheus.Counter
	runsCompleted *prometheus.CounterVec
	runsRunning   prometheus.Gauge
	runRuntime    prometheus.Histogram

	pagesFetched  *prometheus.CounterVec
	stubsReserved *prometheus.CounterVec
	actsSaved     *prometheus.CounterVec
	actFailures   *prometheus.CounterVec
	detailLatency *prometheus.HistogramVec

	tracker *runTracker
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "harvester_runs_started_total",
			Help: "Total harvest runs that have started.",
		}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "harvester_runs_completed_total",
			Help: "Total harvest runs completed partitioned by result.",
		}, []string{"result"}),
		runsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "harvester_runs_running",
			Help: "Current number of running harvests.",
		}),
		runRuntime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "harvester_run_runtime_seconds",
			Help:    "Wall time per completed harvest run.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		}),
		pagesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "harvester_listing_pages_total",
			Help: "Listing pages processed partitioned by strategy.",
		}, []string{"strategy"}),
		stubsReserved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "harvester_stubs_reserved_total",
			Help: "Candidate stubs reserved for detail fetch per strategy.",
		}, []string{"strategy"}),
		actsSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "harvester_acts_saved_total",
			Help: "Legal acts persisted partitioned by strategy.",
		}, []string{"strategy"}),
		actFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "harvester_act_failures_total",
			Help: "Detail tasks lost to errors partitioned by strategy and kind.",
		}, []string{"strategy", "kind"}),
		detailLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "harvester_detail_duration_seconds",
			Help:    "Detail task duration partitioned by strategy.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"strategy"}),
		tracker: newRunTracker(),
	}
	var err error
	if s.runsStarted, err = registerCollector(reg, s.runsStarted); err != nil {
		return nil, err
	}
	if s.runsCompleted, err = registerCollector(reg, s.runsCompleted); err != nil {
		return nil, err
	}
	if s.runsRunning, err = registerCollector(reg, s.runsRunning); err != nil {
		return nil, err
	}
	if s.runRuntime, err = registerCollector(reg, s.runRuntime); err != nil {
		return nil, err
	}
	if s.pagesFetched, err = registerCollector(reg, s.pagesFetched); err != nil {
		return nil, err
	}
	if s.stubsReserved, err = registerCollector(reg, s.stubsReserved); err != nil {
		return nil, err
	}
	if s.actsSaved, err = registerCollector(reg, s.actsSaved); err != nil {
		return nil, err
	}
	if s.actFailures, err = registerCollector(reg, s.actFailures); err != nil {
		return nil, err
	}
	if s.detailLatency, err = registerCollector(reg, s.detailLatency); err != nil {
		return nil, err
	}
	return s, nil
}

// registerCollector adds the collector to the registry, reusing the one
// already registered under the same descriptor. A second sink in the same
// process (app rebuilds in tests) must share collectors rather than fail.
func registerCollector[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	var zero C
	return zero, fmt.Errorf("register progress collector: %w", err)
}

// Consume updates the Prometheus collectors using the provided batch. It is
// safe for concurrent use by multiple goroutines.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageRunStart:
		s.runsStarted.Inc()
		if s.tracker.start(evt.RunID) {
			s.runsRunning.Inc()
		}
	case progress.StageRunDone:
		result := "success"
		if evt.ErrorKind != "" {
			result = "error"
		}
		s.runsCompleted.WithLabelValues(result).Inc()
		if evt.Dur > 0 {
			s.runRuntime.Observe(evt.Dur.Seconds())
		}
		if s.tracker.complete(evt.RunID) {
			s.runsRunning.Dec()
		}
	case progress.StagePageDone:
		s.pagesFetched.WithLabelValues(strategyLabel(evt)).Inc()
		if evt.Count > 0 {
			s.stubsReserved.WithLabelValues(strategyLabel(evt)).Add(float64(evt.Count))
		}
	case progress.StageActSaved:
		s.actsSaved.WithLabelValues(strategyLabel(evt)).Inc()
		s.observeDetail(evt)
	case progress.StageActFailed:
		kind := evt.ErrorKind
		if kind == "" {
			kind = "other"
		}
		s.actFailures.WithLabelValues(strategyLabel(evt), kind).Inc()
		s.observeDetail(evt)
	}
}

func (s *PrometheusSink) observeDetail(evt progress.Event) {
	if evt.Dur > 0 {
		s.detailLatency.WithLabelValues(strategyLabel(evt)).Observe(evt.Dur.Seconds())
	}
}

func strategyLabel(evt progress.Event) string {
	if evt.Strategy == "" {
		return "unknown"
	}
	return evt.Strategy
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}

type runTracker struct {
	mu      sync.Mutex
	running map[string]struct{}
}

func newRunTracker() *runTracker {
	return &runTracker{running: make(map[string]struct{})}
}

func (t *runTracker) start(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; ok {
		return false
	}
	t.running[id] = struct{}{}
	return true
}

func (t *runTracker) complete(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; !ok {
		return false
	}
	delete(t.running, id)
	return true
}
