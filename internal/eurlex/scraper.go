package eurlex

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/eurlex-harvester/internal/progress"
)

// Dependencies bundles the collaborators a Scraper needs. Fetcher, Sink,
// Limiter, Clock, IDs, and Hasher are required; the rest degrade gracefully
// when nil (no headless promotion, no archive, no notifications, no progress
// events).
type Dependencies struct {
	Fetcher  Fetcher
	Renderer Renderer
	Detector Detector
	Sink     Sink
	Archive  Archive
	Notifier Notifier
	Limiter  Limiter
	Clock    Clock
	IDs      IDGenerator
	Hasher   Hasher
	Progress progress.Emitter
	Logger   *zap.Logger
}

// Scraper coordinates the comprehensive harvest: strategy enumeration,
// rate-limited pagination, atomic stub reservation, and the detail worker
// pool. One Scraper drives one run at a time; Stats is safe to call from any
// goroutine while a run is in flight.
type Scraper struct {
	cfg Config
	log *zap.Logger

	fetcher  Fetcher
	renderer Renderer
	detector Detector
	sink     Sink
	archive  Archive
	notifier Notifier
	limiter  Limiter
	clock    Clock
	ids      IDGenerator
	hasher   Hasher
	progress progress.Emitter

	parser   *ListingParser
	registry *Registry
}

// New validates the configuration and dependencies and builds a Scraper.
func New(cfg Config, deps Dependencies) (*Scraper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid harvest config: %w", err)
	}
	if deps.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if deps.Sink == nil {
		return nil, fmt.Errorf("sink is required")
	}
	if deps.Limiter == nil {
		return nil, fmt.Errorf("limiter is required")
	}
	if deps.Clock == nil {
		return nil, fmt.Errorf("clock is required")
	}
	if deps.IDs == nil {
		return nil, fmt.Errorf("id generator is required")
	}
	if deps.Hasher == nil {
		return nil, fmt.Errorf("hasher is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	parser, err := NewListingParser(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	return &Scraper{
		cfg:      cfg,
		log:      logger,
		fetcher:  deps.Fetcher,
		renderer: deps.Renderer,
		detector: deps.Detector,
		sink:     deps.Sink,
		archive:  deps.Archive,
		notifier: deps.Notifier,
		limiter:  deps.Limiter,
		clock:    deps.Clock,
		ids:      deps.IDs,
		hasher:   deps.Hasher,
		progress: deps.Progress,
		parser:   parser,
		registry: NewRegistry(),
	}, nil
}

// SeedRegistry loads every stored CELEX number into the dedup registry so
// already-harvested acts are never fetched again. Repeated calls union with
// whatever the registry already knows.
func (s *Scraper) SeedRegistry(ctx context.Context) error {
	ids, err := s.sink.ListCelexNumbers(ctx)
	if err != nil {
		return fmt.Errorf("seed registry: %w", err)
	}
	s.registry.Seed(ids)
	return nil
}

// ScrapeComprehensive discovers acts along the four strategies and persists
// each exactly once, up to maxActs split evenly across strategies. A
// non-positive maxActs falls back to the configured default. Cancellation is
// cooperative: the partial count is returned with a nil error, and only
// infrastructure failures such as the registry seed read produce an error.
func (s *Scraper) ScrapeComprehensive(ctx context.Context, maxActs int) (int, error) {
	if maxActs <= 0 {
		maxActs = s.cfg.MaxActs
	}
	runID, err := s.ids.NewID()
	if err != nil {
		return 0, fmt.Errorf("mint run id: %w", err)
	}
	log := s.log.With(zap.String("run_id", runID))

	if err := s.SeedRegistry(ctx); err != nil {
		return 0, err
	}

	start := s.clock.Now()
	strategies := EnumerateStrategies(maxActs, start)
	log.Info("starting comprehensive harvest",
		zap.Int("max_acts", maxActs),
		zap.Int("strategies", len(strategies)),
		zap.Int("strategy_budget", strategies[0].Budget),
		zap.Int("registry_size", s.registry.Size()))
	s.emit(progress.Event{RunID: runID, Stage: progress.StageRunStart})

	total := 0
	for _, strategy := range strategies {
		if ctx.Err() != nil {
			log.Info("harvest canceled, skipping remaining strategies",
				zap.String("next_strategy", string(strategy.Kind)))
			break
		}
		total += s.runStrategy(ctx, log, runID, strategy)
	}

	took := s.clock.Now().Sub(start)
	log.Info("comprehensive harvest finished",
		zap.Int("acts_saved", total),
		zap.Duration("took", took),
		zap.Bool("canceled", ctx.Err() != nil))
	s.emit(progress.Event{RunID: runID, Stage: progress.StageRunDone, Count: total, Dur: took})
	return total, nil
}

// Stats reports the current harvest state. It only takes the registry lock
// briefly, so it is cheap to poll mid-run.
func (s *Scraper) Stats(ctx context.Context) (Stats, error) {
	count, err := s.sink.CountActs(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count acts: %w", err)
	}
	return Stats{
		TotalActs:    count,
		RegistrySize: s.registry.Size(),
		Timestamp:    s.clock.Now().UTC(),
	}, nil
}

// runStrategy executes one strategy's queries in order, spending its fixed
// budget on reserved stubs. Returns the number of acts persisted.
func (s *Scraper) runStrategy(ctx context.Context, log *zap.Logger, runID string, strategy Strategy) int {
	kind := string(strategy.Kind)
	if strategy.Budget <= 0 {
		log.Debug("skipping strategy with zero budget", zap.String("strategy", kind))
		return 0
	}

	log.Info("strategy started",
		zap.String("strategy", kind),
		zap.Int("budget", strategy.Budget),
		zap.Int("queries", len(strategy.Queries)))
	s.emit(progress.Event{RunID: runID, Stage: progress.StageStrategyStart, Strategy: kind})

	start := s.clock.Now()
	saved := 0
	remaining := strategy.Budget
	for _, query := range strategy.Queries {
		if ctx.Err() != nil || remaining <= 0 {
			break
		}
		stubs := s.collectStubs(ctx, log, runID, query, remaining)
		if len(stubs) == 0 {
			continue
		}
		// Budget is consumed by reservation, not by save success: a stub
		// that fails its detail task stays reserved and its slot is spent.
		remaining -= len(stubs)

		tasks := make([]detailTask, 0, len(stubs))
		for _, stub := range stubs {
			tasks = append(tasks, detailTask{
				runID:    runID,
				strategy: strategy.Kind,
				query:    query.Label,
				stub:     stub,
			})
		}
		saved += s.runDetailPool(ctx, tasks)
	}

	took := s.clock.Now().Sub(start)
	log.Info("strategy finished",
		zap.String("strategy", kind),
		zap.Int("acts_saved", saved),
		zap.Int("budget_left", remaining),
		zap.Duration("took", took))
	s.emit(progress.Event{RunID: runID, Stage: progress.StageStrategyDone, Strategy: kind, Count: saved, Dur: took})
	return saved
}

// collectStubs walks a query's listing pages and reserves unseen stubs until
// the budget fills, a page yields nothing new, the page ceiling is reached,
// or the fetch fails. Reservation happens at collection time, so two
// strategies can never hand the same act to the pool. Stubs left unreserved
// when the budget fills mid-page stay discoverable by later queries.
func (s *Scraper) collectStubs(ctx context.Context, log *zap.Logger, runID string, query SearchQuery, budget int) []CandidateStub {
	var collected []CandidateStub

	for page := 1; page <= s.cfg.PageLimit; page++ {
		if ctx.Err() != nil {
			break
		}
		pageURL := s.pageURL(query, page)
		if err := s.limiter.Wait(ctx, pageURL); err != nil {
			break
		}
		res, err := s.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			// No retry: a failed listing page abandons the query and the
			// harvest moves on.
			log.Warn("listing fetch failed, abandoning query",
				zap.String("query", query.Label),
				zap.Int("page", page),
				zap.Error(err))
			break
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
		if err != nil {
			log.Warn("listing unreadable, abandoning query",
				zap.String("query", query.Label),
				zap.Int("page", page),
				zap.Error(err))
			break
		}

		var stubs []CandidateStub
		var dropped int
		if query.Path != "" {
			stubs = s.parser.ParseRecent(doc)
		} else {
			stubs, dropped = s.parser.Parse(doc)
		}
		if dropped > 0 {
			log.Debug("stubs without identifiers dropped",
				zap.String("query", query.Label),
				zap.Int("page", page),
				zap.Int("dropped", dropped))
		}

		reserved := 0
		for _, stub := range stubs {
			if len(collected) >= budget {
				break
			}
			if !s.registry.ReserveIfAbsent(stub.Celex) {
				continue
			}
			collected = append(collected, stub)
			reserved++
		}

		s.emit(progress.Event{
			RunID:    runID,
			Stage:    progress.StagePageDone,
			Strategy: string(query.Kind),
			Query:    query.Label,
			URL:      pageURL,
			Page:     page,
			Count:    reserved,
		})

		// A page with nothing new means the query is exhausted; deeper pages
		// only repeat what the registry already knows.
		if reserved == 0 {
			break
		}
		if len(collected) >= budget {
			break
		}
		if query.Path != "" {
			break
		}
	}
	return collected
}

// pageURL renders the listing URL for one page of a query. The qid
// cache-buster is minted from the clock at request time, keeping strategy
// enumeration deterministic.
func (s *Scraper) pageURL(query SearchQuery, page int) string {
	base := strings.TrimRight(s.cfg.BaseURL, "/")
	if query.Path != "" {
		return base + query.Path
	}
	params := url.Values{}
	for k, vs := range query.Params {
		params[k] = append([]string(nil), vs...)
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("qid", strconv.FormatInt(s.clock.Now().UnixMilli(), 10))
	return base + "/search.html?" + params.Encode()
}

func (s *Scraper) emit(ev progress.Event) {
	if s.progress == nil {
		return
	}
	if ev.TS.IsZero() {
		ev.TS = s.clock.Now().UTC()
	}
	s.progress.Emit(ev)
}
