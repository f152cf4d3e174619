// Package app initializes and holds long-lived application services, acting
// as a dependency injection container.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/JakeFAU/eurlex-harvester/internal/api"
	gcsarchive "github.com/JakeFAU/eurlex-harvester/internal/archive/gcs"
	localarchive "github.com/JakeFAU/eurlex-harvester/internal/archive/local"
	memarchive "github.com/JakeFAU/eurlex-harvester/internal/archive/memory"
	systemclock "github.com/JakeFAU/eurlex-harvester/internal/clock/system"
	"github.com/JakeFAU/eurlex-harvester/internal/eurlex"
	collyfetcher "github.com/JakeFAU/eurlex-harvester/internal/fetcher/colly"
	"github.com/JakeFAU/eurlex-harvester/internal/fetcher/headless"
	"github.com/JakeFAU/eurlex-harvester/internal/hash/sha256"
	"github.com/JakeFAU/eurlex-harvester/internal/headless/detector"
	idgen "github.com/JakeFAU/eurlex-harvester/internal/id/uuid"
	"github.com/JakeFAU/eurlex-harvester/internal/logging"
	"github.com/JakeFAU/eurlex-harvester/internal/metrics"
	memnotify "github.com/JakeFAU/eurlex-harvester/internal/notify/memory"
	pubsubnotify "github.com/JakeFAU/eurlex-harvester/internal/notify/pubsub"
	"github.com/JakeFAU/eurlex-harvester/internal/policy/ratelimit"
	"github.com/JakeFAU/eurlex-harvester/internal/progress"
	"github.com/JakeFAU/eurlex-harvester/internal/progress/sinks"
	"github.com/JakeFAU/eurlex-harvester/internal/store"
	memstore "github.com/JakeFAU/eurlex-harvester/internal/store/memory"
	pgstore "github.com/JakeFAU/eurlex-harvester/internal/store/postgres"
)

const shutdownGrace = 10 * time.Second

// App holds all the shared, long-lived services for the application. It acts
// as a dependency injection (DI) container: the scraper with its fetch stack,
// the act sink, the progress hub, and the optional status API server. It is
// initialized once at startup and passed to the commands that need it.
type App struct {
	logger    *zap.Logger
	cfg       eurlex.Config
	sink      eurlex.Sink
	runsClose func()
	notifier  eurlex.Notifier
	renderer  *headless.Renderer
	hub       *progress.Hub
	scraper   *eurlex.Scraper
	apiServer *http.Server
}

// GetLogger returns the shared zap logger instance.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetConfig returns the validated harvest configuration.
func (a *App) GetConfig() eurlex.Config {
	return a.cfg
}

// GetScraper returns the scraper that drives harvest runs.
func (a *App) GetScraper() *eurlex.Scraper {
	return a.scraper
}

// GetSink exposes the configured act sink.
func (a *App) GetSink() eurlex.Sink {
	return a.sink
}

// NewApp creates and initializes a new App struct based on the application's
// configuration. It is the central point for service initialization: it reads
// configuration values from Viper and instantiates the appropriate providers
// (Postgres or memory for the store, GCS or the local filesystem for the
// archive, Pub/Sub for notifications). It fails fast if any critical service
// cannot be initialized.
func NewApp(ctx context.Context) (*App, error) {
	l := logging.L
	l.Info("Initializing harvester services...")

	cfg, err := eurlex.LoadConfig(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load harvest config: %w", err)
	}

	// 1. Persistence. The act sink seeds the dedup registry and receives
	// every harvested act; the run repository keeps per-run bookkeeping.
	var (
		sink      eurlex.Sink
		runs      store.RunRepository
		runsClose func()
	)
	switch provider := viper.GetString("store.provider"); provider {
	case "postgres":
		dsn := viper.GetString("store.postgres.dsn")
		if dsn == "" {
			return nil, fmt.Errorf("store provider is 'postgres' but store.postgres.dsn is not set")
		}
		l.Info("Connecting to PostgreSQL...")
		actStore, err := pgstore.NewActStore(ctx, pgstore.ActStoreConfig{
			DSN:   dsn,
			Table: viper.GetString("store.postgres.table"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize act store: %w", err)
		}
		runStore, err := pgstore.NewRunStore(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize run store: %w", err)
		}
		sink, runs, runsClose = actStore, runStore, runStore.Close
	case "memory":
		l.Info("Using in-memory store. Acts will not survive a restart.")
		sink = memstore.NewActStore()
		runs = memstore.NewRunStore()
	default:
		return nil, fmt.Errorf("unknown store provider: %s", provider)
	}

	// 2. Archive. Raw page bodies for replay and audit; save failures are
	// non-fatal during a harvest, so "noop" is an acceptable default.
	var archive eurlex.Archive
	switch provider := viper.GetString("archive.provider"); provider {
	case "gcs":
		bucket := viper.GetString("archive.gcs.bucket_name")
		if bucket == "" {
			return nil, fmt.Errorf("archive provider is 'gcs' but archive.gcs.bucket_name is not set")
		}
		l.Info("Using GCS archive", zap.String("bucket", bucket))
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create GCS client: %w", err)
		}
		gcsArchive, err := gcsarchive.New(client, gcsarchive.Config{
			Bucket: bucket,
			Prefix: viper.GetString("archive.gcs.prefix"),
		}, l)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize archive: %w", err)
		}
		if err := gcsArchive.Verify(ctx); err != nil {
			return nil, fmt.Errorf("verify GCS bucket: %w", err)
		}
		archive = gcsArchive
	case "local":
		baseDir := viper.GetString("archive.local.base_dir")
		l.Info("Using local filesystem archive", zap.String("base_dir", baseDir))
		archive, err = localarchive.New(localarchive.Config{BaseDir: baseDir})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize archive: %w", err)
		}
	case "memory":
		archive = memarchive.New()
	case "noop":
		l.Info("Archiving disabled. Raw page bodies will be discarded.")
	default:
		return nil, fmt.Errorf("unknown archive provider: %s", provider)
	}

	// 3. Notifications. One message per persisted act for downstream
	// consumers such as the relevance scorer.
	var notifier eurlex.Notifier
	switch provider := viper.GetString("notify.provider"); provider {
	case "pubsub":
		projectID := viper.GetString("notify.pubsub.project_id")
		topicID := viper.GetString("notify.pubsub.topic_id")
		if projectID == "" || topicID == "" {
			return nil, fmt.Errorf("notify provider is 'pubsub' but project_id or topic_id is not set")
		}
		l.Info("Connecting to GCP Pub/Sub", zap.String("topic", topicID))
		notifier, err = pubsubnotify.New(ctx, pubsubnotify.Config{
			ProjectID: projectID,
			TopicID:   topicID,
		}, l)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize notifier: %w", err)
		}
	case "memory":
		notifier = memnotify.New()
	case "noop":
		l.Info("Notifications disabled. No messages will be sent.")
	default:
		return nil, fmt.Errorf("unknown notify provider: %s", provider)
	}

	// 4. Observability. Process metrics plus the progress pipeline that fans
	// harvest events out to logs, Prometheus, and the run repository.
	metrics.Init()
	promSink, err := sinks.NewPrometheusSink(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize progress metrics: %w", err)
	}
	hub := progress.NewHub(progress.Config{
		BufferSize:     viper.GetInt("progress.buffer"),
		MaxBatchEvents: viper.GetInt("progress.batch_size"),
		MaxBatchWait:   viper.GetDuration("progress.flush_interval"),
		Logger:         l,
	}, sinks.NewLogSink(l), promSink, sinks.NewStoreSink(runs, l))

	// 5. The fetch stack: rate-limited colly transport, optional headless
	// promotion, and the scraper that coordinates a run.
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:     cfg.UserAgent,
		Timeout:       cfg.RequestTimeout,
		RespectRobots: viper.GetBool("harvest.respect_robots"),
	})
	limiter := ratelimit.New(ratelimit.Config{Interval: cfg.Delay})

	deps := eurlex.Dependencies{
		Fetcher:  fetcher,
		Sink:     sink,
		Archive:  archive,
		Notifier: notifier,
		Limiter:  limiter,
		Clock:    systemclock.New(),
		IDs:      idgen.New(),
		Hasher:   sha256.New(),
		Progress: hub,
		Logger:   l,
	}

	var renderer *headless.Renderer
	if viper.GetBool("harvest.headless.enabled") {
		renderer, err = headless.NewChromedp(headless.Config{
			MaxParallel:       cfg.Workers,
			UserAgent:         cfg.UserAgent,
			NavigationTimeout: viper.GetDuration("harvest.headless.nav_timeout"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize headless renderer: %w", err)
		}
		l.Info("Headless promotion enabled")
		deps.Renderer = renderer
		deps.Detector = detector.NewHeuristic(0)
	}

	scraper, err := eurlex.New(cfg, deps)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize scraper: %w", err)
	}

	// 6. Status API. Serves health probes, stats, stored acts, run history,
	// and the Prometheus scrape endpoint.
	var apiServer *http.Server
	if viper.GetBool("api.enabled") {
		srv := api.NewServer(scraper, sink, runs, l, api.Config{
			AuthEnabled: viper.GetBool("api.auth.enabled"),
			APIKey:      viper.GetString("api.auth.api_key"),
		})
		apiServer = &http.Server{
			Addr:              viper.GetString("api.listen"),
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			l.Info("Starting status API", zap.String("addr", apiServer.Addr))
			if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				l.Error("Status API failed", zap.Error(err))
			}
		}()
	}

	l.Info("Harvester services initialized successfully.")

	return &App{
		logger:    l,
		cfg:       cfg,
		sink:      sink,
		runsClose: runsClose,
		notifier:  notifier,
		renderer:  renderer,
		hub:       hub,
		scraper:   scraper,
		apiServer: apiServer,
	}, nil
}

// Close gracefully shuts down all services in the App container. It is
// called by a Cobra hook after the command finishes execution.
func (a *App) Close() {
	a.logger.Info("Shutting down harvester services...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if a.apiServer != nil {
		if err := a.apiServer.Shutdown(ctx); err != nil {
			a.logger.Warn("Error shutting down status API", zap.Error(err))
		}
	}

	// The hub must flush buffered progress events before the stores go away.
	if err := a.hub.Close(ctx); err != nil {
		a.logger.Warn("Error closing progress hub", zap.Error(err))
	}

	if closer, ok := a.notifier.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.logger.Warn("Error closing notifier", zap.Error(err))
		}
	}
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.runsClose != nil {
		a.runsClose()
	}
	if err := a.sink.Close(); err != nil {
		a.logger.Warn("Error closing act sink", zap.Error(err))
	}

	// Flushing the logger buffer is important to ensure all logs are written
	// before the application exits.
	if err := a.logger.Sync(); err != nil {
		// Best effort; logging itself might be the thing failing.
		a.logger.Warn("Error syncing logger on shutdown", zap.Error(err))
	}
}
