// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ymkfssy/shuangse-sub001/internal/api"
	"github.com/ymkfssy/shuangse-sub001/internal/clock/system"
	"github.com/ymkfssy/shuangse-sub001/internal/config"
	"github.com/ymkfssy/shuangse-sub001/internal/extract"
	collyfetcher "github.com/ymkfssy/shuangse-sub001/internal/fetcher/colly"
	"github.com/ymkfssy/shuangse-sub001/internal/generator"
	"github.com/ymkfssy/shuangse-sub001/internal/id/uuid"
	"github.com/ymkfssy/shuangse-sub001/internal/ingest"
	"github.com/ymkfssy/shuangse-sub001/internal/logging"
	"github.com/ymkfssy/shuangse-sub001/internal/lottery"
	"github.com/ymkfssy/shuangse-sub001/internal/metrics"
	"github.com/ymkfssy/shuangse-sub001/internal/pipeline"
	"github.com/ymkfssy/shuangse-sub001/internal/policy/ratelimit"
	"github.com/ymkfssy/shuangse-sub001/internal/storage/memory"
	"github.com/ymkfssy/shuangse-sub001/internal/storage/postgres"
	"github.com/ymkfssy/shuangse-sub001/internal/synthetic"
)

// Store is the persistence surface shared by ingestion, generation and the API.
type Store interface {
	lottery.HistoryStore
	lottery.GenerationLog
	Ping(ctx context.Context) error
	Close()
}

// App holds the shared, long-lived services. It is built once at startup and
// handed to the CLI commands.
type App struct {
	cfg         config.Config
	logger      *zap.Logger
	store       Store
	pipeline    *pipeline.Pipeline
	coordinator *ingest.Coordinator
	generator   *generator.Generator
	server      *api.Server
}

// Config returns the configuration the App was built from.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Store exposes the configured history store.
func (a *App) Store() Store {
	return a.store
}

// Coordinator returns the ingestion coordinator.
func (a *App) Coordinator() *ingest.Coordinator {
	return a.coordinator
}

// Generator returns the combination generator.
func (a *App) Generator() *generator.Generator {
	return a.generator
}

// Server returns the HTTP API.
func (a *App) Server() *api.Server {
	return a.server
}

// New builds the logger and the configured store, then wires every service on
// top of them. It fails fast if any critical service cannot be initialized.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	metrics.Init()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	a, err := Build(cfg, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return a, nil
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		logger.Info("using in-memory store; draws are lost on exit")
		return memory.NewStore(), nil
	case config.DriverPostgres:
		logger.Info("connecting to postgres")
		pg, err := postgres.Connect(ctx, postgres.Config{
			DSN:            cfg.DB.DSN,
			MaxConns:       cfg.DB.MaxConns,
			MinConns:       cfg.DB.MinConns,
			ConnectRetries: cfg.DB.ConnectRetries,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		if cfg.DB.AutoMigrate {
			if err := pg.EnsureSchema(ctx); err != nil {
				pg.Close()
				return nil, fmt.Errorf("ensure schema: %w", err)
			}
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
}

// Build wires the services on an already opened store.
func Build(cfg config.Config, store Store, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	stages, err := BuildStages(cfg.Sources)
	if err != nil {
		return nil, err
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		Profiles: cfg.Fetch.Profiles,
		Timeout:  cfg.FetchTimeout(),
		MinDelay: time.Duration(cfg.Fetch.MinDelayMs) * time.Millisecond,
		MaxDelay: time.Duration(cfg.Fetch.MaxDelayMs) * time.Millisecond,
		Limiter: ratelimit.New(ratelimit.Config{
			DefaultRPS:   cfg.Fetch.RatePerSecond,
			DefaultBurst: cfg.Fetch.Burst,
		}),
		Logger: logger,
	})

	clock := system.New()
	opts := []pipeline.Option{
		pipeline.WithStageTimeout(cfg.StageTimeout()),
		pipeline.WithLogger(logger),
	}
	if cfg.Synthetic.Enabled {
		backfill := synthetic.New(cfg.Synthetic.Count, clock, generator.NewRandSampler(cfg.Synthetic.Seed))
		opts = append(opts, pipeline.WithBackfill(backfill))
	}
	pl := pipeline.New(fetcher, stages, opts...)

	gen := generator.New(
		generator.Config{MaxAttempts: cfg.Generator.MaxAttempts, MaxCount: cfg.Generator.MaxCount},
		store,
		store,
		generator.NewRandSampler(cfg.Generator.Seed),
		clock,
		uuid.New(),
		logger,
	)
	coord := ingest.NewCoordinator(pl, store, logger)

	server := api.NewServer(api.Deps{
		History:     store,
		Generations: store,
		Ingester:    coord,
		Generator:   gen,
		Ready:       store,
	}, cfg, logger)

	logger.Info("application services initialized",
		zap.String("storage", cfg.Storage.Driver),
		zap.Strings("stages", pl.Stages()),
		zap.Bool("synthetic", cfg.Synthetic.Enabled),
	)

	return &App{
		cfg:         cfg,
		logger:      logger,
		store:       store,
		pipeline:    pl,
		coordinator: coord,
		generator:   gen,
		server:      server,
	}, nil
}

// BuildStages turns source declarations into pipeline stages, preserving order.
func BuildStages(sources []config.SourceConfig) ([]pipeline.Stage, error) {
	stages := make([]pipeline.Stage, 0, len(sources))
	for _, src := range sources {
		var opts []extract.Option
		if src.NewestFirst {
			opts = append(opts, extract.WithNewestFirst())
		}
		if src.Window > 0 {
			opts = append(opts, extract.WithWindow(src.Window))
		}
		extractors := make([]lottery.Extractor, 0, len(src.Extractors))
		for _, name := range src.Extractors {
			ext, err := extract.New(name, opts...)
			if err != nil {
				return nil, fmt.Errorf("source %s: %w", src.Name, err)
			}
			extractors = append(extractors, ext)
		}
		stages = append(stages, pipeline.Stage{
			Name:       src.Name,
			Source:     lottery.Source{Name: src.Name, URL: src.URL, Referer: src.Referer},
			Extractors: extractors,
		})
	}
	return stages, nil
}

// Close releases the store and flushes the logger. It is called by a Cobra
// hook after the command finishes.
func (a *App) Close() {
	a.logger.Info("shutting down application services")
	if a.store != nil {
		a.store.Close()
	}
	// Sync commonly fails on stderr; best effort.
	_ = a.logger.Sync()
}
