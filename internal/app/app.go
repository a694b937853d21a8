package app

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/david/grant-agent/internal/alerts"
	"github.com/david/grant-agent/internal/config"
	"github.com/david/grant-agent/internal/db"
	"github.com/david/grant-agent/internal/ingest"
)

// App is the wired object graph shared by the agent, the server and the tools.
type App struct {
	Options    *config.Options
	Backend    db.Backend
	Store      *db.Store
	Scorer     *ingest.Scorer
	Pipeline   *ingest.Pipeline
	Dispatcher *alerts.Dispatcher
	Sources    *ingest.SourceRegistry
	RunLog     *db.RunLog

	pool *pgxpool.Pool
}

// Build wires every component from opts. Call Close when done.
func Build(ctx context.Context, opts *config.Options) (*App, error) {
	catalog, err := ingest.LoadCatalog(opts.CatalogFile)
	if err != nil {
		return nil, err
	}

	weights := catalog.Weights
	if opts.WeightsFile != "" {
		if weights, err = ingest.LoadWeights(opts.WeightsFile); err != nil {
			return nil, err
		}
	}

	sources, err := ingest.RegistryFromCatalog(catalog)
	if err != nil {
		return nil, err
	}

	a := &App{
		Options: opts,
		Scorer:  ingest.NewScorer(weights),
		Sources: sources,
		RunLog:  db.NewRunLog(opts.RunLogFile),
		Dispatcher: alerts.NewDispatcher(alerts.Config{
			WebhookURL:         opts.WebhookURL,
			Timeout:            opts.WebhookTimeout(),
			HighScoreThreshold: opts.AlertThreshold,
		}),
	}

	backend, err := a.backend(ctx)
	if err != nil {
		return nil, err
	}
	a.Backend = backend
	a.Store = db.NewStore(backend)
	a.Pipeline = ingest.NewPipeline(a.Store, a.Scorer, a.Dispatcher, a.RunLog)

	if !a.Dispatcher.Enabled() {
		log.Printf("No webhook configured; alerts are counted but not sent")
	}
	return a, nil
}

func (a *App) backend(ctx context.Context) (db.Backend, error) {
	switch a.Options.Backend {
	case config.BackendPostgres:
		pool, err := db.Connect(ctx, a.Options.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.ApplyMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		a.pool = pool
		log.Printf("Using Postgres record store")
		return db.NewPgBackend(pool), nil
	default:
		log.Printf("Using file record store %s", a.Options.GrantsFile)
		return db.NewFileBackend(a.Options.GrantsFile), nil
	}
}

// Source resolves a scan source id, defaulting to the configured one.
func (a *App) Source(id string) (ingest.CandidateSource, error) {
	if id == "" {
		id = a.Options.Source
	}
	return a.Sources.Get(id)
}

// RunConfiguredBatch runs one batch from the configured source.
func (a *App) RunConfiguredBatch(ctx context.Context) (ingest.BatchReport, error) {
	source, err := a.Source("")
	if err != nil {
		return ingest.BatchReport{}, err
	}
	return a.Pipeline.RunBatch(ctx, source)
}

func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
