// Package app wires configuration into a running pipeline.
package app

import (
	"context"

	"go.uber.org/zap"

	"go-measure-pipeline/internal/api"
	"go-measure-pipeline/internal/api/handler"
	"go-measure-pipeline/internal/config"
	"go-measure-pipeline/internal/errors"
	"go-measure-pipeline/internal/events"
	"go-measure-pipeline/internal/logger"
	"go-measure-pipeline/internal/model"
	"go-measure-pipeline/internal/pipeline"
	"go-measure-pipeline/internal/source"
	"go-measure-pipeline/internal/store"
	"go-measure-pipeline/pkg/router"
	"go-measure-pipeline/pkg/utils"
)

// App holds the long-lived components shared by the CLI and the API server
type App struct {
	Config   *config.Config
	Store    *store.DB
	Pipeline *pipeline.Pipeline
	Exporter *pipeline.Exporter
	Opener   *source.Opener
	Log      *zap.SugaredLogger

	publisher *events.KafkaPublisher
}

// New opens the store, applies migrations and assembles the pipeline.
// The caller must Close the returned App.
func New(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*App, error) {
	log = logger.Or(log)

	loc, err := cfg.Ingest.Location()
	if err != nil {
		return nil, err
	}

	db, err := store.OpenWithMigrations(ctx, cfg.Database.Driver, cfg.Database.DSN, log)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Store: db, Log: log}

	opts := []pipeline.Option{
		pipeline.WithLogger(log.Named("pipeline")),
		pipeline.WithTracker(pipeline.NewIngestTracker()),
		pipeline.WithRecentLimit(cfg.Ingest.RecentLimit),
		pipeline.WithParseOptions(pipeline.ParseOptions{
			Delimiter: cfg.Ingest.DelimiterRune(),
			Location:  loc,
		}),
	}

	pub, err := events.NewKafkaPublisher(cfg.Kafka, log.Named("events"))
	if err != nil {
		db.Close()
		return nil, err
	}
	if pub != nil {
		a.publisher = pub
		opts = append(opts, pipeline.WithPublisher(pub))
	}

	a.Pipeline = pipeline.New(db, db, opts...)
	a.Exporter = pipeline.NewExporter(db, utils.NewOutputManager(cfg.Export.Dir), log.Named("export"))

	var s3Getter source.S3Getter
	if cfg.S3.Region != "" || cfg.S3.Endpoint != "" {
		client, err := source.NewS3Client(ctx, cfg.S3)
		if err != nil {
			a.Close()
			return nil, err
		}
		s3Getter = client
	}
	a.Opener = source.NewOpener(s3Getter)

	log.Infow("Pipeline ready", "config", cfg.String())
	return a, nil
}

// RetryConfig converts the configured retry policy
func (a *App) RetryConfig() model.RetryConfig {
	return model.RetryConfig{
		MaxAttempts:       a.Config.Retry.MaxAttempts,
		InitialDelay:      a.Config.Retry.InitialDelay,
		MaxDelay:          a.Config.Retry.MaxDelay,
		BackoffMultiplier: a.Config.Retry.BackoffMultiplier,
	}
}

// IngestURI opens uri and ingests it, retrying storage failures.
// Each attempt reopens the source since a failed attempt consumes it.
func (a *App) IngestURI(ctx context.Context, uri string) (*model.IngestResult, error) {
	var result *model.IngestResult
	err := pipeline.Retry(ctx, a.RetryConfig(), a.Log, func(ctx context.Context) error {
		src, err := a.Opener.Open(ctx, uri)
		if err != nil {
			return err
		}
		defer src.Close()

		result, err = a.Pipeline.Ingest(ctx, src.Name, src)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "ingest %s", uri)
	}
	return result, nil
}

// Router builds the HTTP router with every API route registered
func (a *App) Router() *router.Router {
	r := router.New(a.Log.Named("http"))
	loc, _ := a.Config.Ingest.Location()
	h := handler.New(a.Pipeline, a.Exporter, a.Pipeline.Tracker(), a.Store, handler.Options{
		Location:       loc,
		RecentLimit:    a.Config.Ingest.RecentLimit,
		MaxUploadBytes: a.Config.Ingest.MaxUploadBytes,
	}, a.Log.Named("api"))
	api.RegisterRoutes(r, h)
	return r
}

// Serve runs the API server until ctx is cancelled
func (a *App) Serve(ctx context.Context) error {
	return a.Router().Serve(ctx, a.Config.Server.Addr, a.Config.Server.ReadTimeout, a.Config.Server.ShutdownTimeout)
}

// Close releases the publisher and the store
func (a *App) Close() error {
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
