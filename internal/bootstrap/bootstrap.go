// Package bootstrap builds the shared runtime pieces from configuration for
// both the server and the importer CLI.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/grachmannico95/oms-bulk-import/internal/config"
	"github.com/grachmannico95/oms-bulk-import/internal/csvparse"
	"github.com/grachmannico95/oms-bulk-import/internal/domain"
	"github.com/grachmannico95/oms-bulk-import/internal/eventbus"
	"github.com/grachmannico95/oms-bulk-import/internal/importer"
	"github.com/grachmannico95/oms-bulk-import/internal/storage"
	"github.com/grachmannico95/oms-bulk-import/internal/storage/postgres"
	"github.com/grachmannico95/oms-bulk-import/pkg/logger"
	"github.com/grachmannico95/oms-bulk-import/pkg/retry"
)

// OpenStore returns the configured store and a func that releases it.
func OpenStore(ctx context.Context, cfg config.StorageConfig, log *logger.Logger) (domain.Store, func(), error) {
	switch cfg.Driver {
	case config.StoreDriverMemory:
		log.Info(ctx, "Using in-memory store")
		return storage.NewMemoryStore(), func() {}, nil

	case config.StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL is required for the %s store", cfg.Driver)
		}

		pool, err := postgres.Connect(ctx, postgres.PoolConfig{
			URL:             cfg.DatabaseURL,
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
		})
		if err != nil {
			return nil, nil, err
		}

		store := postgres.NewStore(pool)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}

		log.Info(ctx, "Connected to PostgreSQL", "max_conns", cfg.MaxConns)
		return store, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// ImportOptions maps configuration onto importer options.
func ImportOptions(cfg config.ImportConfig) (importer.OrderOptions, importer.SKUOptions) {
	settings := importer.DefaultSettings()
	settings.Parse.Delimiter = cfg.CSVDelimiter
	settings.Parse.Encoding = csvparse.Encoding(cfg.CSVEncoding)
	settings.LookupChunkSize = cfg.LookupChunkSize
	settings.Retry = []retry.Option{
		retry.WithMaxAttempts(cfg.LookupRetries),
		retry.WithBaseDelay(200 * time.Millisecond),
		retry.WithMaxDelay(5 * time.Second),
	}
	if cfg.MutationsPerSecond > 0 {
		burst := int(cfg.MutationsPerSecond)
		if burst < 1 {
			burst = 1
		}
		settings.Limiter = rate.NewLimiter(rate.Limit(cfg.MutationsPerSecond), burst)
	}

	orderOpts := importer.OrderOptions{
		Settings:        settings,
		CheckDuplicates: cfg.CheckDuplicates,
		ValidateSKUs:    cfg.ValidateSKUs,
	}
	skuOpts := importer.SKUOptions{
		Settings:       settings,
		UpdateExisting: cfg.UpdateExisting,
		SkipDuplicates: cfg.SkipDuplicates,
	}

	return orderOpts, skuOpts
}

// StartEventBus subscribes the progress consumer and starts the workers.
func StartEventBus(ctx context.Context, cfg *config.Config, jobs domain.JobRepository, log *logger.Logger) (eventbus.EventBus, error) {
	bus := eventbus.New(log, &eventbus.Config{
		ChannelBuffer: cfg.EventBus.ChannelBufferSize,
		MaxRetries:    cfg.Worker.MaxRetries,
	})

	consumer := eventbus.NewProgressConsumer(jobs, log, cfg.Worker.PoolSize)
	if err := bus.Subscribe(eventbus.EventTypeImportProgress, consumer); err != nil {
		return nil, fmt.Errorf("subscribe progress consumer: %w", err)
	}

	if err := bus.Start(ctx); err != nil {
		return nil, fmt.Errorf("start event bus: %w", err)
	}

	log.Info(ctx, "Event bus started", "worker_count", cfg.Worker.PoolSize)
	return bus, nil
}
