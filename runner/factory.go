package runner

import (
	"context"

	"github.com/kbukum/modkit/config"
	"github.com/kbukum/modkit/errors"
	"github.com/kbukum/modkit/logger"
	"github.com/kbukum/modkit/metadata"
	"github.com/kbukum/modkit/module"
	"github.com/kbukum/modkit/persist"
	"github.com/kbukum/modkit/redis"
	"github.com/kbukum/modkit/storage"
	_ "github.com/kbukum/modkit/storage/local"
	_ "github.com/kbukum/modkit/storage/s3"
)

// RootsFunc builds the root modules on the persistence factory the
// configuration selected.
type RootsFunc func(factory persist.Factory) ([]module.Module, error)

// NewFromConfig wires storage, the persistence factory, the history store
// and, when tracing is enabled, OTLP export from cfg, then creates a Runner over the modules roots returns.
// cfg must have defaults applied. Close the Runner to release connections.
func NewFromConfig(ctx context.Context, cfg *config.Config, roots RootsFunc, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := resolveOptions(opts).logger
	if log == nil {
		log = logger.New(&cfg.Logging, cfg.Name)
	}

	store, err := OpenStorage(cfg, log)
	if err != nil {
		return nil, err
	}
	history, closeHistory, err := OpenHistoryStore(ctx, cfg, store, log)
	if err != nil {
		return nil, err
	}

	factory := persist.NewStorageFactory(store, cfg.Paths.OutputDir,
		persist.WithRetry(cfg.Retry),
		persist.WithLogger(log),
	)
	wired := []Option{
		WithLogger(log),
		WithOutputStore(store, cfg.Paths.OutputDir),
		WithHistoryStore(history),
		WithMaxHistorySize(cfg.History.MaxSize),
		withCloser(closeHistory),
	}

	if cfg.Tracing.Enabled {
		metrics, shutdown, err := initTelemetry(ctx, cfg)
		if err != nil {
			closeAll(wired)
			return nil, err
		}
		wired = append(wired, WithMetrics(metrics), withCloser(shutdown))
	}

	modules, err := roots(factory)
	if err != nil {
		closeAll(wired)
		return nil, err
	}
	// Caller options come last so they override the wired defaults.
	r, err := New(modules, append(wired, opts...)...)
	if err != nil {
		closeAll(wired)
		return nil, err
	}
	return r, nil
}

// OpenStorage creates the storage backend cfg selects.
func OpenStorage(cfg *config.Config, log *logger.Logger) (storage.Storage, error) {
	var providerCfg any
	if cfg.Storage.Provider == storage.ProviderS3 {
		providerCfg = &cfg.S3
	}
	store, err := storage.New(cfg.Storage, providerCfg, log)
	if err != nil {
		return nil, errors.StorageError("open", cfg.Storage.Provider, err)
	}
	return store, nil
}

// OpenHistoryStore creates the history store cfg selects. Histories live
// on store unless the redis backend is configured. The returned func
// releases the backend's connections.
func OpenHistoryStore(ctx context.Context, cfg *config.Config, store storage.Storage, log *logger.Logger) (metadata.HistoryStore, func() error, error) {
	if cfg.History.Backend != config.HistoryBackendRedis {
		hs := metadata.NewStorageHistoryStore(store, cfg.Paths.HistoryDir).WithRetry(cfg.Retry)
		return hs, func() error { return nil }, nil
	}

	client, err := redis.New(cfg.History.Redis, log)
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, nil, errors.StorageError("ping", cfg.History.Redis.Addr, err)
	}
	return redis.NewHistoryStore(client), client.Close, nil
}

func closeAll(opts []Option) {
	for _, fn := range resolveOptions(opts).closers {
		_ = fn()
	}
}
