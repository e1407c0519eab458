package runner

import (
	"github.com/kbukum/modkit/logger"
	"github.com/kbukum/modkit/metadata"
	"github.com/kbukum/modkit/observability"
	"github.com/kbukum/modkit/storage"
)

// Option configures a Runner during creation.
type Option func(*options)

type options struct {
	history    metadata.HistoryStore
	output     storage.Storage
	outputDir  string
	logger     *logger.Logger
	metrics    *observability.Metrics
	maxHistory int
	closers    []func() error
}

func resolveOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithHistoryStore sets where metadata histories are read and written.
func WithHistoryStore(h metadata.HistoryStore) Option {
	return func(o *options) {
		o.history = h
	}
}

// WithOutputStore sets the storage and root directory persisted outputs
// live under. It is required by PurgeOldButKeepNewPersisted.
func WithOutputStore(s storage.Storage, outputDir string) Option {
	return func(o *options) {
		o.output = s
		o.outputDir = outputDir
	}
}

// WithLogger sets the logger. Defaults to the logger registered as "runner".
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics records pass, post-action and error metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithMaxHistorySize caps the history length of every module. Zero or
// less leaves module settings alone.
func WithMaxHistorySize(n int) Option {
	return func(o *options) {
		o.maxHistory = n
	}
}

// withCloser registers a resource released by Close.
func withCloser(fn func() error) Option {
	return func(o *options) {
		o.closers = append(o.closers, fn)
	}
}
