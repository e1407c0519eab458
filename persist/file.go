package persist

import (
	"context"
	stderrors "errors"
	"path"

	"github.com/kbukum/modkit/errors"
	"github.com/kbukum/modkit/logger"
	"github.com/kbukum/modkit/resilience"
	"github.com/kbukum/modkit/storage"
)

// File persists one artifact as a single object on a storage backend.
type File struct {
	store storage.Storage
	path  string
	codec Codec
	retry resilience.RetryConfig
	log   *logger.Logger
}

var _ Strategy = (*File)(nil)

// Path returns the object's storage path.
func (f *File) Path() string { return f.path }

func (f *File) Read(ctx context.Context) (any, error) {
	data, err := storage.ReadBytes(ctx, f.store, f.path)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, errors.NotFound("persisted output", f.path).WithCause(err)
		}
		return nil, errors.StorageError("read", f.path, err)
	}
	v, err := f.codec.Unmarshal(data)
	if err != nil {
		return nil, errors.InvalidInput("path", "cannot decode "+f.path).WithCause(err)
	}
	return v, nil
}

func (f *File) Write(ctx context.Context, v any) error {
	data, err := f.codec.Marshal(v)
	if err != nil {
		return errors.InvalidInput("value", "cannot encode "+f.path).WithCause(err)
	}
	err = resilience.RetryFunc(ctx, f.retry, func() error {
		return storage.WriteBytes(ctx, f.store, f.path, data)
	})
	if err != nil {
		return errors.StorageError("write", f.path, err)
	}
	f.log.Debug("persisted", logger.Fields(logger.FieldPath, f.path, "bytes", len(data)))
	return nil
}

func (f *File) IsPersisted(ctx context.Context) (bool, error) {
	ok, err := f.store.Exists(ctx, f.path)
	if err != nil {
		return false, errors.StorageError("stat", f.path, err)
	}
	return ok, nil
}

func (f *File) Remove(ctx context.Context) error {
	if err := f.store.Delete(ctx, f.path); err != nil {
		return errors.StorageError("delete", f.path, err)
	}
	return nil
}

func (f *File) AllOutput() []string { return []string{f.path} }

// StorageFactory creates File strategies under one output directory.
type StorageFactory struct {
	store     storage.Storage
	outputDir string
	retry     resilience.RetryConfig
	log       *logger.Logger
}

var _ Factory = (*StorageFactory)(nil)

// Option configures a StorageFactory.
type Option func(*StorageFactory)

// WithRetry sets the retry policy for writes.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(f *StorageFactory) { f.retry = cfg }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(f *StorageFactory) { f.log = log }
}

// NewStorageFactory creates a factory writing under outputDir on store.
func NewStorageFactory(store storage.Storage, outputDir string, opts ...Option) *StorageFactory {
	f := &StorageFactory{
		store:     store,
		outputDir: outputDir,
		retry:     resilience.DefaultRetryConfig(),
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.log = f.log.WithComponent("persist")
	return f
}

// OutputDir returns the directory strategies write under.
func (f *StorageFactory) OutputDir() string { return f.outputDir }

// Strategy returns a File at {outputDir}/{fqn}_{fingerprint}.{ext}.
func (f *StorageFactory) Strategy(fqn, fingerprint string, codec Codec) Strategy {
	return &File{
		store: f.store,
		path:  path.Join(f.outputDir, fqn+"_"+fingerprint+"."+codec.Extension()),
		codec: codec,
		retry: f.retry,
		log:   f.log,
	}
}
