package metadata

import (
	"context"
	stderrors "errors"
	"path"

	"github.com/kbukum/modkit/errors"
	"github.com/kbukum/modkit/resilience"
	"github.com/kbukum/modkit/storage"
)

// HistoryExtension is the file suffix of stored histories.
const HistoryExtension = ".hist"

// HistoryStore reads and writes module histories by fqn.
type HistoryStore interface {
	// Read returns the stored history. A missing history is a NOT_FOUND
	// AppError; undecodable content is an INVALID_INPUT AppError.
	Read(ctx context.Context, fqn string) (*History, error)
	Write(ctx context.Context, fqn string, h *History) error
}

// StorageHistoryStore keeps histories as files at {dir}/{fqn}.hist.
type StorageHistoryStore struct {
	store storage.Storage
	dir   string
	retry resilience.RetryConfig
}

var _ HistoryStore = (*StorageHistoryStore)(nil)

// NewStorageHistoryStore creates a history store rooted at dir.
func NewStorageHistoryStore(store storage.Storage, dir string) *StorageHistoryStore {
	return &StorageHistoryStore{store: store, dir: dir, retry: resilience.DefaultRetryConfig()}
}

// WithRetry overrides the retry policy for writes.
func (s *StorageHistoryStore) WithRetry(cfg resilience.RetryConfig) *StorageHistoryStore {
	s.retry = cfg
	return s
}

// Path returns the storage path of fqn's history.
func (s *StorageHistoryStore) Path(fqn string) string {
	return path.Join(s.dir, fqn+HistoryExtension)
}

func (s *StorageHistoryStore) Read(ctx context.Context, fqn string) (*History, error) {
	p := s.Path(fqn)
	data, err := storage.ReadBytes(ctx, s.store, p)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, errors.NotFound("history", fqn).WithCause(err)
		}
		return nil, errors.StorageError("read", p, err)
	}
	h, err := DecodeHistory(data)
	if err != nil {
		return nil, errors.InvalidInput("history", "corrupt history for "+fqn).WithCause(err)
	}
	return h, nil
}

func (s *StorageHistoryStore) Write(ctx context.Context, fqn string, h *History) error {
	data, err := h.Encode()
	if err != nil {
		return errors.Internal("encode history for "+fqn, err)
	}
	p := s.Path(fqn)
	err = resilience.RetryFunc(ctx, s.retry, func() error {
		return storage.WriteBytes(ctx, s.store, p, data)
	})
	if err != nil {
		return errors.StorageError("write", p, err)
	}
	return nil
}
