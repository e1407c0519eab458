package redis

import (
	"context"

	"github.com/kbukum/modkit/errors"
	"github.com/kbukum/modkit/metadata"
)

// HistoryStore keeps module histories at {prefix}:{fqn}.hist.
type HistoryStore struct {
	client *Client
	prefix string
}

var _ metadata.HistoryStore = (*HistoryStore)(nil)

// NewHistoryStore creates a history store on client using its key prefix.
func NewHistoryStore(client *Client) *HistoryStore {
	return &HistoryStore{client: client, prefix: client.cfg.KeyPrefix}
}

// Key returns the Redis key of fqn's history.
func (s *HistoryStore) Key(fqn string) string {
	if s.prefix == "" {
		return fqn + metadata.HistoryExtension
	}
	return s.prefix + ":" + fqn + metadata.HistoryExtension
}

func (s *HistoryStore) Read(ctx context.Context, fqn string) (*metadata.History, error) {
	key := s.Key(fqn)
	raw, err := s.client.Get(ctx, key)
	if err != nil {
		if IsNil(err) {
			return nil, errors.NotFound("history", fqn)
		}
		return nil, errors.StorageError("get", key, err)
	}
	h, err := metadata.DecodeHistory(raw)
	if err != nil {
		return nil, errors.InvalidInput("history", "corrupt history for "+fqn).WithCause(err)
	}
	return h, nil
}

func (s *HistoryStore) Write(ctx context.Context, fqn string, h *metadata.History) error {
	data, err := h.Encode()
	if err != nil {
		return errors.Internal("encode history for "+fqn, err)
	}
	key := s.Key(fqn)
	if err := s.client.Set(ctx, key, data, s.client.cfg.ttl()); err != nil {
		return errors.StorageError("set", key, err)
	}
	return nil
}
