package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/kbukum/modkit/errors"
	"github.com/kbukum/modkit/logger"
	"github.com/kbukum/modkit/metadata"
)

// newTestClient creates a Client backed by miniredis.
func newTestClient(t *testing.T, cfg Config) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mini.Close)

	cfg.Addr = mini.Addr()
	client, err := New(cfg, logger.Nop())
	if err != nil {
		t.Fatalf("failed to create redis client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client, mini
}

func TestHistoryStore_RoundTrip(t *testing.T) {
	client, mini := newTestClient(t, Config{KeyPrefix: "nightly"})
	store := NewHistoryStore(client)
	ctx := context.Background()

	h := metadata.NewHistory()
	h.Update(metadata.Metadata{FQN: "app.Sales", URN: "mod:app.Sales@1"}, 5)
	h.Update(metadata.Metadata{FQN: "app.Sales", URN: "mod:app.Sales@2"}, 5)
	if err := store.Write(ctx, "app.Sales", h); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !mini.Exists("nightly:app.Sales.hist") {
		t.Fatalf("expected key nightly:app.Sales.hist, have %v", mini.Keys())
	}

	got, err := store.Read(ctx, "app.Sales")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	latest, _ := got.Latest()
	if got.Len() != 2 || latest.URN != "mod:app.Sales@2" {
		t.Errorf("unexpected history %+v", got)
	}
}

func TestHistoryStore_ReadMissing(t *testing.T) {
	client, _ := newTestClient(t, Config{})
	_, err := NewHistoryStore(client).Read(context.Background(), "nope")
	if !errors.IsCode(err, errors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestHistoryStore_ReadCorrupt(t *testing.T) {
	client, mini := newTestClient(t, Config{})
	if err := mini.Set("modkit:bad.hist", "%%%"); err != nil {
		t.Fatal(err)
	}
	_, err := NewHistoryStore(client).Read(context.Background(), "bad")
	if !errors.IsCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestHistoryStore_TTL(t *testing.T) {
	client, mini := newTestClient(t, Config{HistoryTTL: "1h"})
	if err := NewHistoryStore(client).Write(context.Background(), "a", metadata.NewHistory()); err != nil {
		t.Fatal(err)
	}
	if ttl := mini.TTL("modkit:a.hist"); ttl != time.Hour {
		t.Errorf("expected 1h ttl, got %v", ttl)
	}
}

func TestHistoryStore_ServerDown(t *testing.T) {
	client, mini := newTestClient(t, Config{})
	mini.Close()
	err := NewHistoryStore(client).Write(context.Background(), "a", metadata.NewHistory())
	if !errors.IsCode(err, errors.ErrCodeStorage) {
		t.Errorf("expected STORAGE_ERROR, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Addr: "localhost:6379"}, false},
		{"missing addr", Config{}, true},
		{"bad ttl", Config{Addr: "localhost:6379", HistoryTTL: "soon"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.ApplyDefaults()
			if err := tc.cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
