package revocation

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"cxc-checkin/internal/config"
	"cxc-checkin/internal/storage"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if err := s.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := s.Revoke(ctx, "jti-2", time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	if revoked, err := s.IsRevoked(ctx, "jti-1"); err != nil || !revoked {
		t.Fatalf("jti-1 should be revoked: %v %v", revoked, err)
	}
	if revoked, _ := s.IsRevoked(ctx, "jti-2"); revoked {
		t.Fatalf("expired revocation should not apply")
	}
	if revoked, _ := s.IsRevoked(ctx, "jti-3"); revoked {
		t.Fatalf("unknown token reported revoked")
	}
	if err := s.Prune(ctx); err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if revoked, _ := s.IsRevoked(ctx, "jti-1"); !revoked {
		t.Fatalf("prune dropped a live revocation")
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	exerciseStore(t, s)
	if s.Len() != 1 {
		t.Fatalf("expected 1 entry after prune, got %d", s.Len())
	}
}

func TestSQLStore(t *testing.T) {
	provider, err := storage.NewProvider(&config.Storage{
		Type:   config.StorageSQLite,
		SQLite: &config.SQLiteStorage{Path: ":memory:"},
	})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	defer provider.Close()

	s := NewSQLStore(provider)
	defer s.Close()
	exerciseStore(t, s)
}

func TestNewStore(t *testing.T) {
	s, err := NewStore("memory", nil, time.Hour)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	s.Close()
	s.Close()

	if _, err := NewStore("sql", nil, 0); err == nil {
		t.Fatalf("sql store without provider should fail")
	}
	if _, err := NewStore("redis", nil, 0); err == nil {
		t.Fatalf("unknown store type should fail")
	}
}

// countingStore is a Store that only counts prunes.
type countingStore struct {
	*MemoryStore
	prunes atomic.Int32
}

func (s *countingStore) Prune(ctx context.Context) error {
	s.prunes.Add(1)
	return s.MemoryStore.Prune(ctx)
}

func TestJanitorStopsOnClose(t *testing.T) {
	s := &countingStore{MemoryStore: NewMemoryStore()}

	exited := make(chan struct{})
	go func() {
		janitor(s, 5*time.Millisecond)
		close(exited)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for s.prunes.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("janitor never pruned")
		}
		time.Sleep(time.Millisecond)
	}

	s.Close()
	select {
	case <-exited:
	case <-time.After(2 * time.Second):
		t.Fatalf("janitor did not stop after Close")
	}
}
