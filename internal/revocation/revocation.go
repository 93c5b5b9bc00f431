// Package revocation remembers logged-out session tokens until they expire.
package revocation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cxc-checkin/internal/storage"
)

type StoreType string

// Supported revocation stores.
const (
	Memory StoreType = "memory"
	SQL    StoreType = "sql"
)

// DefaultPruneInterval is how often expired revocations are dropped.
const DefaultPruneInterval = time.Minute

type Store interface {
	// Revoke blocks tokenID until expiresAt.
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	// Prune drops revocations whose token has expired anyway.
	Prune(ctx context.Context) error
	// Done is closed by Close and stops the janitor.
	Done() <-chan struct{}
	Close()
}

// NewStore builds the store named by kind and starts its janitor.
func NewStore(kind string, provider storage.Provider, interval time.Duration) (Store, error) {
	if interval <= 0 {
		interval = DefaultPruneInterval
	}

	var store Store
	switch StoreType(kind) {
	case Memory, "":
		store = NewMemoryStore()
	case SQL:
		if provider == nil {
			return nil, fmt.Errorf("revocation store %q requires a storage provider", kind)
		}
		store = NewSQLStore(provider)
	default:
		return nil, fmt.Errorf("unknown revocation store type %q", kind)
	}

	go janitor(store, interval)
	slog.Info("Initialized revocation store", "type", kind)
	return store, nil
}

func janitor(s Store, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.Prune(context.Background()); err != nil {
				slog.Warn("Failed to prune revoked tokens", "component", "revocation", "error", err)
			}
		case <-s.Done():
			return
		}
	}
}
