package revocation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cxc-checkin/internal/storage"
)

// SQLStore keeps revocations in the revoked_tokens table so they are
// shared between server instances.
type SQLStore struct {
	logger  *slog.Logger
	storage storage.Provider

	stop chan struct{}
	once sync.Once
}

func NewSQLStore(provider storage.Provider) *SQLStore {
	return &SQLStore{
		logger:  slog.With("component", "revocation"),
		storage: provider,
		stop:    make(chan struct{}),
	}
}

func (s *SQLStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	return s.storage.RevokeToken(ctx, tokenID, expiresAt)
}

func (s *SQLStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return s.storage.IsTokenRevoked(ctx, tokenID)
}

func (s *SQLStore) Prune(ctx context.Context) error {
	n, err := s.storage.PruneRevokedTokens(ctx, time.Now())
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Debug("Pruned revoked tokens", "count", n)
	}
	return nil
}

func (s *SQLStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *SQLStore) Done() <-chan struct{} {
	return s.stop
}
