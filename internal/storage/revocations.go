package storage

import (
	"context"
	"time"
)

func (p *SQLProvider) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	_, err := p.db.ExecContext(ctx, p.q(`
		INSERT INTO revoked_tokens (token_id, expires_at) VALUES (?, ?)
		ON CONFLICT (token_id) DO UPDATE SET expires_at = excluded.expires_at`),
		tokenID, dbTime(expiresAt))
	return p.wrap("revoke token", err)
}

func (p *SQLProvider) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	var count int
	err := p.db.GetContext(ctx, &count, p.q(
		`SELECT COUNT(*) FROM revoked_tokens WHERE token_id = ? AND expires_at > ?`),
		tokenID, dbTime(time.Now()))
	if err != nil {
		return false, p.wrap("check revoked token", err)
	}
	return count > 0, nil
}

// PruneRevokedTokens deletes revocations that expired at or before now.
func (p *SQLProvider) PruneRevokedTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := p.db.ExecContext(ctx, p.q(`DELETE FROM revoked_tokens WHERE expires_at <= ?`), dbTime(now))
	if err != nil {
		return 0, p.wrap("prune revoked tokens", err)
	}
	return res.RowsAffected()
}
