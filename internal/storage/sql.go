package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// SQLProvider holds the query code shared by all SQL drivers. Queries are
// written with `?` placeholders and rebound for the active driver.
type SQLProvider struct {
	db *sqlx.DB

	// Driver specific translation of constraint violations.
	mapErr func(error) error

	logger *slog.Logger
}

func newSQLProvider(db *sqlx.DB, mapErr func(error) error) *SQLProvider {
	if mapErr == nil {
		mapErr = func(err error) error { return err }
	}
	return &SQLProvider{
		db:     db,
		mapErr: mapErr,
		logger: slog.With("component", "storage", "driver", db.DriverName()),
	}
}

func (p *SQLProvider) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

func (p *SQLProvider) GetSchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := p.db.GetContext(ctx, &version, `SELECT version FROM schema_migrations LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return -1, fmt.Errorf("get schema version: %w", err)
	}
	return version, nil
}

func (p *SQLProvider) q(query string) string {
	return p.db.Rebind(query)
}

// wrap maps driver errors onto storage errors and adds operation context.
func (p *SQLProvider) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, p.mapErr(err))
}
