package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cxc-checkin/internal/config"
)

type Provider interface {
	Close() error
	GetSchemaVersion(ctx context.Context) (int, error)

	// Event-related methods
	ListEvents(ctx context.Context) ([]Event, error)
	ListEventsHappeningAt(ctx context.Context, at time.Time) ([]Event, error)
	GetEvent(ctx context.Context, id int64) (*Event, error)
	CreateEvent(ctx context.Context, event *Event) error
	UpdateEvent(ctx context.Context, event *Event) error
	DeleteEvent(ctx context.Context, id int64) error

	// Attendance-related methods
	GetOrCreateAttendance(ctx context.Context, eventID int64, profileID string) (*Attendance, error)
	CheckIn(ctx context.Context, eventID int64, profileID string, at time.Time) (row *Attendance, already bool, err error)
	GetAttendance(ctx context.Context, eventID int64, profileID string) (*Attendance, error)
	ListAttendance(ctx context.Context, eventID int64) ([]Attendance, error)

	// Profile methods
	GetProfile(ctx context.Context, id string) (*Profile, error)
	GetProfileByNfcID(ctx context.Context, nfcID string) (*Profile, error)
	ListProfiles(ctx context.Context) ([]Profile, error)
	CreateProfile(ctx context.Context, profile *Profile) error
	UpdateProfileRole(ctx context.Context, id string, role Role) error
	SetProfileNfcID(ctx context.Context, id string, nfcID string) error

	// Session revocation methods
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
	PruneRevokedTokens(ctx context.Context, now time.Time) (int64, error)
}

func NewProvider(cfg *config.Storage) (Provider, error) {
	switch cfg.Type {
	case config.StorageSQLite:
		provider, err := NewSQLiteProvider(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		if err := provider.runMigrations(); err != nil {
			provider.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return provider, nil

	case config.StoragePostgres:
		provider, err := NewPostgresProvider(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if err := provider.runMigrations(cfg.Postgres.DSN); err != nil {
			provider.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return provider, nil

	default:
		slog.Error("Unsupported storage configuration", "type", cfg.Type)
	}

	return nil, fmt.Errorf("unsupported storage type %q", cfg.Type)
}
