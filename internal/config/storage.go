package config

import "time"

const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

type Storage struct {
	Type     string           `mapstructure:"type"`
	SQLite   *SQLiteStorage   `mapstructure:"sqlite,omitempty"`
	Postgres *PostgresStorage `mapstructure:"postgres,omitempty"`
}

type SQLiteStorage struct {
	Path string `mapstructure:"path,omitempty"`
}

type PostgresStorage struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int    `mapstructure:"max_conns"`
	// Applied as the session statement_timeout of every pooled connection.
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
}
