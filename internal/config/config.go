package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AuthConfig struct {
	// Supabase JWT secret used to verify session tokens.
	JWTSecret string `mapstructure:"jwt_secret"`
	Audience  string `mapstructure:"audience"`
	// Cookie carrying the access token when no Authorization header is sent.
	Cookie string `mapstructure:"cookie"`
}

type NFCConfig struct {
	Secret string `mapstructure:"secret"` // HMAC key for NFC id derivation
}

type EventsConfig struct {
	// Applied around start/end when buffered times are omitted on create.
	DefaultBuffer time.Duration `mapstructure:"default_buffer"`
}

type CheckInConfig struct {
	// Reject check-ins outside the event's buffered window.
	EnforceWindow bool `mapstructure:"enforce_window"`
}

type RBACConfig struct {
	PolicyFile string `mapstructure:"policy_file"` // Empty means the built-in policy
}

type NATSConfig struct {
	URL           string `mapstructure:"url"`
	Token         string `mapstructure:"token"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type Config struct {
	LogLevel   string `mapstructure:"log_level"`
	ListenAddr string `mapstructure:"listen_addr"`

	// Comma separated list of allowed CIDR networks. Empty means allow all.
	AllowedNetworks string `mapstructure:"allowed_networks"`
	BaseURL         string `mapstructure:"base_url"`

	Auth    AuthConfig    `mapstructure:"auth"`
	NFC     NFCConfig     `mapstructure:"nfc"`
	Events  EventsConfig  `mapstructure:"events"`
	CheckIn CheckInConfig `mapstructure:"checkin"`
	RBAC    RBACConfig    `mapstructure:"rbac"`
	NATS    NATSConfig    `mapstructure:"nats"`

	// "memory" or "sql"
	RevocationStore string `mapstructure:"revocation_store"`

	Storage Storage `mapstructure:"storage"`
}

// Check if running in Docker container by checking for the presence of /.dockerenv file
func runningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}

func getConfigPath() string {
	if runningInDocker() {
		return "/app/instance"
	}
	return "./instance"
}

// LoadConfig reads configuration from an optional config file, .env and
// environment variables and returns a Config struct.
func LoadConfig(configFile ...string) (*Config, error) {
	var cfg Config

	// .env is optional, variables may come from the environment directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(getConfigPath())
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, path := range configFile {
		if path != "" {
			v.SetConfigFile(path)
		}
	}

	for k, val := range Defaults() {
		v.SetDefault(k, val)
	}

	// Load configuration from environment variables
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %v", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (cfg *Config) normalize() error {
	switch cfg.Storage.Type {
	case StorageSQLite:
		if cfg.Storage.SQLite == nil || cfg.Storage.SQLite.Path == "" {
			return fmt.Errorf("config: storage.sqlite.path is required for sqlite storage")
		}
		// Convert relative sqlite path to absolute instance folder
		path := cfg.Storage.SQLite.Path
		if !strings.HasPrefix(path, ":memory:") && !os.IsPathSeparator(path[0]) {
			cfg.Storage.SQLite.Path = fmt.Sprintf("%s/%s", getConfigPath(), path)
		}
	case StoragePostgres:
		if cfg.Storage.Postgres == nil || strings.TrimSpace(cfg.Storage.Postgres.DSN) == "" {
			return fmt.Errorf("config: storage.postgres.dsn is required for postgres storage")
		}
	default:
		return fmt.Errorf("config: unsupported storage type %q", cfg.Storage.Type)
	}

	if cfg.Events.DefaultBuffer < 0 {
		slog.Warn("events.default_buffer must not be negative, using 0", "actual", cfg.Events.DefaultBuffer)
		cfg.Events.DefaultBuffer = 0
	}

	// Warn if secrets are missing - these are critical security settings for production
	for name, secret := range map[string]string{"auth.jwt_secret": cfg.Auth.JWTSecret, "nfc.secret": cfg.NFC.Secret} {
		if secret != "" {
			continue
		}
		if os.Getenv("GIN_MODE") == "release" {
			return fmt.Errorf("config: %s is required in production", name)
		}
		slog.Warn("Secret is not set. Do not use in production.", "key", name)
	}

	return nil
}
