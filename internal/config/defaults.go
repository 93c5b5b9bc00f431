package config

var defaults = map[string]any{
	"log_level":        "info",
	"listen_addr":      ":8080",
	"allowed_networks": "",
	"base_url":         "/",

	"auth.jwt_secret": "",
	"auth.audience":   "authenticated",
	"auth.cookie":     "sb-access-token",

	"nfc.secret": "",

	"events.default_buffer":  "30m",
	"checkin.enforce_window": true,

	"revocation_store": "memory",

	"rbac.policy_file": "",

	"nats.url":            "",
	"nats.token":          "",
	"nats.subject_prefix": "cxc",

	"storage.type":                       "sqlite",
	"storage.sqlite.path":                "./data/storage.db",
	"storage.postgres.dsn":               "",
	"storage.postgres.max_conns":         4,
	"storage.postgres.statement_timeout": "30s",
}

func Defaults() map[string]any {
	values := make(map[string]any)
	for k, v := range defaults {
		values[k] = v
	}
	return values
}
