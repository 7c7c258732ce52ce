package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kDuration
)

func (t keyType) String() string {
	switch t {
	case kInt:
		return "int"
	case kDuration:
		return "duration"
	}
	return "string"
}

const (
	keyCompletionAPIKey = "completion.api_key"
	keyServerAPIToken   = "server.api_token"
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.host", typ: kString, env: "SOCIALVAULT_SERVER_HOST",
		apply:   func(cfg *Config, v any) { cfg.Server.Host = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.Host },
	},
	{
		key: "server.port", typ: kInt, env: "SOCIALVAULT_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.allowed_origin", typ: kString, env: "SOCIALVAULT_SERVER_ALLOWED_ORIGIN",
		apply:   func(cfg *Config, v any) { cfg.Server.AllowedOrigin = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.AllowedOrigin },
	},
	{
		key: keyServerAPIToken, typ: kString, env: "SOCIALVAULT_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Server.APIToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.APIToken },
	},
	{
		key: "completion.provider", typ: kString, env: "SOCIALVAULT_COMPLETION_PROVIDER",
		apply:   func(cfg *Config, v any) { cfg.Completion.Provider = v.(string) },
		extract: func(cfg Config) any { return cfg.Completion.Provider },
	},
	{
		key: "completion.base_url", typ: kString, env: "SOCIALVAULT_COMPLETION_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Completion.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Completion.BaseURL },
	},
	{
		key: "completion.model", typ: kString, env: "SOCIALVAULT_COMPLETION_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Completion.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Completion.Model },
	},
	{
		key: keyCompletionAPIKey, typ: kString, env: "SOCIALVAULT_COMPLETION_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Completion.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Completion.APIKey },
	},
	{
		key: "storage.data_dir", typ: kString, env: "SOCIALVAULT_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "SOCIALVAULT_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "log.format", typ: kString, env: "SOCIALVAULT_LOG_FORMAT",
		apply:   func(cfg *Config, v any) { cfg.Log.Format = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Format },
	},
	{
		key: "cache.ttl", typ: kDuration, env: "SOCIALVAULT_CACHE_TTL",
		apply:   func(cfg *Config, v any) { cfg.Cache.TTL = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Cache.TTL },
	},
}

// parseValue converts a raw string to the Go type of t.
func parseValue(t keyType, raw string) (any, error) {
	switch t {
	case kInt:
		return strconv.Atoi(raw)
	case kDuration:
		if d, err := time.ParseDuration(raw); err == nil {
			return d, nil
		}
		// Bare integers are seconds.
		secs, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q", raw)
		}
		return time.Duration(secs) * time.Second, nil
	}
	return raw, nil
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		if s.typ == kInt {
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
			continue
		}

		raw, ok, err := b.GetString(s.key)
		if err != nil {
			return fmt.Errorf("reading %s: %w", s.key, err)
		}
		if !ok || (s.typ != kString && raw == "") {
			continue
		}
		v, err := parseValue(s.typ, raw)
		if err != nil {
			slog.Warn("could not parse config value, using default", "key", s.key, "value", raw, "error", err)
			continue
		}
		s.apply(cfg, v)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		v, err := parseValue(s.typ, raw)
		if err != nil {
			slog.Warn("could not parse env var, using default", "env", s.env, "value", raw, "error", err)
			continue
		}
		s.apply(cfg, v)
	}
}
