package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

const appName = "socialvault"

type Config struct {
	Server     ServerConfig
	Completion CompletionConfig
	Storage    StorageConfig
	Log        LogConfig
	Cache      CacheConfig
}

type ServerConfig struct {
	Host          string
	Port          int
	AllowedOrigin string
	APIToken      string
}

type CompletionConfig struct {
	Provider string
	BaseURL  string
	Model    string
	APIKey   string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level  string
	Format string
}

type CacheConfig struct {
	TTL time.Duration
}

// Addr returns the listen address of the HTTP server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:          "127.0.0.1",
			Port:          4000,
			AllowedOrigin: "*",
		},
		Completion: CompletionConfig{
			Provider: "openai",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Cache: CacheConfig{
			TTL: 60 * time.Second,
		},
	}
}

// Load reads configuration from, in increasing precedence: built-in
// defaults, the TOML file at $XDG_CONFIG_HOME/socialvault/config.toml,
// a .env file in the working directory, and SOCIALVAULT_* environment
// variables. Secrets come from the environment or the secrets file.
func Load() (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	return loadFromPath(ConfigFilePath(), NewFileSecrets(SecretsFilePath()))
}

// loadDotEnv exports the variables of the given .env files. Variables
// already set in the environment win. Missing files are skipped.
func loadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

func loadFromPath(path string, secrets SecretStore) (Config, error) {
	b, err := openTOMLBackend(path)
	if err != nil {
		return Config{}, err
	}
	return loadWith(b, secrets)
}

func loadWith(b ConfigBackend, secrets SecretStore) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// Secrets not provided via the environment fall back to the secrets file.
	if cfg.Completion.APIKey == "" && secrets != nil {
		if v, err := secrets.Get(keyCompletionAPIKey); err == nil {
			cfg.Completion.APIKey = v
		} else if !errors.Is(err, ErrSecretNotFound) {
			slog.Warn("could not read secrets file", "error", err)
		}
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port %d out of range", cfg.Server.Port)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid config: log.format %q (want text or json)", cfg.Log.Format)
	}
	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Cache.TTL < 0 {
		return fmt.Errorf("invalid config: cache.ttl must not be negative")
	}
	return nil
}

// ParseLevel maps a log.level value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", s, err)
	}
	return l, nil
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return appName + "-data"
		}
	}
	return filepath.Join(dir, appName)
}

// ConfigFilePath returns the location of config.toml.
func ConfigFilePath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, appName, "config.toml")
}
