package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// ErrSecretNotFound is returned when a secret has never been stored.
var ErrSecretNotFound = errors.New("secret not found")

// SecretStore persists secrets outside the regular config file.
type SecretStore interface {
	Get(name string) (string, error)
	Set(name, value string) error
}

// FileSecrets keeps secrets in a TOML file readable only by the owner.
type FileSecrets struct {
	path string
	mu   sync.Mutex
}

// NewFileSecrets returns a store backed by the file at path.
func NewFileSecrets(path string) *FileSecrets {
	return &FileSecrets{path: path}
}

// SecretsFilePath returns the default location of the secrets file.
func SecretsFilePath() string {
	return filepath.Join(defaultDataDir(), "secrets.toml")
}

func (f *FileSecrets) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading secrets file: %w", err)
	}
	secrets := map[string]string{}
	if err := toml.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("parsing secrets file: %w", err)
	}
	return secrets, nil
}

func (f *FileSecrets) Get(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	secrets, err := f.read()
	if err != nil {
		return "", err
	}
	v, ok := secrets[name]
	if !ok || v == "" {
		return "", ErrSecretNotFound
	}
	return v, nil
}

func (f *FileSecrets) Set(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	secrets, err := f.read()
	if err != nil {
		return err
	}
	secrets[name] = value

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating secrets dir: %w", err)
	}
	out, err := toml.Marshal(secrets)
	if err != nil {
		return fmt.Errorf("encoding secrets: %w", err)
	}
	return os.WriteFile(f.path, out, 0o600)
}

// GetAPIToken returns the bearer token for the local API, generating and
// storing one on first use.
func GetAPIToken(s SecretStore) (string, error) {
	tok, err := s.Get(keyServerAPIToken)
	if err == nil {
		return tok, nil
	}
	if !errors.Is(err, ErrSecretNotFound) {
		return "", err
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating api token: %w", err)
	}
	tok = hex.EncodeToString(buf)
	if err := s.Set(keyServerAPIToken, tok); err != nil {
		return "", fmt.Errorf("storing api token: %w", err)
	}
	return tok, nil
}

// APIToken returns the configured token, falling back to the stored one.
func APIToken(cfg Config, s SecretStore) (string, error) {
	if cfg.Server.APIToken != "" {
		return cfg.Server.APIToken, nil
	}
	return GetAPIToken(s)
}
