package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ConfigBackend abstracts where non-secret settings are persisted. Keys
// are dotted paths ("server.port").
type ConfigBackend interface {
	GetString(key string) (val string, ok bool, err error)
	GetInt(key string) (val int, ok bool, err error)
	SetString(key, val string) error
	SetInt(key string, val int) error
	Delete(key string) error
}

// tomlBackend stores settings in a TOML file with one table per section.
type tomlBackend struct {
	path string
	data map[string]any
}

func openTOMLBackend(path string) (*tomlBackend, error) {
	b := &tomlBackend{path: path, data: make(map[string]any)}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return b, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(raw, &b.data); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return b, nil
}

func (b *tomlBackend) save() error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	out, err := toml.Marshal(b.data)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(b.path, out, 0o600)
}

func (b *tomlBackend) lookup(key string) (any, bool) {
	parts := strings.Split(key, ".")
	cur := b.data
	for i, p := range parts {
		v, ok := cur[p]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		next, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

func (b *tomlBackend) set(key string, val any) {
	parts := strings.Split(key, ".")
	cur := b.data
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = val
}

func (b *tomlBackend) GetString(key string) (string, bool, error) {
	v, ok := b.lookup(key)
	if !ok {
		return "", false, nil
	}
	if s, ok := v.(string); ok {
		return s, true, nil
	}
	return fmt.Sprintf("%v", v), true, nil
}

func (b *tomlBackend) GetInt(key string) (int, bool, error) {
	v, ok := b.lookup(key)
	if !ok {
		return 0, false, nil
	}
	switch val := v.(type) {
	case int64:
		if val < math.MinInt || val > math.MaxInt {
			return 0, true, fmt.Errorf("value %d for %s is out of range", val, key)
		}
		return int(val), true, nil
	case float64:
		if val != math.Trunc(val) {
			return 0, true, fmt.Errorf("value %v for %s is not an integer", val, key)
		}
		return int(val), true, nil
	case string:
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, true, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return i, true, nil
	default:
		return 0, true, fmt.Errorf("invalid type %T for %s", v, key)
	}
}

func (b *tomlBackend) SetString(key, val string) error {
	b.set(key, val)
	return b.save()
}

func (b *tomlBackend) SetInt(key string, val int) error {
	b.set(key, int64(val))
	return b.save()
}

func (b *tomlBackend) Delete(key string) error {
	parts := strings.Split(key, ".")
	if len(parts) > 1 {
		parent, ok := b.lookup(strings.Join(parts[:len(parts)-1], "."))
		if !ok {
			return nil
		}
		if m, ok := parent.(map[string]any); ok {
			delete(m, parts[len(parts)-1])
		}
	} else {
		delete(b.data, key)
	}
	return b.save()
}
