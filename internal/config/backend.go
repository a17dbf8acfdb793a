package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Backend abstracts config storage so tests can swap in a map. The real
// backend is a flat JSON file of string key/value pairs.
type Backend interface {
	Get(key string) (val string, ok bool, err error)
	Set(key, val string) error
}

type fileBackend struct {
	path string
}

func newFileBackend(path string) *fileBackend {
	return &fileBackend{path: path}
}

func (b *fileBackend) read() (map[string]string, error) {
	data, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", b.path, err)
	}
	return values, nil
}

func (b *fileBackend) Get(key string) (string, bool, error) {
	values, err := b.read()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (b *fileBackend) Set(key, val string) error {
	values, err := b.read()
	if err != nil {
		return err
	}
	values[key] = val

	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(b.path, append(data, '\n'), 0o600)
}

// mapBackend is an in-memory Backend for tests.
type mapBackend map[string]string

func (m mapBackend) Get(key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m mapBackend) Set(key, val string) error {
	m[key] = val
	return nil
}
