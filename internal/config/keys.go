package config

import (
	"fmt"
	"os"
)

type keySpec struct {
	key     string
	env     string
	apply   func(cfg *Config, v string)
	extract func(cfg Config) string
}

var specs = []keySpec{
	{
		key: "services.auth_url", env: "INFOGREP_AUTH_URL",
		apply:   func(cfg *Config, v string) { cfg.Services.AuthURL = v },
		extract: func(cfg Config) string { return cfg.Services.AuthURL },
	},
	{
		key: "services.chat_url", env: "INFOGREP_CHAT_URL",
		apply:   func(cfg *Config, v string) { cfg.Services.ChatURL = v },
		extract: func(cfg Config) string { return cfg.Services.ChatURL },
	},
	{
		key: "services.file_url", env: "INFOGREP_FILE_URL",
		apply:   func(cfg *Config, v string) { cfg.Services.FileURL = v },
		extract: func(cfg Config) string { return cfg.Services.FileURL },
	},
	{
		key: "services.ai_url", env: "INFOGREP_AI_URL",
		apply:   func(cfg *Config, v string) { cfg.Services.AIURL = v },
		extract: func(cfg Config) string { return cfg.Services.AIURL },
	},
	{
		key: "storage.data_dir", env: "INFOGREP_DATA_DIR",
		apply:   func(cfg *Config, v string) { cfg.Storage.DataDir = v },
		extract: func(cfg Config) string { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", env: "INFOGREP_LOG_LEVEL",
		apply:   func(cfg *Config, v string) { cfg.Log.Level = v },
		extract: func(cfg Config) string { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b Backend) error {
	for _, s := range specs {
		v, ok, err := b.Get(s.key)
		if err != nil {
			return fmt.Errorf("reading %s: %w", s.key, err)
		}
		if ok && v != "" {
			s.apply(cfg, v)
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if raw := os.Getenv(s.env); raw != "" {
			s.apply(cfg, raw)
		}
	}
}

// KeyInfo describes a config key for display purposes.
type KeyInfo struct {
	Key    string
	EnvVar string
	Value  string
}

// ShowAll returns all config key/value pairs from the current config.
func ShowAll(cfg Config) []KeyInfo {
	var result []KeyInfo
	for _, s := range specs {
		result = append(result, KeyInfo{
			Key:    s.key,
			EnvVar: s.env,
			Value:  s.extract(cfg),
		})
	}
	return result
}

// SetKey writes a config key to the config file.
func SetKey(key, value string) error {
	return setKeyWith(newFileBackend(configFilePath()), key, value)
}

func setKeyWith(b Backend, key, value string) error {
	for _, s := range specs {
		if s.key == key {
			return b.Set(key, value)
		}
	}
	return fmt.Errorf("unknown config key: %q", key)
}

// ValidKeys returns the list of valid config key names.
func ValidKeys() []string {
	var keys []string
	for _, s := range specs {
		keys = append(keys, s.key)
	}
	return keys
}
