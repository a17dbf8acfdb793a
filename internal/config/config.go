// Package config resolves the client configuration: the base URLs of the
// five backend services, the local data directory, and the log level.
// Values come from defaults, the JSON config file, and INFOGREP_*
// environment variable overrides, in that order.
package config

import (
	"os"
	"path/filepath"
)

type Config struct {
	Services ServicesConfig
	Storage  StorageConfig
	Log      LogConfig
}

// ServicesConfig holds the base URL of each backend service.
type ServicesConfig struct {
	AuthURL string
	ChatURL string
	FileURL string
	AIURL   string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

// defaults is the production endpoint set.
func defaults() Config {
	return Config{
		Services: ServicesConfig{
			AuthURL: "https://auth.infogrep.app",
			ChatURL: "https://chat.infogrep.app",
			FileURL: "https://files.infogrep.app",
			AIURL:   "https://ai.infogrep.app",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DevServices is the development endpoint set, matching the routes the
// devstub command serves.
func DevServices() ServicesConfig {
	return ServicesConfig{
		AuthURL: "http://127.0.0.1:4832/auth",
		ChatURL: "http://127.0.0.1:4832/chat",
		FileURL: "http://127.0.0.1:4832/files",
		AIURL:   "http://127.0.0.1:4832/ai",
	}
}

// Load reads configuration from the JSON config file and applies
// environment overrides. A missing config file is not an error; defaults
// apply.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)

	return cfg, nil
}

func configFilePath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "infogrep", "config.json")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "infogrep-config.json"
	}
	return filepath.Join(home, ".config", "infogrep", "config.json")
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "infogrep")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".infogrep"
	}
	return filepath.Join(home, ".local", "share", "infogrep")
}
