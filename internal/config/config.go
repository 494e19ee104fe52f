// Package config loads server configuration from an optional YAML file with
// environment overrides. A .env file in the working directory is honored
// before the environment is read.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the runtime settings for the server and CLI.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr"`
	// Database is the SQLite database path.
	Database string `yaml:"database"`
	// BasePath is the directory substituted for hosted storage paths in
	// cell source, and the PATH/BASE_PATH value cells observe.
	BasePath string `yaml:"base_path"`
	// NotebooksDir is scanned by the import command when no explicit file
	// is given.
	NotebooksDir string `yaml:"notebooks_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:         ":8080",
		Database:     "notebookd.db",
		BasePath:     "./data/",
		NotebooksDir: "./notebooks",
	}
}

// Load reads configuration in ascending precedence: defaults, the YAML file
// at path (skipped when path is empty or missing), then NOTEBOOKD_*
// environment variables. godotenv populates the environment from .env first;
// a missing .env is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	_ = godotenv.Load()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env overrides
		case err != nil:
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %q: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setIfPresent(&cfg.Addr, "NOTEBOOKD_ADDR")
	setIfPresent(&cfg.Database, "NOTEBOOKD_DATABASE")
	setIfPresent(&cfg.BasePath, "NOTEBOOKD_BASE_PATH")
	setIfPresent(&cfg.NotebooksDir, "NOTEBOOKD_NOTEBOOKS_DIR")
}

func setIfPresent(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
