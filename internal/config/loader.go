package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that take precedence over the YAML file.
const (
	EnvTargetURL  = "SCRAPER_TARGET_URL"
	EnvOutputPath = "SCRAPER_OUTPUT_PATH"
	EnvStorageDSN = "SCRAPER_STORAGE_DSN"
	EnvLogLevel   = "SCRAPER_LOG_LEVEL"
)

// LoadConfig reads the YAML file on top of Default(), applies the selectors file and
// environment overrides, and validates the result.
func LoadConfig(filePath string) (*Config, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("Warning: failed to close config file: %v", closeErr)
		}
	}()

	cfg := Default()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.SelectorsFile != "" {
		selectors, err := LoadSelectors(resolveRelative(filePath, cfg.SelectorsFile))
		if err != nil {
			return nil, err
		}
		cfg.Selectors = *selectors
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads a .env file into the process environment if one exists.
func LoadDotEnv(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// ApplyEnv overrides deployment-specific values from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvTargetURL); v != "" {
		c.TargetURL = v
	}
	if v := os.Getenv(EnvOutputPath); v != "" {
		c.Storage.OutputPath = v
	}
	if v := os.Getenv(EnvStorageDSN); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Observability.LogLevel = v
	}
}
