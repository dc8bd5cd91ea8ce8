package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadSelectors загружает селекторы из YAML файла
func LoadSelectors(filePath string) (*SelectorsConfig, error) {
	if filePath == "" {
		return nil, fmt.Errorf("selectors file path is empty")
	}

	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("selectors file not found: %s: %w", filePath, err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open selectors file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close selectors file: %v\n", closeErr)
		}
	}()

	selectors := Default().Selectors
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&selectors); err != nil {
		return nil, fmt.Errorf("failed to parse selectors YAML: %w", err)
	}

	if err := validateSelectors(&selectors); err != nil {
		return nil, err
	}

	return &selectors, nil
}

// validateSelectors проверяет минимальный набор селекторов
func validateSelectors(s *SelectorsConfig) error {
	if s.Row == "" {
		return fmt.Errorf("row is required")
	}
	if s.Link == "" {
		return fmt.Errorf("link is required")
	}
	if s.Price == "" {
		return fmt.Errorf("price is required")
	}
	if s.Location == "" {
		return fmt.Errorf("location is required")
	}
	return nil
}

// resolveRelative makes path relative to the directory of the config file.
func resolveRelative(configPath, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(configPath), path)
}
