// Package config provides YAML-based configuration loading with environment variable expansion.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator is an interface for configuration validation.
type Validator interface {
	Validate() error
}

// Load loads configuration from a YAML file with environment variable
// expansion and validates the result.
func Load[T any](filename string, target *T) error {
	if err := Read(filename, target); err != nil {
		return err
	}
	return Validate(target)
}

// Read decodes a YAML file with environment variable expansion into target
// without validating it. Keys absent from the file keep their values.
func Read[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	expandedData := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expandedData), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}
	return nil
}

// ReadOptional is Read for a file that may not exist. It reports whether the
// file was found.
func ReadOptional[T any](filename string, target *T) (bool, error) {
	if filename == "" {
		return false, nil
	}
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err := Read(filename, target); err != nil {
		return false, err
	}
	return true, nil
}

// Validate runs target's Validate method if it implements Validator.
func Validate(target any) error {
	if validator, ok := target.(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	return nil
}
