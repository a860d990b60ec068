// Package config loads the process defaults shared by the API and the CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultProjectID       = "your-project-id"
	DefaultRegion          = "us-central1"
	DefaultFunctionRuntime = "python311"
)

// Defaults fill in values a workflow leaves unset.
type Defaults struct {
	DefaultProjectID string `yaml:"default_project_id"`
	DefaultRegion    string `yaml:"default_region"`
	FunctionRuntime  string `yaml:"function_runtime"`
}

// BuiltinDefaults returns the defaults used when no file overrides them.
func BuiltinDefaults() Defaults {
	return Defaults{
		DefaultProjectID: DefaultProjectID,
		DefaultRegion:    DefaultRegion,
		FunctionRuntime:  DefaultFunctionRuntime,
	}
}

// LoadDefaults reads a YAML defaults file over the builtin defaults. An empty path returns the
// builtin defaults.
func LoadDefaults(path string) (Defaults, error) {
	defaults := BuiltinDefaults()

	if strings.TrimSpace(path) == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Defaults{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var file Defaults
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Defaults{}, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if file.DefaultProjectID != "" {
		defaults.DefaultProjectID = file.DefaultProjectID
	}

	if file.DefaultRegion != "" {
		defaults.DefaultRegion = file.DefaultRegion
	}

	if file.FunctionRuntime != "" {
		defaults.FunctionRuntime = file.FunctionRuntime
	}

	return defaults, nil
}

// LoadEnv loads .env style files into the process environment without overriding variables
// that are already set. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, file := range files {
		err := godotenv.Load(file)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	return nil
}
