package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working and config directories.
const FileName = "meshprep.yaml"

// EnvConfig names the environment variable that points at a config file.
// It is consulted after the -config flag and before the search paths.
const EnvConfig = "MESHPREP_CONFIG"

// Load builds the configuration from defaults, then the first config file
// found, then command-line flags, and validates the result.
func Load() (*Config, error) {
	cfg := Default()

	path := ConfigPath()
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
		cfg.Source = path
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// searchPaths lists config file candidates in lookup order.
func searchPaths() []string {
	var paths []string
	if env := os.Getenv(EnvConfig); env != "" {
		paths = append(paths, env)
	}
	return append(paths,
		FileName,
		"."+FileName,
		filepath.Join(ConfigDir(), FileName),
	)
}

// findConfigFile returns the first search path that is a regular file.
func findConfigFile() string {
	for _, path := range searchPaths() {
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path
		}
	}
	return ""
}

// ConfigDir returns the per-user meshprep config directory, falling back to
// ~/.meshprep when the platform reports none.
func ConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil && filepath.IsAbs(dir) {
		return filepath.Join(dir, "meshprep")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".meshprep")
	}
	dir, _ := filepath.Abs(".meshprep")
	return dir
}

// loadFromFile decodes path over cfg. Unknown keys are rejected and an empty
// file leaves cfg unchanged.
func loadFromFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
