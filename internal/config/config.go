// Package config handles loading and resolving the branchsync configuration
// file, which supplies defaults for flags the user did not set.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

const (
	// LocalConfigFilename is the per-directory branchsync config file.
	LocalConfigFilename = ".branchsync.yaml"
	// ConfigAPIVersion is the current config schema apiVersion.
	ConfigAPIVersion = "okapos.io/branchsync/v1alpha1"
	// ConfigKind is the current config schema kind.
	ConfigKind = "BranchSyncConfig"
)

// Defaults holds fallback values for sync flags.
type Defaults struct {
	// BaseDir is the default --base-dir for scan runs.
	BaseDir string `yaml:"base_dir,omitempty"`
	// ScanDepth is the default --scan-depth.
	ScanDepth int `yaml:"scan_depth"`
	// TimeoutSeconds bounds each repository's plan execution.
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// Concurrency bounds parallel repo processing.
	Concurrency int `yaml:"concurrency"`
}

// Config is the on-disk branchsync configuration.
type Config struct {
	APIVersion string   `yaml:"apiVersion"`
	Kind       string   `yaml:"kind"`
	Exclude    []string `yaml:"exclude,omitempty"`
	Defaults   Defaults `yaml:"defaults"`
}

// DefaultConfig returns a Config with built-in defaults applied.
func DefaultConfig() Config {
	return Config{
		APIVersion: ConfigAPIVersion,
		Kind:       ConfigKind,
		Exclude:    []string{"**/node_modules", "**/.terraform", "**/dist", "**/vendor"},
		Defaults: Defaults{
			ScanDepth:      2,
			TimeoutSeconds: 120,
			Concurrency:    1,
		},
	}
}

// ResolveConfigPath resolves the config file path. Order: explicit override,
// BRANCHSYNC_CONFIG env, local dotfile in cwd, user config dir.
func ResolveConfigPath(override, cwd string) (string, error) {
	if override != "" {
		return override, nil
	}
	if env := strings.TrimSpace(os.Getenv("BRANCHSYNC_CONFIG")); env != "" {
		return env, nil
	}
	if cwd != "" {
		local := filepath.Join(cwd, LocalConfigFilename)
		if _, err := os.Stat(local); err == nil {
			return local, nil
		}
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "branchsync", "config.yaml"), nil
}

// Load reads the config file at path. A missing file yields the built-in
// defaults; a present but unreadable or malformed file is an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.APIVersion != "" && cfg.APIVersion != ConfigAPIVersion {
		return DefaultConfig(), fmt.Errorf("unsupported config apiVersion %q in %s", cfg.APIVersion, path)
	}
	applyFallbackDefaults(&cfg)
	return cfg, nil
}

// Save writes the config file, creating parent directories as needed.
func Save(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func applyFallbackDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.APIVersion == "" {
		cfg.APIVersion = def.APIVersion
	}
	if cfg.Kind == "" {
		cfg.Kind = def.Kind
	}
	if cfg.Defaults.ScanDepth <= 0 {
		cfg.Defaults.ScanDepth = def.Defaults.ScanDepth
	}
	if cfg.Defaults.TimeoutSeconds <= 0 {
		cfg.Defaults.TimeoutSeconds = def.Defaults.TimeoutSeconds
	}
	if cfg.Defaults.Concurrency <= 0 {
		cfg.Defaults.Concurrency = def.Defaults.Concurrency
	}
}
