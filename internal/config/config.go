// Package config reads framecheck's settings from the project's
// pyproject.toml, `[tool.typedframes]` table. Any failure to find or
// parse the file yields the permissive defaults: the linter must never
// break a build because of its own configuration.
package config

import (
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ConfigFileName is the file the settings live in.
const ConfigFileName = "pyproject.toml"

// Config holds the linter settings.
type Config struct {
	// Enabled turns the whole analysis off when false.
	Enabled bool
	// Warnings controls whether warning-severity diagnostics are kept.
	Warnings bool
}

// Default returns the permissive configuration.
func Default() Config {
	return Config{Enabled: true, Warnings: true}
}

// LoadFromDir reads the configuration from pyproject.toml in the given
// directory. A missing file, unreadable file or malformed TOML all
// return the defaults.
func LoadFromDir(dir string) Config {
	cfg := Default()

	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); err != nil {
		return cfg
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return cfg
	}

	if k.Exists("tool.typedframes.enabled") {
		cfg.Enabled = k.Bool("tool.typedframes.enabled")
	}
	if k.Exists("tool.typedframes.warnings") {
		cfg.Warnings = k.Bool("tool.typedframes.warnings")
	}
	return cfg
}

// FindProjectRoot walks up from the given path to the nearest directory
// containing pyproject.toml. Falls back to the start directory when no
// config file exists anywhere above it.
func FindProjectRoot(start string) string {
	dir := start
	if info, err := os.Stat(start); err == nil && !info.IsDir() {
		dir = filepath.Dir(start)
	}

	for current := dir; ; {
		if _, err := os.Stat(filepath.Join(current, ConfigFileName)); err == nil {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return dir
		}
		current = parent
	}
}
