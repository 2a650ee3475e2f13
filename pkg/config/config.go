// Package config holds the runtime parameters of a staircase visualization
// and the actions that mutate them.
package config

import (
	"os"
	"path/filepath"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/chazu/integral/pkg/grid"
	"github.com/segmentio/encoding/json"
)

// ErrTypeInvalidConfig classifies configuration errors.
const ErrTypeInvalidConfig = "config-invalid"

// maxFileSize bounds configuration files read by Load.
const maxFileSize = 1 << 20

// Config is the set of visualization parameters the scene reacts to.
type Config struct {
	N            grid.Level `json:"n"`
	Incremental  bool       `json:"show_incremental_cubes"`
	ShowFunction bool       `json:"show_function"`
	ShowFullGrid bool       `json:"show_full_grid"`
	Party        bool       `json:"show_party"`
}

// Default returns the startup configuration: level 1, incremental layers,
// function surface and full reference grid on, party mode off.
func Default() Config {
	return Config{
		N:            1,
		Incremental:  true,
		ShowFunction: true,
		ShowFullGrid: true,
	}
}

// Validate checks that N is a valid level.
func (c Config) Validate() error {
	if err := c.N.Validate(); err != nil {
		return errors.New("invalid subdivision level").
			WithType(ErrTypeInvalidConfig).
			Wrap(err)
	}
	return nil
}

// GeometryChanged reports whether moving from c to next requires replanning
// the box layers.
func (c Config) GeometryChanged(next Config) bool {
	return c.N != next.N || c.Incremental != next.Incremental
}

// Load reads a JSON configuration file. Fields missing from the file keep
// their Default values.
func Load(path string) (Config, error) {
	cfg := Default()

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return cfg, errors.New("config file must have .json extension").
			WithType(ErrTypeInvalidConfig).
			WithTag("ext", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return cfg, errors.New("failed to stat config file").Wrap(err)
	}
	if info.Size() > maxFileSize {
		return cfg, errors.New("config file too large").
			WithType(ErrTypeInvalidConfig).
			WithTag("size", info.Size()).
			WithTag("max", maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return cfg, errors.New("failed to read config file").Wrap(err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default(), errors.New("failed to parse config JSON").
			WithType(ErrTypeInvalidConfig).
			Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}
