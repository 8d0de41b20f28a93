// Package config loads lime's TOML configuration.
//
//	[compiler]
//	architecture = "felix"
//	rewriting = "compiling"
//	size_factor = 100
//
//	[optimizer]
//	max_rounds = 50
//
//	[bench]
//	jobs = 4
//	store = "results.db"
//	timeout = "10m"
//
// Keys that are absent keep their defaults. Unknown keys are an error.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/CapZTr/lime/internal/backend"
	"github.com/CapZTr/lime/internal/optimize"
)

// ErrUnknownKeys is returned when a file contains keys lime does not read.
var ErrUnknownKeys = errors.New("unknown configuration keys")

// Config is the complete configuration.
type Config struct {
	Compiler  backend.Settings `toml:"compiler"`
	Optimizer optimize.Options `toml:"optimizer"`
	Bench     Bench            `toml:"bench"`
}

// Bench configures benchmark suites.
type Bench struct {
	// Jobs is the number of benchmarks run concurrently.
	Jobs int `toml:"jobs"`
	// Store is the result store directory. Empty keeps results in memory.
	Store string `toml:"store"`
	// Reuse skips benchmarks that already have a successful stored result.
	Reuse bool `toml:"reuse"`
	// Timeout bounds each benchmark run. Zero disables it.
	Timeout time.Duration `toml:"timeout"`
	// Backend is a backend server command. Empty uses the built-in
	// reference backend.
	Backend     string   `toml:"backend"`
	BackendArgs []string `toml:"backend_args"`
	// Driver runs each benchmark as a separate lime-bench process when set.
	Driver string `toml:"driver"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Compiler:  backend.DefaultSettings(),
		Optimizer: optimize.DefaultOptions(),
		Bench: Bench{
			Jobs:    7,
			Timeout: time.Hour,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if err := unknownKeys(meta); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses TOML source over the defaults.
func Decode(source string) (Config, error) {
	cfg := Default()
	meta, err := toml.Decode(source, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if err := unknownKeys(meta); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func unknownKeys(meta toml.MetaData) error {
	undecoded := meta.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}
	keys := make([]string, len(undecoded))
	for i, k := range undecoded {
		keys[i] = k.String()
	}
	sort.Strings(keys)
	return fmt.Errorf("%w: %s", ErrUnknownKeys, strings.Join(keys, ", "))
}

// Validate checks the numeric limits.
func (c Config) Validate() error {
	switch {
	case c.Optimizer.MaxRounds < 1:
		return fmt.Errorf("optimizer.max_rounds must be positive, got %d", c.Optimizer.MaxRounds)
	case c.Optimizer.CutSize < 2 || c.Optimizer.CutSize > 4:
		return fmt.Errorf("optimizer.cut_size must be between 2 and 4, got %d", c.Optimizer.CutSize)
	case c.Optimizer.CutLimit < 1:
		return fmt.Errorf("optimizer.cut_limit must be positive, got %d", c.Optimizer.CutLimit)
	case c.Optimizer.ResubLeaves < 2:
		return fmt.Errorf("optimizer.resub_leaves must be at least 2, got %d", c.Optimizer.ResubLeaves)
	case c.Bench.Jobs < 1:
		return fmt.Errorf("bench.jobs must be positive, got %d", c.Bench.Jobs)
	case c.Bench.Timeout < 0:
		return fmt.Errorf("bench.timeout must not be negative, got %s", c.Bench.Timeout)
	}
	return nil
}
