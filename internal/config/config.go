package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"

	"github.com/roach88/autotile/internal/level"
)

//go:embed defaults.toml
var defaultConfig []byte

// EnvPrefix marks environment variables read as configuration.
// AUTOTILE_SOLVE_STRICT_EDGE maps to solve.strict_edge.
const EnvPrefix = "AUTOTILE_"

// DefaultFile is picked up from the working directory when no config
// path is given.
const DefaultFile = "autotile.toml"

type Config struct {
	Log    LogConfig    `koanf:"log"`
	Output OutputConfig `koanf:"output"`
	Solve  SolveConfig  `koanf:"solve"`
	Store  StoreConfig  `koanf:"store"`
	Test   TestConfig   `koanf:"test"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

type OutputConfig struct {
	Format string `koanf:"format"`
}

// SolveConfig holds solver defaults. Edge and Fill apply only to levels
// that declare no edge policy of their own.
type SolveConfig struct {
	Seed       uint64 `koanf:"seed"`
	HasSeed    bool   `koanf:"-"`
	Edge       string `koanf:"edge"`
	Fill       int    `koanf:"fill"`
	StrictEdge bool   `koanf:"strict_edge"`
}

type StoreConfig struct {
	Path string `koanf:"path"`
}

type TestConfig struct {
	Parallel int `koanf:"parallel"`
}

// rawBytesProvider implements koanf provider for raw bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

// Load merges, in increasing precedence: embedded defaults, the config
// file, and AUTOTILE_ environment variables.
//
// An explicit path must exist. With an empty path, autotile.toml in the
// working directory is used when present.
func Load(path string) (*Config, error) {
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return load(path, true)
}

// Default returns the embedded defaults alone, ignoring files and the
// environment.
func Default() *Config {
	cfg, err := load("", false)
	if err != nil {
		panic(fmt.Sprintf("embedded defaults: %v", err))
	}
	return cfg
}

func load(path string, withEnv bool) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Load config file
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	// 3. Load env vars
	if withEnv {
		if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
			return nil, fmt.Errorf("failed to load env vars: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Solve.HasSeed = k.Exists("solve.seed")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps AUTOTILE_SECTION_SOME_KEY to section.some_key.
func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
}

// Validate checks values that would otherwise fail deep inside a command.
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Output.Format != "text" && c.Output.Format != "json" {
		return fmt.Errorf("output.format: must be text or json, got %q", c.Output.Format)
	}
	if _, _, err := level.ParseEdge(c.Solve.Edge, c.Solve.Fill); err != nil {
		return fmt.Errorf("solve.edge: %w", err)
	}
	if c.Test.Parallel < 0 {
		return fmt.Errorf("test.parallel: must be non-negative, got %d", c.Test.Parallel)
	}
	return nil
}
