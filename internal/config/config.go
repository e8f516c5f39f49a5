// Package config loads gridcalc settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vogtb/gridcalc/packages/spreadsheet"
)

// Config holds everything a gridcalc command needs to run.
type Config struct {
	Grid   GridConfig   `toml:"grid"`
	Log    LogConfig    `toml:"log"`
	Server ServerConfig `toml:"server"`
}

// GridConfig sets the dimensions of loaded grids.
type GridConfig struct {
	Rows    int `toml:"rows"`
	Columns int `toml:"columns"`
}

// LogConfig selects the slog level ("debug", "info", "warn", "error") and
// handler format ("text" or "json").
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig configures the HTTP layer.
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// Duration is a wrapper for time.Duration that supports TOML marshaling.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for Duration.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler for Duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration: the 26x9 grid, info-level
// text logs, and a server on :8080.
func Default() *Config {
	return &Config{
		Grid: GridConfig{
			Rows:    spreadsheet.DefaultShape.Rows,
			Columns: spreadsheet.DefaultShape.Columns,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: Duration{5 * time.Second},
		},
	}
}

// Load reads path over Default. Keys absent from the file keep their
// default value. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parsing %s: unknown key %s", path, undecoded[0])
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values. It does not touch the filesystem.
func (c *Config) Validate() error {
	if _, err := c.Shape(); err != nil {
		return err
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json; got %q", c.Log.Format)
	}

	if c.Server.Addr == "" {
		return errors.New("server.addr cannot be empty")
	}
	if c.Server.ShutdownTimeout.Duration < 0 {
		return errors.New("server.shutdown_timeout cannot be negative")
	}
	return nil
}

// Shape returns the configured grid dimensions as a validated shape.
func (c *Config) Shape() (spreadsheet.Shape, error) {
	return spreadsheet.NewShape(c.Grid.Rows, c.Grid.Columns)
}
