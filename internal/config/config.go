// Package config loads trophytool settings from a TOML file.
package config

import (
	"os"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Defaults applied to options left unset.
const (
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultOutputDir   = "."
	DefaultParallelism = 4
)

// Config holds settings shared by all commands.
type Config struct {
	LogLevel  string         `toml:"log_level"`
	LogFormat string         `toml:"log_format"`
	Archive   ArchiveConfig  `toml:"archive"`
	Progress  ProgressConfig `toml:"progress"`
}

// ArchiveConfig holds TRP extraction settings.
type ArchiveConfig struct {
	OutputDir   string `toml:"output_dir"`
	Parallelism int    `toml:"parallelism"`
}

// ProgressConfig holds TROPUSR settings.
type ProgressConfig struct {
	// Definitions is the trophy configuration used to generate missing progress files.
	Definitions string `toml:"definitions"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads the configuration at path. An empty path yields Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}

	c := &Config{}
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrapf(err, "parse config file %s", path)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config file %s", path)
	}
	return c, nil
}

// Validate checks option values.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return errors.Errorf("unknown log format %q", c.LogFormat)
	}
	if c.Archive.Parallelism < 0 {
		return errors.Errorf("archive parallelism must not be negative, got %d", c.Archive.Parallelism)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.Archive.OutputDir == "" {
		c.Archive.OutputDir = DefaultOutputDir
	}
	if c.Archive.Parallelism == 0 {
		c.Archive.Parallelism = DefaultParallelism
	}
}
