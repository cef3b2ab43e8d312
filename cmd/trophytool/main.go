// Package main provides a command-line tool for working with TRP trophy
// archives and TROPUSR trophy progress files.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/goopsie/trophyFileTools/internal/config"
	"github.com/goopsie/trophyFileTools/internal/logging"
)

var version = "dev"

const configKey = "config"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "trophytool",
		Usage:   "Inspect TRP trophy archives and TROPUSR progress files",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "Path to a TOML config file", EnvVars: []string{"TROPHYTOOL_CONFIG"}},
			&cli.StringFlag{Name: "log-level", Usage: "Set log level (panic, fatal, error, warn, info, debug, trace)", EnvVars: []string{"LOG_LEVEL"}},
			&cli.StringFlag{Name: "log-format", Usage: "Log format: text or json", EnvVars: []string{"LOG_FORMAT"}},
		},
		Before: setup,
		Commands: []*cli.Command{
			trpCommand(),
			tropusrCommand(),
		},
	}
}

// setup loads the config file, applies flag overrides and configures logging.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.LogFormat = c.String("log-format")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid options")
	}

	if err := logging.Setup(logrus.StandardLogger(), c.App.ErrWriter, cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func configFrom(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

func requireArgs(c *cli.Context, n int) error {
	if c.Args().Len() < n {
		return errors.Errorf("%s requires %d argument(s): %s", c.Command.Name, n, c.Command.ArgsUsage)
	}
	return nil
}
