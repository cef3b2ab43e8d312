package progress

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
)

// loadConfig holds Load options.
type loadConfig struct {
	definitions string
	persister   Persister
}

// LoadOption configures Load.
type LoadOption func(*loadConfig)

// WithDefinitions sets the trophy configuration used to generate a missing
// progress file.
func WithDefinitions(path string) LoadOption {
	return func(c *loadConfig) {
		c.definitions = path
	}
}

// WithPersister sets how a generated container is written. The default is
// FullRewrite.
func WithPersister(p Persister) LoadOption {
	return func(c *loadConfig) {
		c.persister = p
	}
}

// Load opens the progress file at path. If the file does not exist and a
// definitions source was given, a container is generated from it and
// persisted first, and the freshly written file is then parsed.
func Load(path string, opts ...LoadOption) (*Container, error) {
	cfg := &loadConfig{persister: FullRewrite{}}
	for _, opt := range opts {
		opt(cfg)
	}

	_, err := os.Stat(path)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && cfg.definitions != "":
		if err := generateFile(path, cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("stat progress: %w", err)
	}

	return Open(path)
}

func generateFile(path string, cfg *loadConfig) error {
	defs, err := ReadDefinitionsFile(cfg.definitions)
	if err != nil {
		return fmt.Errorf("generate %s: %w", path, err)
	}

	logger.WithFields(logrus.Fields{
		"path":     path,
		"trophies": len(defs),
	}).Info("generating progress file from definitions")

	c := Generate(defs)
	return c.SaveWith(cfg.persister, path)
}
