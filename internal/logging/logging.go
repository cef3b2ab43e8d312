// Package logging configures logrus for trophytool and the container packages.
package logging

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/goopsie/trophyFileTools/pkg/archive"
	"github.com/goopsie/trophyFileTools/pkg/progress"
)

// Setup configures l with the given level and format ("text" or "json") and
// routes the container packages' diagnostics through it.
func Setup(l *logrus.Logger, out io.Writer, level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrap(err, "parse log level")
	}
	l.SetLevel(lvl)
	l.SetOutput(out)

	switch format {
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return errors.Errorf("unknown log format %q", format)
	}

	archive.SetLogger(l.WithField("component", "trp"))
	progress.SetLogger(l.WithField("component", "tropusr"))
	return nil
}
