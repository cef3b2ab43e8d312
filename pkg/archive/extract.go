package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrDestinationConflict is returned by ExtractAll when two archives map to the
// same output directory.
var ErrDestinationConflict = errors.New("extraction destination conflict")

// ExtractResult reports which entries were written and which were skipped.
type ExtractResult struct {
	Extracted []string
	Skipped   []string
}

// extractConfig holds extraction options.
type extractConfig struct {
	allowedNames map[string]bool
}

// ExtractOption configures extraction behavior.
type ExtractOption func(*extractConfig)

// WithNameFilter restricts extraction to the given entry names.
func WithNameFilter(names []string) ExtractOption {
	return func(c *extractConfig) {
		if len(names) > 0 {
			c.allowedNames = make(map[string]bool, len(names))
			for _, n := range names {
				c.allowedNames[n] = true
			}
		}
	}
}

// Extract writes every entry to destDir/<name>.
//
// Extraction is best effort: an entry that cannot be read or written is
// logged and recorded in ExtractResult.Skipped, and the remaining entries are
// still extracted. An error is returned only if the archive is closed or
// destDir cannot be created.
func (a *Archive) Extract(destDir string, opts ...ExtractOption) (*ExtractResult, error) {
	if a.src == nil {
		return nil, fmt.Errorf("extract to %s: %w", destDir, ErrClosed)
	}

	cfg := &extractConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("create dir %s: %w", destDir, err)
	}

	result := &ExtractResult{}
	for i := range a.entries {
		e := &a.entries[i]
		name := e.Name()
		if cfg.allowedNames != nil && !cfg.allowedNames[name] {
			continue
		}

		if err := a.extractEntry(e, destDir); err != nil {
			logger.WithFields(logrus.Fields{
				"entry": name,
				"error": err,
			}).Warn("skipping TRP entry")
			result.Skipped = append(result.Skipped, name)
			continue
		}
		result.Extracted = append(result.Extracted, name)
	}

	return result, nil
}

func (a *Archive) extractEntry(e *Entry, destDir string) error {
	name := e.Name()
	if !isPlainName(name) {
		return fmt.Errorf("unsafe entry name %q", name)
	}

	data, err := a.read(e)
	if err != nil {
		return err
	}

	filePath := filepath.Join(destDir, name)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("write file %s: %w", filePath, err)
	}
	return nil
}

// isPlainName reports whether name can be used as a file name inside the
// destination directory without escaping it.
func isPlainName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// ExtractAll extracts several archives concurrently, each into
// destRoot/<archive base name without extension>. At most limit archives are
// open at once; limit <= 0 means no limit. Results are indexed like paths.
// Two archives that would share a destination directory are rejected before
// anything is extracted.
func ExtractAll(ctx context.Context, paths []string, destRoot string, limit int) ([]*ExtractResult, error) {
	dests := make([]string, len(paths))
	owners := make(map[string]string, len(paths))
	for i, path := range paths {
		base := filepath.Base(path)
		dests[i] = filepath.Join(destRoot, strings.TrimSuffix(base, filepath.Ext(base)))
		if other, ok := owners[dests[i]]; ok {
			return nil, fmt.Errorf("%s and %s both extract to %s: %w", other, path, dests[i], ErrDestinationConflict)
		}
		owners[dests[i]] = path
	}

	results := make([]*ExtractResult, len(paths))

	eg, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}

	for i, path := range paths {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			a, err := Open(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			defer a.Close()

			res, err := a.Extract(dests[i])
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
