package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/goopsie/trophyFileTools/pkg/archive"
)

func trpCommand() *cli.Command {
	return &cli.Command{
		Name:  "trp",
		Usage: "Work with TRP trophy archives",
		Subcommands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List archive entries",
				ArgsUsage: "<archive>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "digest", Usage: "Print the sha256 digest of every entry"},
				},
				Action: runTrpList,
			},
			{
				Name:      "extract",
				Usage:     "Extract every entry of one or more archives",
				ArgsUsage: "<archive>...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory (default from config)"},
					&cli.IntFlag{Name: "parallelism", Usage: "Archives extracted at once (default from config)"},
				},
				Action: runTrpExtract,
			},
			{
				Name:      "rename",
				Usage:     "Rename entries and rewrite the archive",
				ArgsUsage: "<archive> <old-name> <new-name>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write to this file instead of rewriting the archive"},
				},
				Action: runTrpRename,
			},
			{
				Name:      "remove",
				Usage:     "Remove entries and rewrite the archive",
				ArgsUsage: "<archive> <name>...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write to this file instead of rewriting the archive"},
				},
				Action: runTrpRemove,
			},
		},
	}
}

func runTrpList(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}

	a, err := archive.Open(c.Args().First())
	if err != nil {
		return errors.Wrap(err, "open archive")
	}
	defer a.Close()

	h := a.Header()
	fmt.Fprintf(c.App.Writer, "TRP version %d, %d entries, %d bytes\n", h.Version, a.EntryCount(), h.FileSize)
	for _, e := range a.Entries() {
		line := fmt.Sprintf("%-32s %#10x %10d", e.Name(), e.Offset, e.Length)
		if c.Bool("digest") {
			d, err := a.Digest(e.Name())
			if err != nil {
				return errors.Wrapf(err, "digest %s", e.Name())
			}
			line += " " + d.String()
		}
		fmt.Fprintln(c.App.Writer, line)
	}
	return nil
}

func runTrpExtract(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	cfg := configFrom(c)

	output := cfg.Archive.OutputDir
	if c.IsSet("output") {
		output = c.String("output")
	}
	parallelism := cfg.Archive.Parallelism
	if c.IsSet("parallelism") {
		parallelism = c.Int("parallelism")
	}

	paths := c.Args().Slice()
	if len(paths) == 1 {
		a, err := archive.Open(paths[0])
		if err != nil {
			return errors.Wrap(err, "open archive")
		}
		defer a.Close()

		res, err := a.Extract(output)
		if err != nil {
			return errors.Wrap(err, "extract")
		}
		report(c, paths[0], res)
		return nil
	}

	results, err := archive.ExtractAll(c.Context, paths, output, parallelism)
	if err != nil {
		return errors.Wrap(err, "extract")
	}
	for i, res := range results {
		report(c, paths[i], res)
	}
	return nil
}

func report(c *cli.Context, path string, res *archive.ExtractResult) {
	logrus.WithFields(logrus.Fields{
		"archive":   path,
		"extracted": len(res.Extracted),
		"skipped":   len(res.Skipped),
	}).Info("extraction complete")
	fmt.Fprintf(c.App.Writer, "%s: %d extracted, %d skipped\n", path, len(res.Extracted), len(res.Skipped))
}

func runTrpRename(c *cli.Context) error {
	if err := requireArgs(c, 3); err != nil {
		return err
	}
	path, oldName, newName := c.Args().Get(0), c.Args().Get(1), c.Args().Get(2)

	return rewriteArchive(c, path, func(a *archive.Archive) error {
		if n := a.Rename(oldName, newName); n == 0 {
			return errors.Errorf("no entry named %q", oldName)
		}
		return nil
	})
}

func runTrpRemove(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	path := c.Args().First()

	return rewriteArchive(c, path, func(a *archive.Archive) error {
		for _, name := range c.Args().Tail() {
			if n := a.Remove(name); n == 0 {
				return errors.Errorf("no entry named %q", name)
			}
		}
		return nil
	})
}

// rewriteArchive opens path, applies edit and saves the result to --output or
// back to path.
func rewriteArchive(c *cli.Context, path string, edit func(*archive.Archive) error) error {
	a, err := archive.Open(path)
	if err != nil {
		return errors.Wrap(err, "open archive")
	}
	defer a.Close()

	if err := edit(a); err != nil {
		return err
	}

	dst := path
	if c.IsSet("output") {
		dst = c.String("output")
	}
	if err := a.Save(dst); err != nil {
		return errors.Wrap(err, "save archive")
	}
	fmt.Fprintf(c.App.Writer, "%s: %d entries written\n", dst, a.EntryCount())
	return nil
}
