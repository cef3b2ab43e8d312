package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/goopsie/trophyFileTools/pkg/progress"
)

func tropusrCommand() *cli.Command {
	definitionsFlag := &cli.StringFlag{
		Name:    "definitions",
		Aliases: []string{"d"},
		Usage:   "Trophy configuration (TROPCONF.SFM) used to generate a missing file (default from config)",
	}

	return &cli.Command{
		Name:  "tropusr",
		Usage: "Work with TROPUSR trophy progress files",
		Subcommands: []*cli.Command{
			{
				Name:      "generate",
				Usage:     "Generate a fresh progress file from a trophy configuration",
				ArgsUsage: "<output>",
				Flags:     []cli.Flag{definitionsFlag},
				Action:    runTropusrGenerate,
			},
			{
				Name:      "show",
				Usage:     "Print the table directory and per-trophy progress",
				ArgsUsage: "<file>",
				Flags:     []cli.Flag{definitionsFlag},
				Action:    runTropusrShow,
			},
			{
				Name:      "unlock",
				Usage:     "Unlock a trophy and save the file",
				ArgsUsage: "<file> <position>",
				Flags: []cli.Flag{
					definitionsFlag,
					&cli.BoolFlag{Name: "by-id", Usage: "Treat the argument as a trophy id instead of a table position"},
					&cli.Uint64Flag{Name: "ts1", Usage: "First timestamp (default: now, microseconds)"},
					&cli.Uint64Flag{Name: "ts2", Usage: "Second timestamp (default: same as ts1)"},
				},
				Action: runTropusrUnlock,
			},
		},
	}
}

func definitionsPath(c *cli.Context) string {
	if c.IsSet("definitions") {
		return c.String("definitions")
	}
	return configFrom(c).Progress.Definitions
}

// loadProgress opens path, generating it first when it is missing and a
// definitions source is configured.
func loadProgress(c *cli.Context, path string) (*progress.Container, error) {
	var opts []progress.LoadOption
	if defs := definitionsPath(c); defs != "" {
		opts = append(opts, progress.WithDefinitions(defs))
	}
	p, err := progress.Load(path, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "load progress")
	}
	return p, nil
}

func runTropusrGenerate(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	defsPath := definitionsPath(c)
	if defsPath == "" {
		return errors.New("generate requires --definitions")
	}

	defs, err := progress.ReadDefinitionsFile(defsPath)
	if err != nil {
		return errors.Wrap(err, "read definitions")
	}

	out := c.Args().First()
	p := progress.Generate(defs)
	if err := p.Save(out); err != nil {
		return errors.Wrap(err, "write progress")
	}
	fmt.Fprintf(c.App.Writer, "%s: %d trophies\n", out, p.TrophyCount())
	return nil
}

func runTropusrShow(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	p, err := loadProgress(c, c.Args().First())
	if err != nil {
		return err
	}

	w := c.App.Writer
	h := p.Header()
	fmt.Fprintf(w, "TROPUSR version %#x, %d tables\n", h.Version, h.TableCount)
	for i, t := range p.TableHeaders() {
		fmt.Fprintf(w, "table %d: %-12s records=%d size=%#x offset=%#x\n",
			i, t.Kind, t.EntriesCount, t.RecordSize, t.Offset)
	}

	fmt.Fprintf(w, "%d/%d trophies unlocked\n", p.UnlockedCount(), p.TrophyCount())
	for i, rec := range p.Progress() {
		grade, err := p.Grade(i)
		if err != nil {
			grade = progress.GradeUnknown
		}
		fmt.Fprintf(w, "%4d id=%-4d %-8s %-8s ts1=%d ts2=%d\n",
			i, rec.TrophyID, grade, rec.State, rec.Timestamp1, rec.Timestamp2)
	}
	return nil
}

func runTropusrUnlock(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	path := c.Args().Get(0)
	n, err := strconv.ParseUint(c.Args().Get(1), 10, 32)
	if err != nil {
		return errors.Wrapf(err, "parse trophy %q", c.Args().Get(1))
	}

	ts1 := c.Uint64("ts1")
	if !c.IsSet("ts1") {
		ts1 = uint64(time.Now().UnixMicro())
	}
	ts2 := ts1
	if c.IsSet("ts2") {
		ts2 = c.Uint64("ts2")
	}

	p, err := loadProgress(c, path)
	if err != nil {
		return err
	}

	if c.Bool("by-id") {
		err = p.UnlockTrophyByID(uint32(n), ts1, ts2)
	} else {
		err = p.UnlockTrophy(int(n), ts1, ts2)
	}
	if err != nil {
		return errors.Wrap(err, "unlock")
	}

	if err := p.Save(path); err != nil {
		return errors.Wrap(err, "save progress")
	}
	fmt.Fprintf(c.App.Writer, "%s: trophy %d unlocked (%d/%d)\n", path, n, p.UnlockedCount(), p.TrophyCount())
	return nil
}
