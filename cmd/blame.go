package cmd

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/vcsview-go/internal/output"
	"github.com/masmgr/vcsview-go/internal/vcs"
)

// BlameCmd returns the blame command.
func BlameCmd() *cli.Command {
	return &cli.Command{
		Name:      "blame",
		Aliases:   []string{"annotate"},
		Usage:     "Attribute each line of a file to the revision that last changed it",
		ArgsUsage: "<file> [rev]",
		Flags:     historyFlags(),
		Action:    blameAction,
	}
}

func blameAction(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	return executeWithContext(c, func(ctx *CommandContext, c *cli.Context) error {
		f, err := ctx.OpenFile(c, true)
		if err != nil {
			return err
		}
		rev := c.Args().Get(1)
		if rev == "" {
			rev = f.Revision()
		}

		report := &output.BlameReport{Repo: ctx.Repo.Backend().Root(), Path: f.Path(), Revision: rev}
		err = ctx.Repo.Annotate(c.Context, f, rev, func(l vcs.BlameLine) error {
			report.Lines = append(report.Lines, l)
			return nil
		})
		if err != nil {
			return err
		}

		writer, opts := reportWriter(ctx, c)
		return writer.WriteBlame(report, opts)
	})
}

// CatCmd returns the cat command.
func CatCmd() *cli.Command {
	return &cli.Command{
		Name:      "cat",
		Aliases:   []string{"checkout"},
		Usage:     "Print the contents of a file at a revision",
		ArgsUsage: "<file> [rev]",
		Flags:     historyFlags(),
		Action:    catAction,
	}
}

func catAction(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	return executeWithContext(c, func(ctx *CommandContext, c *cli.Context) error {
		f, err := ctx.OpenFile(c, true)
		if err != nil {
			return err
		}
		w := c.App.Writer
		if p := c.String("output"); p != "" {
			file, err := os.Create(p)
			if err != nil {
				return err
			}
			defer file.Close()
			w = file
		}
		return ctx.Repo.Checkout(c.Context, w, f, c.Args().Get(1))
	})
}
