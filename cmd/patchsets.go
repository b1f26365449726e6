package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/masmgr/vcsview-go/internal/output"
)

// PatchsetsCmd returns the patchsets command.
func PatchsetsCmd() *cli.Command {
	flags := append(historyFlags(),
		&cli.IntFlag{
			Name:    "top",
			Aliases: []string{"n"},
			Usage:   "Number of patchsets to show (0: all)",
		},
	)
	return &cli.Command{
		Name:      "patchsets",
		Aliases:   []string{"ps"},
		Usage:     "Summarize every commit in a file's history as a patchset",
		ArgsUsage: "<file>",
		Flags:     flags,
		Action:    patchsetsAction,
	}
}

func patchsetsAction(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	return executeWithContext(c, func(ctx *CommandContext, c *cli.Context) error {
		f, err := ctx.OpenFile(c, false)
		if err != nil {
			return err
		}
		sets, err := ctx.Repo.Patchset(c.Context, f)
		if err != nil {
			return err
		}

		writer, opts := topReportWriter(ctx, c)
		return writer.WritePatchsets(&output.PatchsetReport{
			Repo:      ctx.Repo.Backend().Root(),
			Path:      f.Path(),
			Patchsets: sets,
		}, opts)
	})
}
