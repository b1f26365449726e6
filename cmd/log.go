package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/masmgr/vcsview-go/internal/output"
	"github.com/masmgr/vcsview-go/internal/vcs"
)

// LogCmd returns the log command.
func LogCmd() *cli.Command {
	flags := append(historyFlags(),
		&cli.StringFlag{
			Name:  "rev",
			Usage: "Show only this revision (hashes may be abbreviated; branch names are resolved)",
		},
		&cli.IntFlag{
			Name:    "top",
			Aliases: []string{"n"},
			Usage:   "Number of commits to show (0: all)",
		},
	)
	return &cli.Command{
		Name:      "log",
		Usage:     "Show the commit log of a file",
		ArgsUsage: "<file>",
		Flags:     flags,
		Action:    logAction,
	}
}

func logAction(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	return executeWithContext(c, func(ctx *CommandContext, c *cli.Context) error {
		rev := c.String("rev")
		f, err := ctx.OpenFile(c, false)
		if err != nil {
			return err
		}

		var commits []*vcs.Commit
		if rev != "" {
			commit, err := ctx.Repo.GetLog(c.Context, f, rev)
			if err != nil {
				return err
			}
			commits = []*vcs.Commit{commit}
		} else if commits, err = f.Logs(c.Context); err != nil {
			return err
		}

		writer, opts := topReportWriter(ctx, c)
		return writer.WriteLog(&output.LogReport{
			Repo:    ctx.Repo.Backend().Root(),
			Path:    f.Path(),
			Branch:  f.Branch(),
			Commits: commits,
		}, opts)
	})
}

// LastLogCmd returns the lastlog command.
func LastLogCmd() *cli.Command {
	return &cli.Command{
		Name:      "lastlog",
		Usage:     "Show the newest commit touching a file on a branch",
		ArgsUsage: "<file>",
		Flags:     historyFlags(),
		Action:    lastLogAction,
	}
}

func lastLogAction(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	return executeWithContext(c, func(ctx *CommandContext, c *cli.Context) error {
		f, err := ctx.Repo.GetFile(c.Context, c.Args().Get(0), "", true)
		if err != nil {
			return err
		}
		commit, err := ctx.Repo.GetLastLog(c.Context, f, c.String("branch"))
		if err != nil {
			return err
		}

		writer, opts := reportWriter(ctx, c)
		branch := c.String("branch")
		if branch == "" {
			branch = f.Branch()
		}
		return writer.WriteLog(&output.LogReport{
			Repo:    ctx.Repo.Backend().Root(),
			Path:    f.Path(),
			Branch:  branch,
			Commits: []*vcs.Commit{commit},
		}, opts)
	})
}
