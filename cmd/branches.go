package cmd

import (
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/vcsview-go/internal/output"
	"github.com/masmgr/vcsview-go/internal/vcs"
)

// BranchesCmd returns the branches command.
func BranchesCmd() *cli.Command {
	flags := append(historyFlags(),
		&cli.StringFlag{
			Name:  "contains",
			Usage: "Only list branches whose history of the file includes this revision",
		},
	)
	return &cli.Command{
		Name:      "branches",
		Usage:     "List the branches a file is reachable on",
		ArgsUsage: "<file>",
		Flags:     flags,
		Action:    branchesAction,
	}
}

func branchesAction(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	return executeWithContext(c, func(ctx *CommandContext, c *cli.Context) error {
		f, err := ctx.OpenFile(c, true)
		if err != nil {
			return err
		}
		heads, err := ctx.Repo.GetBranches(c.Context, f)
		if err != nil {
			return err
		}

		names := make([]string, 0, len(heads))
		if rev := c.String("contains"); rev != "" {
			full, err := ctx.Repo.Backend().ResolveRevision(c.Context, rev)
			if err != nil {
				return err
			}
			if names, err = f.BranchesContaining(c.Context, full); err != nil {
				return err
			}
		} else {
			for name := range heads {
				names = append(names, name)
			}
			sort.Strings(names)
		}

		report := &output.BranchesReport{Repo: ctx.Repo.Backend().Root(), Path: f.Path()}
		for _, name := range names {
			report.Branches = append(report.Branches, vcs.Branch{Name: name, Head: heads[name]})
		}
		writer, opts := reportWriter(ctx, c)
		return writer.WriteBranches(report, opts)
	})
}
