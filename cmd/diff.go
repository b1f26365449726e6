package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/vcsview-go/internal/diff"
	"github.com/masmgr/vcsview-go/internal/git"
	"github.com/masmgr/vcsview-go/internal/output"
)

const revPairUsage = "<file> <rev1> <rev2> | <file> <rev1>..<rev2>"

// revisionPair reads the two revisions following the file argument, either
// as separate arguments or as one "base..head" range, and resolves branch
// names and abbreviated hashes.
func revisionPair(ctx *CommandContext, c *cli.Context) (string, string, error) {
	var revs [2]string
	switch c.NArg() {
	case 2:
		base, head, err := git.ParseDiffSpec(c.Args().Get(1))
		if err != nil {
			return "", "", err
		}
		revs = [2]string{base, head}
	case 3:
		revs = [2]string{c.Args().Get(1), c.Args().Get(2)}
	default:
		return "", "", fmt.Errorf("%s: expected %s", c.Command.Name, revPairUsage)
	}
	for i, rev := range revs {
		full, err := ctx.Repo.Backend().ResolveRevision(c.Context, rev)
		if err != nil {
			return "", "", err
		}
		revs[i] = full
	}
	return revs[0], revs[1], nil
}

// DiffCmd returns the diff command.
func DiffCmd() *cli.Command {
	flags := append(historyFlags(),
		&cli.IntFlag{
			Name:    "context",
			Aliases: []string{"U"},
			Usage:   "Lines of context (default: from config)",
			Value:   -1,
		},
		&cli.BoolFlag{
			Name:    "ignore-whitespace",
			Aliases: []string{"w"},
			Usage:   "Ignore whitespace changes",
		},
	)
	return &cli.Command{
		Name:      "diff",
		Usage:     "Show the diff of a file between two revisions",
		ArgsUsage: revPairUsage,
		Flags:     flags,
		Action:    diffAction,
	}
}

func diffAction(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	return executeWithContext(c, func(ctx *CommandContext, c *cli.Context) error {
		f, err := ctx.OpenFile(c, true)
		if err != nil {
			return err
		}
		rev1, rev2, err := revisionPair(ctx, c)
		if err != nil {
			return err
		}
		opts := diff.Options{
			ContextLines:     ctx.Config.Diff.ContextLines,
			IgnoreWhitespace: ctx.Config.Diff.IgnoreWhitespace || c.Bool("ignore-whitespace"),
		}
		if n := c.Int("context"); n >= 0 {
			opts.ContextLines = n
		}
		text, err := ctx.Repo.Diff(c.Context, f, rev1, rev2, opts)
		if err != nil {
			return err
		}

		writer, outOpts := reportWriter(ctx, c)
		return writer.WriteDiff(&output.DiffReport{
			Repo: ctx.Repo.Backend().Root(),
			Path: f.Path(),
			From: rev1,
			To:   rev2,
			Text: text,
		}, outOpts)
	})
}

// RangeCmd returns the range command.
func RangeCmd() *cli.Command {
	return &cli.Command{
		Name:      "range",
		Usage:     "List the revisions changing a file between two revisions",
		ArgsUsage: revPairUsage,
		Flags:     historyFlags(),
		Action:    rangeAction,
	}
}

func rangeAction(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	return executeWithContext(c, func(ctx *CommandContext, c *cli.Context) error {
		f, err := ctx.OpenFile(c, true)
		if err != nil {
			return err
		}
		rev1, rev2, err := revisionPair(ctx, c)
		if err != nil {
			return err
		}
		revs, err := ctx.Repo.RevisionRange(c.Context, f, rev1, rev2)
		if err != nil {
			return err
		}

		writer, opts := reportWriter(ctx, c)
		return writer.WriteRange(&output.RangeReport{
			Repo:      ctx.Repo.Backend().Root(),
			Path:      f.Path(),
			From:      rev1,
			To:        rev2,
			Revisions: revs,
		}, opts)
	})
}
