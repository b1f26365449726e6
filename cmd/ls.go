package cmd

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/vcsview-go/internal/browser"
	"github.com/masmgr/vcsview-go/internal/listing"
	"github.com/masmgr/vcsview-go/internal/output"
)

// ListCmd returns the ls command.
func ListCmd() *cli.Command {
	flags := append(historyFlags(),
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "Sort files by name, age, author or revision (default: from config)",
		},
		&cli.BoolFlag{
			Name:  "desc",
			Usage: "Reverse the file order",
		},
		&cli.BoolFlag{
			Name:  "deleted",
			Usage: "Include files deleted from the directory",
		},
		&cli.BoolFlag{
			Name:  "full",
			Usage: "Resolve each file's full history instead of its newest revision",
		},
		&cli.StringSliceFlag{
			Name:  "include",
			Usage: "Glob patterns to include (can be specified multiple times)",
		},
		&cli.StringSliceFlag{
			Name:  "exclude",
			Usage: "Glob patterns to exclude (can be specified multiple times)",
		},
		&cli.IntFlag{
			Name:    "top",
			Aliases: []string{"n"},
			Usage:   "Number of files to show (0: all)",
		},
	)

	return &cli.Command{
		Name:      "ls",
		Usage:     "List a directory with each file's newest commit",
		ArgsUsage: "[directory]",
		Flags:     flags,
		Action:    listAction,
	}
}

func listAction(c *cli.Context) error {
	return executeWithContext(c, func(ctx *CommandContext, c *cli.Context) error {
		opts, err := listOptions(ctx, c)
		if err != nil {
			return err
		}
		l, err := ctx.Repo.ListDirectory(c.Context, c.Args().Get(0), opts)
		if err != nil {
			return err
		}

		report := &output.ListingReport{
			Repo:        ctx.Repo.Backend().Root(),
			Path:        l.Path,
			Branch:      l.Branch,
			GeneratedAt: time.Now(),
			Dirs:        l.Dirs,
		}
		for _, e := range l.Files {
			row := output.ListingFile{Name: e.Name, Path: e.Path, Deleted: e.Deleted}
			last, err := e.LastLog(c.Context)
			if err != nil {
				return err
			}
			row.Revision = last.Revision
			row.Author = last.Author
			row.Date = last.Date
			row.Subject = last.Subject()
			report.Files = append(report.Files, row)
		}

		writer, outOpts := topReportWriter(ctx, c)
		return writer.WriteListing(report, outOpts)
	})
}

func listOptions(ctx *CommandContext, c *cli.Context) (browser.ListOptions, error) {
	cfg := ctx.Config
	sortName := cfg.Listing.Sort
	if s := c.String("sort"); s != "" {
		sortName = s
	}
	key, err := listing.ParseSortKey(sortName)
	if err != nil {
		return browser.ListOptions{}, err
	}
	dir, err := listing.ParseDirection(cfg.Listing.Direction)
	if err != nil {
		return browser.ListOptions{}, err
	}
	if c.Bool("desc") {
		dir = listing.Descending
	}
	return browser.ListOptions{
		Branch:         c.String("branch"),
		Sort:           key,
		Direction:      dir,
		IncludeDeleted: cfg.Listing.ShowDeleted || c.Bool("deleted"),
		Filter:         listing.Filter{Include: cfg.Filters.Include, Exclude: cfg.Filters.Exclude},
		FullHistory:    c.Bool("full"),
	}, nil
}
