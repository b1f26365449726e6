package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/masmgr/vcsview-go/config"
	"github.com/masmgr/vcsview-go/internal/output"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "vcsview",
		Usage:   "Read-only browser for version control history",
		Version: "1.0.0",
		Commands: []*cli.Command{
			ListCmd(),
			LogCmd(),
			LastLogCmd(),
			BranchesCmd(),
			DiffCmd(),
			RangeCmd(),
			PatchsetsCmd(),
			BlameCmd(),
			CatCmd(),
			InitConfigCmd(),
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
			},
		},
	}
}

// Common flags shared across commands
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "repo",
			Aliases: []string{"r"},
			Usage:   "Path to the repository (default: from config or '.')",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (console, json, csv, markdown, ci)",
			Value:   "console",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file path (default: stdout)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Diagnostic log level (debug, info, warn, error)",
		},
		&cli.StringFlag{
			Name:  "cache",
			Usage: "Cache store (none, memory, filesystem, sqlite, s3)",
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "Disable colored output",
		},
	}
}

// historyFlags are shared by commands that take a file argument.
func historyFlags() []cli.Flag {
	return append(commonFlags(),
		&cli.StringFlag{
			Name:    "branch",
			Aliases: []string{"b"},
			Usage:   "Branch to read (default: the repository's default branch)",
		},
	)
}

// getOutputFormat parses the output format flag. Unknown names fall back
// to console output.
func getOutputFormat(s string) output.OutputFormat {
	switch s {
	case "md":
		return output.FormatMarkdown
	case "ndjson":
		return output.FormatCI
	}
	if f, ok := output.ParseFormat(s); ok {
		return f
	}
	return output.FormatConsole
}

// loadConfig loads configuration from file or defaults, then applies
// command-line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if repo := c.String("repo"); repo != "" {
		cfg.Backend.SourceRoot = repo
	}
	if level := c.String("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if store := c.String("cache"); store != "" {
		cfg.Cache.Type = store
	}
	if c.Bool("no-color") {
		cfg.Diff.Color = false
		color.NoColor = true
	}
	if includes := c.StringSlice("include"); len(includes) > 0 {
		cfg.Filters.Include = includes
	}
	if excludes := c.StringSlice("exclude"); len(excludes) > 0 {
		cfg.Filters.Exclude = excludes
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// requireArgs fails unless at least n positional arguments were given.
func requireArgs(c *cli.Context, n int) error {
	if c.NArg() < n {
		return fmt.Errorf("%s: expected %s", c.Command.Name, c.Command.ArgsUsage)
	}
	return nil
}

// Run executes the CLI application.
func Run() {
	if err := App().Run(os.Args); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
