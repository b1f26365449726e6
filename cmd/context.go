package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/vcsview-go/config"
	"github.com/masmgr/vcsview-go/internal/app"
	"github.com/masmgr/vcsview-go/internal/browser"
	"github.com/masmgr/vcsview-go/internal/history"
	"github.com/masmgr/vcsview-go/internal/output"
)

// CommandContext holds common state for command execution.
type CommandContext struct {
	Config *config.Config
	App    *app.App
	Repo   *browser.Repository
}

// NewCommandContext loads configuration and opens the repository.
// The caller must call Close.
func NewCommandContext(c *cli.Context) (*CommandContext, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	a, err := app.New(c.Context, cfg, app.Options{Operation: c.Command.Name})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	return &CommandContext{Config: cfg, App: a, Repo: a.Repo}, nil
}

// Close releases the repository's resources.
func (ctx *CommandContext) Close() error {
	return ctx.App.Close()
}

// OpenFile opens the history of the file named by the first argument.
func (ctx *CommandContext) OpenFile(c *cli.Context, quick bool) (*history.File, error) {
	return ctx.Repo.GetFile(c.Context, c.Args().Get(0), c.String("branch"), quick)
}

// OutputOptions creates OutputOptions from the flags every command shares.
// Top is left at 0 (no limit); see topReportWriter.
func (ctx *CommandContext) OutputOptions(c *cli.Context) output.OutputOptions {
	return output.OutputOptions{
		Format:     getOutputFormat(c.String("format")),
		OutputPath: c.String("output"),
		Out:        c.App.Writer,
		Color:      ctx.Config.Diff.Color,
		Abbrev:     ctx.Repo.Backend().Abbrev,
	}
}

// executeWithContext opens the repository, runs fn and closes it again.
func executeWithContext(c *cli.Context, fn func(ctx *CommandContext, c *cli.Context) error) (err error) {
	ctx, err := NewCommandContext(c)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := ctx.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(ctx, c)
}
