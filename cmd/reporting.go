package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/masmgr/vcsview-go/internal/output"
)

func reportWriter(ctx *CommandContext, c *cli.Context) (output.ReportWriter, output.OutputOptions) {
	opts := ctx.OutputOptions(c)
	return output.NewReportWriter(opts.Format), opts
}

// topReportWriter is reportWriter for commands that declare --top.
func topReportWriter(ctx *CommandContext, c *cli.Context) (output.ReportWriter, output.OutputOptions) {
	w, opts := reportWriter(ctx, c)
	opts.Top = c.Int("top")
	return w, opts
}
