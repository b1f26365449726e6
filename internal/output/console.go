package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/fatih/color"

	"github.com/masmgr/vcsview-go/internal/patchset"
	"github.com/masmgr/vcsview-go/internal/vcs"
)

// ConsoleWriter writes reports as aligned tables for a terminal.
type ConsoleWriter struct{}

var (
	heading = color.New(color.FgGreen, color.Bold)
	dimmed  = color.New(color.Faint)
)

func (w *ConsoleWriter) WriteListing(report *ListingReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	heading.Fprintf(out, "%s", pathOrRoot(report.Path))
	fmt.Fprintf(out, " (%s)\n\n", report.Branch)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Name\tRev\tAge\tAuthor\tLog")
	for _, d := range report.Dirs {
		fmt.Fprintf(tw, "%s/\t\t\t\t\n", color.BlueString(d))
	}
	for _, f := range limitTop(report.Files, options.Top) {
		name := f.Name
		if f.Deleted {
			name = color.RedString(name) + " (deleted)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			name,
			options.abbrev(f.Revision),
			formatDate(f.Date),
			f.Author,
			truncateMessage(f.Subject, 50),
		)
	}
	return tw.Flush()
}

func (w *ConsoleWriter) WriteLog(report *LogReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	for i, c := range limitTop(report.Commits, options.Top) {
		if i > 0 {
			fmt.Fprintln(out)
		}
		writeConsoleCommit(out, c, options)
	}
	return nil
}

func writeConsoleCommit(out io.Writer, c *vcs.Commit, options OutputOptions) {
	color.New(color.FgYellow).Fprintf(out, "revision %s", c.Revision)
	if len(c.Tags) > 0 {
		fmt.Fprintf(out, " (%s)", strings.Join(c.Tags, ", "))
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Author: %s <%s>\n", c.Author, c.AuthorEmail)
	fmt.Fprintf(out, "Date:   %s\n\n", formatDateTime(c.Date))
	for _, line := range strings.Split(strings.TrimRight(c.Message, "\n"), "\n") {
		fmt.Fprintf(out, "    %s\n", line)
	}
	if len(c.Changes) == 0 {
		return
	}
	fmt.Fprintln(out)
	for _, fc := range c.Changes {
		if fc.PreviousPath != "" {
			fmt.Fprintf(out, "%s\t%s -> %s\n", statusColor(fc.Status)(fc.Status.Letter()), fc.PreviousPath, fc.Path)
			continue
		}
		fmt.Fprintf(out, "%s\t%s\n", statusColor(fc.Status)(fc.Status.Letter()), fc.Path)
	}
}

func (w *ConsoleWriter) WriteBranches(report *BranchesReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	heading.Fprintf(out, "Branches of %s\n", report.Path)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Branch\tHead")
	for _, b := range report.Branches {
		fmt.Fprintf(tw, "%s\t%s\n", b.Name, options.abbrev(b.Head))
	}
	return tw.Flush()
}

func (w *ConsoleWriter) WritePatchsets(report *PatchsetReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	for i, ps := range limitTop(report.Patchsets, options.Top) {
		if i > 0 {
			fmt.Fprintln(out)
		}
		color.New(color.FgYellow).Fprintf(out, "patchset %s", ps.Revision)
		fmt.Fprintf(out, "  %s  %s\n", formatDate(ps.Date), ps.Author)
		if len(ps.Tags) > 0 {
			fmt.Fprintf(out, "Tags: %s\n", strings.Join(ps.Tags, ", "))
		}
		fmt.Fprintf(out, "    %s\n", firstLine(ps.Message))
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, m := range ps.Members {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t->\t%s\n",
				statusColor(m.Status)(m.Status.Letter()),
				m.Path,
				memberRev(m.From, options),
				memberRev(m.To, options),
			)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func memberRev(rev string, options OutputOptions) string {
	if rev == patchset.Initial || rev == patchset.Dead {
		return dimmed.Sprint(rev)
	}
	return options.abbrev(rev)
}

func (w *ConsoleWriter) WriteBlame(report *BlameReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	width := len(fmt.Sprint(len(report.Lines)))
	prev := ""
	for _, l := range report.Lines {
		rev, who := options.abbrev(l.Revision), truncateMessage(l.Author, 16)
		if l.Revision == prev {
			rev, who = strings.Repeat(" ", len(rev)), ""
		}
		prev = l.Revision
		fmt.Fprintf(out, "%s %-16s %*d  %s\n", dimmed.Sprint(rev), who, width, l.LineNo, l.Text)
	}
	return nil
}

func (w *ConsoleWriter) WriteRange(report *RangeReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	if len(report.Revisions) == 0 {
		fmt.Fprintf(out, "No revisions of %s between %s and %s.\n", report.Path, options.abbrev(report.From), options.abbrev(report.To))
		return nil
	}
	for _, rev := range report.Revisions {
		fmt.Fprintln(out, options.abbrev(rev))
	}
	return nil
}

func (w *ConsoleWriter) WriteDiff(report *DiffReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	if options.Color && !color.NoColor && file == nil {
		return highlightDiff(out, report.Text)
	}
	_, err = io.WriteString(out, report.Text)
	return err
}

// highlightDiff writes text through chroma's diff lexer with ANSI colors.
func highlightDiff(out io.Writer, text string) error {
	lexer := lexers.Get("diff")
	if lexer == nil {
		_, err := io.WriteString(out, text)
		return err
	}
	style := styles.Get("github-dark")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	it, err := chroma.Coalesce(lexer).Tokenise(nil, text)
	if err != nil {
		return err
	}
	return formatter.Format(out, style, it)
}

// Helper functions

func statusColor(s vcs.ChangeStatus) func(string, ...interface{}) string {
	switch s {
	case vcs.StatusAdded:
		return color.GreenString
	case vcs.StatusDeleted:
		return color.RedString
	case vcs.StatusRenamed, vcs.StatusCopied:
		return color.CyanString
	default:
		return color.YellowString
	}
}
