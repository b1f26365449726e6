package output

import (
	"fmt"
	"strings"
)

// MarkdownWriter writes reports as Markdown tables.
type MarkdownWriter struct{}

func (w *MarkdownWriter) WriteListing(report *ListingReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	fmt.Fprintf(out, "# %s\n\n", escapeMarkdown(pathOrRoot(report.Path)))
	fmt.Fprintf(out, "**Branch:** %s\n\n", escapeMarkdown(report.Branch))
	fmt.Fprintln(out, "| Name | Rev | Date | Author | Log |")
	fmt.Fprintln(out, "|------|-----|------|--------|-----|")
	for _, d := range report.Dirs {
		fmt.Fprintf(out, "| `%s/` | | | | |\n", d)
	}
	for _, f := range limitTop(report.Files, options.Top) {
		name := "`" + f.Name + "`"
		if f.Deleted {
			name = "~~" + name + "~~"
		}
		fmt.Fprintf(out, "| %s | %s | %s | %s | %s |\n",
			name, options.abbrev(f.Revision), formatDate(f.Date), escapeMarkdown(f.Author), escapeMarkdown(f.Subject))
	}
	return nil
}

func (w *MarkdownWriter) WriteLog(report *LogReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	fmt.Fprintf(out, "# Log of `%s`\n\n", report.Path)
	fmt.Fprintf(out, "**Branch:** %s\n\n", escapeMarkdown(report.Branch))
	for _, c := range limitTop(report.Commits, options.Top) {
		fmt.Fprintf(out, "## %s\n\n", options.abbrev(c.Revision))
		fmt.Fprintf(out, "- **Author:** %s <%s>\n", escapeMarkdown(c.Author), c.AuthorEmail)
		fmt.Fprintf(out, "- **Date:** %s\n", formatDateTime(c.Date))
		if len(c.Tags) > 0 {
			fmt.Fprintf(out, "- **Tags:** %s\n", escapeMarkdown(strings.Join(c.Tags, ", ")))
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "%s\n\n", strings.TrimRight(c.Message, "\n"))
		if len(c.Changes) == 0 {
			continue
		}
		fmt.Fprintln(out, "| Status | Path |")
		fmt.Fprintln(out, "|--------|------|")
		for _, fc := range c.Changes {
			p := "`" + fc.Path + "`"
			if fc.PreviousPath != "" {
				p = "`" + fc.PreviousPath + "` → " + p
			}
			fmt.Fprintf(out, "| %s | %s |\n", fc.Status, p)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func (w *MarkdownWriter) WriteBranches(report *BranchesReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	fmt.Fprintf(out, "# Branches of `%s`\n\n", report.Path)
	fmt.Fprintln(out, "| Branch | Head |")
	fmt.Fprintln(out, "|--------|------|")
	for _, b := range report.Branches {
		fmt.Fprintf(out, "| %s | %s |\n", escapeMarkdown(b.Name), options.abbrev(b.Head))
	}
	return nil
}

func (w *MarkdownWriter) WritePatchsets(report *PatchsetReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	fmt.Fprintf(out, "# Patchsets of `%s`\n\n", report.Path)
	for _, ps := range limitTop(report.Patchsets, options.Top) {
		fmt.Fprintf(out, "## %s\n\n", options.abbrev(ps.Revision))
		fmt.Fprintf(out, "%s by %s: %s\n\n", formatDate(ps.Date), escapeMarkdown(ps.Author), escapeMarkdown(firstLine(ps.Message)))
		fmt.Fprintln(out, "| Path | Status | From | To |")
		fmt.Fprintln(out, "|------|--------|------|----|")
		for _, m := range ps.Members {
			fmt.Fprintf(out, "| `%s` | %s | %s | %s |\n", m.Path, m.Status, options.abbrev(m.From), options.abbrev(m.To))
		}
		fmt.Fprintln(out)
	}
	return nil
}

func (w *MarkdownWriter) WriteBlame(report *BlameReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	fmt.Fprintf(out, "# Annotate `%s` at %s\n\n", report.Path, options.abbrev(report.Revision))
	fmt.Fprintln(out, "| Line | Rev | Author | Text |")
	fmt.Fprintln(out, "|------|-----|--------|------|")
	for _, l := range report.Lines {
		fmt.Fprintf(out, "| %d | %s | %s | `%s` |\n", l.LineNo, options.abbrev(l.Revision), escapeMarkdown(l.Author), strings.ReplaceAll(l.Text, "`", "'"))
	}
	return nil
}

func (w *MarkdownWriter) WriteRange(report *RangeReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	fmt.Fprintf(out, "# Revisions of `%s` from %s to %s\n\n", report.Path, options.abbrev(report.From), options.abbrev(report.To))
	if len(report.Revisions) == 0 {
		fmt.Fprintln(out, "_None._")
		return nil
	}
	for _, rev := range report.Revisions {
		fmt.Fprintf(out, "- %s\n", options.abbrev(rev))
	}
	return nil
}

func (w *MarkdownWriter) WriteDiff(report *DiffReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	fmt.Fprintf(out, "# Diff of `%s` (%s..%s)\n\n", report.Path, options.abbrev(report.From), options.abbrev(report.To))
	fmt.Fprintln(out, "```diff")
	fmt.Fprint(out, report.Text)
	if report.Text != "" && !strings.HasSuffix(report.Text, "\n") {
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out, "```")
	return nil
}

func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"|", "\\|",
		"*", "\\*",
		"_", "\\_",
		"`", "\\`",
	)
	return replacer.Replace(s)
}
