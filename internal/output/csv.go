package output

import (
	"encoding/csv"
	"strconv"
	"strings"
)

// CSVWriter writes reports as CSV with a header row.
type CSVWriter struct{}

func (w *CSVWriter) WriteListing(report *ListingReport, options OutputOptions) error {
	rows := [][]string{{"Type", "Name", "Path", "Revision", "Date", "Author", "Subject", "Deleted"}}
	for _, d := range report.Dirs {
		rows = append(rows, []string{"dir", d, joinPath(report.Path, d), "", "", "", "", ""})
	}
	for _, f := range limitTop(report.Files, options.Top) {
		rows = append(rows, []string{
			"file",
			f.Name,
			f.Path,
			f.Revision,
			formatDateTime(f.Date),
			f.Author,
			f.Subject,
			strconv.FormatBool(f.Deleted),
		})
	}
	return writeCSV(rows, options)
}

func (w *CSVWriter) WriteLog(report *LogReport, options OutputOptions) error {
	rows := [][]string{{"Revision", "Date", "Author", "Email", "Tags", "Subject", "Changes"}}
	for _, c := range limitTop(report.Commits, options.Top) {
		rows = append(rows, []string{
			c.Revision,
			formatDateTime(c.Date),
			c.Author,
			c.AuthorEmail,
			strings.Join(c.Tags, " "),
			c.Subject(),
			strconv.Itoa(len(c.Changes)),
		})
	}
	return writeCSV(rows, options)
}

func (w *CSVWriter) WriteBranches(report *BranchesReport, options OutputOptions) error {
	rows := [][]string{{"Branch", "Head"}}
	for _, b := range report.Branches {
		rows = append(rows, []string{b.Name, b.Head})
	}
	return writeCSV(rows, options)
}

// WritePatchsets writes one row per patchset member.
func (w *CSVWriter) WritePatchsets(report *PatchsetReport, options OutputOptions) error {
	rows := [][]string{{"Patchset", "Date", "Author", "Path", "Status", "From", "To"}}
	for _, ps := range limitTop(report.Patchsets, options.Top) {
		for _, m := range ps.Members {
			rows = append(rows, []string{
				ps.Revision,
				formatDateTime(ps.Date),
				ps.Author,
				m.Path,
				m.Status.String(),
				m.From,
				m.To,
			})
		}
	}
	return writeCSV(rows, options)
}

func (w *CSVWriter) WriteBlame(report *BlameReport, options OutputOptions) error {
	rows := [][]string{{"Line", "Revision", "Author", "Date", "Text"}}
	for _, l := range report.Lines {
		rows = append(rows, []string{strconv.Itoa(l.LineNo), l.Revision, l.Author, formatDateTime(l.Time), l.Text})
	}
	return writeCSV(rows, options)
}

func (w *CSVWriter) WriteRange(report *RangeReport, options OutputOptions) error {
	rows := [][]string{{"Revision"}}
	for _, rev := range report.Revisions {
		rows = append(rows, []string{rev})
	}
	return writeCSV(rows, options)
}

// WriteDiff writes one row per diff line, keyed by its leading marker.
func (w *CSVWriter) WriteDiff(report *DiffReport, options OutputOptions) error {
	rows := [][]string{{"Kind", "Text"}}
	for _, line := range strings.Split(strings.TrimSuffix(report.Text, "\n"), "\n") {
		if line == "" && report.Text == "" {
			break
		}
		rows = append(rows, []string{diffLineKind(line), line})
	}
	return writeCSV(rows, options)
}

func diffLineKind(line string) string {
	switch {
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"),
		strings.HasPrefix(line, "diff "), strings.HasPrefix(line, "index "):
		return "header"
	case strings.HasPrefix(line, "@@"):
		return "hunk"
	case strings.HasPrefix(line, "+"):
		return "add"
	case strings.HasPrefix(line, "-"):
		return "delete"
	default:
		return "context"
	}
}

func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

func writeCSV(rows [][]string, options OutputOptions) error {
	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	writer := csv.NewWriter(out)
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}
