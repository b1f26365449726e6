package output

import (
	"io"
	"time"

	"github.com/masmgr/vcsview-go/internal/patchset"
	"github.com/masmgr/vcsview-go/internal/vcs"
)

// Compile-time interface conformance checks.
var (
	_ ReportWriter = (*ConsoleWriter)(nil)
	_ ReportWriter = (*JSONWriter)(nil)
	_ ReportWriter = (*CSVWriter)(nil)
	_ ReportWriter = (*MarkdownWriter)(nil)
	_ ReportWriter = (*CIWriter)(nil)
)

// OutputFormat represents the output format type.
type OutputFormat string

const (
	FormatConsole  OutputFormat = "console"
	FormatJSON     OutputFormat = "json"
	FormatCSV      OutputFormat = "csv"
	FormatMarkdown OutputFormat = "markdown"
	FormatCI       OutputFormat = "ci"
)

// OutputOptions controls output behavior.
type OutputOptions struct {
	Format     OutputFormat
	Top        int       // limits listed items; 0 means all
	OutputPath string    // empty writes to Out, or stdout
	Out        io.Writer // used when OutputPath is empty
	Color      bool      // console only: colorize diffs
	Abbrev     func(rev string) string
}

func (o OutputOptions) abbrev(rev string) string {
	if o.Abbrev == nil || rev == "" {
		return rev
	}
	return o.Abbrev(rev)
}

// ListingReport is a sorted directory listing.
type ListingReport struct {
	Repo        string
	Path        string
	Branch      string
	GeneratedAt time.Time
	Dirs        []string
	Files       []ListingFile
}

// ListingFile is one file row of a listing with its newest commit.
type ListingFile struct {
	Name     string
	Path     string
	Revision string
	Author   string
	Date     time.Time
	Subject  string
	Deleted  bool
}

// LogReport is a file's commit log, newest first.
type LogReport struct {
	Repo    string
	Path    string
	Branch  string
	Commits []*vcs.Commit
}

// BranchesReport lists the branches a file is reachable on.
type BranchesReport struct {
	Repo     string
	Path     string
	Branches []vcs.Branch
}

// PatchsetReport lists the patchsets of a file's history.
type PatchsetReport struct {
	Repo      string
	Path      string
	Patchsets []patchset.Patchset
}

// BlameReport is a file annotated line by line.
type BlameReport struct {
	Repo     string
	Path     string
	Revision string
	Lines    []vcs.BlameLine
}

// RangeReport lists the revisions changing a file between two revisions.
type RangeReport struct {
	Repo      string
	Path      string
	From      string
	To        string
	Revisions []string
}

// DiffReport is a unified diff of a file between two revisions.
type DiffReport struct {
	Repo string
	Path string
	From string
	To   string
	Text string
}

// ReportWriter writes every report kind in one format.
type ReportWriter interface {
	WriteListing(report *ListingReport, options OutputOptions) error
	WriteLog(report *LogReport, options OutputOptions) error
	WriteBranches(report *BranchesReport, options OutputOptions) error
	WritePatchsets(report *PatchsetReport, options OutputOptions) error
	WriteBlame(report *BlameReport, options OutputOptions) error
	WriteRange(report *RangeReport, options OutputOptions) error
	WriteDiff(report *DiffReport, options OutputOptions) error
}

// NewReportWriter creates a report writer for the specified format.
func NewReportWriter(format OutputFormat) ReportWriter {
	switch format {
	case FormatJSON:
		return &JSONWriter{}
	case FormatCSV:
		return &CSVWriter{}
	case FormatMarkdown:
		return &MarkdownWriter{}
	case FormatCI:
		return &CIWriter{}
	default:
		return &ConsoleWriter{}
	}
}

// ParseFormat maps a flag value onto an OutputFormat.
func ParseFormat(s string) (OutputFormat, bool) {
	switch f := OutputFormat(s); f {
	case FormatConsole, FormatJSON, FormatCSV, FormatMarkdown, FormatCI:
		return f, true
	case "":
		return FormatConsole, true
	default:
		return "", false
	}
}
