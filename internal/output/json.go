package output

import (
	"encoding/json"
	"fmt"

	"github.com/masmgr/vcsview-go/internal/patchset"
	"github.com/masmgr/vcsview-go/internal/vcs"
)

// JSONWriter writes reports as indented JSON documents.
type JSONWriter struct{}

// JSONListing is the JSON output structure for a directory listing.
type JSONListing struct {
	Repo        string         `json:"repo"`
	Path        string         `json:"path"`
	Branch      string         `json:"branch"`
	GeneratedAt string         `json:"generatedAt"`
	Dirs        []string       `json:"dirs"`
	Files       []JSONListFile `json:"files"`
}

// JSONListFile is one file of a listing.
type JSONListFile struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Revision string `json:"revision,omitempty"`
	Author   string `json:"author,omitempty"`
	Date     string `json:"date,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Deleted  bool   `json:"deleted,omitempty"`
}

// JSONCommit is the JSON output structure for one commit.
type JSONCommit struct {
	Revision string       `json:"revision"`
	Author   string       `json:"author"`
	Email    string       `json:"email"`
	Date     string       `json:"date"`
	Message  string       `json:"message"`
	Tags     []string     `json:"tags"`
	Changes  []JSONChange `json:"changes"`
}

// JSONChange is one file change of a commit.
type JSONChange struct {
	Path         string `json:"path"`
	PreviousPath string `json:"previousPath,omitempty"`
	Status       string `json:"status"`
	SrcHash      string `json:"srcHash,omitempty"`
	DstHash      string `json:"dstHash,omitempty"`
}

// JSONLog is the JSON output structure for a file log.
type JSONLog struct {
	Repo    string       `json:"repo"`
	Path    string       `json:"path"`
	Branch  string       `json:"branch"`
	Commits []JSONCommit `json:"commits"`
}

// JSONBranches is the JSON output structure for a branch list.
type JSONBranches struct {
	Repo     string            `json:"repo"`
	Path     string            `json:"path"`
	Branches map[string]string `json:"branches"`
}

// JSONPatchset is one patchset.
type JSONPatchset struct {
	Revision string       `json:"revision"`
	Date     string       `json:"date"`
	Author   string       `json:"author"`
	Message  string       `json:"message"`
	Tags     []string     `json:"tags"`
	Members  []JSONMember `json:"members"`
}

// JSONMember is one path of a patchset.
type JSONMember struct {
	Path         string `json:"path"`
	PreviousPath string `json:"previousPath,omitempty"`
	Status       string `json:"status"`
	From         string `json:"from"`
	To           string `json:"to"`
}

// JSONPatchsets is the JSON output structure for a patchset list.
type JSONPatchsets struct {
	Repo      string         `json:"repo"`
	Path      string         `json:"path"`
	Patchsets []JSONPatchset `json:"patchsets"`
}

// JSONBlameLine is one annotated line.
type JSONBlameLine struct {
	Line     int    `json:"line"`
	Revision string `json:"revision"`
	Author   string `json:"author"`
	Date     string `json:"date"`
	Text     string `json:"text"`
}

// JSONBlame is the JSON output structure for an annotated file.
type JSONBlame struct {
	Repo     string          `json:"repo"`
	Path     string          `json:"path"`
	Revision string          `json:"revision"`
	Lines    []JSONBlameLine `json:"lines"`
}

// JSONRange is the JSON output structure for a revision range.
type JSONRange struct {
	Repo      string   `json:"repo"`
	Path      string   `json:"path"`
	From      string   `json:"from"`
	To        string   `json:"to"`
	Revisions []string `json:"revisions"`
}

// JSONDiff is the JSON output structure for a diff.
type JSONDiff struct {
	Repo string `json:"repo"`
	Path string `json:"path"`
	From string `json:"from"`
	To   string `json:"to"`
	Diff string `json:"diff"`
}

func toJSONListFile(f ListingFile) JSONListFile {
	return JSONListFile{
		Name:     f.Name,
		Path:     f.Path,
		Revision: f.Revision,
		Author:   f.Author,
		Date:     formatDateTime(f.Date),
		Subject:  f.Subject,
		Deleted:  f.Deleted,
	}
}

func toJSONCommit(c *vcs.Commit) JSONCommit {
	jc := JSONCommit{
		Revision: c.Revision,
		Author:   c.Author,
		Email:    c.AuthorEmail,
		Date:     formatDateTime(c.Date),
		Message:  c.Message,
		Tags:     append([]string{}, c.Tags...),
		Changes:  make([]JSONChange, len(c.Changes)),
	}
	for i, fc := range c.Changes {
		jc.Changes[i] = JSONChange{
			Path:         fc.Path,
			PreviousPath: fc.PreviousPath,
			Status:       fc.Status.String(),
			SrcHash:      fc.SrcHash,
			DstHash:      fc.DstHash,
		}
	}
	return jc
}

func toJSONPatchset(ps patchset.Patchset) JSONPatchset {
	jp := JSONPatchset{
		Revision: ps.Revision,
		Date:     formatDateTime(ps.Date),
		Author:   ps.Author,
		Message:  ps.Message,
		Tags:     append([]string{}, ps.Tags...),
		Members:  make([]JSONMember, len(ps.Members)),
	}
	for i, m := range ps.Members {
		jp.Members[i] = JSONMember{
			Path:         m.Path,
			PreviousPath: m.PreviousPath,
			Status:       m.Status.String(),
			From:         m.From,
			To:           m.To,
		}
	}
	return jp
}

func toJSONBlameLine(l vcs.BlameLine) JSONBlameLine {
	return JSONBlameLine{
		Line:     l.LineNo,
		Revision: l.Revision,
		Author:   l.Author,
		Date:     formatDateTime(l.Time),
		Text:     l.Text,
	}
}

func (w *JSONWriter) WriteListing(report *ListingReport, options OutputOptions) error {
	files := limitTop(report.Files, options.Top)
	doc := JSONListing{
		Repo:        report.Repo,
		Path:        report.Path,
		Branch:      report.Branch,
		GeneratedAt: formatDateTime(report.GeneratedAt),
		Dirs:        append([]string{}, report.Dirs...),
		Files:       make([]JSONListFile, len(files)),
	}
	for i, f := range files {
		doc.Files[i] = toJSONListFile(f)
	}
	return writeJSON(doc, options)
}

func (w *JSONWriter) WriteLog(report *LogReport, options OutputOptions) error {
	commits := limitTop(report.Commits, options.Top)
	doc := JSONLog{Repo: report.Repo, Path: report.Path, Branch: report.Branch, Commits: make([]JSONCommit, len(commits))}
	for i, c := range commits {
		doc.Commits[i] = toJSONCommit(c)
	}
	return writeJSON(doc, options)
}

func (w *JSONWriter) WriteBranches(report *BranchesReport, options OutputOptions) error {
	doc := JSONBranches{Repo: report.Repo, Path: report.Path, Branches: make(map[string]string, len(report.Branches))}
	for _, b := range report.Branches {
		doc.Branches[b.Name] = b.Head
	}
	return writeJSON(doc, options)
}

func (w *JSONWriter) WritePatchsets(report *PatchsetReport, options OutputOptions) error {
	sets := limitTop(report.Patchsets, options.Top)
	doc := JSONPatchsets{Repo: report.Repo, Path: report.Path, Patchsets: make([]JSONPatchset, len(sets))}
	for i, ps := range sets {
		doc.Patchsets[i] = toJSONPatchset(ps)
	}
	return writeJSON(doc, options)
}

func (w *JSONWriter) WriteBlame(report *BlameReport, options OutputOptions) error {
	doc := JSONBlame{Repo: report.Repo, Path: report.Path, Revision: report.Revision, Lines: make([]JSONBlameLine, len(report.Lines))}
	for i, l := range report.Lines {
		doc.Lines[i] = toJSONBlameLine(l)
	}
	return writeJSON(doc, options)
}

func (w *JSONWriter) WriteRange(report *RangeReport, options OutputOptions) error {
	return writeJSON(JSONRange{
		Repo:      report.Repo,
		Path:      report.Path,
		From:      report.From,
		To:        report.To,
		Revisions: append([]string{}, report.Revisions...),
	}, options)
}

func (w *JSONWriter) WriteDiff(report *DiffReport, options OutputOptions) error {
	return writeJSON(JSONDiff{Repo: report.Repo, Path: report.Path, From: report.From, To: report.To, Diff: report.Text}, options)
}

func writeJSON(data interface{}, options OutputOptions) error {
	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
