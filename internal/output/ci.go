package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// CIWriter writes reports as NDJSON (one JSON object per line) for CI
// pipelines: a summary line first, then one line per item.
type CIWriter struct{}

// CISummary is the first line of CI output.
type CISummary struct {
	Type  string `json:"type"`
	Kind  string `json:"kind"`
	Path  string `json:"path"`
	Total int    `json:"total"`
}

type ciItem[T any] struct {
	Type string `json:"type"`
	Item T      `json:"item"`
}

func writeNDJSON[T any](options OutputOptions, kind, path string, items []T) error {
	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	if err := writeNDJSONLine(out, CISummary{Type: "summary", Kind: kind, Path: path, Total: len(items)}); err != nil {
		return err
	}
	for _, it := range items {
		if err := writeNDJSONLine(out, ciItem[T]{Type: kind, Item: it}); err != nil {
			return err
		}
	}
	return nil
}

func (w *CIWriter) WriteListing(report *ListingReport, options OutputOptions) error {
	files := limitTop(report.Files, options.Top)
	items := make([]JSONListFile, 0, len(report.Dirs)+len(files))
	for _, d := range report.Dirs {
		items = append(items, JSONListFile{Name: d + "/", Path: joinPath(report.Path, d)})
	}
	for _, f := range files {
		items = append(items, toJSONListFile(f))
	}
	return writeNDJSON(options, "entry", report.Path, items)
}

func (w *CIWriter) WriteLog(report *LogReport, options OutputOptions) error {
	commits := limitTop(report.Commits, options.Top)
	items := make([]JSONCommit, len(commits))
	for i, c := range commits {
		items[i] = toJSONCommit(c)
	}
	return writeNDJSON(options, "commit", report.Path, items)
}

func (w *CIWriter) WriteBranches(report *BranchesReport, options OutputOptions) error {
	return writeNDJSON(options, "branch", report.Path, report.Branches)
}

func (w *CIWriter) WritePatchsets(report *PatchsetReport, options OutputOptions) error {
	sets := limitTop(report.Patchsets, options.Top)
	items := make([]JSONPatchset, len(sets))
	for i, ps := range sets {
		items[i] = toJSONPatchset(ps)
	}
	return writeNDJSON(options, "patchset", report.Path, items)
}

func (w *CIWriter) WriteBlame(report *BlameReport, options OutputOptions) error {
	items := make([]JSONBlameLine, len(report.Lines))
	for i, l := range report.Lines {
		items[i] = toJSONBlameLine(l)
	}
	return writeNDJSON(options, "line", report.Path, items)
}

func (w *CIWriter) WriteRange(report *RangeReport, options OutputOptions) error {
	return writeNDJSON(options, "revision", report.Path, report.Revisions)
}

func (w *CIWriter) WriteDiff(report *DiffReport, options OutputOptions) error {
	return writeNDJSON(options, "diff", report.Path, []JSONDiff{{Repo: report.Repo, Path: report.Path, From: report.From, To: report.To, Diff: report.Text}})
}

func writeNDJSONLine(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode NDJSON line: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
