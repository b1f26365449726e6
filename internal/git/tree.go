package git

import (
	"context"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/masmgr/vcsview-go/internal/vcs"
)

// lsTreePattern matches "<mode> SP <type> SP <object> TAB <path>".
var lsTreePattern = regexp.MustCompile(`^([0-7]{6}) (blob|tree|commit) ([0-9a-f]{4,64})\t(.+)$`)

// normalizeDir strips a leading slash and guarantees a trailing one on
// non-root directories, so ls-tree lists the directory's children.
func normalizeDir(dir string) string {
	dir = strings.Trim(dir, "/")
	if dir == "" || dir == "." {
		return ""
	}
	return dir + "/"
}

func parseTreeLine(line string) (vcs.TreeEntry, error) {
	m := lsTreePattern.FindStringSubmatch(line)
	if m == nil {
		return vcs.TreeEntry{}, &vcs.ParseError{Line: line, Reason: "malformed ls-tree line"}
	}
	mode, err := parseMode(m[1])
	if err != nil {
		return vcs.TreeEntry{}, &vcs.ParseError{Line: line, Reason: err.Error()}
	}
	p, err := unquotePath(m[4])
	if err != nil {
		return vcs.TreeEntry{}, &vcs.ParseError{Line: line, Reason: "bad path quoting"}
	}
	return vcs.TreeEntry{
		Name: path.Base(p),
		Path: p,
		Mode: mode,
		Hash: m[3],
		Dir:  m[2] == "tree",
	}, nil
}

// listable reports whether e is a directory or a file. Submodule entries
// (gitlinks) are neither and are left out of listings.
func listable(e vcs.TreeEntry) bool {
	return e.Dir || isBlobMode(e.Mode)
}

// ListTree lists the immediate children of dir at rev.
func (b *Backend) ListTree(ctx context.Context, dir, rev string) ([]vcs.TreeEntry, error) {
	rev, err := b.orDefault(ctx, rev)
	if err != nil {
		return nil, err
	}
	args := []string{"ls-tree", "--full-name", rev}
	if d := normalizeDir(dir); d != "" {
		args = append(args, "--", d)
	}
	lines, err := b.run.Run(ctx, args...)
	if err != nil {
		return nil, err
	}
	entries := make([]vcs.TreeEntry, 0, len(lines))
	for i, line := range lines {
		if line == "" {
			continue
		}
		e, err := parseTreeLine(line)
		if err != nil {
			if pe, ok := err.(*vcs.ParseError); ok {
				pe.LineNo = i + 1
			}
			return nil, err
		}
		if !listable(e) {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// FileExists reports whether path names a file at rev.
func (b *Backend) FileExists(ctx context.Context, p, rev string) (bool, error) {
	rev, err := b.orDefault(ctx, rev)
	if err != nil {
		return false, err
	}
	p = strings.Trim(p, "/")
	lines, err := b.run.Run(ctx, "ls-tree", "--full-name", rev, "--", p)
	if err != nil {
		return false, err
	}
	for _, line := range lines {
		e, err := parseTreeLine(line)
		if err != nil {
			return false, err
		}
		if e.Path == p && !e.Dir && isBlobMode(e.Mode) {
			return true, nil
		}
	}
	return false, nil
}

// ListDeleted returns paths of files that were once direct children of dir
// on rev's history and are absent from rev's tree.
func (b *Backend) ListDeleted(ctx context.Context, dir, rev string) ([]string, error) {
	rev, err := b.orDefault(ctx, rev)
	if err != nil {
		return nil, err
	}
	d := normalizeDir(dir)
	args := []string{"log", "--diff-filter=D", "--name-only", "--no-renames", "--pretty=format:", rev, "--"}
	if d != "" {
		args = append(args, d)
	}
	lines, err := b.run.Run(ctx, args...)
	if err != nil {
		return nil, err
	}

	present := map[string]bool{}
	entries, err := b.ListTree(ctx, dir, rev)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		present[e.Path] = true
	}

	seen := map[string]bool{}
	var out []string
	for _, line := range lines {
		if line == "" {
			continue
		}
		p, err := unquotePath(line)
		if err != nil {
			return nil, &vcs.ParseError{Line: line, Reason: "bad path quoting"}
		}
		if !strings.HasPrefix(p, d) || strings.Contains(p[len(d):], "/") {
			continue
		}
		if present[p] || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Strings(out)
	b.logger.Debug("deleted files", "dir", dir, "rev", rev, "count", len(out))
	return out, nil
}

func (b *Backend) orDefault(ctx context.Context, rev string) (string, error) {
	if rev == "" {
		return b.DefaultBranch(ctx)
	}
	if err := checkArg(rev); err != nil {
		return "", err
	}
	return rev, nil
}
