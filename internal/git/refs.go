package git

import (
	"context"
	"sort"
	"strings"

	"github.com/masmgr/vcsview-go/internal/vcs"
)

// parseShowRef parses `show-ref --heads` output into branches sorted by name.
func parseShowRef(lines []string) ([]vcs.Branch, error) {
	branches := make([]vcs.Branch, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		hash, ref, ok := strings.Cut(line, " ")
		if !ok {
			return nil, &vcs.ParseError{Line: line, LineNo: i + 1, Reason: "malformed show-ref line"}
		}
		name, ok := strings.CutPrefix(ref, "refs/heads/")
		if !ok || name == "" {
			return nil, &vcs.ParseError{Line: line, LineNo: i + 1, Reason: "not a branch ref"}
		}
		branches = append(branches, vcs.Branch{Name: name, Head: hash})
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	return branches, nil
}

// BranchHeads lists every local branch with its head commit.
func (b *Backend) BranchHeads(ctx context.Context) ([]vcs.Branch, error) {
	lines, err := b.run.Run(ctx, "show-ref", "--heads")
	if err != nil {
		// An empty repository has no heads and show-ref exits 1.
		if isExit1(err) {
			return nil, nil
		}
		return nil, err
	}
	return parseShowRef(lines)
}

// DefaultBranch returns the configured default branch, else the branch HEAD
// points to, else "HEAD" for a detached head.
func (b *Backend) DefaultBranch(ctx context.Context) (string, error) {
	if b.defaultBranch != "" {
		return b.defaultBranch, nil
	}
	lines, err := b.run.Run(ctx, "symbolic-ref", "--short", "--quiet", "HEAD")
	if err != nil {
		if isExit1(err) {
			return "HEAD", nil
		}
		return "", err
	}
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return "HEAD", nil
	}
	return strings.TrimSpace(lines[0]), nil
}
