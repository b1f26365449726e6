// Package diff produces diffs and revision ranges for a single path.
package diff

import (
	"context"
	"log/slog"

	"github.com/masmgr/vcsview-go/internal/vcs"
)

// DefaultContextLines is used when Options.ContextLines is negative.
const DefaultContextLines = 3

// Options controls diff output.
type Options struct {
	ContextLines     int
	IgnoreWhitespace bool
}

// Engine diffs revisions of paths in one repository.
type Engine struct {
	backend vcs.Backend
	logger  *slog.Logger
}

// New creates an Engine.
func New(backend vcs.Backend, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{backend: backend, logger: logger}
}

// normalize maps an invalid revision to "", the beginning of history.
func (e *Engine) normalize(rev string) string {
	if rev == "" || e.backend.ValidRevision(rev) {
		return rev
	}
	e.logger.Debug("treating invalid revision as beginning of history", "rev", rev)
	return ""
}

// Diff returns the unified diff of path between rev1 and rev2.
func (e *Engine) Diff(ctx context.Context, path, rev1, rev2 string, opts Options) (string, error) {
	n := opts.ContextLines
	if n < 0 {
		n = DefaultContextLines
	}
	return e.backend.Diff(ctx, vcs.DiffRequest{
		Path:             path,
		From:             e.normalize(rev1),
		To:               e.normalize(rev2),
		ContextLines:     n,
		IgnoreWhitespace: opts.IgnoreWhitespace,
	})
}

// RevisionRange returns the revisions changing path between rev1
// (exclusive) and rev2 (inclusive), newest first. When rev2 precedes rev1
// the range is taken the other way and returned oldest first, so
// RevisionRange(a, b) is always the reverse of RevisionRange(b, a). The
// result is empty when no change to path lies on a line between them.
func (e *Engine) RevisionRange(ctx context.Context, path, rev1, rev2 string) ([]string, error) {
	revs, err := e.backend.RevList(ctx, vcs.RevListOptions{Path: path, Branch: rev2, Exclude: rev1})
	if err != nil {
		return nil, err
	}
	if len(revs) > 0 {
		return revs, nil
	}
	revs, err = e.backend.RevList(ctx, vcs.RevListOptions{Path: path, Branch: rev1, Exclude: rev2})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(revs)-1; i < j; i, j = i+1, j-1 {
		revs[i], revs[j] = revs[j], revs[i]
	}
	return revs, nil
}
