// Package browser is the query surface over one repository: directory
// listings, file histories, diffs, patchsets and annotations.
package browser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/masmgr/vcsview-go/config"
	"github.com/masmgr/vcsview-go/internal/cache"
	"github.com/masmgr/vcsview-go/internal/diff"
	"github.com/masmgr/vcsview-go/internal/git"
	"github.com/masmgr/vcsview-go/internal/history"
	"github.com/masmgr/vcsview-go/internal/listing"
	"github.com/masmgr/vcsview-go/internal/patchset"
	"github.com/masmgr/vcsview-go/internal/vcs"
)

// Feature names accepted by HasFeature.
const (
	FeatureBranches  = "branches"
	FeaturePatchsets = "patchsets"
	FeatureDeleted   = "deleted"
	FeatureSnapshots = "snapshots"
)

var features = map[vcs.Kind]map[string]bool{
	vcs.KindGit: {FeatureBranches: true, FeaturePatchsets: true, FeatureDeleted: true, FeatureSnapshots: true},
	vcs.KindCVS: {FeatureBranches: true, FeatureDeleted: true},
}

// Options configures a Repository.
type Options struct {
	Store  cache.Store
	MaxAge time.Duration
	RepoID string
	Logger *slog.Logger
}

// Repository answers queries against one backend.
type Repository struct {
	backend   vcs.Backend
	builder   *history.Builder
	lister    *listing.Lister
	diffs     *diff.Engine
	patchsets *patchset.Synthesizer
	logger    *slog.Logger
}

// New wraps backend.
func New(backend vcs.Backend, opts Options) *Repository {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	builder := history.NewBuilder(backend, history.Options{
		Store:  opts.Store,
		RepoID: opts.RepoID,
		MaxAge: opts.MaxAge,
		Logger: logger,
	})
	return &Repository{
		backend:   backend,
		builder:   builder,
		lister:    listing.New(builder, logger),
		diffs:     diff.New(backend, logger),
		patchsets: patchset.New(builder),
		logger:    logger,
	}
}

// Open creates the backend named by cfg.Kind and wraps it.
func Open(ctx context.Context, cfg config.BackendConfig, opts Options) (*Repository, error) {
	kind, err := vcs.ParseKind(cfg.Kind)
	if err != nil {
		return nil, err
	}
	switch kind {
	case vcs.KindGit:
		b, err := git.NewBackend(ctx, git.Options{
			Root:          cfg.SourceRoot,
			Binary:        cfg.Binary,
			Timeout:       cfg.Timeout(),
			DefaultBranch: cfg.DefaultBranch,
			Logger:        opts.Logger,
		})
		if err != nil {
			return nil, err
		}
		return New(b, opts), nil
	default:
		return nil, fmt.Errorf("%w: %s", vcs.ErrUnsupportedKind, kind)
	}
}

func (r *Repository) Backend() vcs.Backend { return r.backend }
func (r *Repository) Kind() vcs.Kind { return r.backend.Kind() }

// HasFeature reports whether the backend kind supports the named feature.
func (r *Repository) HasFeature(name string) bool {
	return features[r.backend.Kind()][name]
}

// ListOptions selects and orders a directory listing.
type ListOptions struct {
	Branch         string
	Sort           listing.SortKey
	Direction      listing.Direction
	IncludeDeleted bool
	Filter         listing.Filter
	FullHistory    bool
}

// ListDirectory lists and sorts the immediate children of dir.
func (r *Repository) ListDirectory(ctx context.Context, dir string, opts ListOptions) (*listing.Listing, error) {
	l, err := r.lister.Browse(ctx, dir, listing.Options{
		Branch:         opts.Branch,
		IncludeDeleted: opts.IncludeDeleted && r.HasFeature(FeatureDeleted),
		Filter:         opts.Filter,
		FullHistory:    opts.FullHistory,
	})
	if err != nil {
		return nil, err
	}
	if err := l.Sort(ctx, opts.Sort, opts.Direction); err != nil {
		return nil, err
	}
	return l, nil
}

// GetFile opens the history of path on branch, the default branch when empty.
func (r *Repository) GetFile(ctx context.Context, path, branch string, quick bool) (*history.File, error) {
	return r.builder.Open(ctx, path, history.FileOptions{Branch: branch, Quick: quick})
}

// GetLog returns the commit record of rev in f's history. An empty rev
// selects the newest revision on f's branch. Abbreviated hashes and
// branch names are resolved first.
func (r *Repository) GetLog(ctx context.Context, f *history.File, rev string) (*vcs.Commit, error) {
	if rev == "" {
		return f.LastLog(ctx)
	}
	full, err := r.backend.ResolveRevision(ctx, rev)
	if err != nil {
		return nil, err
	}
	return f.Log(ctx, full)
}

// GetLastLog returns the newest commit touching f on branch. An empty
// branch, or f's own branch, uses f's revision list. A branch on which f
// has no revisions yields NoRevisionsError.
func (r *Repository) GetLastLog(ctx context.Context, f *history.File, branch string) (*vcs.Commit, error) {
	if branch == "" || branch == f.Branch() {
		return f.LastLog(ctx)
	}
	revs, err := r.backend.RevList(ctx, vcs.RevListOptions{Path: f.Path(), Branch: branch, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(revs) == 0 {
		return nil, &vcs.NoRevisionsError{Path: f.Path(), Branch: branch}
	}
	return r.builder.Commit(ctx, revs[0])
}

// GetBranches maps every branch f is reachable on to its head.
func (r *Repository) GetBranches(ctx context.Context, f *history.File) (map[string]string, error) {
	if !r.HasFeature(FeatureBranches) {
		return map[string]string{}, nil
	}
	return f.Branches(ctx)
}

// Diff returns the unified diff of f between rev1 and rev2.
func (r *Repository) Diff(ctx context.Context, f *history.File, rev1, rev2 string, opts diff.Options) (string, error) {
	return r.diffs.Diff(ctx, f.Path(), rev1, rev2, opts)
}

// RevisionRange returns the revisions changing f between rev1 and rev2.
func (r *Repository) RevisionRange(ctx context.Context, f *history.File, rev1, rev2 string) ([]string, error) {
	return r.diffs.RevisionRange(ctx, f.Path(), rev1, rev2)
}

// Patchset summarizes every commit in f's full history.
func (r *Repository) Patchset(ctx context.Context, f *history.File) ([]patchset.Patchset, error) {
	if !r.HasFeature(FeaturePatchsets) {
		return nil, fmt.Errorf("%w: %s has no patchsets", vcs.ErrUnsupportedKind, r.Kind())
	}
	return r.patchsets.Build(ctx, f)
}

// Annotate calls fn for every line of f at rev, the newest revision when empty.
func (r *Repository) Annotate(ctx context.Context, f *history.File, rev string, fn func(vcs.BlameLine) error) error {
	if rev == "" {
		rev = f.Revision()
	}
	return r.backend.Blame(ctx, f.Path(), rev, fn)
}

// Checkout writes the contents of f at rev to w.
func (r *Repository) Checkout(ctx context.Context, w io.Writer, f *history.File, rev string) error {
	if rev == "" {
		rev = f.Revision()
	}
	return r.backend.Checkout(ctx, w, f.Path(), rev)
}
