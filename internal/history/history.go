// Package history builds per-file revision histories on top of a
// vcs.Backend and materializes their commit records through a cache.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/masmgr/vcsview-go/internal/cache"
	"github.com/masmgr/vcsview-go/internal/vcs"
)

// FormatVersion is the version of the cached commit encoding. Bump it
// whenever parsing or encoding changes so older entries are never read.
const FormatVersion = 1

// Options configures a Builder.
type Options struct {
	Store         cache.Store   // nil disables caching
	RepoID        string        // cache key namespace; defaults to the backend root
	FormatVersion int           // defaults to FormatVersion
	MaxAge        time.Duration // 0 accepts cached entries of any age
	Logger        *slog.Logger
}

// Builder opens file histories. It is safe for concurrent use.
type Builder struct {
	backend vcs.Backend
	store   cache.Store
	repoID  string
	version int
	maxAge  time.Duration
	logger  *slog.Logger
}

// NewBuilder creates a Builder reading from backend.
func NewBuilder(backend vcs.Backend, opts Options) *Builder {
	b := &Builder{
		backend: backend,
		store:   opts.Store,
		repoID:  opts.RepoID,
		version: opts.FormatVersion,
		maxAge:  opts.MaxAge,
		logger:  opts.Logger,
	}
	if b.repoID == "" {
		b.repoID = backend.Root()
	}
	if b.version == 0 {
		b.version = FormatVersion
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Backend returns the backend the builder reads from.
func (b *Builder) Backend() vcs.Backend { return b.backend }

// Commit returns the commit record for rev, from the cache when possible.
// Unreadable cache entries are logged and replaced.
func (b *Builder) Commit(ctx context.Context, rev string) (*vcs.Commit, error) {
	key := cache.Key(b.repoID, rev, b.version)
	if c := b.cached(ctx, key, rev); c != nil {
		return c, nil
	}
	b.logger.Debug("cache miss", "key", key)

	c, err := b.backend.ReadLog(ctx, rev)
	if err != nil {
		return nil, err
	}
	if b.store != nil {
		data, err := cache.EncodeCommit(c)
		if err == nil {
			err = b.store.Set(ctx, key, data)
		}
		if err != nil {
			b.logger.Warn("failed to store commit", "key", key, "error", err)
		}
	}
	return c, nil
}

func (b *Builder) cached(ctx context.Context, key, rev string) *vcs.Commit {
	if b.store == nil {
		return nil
	}
	ok, err := b.store.Exists(ctx, key, b.maxAge)
	if err != nil {
		b.logger.Warn("cache lookup failed", "key", key, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	data, err := b.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			b.logger.Warn("cache read failed", "key", key, "error", err)
		}
		return nil
	}
	c, err := cache.DecodeCommit(data)
	if err == nil && c.Revision != rev {
		err = fmt.Errorf("entry holds revision %s", c.Revision)
	}
	if err != nil {
		b.logger.Warn("discarding cached commit", "key", key, "error", err)
		return nil
	}
	b.logger.Debug("cache hit", "key", key)
	return c
}

// Predecessor returns the revision that last changed p before rev, or ""
// when rev is the first such revision.
func (b *Builder) Predecessor(ctx context.Context, p, rev string) (string, error) {
	revs, err := b.backend.RevList(ctx, vcs.RevListOptions{Path: p, Branch: rev, Limit: 2})
	if err != nil {
		return "", err
	}
	for _, r := range revs {
		if r != rev {
			return r, nil
		}
	}
	return "", nil
}

// FileOptions selects how much history Open resolves.
type FileOptions struct {
	Branch string // empty means the repository default branch
	// Quick resolves only the newest revision on Branch. Operations that
	// need the full history fail with vcs.ErrQuickHistory.
	Quick bool
}

// File is the history of one path. It is safe for concurrent use.
type File struct {
	builder *Builder
	path    string
	branch  string
	quick   bool
	all     []string // every revision touching path on any branch, newest first
	revs    []string // revisions on branch, newest first

	mu         sync.Mutex
	logs       map[string]*vcs.Commit // replaced, never mutated
	branchRevs map[string][]string    // nil until BranchRevisions runs
}

// Open resolves the history of p.
func (b *Builder) Open(ctx context.Context, p string, opts FileOptions) (*File, error) {
	branch := opts.Branch
	if branch == "" {
		var err error
		if branch, err = b.backend.DefaultBranch(ctx); err != nil {
			return nil, err
		}
	}
	f := &File{
		builder: b,
		path:    p,
		branch:  branch,
		quick:   opts.Quick,
		logs:    map[string]*vcs.Commit{},
	}

	if opts.Quick {
		revs, err := b.backend.RevList(ctx, vcs.RevListOptions{Path: p, Branch: branch, Limit: 1})
		if err != nil {
			return nil, err
		}
		if len(revs) == 0 {
			return nil, b.missing(ctx, p, branch)
		}
		f.all, f.revs = revs, revs
		return f, nil
	}

	all, err := b.backend.RevList(ctx, vcs.RevListOptions{Path: p})
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, b.missing(ctx, p, branch)
	}
	revs, err := b.backend.RevList(ctx, vcs.RevListOptions{Path: p, Branch: branch})
	if err != nil {
		return nil, err
	}
	f.all, f.revs = all, revs
	b.logger.Debug("opened file", "path", p, "branch", branch, "revisions", len(revs), "all", len(all))
	return f, nil
}

// missing tells an absent path apart from a present path without history.
func (b *Builder) missing(ctx context.Context, p, branch string) error {
	ok, err := b.backend.FileExists(ctx, p, branch)
	if err != nil {
		return err
	}
	if !ok {
		return &vcs.NoSuchFileError{Path: p}
	}
	return &vcs.NoHistoryError{Path: p, Branch: branch}
}

func (f *File) Path() string { return f.path }
func (f *File) Name() string { return path.Base(f.path) }
func (f *File) Branch() string { return f.branch }
func (f *File) Quick() bool { return f.quick }

// Dir returns the containing directory, "" at the top level.
func (f *File) Dir() string {
	d := path.Dir(f.path)
	if d == "." || d == "/" {
		return ""
	}
	return d
}

// Revisions returns the file's revisions on its branch, newest first.
func (f *File) Revisions() []string {
	return append([]string(nil), f.revs...)
}

// AllRevisions returns the file's revisions on every branch, newest first.
// In quick mode it holds only the branch head revision.
func (f *File) AllRevisions() []string {
	return append([]string(nil), f.all...)
}

// Revision returns the newest revision on the branch, or "".
func (f *File) Revision() string {
	if len(f.revs) == 0 {
		return ""
	}
	return f.revs[0]
}

// Compare orders two revisions of the file. Revisions in the file's history
// are ordered by their position in it; anything else is left to the backend.
func (f *File) Compare(ctx context.Context, a, c string) (vcs.Ordering, error) {
	ia, ib := indexOf(f.all, a), indexOf(f.all, c)
	if ia >= 0 && ib >= 0 {
		// Newest first, so a larger index is older.
		switch {
		case ia > ib:
			return vcs.Less, nil
		case ia < ib:
			return vcs.Greater, nil
		default:
			return vcs.Equal, nil
		}
	}
	return f.builder.backend.CompareRevisions(ctx, a, c)
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

// Log returns the commit record for rev, materializing it on first use.
func (f *File) Log(ctx context.Context, rev string) (*vcs.Commit, error) {
	f.mu.Lock()
	c, ok := f.logs[rev]
	f.mu.Unlock()
	if ok {
		return c, nil
	}

	c, err := f.builder.Commit(ctx, rev)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if prev, ok := f.logs[rev]; ok {
		return prev, nil
	}
	next := make(map[string]*vcs.Commit, len(f.logs)+1)
	for k, v := range f.logs {
		next[k] = v
	}
	next[rev] = c
	f.logs = next
	return c, nil
}

// Logs returns the commit records of every revision on the branch, newest
// first. It needs the full history.
func (f *File) Logs(ctx context.Context) ([]*vcs.Commit, error) {
	if f.quick {
		return nil, vcs.ErrQuickHistory
	}
	out := make([]*vcs.Commit, 0, len(f.revs))
	for _, rev := range f.revs {
		c, err := f.Log(ctx, rev)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// LastLog returns the newest commit record on the branch.
func (f *File) LastLog(ctx context.Context) (*vcs.Commit, error) {
	if len(f.revs) == 0 {
		return nil, &vcs.NoRevisionsError{Path: f.path, Branch: f.branch}
	}
	return f.Log(ctx, f.revs[0])
}

// HashForRevision returns the blob hash of the file after rev.
func (f *File) HashForRevision(ctx context.Context, rev string) (string, error) {
	c, err := f.Log(ctx, rev)
	if err != nil {
		return "", err
	}
	if _, ok := c.Change(f.path); !ok {
		return "", fmt.Errorf("%s does not change at %s", f.path, rev)
	}
	return c.HashForPath(f.path), nil
}

// BranchRevisions returns, per branch on which the file is reachable, its
// revisions newest first. The file's own branch is always present.
func (f *File) BranchRevisions(ctx context.Context) (map[string][]string, error) {
	f.mu.Lock()
	cached := f.branchRevs
	f.mu.Unlock()
	if cached == nil {
		heads, err := f.builder.backend.BranchHeads(ctx)
		if err != nil {
			return nil, err
		}
		lists := map[string][]string{f.branch: f.revs}
		for _, h := range heads {
			if _, ok := lists[h.Name]; ok {
				continue
			}
			revs, err := f.builder.backend.RevList(ctx, vcs.RevListOptions{Path: f.path, Branch: h.Name})
			if err != nil {
				return nil, err
			}
			if len(revs) > 0 {
				lists[h.Name] = revs
			}
		}
		f.mu.Lock()
		f.branchRevs = lists
		f.mu.Unlock()
		cached = lists
	}

	out := make(map[string][]string, len(cached))
	for k, v := range cached {
		out[k] = append([]string(nil), v...)
	}
	return out, nil
}

// Branches maps each branch the file is reachable on to its head. A
// requested branch that is not a branch name, such as a commit, maps to
// itself.
func (f *File) Branches(ctx context.Context) (map[string]string, error) {
	lists, err := f.BranchRevisions(ctx)
	if err != nil {
		return nil, err
	}
	heads, err := f.builder.backend.BranchHeads(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(lists))
	for _, h := range heads {
		if revs, ok := lists[h.Name]; ok && len(revs) > 0 {
			out[h.Name] = h.Head
		}
	}
	if _, ok := out[f.branch]; !ok {
		named := false
		for _, h := range heads {
			if h.Name == f.branch {
				named = true
				break
			}
		}
		if !named {
			out[f.branch] = f.branch
		}
	}
	return out, nil
}

// BranchesContaining returns the sorted names of branches whose history of
// the file includes rev.
func (f *File) BranchesContaining(ctx context.Context, rev string) ([]string, error) {
	lists, err := f.BranchRevisions(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for name, revs := range lists {
		if indexOf(revs, rev) >= 0 {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Predecessor returns the revision of the file preceding rev in the file's
// own history, or "" when rev introduced it.
func (f *File) Predecessor(ctx context.Context, rev string) (string, error) {
	return f.builder.Predecessor(ctx, f.path, rev)
}
