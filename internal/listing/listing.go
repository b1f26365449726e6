// Package listing enumerates the immediate contents of a directory at a
// branch or revision and sorts them.
package listing

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/masmgr/vcsview-go/internal/history"
	"github.com/masmgr/vcsview-go/internal/vcs"
)

// SortKey selects the file ordering of a listing.
type SortKey int

const (
	SortNone SortKey = iota
	SortName
	SortAge
	SortAuthor
	SortRevision
)

// ParseSortKey maps a config or flag value onto a SortKey.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return SortNone, nil
	case "name":
		return SortName, nil
	case "age", "date":
		return SortAge, nil
	case "author":
		return SortAuthor, nil
	case "revision", "rev":
		return SortRevision, nil
	default:
		return SortNone, fmt.Errorf("unknown sort key: %q", s)
	}
}

// Direction is ascending or descending.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// ParseDirection maps a config or flag value onto a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("unknown sort direction: %q", s)
	}
}

// Filter selects file paths by doublestar globs.
type Filter struct {
	Include []string
	Exclude []string
}

// Match reports whether p passes the filter. Exclusions win; an empty
// include list accepts everything.
func (f Filter) Match(p string) bool {
	p = strings.ReplaceAll(p, "\\", "/")

	for _, pattern := range f.Exclude {
		if matched, _ := doublestar.Match(pattern, p); matched {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, pattern := range f.Include {
		if matched, _ := doublestar.Match(pattern, p); matched {
			return true
		}
	}
	return false
}

// Entry is a file in a listing. Its history is opened on first use.
type Entry struct {
	Name    string
	Path    string
	Hash    string // blob hash at the listed revision; empty for deleted files
	Deleted bool

	open func(ctx context.Context) (*history.File, error)
	mu   sync.Mutex
	file *history.File
}

// File returns the entry's history, opening it on first call.
func (e *Entry) File(ctx context.Context) (*history.File, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.file != nil {
		return e.file, nil
	}
	f, err := e.open(ctx)
	if err != nil {
		return nil, err
	}
	e.file = f
	return f, nil
}

// LastLog returns the newest commit of the entry on the listed branch.
func (e *Entry) LastLog(ctx context.Context) (*vcs.Commit, error) {
	f, err := e.File(ctx)
	if err != nil {
		return nil, err
	}
	return f.LastLog(ctx)
}

// Listing is the immediate contents of one directory.
type Listing struct {
	Path   string
	Branch string
	Dirs   []string
	Files  []*Entry

	backend vcs.Backend
}

// Options controls Browse.
type Options struct {
	Branch         string // empty means the default branch
	IncludeDeleted bool
	Filter         Filter
	// FullHistory opens file histories in full instead of quick mode.
	FullHistory bool
}

// Lister browses directories of one repository.
type Lister struct {
	builder *history.Builder
	logger  *slog.Logger
}

// New creates a Lister whose file entries open through builder.
func New(builder *history.Builder, logger *slog.Logger) *Lister {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lister{builder: builder, logger: logger}
}

// Browse lists the immediate children of dir. File histories are not
// touched until an entry's File or LastLog is called.
func (l *Lister) Browse(ctx context.Context, dir string, opts Options) (*Listing, error) {
	backend := l.builder.Backend()
	branch := opts.Branch
	if branch == "" {
		var err error
		if branch, err = backend.DefaultBranch(ctx); err != nil {
			return nil, err
		}
	}
	dir = strings.Trim(dir, "/")

	entries, err := backend.ListTree(ctx, dir, branch)
	if err != nil {
		return nil, err
	}
	out := &Listing{Path: dir, Branch: branch, backend: backend}
	for _, te := range entries {
		if te.Dir {
			out.Dirs = append(out.Dirs, te.Name)
			continue
		}
		if !opts.Filter.Match(te.Path) {
			continue
		}
		out.Files = append(out.Files, l.entry(te.Name, te.Path, te.Hash, false, branch, opts))
	}

	if opts.IncludeDeleted {
		deleted, err := backend.ListDeleted(ctx, dir, branch)
		if err != nil {
			return nil, err
		}
		for _, p := range deleted {
			if !opts.Filter.Match(p) {
				continue
			}
			out.Files = append(out.Files, l.entry(path.Base(p), p, "", true, branch, opts))
		}
	}
	l.logger.Debug("browsed directory", "dir", dir, "branch", branch, "dirs", len(out.Dirs), "files", len(out.Files))
	return out, nil
}

func (l *Lister) entry(name, p, hash string, deleted bool, branch string, opts Options) *Entry {
	fo := history.FileOptions{Branch: branch, Quick: !opts.FullHistory}
	return &Entry{
		Name:    name,
		Path:    p,
		Hash:    hash,
		Deleted: deleted,
		open: func(ctx context.Context) (*history.File, error) {
			return l.builder.Open(ctx, p, fo)
		},
	}
}

// Sort orders the listing. Directories are always ordered by name,
// ignoring case and direction. Files are ordered by key, then reversed
// when dir is Descending.
func (l *Listing) Sort(ctx context.Context, key SortKey, dir Direction) error {
	sort.SliceStable(l.Dirs, func(i, j int) bool { return lessFold(l.Dirs[i], l.Dirs[j]) })

	if err := l.sortFiles(ctx, key); err != nil {
		return err
	}
	if dir == Descending {
		for i, j := 0, len(l.Files)-1; i < j; i, j = i+1, j-1 {
			l.Files[i], l.Files[j] = l.Files[j], l.Files[i]
		}
	}
	return nil
}

// revisionRanks numbers every commit on the listing's branch so that an
// ancestor always ranks below its descendants. One rev-list replaces a
// pairwise ancestry check per comparison.
func (l *Listing) revisionRanks(ctx context.Context) (map[string]int, error) {
	revs, err := l.backend.RevList(ctx, vcs.RevListOptions{Branch: l.Branch, Topo: true})
	if err != nil {
		return nil, fmt.Errorf("sort by revision: %w", err)
	}
	rank := make(map[string]int, len(revs))
	for i, r := range revs {
		rank[r] = len(revs) - i
	}
	return rank, nil
}

func lessFold(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

func (l *Listing) sortFiles(ctx context.Context, key SortKey) error {
	switch key {
	case SortNone:
		return nil
	case SortName:
		sort.SliceStable(l.Files, func(i, j int) bool { return lessFold(l.Files[i].Name, l.Files[j].Name) })
		return nil
	}

	logs := make([]*vcs.Commit, len(l.Files))
	for i, e := range l.Files {
		c, err := e.LastLog(ctx)
		if err != nil {
			return fmt.Errorf("sort %s: %w", e.Path, err)
		}
		logs[i] = c
	}
	idx := make([]int, len(l.Files))
	for i := range idx {
		idx[i] = i
	}

	var less func(a, b int) bool
	switch key {
	case SortAge:
		// Newest first.
		less = func(a, b int) bool { return logs[a].Date.After(logs[b].Date) }
	case SortAuthor:
		less = func(a, b int) bool { return logs[a].Author < logs[b].Author }
	case SortRevision:
		rank, err := l.revisionRanks(ctx)
		if err != nil {
			return err
		}
		// Oldest first. Revisions off the branch rank 0; ties go by date.
		less = func(a, b int) bool {
			ra, rb := rank[logs[a].Revision], rank[logs[b].Revision]
			if ra != rb {
				return ra < rb
			}
			return logs[a].Date.Before(logs[b].Date)
		}
	default:
		return fmt.Errorf("unknown sort key %d", key)
	}

	sort.SliceStable(idx, func(i, j int) bool { return less(idx[i], idx[j]) })
	files := make([]*Entry, len(idx))
	for i, k := range idx {
		files[i] = l.Files[k]
	}
	l.Files = files
	return nil
}
