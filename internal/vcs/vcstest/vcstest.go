// Package vcstest provides an in-memory vcs.Backend for tests.
//
// Revisions are dotted numbers: the main line counts 1.1, 1.2, ... and a
// branch forked at 1.2 counts 1.2.2.1, 1.2.2.2, ... so the Dotted scheme
// orders them.
package vcstest

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5/plumbing/filemode"

	"github.com/masmgr/vcsview-go/internal/revision"
	"github.com/masmgr/vcsview-go/internal/vcs"
)

// MainBranch is the name of the branch New creates.
const MainBranch = "main"

// Change is one file operation of a commit built with Commit.
type Change struct {
	Path    string
	From    string // previous path for renames and copies
	Status  vcs.ChangeStatus
	Content string // file content after the change; ignored for deletes
}

// Add is shorthand for an added file.
func Add(p, content string) Change {
	return Change{Path: p, Status: vcs.StatusAdded, Content: content}
}

// Modify is shorthand for a modified file.
func Modify(p, content string) Change {
	return Change{Path: p, Status: vcs.StatusModified, Content: content}
}

// Delete is shorthand for a deleted file.
func Delete(p string) Change {
	return Change{Path: p, Status: vcs.StatusDeleted}
}

// Rename is shorthand for a renamed file.
func Rename(from, to, content string) Change {
	return Change{Path: to, From: from, Status: vcs.StatusRenamed, Content: content}
}

type commitNode struct {
	commit *vcs.Commit
	parent string
	seq    int
	files  map[string]string // tree after this commit: path -> content
	hashes map[string]string // path -> blob hash
}

type branchInfo struct {
	head   string
	prefix string // revision prefix, e.g. "1" or "1.2.2"
	next   int
}

// Backend is a linear-per-branch in-memory history. All methods are safe
// for concurrent use.
type Backend struct {
	// Hooks replace the built-in behavior when set.
	ReadLogFunc func(ctx context.Context, rev string) (*vcs.Commit, error)
	RevListFunc func(ctx context.Context, opts vcs.RevListOptions) ([]string, error)

	mu       sync.Mutex
	root     string
	kind     vcs.Kind
	scheme   revision.Dotted
	start    time.Time
	seq      int
	commits  map[string]*commitNode
	branches map[string]*branchInfo
	forks    map[string]int // fork point -> branches forked there
	readLogs map[string]int
	diffs    []vcs.DiffRequest
}

// Compile-time interface conformance check.
var _ vcs.Backend = (*Backend)(nil)

// New creates an empty repository with a MainBranch and no commits.
func New() *Backend {
	return &Backend{
		root:     "/repo",
		kind:     vcs.KindCVS,
		start:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		commits:  make(map[string]*commitNode),
		branches: map[string]*branchInfo{MainBranch: {prefix: "1", next: 1}},
		forks:    make(map[string]int),
		readLogs: make(map[string]int),
	}
}

// Commit appends a commit to branch and returns its revision. Commits are
// one hour apart, starting 2024-01-01 UTC.
func (b *Backend) Commit(branch, author, message string, changes ...Change) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	br, ok := b.branches[branch]
	if !ok {
		panic(fmt.Sprintf("vcstest: unknown branch %q", branch))
	}
	rev := fmt.Sprintf("%s.%d", br.prefix, br.next)
	br.next++
	b.seq++

	files := make(map[string]string)
	hashes := make(map[string]string)
	if parent, ok := b.commits[br.head]; ok {
		for k, v := range parent.files {
			files[k] = v
		}
		for k, v := range parent.hashes {
			hashes[k] = v
		}
	}

	c := &vcs.Commit{
		Revision:    rev,
		Author:      author,
		AuthorEmail: strings.ToLower(strings.ReplaceAll(author, " ", ".")) + "@example.com",
		Date:        b.start.Add(time.Duration(b.seq) * time.Hour),
		Message:     message,
	}
	for i, ch := range changes {
		fc := vcs.FileChange{Path: ch.Path, PreviousPath: ch.From, Status: ch.Status, SrcMode: filemode.Regular, DstMode: filemode.Regular}
		blob := fmt.Sprintf("%08x%04x", b.seq, i)
		switch ch.Status {
		case vcs.StatusAdded:
			fc.SrcMode = filemode.Empty
			fc.DstHash = blob
		case vcs.StatusDeleted:
			fc.DstMode = filemode.Empty
			fc.SrcHash = hashes[ch.Path]
		case vcs.StatusRenamed, vcs.StatusCopied:
			fc.SrcHash = hashes[ch.From]
			fc.DstHash = blob
		default:
			fc.SrcHash = hashes[ch.Path]
			fc.DstHash = blob
		}
		c.Changes = append(c.Changes, fc)

		if ch.Status == vcs.StatusRenamed {
			delete(files, ch.From)
			delete(hashes, ch.From)
		}
		if ch.Status == vcs.StatusDeleted {
			delete(files, ch.Path)
			delete(hashes, ch.Path)
			continue
		}
		files[ch.Path] = ch.Content
		hashes[ch.Path] = blob
	}
	vcs.SortChanges(c.Changes)

	b.commits[rev] = &commitNode{commit: c, parent: br.head, seq: b.seq, files: files, hashes: hashes}
	br.head = rev
	return rev
}

// SetKind changes the backend kind reported by Kind. Revisions keep their
// dotted form.
func (b *Backend) SetKind(k vcs.Kind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.kind = k
}

// Branch creates a branch forked at rev.
func (b *Backend) Branch(name, rev string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.commits[rev]; !ok {
		panic(fmt.Sprintf("vcstest: unknown revision %q", rev))
	}
	b.forks[rev]++
	b.branches[name] = &branchInfo{
		head:   rev,
		prefix: fmt.Sprintf("%s.%d", rev, 2*b.forks[rev]),
		next:   1,
	}
}

// Tag attaches a tag to rev.
func (b *Backend) Tag(rev, tag string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.commits[rev]
	n.commit.Tags = append(n.commit.Tags, tag)
	sort.Strings(n.commit.Tags)
}

// ReadLogCalls returns how many times ReadLog was asked for rev, or for
// any revision when rev is empty.
func (b *Backend) ReadLogCalls(rev string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if rev != "" {
		return b.readLogs[rev]
	}
	total := 0
	for _, n := range b.readLogs {
		total += n
	}
	return total
}

// Diffs returns the diff requests received so far.
func (b *Backend) Diffs() []vcs.DiffRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]vcs.DiffRequest(nil), b.diffs...)
}

func (b *Backend) Kind() vcs.Kind {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.kind
}

func (b *Backend) Root() string { return b.root }

func (b *Backend) ValidRevision(rev string) bool { return b.scheme.Valid(rev) }
func (b *Backend) Abbrev(rev string) string { return b.scheme.Abbrev(rev) }

func (b *Backend) CompareRevisions(_ context.Context, x, y string) (vcs.Ordering, error) {
	return b.scheme.Compare(x, y)
}

func (b *Backend) ResolveRevision(_ context.Context, rev string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.resolve(rev)
}

// resolve maps a branch name or revision to a revision. Callers hold mu.
func (b *Backend) resolve(rev string) (string, error) {
	if rev == "" {
		rev = MainBranch
	}
	if br, ok := b.branches[rev]; ok {
		if br.head == "" {
			return "", fmt.Errorf("%w: branch %s has no commits", vcs.ErrInvalidRevision, rev)
		}
		return br.head, nil
	}
	if _, ok := b.commits[rev]; ok {
		return rev, nil
	}
	return "", fmt.Errorf("%w: %s", vcs.ErrInvalidRevision, rev)
}

// ancestry returns rev and all its ancestors. Callers hold mu.
func (b *Backend) ancestry(rev string) map[string]bool {
	out := make(map[string]bool)
	for rev != "" {
		out[rev] = true
		rev = b.commits[rev].parent
	}
	return out
}

func touches(c *vcs.Commit, p string) bool {
	if p == "" {
		return true
	}
	for _, fc := range c.Changes {
		if fc.Path == p || fc.PreviousPath == p {
			return true
		}
	}
	return false
}

func (b *Backend) RevList(ctx context.Context, opts vcs.RevListOptions) ([]string, error) {
	if b.RevListFunc != nil {
		return b.RevListFunc(ctx, opts)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	var starts []string
	if opts.Branch == "" {
		for _, br := range b.branches {
			if br.head != "" {
				starts = append(starts, br.head)
			}
		}
	} else {
		rev, err := b.resolve(opts.Branch)
		if err != nil {
			return nil, &vcs.BackendInvocationError{Command: "rev-list", ExitCode: 128, Output: err.Error()}
		}
		starts = []string{rev}
	}

	reach := make(map[string]bool)
	for _, s := range starts {
		for r := range b.ancestry(s) {
			reach[r] = true
		}
	}
	if opts.Exclude != "" {
		ex, err := b.resolve(opts.Exclude)
		if err != nil {
			return nil, &vcs.BackendInvocationError{Command: "rev-list", ExitCode: 128, Output: err.Error()}
		}
		for r := range b.ancestry(ex) {
			delete(reach, r)
		}
	}

	var nodes []*commitNode
	for r := range reach {
		if n := b.commits[r]; touches(n.commit, opts.Path) {
			nodes = append(nodes, n)
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].seq > nodes[j].seq })
	if opts.Limit > 0 && len(nodes) > opts.Limit {
		nodes = nodes[:opts.Limit]
	}
	revs := make([]string, len(nodes))
	for i, n := range nodes {
		revs[i] = n.commit.Revision
	}
	return revs, nil
}

func (b *Backend) FileExists(_ context.Context, p, rev string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, err := b.resolve(rev)
	if err != nil {
		return false, nil
	}
	_, ok := b.commits[r].files[p]
	return ok, nil
}

func (b *Backend) ReadLog(ctx context.Context, rev string) (*vcs.Commit, error) {
	b.mu.Lock()
	b.readLogs[rev]++
	n, ok := b.commits[rev]
	b.mu.Unlock()

	if b.ReadLogFunc != nil {
		return b.ReadLogFunc(ctx, rev)
	}
	if !ok {
		return nil, &vcs.BackendInvocationError{Command: "log", Args: []string{rev}, ExitCode: 128, Output: "fatal: bad revision " + rev}
	}
	return n.commit.Clone(), nil
}

func (b *Backend) ListTree(_ context.Context, dir, rev string) ([]vcs.TreeEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, err := b.resolve(rev)
	if err != nil {
		return nil, &vcs.BackendInvocationError{Command: "ls-tree", ExitCode: 128, Output: err.Error()}
	}
	n := b.commits[r]
	dir = strings.Trim(dir, "/")

	seen := make(map[string]bool)
	var out []vcs.TreeEntry
	for p := range n.files {
		name, sub, ok := child(dir, p)
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		e := vcs.TreeEntry{Name: name, Path: path.Join(dir, name)}
		if sub {
			e.Dir = true
			e.Mode = filemode.Dir
		} else {
			e.Mode = filemode.Regular
			e.Hash = n.hashes[p]
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// child returns the name of the immediate child of dir that p lives under,
// and whether that child is a directory.
func child(dir, p string) (name string, isDir, ok bool) {
	rest := p
	if dir != "" {
		if !strings.HasPrefix(p, dir+"/") {
			return "", false, false
		}
		rest = p[len(dir)+1:]
	}
	name, _, isDir = strings.Cut(rest, "/")
	return name, isDir, true
}

func (b *Backend) ListDeleted(_ context.Context, dir, rev string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, err := b.resolve(rev)
	if err != nil {
		return nil, &vcs.BackendInvocationError{Command: "log", ExitCode: 128, Output: err.Error()}
	}
	head := b.commits[r]
	dir = strings.Trim(dir, "/")

	seen := make(map[string]bool)
	for a := range b.ancestry(r) {
		for _, fc := range b.commits[a].commit.Changes {
			if fc.Status != vcs.StatusDeleted {
				continue
			}
			if _, sub, ok := child(dir, fc.Path); ok && !sub {
				if _, live := head.files[fc.Path]; !live {
					seen[fc.Path] = true
				}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

func (b *Backend) BranchHeads(context.Context) ([]vcs.Branch, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []vcs.Branch
	for name, br := range b.branches {
		if br.head != "" {
			out = append(out, vcs.Branch{Name: name, Head: br.head})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (b *Backend) DefaultBranch(context.Context) (string, error) {
	return MainBranch, nil
}

// Diff records req and returns a one-line summary of it.
func (b *Backend) Diff(_ context.Context, req vcs.DiffRequest) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.diffs = append(b.diffs, req)
	return fmt.Sprintf("diff %s %s..%s -U%d\n", req.Path, req.From, req.To, req.ContextLines), nil
}

// Blame attributes every line to the last revision that touched path.
func (b *Backend) Blame(_ context.Context, p, rev string, fn func(vcs.BlameLine) error) error {
	b.mu.Lock()
	r, err := b.resolve(rev)
	if err != nil {
		b.mu.Unlock()
		return &vcs.BackendInvocationError{Command: "blame", ExitCode: 128, Output: err.Error()}
	}
	content, ok := b.commits[r].files[p]
	last := r
	for last != "" && !touches(b.commits[last].commit, p) {
		last = b.commits[last].parent
	}
	var c *vcs.Commit
	if last != "" {
		c = b.commits[last].commit
	}
	b.mu.Unlock()

	if !ok || c == nil {
		return &vcs.BackendInvocationError{Command: "blame", ExitCode: 128, Output: "fatal: no such path " + p}
	}
	for i, line := range strings.SplitAfter(content, "\n") {
		if line == "" {
			continue
		}
		err := fn(vcs.BlameLine{
			LineNo:     i + 1,
			Text:       strings.TrimSuffix(line, "\n"),
			Revision:   c.Revision,
			Author:     c.Author,
			AuthorMail: c.AuthorEmail,
			Time:       c.Date,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *Backend) Checkout(_ context.Context, w io.Writer, p, rev string) error {
	b.mu.Lock()
	r, err := b.resolve(rev)
	var content string
	var ok bool
	if err == nil {
		content, ok = b.commits[r].files[p]
	}
	b.mu.Unlock()
	if !ok {
		return &vcs.BackendInvocationError{Command: "cat-file", ExitCode: 128, Output: fmt.Sprintf("fatal: path %s does not exist in %s", p, rev)}
	}
	_, err = io.WriteString(w, content)
	return err
}
