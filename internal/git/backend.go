// Package git implements the vcs.Backend capability set on top of the git
// command-line tool.
package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/masmgr/vcsview-go/internal/invoke"
	"github.com/masmgr/vcsview-go/internal/revision"
	"github.com/masmgr/vcsview-go/internal/vcs"
)

// emptyTree is the object name of the empty tree. Diffs against it show a
// file's whole content as added.
const emptyTree = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// Options configures a Backend.
type Options struct {
	Root          string
	Binary        string // defaults to "git"
	Timeout       time.Duration
	DefaultBranch string // overrides HEAD's branch when set
	Logger        *slog.Logger
	SkipVersion   bool
}

// Backend reads a local repository through the git CLI.
type Backend struct {
	root          string
	defaultBranch string
	run           *invoke.Runner
	scheme        revision.Hash
	logger        *slog.Logger
}

// Compile-time interface conformance check.
var _ vcs.Backend = (*Backend)(nil)

// NewBackend opens the repository at opts.Root.
func NewBackend(ctx context.Context, opts Options) (*Backend, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("repository root not set")
	}
	if opts.Binary == "" {
		opts.Binary = "git"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, err
	}

	b := &Backend{
		root:          root,
		defaultBranch: opts.DefaultBranch,
		logger:        logger,
		run: &invoke.Runner{
			Binary:      opts.Binary,
			Prefix:      []string{"-C", root, "--no-pager", "-c", "core.quotePath=false"},
			Env:         []string{"LC_ALL=C", "GIT_TERMINAL_PROMPT=0"},
			Timeout:     opts.Timeout,
			FatalMarker: "fatal:",
			Logger:      logger,
		},
	}
	if !opts.SkipVersion {
		if _, err := probeVersion(ctx, b.run); err != nil {
			return nil, err
		}
	}
	if _, err := b.run.Run(ctx, "rev-parse", "--git-dir"); err != nil {
		return nil, fmt.Errorf("open repository %s: %w", root, err)
	}
	return b, nil
}

func (b *Backend) Kind() vcs.Kind { return vcs.KindGit }
func (b *Backend) Root() string { return b.root }

func (b *Backend) ValidRevision(rev string) bool { return b.scheme.Valid(rev) }
func (b *Backend) Abbrev(rev string) string { return b.scheme.Abbrev(rev) }

// checkArg rejects values that git would parse as options.
func checkArg(s string) error {
	if strings.HasPrefix(s, "-") {
		return fmt.Errorf("%w: %q", vcs.ErrUnsafeArgument, s)
	}
	return nil
}

// isExit1 reports a command that failed with status 1 and no message, which
// several plumbing commands use for "nothing found".
func isExit1(err error) bool {
	var inv *vcs.BackendInvocationError
	return errors.As(err, &inv) && inv.ExitCode == 1 && inv.Output == ""
}

// ResolveRevision turns an abbreviated hash, branch or tag into a full commit hash.
func (b *Backend) ResolveRevision(ctx context.Context, rev string) (string, error) {
	if err := checkArg(rev); err != nil {
		return "", err
	}
	lines, err := b.run.Run(ctx, "rev-parse", "--verify", "--quiet", rev+"^{commit}")
	if err != nil {
		if isExit1(err) {
			return "", fmt.Errorf("%w: %s", vcs.ErrInvalidRevision, rev)
		}
		return "", err
	}
	if len(lines) != 1 {
		return "", &vcs.ParseError{Line: strings.Join(lines, "\n"), Reason: "rev-parse returned unexpected output"}
	}
	return strings.TrimSpace(lines[0]), nil
}

// CompareRevisions orders two commits by ancestry. Commits on diverged
// lines of history are unorderable.
func (b *Backend) CompareRevisions(ctx context.Context, a, c string) (vcs.Ordering, error) {
	if a == c {
		return vcs.Equal, nil
	}
	if err := checkArg(a); err != nil {
		return vcs.Equal, err
	}
	if err := checkArg(c); err != nil {
		return vcs.Equal, err
	}
	ok, err := b.run.Probe(ctx, "merge-base", "--is-ancestor", a, c)
	if err != nil {
		return vcs.Equal, err
	}
	if ok {
		return vcs.Less, nil
	}
	ok, err = b.run.Probe(ctx, "merge-base", "--is-ancestor", c, a)
	if err != nil {
		return vcs.Equal, err
	}
	if ok {
		return vcs.Greater, nil
	}
	return vcs.Equal, fmt.Errorf("%w: %s and %s have diverged", vcs.ErrUnorderable, b.Abbrev(a), b.Abbrev(c))
}

// RevList lists commits touching opts.Path, newest first.
func (b *Backend) RevList(ctx context.Context, opts vcs.RevListOptions) ([]string, error) {
	args := []string{"rev-list"}
	if opts.Limit > 0 {
		args = append(args, fmt.Sprintf("--max-count=%d", opts.Limit))
	}
	if opts.Topo {
		args = append(args, "--topo-order")
	}
	if opts.Branch == "" {
		args = append(args, "--branches")
	} else {
		if err := checkArg(opts.Branch); err != nil {
			return nil, err
		}
		args = append(args, opts.Branch)
	}
	if opts.Exclude != "" {
		if err := checkArg(opts.Exclude); err != nil {
			return nil, err
		}
		args = append(args, "^"+opts.Exclude)
	}
	args = append(args, "--")
	if opts.Path != "" {
		args = append(args, opts.Path)
	}

	lines, err := b.run.Run(ctx, args...)
	if err != nil {
		return nil, err
	}
	revs := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if !b.scheme.Valid(l) {
			return nil, &vcs.ParseError{Line: l, Reason: "rev-list returned a non-hash line"}
		}
		revs = append(revs, l)
	}
	return revs, nil
}

// ReadLog parses the commit record for rev.
func (b *Backend) ReadLog(ctx context.Context, rev string) (*vcs.Commit, error) {
	if err := checkArg(rev); err != nil {
		return nil, err
	}
	stream, err := b.run.Start(ctx, logArgs(rev)...)
	if err != nil {
		return nil, err
	}
	defer stream.Close()
	return ParseLog(stream, rev)
}

// Blame streams per-line attribution of path at rev.
func (b *Backend) Blame(ctx context.Context, path, rev string, fn func(vcs.BlameLine) error) error {
	if err := checkArg(rev); err != nil {
		return err
	}
	stream, err := b.run.Start(ctx, "blame", "-p", rev, "--", path)
	if err != nil {
		return err
	}
	defer stream.Close()
	return ParseBlame(stream, fn)
}

// Checkout writes the content of path at rev to w.
func (b *Backend) Checkout(ctx context.Context, w io.Writer, path, rev string) error {
	rev, err := b.orDefault(ctx, rev)
	if err != nil {
		return err
	}
	return b.run.RunTo(ctx, w, "cat-file", "blob", rev+":"+path)
}
