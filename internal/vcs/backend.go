package vcs

import (
	"context"
	"io"
)

// Ordering is the result of comparing two revisions.
type Ordering int

const (
	Less    Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
)

// String returns "less", "equal" or "greater".
func (o Ordering) String() string {
	switch {
	case o < 0:
		return "less"
	case o > 0:
		return "greater"
	default:
		return "equal"
	}
}

// RevListOptions scopes a revision listing.
type RevListOptions struct {
	Path    string
	Branch  string // commit-ish to start from; empty means every branch head
	Limit   int    // 0 means unlimited
	Exclude string // revisions reachable from Exclude are omitted
	Topo    bool   // never list a parent before any of its children
}

// DiffRequest selects two revisions of a path to diff.
type DiffRequest struct {
	Path             string
	From             string
	To               string
	ContextLines     int
	IgnoreWhitespace bool
}

// Backend is the capability set one VCS kind provides.
// Revision lists are newest first.
type Backend interface {
	Kind() Kind
	Root() string

	// Revision syntax
	ValidRevision(rev string) bool
	Abbrev(rev string) string
	CompareRevisions(ctx context.Context, a, b string) (Ordering, error)
	ResolveRevision(ctx context.Context, rev string) (string, error)

	// History
	RevList(ctx context.Context, opts RevListOptions) ([]string, error)
	FileExists(ctx context.Context, path, rev string) (bool, error)
	ReadLog(ctx context.Context, rev string) (*Commit, error)

	// Trees and refs
	ListTree(ctx context.Context, dir, rev string) ([]TreeEntry, error)
	ListDeleted(ctx context.Context, dir, rev string) ([]string, error)
	BranchHeads(ctx context.Context) ([]Branch, error)
	DefaultBranch(ctx context.Context) (string, error)

	// Content
	Diff(ctx context.Context, req DiffRequest) (string, error)
	Blame(ctx context.Context, path, rev string, fn func(BlameLine) error) error
	Checkout(ctx context.Context, w io.Writer, path, rev string) error
}
