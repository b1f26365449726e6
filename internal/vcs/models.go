package vcs

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing/filemode"
)

// Kind tags the backend variant a repository is served by.
type Kind string

const (
	KindGit Kind = "git"
	KindCVS Kind = "cvs"
)

// ParseKind maps a config value onto a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "git":
		return KindGit, nil
	case "cvs":
		return KindCVS, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, s)
	}
}

// ChangeStatus classifies a single path change within a commit.
type ChangeStatus int

const (
	StatusModified ChangeStatus = iota
	StatusAdded
	StatusDeleted
	StatusRenamed
	StatusCopied
)

// String returns a string representation of the change status.
func (s ChangeStatus) String() string {
	switch s {
	case StatusAdded:
		return "added"
	case StatusModified:
		return "modified"
	case StatusDeleted:
		return "deleted"
	case StatusRenamed:
		return "renamed"
	case StatusCopied:
		return "copied"
	default:
		return "unknown"
	}
}

// Letter returns the single-letter status code used by diff-tree output.
func (s ChangeStatus) Letter() string {
	switch s {
	case StatusAdded:
		return "A"
	case StatusDeleted:
		return "D"
	case StatusRenamed:
		return "R"
	case StatusCopied:
		return "C"
	default:
		return "M"
	}
}

// FileChange describes how one path changed in a commit.
type FileChange struct {
	Path         string
	PreviousPath string // For renames and copies
	SrcMode      filemode.FileMode
	DstMode      filemode.FileMode
	SrcHash      string
	DstHash      string
	Status       ChangeStatus
}

// Commit is one revision's metadata and file changes.
// Values handed out by this module are never mutated after construction;
// use Clone before changing anything.
type Commit struct {
	Revision    string
	Author      string
	AuthorEmail string
	Date        time.Time // UTC
	Message     string
	Tags        []string     // sorted
	Changes     []FileChange // sorted by Path
}

// Change returns the change recorded for path, if any.
func (c *Commit) Change(path string) (FileChange, bool) {
	i := sort.Search(len(c.Changes), func(i int) bool { return c.Changes[i].Path >= path })
	if i < len(c.Changes) && c.Changes[i].Path == path {
		return c.Changes[i], true
	}
	return FileChange{}, false
}

// HashForPath returns the blob hash path has after this commit.
func (c *Commit) HashForPath(path string) string {
	fc, ok := c.Change(path)
	if !ok {
		return ""
	}
	return fc.DstHash
}

// Paths returns the changed paths in order.
func (c *Commit) Paths() []string {
	out := make([]string, len(c.Changes))
	for i, fc := range c.Changes {
		out[i] = fc.Path
	}
	return out
}

// Subject returns the first line of the message.
func (c *Commit) Subject() string {
	subject, _, _ := strings.Cut(c.Message, "\n")
	return subject
}

// Clone returns a deep copy.
func (c *Commit) Clone() *Commit {
	if c == nil {
		return nil
	}
	out := *c
	out.Tags = append([]string(nil), c.Tags...)
	out.Changes = append([]FileChange(nil), c.Changes...)
	return &out
}

// SortChanges orders Changes by path.
func SortChanges(changes []FileChange) {
	sort.SliceStable(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
}

// Branch binds a branch name to its head revision.
type Branch struct {
	Name string
	Head string
}

// TreeEntry is one immediate child of a directory at a revision.
type TreeEntry struct {
	Name string
	Path string
	Mode filemode.FileMode
	Hash string
	Dir  bool
}

// BlameLine attributes one line of a file to the revision that last changed it.
type BlameLine struct {
	LineNo     int
	Text       string
	Revision   string
	Author     string
	AuthorMail string
	Time       time.Time
	Boundary   bool
}
