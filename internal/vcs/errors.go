package vcs

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrQuickHistory is returned when a full history is required but the
	// file was opened in quick mode.
	ErrQuickHistory = errors.New("operation requires full history")
	// ErrUnorderable is returned when two revisions have no defined order.
	ErrUnorderable = errors.New("revisions are not orderable")
	// ErrUnsupportedKind is returned for backend kinds without an implementation.
	ErrUnsupportedKind = errors.New("unsupported backend kind")
	// ErrInvalidRevision is returned for syntactically invalid revisions.
	ErrInvalidRevision = errors.New("invalid revision")
	// ErrUnsafeArgument is returned when a user value would be read as a flag.
	ErrUnsafeArgument = errors.New("argument must not start with '-'")
)

// BackendInvocationError reports a backend command that exited non-zero or
// printed the fatal marker. Output holds the raw error text.
type BackendInvocationError struct {
	Command  string
	Args     []string
	ExitCode int
	Output   string
}

func (e *BackendInvocationError) Error() string {
	return fmt.Sprintf("%s %s: exit %d: %s", e.Command, strings.Join(e.Args, " "), e.ExitCode, strings.TrimSpace(e.Output))
}

// BackendTimeoutError reports a backend command killed by the external timeout.
type BackendTimeoutError struct {
	Command string
	Args    []string
	Timeout time.Duration
}

func (e *BackendTimeoutError) Error() string {
	return fmt.Sprintf("%s %s: timed out after %s", e.Command, strings.Join(e.Args, " "), e.Timeout)
}

// ParseError reports backend output that does not match the expected grammar.
type ParseError struct {
	Line   string
	LineNo int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %s: %q", e.LineNo, e.Reason, e.Line)
}

// RevisionMismatchError reports a log record for a different revision than requested.
type RevisionMismatchError struct {
	Requested string
	Got       string
}

func (e *RevisionMismatchError) Error() string {
	return fmt.Sprintf("requested revision %s but backend returned %s", e.Requested, e.Got)
}

// NoSuchFileError reports a path that does not exist in the repository.
type NoSuchFileError struct {
	Path string
}

func (e *NoSuchFileError) Error() string {
	return fmt.Sprintf("no such file: %s", e.Path)
}

// NoHistoryError reports a path that exists but has no reachable revisions.
type NoHistoryError struct {
	Path   string
	Branch string
}

func (e *NoHistoryError) Error() string {
	if e.Branch != "" {
		return fmt.Sprintf("no revisions found for %s on %s", e.Path, e.Branch)
	}
	return fmt.Sprintf("no revisions found for %s", e.Path)
}

// NoRevisionsError reports a branch with an empty revision list for a file.
type NoRevisionsError struct {
	Path   string
	Branch string
}

func (e *NoRevisionsError) Error() string {
	return fmt.Sprintf("no revisions of %s on branch %s", e.Path, e.Branch)
}
