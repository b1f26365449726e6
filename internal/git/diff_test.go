package git

import (
	"errors"
	"strings"
	"testing"

	"github.com/masmgr/vcsview-go/internal/vcs"
)

func TestParseDiffSpec_ThreeDot(t *testing.T) {
	base, head, err := ParseDiffSpec("origin/main...HEAD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base != "origin/main" {
		t.Errorf("base = %q, want %q", base, "origin/main")
	}
	if head != "HEAD" {
		t.Errorf("head = %q, want %q", head, "HEAD")
	}
}

func TestParseDiffSpec_TwoDot(t *testing.T) {
	base, head, err := ParseDiffSpec("abc123..def456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base != "abc123" {
		t.Errorf("base = %q, want %q", base, "abc123")
	}
	if head != "def456" {
		t.Errorf("head = %q, want %q", head, "def456")
	}
}

func TestParseDiffSpec_EmptyHead(t *testing.T) {
	base, head, err := ParseDiffSpec("origin/main...")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base != "origin/main" {
		t.Errorf("base = %q, want %q", base, "origin/main")
	}
	if head != "HEAD" {
		t.Errorf("head = %q, want %q", head, "HEAD")
	}
}

func TestParseDiffSpec_EmptyBase(t *testing.T) {
	_, _, err := ParseDiffSpec("...HEAD")
	if err == nil {
		t.Fatal("expected error for empty base")
	}
}

func TestParseDiffSpec_NoDots(t *testing.T) {
	_, _, err := ParseDiffSpec("origin/main")
	if err == nil {
		t.Fatal("expected error for missing '..' or '...'")
	}
}

func TestParseDiffSpec_Empty(t *testing.T) {
	_, _, err := ParseDiffSpec("")
	if err == nil {
		t.Fatal("expected error for empty spec")
	}
}

func TestDiffArgs(t *testing.T) {
	tests := []struct {
		name string
		req  vcs.DiffRequest
		want string
	}{
		{
			name: "defaults",
			req:  vcs.DiffRequest{Path: "a.txt", From: revA, To: revB, ContextLines: 3},
			want: "diff -M -C --no-color --unified=3 " + revA + " " + revB + " -- a.txt",
		},
		{
			name: "ignore whitespace",
			req:  vcs.DiffRequest{Path: "a.txt", From: revA, To: revB, ContextLines: 5, IgnoreWhitespace: true},
			want: "diff -M -C --no-color --unified=5 -b -w " + revA + " " + revB + " -- a.txt",
		},
		{
			name: "beginning of history",
			req:  vcs.DiffRequest{Path: "a.txt", To: revB},
			want: "diff -M -C --no-color --unified=0 " + emptyTree + " " + revB + " -- a.txt",
		},
		{
			name: "negative context",
			req:  vcs.DiffRequest{From: revA, To: revB, ContextLines: -2},
			want: "diff -M -C --no-color --unified=0 " + revA + " " + revB + " --",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := diffArgs(tt.req)
			if err != nil {
				t.Fatalf("diffArgs: %v", err)
			}
			if got := strings.Join(args, " "); got != tt.want {
				t.Errorf("args = %q\nwant   %q", got, tt.want)
			}
		})
	}
}

func TestDiffArgs_RejectsOptions(t *testing.T) {
	_, err := diffArgs(vcs.DiffRequest{From: "--output=/tmp/x", To: revB})
	if !errors.Is(err, vcs.ErrUnsafeArgument) {
		t.Fatalf("err = %v, want ErrUnsafeArgument", err)
	}
}
