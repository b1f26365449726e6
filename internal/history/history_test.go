package history

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/masmgr/vcsview-go/internal/cache"
	"github.com/masmgr/vcsview-go/internal/vcs"
	"github.com/masmgr/vcsview-go/internal/vcs/vcstest"
)

type fixture struct {
	backend        *vcstest.Backend
	r1, r2, r3, r4 string
}

// newFixture builds:
//
//	main:    r1 (add a.txt, b.txt) - r2 (modify a.txt) - r4 (modify b.txt)
//	feature:                          \- r3 (modify a.txt, add feat.txt)
func newFixture() *fixture {
	b := vcstest.New()
	f := &fixture{backend: b}
	f.r1 = b.Commit(vcstest.MainBranch, "Alice", "initial", vcstest.Add("a.txt", "one\n"), vcstest.Add("b.txt", "b\n"))
	f.r2 = b.Commit(vcstest.MainBranch, "Bob", "second line", vcstest.Modify("a.txt", "one\ntwo\n"))
	b.Branch("feature", f.r2)
	f.r3 = b.Commit("feature", "Carol", "feature work", vcstest.Modify("a.txt", "one\ntwo\nthree\n"), vcstest.Add("feat.txt", "f\n"))
	f.r4 = b.Commit(vcstest.MainBranch, "Alice", "touch b", vcstest.Modify("b.txt", "b2\n"))
	return f
}

func join(s []string) string { return strings.Join(s, ",") }

func TestOpen_FullHistory(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	file, err := NewBuilder(f.backend, Options{}).Open(ctx, "a.txt", FileOptions{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if file.Branch() != vcstest.MainBranch {
		t.Errorf("Branch = %q, want default branch", file.Branch())
	}
	if got, want := join(file.Revisions()), join([]string{f.r2, f.r1}); got != want {
		t.Errorf("Revisions = %s, want %s", got, want)
	}
	if got, want := join(file.AllRevisions()), join([]string{f.r3, f.r2, f.r1}); got != want {
		t.Errorf("AllRevisions = %s, want %s", got, want)
	}
	if file.Revision() != f.r2 {
		t.Errorf("Revision = %s, want %s", file.Revision(), f.r2)
	}
	if file.Name() != "a.txt" || file.Dir() != "" {
		t.Errorf("Name/Dir = %q/%q", file.Name(), file.Dir())
	}

	logs, err := file.Logs(ctx)
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	if len(logs) != 2 || logs[0].Revision != f.r2 || logs[1].Author != "Alice" {
		t.Fatalf("Logs = %+v", logs)
	}

	last, err := file.LastLog(ctx)
	if err != nil || last.Revision != f.r2 {
		t.Fatalf("LastLog = %+v, %v", last, err)
	}
	// Materialized once, then served from the file handle.
	if n := f.backend.ReadLogCalls(f.r2); n != 1 {
		t.Errorf("ReadLog(%s) calls = %d, want 1", f.r2, n)
	}

	hash, err := file.HashForRevision(ctx, f.r1)
	if err != nil || hash == "" {
		t.Errorf("HashForRevision = %q, %v", hash, err)
	}
}

func TestOpen_Quick(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	file, err := NewBuilder(f.backend, Options{}).Open(ctx, "a.txt", FileOptions{Branch: "feature", Quick: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := join(file.Revisions()); got != f.r3 {
		t.Errorf("Revisions = %s, want %s", got, f.r3)
	}
	if _, err := file.Logs(ctx); !errors.Is(err, vcs.ErrQuickHistory) {
		t.Errorf("Logs err = %v, want ErrQuickHistory", err)
	}
	last, err := file.LastLog(ctx)
	if err != nil || last.Author != "Carol" {
		t.Errorf("LastLog = %+v, %v", last, err)
	}
}

func TestOpen_MissingVersusNoHistory(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := NewBuilder(f.backend, Options{})

	_, err := b.Open(ctx, "nope.txt", FileOptions{})
	var nsf *vcs.NoSuchFileError
	if !errors.As(err, &nsf) || nsf.Path != "nope.txt" {
		t.Fatalf("Open(missing) err = %v, want NoSuchFileError", err)
	}

	// A present file whose revision listing comes back empty.
	f.backend.RevListFunc = func(context.Context, vcs.RevListOptions) ([]string, error) { return nil, nil }
	_, err = b.Open(ctx, "a.txt", FileOptions{})
	var nh *vcs.NoHistoryError
	if !errors.As(err, &nh) || nh.Path != "a.txt" || nh.Branch != vcstest.MainBranch {
		t.Fatalf("Open(no history) err = %v, want NoHistoryError", err)
	}
	if errors.As(err, &nsf) {
		t.Fatal("NoHistoryError must not match NoSuchFileError")
	}

	_, err = b.Open(ctx, "a.txt", FileOptions{Quick: true})
	if !errors.As(err, &nh) {
		t.Fatalf("Open(quick, no history) err = %v, want NoHistoryError", err)
	}
}

func TestLastLog_NoRevisionsOnBranch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	file, err := NewBuilder(f.backend, Options{}).Open(ctx, "feat.txt", FileOptions{Branch: vcstest.MainBranch})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_, err = file.LastLog(ctx)
	var nr *vcs.NoRevisionsError
	if !errors.As(err, &nr) || nr.Branch != vcstest.MainBranch {
		t.Fatalf("LastLog err = %v, want NoRevisionsError", err)
	}
}

func TestBranches(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := NewBuilder(f.backend, Options{})

	file, err := b.Open(ctx, "a.txt", FileOptions{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	branches, err := file.Branches(ctx)
	if err != nil {
		t.Fatalf("Branches: %v", err)
	}
	if len(branches) != 2 || branches[vcstest.MainBranch] != f.r4 || branches["feature"] != f.r3 {
		t.Errorf("Branches = %v", branches)
	}

	lists, err := file.BranchRevisions(ctx)
	if err != nil {
		t.Fatalf("BranchRevisions: %v", err)
	}
	if got, want := join(lists["feature"]), join([]string{f.r3, f.r2, f.r1}); got != want {
		t.Errorf("feature revisions = %s, want %s", got, want)
	}

	containing, err := file.BranchesContaining(ctx, f.r2)
	if err != nil || join(containing) != "feature,main" {
		t.Errorf("BranchesContaining(r2) = %v, %v", containing, err)
	}
	containing, _ = file.BranchesContaining(ctx, f.r3)
	if join(containing) != "feature" {
		t.Errorf("BranchesContaining(r3) = %v", containing)
	}

	// feat.txt only exists on feature.
	feat, err := b.Open(ctx, "feat.txt", FileOptions{Branch: "feature"})
	if err != nil {
		t.Fatalf("Open(feat.txt): %v", err)
	}
	branches, _ = feat.Branches(ctx)
	if len(branches) != 1 || branches["feature"] != f.r3 {
		t.Errorf("feat.txt Branches = %v", branches)
	}

	// A commit used as the branch shows up as a branch of its own.
	detached, err := b.Open(ctx, "a.txt", FileOptions{Branch: f.r1})
	if err != nil {
		t.Fatalf("Open(detached): %v", err)
	}
	branches, _ = detached.Branches(ctx)
	if branches[f.r1] != f.r1 {
		t.Errorf("detached Branches = %v", branches)
	}
}

func TestPredecessorAndCompare(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	file, err := NewBuilder(f.backend, Options{}).Open(ctx, "a.txt", FileOptions{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	tests := []struct {
		rev, want string
	}{
		{f.r3, f.r2},
		{f.r2, f.r1},
		{f.r1, ""},
	}
	for _, tt := range tests {
		got, err := file.Predecessor(ctx, tt.rev)
		if err != nil || got != tt.want {
			t.Errorf("Predecessor(%s) = %q, %v, want %q", tt.rev, got, err, tt.want)
		}
	}

	if o, err := file.Compare(ctx, f.r1, f.r3); err != nil || o != vcs.Less {
		t.Errorf("Compare(r1, r3) = %v, %v", o, err)
	}
	if o, err := file.Compare(ctx, f.r3, f.r2); err != nil || o != vcs.Greater {
		t.Errorf("Compare(r3, r2) = %v, %v", o, err)
	}
	if o, err := file.Compare(ctx, f.r2, f.r2); err != nil || o != vcs.Equal {
		t.Errorf("Compare(r2, r2) = %v, %v", o, err)
	}
	// r4 never touched a.txt; the backend orders it.
	if o, err := file.Compare(ctx, f.r4, f.r1); err != nil || o != vcs.Greater {
		t.Errorf("Compare(r4, r1) = %v, %v", o, err)
	}
}

func TestCommit_Cache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	store := cache.NewMemoryStore()

	b := NewBuilder(f.backend, Options{Store: store, RepoID: "repo"})
	if _, err := b.Commit(ctx, f.r1); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("store holds %d entries, want 1", store.Len())
	}

	// A second builder on the same store reuses the entry.
	again := NewBuilder(f.backend, Options{Store: store, RepoID: "repo"})
	c, err := again.Commit(ctx, f.r1)
	if err != nil || c.Author != "Alice" {
		t.Fatalf("Commit = %+v, %v", c, err)
	}
	if n := f.backend.ReadLogCalls(f.r1); n != 1 {
		t.Errorf("ReadLog calls = %d, want 1", n)
	}
}

func TestCommit_FormatVersionBump(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	store := cache.NewMemoryStore()

	// A v1 entry with content the backend would never produce.
	stale := &vcs.Commit{Revision: f.r1, Author: "Stale Author"}
	data, err := cache.EncodeCommit(stale)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, cache.Key("repo", f.r1, 1), data); err != nil {
		t.Fatal(err)
	}

	v1 := NewBuilder(f.backend, Options{Store: store, RepoID: "repo", FormatVersion: 1})
	c, err := v1.Commit(ctx, f.r1)
	if err != nil || c.Author != "Stale Author" {
		t.Fatalf("v1 Commit = %+v, %v", c, err)
	}
	if n := f.backend.ReadLogCalls(f.r1); n != 0 {
		t.Fatalf("v1 ReadLog calls = %d, want 0", n)
	}

	v2 := NewBuilder(f.backend, Options{Store: store, RepoID: "repo", FormatVersion: 2})
	c, err = v2.Commit(ctx, f.r1)
	if err != nil {
		t.Fatalf("v2 Commit: %v", err)
	}
	if c.Author != "Alice" {
		t.Errorf("v2 Author = %q, want fresh backend data", c.Author)
	}
	if n := f.backend.ReadLogCalls(f.r1); n != 1 {
		t.Errorf("v2 ReadLog calls = %d, want 1", n)
	}
}

func TestCommit_CorruptEntryRefetches(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	store := cache.NewMemoryStore()
	key := cache.Key("repo", f.r2, FormatVersion)
	if err := store.Set(ctx, key, []byte("{garbage")); err != nil {
		t.Fatal(err)
	}

	b := NewBuilder(f.backend, Options{Store: store, RepoID: "repo"})
	c, err := b.Commit(ctx, f.r2)
	if err != nil || c.Author != "Bob" {
		t.Fatalf("Commit = %+v, %v", c, err)
	}
	data, _ := store.Get(ctx, key)
	if _, err := cache.DecodeCommit(data); err != nil {
		t.Errorf("entry not replaced: %v", err)
	}
}

func TestCommit_BackendErrorPropagates(t *testing.T) {
	f := newFixture()
	want := &vcs.ParseError{Line: "bogus", LineNo: 3, Reason: "test"}
	f.backend.ReadLogFunc = func(context.Context, string) (*vcs.Commit, error) { return nil, want }

	store := cache.NewMemoryStore()
	b := NewBuilder(f.backend, Options{Store: store})
	_, err := b.Commit(context.Background(), f.r1)
	var pe *vcs.ParseError
	if !errors.As(err, &pe) || pe.Line != "bogus" {
		t.Fatalf("err = %v, want the ParseError", err)
	}
	if store.Len() != 0 {
		t.Error("failed reads must not be cached")
	}
}
