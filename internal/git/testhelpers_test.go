package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// fixture is a small repository:
//
//	c1  add a.txt keep.txt dir/b.txt   (tag v1.0)
//	c2  modify a.txt, add gone.txt
//	c3  modify keep.txt, delete gone.txt   (master)
//	c4  modify a.txt on top of c2          (feature)
type fixture struct {
	dir            string
	repo           *gogit.Repository
	c1, c2, c3, c4 string
	t1             time.Time
}

func requireGit(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func commitFiles(t *testing.T, repo *gogit.Repository, msg string, when time.Time, write map[string]string, remove ...string) string {
	t.Helper()
	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	root := w.Filesystem.Root()

	names := make([]string, 0, len(write))
	for name := range write {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		full := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(write[name]), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := w.Add(name); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}
	for _, name := range remove {
		if _, err := w.Remove(name); err != nil {
			t.Fatalf("remove %s: %v", name, err)
		}
	}

	hash, err := w.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test Author", Email: "test@example.com", When: when},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	return hash.String()
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	requireGit(t)

	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	f := &fixture{dir: dir, repo: repo, t1: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}

	f.c1 = commitFiles(t, repo, "initial import\n\nwith a body", f.t1, map[string]string{
		"a.txt":     "one\ntwo\n",
		"keep.txt":  "keep\n",
		"dir/b.txt": "bee\n",
	})
	if _, err := repo.CreateTag("v1.0", plumbing.NewHash(f.c1), nil); err != nil {
		t.Fatalf("tag: %v", err)
	}
	f.c2 = commitFiles(t, repo, "second", f.t1.Add(time.Hour), map[string]string{
		"a.txt":    "one\ntwo\nthree\n",
		"gone.txt": "soon gone\n",
	})

	w, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Checkout(&gogit.CheckoutOptions{Branch: plumbing.NewBranchReferenceName("feature"), Create: true}); err != nil {
		t.Fatalf("checkout feature: %v", err)
	}
	f.c4 = commitFiles(t, repo, "feature work", f.t1.Add(3*time.Hour), map[string]string{
		"a.txt": "one\n2\nthree\n",
	})
	if err := w.Checkout(&gogit.CheckoutOptions{Branch: plumbing.NewBranchReferenceName("master")}); err != nil {
		t.Fatalf("checkout master: %v", err)
	}
	f.c3 = commitFiles(t, repo, "third", f.t1.Add(2*time.Hour), map[string]string{
		"keep.txt": "kept\n",
	}, "gone.txt")
	return f
}

func (f *fixture) backend(t *testing.T) *Backend {
	t.Helper()
	b, err := NewBackend(context.Background(), Options{Root: f.dir, Timeout: 30 * time.Second})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	return b
}
