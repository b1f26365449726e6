package listing

import (
	"context"
	"strings"
	"testing"

	"github.com/masmgr/vcsview-go/internal/history"
	"github.com/masmgr/vcsview-go/internal/vcs/vcstest"
)

// newLister builds a repository whose root holds A.txt (r1, Alice),
// c.txt (r2, Carol), b.txt (r3, Bob), the directories Docs/ and src/, and
// old.txt, deleted in r3.
func newLister() (*Lister, *vcstest.Backend) {
	b := vcstest.New()
	b.Commit(vcstest.MainBranch, "Alice", "import",
		vcstest.Add("b.txt", "b\n"), vcstest.Add("A.txt", "a\n"),
		vcstest.Add("src/x.go", "package x\n"), vcstest.Add("Docs/y.md", "# y\n"))
	b.Commit(vcstest.MainBranch, "Carol", "more", vcstest.Add("c.txt", "c\n"), vcstest.Add("old.txt", "o\n"))
	b.Commit(vcstest.MainBranch, "Bob", "edit", vcstest.Modify("b.txt", "b2\n"), vcstest.Delete("old.txt"))
	return New(history.NewBuilder(b, history.Options{}), nil), b
}

func names(l *Listing) string {
	var out []string
	for _, e := range l.Files {
		out = append(out, e.Name)
	}
	return strings.Join(out, ",")
}

func TestBrowse(t *testing.T) {
	lister, backend := newLister()
	ctx := context.Background()

	l, err := lister.Browse(ctx, "/", Options{})
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if l.Branch != vcstest.MainBranch {
		t.Errorf("Branch = %q", l.Branch)
	}
	if got := strings.Join(l.Dirs, ","); got != "Docs,src" {
		t.Errorf("Dirs = %s", got)
	}
	if got := names(l); got != "A.txt,b.txt,c.txt" {
		t.Errorf("Files = %s", got)
	}
	if n := backend.ReadLogCalls(""); n != 0 {
		t.Errorf("Browse read %d logs, want none", n)
	}

	sub, err := lister.Browse(ctx, "src", Options{})
	if err != nil {
		t.Fatalf("Browse(src): %v", err)
	}
	if len(sub.Dirs) != 0 || names(sub) != "x.go" || sub.Files[0].Path != "src/x.go" {
		t.Errorf("Browse(src) = %+v", sub)
	}
}

func TestBrowse_DeletedAndFilters(t *testing.T) {
	lister, _ := newLister()
	ctx := context.Background()

	l, err := lister.Browse(ctx, "", Options{IncludeDeleted: true})
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	var deleted []string
	for _, e := range l.Files {
		if e.Deleted {
			deleted = append(deleted, e.Path)
		}
	}
	if strings.Join(deleted, ",") != "old.txt" {
		t.Errorf("deleted = %v", deleted)
	}
	last, err := l.Files[len(l.Files)-1].LastLog(ctx)
	if err != nil || last.Author != "Bob" {
		t.Errorf("deleted entry LastLog = %+v, %v", last, err)
	}

	l, err = lister.Browse(ctx, "", Options{IncludeDeleted: true, Filter: Filter{Exclude: []string{"c.txt", "old*"}}})
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if got := names(l); got != "A.txt,b.txt" {
		t.Errorf("filtered Files = %s", got)
	}
}

func TestSort(t *testing.T) {
	tests := []struct {
		name string
		key  SortKey
		dir  Direction
		want string
	}{
		{"none", SortNone, Ascending, "A.txt,b.txt,c.txt"},
		{"name", SortName, Ascending, "A.txt,b.txt,c.txt"},
		{"name desc", SortName, Descending, "c.txt,b.txt,A.txt"},
		{"age", SortAge, Ascending, "b.txt,c.txt,A.txt"},
		{"age desc", SortAge, Descending, "A.txt,c.txt,b.txt"},
		{"author", SortAuthor, Ascending, "A.txt,b.txt,c.txt"},
		{"revision", SortRevision, Ascending, "A.txt,c.txt,b.txt"},
		{"revision desc", SortRevision, Descending, "b.txt,c.txt,A.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lister, _ := newLister()
			ctx := context.Background()
			l, err := lister.Browse(ctx, "", Options{})
			if err != nil {
				t.Fatalf("Browse: %v", err)
			}
			if err := l.Sort(ctx, tt.key, tt.dir); err != nil {
				t.Fatalf("Sort: %v", err)
			}
			if got := names(l); got != tt.want {
				t.Errorf("Files = %s, want %s", got, tt.want)
			}
			if got := strings.Join(l.Dirs, ","); got != "Docs,src" {
				t.Errorf("Dirs = %s, want name order regardless of key and direction", got)
			}
		})
	}
}

func TestFilter_Match(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		path   string
		want   bool
	}{
		{"empty filter", Filter{}, "a/b.go", true},
		{"include hit", Filter{Include: []string{"**/*.go"}}, "a/b.go", true},
		{"include miss", Filter{Include: []string{"**/*.go"}}, "a/b.md", false},
		{"exclude wins", Filter{Include: []string{"**"}, Exclude: []string{"vendor/**"}}, "vendor/x.go", false},
		{"backslashes", Filter{Include: []string{"a/*.go"}}, `a\b.go`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(tt.path); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestParseSortKeyAndDirection(t *testing.T) {
	for in, want := range map[string]SortKey{"": SortNone, "name": SortName, "AGE": SortAge, "author": SortAuthor, "rev": SortRevision} {
		got, err := ParseSortKey(in)
		if err != nil || got != want {
			t.Errorf("ParseSortKey(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseSortKey("size"); err == nil {
		t.Error("ParseSortKey(size) should fail")
	}
	if d, err := ParseDirection("desc"); err != nil || d != Descending {
		t.Errorf("ParseDirection(desc) = %v, %v", d, err)
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Error("ParseDirection(sideways) should fail")
	}
}
