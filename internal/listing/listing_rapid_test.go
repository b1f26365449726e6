package listing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/masmgr/vcsview-go/internal/history"
	"github.com/masmgr/vcsview-go/internal/vcs/vcstest"
	"pgregory.net/rapid"
)

// --- Generators ---

func genName() *rapid.Generator[string] {
	return rapid.StringMatching(`[A-Za-z][A-Za-z0-9_]{0,6}`)
}

func genListing() *rapid.Generator[*Listing] {
	return rapid.Custom(func(t *rapid.T) *Listing {
		dirs := rapid.SliceOfNDistinct(genName(), 0, 8, func(s string) string { return s }).Draw(t, "dirs")
		files := rapid.SliceOfNDistinct(genName(), 0, 8, func(s string) string { return s }).Draw(t, "files")
		l := &Listing{Dirs: dirs}
		for _, f := range files {
			l.Files = append(l.Files, &Entry{Name: f, Path: f})
		}
		return l
	})
}

func cloneListing(l *Listing) *Listing {
	out := &Listing{Dirs: append([]string(nil), l.Dirs...)}
	out.Files = append([]*Entry(nil), l.Files...)
	return out
}

// --- Property Tests ---

func TestRapidSort_DirectoriesIgnoreDirection(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := genListing().Draw(t, "listing")
		ctx := context.Background()

		asc, desc := cloneListing(base), cloneListing(base)
		if err := asc.Sort(ctx, SortName, Ascending); err != nil {
			t.Fatal(err)
		}
		if err := desc.Sort(ctx, SortName, Descending); err != nil {
			t.Fatal(err)
		}

		if strings.Join(asc.Dirs, "/") != strings.Join(desc.Dirs, "/") {
			t.Fatalf("directory order depends on direction: %v vs %v", asc.Dirs, desc.Dirs)
		}
		if !sort.SliceIsSorted(asc.Dirs, func(i, j int) bool { return lessFold(asc.Dirs[i], asc.Dirs[j]) }) {
			t.Fatalf("directories not in name order: %v", asc.Dirs)
		}
		n := len(asc.Files)
		for i := range asc.Files {
			if asc.Files[i] != desc.Files[n-1-i] {
				t.Fatalf("descending files are not the reverse of ascending")
			}
		}
		for i := 1; i < n; i++ {
			if strings.ToLower(asc.Files[i-1].Name) > strings.ToLower(asc.Files[i].Name) {
				t.Fatalf("files not in case-insensitive name order at %d", i)
			}
		}
	})
}

func TestRapidSort_AgeNewestFirst(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(t, "files")
		order := rapid.Permutation(makeRange(n)).Draw(t, "commitOrder")

		b := vcstest.New()
		for _, i := range order {
			b.Commit(vcstest.MainBranch, "Alice", "add", vcstest.Add(fmt.Sprintf("f%d.txt", i), "x\n"))
		}
		lister := New(history.NewBuilder(b, history.Options{}), nil)
		ctx := context.Background()

		l, err := lister.Browse(ctx, "", Options{})
		if err != nil {
			t.Fatal(err)
		}
		if err := l.Sort(ctx, SortAge, Ascending); err != nil {
			t.Fatal(err)
		}
		for i, e := range l.Files {
			want := fmt.Sprintf("f%d.txt", order[n-1-i])
			if e.Name != want {
				t.Fatalf("position %d = %s, want %s", i, e.Name, want)
			}
		}
	})
}

func TestRapidSort_RevisionIndependentOfInputOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(t, "files")
		order := rapid.Permutation(makeRange(n)).Draw(t, "commitOrder")

		b := vcstest.New()
		for _, i := range order {
			b.Commit(vcstest.MainBranch, "Alice", "add", vcstest.Add(fmt.Sprintf("f%d.txt", i), "x\n"))
		}
		lister := New(history.NewBuilder(b, history.Options{}), nil)
		ctx := context.Background()

		l, err := lister.Browse(ctx, "", Options{})
		if err != nil {
			t.Fatal(err)
		}
		shuffled := rapid.Permutation(l.Files).Draw(t, "inputOrder")
		l.Files = shuffled
		if err := l.Sort(ctx, SortRevision, Ascending); err != nil {
			t.Fatal(err)
		}
		for i, e := range l.Files {
			if want := fmt.Sprintf("f%d.txt", order[i]); e.Name != want {
				t.Fatalf("position %d = %s, want %s", i, e.Name, want)
			}
		}
	})
}

func makeRange(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
