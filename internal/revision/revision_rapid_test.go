package revision

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/masmgr/vcsview-go/internal/vcs"
	"pgregory.net/rapid"
)

// --- Generators ---

func genDotted() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		pairs := rapid.IntRange(1, 3).Draw(t, "pairs")
		parts := make([]string, 0, pairs*2)
		for i := 0; i < pairs*2; i++ {
			parts = append(parts, strconv.Itoa(rapid.IntRange(1, 20).Draw(t, fmt.Sprintf("seg%d", i))))
		}
		return strings.Join(parts, ".")
	})
}

// --- Property Tests ---

func TestRapidDotted_Antisymmetric(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genDotted().Draw(t, "a")
		b := genDotted().Draw(t, "b")

		ab, err := (Dotted{}).Compare(a, b)
		if err != nil {
			t.Fatalf("Compare(%q, %q): %v", a, b, err)
		}
		ba, err := (Dotted{}).Compare(b, a)
		if err != nil {
			t.Fatalf("Compare(%q, %q): %v", b, a, err)
		}
		if ab != -ba {
			t.Fatalf("Compare(%q,%q)=%v but Compare(%q,%q)=%v", a, b, ab, b, a, ba)
		}
		if (ab == vcs.Equal) != (a == b) {
			t.Fatalf("Compare(%q,%q)=%v disagrees with string equality", a, b, ab)
		}
	})
}

func TestRapidDotted_Transitive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genDotted().Draw(t, "a")
		b := genDotted().Draw(t, "b")
		c := genDotted().Draw(t, "c")
		d := Dotted{}

		ab, _ := d.Compare(a, b)
		bc, _ := d.Compare(b, c)
		ac, _ := d.Compare(a, c)
		if ab == vcs.Less && bc == vcs.Less && ac != vcs.Less {
			t.Fatalf("%q < %q < %q but Compare(a,c)=%v", a, b, c, ac)
		}
	})
}

func TestRapidDotted_BranchFollowsBase(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := genDotted().Draw(t, "base")
		branch := base + "." + strconv.Itoa(rapid.IntRange(1, 9).Draw(t, "b")) + ".1"

		got, err := (Dotted{}).Compare(base, branch)
		if err != nil {
			t.Fatalf("Compare: %v", err)
		}
		if got != vcs.Less {
			t.Fatalf("Compare(%q, %q) = %v, want less", base, branch, got)
		}
	})
}
