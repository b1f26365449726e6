// Package revision validates, orders and abbreviates revision identifiers.
//
// Two schemes exist. Hash covers content-addressed backends, whose
// identifiers carry no order of their own. Dotted covers delta-based
// backends that number revisions like 1.4 or 1.3.2.1.
package revision

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/masmgr/vcsview-go/internal/vcs"
)

// AbbrevLength is the display length of an abbreviated hash.
const AbbrevLength = 7

// Scheme is the syntax and string-level ordering of one revision family.
type Scheme interface {
	Name() string
	Valid(rev string) bool
	// Compare orders a and b from their text alone. Schemes that cannot do so
	// return vcs.ErrUnorderable for any unequal pair.
	Compare(a, b string) (vcs.Ordering, error)
	Abbrev(rev string) string
}

var hashPattern = regexp.MustCompile(`^[0-9a-fA-F]{4,64}$`)

// Hash is the scheme for hex object names.
type Hash struct{}

func (Hash) Name() string { return "hash" }

// Valid reports whether rev is a full or abbreviated hex object name.
func (Hash) Valid(rev string) bool {
	return hashPattern.MatchString(rev)
}

// Compare only recognises equality. Hash order lives in the commit graph,
// so any other pair fails with vcs.ErrUnorderable.
func (h Hash) Compare(a, b string) (vcs.Ordering, error) {
	if !h.Valid(a) || !h.Valid(b) {
		return vcs.Equal, fmt.Errorf("%w: %q vs %q", vcs.ErrInvalidRevision, a, b)
	}
	if strings.EqualFold(a, b) {
		return vcs.Equal, nil
	}
	return vcs.Equal, fmt.Errorf("%w: %s vs %s", vcs.ErrUnorderable, h.Abbrev(a), h.Abbrev(b))
}

// Abbrev returns the first AbbrevLength characters.
func (Hash) Abbrev(rev string) string {
	if len(rev) <= AbbrevLength {
		return rev
	}
	return rev[:AbbrevLength]
}

var dottedPattern = regexp.MustCompile(`^\d+(\.\d+)+$`)

// Dotted is the scheme for numbered revisions such as 1.4 or 1.3.2.1.
type Dotted struct{}

func (Dotted) Name() string { return "dotted" }

// Valid requires an even number of numeric segments.
func (Dotted) Valid(rev string) bool {
	if !dottedPattern.MatchString(rev) {
		return false
	}
	return (strings.Count(rev, ".")+1)%2 == 0
}

// Compare orders component by component. When one revision is a prefix of
// the other, the shorter one is less.
func (d Dotted) Compare(a, b string) (vcs.Ordering, error) {
	if !d.Valid(a) || !d.Valid(b) {
		return vcs.Equal, fmt.Errorf("%w: %q vs %q", vcs.ErrInvalidRevision, a, b)
	}
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		x, _ := strconv.ParseUint(as[i], 10, 64)
		y, _ := strconv.ParseUint(bs[i], 10, 64)
		switch {
		case x < y:
			return vcs.Less, nil
		case x > y:
			return vcs.Greater, nil
		}
	}
	switch {
	case len(as) < len(bs):
		return vcs.Less, nil
	case len(as) > len(bs):
		return vcs.Greater, nil
	default:
		return vcs.Equal, nil
	}
}

// Abbrev returns rev unchanged.
func (Dotted) Abbrev(rev string) string { return rev }

// ForKind returns the scheme a backend kind uses.
func ForKind(kind vcs.Kind) (Scheme, error) {
	switch kind {
	case vcs.KindGit:
		return Hash{}, nil
	case vcs.KindCVS:
		return Dotted{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", vcs.ErrUnsupportedKind, kind)
	}
}
