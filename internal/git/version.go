package git

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/masmgr/vcsview-go/internal/invoke"
)

// minVersion is the oldest git whose log, blame and ls-tree output this
// package has been checked against.
var minVersion = Version{Major: 2, Minor: 23}

// Version is a parsed `git --version`.
type Version struct {
	Major, Minor, Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Less reports whether v is older than o.
func (v Version) Less(o Version) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	if v.Minor != o.Minor {
		return v.Minor < o.Minor
	}
	return v.Patch < o.Patch
}

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// ParseVersion accepts "git version 2.44.0", "git version 2.39.3 (Apple Git-146)"
// and "git version 2.39.3.windows.1".
func ParseVersion(out string) (Version, bool) {
	s := strings.TrimSpace(out)
	if i := strings.Index(s, "git version"); i >= 0 {
		s = s[i+len("git version"):]
	}
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return Version{}, false
	}
	var v Version
	v.Major, _ = strconv.Atoi(m[1])
	v.Minor, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		v.Patch, _ = strconv.Atoi(m[3])
	}
	return v, true
}

type versionResult struct {
	v   Version
	err error
}

var (
	versionMu    sync.Mutex
	versionCache = map[string]versionResult{}
)

// probeVersion runs `<binary> --version` once per binary and checks it
// against minVersion.
func probeVersion(ctx context.Context, r *invoke.Runner) (Version, error) {
	versionMu.Lock()
	defer versionMu.Unlock()
	if res, ok := versionCache[r.Binary]; ok {
		return res.v, res.err
	}

	probe := &invoke.Runner{Binary: r.Binary, Timeout: r.Timeout, Logger: r.Logger}
	lines, err := probe.Run(ctx, "--version")
	if err != nil {
		return Version{}, fmt.Errorf("git --version: %w", err)
	}

	out := strings.Join(lines, "\n")
	v, ok := ParseVersion(out)
	res := versionResult{v: v}
	switch {
	case !ok:
		res.err = fmt.Errorf("unable to parse git version output: %q", out)
	case v.Less(minVersion):
		res.err = fmt.Errorf("git %s is too old; vcsview requires git >= %s", v, minVersion)
	}
	versionCache[r.Binary] = res
	return res.v, res.err
}
