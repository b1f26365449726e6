package git

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/masmgr/vcsview-go/internal/vcs"
)

// ParseDiffSpec splits "base..head" or "base...head" into its two revisions.
// An empty head means HEAD.
func ParseDiffSpec(spec string) (base, head string, err error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "", "", fmt.Errorf("empty diff spec")
	}

	if idx := strings.Index(spec, "..."); idx != -1 {
		base = spec[:idx]
		head = spec[idx+3:]
	} else if idx := strings.Index(spec, ".."); idx != -1 {
		base = spec[:idx]
		head = spec[idx+2:]
	} else {
		return "", "", fmt.Errorf("invalid diff spec %q: expected 'base..head' or 'base...head'", spec)
	}

	if base == "" {
		return "", "", fmt.Errorf("invalid diff spec %q: missing base ref", spec)
	}
	if head == "" {
		head = "HEAD"
	}
	return base, head, nil
}

// diffArgs builds a unified diff with rename and copy detection. Empty
// revisions stand for the beginning of history.
func diffArgs(req vcs.DiffRequest) ([]string, error) {
	from, to := req.From, req.To
	if from == "" {
		from = emptyTree
	}
	if to == "" {
		to = emptyTree
	}
	if err := checkArg(from); err != nil {
		return nil, err
	}
	if err := checkArg(to); err != nil {
		return nil, err
	}
	ctxLines := req.ContextLines
	if ctxLines < 0 {
		ctxLines = 0
	}

	args := []string{"diff", "-M", "-C", "--no-color", "--unified=" + strconv.Itoa(ctxLines)}
	if req.IgnoreWhitespace {
		args = append(args, "-b", "-w")
	}
	args = append(args, from, to, "--")
	if req.Path != "" {
		args = append(args, req.Path)
	}
	return args, nil
}

// Diff returns the unified diff of req.Path between req.From and req.To.
func (b *Backend) Diff(ctx context.Context, req vcs.DiffRequest) (string, error) {
	args, err := diffArgs(req)
	if err != nil {
		return "", err
	}
	lines, err := b.run.Run(ctx, args...)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", nil
	}
	return strings.Join(lines, "\n") + "\n", nil
}
