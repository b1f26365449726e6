// Package patchset groups the file changes of each commit in a file's
// history into changesets with per-path from/to revisions.
package patchset

import (
	"context"
	"time"

	"github.com/masmgr/vcsview-go/internal/history"
	"github.com/masmgr/vcsview-go/internal/vcs"
)

// Sentinels used in place of a revision.
const (
	Initial = "INITIAL" // the path did not exist before To
	Dead    = "DEAD"    // the path no longer exists after From
)

// Member is one path changed by a patchset.
type Member struct {
	Path         string
	PreviousPath string
	Status       vcs.ChangeStatus
	From         string
	To           string
}

// Patchset is the summary of one commit.
type Patchset struct {
	Revision string
	Date     time.Time
	Author   string
	Message  string
	Tags     []string
	Members  []Member
}

// Synthesizer builds patchsets, resolving predecessors through a history
// builder.
type Synthesizer struct {
	builder *history.Builder
}

// New creates a Synthesizer.
func New(builder *history.Builder) *Synthesizer {
	return &Synthesizer{builder: builder}
}

type pathRev struct{ path, rev string }

// Build returns one patchset per commit in f's history, newest first.
// f must have been opened with full history.
func (s *Synthesizer) Build(ctx context.Context, f *history.File) ([]Patchset, error) {
	if f.Quick() {
		return nil, vcs.ErrQuickHistory
	}
	logs, err := f.Logs(ctx)
	if err != nil {
		return nil, err
	}

	preds := make(map[pathRev]string)
	predecessor := func(p, rev string) (string, error) {
		k := pathRev{p, rev}
		if v, ok := preds[k]; ok {
			return v, nil
		}
		v, err := s.builder.Predecessor(ctx, p, rev)
		if err != nil {
			return "", err
		}
		preds[k] = v
		return v, nil
	}

	out := make([]Patchset, 0, len(logs))
	for _, c := range logs {
		ps := Patchset{
			Revision: c.Revision,
			Date:     c.Date,
			Author:   c.Author,
			Message:  c.Message,
			Tags:     append([]string(nil), c.Tags...),
			Members:  make([]Member, 0, len(c.Changes)),
		}
		for _, fc := range c.Changes {
			m := Member{Path: fc.Path, PreviousPath: fc.PreviousPath, Status: fc.Status, To: c.Revision}
			switch fc.Status {
			case vcs.StatusAdded:
				m.From = Initial
			default:
				src := fc.Path
				if fc.PreviousPath != "" {
					src = fc.PreviousPath
				}
				from, err := predecessor(src, c.Revision)
				if err != nil {
					return nil, err
				}
				if from == "" {
					from = Initial
				}
				m.From = from
				// A deleted path has no content at c; From names the last
				// revision that had it so the member diffs against real content.
				if fc.Status == vcs.StatusDeleted {
					m.To = Dead
				}
			}
			ps.Members = append(ps.Members, m)
		}
		out = append(out, ps)
	}
	return out, nil
}
