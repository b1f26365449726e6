package git

import (
	"errors"
	"testing"
	"time"

	"github.com/masmgr/vcsview-go/internal/invoke"
	"github.com/masmgr/vcsview-go/internal/vcs"
)

func collectBlame(t *testing.T, lines ...string) ([]vcs.BlameLine, error) {
	t.Helper()
	var out []vcs.BlameLine
	err := ParseBlame(invoke.Lines(lines...), func(bl vcs.BlameLine) error {
		out = append(out, bl)
		return nil
	})
	return out, err
}

func TestParseBlame_Porcelain(t *testing.T) {
	// Shape of `git blame -p`: every line has a header, only the first of a
	// group carries the size, metadata appears once per revision.
	lines := []string{
		revA + " 1 1 2",
		"author Jane Doe",
		"author-mail <jane@example.com>",
		"author-time 1700000000",
		"author-tz +0000",
		"committer Jane Doe",
		"summary first",
		"boundary",
		"filename a.txt",
		"\tline one",
		revA + " 2 2",
		"\tline two",
		revB + " 3 3 1",
		"author Bob",
		"author-mail <bob@example.com>",
		"author-time 1700000100",
		"previous " + revA + " a.txt",
		"filename a.txt",
		"\t",
		revA + " 3 4 1",
		"\tline four",
	}

	got, err := collectBlame(t, lines...)
	if err != nil {
		t.Fatalf("ParseBlame: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d lines, want 4", len(got))
	}

	want := []vcs.BlameLine{
		{LineNo: 1, Text: "line one", Revision: revA, Author: "Jane Doe", AuthorMail: "jane@example.com", Time: time.Unix(1700000000, 0).UTC(), Boundary: true},
		{LineNo: 2, Text: "line two", Revision: revA, Author: "Jane Doe", AuthorMail: "jane@example.com", Time: time.Unix(1700000000, 0).UTC(), Boundary: true},
		{LineNo: 3, Text: "", Revision: revB, Author: "Bob", AuthorMail: "bob@example.com", Time: time.Unix(1700000100, 0).UTC()},
		{LineNo: 4, Text: "line four", Revision: revA, Author: "Jane Doe", AuthorMail: "jane@example.com", Time: time.Unix(1700000000, 0).UTC(), Boundary: true},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParseBlame_GroupedContent(t *testing.T) {
	// A header with a group size followed directly by that many content lines.
	got, err := collectBlame(t,
		revA+" 10 10 3",
		"author A",
		"author-time 5",
		"\tx",
		"\ty",
		"\tz",
		revB+" 1 13",
		"author B",
		"\tw",
	)
	if err != nil {
		t.Fatalf("ParseBlame: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d lines", len(got))
	}
	if got[2].LineNo != 12 || got[2].Text != "z" || got[2].Revision != revA {
		t.Errorf("got[2] = %+v", got[2])
	}
	if got[3].LineNo != 13 || got[3].Author != "B" {
		t.Errorf("got[3] = %+v", got[3])
	}
}

func TestParseBlame_Errors(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{"partial trailing group", []string{revA + " 1 1 3", "\tone", "\ttwo"}},
		{"content before header", []string{"\torphan"}},
		{"content past group", []string{revA + " 1 1 1", "\tone", "\textra"}},
		{"metadata before header", []string{"author nobody"}},
		{"bad author-time", []string{revA + " 1 1 1", "author-time soon", "\tx"}},
		{"new group inside group", []string{revA + " 1 1 2", "\tone", revB + " 1 2 1", "\ttwo"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := collectBlame(t, tt.lines...)
			var pe *vcs.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want ParseError", err)
			}
		})
	}
}

func TestParseBlame_CallbackStops(t *testing.T) {
	stop := errors.New("enough")
	calls := 0
	err := ParseBlame(invoke.Lines(revA+" 1 1 2", "\ta", "\tb"), func(vcs.BlameLine) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Fatalf("err = %v, calls = %d", err, calls)
	}
}
