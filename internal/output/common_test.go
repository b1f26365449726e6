package output

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLimitTop(t *testing.T) {
	items := []int{1, 2, 3}

	tests := []struct {
		name string
		top  int
		want []int
	}{
		{name: "NoLimitWhenZero", top: 0, want: []int{1, 2, 3}},
		{name: "NoLimitWhenNegative", top: -1, want: []int{1, 2, 3}},
		{name: "Limited", top: 2, want: []int{1, 2}},
		{name: "NoLimitWhenTopExceedsLength", top: 5, want: []int{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := limitTop(items, tt.top)
			if len(got) != len(tt.want) {
				t.Fatalf("len(limitTop(..., %d)) = %d, want %d", tt.top, len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("limitTop(..., %d)[%d] = %d, want %d", tt.top, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2026, 2, 10, 8, 30, 0, 0, time.FixedZone("JST", 9*3600))
	if got := formatDate(ts); got != "2026-02-09 23:30" {
		t.Errorf("formatDate = %q", got)
	}
	if got := formatDateTime(ts); got != "2026-02-09T23:30:00Z" {
		t.Errorf("formatDateTime = %q", got)
	}
	if formatDate(time.Time{}) != "" || formatDateTime(time.Time{}) != "" {
		t.Error("zero time should format as empty")
	}
}

func TestOpenOutputWriter(t *testing.T) {
	var buf bytes.Buffer
	w, f, err := openOutputWriter(OutputOptions{Out: &buf})
	if err != nil || f != nil || w != &buf {
		t.Fatalf("openOutputWriter(Out) = %v, %v, %v", w, f, err)
	}

	path := filepath.Join(t.TempDir(), "out.txt")
	w, f, err = openOutputWriter(OutputOptions{Out: &buf, OutputPath: path})
	if err != nil || f == nil {
		t.Fatalf("openOutputWriter(path) = %v, %v", f, err)
	}
	if _, err := w.Write([]byte("x")); err != nil {
		t.Fatal(err)
	}
	f.Close()
	if data, _ := os.ReadFile(path); string(data) != "x" || buf.Len() != 0 {
		t.Errorf("file = %q, buffer = %q", data, buf.String())
	}
}

func TestPathOrRootAndFirstLine(t *testing.T) {
	if pathOrRoot("") != "/" || pathOrRoot("src") != "src" {
		t.Error("pathOrRoot")
	}
	if firstLine("subject\n\nbody") != "subject" || firstLine("one") != "one" {
		t.Error("firstLine")
	}
}
