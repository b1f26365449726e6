package git

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/filemode"
)

// parseMode parses an octal file mode as printed by --raw and ls-tree
// (e.g. "100644", "040000", "000000").
func parseMode(s string) (filemode.FileMode, error) {
	if s == "" {
		return filemode.Empty, nil
	}
	m, err := filemode.New(s)
	if err != nil {
		return filemode.Empty, fmt.Errorf("parse file mode %q: %w", s, err)
	}
	return m, nil
}

// isBlobMode reports whether m is a regular file, executable or symlink.
func isBlobMode(m filemode.FileMode) bool {
	return m == filemode.Regular || m == filemode.Executable || m == filemode.Symlink || m == filemode.Deprecated
}
