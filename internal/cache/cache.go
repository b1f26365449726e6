// Package cache memoizes parsed commit records.
//
// Entries are opaque bytes under string keys. Every key embeds the format
// version of the encoded record, so bumping the version makes all older
// entries unreachable.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/masmgr/vcsview-go/internal/vcs"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("cache entry not found")

// Store is a key/value store for serialized records. Implementations are
// safe for concurrent use; concurrent Sets of one key leave exactly one of
// the written values, never a partial one.
type Store interface {
	// Exists reports whether key is present and no older than maxAge.
	// A zero maxAge accepts entries of any age.
	Exists(ctx context.Context, key string, maxAge time.Duration) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
}

// Key builds the cache key for one commit of one repository.
func Key(repoID, rev string, formatVersion int) string {
	return fmt.Sprintf("%s_r%s_v%d", repoID, rev, formatVersion)
}

// fresh reports whether an entry stored at stored is within maxAge of now.
func fresh(stored, now time.Time, maxAge time.Duration) bool {
	return maxAge <= 0 || now.Sub(stored) <= maxAge
}

type commitRecord struct {
	Revision    string           `json:"revision"`
	Author      string           `json:"author"`
	AuthorEmail string           `json:"authorEmail"`
	Date        time.Time        `json:"date"`
	Message     string           `json:"message"`
	Tags        []string         `json:"tags,omitempty"`
	Changes     []vcs.FileChange `json:"changes,omitempty"`
}

// EncodeCommit serializes c for storage.
func EncodeCommit(c *vcs.Commit) ([]byte, error) {
	return json.Marshal(commitRecord{
		Revision:    c.Revision,
		Author:      c.Author,
		AuthorEmail: c.AuthorEmail,
		Date:        c.Date.UTC(),
		Message:     c.Message,
		Tags:        c.Tags,
		Changes:     c.Changes,
	})
}

// DecodeCommit restores a commit written by EncodeCommit.
func DecodeCommit(data []byte) (*vcs.Commit, error) {
	var rec commitRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode cached commit: %w", err)
	}
	if rec.Revision == "" {
		return nil, fmt.Errorf("decode cached commit: missing revision")
	}
	return &vcs.Commit{
		Revision:    rec.Revision,
		Author:      rec.Author,
		AuthorEmail: rec.AuthorEmail,
		Date:        rec.Date.UTC(),
		Message:     rec.Message,
		Tags:        rec.Tags,
		Changes:     rec.Changes,
	}, nil
}
