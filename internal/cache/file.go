package cache

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// FileStore keeps one file per entry on a billy filesystem:
//
//	<root>/
//	  <first two hex digits of sha256(key)>/
//	    <sha256(key)>   (stored-at unix nanos, newline, payload)
//
// Writes go to a temporary file that is renamed into place, so readers see
// either the old entry or the new one.
type FileStore struct {
	fs  billy.Filesystem
	now func() time.Time
}

// NewFileStore creates a store rooted at dir on the local disk.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("filesystem cache requires a directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return NewFileStoreFS(osfs.New(dir)), nil
}

// NewFileStoreFS creates a store on an existing filesystem.
func NewFileStoreFS(fs billy.Filesystem) *FileStore {
	return &FileStore{fs: fs, now: time.Now}
}

func (f *FileStore) entryPath(key string) (dir, file string) {
	sum := sha256.Sum256([]byte(key))
	name := hex.EncodeToString(sum[:])
	return name[:2], f.fs.Join(name[:2], name)
}

func (f *FileStore) read(key string) (time.Time, []byte, error) {
	_, p := f.entryPath(key)
	fh, err := f.fs.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return time.Time{}, nil, ErrNotFound
		}
		return time.Time{}, nil, err
	}
	defer fh.Close()

	r := bufio.NewReader(fh)
	header, err := r.ReadString('\n')
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("read cache entry %s: %w", p, err)
	}
	nanos, err := strconv.ParseInt(strings.TrimSpace(header), 10, 64)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("read cache entry %s: bad header", p)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("read cache entry %s: %w", p, err)
	}
	return time.Unix(0, nanos), data, nil
}

func (f *FileStore) Exists(_ context.Context, key string, maxAge time.Duration) (bool, error) {
	stored, _, err := f.read(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return fresh(stored, f.now(), maxAge), nil
}

func (f *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	_, data, err := f.read(key)
	return data, err
}

func (f *FileStore) Set(_ context.Context, key string, data []byte) error {
	dir, p := f.entryPath(key)
	if err := f.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	tmp, err := f.fs.TempFile(dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	_, werr := fmt.Fprintf(tmp, "%d\n", f.now().UnixNano())
	if werr == nil {
		_, werr = tmp.Write(data)
	}
	cerr := tmp.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = f.fs.Remove(tmpName)
		return fmt.Errorf("failed to write cache entry: %w", werr)
	}
	if err := f.fs.Rename(tmpName, p); err != nil {
		_ = f.fs.Remove(tmpName)
		return fmt.Errorf("failed to commit cache entry: %w", err)
	}
	return nil
}
