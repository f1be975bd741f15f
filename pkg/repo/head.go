package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/lut/pkg/object"
	"go.uber.org/multierr"
)

// HeadStore loads and saves the head pointer: the hash of the newest
// commit, or "" before the first commit.
type HeadStore interface {
	LoadHead() (object.Hash, error)
	SaveHead(h object.Hash) error
}

// FileHead keeps the head pointer in .lut/HEAD as trimmed hex text.
type FileHead struct {
	path string
}

// NewFileHead returns a FileHead for the HEAD file under lutDir.
func NewFileHead(lutDir string) *FileHead {
	return &FileHead{path: filepath.Join(lutDir, "HEAD")}
}

// LoadHead reads HEAD. A missing or blank file means no commits yet.
func (f *FileHead) LoadHead() (object.Hash, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("head: %w: %w", object.ErrIO, err)
	}
	h := object.Hash(strings.TrimSpace(string(data)))
	if h == "" {
		return "", nil
	}
	if err := object.ValidateHash(h); err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	return h, nil
}

// SaveHead replaces HEAD through a temp file and rename. There is no lock;
// concurrent writers can lose updates.
func (f *FileHead) SaveHead(h object.Hash) error {
	if err := object.ValidateHash(h); err != nil {
		return fmt.Errorf("save head: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".HEAD-tmp-*")
	if err != nil {
		return fmt.Errorf("save head: tmpfile: %w: %w", object.ErrIO, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(string(h)); err != nil {
		err = multierr.Combine(err, tmp.Close(), os.Remove(tmpName))
		return fmt.Errorf("save head: write: %w: %w", object.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		err = multierr.Append(err, os.Remove(tmpName))
		return fmt.Errorf("save head: close: %w: %w", object.ErrIO, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		err = multierr.Append(err, os.Remove(tmpName))
		return fmt.Errorf("save head: rename: %w: %w", object.ErrIO, err)
	}
	return nil
}

// MemoryHead is an in-process HeadStore.
type MemoryHead struct {
	hash object.Hash
}

func (m *MemoryHead) LoadHead() (object.Hash, error) {
	return m.hash, nil
}

func (m *MemoryHead) SaveHead(h object.Hash) error {
	if err := object.ValidateHash(h); err != nil {
		return fmt.Errorf("save head: %w", err)
	}
	m.hash = h
	return nil
}
