package repo

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/odvcencio/lut/pkg/object"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// StagingEntry records the staged blob for a single repository path.
type StagingEntry struct {
	Path string      // repository-relative, forward slashes
	Hash object.Hash // blob hash
}

// StagingTable reads and replaces the ordered staging entries.
type StagingTable interface {
	Read() ([]StagingEntry, error)
	Write(entries []StagingEntry) error
}

// IndexFile stores the staging table in .lut/index, one
// "<hex-hash> <path>" line per entry.
type IndexFile struct {
	path string
}

// NewIndexFile returns an IndexFile for the index under lutDir.
func NewIndexFile(lutDir string) *IndexFile {
	return &IndexFile{path: filepath.Join(lutDir, "index")}
}

// Read loads the staging table in file order. A missing index is an empty
// table. Each line is split on its first space, so paths may contain
// spaces.
func (f *IndexFile) Read() ([]StagingEntry, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read staging: %w: %w", object.ErrIO, err)
	}

	var entries []StagingEntry
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		hash, path, ok := strings.Cut(line, " ")
		if !ok || path == "" {
			return nil, fmt.Errorf("read staging: line %d: malformed entry %q", lineNo, line)
		}
		if err := object.ValidateHash(object.Hash(hash)); err != nil {
			return nil, fmt.Errorf("read staging: line %d: %w", lineNo, err)
		}
		entries = append(entries, StagingEntry{Path: path, Hash: object.Hash(hash)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read staging: %w", err)
	}
	return entries, nil
}

// Write replaces the index with entries, in the given order.
func (f *IndexFile) Write(entries []StagingEntry) error {
	var buf bytes.Buffer
	for _, e := range entries {
		if strings.ContainsAny(e.Path, "\n\r") {
			return fmt.Errorf("write staging: path %q contains a newline", e.Path)
		}
		fmt.Fprintf(&buf, "%s %s\n", e.Hash, e.Path)
	}

	// Atomic write via temp file + rename.
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".index-tmp-*")
	if err != nil {
		return fmt.Errorf("write staging: tmpfile: %w: %w", object.ErrIO, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		err = multierr.Combine(err, tmp.Close(), os.Remove(tmpName))
		return fmt.Errorf("write staging: write: %w: %w", object.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		err = multierr.Append(err, os.Remove(tmpName))
		return fmt.Errorf("write staging: close: %w: %w", object.ErrIO, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		err = multierr.Append(err, os.Remove(tmpName))
		return fmt.Errorf("write staging: rename: %w: %w", object.ErrIO, err)
	}
	return nil
}

// MemoryStaging is an in-process StagingTable.
type MemoryStaging struct {
	entries []StagingEntry
}

func (m *MemoryStaging) Read() ([]StagingEntry, error) {
	return append([]StagingEntry(nil), m.entries...), nil
}

func (m *MemoryStaging) Write(entries []StagingEntry) error {
	m.entries = append([]StagingEntry(nil), entries...)
	return nil
}

// AddResult reports what an Add call staged.
type AddResult struct {
	Staged    []StagingEntry // everything now in the staging table
	NewBlobs  []string       // paths whose content was not yet stored
	Unchanged []string       // paths whose blob already existed
}

// Add stores every regular file under the given paths as a blob and
// replaces the staging table with the result, sorted by path. Directories
// are walked recursively; the .lut control directory is skipped wherever
// it appears, and a path that points into the control directory is
// rejected with ErrControlPath. Paths are resolved relative to the current
// directory.
func (r *Repo) Add(paths []string) (*AddResult, error) {
	if r.RootDir == "" {
		return nil, fmt.Errorf("add: %w", ErrNotOnFilesystem)
	}

	staged := make(map[string]object.Hash)
	res := &AddResult{}

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("add: resolve path %q: %w", p, err)
		}
		rootRel, err := r.repoRelPath(abs)
		if err != nil {
			return nil, fmt.Errorf("add %q: %w", p, err)
		}
		if inControlDir(rootRel) {
			return nil, fmt.Errorf("add %q: %w", p, ErrControlPath)
		}
		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if d.Name() == ControlDir {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			relPath, err := r.repoRelPath(path)
			if err != nil {
				return err
			}
			if inControlDir(relPath) {
				return nil
			}
			if _, ok := staged[relPath]; ok {
				return nil
			}

			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %q: %w: %w", relPath, object.ErrIO, err)
			}
			h, stored, err := object.WriteBlob(r.Store, &object.Blob{Data: content})
			if err != nil {
				return fmt.Errorf("write blob %q: %w", relPath, err)
			}
			staged[relPath] = h
			if stored {
				res.NewBlobs = append(res.NewBlobs, relPath)
				r.logger.Debug("stored blob", zap.String("path", relPath), zap.String("hash", string(h)))
			} else {
				res.Unchanged = append(res.Unchanged, relPath)
				r.logger.Debug("blob already stored", zap.String("path", relPath), zap.String("hash", string(h)))
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("add %q: %w", p, err)
		}
	}

	res.Staged = make([]StagingEntry, 0, len(staged))
	for path, h := range staged {
		res.Staged = append(res.Staged, StagingEntry{Path: path, Hash: h})
	}
	sort.Slice(res.Staged, func(i, j int) bool { return res.Staged[i].Path < res.Staged[j].Path })
	sort.Strings(res.NewBlobs)
	sort.Strings(res.Unchanged)

	if err := r.Staging.Write(res.Staged); err != nil {
		return nil, fmt.Errorf("add: %w", err)
	}
	r.logger.Debug("staging table written", zap.Int("entries", len(res.Staged)))
	return res, nil
}

// inControlDir reports whether a repository-relative path names the
// control directory or something inside it.
func inControlDir(relPath string) bool {
	return relPath == ControlDir || strings.HasPrefix(relPath, ControlDir+"/")
}

// repoRelPath converts an absolute path into a forward-slash path relative
// to the repository root. Paths outside the root are rejected.
func (r *Repo) repoRelPath(abs string) (string, error) {
	rel, err := filepath.Rel(r.RootDir, abs)
	if err != nil {
		return "", fmt.Errorf("cannot make %q relative to %q: %w", abs, r.RootDir, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("path %q is outside repository %q", abs, r.RootDir)
	}
	return rel, nil
}
