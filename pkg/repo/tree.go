package repo

import (
	"fmt"
	"path"
	"strings"

	"github.com/odvcencio/lut/pkg/object"
	"go.uber.org/zap"
)

// TreeFileEntry represents a single file in a flattened tree.
type TreeFileEntry struct {
	Path     string
	BlobHash object.Hash
}

// BuildTree converts flat staging entries into a hierarchy of tree objects,
// one per directory level, writes them to the store, and returns the root
// tree hash. An empty entry list yields the empty tree.
//
// Entry order within a tree is: files in staging order, then
// subdirectories in the order their first file appears in staging.
// Paths are validated before anything is written.
func BuildTree(store object.Storage, entries []StagingEntry) (object.Hash, error) {
	return buildTree(store, entries, zap.NewNop())
}

// BuildTree builds the tree for entries using the repository store.
func (r *Repo) BuildTree(entries []StagingEntry) (object.Hash, error) {
	return buildTree(r.Store, entries, r.logger)
}

func buildTree(store object.Storage, entries []StagingEntry, logger *zap.Logger) (object.Hash, error) {
	if err := validateStagingPaths(entries); err != nil {
		return "", fmt.Errorf("build tree: %w", err)
	}
	b := &treeBuilder{store: store, entries: entries, logger: logger}
	return b.buildDir("")
}

type treeBuilder struct {
	store   object.Storage
	entries []StagingEntry
	logger  *zap.Logger
}

// buildDir builds the TreeObj for the given directory prefix ("" or ending
// in "/") and writes it to the store. It returns the tree's hash.
func (b *treeBuilder) buildDir(prefix string) (object.Hash, error) {
	var entries []object.TreeEntry
	var subdirs []string
	seen := make(map[string]struct{})

	for _, e := range b.entries {
		if !strings.HasPrefix(e.Path, prefix) {
			continue
		}
		rel := e.Path[len(prefix):]

		slash := strings.IndexByte(rel, '/')
		if slash < 0 {
			// Direct child file.
			entries = append(entries, object.TreeEntry{
				Mode: object.TreeModeFile,
				Name: rel,
				Hash: e.Hash,
			})
			continue
		}
		// Child is in a subdirectory.
		name := rel[:slash]
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			subdirs = append(subdirs, name)
		}
	}

	for _, name := range subdirs {
		childPrefix := prefix + name + "/"
		subHash, err := b.buildDir(childPrefix)
		if err != nil {
			return "", err
		}
		entries = append(entries, object.TreeEntry{
			Mode: object.TreeModeDir,
			Name: name,
			Hash: subHash,
		})
	}

	h, err := object.WriteTree(b.store, &object.TreeObj{Entries: entries})
	if err != nil {
		return "", fmt.Errorf("write tree (prefix=%q): %w", prefix, err)
	}
	b.logger.Debug("wrote tree",
		zap.String("prefix", prefix),
		zap.Int("entries", len(entries)),
		zap.String("hash", string(h)),
	)
	return h, nil
}

// validateStagingPaths rejects paths that cannot be expressed as a tree:
// empty, absolute, or dot segments, duplicates, and a name used both as a
// file and as a directory.
func validateStagingPaths(entries []StagingEntry) error {
	files := make(map[string]struct{}, len(entries))
	dirs := make(map[string]struct{})
	for _, e := range entries {
		if e.Path == "" {
			return fmt.Errorf("empty staged path")
		}
		for _, seg := range strings.Split(e.Path, "/") {
			if seg == "" || seg == "." || seg == ".." || strings.IndexByte(seg, 0) >= 0 {
				return fmt.Errorf("invalid staged path %q", e.Path)
			}
		}
		if err := object.ValidateHash(e.Hash); err != nil {
			return fmt.Errorf("staged path %q: %w", e.Path, err)
		}
		if _, dup := files[e.Path]; dup {
			return fmt.Errorf("duplicate staged path %q", e.Path)
		}
		files[e.Path] = struct{}{}
		for dir := path.Dir(e.Path); dir != "."; dir = path.Dir(dir) {
			dirs[dir] = struct{}{}
		}
	}
	for p := range files {
		if _, ok := dirs[p]; ok {
			return fmt.Errorf("staged path %q is both a file and a directory", p)
		}
	}
	return nil
}

// FlattenTree walks a tree object recursively, returning all file entries
// with their full paths (using forward slashes).
func FlattenTree(store object.Storage, h object.Hash) ([]TreeFileEntry, error) {
	return flattenTreeRec(store, h, "")
}

// FlattenTree flattens a tree from the repository store.
func (r *Repo) FlattenTree(h object.Hash) ([]TreeFileEntry, error) {
	return FlattenTree(r.Store, h)
}

func flattenTreeRec(store object.Storage, h object.Hash, prefix string) ([]TreeFileEntry, error) {
	treeObj, err := object.ReadTree(store, h)
	if err != nil {
		return nil, fmt.Errorf("flatten tree: %w", err)
	}

	var result []TreeFileEntry
	for _, entry := range treeObj.Entries {
		fullPath := entry.Name
		if prefix != "" {
			fullPath = prefix + "/" + entry.Name
		}

		if entry.IsDir() {
			sub, err := flattenTreeRec(store, entry.Hash, fullPath)
			if err != nil {
				return nil, err
			}
			result = append(result, sub...)
		} else {
			result = append(result, TreeFileEntry{
				Path:     fullPath,
				BlobHash: entry.Hash,
			})
		}
	}
	return result, nil
}
