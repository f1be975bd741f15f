package repo

import (
	"fmt"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/odvcencio/lut/pkg/object"
)

func blobHash(s string) object.Hash {
	return object.HashObject(object.TypeBlob, []byte(s))
}

func TestBuildTree_ExampleScenario(t *testing.T) {
	store := object.NewMemoryStore()
	h1, h2 := blobHash("one"), blobHash("two")

	root, err := BuildTree(store, []StagingEntry{
		{Path: "a.txt", Hash: h1},
		{Path: "dir/b.txt", Hash: h2},
	})
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}

	// The subtree holds exactly b.txt.
	subData, err := object.MarshalTree(&object.TreeObj{Entries: []object.TreeEntry{
		{Mode: object.TreeModeFile, Name: "b.txt", Hash: h2},
	}})
	if err != nil {
		t.Fatalf("MarshalTree: %v", err)
	}
	h3 := object.HashObject(object.TypeTree, subData)

	rootTree, err := object.ReadTree(store, root)
	if err != nil {
		t.Fatalf("ReadTree: %v", err)
	}
	want := []object.TreeEntry{
		{Mode: object.TreeModeFile, Name: "a.txt", Hash: h1},
		{Mode: object.TreeModeDir, Name: "dir", Hash: h3},
	}
	if diff := cmp.Diff(want, rootTree.Entries); diff != "" {
		t.Errorf("root entries mismatch (-want +got):\n%s", diff)
	}
	if ok, _ := store.Has(h3); !ok {
		t.Error("subtree object was not stored")
	}
}

func TestBuildTree_Empty(t *testing.T) {
	store := object.NewMemoryStore()
	root, err := BuildTree(store, nil)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	if want := object.HashObject(object.TypeTree, nil); root != want {
		t.Errorf("empty root = %s, want %s", root, want)
	}
	tr, err := object.ReadTree(store, root)
	if err != nil {
		t.Fatalf("ReadTree: %v", err)
	}
	if len(tr.Entries) != 0 {
		t.Errorf("empty tree has %d entries", len(tr.Entries))
	}
}

func TestBuildTree_Completeness(t *testing.T) {
	paths := []string{
		"README",
		"cmd/lut/main.go",
		"pkg/object/hash.go",
		"pkg/object/store.go",
		"pkg/repo/tree.go",
		"x/y/z/w/deep.txt",
		"x/top.txt",
	}
	var entries []StagingEntry
	for _, p := range paths {
		entries = append(entries, StagingEntry{Path: p, Hash: blobHash(p)})
	}

	store := object.NewMemoryStore()
	root, err := BuildTree(store, entries)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}

	files, err := FlattenTree(store, root)
	if err != nil {
		t.Fatalf("FlattenTree: %v", err)
	}
	var want []TreeFileEntry
	for _, e := range entries {
		want = append(want, TreeFileEntry{Path: e.Path, BlobHash: e.Hash})
	}
	sortFiles(want)
	sortFiles(files)
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("flattened tree mismatch (-want +got):\n%s", diff)
	}

	// One dir entry per distinct non-empty directory prefix.
	dirs := countDirEntries(t, store, root)
	wantDirs := []string{"cmd", "cmd/lut", "pkg", "pkg/object", "pkg/repo", "x", "x/y", "x/y/z", "x/y/z/w"}
	sort.Strings(dirs)
	if diff := cmp.Diff(wantDirs, dirs); diff != "" {
		t.Errorf("directory entries mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildTree_FilesThenDirsInStagingOrder(t *testing.T) {
	store := object.NewMemoryStore()
	root, err := BuildTree(store, []StagingEntry{
		{Path: "z/1", Hash: blobHash("1")},
		{Path: "b.txt", Hash: blobHash("b")},
		{Path: "a/2", Hash: blobHash("2")},
		{Path: "a.txt", Hash: blobHash("a")},
		{Path: "z/3", Hash: blobHash("3")},
	})
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	tr, err := object.ReadTree(store, root)
	if err != nil {
		t.Fatalf("ReadTree: %v", err)
	}
	var names []string
	for _, e := range tr.Entries {
		names = append(names, e.Name)
	}
	if diff := cmp.Diff([]string{"b.txt", "a.txt", "z", "a"}, names); diff != "" {
		t.Errorf("entry order mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildTree_Deterministic(t *testing.T) {
	entries := []StagingEntry{
		{Path: "a.txt", Hash: blobHash("a")},
		{Path: "d/e/f.txt", Hash: blobHash("f")},
	}
	h1, err := BuildTree(object.NewMemoryStore(), entries)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	h2, err := BuildTree(object.NewMemoryStore(), entries)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	if h1 != h2 {
		t.Errorf("BuildTree not deterministic: %s vs %s", h1, h2)
	}
}

func TestBuildTree_DirectoryWithOnlySubdirectories(t *testing.T) {
	store := object.NewMemoryStore()
	root, err := BuildTree(store, []StagingEntry{{Path: "a/b/c.txt", Hash: blobHash("c")}})
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	tr, err := object.ReadTree(store, root)
	if err != nil {
		t.Fatalf("ReadTree: %v", err)
	}
	if len(tr.Entries) != 1 || !tr.Entries[0].IsDir() || tr.Entries[0].Name != "a" {
		t.Fatalf("root entries = %+v, want single dir a", tr.Entries)
	}
	a, err := object.ReadTree(store, tr.Entries[0].Hash)
	if err != nil {
		t.Fatalf("ReadTree(a): %v", err)
	}
	if len(a.Entries) != 1 || !a.Entries[0].IsDir() || a.Entries[0].Name != "b" {
		t.Fatalf("a entries = %+v, want single dir b", a.Entries)
	}
}

func TestBuildTree_SiblingPrefixNotConfused(t *testing.T) {
	store := object.NewMemoryStore()
	root, err := BuildTree(store, []StagingEntry{
		{Path: "a/x", Hash: blobHash("x")},
		{Path: "ab/y", Hash: blobHash("y")},
	})
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	files, err := FlattenTree(store, root)
	if err != nil {
		t.Fatalf("FlattenTree: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("FlattenTree = %+v, want 2 files", files)
	}
}

func TestBuildTree_InvalidPaths(t *testing.T) {
	h := blobHash("x")
	tests := []struct {
		name    string
		entries []StagingEntry
	}{
		{"empty path", []StagingEntry{{Path: "", Hash: h}}},
		{"absolute", []StagingEntry{{Path: "/etc/passwd", Hash: h}}},
		{"double slash", []StagingEntry{{Path: "a//b", Hash: h}}},
		{"dot dot", []StagingEntry{{Path: "../b", Hash: h}}},
		{"duplicate", []StagingEntry{{Path: "a", Hash: h}, {Path: "a", Hash: h}}},
		{"file and dir", []StagingEntry{{Path: "a", Hash: h}, {Path: "a/b", Hash: h}}},
		{"bad hash", []StagingEntry{{Path: "a", Hash: "nope"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := object.NewMemoryStore()
			if _, err := BuildTree(store, tc.entries); err == nil {
				t.Fatal("BuildTree should fail")
			}
			if store.Len() != 0 {
				t.Errorf("failed BuildTree wrote %d objects", store.Len())
			}
		})
	}
}

func TestFlattenTree_MissingSubtree(t *testing.T) {
	store := object.NewMemoryStore()
	root, err := object.WriteTree(store, &object.TreeObj{Entries: []object.TreeEntry{
		{Mode: object.TreeModeDir, Name: "gone", Hash: blobHash("missing")},
	}})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	if _, err := FlattenTree(store, root); err == nil {
		t.Fatal("FlattenTree should fail on a missing subtree")
	}
}

func sortFiles(files []TreeFileEntry) {
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
}

func countDirEntries(t *testing.T, store object.Storage, h object.Hash) []string {
	t.Helper()
	var dirs []string
	var walk func(object.Hash, string)
	walk = func(h object.Hash, prefix string) {
		tr, err := object.ReadTree(store, h)
		if err != nil {
			t.Fatalf("ReadTree(%s): %v", h, err)
		}
		for _, e := range tr.Entries {
			if !e.IsDir() {
				continue
			}
			p := e.Name
			if prefix != "" {
				p = fmt.Sprintf("%s/%s", prefix, e.Name)
			}
			dirs = append(dirs, p)
			walk(e.Hash, p)
		}
	}
	walk(h, "")
	return dirs
}
