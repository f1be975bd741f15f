package object

import (
	"errors"
	"testing"
)

func TestReachableFollowsCommitGraph(t *testing.T) {
	s := NewMemoryStore()
	blob, _, err := WriteBlob(s, &Blob{Data: []byte("a")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	sub, err := WriteTree(s, &TreeObj{Entries: []TreeEntry{{Mode: TreeModeFile, Name: "b.txt", Hash: blob}}})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	root, err := WriteTree(s, &TreeObj{Entries: []TreeEntry{
		{Mode: TreeModeFile, Name: "a.txt", Hash: blob},
		{Mode: TreeModeDir, Name: "dir", Hash: sub},
	}})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	sig := Signature{Name: "t", Timestamp: 1, Timezone: "+0000"}
	first, err := WriteCommit(s, &CommitObj{TreeHash: root, Author: sig, Committer: sig, Message: "one"})
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}
	second, err := WriteCommit(s, &CommitObj{TreeHash: root, Parent: first, Author: sig, Committer: sig, Message: "two"})
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}

	got, err := Reachable(s, []Hash{second})
	if err != nil {
		t.Fatalf("Reachable: %v", err)
	}
	want := map[Hash]ObjectType{
		second: TypeCommit,
		first:  TypeCommit,
		root:   TypeTree,
		sub:    TypeTree,
		blob:   TypeBlob,
	}
	if len(got) != len(want) {
		t.Fatalf("Reachable returned %d objects, want %d", len(got), len(want))
	}
	for h, typ := range want {
		if got[h] != typ {
			t.Errorf("Reachable[%s] = %q, want %q", h.Short(), got[h], typ)
		}
	}
}

func TestReachableMissingObject(t *testing.T) {
	s := NewMemoryStore()
	missing := HashBytes([]byte("missing"))
	root, err := WriteTree(s, &TreeObj{Entries: []TreeEntry{{Mode: TreeModeFile, Name: "gone", Hash: missing}}})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	if _, err := Reachable(s, []Hash{root}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Reachable error = %v, want ErrNotFound", err)
	}
}

func TestReachableChecksLinkTypes(t *testing.T) {
	sig := Signature{Name: "t", Timestamp: 1, Timezone: "+0000"}

	tests := []struct {
		name  string
		build func(t *testing.T, s Storage) Hash
	}{
		{
			name: "dir entry points at blob",
			build: func(t *testing.T, s Storage) Hash {
				blob := mustWriteBlob(t, s, "a")
				return mustWriteTree(t, s, TreeEntry{Mode: TreeModeDir, Name: "dir", Hash: blob})
			},
		},
		{
			name: "file entry points at tree",
			build: func(t *testing.T, s Storage) Hash {
				empty := mustWriteTree(t, s)
				return mustWriteTree(t, s, TreeEntry{Mode: TreeModeFile, Name: "f", Hash: empty})
			},
		},
		{
			name: "commit tree line points at blob",
			build: func(t *testing.T, s Storage) Hash {
				blob := mustWriteBlob(t, s, "a")
				h, err := WriteCommit(s, &CommitObj{TreeHash: blob, Author: sig, Committer: sig, Message: "m"})
				if err != nil {
					t.Fatalf("WriteCommit: %v", err)
				}
				return h
			},
		},
		{
			name: "parent points at tree",
			build: func(t *testing.T, s Storage) Hash {
				tree := mustWriteTree(t, s)
				h, err := WriteCommit(s, &CommitObj{TreeHash: tree, Parent: tree, Author: sig, Committer: sig, Message: "m"})
				if err != nil {
					t.Fatalf("WriteCommit: %v", err)
				}
				return h
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewMemoryStore()
			root := tc.build(t, s)
			if _, err := Reachable(s, []Hash{root}); !errors.Is(err, ErrTypeMismatch) {
				t.Fatalf("Reachable error = %v, want ErrTypeMismatch", err)
			}
		})
	}
}

func mustWriteBlob(t *testing.T, s Storage, data string) Hash {
	t.Helper()
	h, _, err := WriteBlob(s, &Blob{Data: []byte(data)})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	return h
}

func mustWriteTree(t *testing.T, s Storage, entries ...TreeEntry) Hash {
	t.Helper()
	h, err := WriteTree(s, &TreeObj{Entries: entries})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	return h
}
