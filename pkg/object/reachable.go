package object

import (
	"fmt"
	"sort"
	"strings"
)

// objectRef is a hash to visit together with the type its referrer
// expects. Roots carry an empty want and may be of any type.
type objectRef struct {
	hash Hash
	want ObjectType
}

// Reachable returns every object reachable from roots by following commit
// tree/parent links and tree entries, mapped to its type. Each object is
// read through Read, so a missing, corrupt, or malformed object anywhere in
// the graph aborts the walk with that error. A link whose target has the
// wrong type (a commit tree line or 040000 entry that is not a tree, a
// 100644 entry that is not a blob, a parent that is not a commit) fails
// with ErrTypeMismatch.
func Reachable(s Storage, roots []Hash) (map[Hash]ObjectType, error) {
	roots = uniqueNormalizedHashes(roots)
	out := make(map[Hash]ObjectType, len(roots))

	stack := make([]objectRef, 0, len(roots))
	for _, h := range roots {
		stack = append(stack, objectRef{hash: h})
	}
	for len(stack) > 0 {
		ref := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen, ok := out[ref.hash]; ok {
			if ref.want != "" && seen != ref.want {
				return nil, typeMismatch(ref, seen)
			}
			continue
		}

		objType, data, err := Read(s, ref.hash)
		if err != nil {
			return nil, fmt.Errorf("reachable: %w", err)
		}
		if ref.want != "" && objType != ref.want {
			return nil, typeMismatch(ref, objType)
		}
		out[ref.hash] = objType

		refs, err := referencedObjects(objType, data)
		if err != nil {
			return nil, fmt.Errorf("reachable parse %s (%s): %w", ref.hash, objType, err)
		}
		stack = append(stack, refs...)
	}

	return out, nil
}

func typeMismatch(ref objectRef, got ObjectType) error {
	return fmt.Errorf("reachable %s: %w: got %q, want %q", ref.hash, ErrTypeMismatch, got, ref.want)
}

func referencedObjects(objType ObjectType, data []byte) ([]objectRef, error) {
	switch objType {
	case TypeBlob:
		return nil, nil
	case TypeCommit:
		commit, err := UnmarshalCommit(data)
		if err != nil {
			return nil, err
		}
		refs := []objectRef{{hash: commit.TreeHash, want: TypeTree}}
		if commit.Parent != "" {
			refs = append(refs, objectRef{hash: commit.Parent, want: TypeCommit})
		}
		return refs, nil
	case TypeTree:
		tree, err := UnmarshalTree(data)
		if err != nil {
			return nil, err
		}
		refs := make([]objectRef, 0, len(tree.Entries))
		for _, e := range tree.Entries {
			want := TypeBlob
			if e.IsDir() {
				want = TypeTree
			}
			refs = append(refs, objectRef{hash: e.Hash, want: want})
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("unsupported object type %q", objType)
	}
}

func uniqueNormalizedHashes(in []Hash) []Hash {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[Hash]struct{}, len(in))
	out := make([]Hash, 0, len(in))
	for _, h := range in {
		h = Hash(strings.TrimSpace(string(h)))
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
