package object

// Hash is a 64-character lowercase hex-encoded SHA-256 digest.
type Hash string

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeTree   ObjectType = "tree"
	TypeCommit ObjectType = "commit"
)

// Valid reports whether t is one of the known object types.
func (t ObjectType) Valid() bool {
	switch t {
	case TypeBlob, TypeTree, TypeCommit:
		return true
	}
	return false
}

const (
	// Tree entry modes, written as literal ASCII in tree records.
	TreeModeFile = "100644"
	TreeModeDir  = "040000"
)

// Blob holds raw file data.
type Blob struct {
	Data []byte
}

// TreeEntry is one entry in a tree object.
type TreeEntry struct {
	Mode string
	Name string
	Hash Hash
}

// IsDir reports whether the entry references a subtree.
func (e TreeEntry) IsDir() bool {
	return e.Mode == TreeModeDir
}

// TreeObj holds the ordered entries of a single directory level. Entries
// are serialized in slice order; the hash depends on that order.
type TreeObj struct {
	Entries []TreeEntry
}

// Signature identifies who made a commit and when.
type Signature struct {
	Name      string // "name <email>"
	Timestamp int64  // unix seconds
	Timezone  string // "+0000"
}

// CommitObj represents a commit pointing to a tree with metadata.
type CommitObj struct {
	TreeHash  Hash
	Parent    Hash // empty for the first commit
	Author    Signature
	Committer Signature
	Signature string // optional detached signature over the unsigned payload
	Message   string
}
