package object

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zlib"
	"go.uber.org/multierr"
)

// Storage persists encoded objects by hash. Save is write-once: saving a
// hash that is already present reports false and leaves the entry as is.
type Storage interface {
	Save(h Hash, raw []byte) (bool, error)
	Load(h Hash) ([]byte, error)
	Has(h Hash) (bool, error)
}

// Store is a content-addressed object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123... Each file holds the
// zlib-compressed "type len\0content" bytes.
type Store struct {
	root string
}

var _ Storage = (*Store)(nil)

// NewStore creates a Store rooted at the given directory. The objects/
// subdirectory is created lazily on first write.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// objectPath returns the filesystem path for a given hash.
func (s *Store) objectPath(h Hash) string {
	return filepath.Join(s.root, "objects", string(h[:2]), string(h[2:]))
}

// Has reports whether the store contains an object with the given hash.
// Presence of the file is the only check.
func (s *Store) Has(h Hash) (bool, error) {
	if err := ValidateHash(h); err != nil {
		return false, err
	}
	_, err := os.Stat(s.objectPath(h))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("object stat %s: %w: %w", h, ErrIO, err)
}

// Save compresses raw and writes it under h. It returns false without
// writing when the entry already exists. Writes are atomic: data is
// written to a temp file and then renamed into place.
func (s *Store) Save(h Hash, raw []byte) (bool, error) {
	exists, err := s.Has(h)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	compressed, err := compress(raw)
	if err != nil {
		return false, fmt.Errorf("object save %s: compress: %w: %w", h, ErrIO, err)
	}

	dir := filepath.Join(s.root, "objects", string(h[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("object save mkdir: %w: %w", ErrIO, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return false, fmt.Errorf("object save tmpfile: %w: %w", ErrIO, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(compressed); err != nil {
		err = multierr.Combine(err, tmp.Close(), os.Remove(tmpName))
		return false, fmt.Errorf("object save: %w: %w", ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		err = multierr.Append(err, os.Remove(tmpName))
		return false, fmt.Errorf("object save close: %w: %w", ErrIO, err)
	}
	if err := os.Rename(tmpName, s.objectPath(h)); err != nil {
		err = multierr.Append(err, os.Remove(tmpName))
		return false, fmt.Errorf("object save rename: %w: %w", ErrIO, err)
	}
	return true, nil
}

// Load reads and fully inflates the entry stored under h.
func (s *Store) Load(h Hash) ([]byte, error) {
	if err := ValidateHash(h); err != nil {
		return nil, err
	}
	compressed, err := os.ReadFile(s.objectPath(h))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("object load %s: %w", h, ErrNotFound)
		}
		return nil, fmt.Errorf("object load %s: %w: %w", h, ErrIO, err)
	}
	raw, err := decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("object load %s: %w: %v", h, ErrCorruptObject, err)
	}
	return raw, nil
}

func compress(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(raw); err != nil {
		return nil, multierr.Append(err, zw.Close())
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(compressed []byte) (_ []byte, retErr error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer func() {
		retErr = multierr.Append(retErr, zr.Close())
	}()
	return io.ReadAll(zr)
}

// ---------------------------------------------------------------------------
// Typed convenience functions over any Storage
// ---------------------------------------------------------------------------

// Write encodes content as an object of objType, saves it, and returns its
// hash together with whether it was newly stored.
func Write(s Storage, objType ObjectType, content []byte) (Hash, bool, error) {
	raw := Encode(objType, content)
	h := HashBytes(raw)
	stored, err := s.Save(h, raw)
	if err != nil {
		return "", false, err
	}
	return h, stored, nil
}

// Read loads and decodes the object stored under h. Bytes that do not hash
// back to h are reported as corrupt.
func Read(s Storage, h Hash) (ObjectType, []byte, error) {
	raw, err := s.Load(h)
	if err != nil {
		return "", nil, err
	}
	if got := HashBytes(raw); got != h {
		return "", nil, fmt.Errorf("object read %s: %w: content hashes to %s", h, ErrCorruptObject, got)
	}
	objType, content, err := Decode(raw)
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: %w", h, err)
	}
	return objType, content, nil
}

func readTyped(s Storage, h Hash, want ObjectType) ([]byte, error) {
	objType, data, err := Read(s, h)
	if err != nil {
		return nil, err
	}
	if objType != want {
		return nil, fmt.Errorf("object %s: %w: got %q, want %q", h, ErrTypeMismatch, objType, want)
	}
	return data, nil
}

// WriteBlob serializes and stores a Blob.
func WriteBlob(s Storage, b *Blob) (Hash, bool, error) {
	return Write(s, TypeBlob, MarshalBlob(b))
}

// ReadBlob reads and deserializes a Blob.
func ReadBlob(s Storage, h Hash) (*Blob, error) {
	data, err := readTyped(s, h, TypeBlob)
	if err != nil {
		return nil, err
	}
	return UnmarshalBlob(data)
}

// WriteTree serializes and stores a TreeObj.
func WriteTree(s Storage, tr *TreeObj) (Hash, error) {
	data, err := MarshalTree(tr)
	if err != nil {
		return "", err
	}
	h, _, err := Write(s, TypeTree, data)
	return h, err
}

// ReadTree reads and deserializes a TreeObj.
func ReadTree(s Storage, h Hash) (*TreeObj, error) {
	data, err := readTyped(s, h, TypeTree)
	if err != nil {
		return nil, err
	}
	tr, err := UnmarshalTree(data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", h, err)
	}
	return tr, nil
}

// WriteCommit serializes and stores a CommitObj.
func WriteCommit(s Storage, c *CommitObj) (Hash, error) {
	h, _, err := Write(s, TypeCommit, MarshalCommit(c))
	return h, err
}

// ReadCommit reads and deserializes a CommitObj.
func ReadCommit(s Storage, h Hash) (*CommitObj, error) {
	data, err := readTyped(s, h, TypeCommit)
	if err != nil {
		return nil, err
	}
	c, err := UnmarshalCommit(data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", h, err)
	}
	return c, nil
}
