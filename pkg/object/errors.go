package object

import "errors"

var (
	// ErrIO wraps any underlying read, write, or create failure.
	ErrIO = errors.New("object i/o failure")
	// ErrNotFound means no object exists at the hash's derived path.
	ErrNotFound = errors.New("object not found")
	// ErrCorruptObject means stored bytes failed to inflate or do not hash
	// to the name they are stored under.
	ErrCorruptObject = errors.New("corrupt object")
	// ErrMalformedObject means decoded bytes do not follow the
	// "type len\0content" envelope or the tree record layout.
	ErrMalformedObject = errors.New("malformed object")
	// ErrMalformedMetadata means commit content does not follow the
	// expected header layout.
	ErrMalformedMetadata = errors.New("malformed commit metadata")
	ErrInvalidHash       = errors.New("invalid object hash")
	ErrTypeMismatch      = errors.New("object type mismatch")
)
