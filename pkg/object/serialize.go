package object

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Envelope
// ---------------------------------------------------------------------------

func header(objType ObjectType, n int) []byte {
	return []byte(string(objType) + " " + strconv.Itoa(n) + "\x00")
}

// Encode produces the store bytes "type len\0content" for an object.
func Encode(objType ObjectType, content []byte) []byte {
	hdr := header(objType, len(content))
	raw := make([]byte, 0, len(hdr)+len(content))
	raw = append(raw, hdr...)
	return append(raw, content...)
}

// Decode splits store bytes on the first NUL and validates the header.
// The returned content aliases raw and is never interpreted as text.
func Decode(raw []byte) (ObjectType, []byte, error) {
	nulIdx := bytes.IndexByte(raw, 0)
	if nulIdx < 0 {
		return "", nil, fmt.Errorf("%w: no NUL after header", ErrMalformedObject)
	}
	hdr := string(raw[:nulIdx])
	content := raw[nulIdx+1:]

	typ, lenText, ok := strings.Cut(hdr, " ")
	if !ok {
		return "", nil, fmt.Errorf("%w: invalid header %q", ErrMalformedObject, hdr)
	}
	objType := ObjectType(typ)
	if !objType.Valid() {
		return "", nil, fmt.Errorf("%w: unknown type %q", ErrMalformedObject, typ)
	}
	length, err := strconv.Atoi(lenText)
	if err != nil || length < 0 || strconv.Itoa(length) != lenText {
		return "", nil, fmt.Errorf("%w: invalid length %q", ErrMalformedObject, lenText)
	}
	if len(content) != length {
		return "", nil, fmt.Errorf("%w: length mismatch (header=%d, actual=%d)", ErrMalformedObject, length, len(content))
	}
	return objType, content, nil
}

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// MarshalBlob serializes a Blob to raw bytes (identity).
func MarshalBlob(b *Blob) []byte {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out
}

// UnmarshalBlob deserializes raw bytes into a Blob.
func UnmarshalBlob(data []byte) (*Blob, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return &Blob{Data: out}, nil
}

// ---------------------------------------------------------------------------
// TreeObj
// ---------------------------------------------------------------------------

// MarshalTree serializes a TreeObj as concatenated records
//
//	<mode> <name>\0<32 raw hash bytes>
//
// in slice order. Entry names must not contain '/' or NUL.
func MarshalTree(tr *TreeObj) ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range tr.Entries {
		if e.Mode != TreeModeFile && e.Mode != TreeModeDir {
			return nil, fmt.Errorf("marshal tree: entry %q: unknown mode %q", e.Name, e.Mode)
		}
		if e.Name == "" || strings.ContainsAny(e.Name, "/\x00") {
			return nil, fmt.Errorf("marshal tree: invalid entry name %q", e.Name)
		}
		raw, err := e.Hash.Raw()
		if err != nil {
			return nil, fmt.Errorf("marshal tree: entry %q: %w", e.Name, err)
		}
		buf.WriteString(e.Mode)
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		buf.Write(raw)
	}
	return buf.Bytes(), nil
}

// UnmarshalTree parses tree records back into a TreeObj.
func UnmarshalTree(data []byte) (*TreeObj, error) {
	tr := &TreeObj{}
	for len(data) > 0 {
		sp := bytes.IndexByte(data, ' ')
		if sp < 0 {
			return nil, fmt.Errorf("%w: tree record without mode separator", ErrMalformedObject)
		}
		mode := string(data[:sp])
		if mode != TreeModeFile && mode != TreeModeDir {
			return nil, fmt.Errorf("%w: unknown tree mode %q", ErrMalformedObject, mode)
		}
		data = data[sp+1:]

		nul := bytes.IndexByte(data, 0)
		if nul < 0 {
			return nil, fmt.Errorf("%w: tree record without name terminator", ErrMalformedObject)
		}
		name := string(data[:nul])
		data = data[nul+1:]

		if len(data) < HashSize {
			return nil, fmt.Errorf("%w: tree entry %q truncated hash", ErrMalformedObject, name)
		}
		h, err := HashFromRaw(data[:HashSize])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedObject, err)
		}
		data = data[HashSize:]

		tr.Entries = append(tr.Entries, TreeEntry{Mode: mode, Name: name, Hash: h})
	}
	return tr, nil
}

// ---------------------------------------------------------------------------
// CommitObj
// ---------------------------------------------------------------------------

// MarshalCommit serializes a CommitObj:
//
//	tree H
//	parent H       (omitted for the first commit)
//	author NAME TS TZ
//	committer NAME TS TZ
//	signature S    (optional)
//
//	message
func MarshalCommit(c *CommitObj) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.TreeHash)
	if c.Parent != "" {
		fmt.Fprintf(&buf, "parent %s\n", c.Parent)
	}
	fmt.Fprintf(&buf, "author %s\n", c.Author)
	fmt.Fprintf(&buf, "committer %s\n", c.Committer)
	if strings.TrimSpace(c.Signature) != "" {
		fmt.Fprintf(&buf, "signature %s\n", c.Signature)
	}
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

// String renders the signature as "name timestamp tz".
func (s Signature) String() string {
	return fmt.Sprintf("%s %d %s", s.Name, s.Timestamp, s.Timezone)
}

// ParseSignature parses "name timestamp tz". The name may contain spaces.
func ParseSignature(s string) (Signature, error) {
	rest, tz, ok := cutLast(s)
	if !ok {
		return Signature{}, fmt.Errorf("%w: signature %q missing timezone", ErrMalformedMetadata, s)
	}
	name, tsText, ok := cutLast(rest)
	if !ok {
		return Signature{}, fmt.Errorf("%w: signature %q missing timestamp", ErrMalformedMetadata, s)
	}
	ts, err := strconv.ParseInt(tsText, 10, 64)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: bad timestamp %q", ErrMalformedMetadata, tsText)
	}
	if !validTimezone(tz) {
		return Signature{}, fmt.Errorf("%w: bad timezone %q", ErrMalformedMetadata, tz)
	}
	return Signature{Name: name, Timestamp: ts, Timezone: tz}, nil
}

// validTimezone reports whether tz has the form [+-]HHMM.
func validTimezone(tz string) bool {
	if len(tz) != 5 || (tz[0] != '+' && tz[0] != '-') {
		return false
	}
	for i := 1; i < len(tz); i++ {
		if tz[i] < '0' || tz[i] > '9' {
			return false
		}
	}
	return true
}

func cutLast(s string) (before, after string, ok bool) {
	i := strings.LastIndexByte(s, ' ')
	if i < 0 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

// UnmarshalCommit parses a CommitObj from its serialized form. The header
// ends at the first blank line; everything after it is the message.
func UnmarshalCommit(data []byte) (*CommitObj, error) {
	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return nil, fmt.Errorf("%w: missing header/message separator", ErrMalformedMetadata)
	}
	hdr := string(data[:idx])
	c := &CommitObj{Message: string(data[idx+2:])}

	var seenAuthor, seenCommitter bool
	for _, line := range strings.Split(hdr, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("%w: malformed header line %q", ErrMalformedMetadata, line)
		}
		switch key {
		case "tree":
			if c.TreeHash != "" {
				return nil, fmt.Errorf("%w: duplicate tree line", ErrMalformedMetadata)
			}
			if err := ValidateHash(Hash(val)); err != nil {
				return nil, fmt.Errorf("%w: tree: %v", ErrMalformedMetadata, err)
			}
			c.TreeHash = Hash(val)
		case "parent":
			if c.Parent != "" {
				return nil, fmt.Errorf("%w: more than one parent", ErrMalformedMetadata)
			}
			if err := ValidateHash(Hash(val)); err != nil {
				return nil, fmt.Errorf("%w: parent: %v", ErrMalformedMetadata, err)
			}
			c.Parent = Hash(val)
		case "author":
			sig, err := ParseSignature(val)
			if err != nil {
				return nil, fmt.Errorf("author: %w", err)
			}
			c.Author, seenAuthor = sig, true
		case "committer":
			sig, err := ParseSignature(val)
			if err != nil {
				return nil, fmt.Errorf("committer: %w", err)
			}
			c.Committer, seenCommitter = sig, true
		case "signature":
			c.Signature = val
		default:
			return nil, fmt.Errorf("%w: unknown header key %q", ErrMalformedMetadata, key)
		}
	}
	switch {
	case c.TreeHash == "":
		return nil, fmt.Errorf("%w: missing tree line", ErrMalformedMetadata)
	case !seenAuthor:
		return nil, fmt.Errorf("%w: missing author line", ErrMalformedMetadata)
	case !seenCommitter:
		return nil, fmt.Errorf("%w: missing committer line", ErrMalformedMetadata)
	}
	return c, nil
}

// CommitSigningPayload returns the canonical bytes that are signed for a
// commit. The payload excludes the signature field itself.
func CommitSigningPayload(c *CommitObj) []byte {
	if c == nil {
		return nil
	}
	copyCommit := *c
	copyCommit.Signature = ""
	return MarshalCommit(&copyCommit)
}
