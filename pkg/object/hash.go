package object

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// HashSize is the length in bytes of a raw SHA-256 digest.
const HashSize = sha256.Size

// HashBytes computes the SHA-256 of data and returns it as a lowercase
// hex-encoded Hash. For object hashes data must already carry the
// "type len\0" header; see HashObject.
func HashBytes(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// HashObject computes the SHA-256 of the envelope "type len\0content".
func HashObject(objType ObjectType, data []byte) Hash {
	h := sha256.New()
	h.Write(header(objType, len(data)))
	h.Write(data)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

// ValidateHash checks that h is 64 lowercase hex characters.
func ValidateHash(h Hash) error {
	if len(h) != 2*HashSize {
		return fmt.Errorf("%w: %q has length %d", ErrInvalidHash, h, len(h))
	}
	for i := 0; i < len(h); i++ {
		c := h[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return fmt.Errorf("%w: %q", ErrInvalidHash, h)
		}
	}
	return nil
}

// Raw returns the 32 raw digest bytes of h.
func (h Hash) Raw() ([]byte, error) {
	if err := ValidateHash(h); err != nil {
		return nil, err
	}
	return hex.DecodeString(string(h))
}

// Short returns the first 8 characters of h, for display.
func (h Hash) Short() string {
	if len(h) > 8 {
		return string(h[:8])
	}
	return string(h)
}

// HashFromRaw converts a raw 32-byte digest into its hex form.
func HashFromRaw(raw []byte) (Hash, error) {
	if len(raw) != HashSize {
		return "", fmt.Errorf("%w: raw digest has %d bytes, want %d", ErrInvalidHash, len(raw), HashSize)
	}
	return Hash(hex.EncodeToString(raw)), nil
}
