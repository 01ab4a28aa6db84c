package object

import (
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/pjbgf/sha1cd"
)

// HashSize is the length in bytes of a raw object digest.
const HashSize = 20

// Hash is a 160-bit SHA-1 object digest.
type Hash [HashSize]byte

// ZeroHash is the all-zero digest; no object hashes to it in practice.
var ZeroHash Hash

// String returns the 40-character lowercase hex form.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero digest.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// Short returns the first 8 hex characters.
func (h Hash) Short() string {
	return h.String()[:8]
}

// ParseHash parses a 40-character hex digest.
func ParseHash(s string) (Hash, error) {
	var h Hash
	s = strings.TrimSpace(s)
	if len(s) != 2*HashSize {
		return h, fmt.Errorf("%w: %q: want %d hex characters", ErrInvalidHash, s, 2*HashSize)
	}
	if _, err := hex.Decode(h[:], []byte(strings.ToLower(s))); err != nil {
		return h, fmt.Errorf("%w: %q: %v", ErrInvalidHash, s, err)
	}
	return h, nil
}

// MustParseHash is ParseHash for constants in tests and fixtures.
func MustParseHash(s string) Hash {
	h, err := ParseHash(s)
	if err != nil {
		panic(err)
	}
	return h
}

func newHasher() hash.Hash {
	return sha1cd.New()
}

// collisionResistant is implemented by sha1cd digests.
type collisionResistant interface {
	CollisionResistantSum(b []byte) ([]byte, bool)
}

// sumHasher finalizes h, failing if sha1cd detected a collision attack.
func sumHasher(h hash.Hash) (Hash, error) {
	var out Hash
	if cr, ok := h.(collisionResistant); ok {
		sum, collision := cr.CollisionResistantSum(nil)
		if collision {
			return out, ErrHashCollision
		}
		copy(out[:], sum)
		return out, nil
	}
	copy(out[:], h.Sum(nil))
	return out, nil
}

// HashObject computes the SHA-1 of the envelope "type len\0content",
// exactly as Git does for loose objects.
func HashObject(objType ObjectType, data []byte) Hash {
	h := newHasher()
	fmt.Fprintf(h, "%s %d\x00", objType, len(data))
	h.Write(data)
	sum, _ := sumHasher(h)
	return sum
}
