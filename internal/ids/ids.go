// Package ids generates compact identifiers and stable content keys.
package ids

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidBase62 = errors.New("not a base62 encoded uuid")

// StableKey returns a consistent hex key for the given parts. Parts are
// joined with a NUL separator so ("ab", "c") and ("a", "bc") differ.
func StableKey(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}

// NewBase62 returns a random uuid in its short base62 form.
func NewBase62() string {
	return UUIDToBase62(uuid.New())
}

// UUIDToBase62 encodes id with the digits 0-9a-zA-Z.
func UUIDToBase62(id uuid.UUID) string {
	return new(big.Int).SetBytes(id[:]).Text(62)
}

// Base62ToUUID reverses UUIDToBase62.
func Base62ToUUID(s string) (uuid.UUID, error) {
	n, ok := new(big.Int).SetString(s, 62)
	if !ok || n.Sign() < 0 || n.BitLen() > 128 {
		return uuid.Nil, ErrInvalidBase62
	}
	var id uuid.UUID
	n.FillBytes(id[:])
	return id, nil
}
