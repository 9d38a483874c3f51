// Package objecthash implements the §4.A Hasher contract: fingerprinting
// arbitrary byte sequences to hex strings. Grounded in the teacher's
// pkg/types.Hash (crypto/*.Sum + hex.EncodeToString), generalized from a
// fixed-width [32]byte to the hex-string Key shape spec.md requires so
// that prefix lookups (§4.B) can operate on it directly.
package objecthash

import (
	"crypto/sha1"
	"encoding/hex"
)

// KeyLen is the length in hex characters of a full key produced by Hasher.
const KeyLen = 40

// Hasher fingerprints bytes to a hex string. A pure, deterministic
// strategy; the produced key width is part of the on-disk format (§4.A).
type Hasher interface {
	Hash(data []byte) string
}

// SHA1 is the default Hasher.
type SHA1 struct{}

// Hash returns the 40-character hex SHA-1 digest of data.
func (SHA1) Hash(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// Default is the Hasher used when none is supplied explicitly.
var Default Hasher = SHA1{}
