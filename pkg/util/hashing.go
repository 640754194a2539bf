package util

import (
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"
)

// idHexLen is the number of hex characters kept from the 64-bit digest.
// 12 hex chars = 48 bits of the digest, which keeps collision probability
// negligible at the scale of a single test project while staying readable.
const idHexLen = 12

// DeterministicID returns a stable, lowercase 12-hex-character identifier for
// the given value. Stable across runs and across machines.
func DeterministicID(value string) string {
	digest := xxh3.HashString(value)
	return fmt.Sprintf("%016x", digest)[:idHexLen]
}

// DeterministicIDParts hashes the given parts joined with a NUL separator so
// that ("ab","c") and ("a","bc") never collide by concatenation.
func DeterministicIDParts(parts ...string) string {
	return DeterministicID(strings.Join(parts, "\x00"))
}

// Hash64 returns the raw 64-bit digest of the value. Used where the full
// width matters, e.g. structural AST hashing.
func Hash64(value string) uint64 {
	return xxh3.HashString(value)
}
