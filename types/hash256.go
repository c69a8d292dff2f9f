// Package types holds the small value types shared across the chain core
// packages: the 32-byte hash used everywhere as a commitment/identity, and
// its comparison rules.
package types

import (
	"bytes"
	"encoding/hex"
)

// Hash256 is an opaque 32-byte value: block hashes, previous-block hashes,
// note/nullifier/transaction commitments, and Merkle nodes all share this
// type. Equality is byte-equality; ordering is big-endian lexicographic.
type Hash256 [32]byte

// ZeroHash256 is the all-zero hash, used as the previous hash of genesis.
var ZeroHash256 Hash256

func HashFromBytes(b []byte) (Hash256, bool) {
	var h Hash256
	if len(b) != 32 {
		return h, false
	}
	copy(h[:], b)
	return h, true
}

func (h Hash256) Bytes() []byte {
	out := make([]byte, 32)
	copy(out, h[:])
	return out
}

func (h Hash256) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash256) IsZero() bool {
	return h == ZeroHash256
}

// Less reports whether h sorts before o under big-endian lexicographic
// comparison (the tiebreaker direction used by the heaviest-fork order).
func (h Hash256) Less(o Hash256) bool {
	return bytes.Compare(h[:], o[:]) < 0
}

func (h Hash256) Equal(o Hash256) bool {
	return h == o
}
