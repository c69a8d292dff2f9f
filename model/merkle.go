package model

import (
	"github.com/iron-fish/chaincore/types"
	"lukechampine.com/blake3"
)

// merklePersonalization is the fixed base string domain-separating the
// transaction Merkle tree's hash from every other use of BLAKE3 in this
// module; each level appends its own one-byte index to this string.
const merklePersonalization = "ironfish-transaction-merkle-tree"

// NullNode pads a level whose sibling is missing, keeping the tree a full
// binary tree of depth ceil(log2(n)) regardless of leaf count.
var NullNode = levelHash(0, nil)

func levelHash(level byte, parts ...[]byte) types.Hash256 {
	h := blake3.New(32, nil)
	h.Write([]byte(merklePersonalization))
	h.Write([]byte{level})
	for _, p := range parts {
		h.Write(p)
	}
	var out types.Hash256
	copy(out[:], h.Sum(nil))
	return out
}

// bareHash hashes the personalization string alone, with no level byte
// appended. It is distinct from levelHash(0): the empty-tree root has no
// level to encode.
func bareHash() types.Hash256 {
	h := blake3.New(32, nil)
	h.Write([]byte(merklePersonalization))
	var out types.Hash256
	copy(out[:], h.Sum(nil))
	return out
}

// TransactionMerkleRoot computes the Merkle root over an ordered list of
// transaction hashes. An empty list produces H(personalization) with no
// level byte; a single leaf is paired with NullNode; the tree is full
// binary, with missing siblings at every level replaced by NullNode.
func TransactionMerkleRoot(leaves []types.Hash256) types.Hash256 {
	if len(leaves) == 0 {
		return bareHash()
	}

	level := make([]types.Hash256, len(leaves))
	copy(level, leaves)

	idx := byte(0)
	for len(level) > 1 || idx == 0 {
		next := make([]types.Hash256, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			var right types.Hash256
			if i+1 < len(level) {
				right = level[i+1]
			} else {
				right = NullNode
			}
			next = append(next, levelHash(idx, left.Bytes(), right.Bytes()))
		}
		level = next
		idx++
	}

	return level[0]
}
