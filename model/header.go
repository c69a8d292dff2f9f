// Package model holds the block header and block types: the canonical hash
// preimage byte layout (two field orders, selected by consensus feature),
// the stored on-disk header record, and the transaction Merkle tree.
//
// A header's hash and cumulative work are computed once at construction
// and exposed read-only; a header whose randomness changes must be
// reconstructed, never mutated in place.
package model

import (
	"encoding/binary"
	"math/big"

	"github.com/iron-fish/chaincore/consensus"
	"github.com/iron-fish/chaincore/target"
	"github.com/iron-fish/chaincore/types"
	"lukechampine.com/blake3"
)

const GraffitiSize = 32

// RawBlockHeader is the set of fields a miner or verifier constructs
// directly, before the hash is computed.
type RawBlockHeader struct {
	Sequence              uint32
	PreviousBlockHash      types.Hash256
	NoteCommitment         types.Hash256
	TransactionCommitment  types.Hash256
	Target                 target.Target
	Randomness             uint64
	TimestampMillis        uint64
	Graffiti               [GraffitiSize]byte
	StateCommitment        *types.Hash256 // present iff EVM-descriptions active at Sequence
}

// HashPreimage returns the canonical byte sequence that gets hashed,
// choosing between the pre-fork and FishHash field orders based on
// whether FishHash is active at this header's sequence.
func (h *RawBlockHeader) HashPreimage(c *consensus.Consensus) []byte {
	if c.IsActive(consensus.FeatureFishHash, h.Sequence) {
		return h.fishHashPreimage()
	}
	return h.blake3Preimage()
}

// blake3Preimage is the pre-fork field order: randomness(8,BE) |
// sequence(4,LE) | previousBlockHash | noteCommitment |
// transactionCommitment | target(32,BE) | timestamp(8,LE) | graffiti(32) |
// stateCommitment?(32).
func (h *RawBlockHeader) blake3Preimage() []byte {
	buf := make([]byte, 0, 8+4+32+32+32+32+8+GraffitiSize+32)

	var randBuf [8]byte
	binary.BigEndian.PutUint64(randBuf[:], h.Randomness)
	buf = append(buf, randBuf[:]...)

	var seqBuf [4]byte
	binary.LittleEndian.PutUint32(seqBuf[:], h.Sequence)
	buf = append(buf, seqBuf[:]...)

	buf = append(buf, h.PreviousBlockHash.Bytes()...)
	buf = append(buf, h.NoteCommitment.Bytes()...)
	buf = append(buf, h.TransactionCommitment.Bytes()...)

	targetBytes := h.Target.Bytes32()
	buf = append(buf, targetBytes[:]...)

	var tsBuf [8]byte
	binary.LittleEndian.PutUint64(tsBuf[:], h.TimestampMillis)
	buf = append(buf, tsBuf[:]...)

	buf = append(buf, h.Graffiti[:]...)

	if h.StateCommitment != nil {
		buf = append(buf, h.StateCommitment.Bytes()...)
	}

	return buf
}

// fishHashPreimage is the FishHash-active field order: graffiti | sequence |
// previousBlockHash | noteCommitment | transactionCommitment | target |
// timestamp | randomness | stateCommitment?. This reorder is a hard ABI
// decision tied to the mining algorithm, not a refactor of blake3Preimage.
func (h *RawBlockHeader) fishHashPreimage() []byte {
	buf := make([]byte, 0, GraffitiSize+4+32+32+32+32+8+8+32)

	buf = append(buf, h.Graffiti[:]...)

	var seqBuf [4]byte
	binary.LittleEndian.PutUint32(seqBuf[:], h.Sequence)
	buf = append(buf, seqBuf[:]...)

	buf = append(buf, h.PreviousBlockHash.Bytes()...)
	buf = append(buf, h.NoteCommitment.Bytes()...)
	buf = append(buf, h.TransactionCommitment.Bytes()...)

	targetBytes := h.Target.Bytes32()
	buf = append(buf, targetBytes[:]...)

	var tsBuf [8]byte
	binary.LittleEndian.PutUint64(tsBuf[:], h.TimestampMillis)
	buf = append(buf, tsBuf[:]...)

	var randBuf [8]byte
	binary.BigEndian.PutUint64(randBuf[:], h.Randomness)
	buf = append(buf, randBuf[:]...)

	if h.StateCommitment != nil {
		buf = append(buf, h.StateCommitment.Bytes()...)
	}

	return buf
}

// Hash computes the header's hash, selecting BLAKE3 or FishHash per the
// consensus activation policy.
func (h *RawBlockHeader) Hash(c *consensus.Consensus) types.Hash256 {
	preimage := h.HashPreimage(c)

	if c.IsActive(consensus.FeatureFishHash, h.Sequence) {
		return fishHash(preimage)
	}

	digest := blake3.Sum256(preimage)
	return types.Hash256(digest)
}

// BlockHeader is a RawBlockHeader plus the fields computed once a header is
// attached to a chain: its hash, its cumulative work, and the sizes of the
// note/nullifier trees after this block. The hash is computed at
// construction time (NewBlockHeader) and exposed read-only; a header whose
// randomness changes must be reconstructed, never mutated in place.
type BlockHeader struct {
	Raw RawBlockHeader

	hash                    types.Hash256
	work                    *big.Int
	NoteSize                uint64
	NullifierCommitmentSize uint64
}

// NewBlockHeader computes and caches the header's hash. parentWork is nil
// only for genesis, in which case Work is this header's own difficulty.
func NewBlockHeader(raw RawBlockHeader, c *consensus.Consensus, parentWork *big.Int) *BlockHeader {
	h := &BlockHeader{Raw: raw}
	h.hash = raw.Hash(c)

	ownDifficulty := raw.Target.ToDifficulty()
	if parentWork == nil {
		h.work = ownDifficulty
	} else {
		h.work = new(big.Int).Add(parentWork, ownDifficulty)
	}

	return h
}

func (h *BlockHeader) Hash() types.Hash256 {
	return h.hash
}

// Work returns the cumulative difficulty from genesis to this header.
func (h *BlockHeader) Work() *big.Int {
	return new(big.Int).Set(h.work)
}

// IsHeavierThan orders two chain tips by cumulative work: greater work
// wins; ties break on larger sequence, then on larger target difficulty,
// then on the smaller hash (byte-lexicographic).
func (h *BlockHeader) IsHeavierThan(o *BlockHeader) bool {
	if cmp := h.work.Cmp(o.work); cmp != 0 {
		return cmp > 0
	}
	if h.Raw.Sequence != o.Raw.Sequence {
		return h.Raw.Sequence > o.Raw.Sequence
	}
	hd := h.Raw.Target.ToDifficulty()
	od := o.Raw.Target.ToDifficulty()
	if cmp := hd.Cmp(od); cmp != 0 {
		return cmp > 0
	}
	return h.hash.Less(o.hash)
}

// IsLaterThan orders two headers by gossip recency: larger sequence wins,
// tiebreak on smaller hash.
func (h *BlockHeader) IsLaterThan(o *BlockHeader) bool {
	if h.Raw.Sequence != o.Raw.Sequence {
		return h.Raw.Sequence > o.Raw.Sequence
	}
	return h.hash.Less(o.hash)
}
