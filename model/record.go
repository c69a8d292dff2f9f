package model

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/iron-fish/chaincore/target"
	"github.com/iron-fish/chaincore/types"
)

// recordVersion is the leading version byte of the persisted header
// record; bumped whenever the on-disk layout changes.
const recordVersion byte = 1

// EncodeHeaderRecord serializes a BlockHeader into the on-disk format,
// which is a distinct byte layout from the hash preimage: little-endian
// target, work as var-length little-endian bytes, plus the hash and tree
// sizes. This record is never fed to the hash function.
func EncodeHeaderRecord(h *BlockHeader) []byte {
	buf := make([]byte, 0, 1+4+32+32+32+32+8+GraffitiSize+1+32+1+4+8+8+32)

	buf = append(buf, recordVersion)

	var seqBuf [4]byte
	binary.LittleEndian.PutUint32(seqBuf[:], h.Raw.Sequence)
	buf = append(buf, seqBuf[:]...)

	buf = append(buf, h.Raw.PreviousBlockHash.Bytes()...)
	buf = append(buf, h.Raw.NoteCommitment.Bytes()...)
	buf = append(buf, h.Raw.TransactionCommitment.Bytes()...)

	targetLE := reverse(h.Raw.Target.Bytes32())
	buf = append(buf, targetLE[:]...)

	var tsBuf [8]byte
	binary.LittleEndian.PutUint64(tsBuf[:], h.Raw.TimestampMillis)
	buf = append(buf, tsBuf[:]...)

	buf = append(buf, h.Raw.Graffiti[:]...)

	var randBuf [8]byte
	binary.LittleEndian.PutUint64(randBuf[:], h.Raw.Randomness)
	buf = append(buf, randBuf[:]...)

	if h.Raw.StateCommitment != nil {
		buf = append(buf, 1)
		buf = append(buf, h.Raw.StateCommitment.Bytes()...)
	} else {
		buf = append(buf, 0)
	}

	workBytes := h.work.Bytes()
	buf = append(buf, byte(len(workBytes)))
	buf = append(buf, reverseBytes(workBytes)...)

	buf = append(buf, h.hash.Bytes()...)

	var noteSizeBuf [8]byte
	binary.LittleEndian.PutUint64(noteSizeBuf[:], h.NoteSize)
	buf = append(buf, noteSizeBuf[:]...)

	var nullifierSizeBuf [8]byte
	binary.LittleEndian.PutUint64(nullifierSizeBuf[:], h.NullifierCommitmentSize)
	buf = append(buf, nullifierSizeBuf[:]...)

	return buf
}

// DecodeHeaderRecord parses the on-disk layout written by
// EncodeHeaderRecord. It does not recompute the hash: the stored hash is
// trusted, since it was validated on the path into the store.
func DecodeHeaderRecord(buf []byte) (*BlockHeader, error) {
	const fixedLen = 1 + 4 + 32 + 32 + 32 + 32 + 8 + GraffitiSize + 8 + 1
	if len(buf) < fixedLen+1 {
		return nil, fmt.Errorf("header record too short: %d bytes", len(buf))
	}
	if buf[0] != recordVersion {
		return nil, fmt.Errorf("unsupported header record version %d", buf[0])
	}

	off := 1
	raw := RawBlockHeader{}
	raw.Sequence = binary.LittleEndian.Uint32(buf[off:])
	off += 4

	copy(raw.PreviousBlockHash[:], buf[off:])
	off += 32
	copy(raw.NoteCommitment[:], buf[off:])
	off += 32
	copy(raw.TransactionCommitment[:], buf[off:])
	off += 32

	var targetBE [32]byte
	copy(targetBE[:], buf[off:])
	targetBE = reverse(targetBE)
	off += 32
	t, ok := target.FromBytesBE(targetBE[:])
	if !ok {
		return nil, fmt.Errorf("invalid target in header record")
	}
	raw.Target = t

	raw.TimestampMillis = binary.LittleEndian.Uint64(buf[off:])
	off += 8

	copy(raw.Graffiti[:], buf[off:])
	off += GraffitiSize

	raw.Randomness = binary.LittleEndian.Uint64(buf[off:])
	off += 8

	hasState := buf[off]
	off++
	if hasState == 1 {
		if len(buf) < off+32 {
			return nil, fmt.Errorf("header record truncated at state commitment")
		}
		var sc types.Hash256
		copy(sc[:], buf[off:])
		raw.StateCommitment = &sc
		off += 32
	}

	if len(buf) < off+1 {
		return nil, fmt.Errorf("header record truncated at work length")
	}
	workLen := int(buf[off])
	off++
	if len(buf) < off+workLen {
		return nil, fmt.Errorf("header record truncated at work bytes")
	}
	workBytesLE := buf[off : off+workLen]
	off += workLen
	work := new(big.Int).SetBytes(reverseBytes(workBytesLE))

	if len(buf) < off+32+8+8 {
		return nil, fmt.Errorf("header record truncated at trailer")
	}
	var hash types.Hash256
	copy(hash[:], buf[off:])
	off += 32

	noteSize := binary.LittleEndian.Uint64(buf[off:])
	off += 8
	nullifierSize := binary.LittleEndian.Uint64(buf[off:])

	h := &BlockHeader{
		Raw:                     raw,
		hash:                    hash,
		work:                    work,
		NoteSize:                noteSize,
		NullifierCommitmentSize: nullifierSize,
	}
	return h, nil
}

func reverse(b [32]byte) [32]byte {
	var out [32]byte
	for i := range b {
		out[i] = b[31-i]
	}
	return out
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}
