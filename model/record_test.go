package model

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iron-fish/chaincore/types"
)

func TestHeaderRecordRoundTrip(t *testing.T) {
	c := testConsensusWithFishHashAt(1000)
	raw := sampleRawHeader(500)
	h := NewBlockHeader(raw, c, nil)
	h.NoteSize = 17
	h.NullifierCommitmentSize = 9

	buf := EncodeHeaderRecord(h)
	decoded, err := DecodeHeaderRecord(buf)
	require.NoError(t, err)

	require.Equal(t, h.Raw.Sequence, decoded.Raw.Sequence)
	require.Equal(t, h.Raw.PreviousBlockHash, decoded.Raw.PreviousBlockHash)
	require.Equal(t, h.Raw.NoteCommitment, decoded.Raw.NoteCommitment)
	require.Equal(t, h.Raw.TransactionCommitment, decoded.Raw.TransactionCommitment)
	require.Equal(t, h.Raw.Target.Bytes32(), decoded.Raw.Target.Bytes32())
	require.Equal(t, h.Raw.TimestampMillis, decoded.Raw.TimestampMillis)
	require.Equal(t, h.Raw.Graffiti, decoded.Raw.Graffiti)
	require.Equal(t, h.Raw.Randomness, decoded.Raw.Randomness)
	require.Equal(t, h.Hash(), decoded.Hash())
	require.Equal(t, h.Work().String(), decoded.Work().String())
	require.EqualValues(t, 17, decoded.NoteSize)
	require.EqualValues(t, 9, decoded.NullifierCommitmentSize)
}

func TestHeaderRecordRoundTripWithStateCommitment(t *testing.T) {
	c := testConsensusWithFishHashAt(1000)
	raw := sampleRawHeader(500)
	sc := types.Hash256{9, 9, 9}
	raw.StateCommitment = &sc
	h := NewBlockHeader(raw, c, nil)

	buf := EncodeHeaderRecord(h)
	decoded, err := DecodeHeaderRecord(buf)
	require.NoError(t, err)

	require.NotNil(t, decoded.Raw.StateCommitment)
	require.Equal(t, sc, *decoded.Raw.StateCommitment)
}

func TestDecodeHeaderRecordRejectsBadVersion(t *testing.T) {
	c := testConsensusWithFishHashAt(1000)
	h := NewBlockHeader(sampleRawHeader(1), c, nil)
	buf := EncodeHeaderRecord(h)
	buf[0] = recordVersion + 1

	_, err := DecodeHeaderRecord(buf)
	require.Error(t, err)
}

func TestDecodeHeaderRecordRejectsTruncated(t *testing.T) {
	c := testConsensusWithFishHashAt(1000)
	h := NewBlockHeader(sampleRawHeader(1), c, nil)
	buf := EncodeHeaderRecord(h)

	_, err := DecodeHeaderRecord(buf[:len(buf)/2])
	require.Error(t, err)
}
