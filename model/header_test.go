package model

import (
	"testing"

	"github.com/iron-fish/chaincore/consensus"
	"github.com/iron-fish/chaincore/target"
	"github.com/stretchr/testify/require"
)

func testConsensusWithFishHashAt(seq uint32) *consensus.Consensus {
	return consensus.New(map[consensus.Feature]consensus.Policy{
		consensus.FeatureFishHash: consensus.AtSequence(seq),
	}, 60, 10, 42_000_000, 2_100_000)
}

func sampleRawHeader(sequence uint32) RawBlockHeader {
	maxTarget := target.MaxTargetValue()
	var graffiti [GraffitiSize]byte
	copy(graffiti[:], "test-graffiti")

	return RawBlockHeader{
		Sequence:              sequence,
		Target:                maxTarget,
		Randomness:            42,
		TimestampMillis:       1_700_000_000_000,
		Graffiti:              graffiti,
	}
}

func TestHeaderHashIsDeterministic(t *testing.T) {
	c := testConsensusWithFishHashAt(1000)
	h := sampleRawHeader(1)

	require.Equal(t, h.Hash(c), h.Hash(c))
}

func TestHeaderHashChangesWithField(t *testing.T) {
	c := testConsensusWithFishHashAt(1000)
	h1 := sampleRawHeader(1)
	h2 := h1
	h2.Randomness = 43

	require.NotEqual(t, h1.Hash(c), h2.Hash(c))
}

func TestFishHashSwitchOverUsesDifferentPreimageOrder(t *testing.T) {
	c := testConsensusWithFishHashAt(10)

	preFork := sampleRawHeader(9)
	atFork := sampleRawHeader(10)

	require.False(t, c.IsActive(consensus.FeatureFishHash, preFork.Sequence))
	require.True(t, c.IsActive(consensus.FeatureFishHash, atFork.Sequence))

	require.Equal(t, preFork.blake3Preimage(), preFork.HashPreimage(c))
	require.Equal(t, atFork.fishHashPreimage(), atFork.HashPreimage(c))
	require.NotEqual(t, preFork.blake3Preimage(), atFork.fishHashPreimage())
}

func TestHeaderWorkAccumulatesFromParent(t *testing.T) {
	c := testConsensusWithFishHashAt(1000)

	genesisRaw := sampleRawHeader(1)
	genesis := NewBlockHeader(genesisRaw, c, nil)

	childRaw := sampleRawHeader(2)
	childRaw.PreviousBlockHash = genesis.Hash()
	child := NewBlockHeader(childRaw, c, genesis.Work())

	want := genesis.Work()
	want.Add(want, childRaw.Target.ToDifficulty())
	require.Equal(t, 0, child.Work().Cmp(want))
}
