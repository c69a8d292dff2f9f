package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaviestOrderingIsTotal(t *testing.T) {
	c := testConsensusWithFishHashAt(1000)

	a := NewBlockHeader(sampleRawHeader(5), c, nil)

	rawB := sampleRawHeader(5)
	rawB.Randomness = 99
	b := NewBlockHeader(rawB, c, nil)

	if a.Hash() == b.Hash() {
		t.Skip("sampled headers collided, regenerate fixture")
	}

	require.NotEqual(t, a.IsHeavierThan(b), b.IsHeavierThan(a))
}

func TestHeaviestOrderingPrefersGreaterWork(t *testing.T) {
	c := testConsensusWithFishHashAt(1000)

	low := NewBlockHeader(sampleRawHeader(5), c, nil)

	heavierRaw := sampleRawHeader(5)
	heavierRaw.Randomness = 7
	high := NewBlockHeader(heavierRaw, c, low.Work())
	high.work.Add(high.work, low.Work())

	require.True(t, high.IsHeavierThan(low))
	require.False(t, low.IsHeavierThan(high))
}
