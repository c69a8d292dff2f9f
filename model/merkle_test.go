package model

import (
	"testing"

	"github.com/iron-fish/chaincore/types"
	"github.com/stretchr/testify/require"
	"lukechampine.com/blake3"
)

func TestTransactionMerkleRootEmpty(t *testing.T) {
	h := blake3.New(32, nil)
	h.Write([]byte(merklePersonalization))
	var want types.Hash256
	copy(want[:], h.Sum(nil))

	require.Equal(t, want, TransactionMerkleRoot(nil))
}

func TestTransactionMerkleRootSingleLeafUsesNullNode(t *testing.T) {
	var leaf types.Hash256
	leaf[0] = 0xAB

	got := TransactionMerkleRoot([]types.Hash256{leaf})
	want := levelHash(0, leaf.Bytes(), NullNode.Bytes())
	require.Equal(t, want, got)
}

func TestTransactionMerkleRootTwoLeaves(t *testing.T) {
	var a, b types.Hash256
	a[0], b[0] = 1, 2

	got := TransactionMerkleRoot([]types.Hash256{a, b})
	want := levelHash(0, a.Bytes(), b.Bytes())
	require.Equal(t, want, got)
}

func TestTransactionMerkleRootElevenLeavesPadsWithNull(t *testing.T) {
	leaves := make([]types.Hash256, 11)
	for i := range leaves {
		leaves[i][0] = byte(i + 1)
	}

	got := TransactionMerkleRoot(leaves)

	level0 := make([]types.Hash256, 6)
	for i := 0; i < 5; i++ {
		level0[i] = levelHash(0, leaves[2*i].Bytes(), leaves[2*i+1].Bytes())
	}
	level0[5] = levelHash(0, leaves[10].Bytes(), NullNode.Bytes())

	level1 := []types.Hash256{
		levelHash(1, level0[0].Bytes(), level0[1].Bytes()),
		levelHash(1, level0[2].Bytes(), level0[3].Bytes()),
		levelHash(1, level0[4].Bytes(), level0[5].Bytes()),
	}
	level2 := []types.Hash256{
		levelHash(2, level1[0].Bytes(), level1[1].Bytes()),
		levelHash(2, level1[2].Bytes(), NullNode.Bytes()),
	}
	want := levelHash(3, level2[0].Bytes(), level2[1].Bytes())

	require.Equal(t, want, got)
}
