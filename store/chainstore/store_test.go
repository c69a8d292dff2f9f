package chainstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iron-fish/chaincore/consensus"
	"github.com/iron-fish/chaincore/model"
	"github.com/iron-fish/chaincore/store/kv"
	"github.com/iron-fish/chaincore/target"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db, err := kv.Open(filepath.Join(t.TempDir(), "chain"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func headerAt(t *testing.T, c *consensus.Consensus, sequence uint32, prev *model.BlockHeader, randomness uint64) *model.BlockHeader {
	t.Helper()
	raw := model.RawBlockHeader{
		Sequence:        sequence,
		Target:          target.MaxTargetValue(),
		TimestampMillis: 1_700_000_000_000 + uint64(sequence)*60_000,
		Randomness:      randomness,
	}
	if prev != nil {
		raw.PreviousBlockHash = prev.Hash()
		return model.NewBlockHeader(raw, c, prev.Work())
	}
	return model.NewBlockHeader(raw, c, nil)
}

func testConsensus() *consensus.Consensus {
	return consensus.New(nil, 60, 10, 42_000_000, 2_100_000)
}

func TestAddBlockNotAddedWhenAlreadyKnown(t *testing.T) {
	s := testStore(t)
	c := testConsensus()

	genesis := headerAt(t, c, 1, nil, 0)
	require.NoError(t, s.InitGenesis(genesis))

	child := headerAt(t, c, 2, genesis, 1)
	added, _, err := s.AddBlock(child)
	require.NoError(t, err)
	require.True(t, added)

	added, _, err = s.AddBlock(child)
	require.NoError(t, err)
	require.False(t, added)
}

func TestAddBlockExtendsHeadWhenHeavier(t *testing.T) {
	s := testStore(t)
	c := testConsensus()

	genesis := headerAt(t, c, 1, nil, 0)
	require.NoError(t, s.InitGenesis(genesis))

	child := headerAt(t, c, 2, genesis, 1)
	added, graph, err := s.AddBlock(child)
	require.NoError(t, err)
	require.True(t, added)
	require.True(t, graph.ConnectedToGenesis)
	require.Equal(t, child.Hash(), graph.HeaviestHash)

	head, err := s.Head()
	require.NoError(t, err)
	require.Equal(t, child.Hash(), head.Hash())
}

func TestAddBlockDisconnectedIslandDoesNotMoveHead(t *testing.T) {
	s := testStore(t)
	c := testConsensus()

	genesis := headerAt(t, c, 1, nil, 0)
	require.NoError(t, s.InitGenesis(genesis))

	// orphan: previous block hash points at an unknown header.
	orphan := headerAt(t, c, 5, nil, 3)
	orphan.Raw.PreviousBlockHash = model.NewBlockHeader(model.RawBlockHeader{Sequence: 4}, c, nil).Hash()

	added, graph, err := s.AddBlock(orphan)
	require.NoError(t, err)
	require.True(t, added)
	require.False(t, graph.ConnectedToGenesis)

	head, err := s.Head()
	require.NoError(t, err)
	require.Equal(t, genesis.Hash(), head.Hash())
}

func TestNextHashTracksMainChainSuccessor(t *testing.T) {
	s := testStore(t)
	c := testConsensus()

	genesis := headerAt(t, c, 1, nil, 0)
	require.NoError(t, s.InitGenesis(genesis))

	child := headerAt(t, c, 2, genesis, 1)
	_, _, err := s.AddBlock(child)
	require.NoError(t, err)

	next, ok := s.NextHash(genesis.Hash())
	require.True(t, ok)
	require.Equal(t, child.Hash(), next)
}
