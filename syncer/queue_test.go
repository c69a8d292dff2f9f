package syncer

import (
	"testing"

	"github.com/iron-fish/chaincore/model"
	"github.com/stretchr/testify/require"
)

func headerAtSequence(seq uint32) *model.BlockHeader {
	return model.NewBlockHeader(model.RawBlockHeader{Sequence: seq}, testConsensus(), nil)
}

func TestInsertionQueueFIFOOrder(t *testing.T) {
	q := newInsertionQueue()
	q.Push(queuedBlock{block: model.NewBlock(headerAtSequence(5), nil)})
	q.Push(queuedBlock{block: model.NewBlock(headerAtSequence(6), nil)})
	q.Push(queuedBlock{block: model.NewBlock(headerAtSequence(7), nil)})

	first, ok := q.Pop()
	require.True(t, ok)
	require.EqualValues(t, 5, first.block.Header.Raw.Sequence)
}

func TestInsertionQueuePushToFrontOnLowerOrEqualSequence(t *testing.T) {
	q := newInsertionQueue()
	q.Push(queuedBlock{block: model.NewBlock(headerAtSequence(10), nil)})
	q.Push(queuedBlock{block: model.NewBlock(headerAtSequence(20), nil)})
	// a late arrival whose sequence is <= the current queue head jumps the
	// line, minimizing head-of-line blocking for island backfill.
	q.Push(queuedBlock{block: model.NewBlock(headerAtSequence(3), nil)})

	first, ok := q.Pop()
	require.True(t, ok)
	require.EqualValues(t, 3, first.block.Header.Raw.Sequence)
}
