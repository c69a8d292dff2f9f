package syncer

import "github.com/iron-fish/chaincore/consensus"

func testConsensus() *consensus.Consensus {
	return consensus.New(nil, 60, 10, 42_000_000, 2_100_000)
}
