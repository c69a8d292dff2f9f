package consensus

import (
	"math"
	"sync"
)

// RewardCalculator caches the mining reward per year, since every block in
// a year shares the same value and the underlying math.Exp call is not
// free. The cache is an unbounded map keyed by year rather than a TTL
// cache, since the number of distinct years over a chain's lifetime is
// tiny and entries never need eviction.
type RewardCalculator struct {
	consensus *Consensus

	mu    sync.Mutex
	cache map[int64]int64
}

func NewRewardCalculator(c *Consensus) *RewardCalculator {
	return &RewardCalculator{
		consensus: c,
		cache:     make(map[int64]int64),
	}
}

// Reward returns the mining reward, in ORE (10^-8 of the base coin), for a
// block at the given sequence.
func (r *RewardCalculator) Reward(sequence uint32) int64 {
	year := int64(sequence) / r.consensus.YearInBlocks

	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.cache[year]; ok {
		return v
	}

	base := float64(r.consensus.GenesisSupplyInIron) / 4
	decayed := base * math.Exp(-0.05*float64(year))
	perBlock := decayed / float64(r.consensus.YearInBlocks) * 1e8

	reward := int64(math.Round(perBlock))
	if reward < 0 {
		reward = 0
	}

	r.cache[year] = reward
	return reward
}
