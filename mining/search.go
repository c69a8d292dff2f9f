// Package mining implements the miner-facing randomness search: given a
// fixed header prefix (everything except the 8-byte randomness slot),
// repeatedly try candidate randomness values until one produces a hash
// meeting the target.
//
// A batch loop observes cancellation at the top of each iteration; a
// batch can also be split across cores with golang.org/x/sync/semaphore
// bounding concurrency.
package mining

import (
	"context"

	"github.com/iron-fish/chaincore/consensus"
	"github.com/iron-fish/chaincore/model"
	"github.com/iron-fish/chaincore/target"
	"golang.org/x/sync/semaphore"
)

// MaxSafeInt is the 2^53-1 ceiling the randomness field is confined to.
// The search loop and any later recomputation of randomness must agree on
// this wraparound rule, since it is consensus-binding.
const MaxSafeInt uint64 = (1 << 53) - 1

// Job carries the cancellation flag a running batch observes at the top
// of its loop: once Aborted is set, the batch exits with no success.
type Job struct {
	Aborted bool
}

// Result is the outcome of a successful search.
type Result struct {
	Randomness        uint64
	InitialRandomness uint64
}

// wrap confines a candidate value to [0, MaxSafeInt], matching the legacy
// codec's overflow rule: an overflow wraps to i - (MaxSafeInt - start) - 1.
func wrap(start uint64, i int64) uint64 {
	v := start + uint64(i)
	if v <= MaxSafeInt {
		return v
	}
	return uint64(i) - (MaxSafeInt - start) - 1
}

// SearchBatch iterates i in [0, batchSize), writes wrap(start+i) into the
// header's randomness field, hashes it, and returns the first i for which
// the hash meets target. It returns (Result, true) on success, or
// (Result{}, false) if the batch exhausts without success or job.Aborted
// is observed.
func SearchBatch(ctx context.Context, c *consensus.Consensus, prefix model.RawBlockHeader, t target.Target, start uint64, batchSize int64, job *Job) (Result, bool) {
	for i := int64(0); i < batchSize; i++ {
		if job != nil && job.Aborted {
			return Result{}, false
		}
		select {
		case <-ctx.Done():
			return Result{}, false
		default:
		}

		candidate := prefix
		candidate.Randomness = wrap(start, i)

		h := candidate.Hash(c)
		if target.MeetsHash(h, t) {
			return Result{Randomness: candidate.Randomness, InitialRandomness: start}, true
		}
	}

	return Result{}, false
}

// SearchParallel splits [0, batchSize) into shards run concurrently,
// bounded by maxConcurrency via a weighted semaphore, and returns the
// first successful shard's result. All shards share ctx so a hit cancels
// the others.
func SearchParallel(ctx context.Context, c *consensus.Consensus, prefix model.RawBlockHeader, t target.Target, start uint64, batchSize int64, maxConcurrency int64, job *Job) (Result, bool) {
	if batchSize <= 0 {
		return Result{}, false
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	shardSize := batchSize / maxConcurrency
	if shardSize == 0 {
		shardSize = batchSize
		maxConcurrency = 1
	}

	sem := semaphore.NewWeighted(maxConcurrency)
	resultCh := make(chan Result, 1)

	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var shardStart int64
	for shardStart < batchSize {
		size := shardSize
		if shardStart+size > batchSize {
			size = batchSize - shardStart
		}

		if err := sem.Acquire(searchCtx, 1); err != nil {
			break
		}

		go func(offset, size int64) {
			defer sem.Release(1)
			if res, ok := SearchBatch(searchCtx, c, prefix, t, start+uint64(offset), size, job); ok {
				select {
				case resultCh <- res:
				default:
				}
				cancel()
			}
		}(shardStart, size)

		shardStart += size
	}

	_ = sem.Acquire(context.Background(), maxConcurrency)

	select {
	case res := <-resultCh:
		return res, true
	default:
		return Result{}, false
	}
}
