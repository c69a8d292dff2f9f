package model

import (
	"encoding/binary"

	"github.com/iron-fish/chaincore/types"
	"golang.org/x/crypto/sha3"
)

// fishHashCacheRounds bounds the light-cache mixing pass. This is a
// memory-hard mix built around a keccak-seeded light cache rather than a
// full precomputed dataset, since which cache size is used is a deployment
// choice and must not change the resulting hash value.
const fishHashCacheRounds = 64
const fishHashCacheSize = 1024

// fishHashCache is the light cache derived from a keccak seed.
func fishHashCache(seed []byte) [][32]byte {
	cache := make([][32]byte, fishHashCacheSize)

	h := sha3.NewLegacyKeccak256()
	h.Write(seed)
	cur := h.Sum(nil)
	var buf [32]byte
	copy(buf[:], cur)
	cache[0] = buf

	for i := 1; i < fishHashCacheSize; i++ {
		h := sha3.NewLegacyKeccak256()
		h.Write(cache[i-1][:])
		cur = h.Sum(nil)
		copy(buf[:], cur)
		cache[i] = buf
	}

	return cache
}

// fishHash mixes the preimage against the seeded cache and folds the result
// through keccak one final time to produce the 32-byte output hash.
func fishHash(preimage []byte) types.Hash256 {
	cache := fishHashCache(preimage)

	var mix [32]byte
	h := sha3.NewLegacyKeccak256()
	h.Write(preimage)
	copy(mix[:], h.Sum(nil))

	idx := binary.LittleEndian.Uint64(mix[:8]) % fishHashCacheSize
	for r := 0; r < fishHashCacheRounds; r++ {
		entry := cache[idx]
		for i := range mix {
			mix[i] ^= entry[i]
		}

		h := sha3.NewLegacyKeccak256()
		h.Write(mix[:])
		copy(mix[:], h.Sum(nil))

		idx = binary.LittleEndian.Uint64(mix[:8]) % fishHashCacheSize
	}

	return types.Hash256(mix)
}
