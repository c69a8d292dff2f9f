package verifier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iron-fish/chaincore/consensus"
	"github.com/iron-fish/chaincore/model"
	"github.com/iron-fish/chaincore/target"
	"github.com/iron-fish/chaincore/types"
	"github.com/iron-fish/chaincore/workerpool"
)

type fakeTx struct {
	hash      types.Hash256
	fee       int64
	minersFee bool
	notes     []types.Hash256
	spends    []model.Spend
}

func (f *fakeTx) Hash() types.Hash256       { return f.hash }
func (f *fakeTx) Fee() int64                { return f.fee }
func (f *fakeTx) IsMinersFee() bool         { return f.minersFee }
func (f *fakeTx) Notes() []types.Hash256    { return f.notes }
func (f *fakeTx) Spends() []model.Spend     { return f.spends }

type fakeProofs struct{}

func (fakeProofs) VerifyTransaction(ctx context.Context, tx model.Transaction) (bool, error) {
	return true, nil
}

type fakeTrees struct{}

func (fakeTrees) RootAtSize(size uint64) types.Hash256 { return types.Hash256{} }
func (fakeTrees) Contains(n types.Hash256, sizeLimit uint64) bool { return false }

func newTestVerifier() (*Verifier, *consensus.Consensus) {
	c := consensus.New(map[consensus.Feature]consensus.Policy{
		consensus.FeatureFishHash:        consensus.Never(),
		consensus.FeatureEvmDescriptions: consensus.Never(),
	}, 60, 10, 42_000_000, 2_100_000)

	reward := consensus.NewRewardCalculator(c)
	v := New(c, reward, fakeProofs{}, fakeTrees{}, nil, workerpool.New(4))
	return v, c
}

// mineValidRandomness brute-forces a randomness value whose header hash
// meets t, bounded by attempts. The loosest target this chain ever issues
// (MaxTargetValue, fixed by MinDifficulty) still only accepts roughly
// 1-in-131072 hashes, same as real proof-of-work, so this mirrors what the
// mining package's search loop does rather than assuming an easy target.
func mineValidRandomness(t *testing.T, raw model.RawBlockHeader, c *consensus.Consensus, attempts uint64) uint64 {
	t.Helper()
	for i := uint64(0); i < attempts; i++ {
		raw.Randomness = i
		if target.MeetsHash(raw.Hash(c), raw.Target) {
			return i
		}
	}
	t.Fatalf("failed to find a valid randomness within %d attempts", attempts)
	return 0
}

func buildParentAndChild(t *testing.T, v *Verifier, c *consensus.Consensus) (*model.BlockHeader, *model.Block) {
	maxTarget := target.MaxTargetValue()

	parentRaw := model.RawBlockHeader{
		Sequence:        1,
		Target:          maxTarget,
		TimestampMillis: 1_700_000_000_000,
	}
	parent := model.NewBlockHeader(parentRaw, c, nil)

	childRaw := model.RawBlockHeader{
		Sequence:              2,
		PreviousBlockHash:      parent.Hash(),
		Target:                 maxTarget,
		TimestampMillis:        parentRaw.TimestampMillis + 60_000,
	}
	childRaw.Randomness = mineValidRandomness(t, childRaw, c, 2_000_000)
	child := model.NewBlockHeader(childRaw, c, parent.Work())
	// the miner's fee transaction below adds one note
	child.NoteSize = parent.NoteSize + 1

	reward := v.Reward.Reward(2)
	minersFeeTx := &fakeTx{
		hash:      types.Hash256{1},
		fee:       -reward,
		minersFee: true,
		notes:     []types.Hash256{{2}},
	}

	block := model.NewBlock(child, []model.Transaction{minersFeeTx})
	return parent, block
}

func TestVerifyBlockAccepts(t *testing.T) {
	v, c := newTestVerifier()
	v.Now = func() time.Time { return time.UnixMilli(2_000_000_000_000) }

	parent, block := buildParentAndChild(t, v, c)

	result, err := v.VerifyBlock(context.Background(), block, parent)
	require.NoError(t, err)
	require.True(t, result.Valid, "reason: %s", result.Reason)
}

func TestVerifyBlockRejectsBadMinersFee(t *testing.T) {
	v, c := newTestVerifier()
	v.Now = func() time.Time { return time.UnixMilli(2_000_000_000_000) }

	parent, block := buildParentAndChild(t, v, c)
	block.Transactions[0].(*fakeTx).fee = 0

	result, err := v.VerifyBlock(context.Background(), block, parent)
	require.NoError(t, err)
	require.False(t, result.Valid)
}

func TestVerifyBlockRejectsSequenceGap(t *testing.T) {
	v, c := newTestVerifier()
	v.Now = func() time.Time { return time.UnixMilli(2_000_000_000_000) }

	parent, block := buildParentAndChild(t, v, c)
	block.Header.Raw.Sequence = 5

	result, err := v.VerifyBlock(context.Background(), block, parent)
	require.NoError(t, err)
	require.False(t, result.Valid)
}
