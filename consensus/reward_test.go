package consensus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRewardScheduleKnownValues(t *testing.T) {
	c := Mainnet()
	r := NewRewardCalculator(c)

	require.Equal(t, int64(500_000_000), r.Reward(1))
	require.Equal(t, int64(500_000_000), r.Reward(100_000))
	require.Equal(t, int64(475_614_712), r.Reward(2_100_001))
}

func TestRewardMonotonicallyNonIncreasing(t *testing.T) {
	c := Mainnet()
	r := NewRewardCalculator(c)

	yearBlocks := uint32(c.YearInBlocks)
	require.True(t, r.Reward(yearBlocks) < r.Reward(yearBlocks-1))
}

func TestRewardNeverNegative(t *testing.T) {
	c := Mainnet()
	r := NewRewardCalculator(c)

	require.GreaterOrEqual(t, r.Reward(uint32(c.YearInBlocks)*200), int64(0))
}
