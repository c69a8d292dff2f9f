package consensus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeatureActivationPolicies(t *testing.T) {
	c := New(map[Feature]Policy{
		"never":  Never(),
		"always": Always(),
		"at100":  AtSequence(100),
	}, 60, 10, 42_000_000, 2_100_000)

	require.False(t, c.IsActive("never", 1))
	require.False(t, c.IsActive("never", 1_000_000))

	require.True(t, c.IsActive("always", 1))

	require.False(t, c.IsActive("at100", 99))
	require.True(t, c.IsActive("at100", 100))
	require.True(t, c.IsActive("at100", 101))
}

func TestUnknownFeatureDefaultsToNever(t *testing.T) {
	c := New(nil, 60, 10, 42_000_000, 2_100_000)
	require.False(t, c.IsActive("unregistered", 1))
	require.True(t, c.IsNeverActive("unregistered"))
}
