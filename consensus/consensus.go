// Package consensus holds the named-feature activation table and the
// numeric chain parameters that the header codec and verifier consult.
package consensus

// Policy describes when a feature activates.
type Policy struct {
	kind     policyKind
	sequence uint32
}

type policyKind int

const (
	policyNever policyKind = iota
	policyAlways
	policyAtSequence
)

func Never() Policy          { return Policy{kind: policyNever} }
func Always() Policy         { return Policy{kind: policyAlways} }
func AtSequence(n uint32) Policy {
	return Policy{kind: policyAtSequence, sequence: n}
}

// isActive reports whether the policy is active at the given sequence.
func (p Policy) isActive(sequence uint32) bool {
	switch p.kind {
	case policyAlways:
		return true
	case policyAtSequence:
		return sequence >= p.sequence
	default:
		return false
	}
}

func (p Policy) isNeverActive() bool {
	return p.kind == policyNever
}

// Feature names the forks the header codec and verifier branch on.
type Feature string

const (
	FeatureFishHash            Feature = "enableFishHash"
	FeatureAssetOwnership      Feature = "enableAssetOwnership"
	FeatureEvmDescriptions     Feature = "enableEvmDescriptions"
	FeatureIncreasedGraffiti   Feature = "enableIncreasedGraffiti"
)

// Consensus is a value object holding every feature's activation policy
// plus the numeric parameters used by target retargeting and the mining
// reward schedule.
type Consensus struct {
	features map[Feature]Policy

	TargetBlockTimeInSeconds  int64
	TargetBucketTimeInSeconds int64
	GenesisSupplyInIron       int64
	YearInBlocks              int64
}

// New builds a Consensus from an explicit feature table, defaulting any
// unnamed feature to Never (a feature absent from the table has not shipped
// yet).
func New(features map[Feature]Policy, targetBlockTimeSec, targetBucketTimeSec, genesisSupplyInIron, yearInBlocks int64) *Consensus {
	table := make(map[Feature]Policy, len(features))
	for k, v := range features {
		table[k] = v
	}
	return &Consensus{
		features:                  table,
		TargetBlockTimeInSeconds:  targetBlockTimeSec,
		TargetBucketTimeInSeconds: targetBucketTimeSec,
		GenesisSupplyInIron:       genesisSupplyInIron,
		YearInBlocks:              yearInBlocks,
	}
}

func (c *Consensus) IsActive(f Feature, sequence uint32) bool {
	p, ok := c.features[f]
	if !ok {
		return false
	}
	return p.isActive(sequence)
}

func (c *Consensus) IsNeverActive(f Feature) bool {
	p, ok := c.features[f]
	if !ok {
		return true
	}
	return p.isNeverActive()
}

// Mainnet holds the production Iron Fish network parameters.
func Mainnet() *Consensus {
	return New(map[Feature]Policy{
		FeatureFishHash:          AtSequence(1),
		FeatureAssetOwnership:    AtSequence(1),
		FeatureEvmDescriptions:   Never(),
		FeatureIncreasedGraffiti: Never(),
	}, 60, 10, 42_000_000, 2_100_000)
}
