// Package verifier implements the stateless-plus-chain-read verification
// of a single candidate block against an ordered sequence of invariants,
// halting at the first failure. The expensive per-transaction proof
// checks fan out across an injected worker pool; everything before and
// after that step runs inline.
package verifier

import (
	"context"
	"time"

	"github.com/iron-fish/chaincore/consensus"
	"github.com/iron-fish/chaincore/errors"
	"github.com/iron-fish/chaincore/model"
	"github.com/iron-fish/chaincore/target"
	"github.com/iron-fish/chaincore/types"
	"github.com/iron-fish/chaincore/workerpool"
)

// clockSlack is the local-clock tolerance on a candidate block's timestamp.
const clockSlack = 15 * time.Second

// ProofVerifier is the external ZK-proof verification service: it reports
// whether a single non-miner transaction's proof is valid.
type ProofVerifier interface {
	VerifyTransaction(ctx context.Context, tx model.Transaction) (bool, error)
}

// TreesService answers note/nullifier commitment continuity questions
// against the external notes/nullifier Merkle trees.
type TreesService interface {
	RootAtSize(size uint64) types.Hash256
	Contains(nullifier types.Hash256, sizeLimit uint64) bool
}

// StateCommitmentProvider supplies the externally computed post-state root
// for a block's EVM-affecting transactions.
type StateCommitmentProvider interface {
	PostStateRoot(ctx context.Context, b *model.Block) (types.Hash256, error)
}

// Now returns the current time; overridable in tests.
type Now func() time.Time

// Result is the verifier's public contract: valid, or invalid with a
// tagged reason.
type Result struct {
	Valid  bool
	Reason errors.Code
}

func valid() Result { return Result{Valid: true} }

func invalid(code errors.Code) Result { return Result{Valid: false, Reason: code} }

// Verifier verifies candidate blocks against a parent header, the
// consensus ruleset, and its injected external collaborators. The worker
// pool is injected as a capability rather than reached for globally, so
// its concurrency limit can be tuned or swapped out per caller.
type Verifier struct {
	Consensus *consensus.Consensus
	Reward    *consensus.RewardCalculator
	Proofs    ProofVerifier
	Trees     TreesService
	State     StateCommitmentProvider
	Pool      *workerpool.Pool
	Now       Now
}

func New(c *consensus.Consensus, reward *consensus.RewardCalculator, proofs ProofVerifier, trees TreesService, state StateCommitmentProvider, pool *workerpool.Pool) *Verifier {
	return &Verifier{
		Consensus: c,
		Reward:    reward,
		Proofs:    proofs,
		Trees:     trees,
		State:     state,
		Pool:      pool,
		Now:       time.Now,
	}
}

// VerifyBlock runs the ordered checks against block B given its immediate
// parent header, halting at the first failure.
func (v *Verifier) VerifyBlock(ctx context.Context, b *model.Block, parent *model.BlockHeader) (Result, error) {
	if r := v.checkStructural(b, parent); !r.Valid {
		return r, nil
	}
	if r := v.checkProofOfWork(b); !r.Valid {
		return r, nil
	}
	if r := v.checkTargetCorrectness(b, parent); !r.Valid {
		return r, nil
	}
	if r := v.checkMinersFee(b); !r.Valid {
		return r, nil
	}
	if r, err := v.checkTransactionProofs(ctx, b); err != nil {
		return Result{}, err
	} else if !r.Valid {
		return r, nil
	}
	if r := v.checkTreeContinuity(b, parent); !r.Valid {
		return r, nil
	}
	if r := v.checkSpendUniqueness(b, parent); !r.Valid {
		return r, nil
	}
	if r, err := v.checkStateCommitment(ctx, b); err != nil {
		return Result{}, err
	} else if !r.Valid {
		return r, nil
	}

	return valid(), nil
}

// 1. Structural.
func (v *Verifier) checkStructural(b *model.Block, parent *model.BlockHeader) Result {
	raw := b.Header.Raw

	if raw.Sequence != parent.Raw.Sequence+1 {
		return invalid(errors.ErrSequenceOutOfOrder)
	}

	nowMillis := uint64(v.Now().Add(clockSlack).UnixMilli())
	if raw.TimestampMillis > nowMillis {
		return invalid(errors.ErrTooFarInFuture)
	}

	if int64(raw.TimestampMillis) < int64(parent.Raw.TimestampMillis)-clockSlack.Milliseconds() {
		return invalid(errors.ErrBlockTooOld)
	}

	return valid()
}

// 2. Proof of work.
func (v *Verifier) checkProofOfWork(b *model.Block) Result {
	h := b.Header.Hash()
	if !target.MeetsHash(h, b.Header.Raw.Target) {
		return invalid(errors.ErrHashNotMeetTarget)
	}
	return valid()
}

// 3. Target correctness.
func (v *Verifier) checkTargetCorrectness(b *model.Block, parent *model.BlockHeader) Result {
	parentDifficulty := parent.Raw.Target.ToDifficulty()

	expectedDifficulty := target.CalculateDifficulty(
		int64(b.Header.Raw.TimestampMillis),
		int64(parent.Raw.TimestampMillis),
		parentDifficulty,
		v.Consensus.TargetBlockTimeInSeconds,
		v.Consensus.TargetBucketTimeInSeconds,
	)
	expectedTarget := target.FromDifficulty(expectedDifficulty)

	if b.Header.Raw.Target.Bytes32() != expectedTarget.Bytes32() {
		return invalid(errors.ErrInvalidTarget)
	}
	return valid()
}

// 4. Miners'-fee invariant.
func (v *Verifier) checkMinersFee(b *model.Block) Result {
	minersFeeTx := b.MinersFeeTransaction()
	if minersFeeTx == nil || !minersFeeTx.IsMinersFee() {
		return invalid(errors.ErrInvalidMinersFee)
	}

	if len(minersFeeTx.Spends()) != 0 || len(minersFeeTx.Notes()) < 1 {
		return invalid(errors.ErrInvalidMinersFee)
	}

	reward := v.Reward.Reward(b.Header.Raw.Sequence)
	expectedFee := -(reward + b.TransactionFeeTotal())

	if minersFeeTx.Fee() != expectedFee {
		return invalid(errors.ErrInvalidMinersFee)
	}

	return valid()
}

// 5. Per-transaction ZK proof validity, fanned out across the injected
// worker pool; results combine conjunctively - any single failure fails
// the block.
func (v *Verifier) checkTransactionProofs(ctx context.Context, b *model.Block) (Result, error) {
	nonMiner := b.Transactions[1:]
	if len(nonMiner) == 0 {
		return valid(), nil
	}

	failed := make([]bool, len(nonMiner))
	fns := make([]func(context.Context) error, len(nonMiner))
	for i, tx := range nonMiner {
		i, tx := i, tx
		fns[i] = func(ctx context.Context) error {
			ok, err := v.Proofs.VerifyTransaction(ctx, tx)
			if err != nil {
				return err
			}
			if !ok {
				failed[i] = true
			}
			return nil
		}
	}

	if err := v.Pool.RunAll(ctx, fns); err != nil {
		return Result{}, err
	}

	for _, f := range failed {
		if f {
			return invalid(errors.ErrInvalidTransactionProof), nil
		}
	}
	return valid(), nil
}

// 6. Tree continuity.
func (v *Verifier) checkTreeContinuity(b *model.Block, parent *model.BlockHeader) Result {
	var notesAdded, nullifiersAdded int
	for _, tx := range b.Transactions {
		notesAdded += len(tx.Notes())
		nullifiersAdded += len(tx.Spends())
	}

	if b.Header.NoteSize != parent.NoteSize+uint64(notesAdded) {
		return invalid(errors.ErrNoteCommitmentSize)
	}
	if b.Header.NullifierCommitmentSize != parent.NullifierCommitmentSize+uint64(nullifiersAdded) {
		return invalid(errors.ErrNullifierCommitmentSize)
	}
	return valid()
}

// 7. Spend uniqueness. The i-th spend in the block must read the
// notes-tree at spend.TreeSize matching the claimed commitment, and its
// nullifier must be unseen in the nullifier tree as of
// NullifierCommitmentSize - spendsInBlock + i - so a spend later in the
// same block can see an earlier spend's nullifier as already present.
func (v *Verifier) checkSpendUniqueness(b *model.Block, parent *model.BlockHeader) Result {
	spends := b.SpendsInBlock()
	total := len(spends)

	for i, spend := range spends {
		root := v.Trees.RootAtSize(spend.TreeSize)
		if root != spend.Commitment {
			return invalid(errors.ErrInvalidSpend)
		}

		sizeLimit := b.Header.NullifierCommitmentSize - uint64(total) + uint64(i)
		if v.Trees.Contains(spend.Nullifier, sizeLimit) {
			return invalid(errors.ErrDuplicateNullifier)
		}
	}
	return valid()
}

// 8. EVM/state commitment.
func (v *Verifier) checkStateCommitment(ctx context.Context, b *model.Block) (Result, error) {
	if v.Consensus.IsNeverActive(consensus.FeatureEvmDescriptions) {
		return valid(), nil
	}
	if !v.Consensus.IsActive(consensus.FeatureEvmDescriptions, b.Header.Raw.Sequence) {
		return valid(), nil
	}

	if b.Header.Raw.StateCommitment == nil {
		return invalid(errors.ErrMissingStateCommitment), nil
	}

	postRoot, err := v.State.PostStateRoot(ctx, b)
	if err != nil {
		return Result{}, err
	}

	if *b.Header.Raw.StateCommitment != postRoot {
		return invalid(errors.ErrMissingStateCommitment), nil
	}

	return valid(), nil
}
