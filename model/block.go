package model

import "github.com/iron-fish/chaincore/types"

// Spend is one input of a transaction: a nullifier being revealed, and the
// notes-tree commitment/size the spend was proven against.
type Spend struct {
	Nullifier  types.Hash256
	Commitment types.Hash256
	TreeSize   uint64
}

// Transaction is opaque to the chain core except through these accessors.
// Concrete transaction encoding, ZK proof content, and note/spend
// descriptions live elsewhere; the chain core only needs what these
// methods expose.
type Transaction interface {
	Hash() types.Hash256

	// Fee is the transaction's signed fee in ORE; the miner's fee
	// transaction's Fee is negative.
	Fee() int64

	IsMinersFee() bool

	Notes() []types.Hash256
	Spends() []Spend
}

// Block is a header plus an ordered, non-empty list of transactions. The
// first transaction is always the miner's fee transaction.
type Block struct {
	Header       *BlockHeader
	Transactions []Transaction
}

func NewBlock(header *BlockHeader, txs []Transaction) *Block {
	return &Block{Header: header, Transactions: txs}
}

func (b *Block) Hash() types.Hash256 {
	return b.Header.Hash()
}

// MinersFeeTransaction returns the block's first transaction, which must
// satisfy IsMinersFee().
func (b *Block) MinersFeeTransaction() Transaction {
	if len(b.Transactions) == 0 {
		return nil
	}
	return b.Transactions[0]
}

// TransactionFeeTotal sums the fees of every transaction after the first
// (the non-miner transactions).
func (b *Block) TransactionFeeTotal() int64 {
	var total int64
	for _, tx := range b.Transactions[1:] {
		total += tx.Fee()
	}
	return total
}

// TransactionHashes returns the ordered list of transaction hashes used to
// compute TransactionCommitment.
func (b *Block) TransactionHashes() []types.Hash256 {
	hashes := make([]types.Hash256, len(b.Transactions))
	for i, tx := range b.Transactions {
		hashes[i] = tx.Hash()
	}
	return hashes
}

// NotesAdded sums the number of output notes across every transaction in
// the block.
func (b *Block) NotesAdded() int {
	var total int
	for _, tx := range b.Transactions {
		total += len(tx.Notes())
	}
	return total
}

// SpendsInBlock returns the flattened, in-order list of every spend across
// every transaction in the block, used by the spend-uniqueness check which
// must see the block's own earlier spends.
func (b *Block) SpendsInBlock() []Spend {
	var spends []Spend
	for _, tx := range b.Transactions {
		spends = append(spends, tx.Spends()...)
	}
	return spends
}
