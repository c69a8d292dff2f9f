// Package chainstore implements the consumer-boundary read views over the
// chain and the write path, AddBlock, that applies the heaviest-fork total
// order while maintaining a main-chain sequence index and a successor
// index (hashToNext) used by forward requests.
//
// The heaviest-head comparison is an explicit check against a cached head
// pointer rather than a query over stored work values, since the
// underlying engine is a KV store rather than a SQL table.
package chainstore

import (
	"encoding/binary"
	"sync"

	"github.com/iron-fish/chaincore/errors"
	"github.com/iron-fish/chaincore/model"
	"github.com/iron-fish/chaincore/store/kv"
	"github.com/iron-fish/chaincore/types"
)

var (
	headerPrefix   = []byte("h:")
	sequencePrefix = []byte("s:")
	nextPrefix     = []byte("n:")
	headKey        = []byte("head")
	genesisKey     = []byte("genesis")
)

func headerKey(h types.Hash256) []byte {
	return append(append([]byte{}, headerPrefix...), h[:]...)
}

func sequenceKey(seq uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], seq)
	return append(append([]byte{}, sequencePrefix...), b[:]...)
}

func nextKey(h types.Hash256) []byte {
	return append(append([]byte{}, nextPrefix...), h[:]...)
}

// ResolvedGraph is the result of attaching a candidate header to the local
// header DAG.
type ResolvedGraph struct {
	HeaviestHash       types.Hash256
	TailHash           types.Hash256
	ConnectedToGenesis bool
}

// Store is the chain's consumer-boundary read views plus the AddBlock write
// path.
type Store struct {
	kv *kv.Store

	mu   sync.RWMutex
	subs subscriptions
}

func New(kvStore *kv.Store) *Store {
	return &Store{kv: kvStore}
}

// InitGenesis writes the genesis header if the store is empty. It is a
// no-op if a genesis header is already recorded.
func (s *Store) InitGenesis(genesis *model.BlockHeader) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.kv.Get(genesisKey); err == nil {
		return nil
	}

	if err := s.kv.Put(headerKey(genesis.Hash()), model.EncodeHeaderRecord(genesis)); err != nil {
		return err
	}
	if err := s.kv.Put(genesisKey, genesis.Hash().Bytes()); err != nil {
		return err
	}
	if err := s.kv.Put(headKey, genesis.Hash().Bytes()); err != nil {
		return err
	}
	return s.kv.Put(sequenceKey(genesis.Raw.Sequence), genesis.Hash().Bytes())
}

func (s *Store) GetHeader(hash types.Hash256) (*model.BlockHeader, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getHeaderLocked(hash)
}

func (s *Store) getHeaderLocked(hash types.Hash256) (*model.BlockHeader, bool, error) {
	raw, err := s.kv.Get(headerKey(hash))
	if err != nil {
		return nil, false, nil
	}
	h, err := model.DecodeHeaderRecord(raw)
	if err != nil {
		return nil, false, err
	}
	return h, true, nil
}

func (s *Store) GetHeaderAtSequence(seq uint32) (*model.BlockHeader, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hashBytes, err := s.kv.Get(sequenceKey(seq))
	if err != nil {
		return nil, false, nil
	}
	hash, ok := types.HashFromBytes(hashBytes)
	if !ok {
		return nil, false, errors.New(errors.ErrStorage, "corrupt sequence index entry")
	}
	return s.getHeaderLocked(hash)
}

func (s *Store) Head() (*model.BlockHeader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hashBytes, err := s.kv.Get(headKey)
	if err != nil {
		return nil, errors.Wrap(errors.ErrStorage, "chain store has no head", err)
	}
	hash, ok := types.HashFromBytes(hashBytes)
	if !ok {
		return nil, errors.New(errors.ErrStorage, "corrupt head pointer")
	}
	h, found, err := s.getHeaderLocked(hash)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.New(errors.ErrStorage, "head pointer references missing header")
	}
	return h, nil
}

func (s *Store) Genesis() (*model.BlockHeader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hashBytes, err := s.kv.Get(genesisKey)
	if err != nil {
		return nil, errors.Wrap(errors.ErrStorage, "chain store has no genesis", err)
	}
	hash, ok := types.HashFromBytes(hashBytes)
	if !ok {
		return nil, errors.New(errors.ErrStorage, "corrupt genesis pointer")
	}
	h, found, err := s.getHeaderLocked(hash)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.New(errors.ErrStorage, "genesis pointer references missing header")
	}
	return h, nil
}

// NextHash returns the main-chain successor of hash, if recorded.
func (s *Store) NextHash(hash types.Hash256) (types.Hash256, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, err := s.kv.Get(nextKey(hash))
	if err != nil {
		return types.Hash256{}, false
	}
	h, ok := types.HashFromBytes(b)
	return h, ok
}

// IterateTo walks main-chain headers forward from the header at `from` up
// to and including `to`, calling fn for each. It stops early if fn returns
// false.
func (s *Store) IterateTo(from, to uint32, fn func(*model.BlockHeader) bool) error {
	for seq := from; seq <= to; seq++ {
		h, ok, err := s.GetHeaderAtSequence(seq)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if !fn(h) {
			return nil
		}
	}
	return nil
}

// IterateFrom walks main-chain headers backward from `from` down to and
// including `to`.
func (s *Store) IterateFrom(from, to uint32, fn func(*model.BlockHeader) bool) error {
	for seq := from; seq >= to; seq-- {
		h, ok, err := s.GetHeaderAtSequence(seq)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if !fn(h) {
			return nil
		}
		if seq == 0 {
			break
		}
	}
	return nil
}

// AddBlock attaches a candidate header to the local header DAG. If the
// header is already known, isAdded is false. Otherwise the header is
// recorded, the successor index updated, and the ancestor chain walked to
// determine whether it connects to genesis; if it does and is heavier than
// the current head, the main-chain sequence index is reorganized onto the
// new heaviest fork, publishing a connect event for each header written to
// the index. No disconnect or fork events are published.
func (s *Store) AddBlock(header *model.BlockHeader) (isAdded bool, graph ResolvedGraph, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash := header.Hash()
	if _, found, derr := s.getHeaderLocked(hash); derr != nil {
		return false, ResolvedGraph{}, derr
	} else if found {
		return false, ResolvedGraph{}, nil
	}

	if err := s.kv.Put(headerKey(hash), model.EncodeHeaderRecord(header)); err != nil {
		return false, ResolvedGraph{}, err
	}
	if err := s.kv.Put(nextKey(header.Raw.PreviousBlockHash), hash.Bytes()); err != nil {
		return false, ResolvedGraph{}, err
	}

	tail := header
	connectedToGenesis := false
	for {
		if tail.Raw.PreviousBlockHash.IsZero() {
			connectedToGenesis = true
			break
		}
		parent, found, derr := s.getHeaderLocked(tail.Raw.PreviousBlockHash)
		if derr != nil {
			return false, ResolvedGraph{}, derr
		}
		if !found {
			break
		}
		if parent.Raw.PreviousBlockHash.IsZero() {
			connectedToGenesis = true
			break
		}
		tail = parent
	}

	heaviest := header
	if connectedToGenesis {
		head, herr := s.headLocked()
		if herr != nil {
			return false, ResolvedGraph{}, herr
		}
		if head.IsHeavierThan(header) {
			heaviest = head
		} else if header.IsHeavierThan(head) {
			if err := s.reorgToLocked(header); err != nil {
				return false, ResolvedGraph{}, err
			}
		}
	}

	return true, ResolvedGraph{
		HeaviestHash:       heaviest.Hash(),
		TailHash:           tail.Hash(),
		ConnectedToGenesis: connectedToGenesis,
	}, nil
}

func (s *Store) headLocked() (*model.BlockHeader, error) {
	hashBytes, err := s.kv.Get(headKey)
	if err != nil {
		return nil, errors.Wrap(errors.ErrStorage, "chain store has no head", err)
	}
	hash, ok := types.HashFromBytes(hashBytes)
	if !ok {
		return nil, errors.New(errors.ErrStorage, "corrupt head pointer")
	}
	h, found, err := s.getHeaderLocked(hash)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.New(errors.ErrStorage, "head pointer references missing header")
	}
	return h, nil
}

// reorgToLocked rewrites the sequence index onto newHead's ancestor chain,
// finding the fork point against the previous main chain and publishing a
// connect event for each header it writes. Headers it replaces get no
// disconnect event.
func (s *Store) reorgToLocked(newHead *model.BlockHeader) error {
	var ancestors []*model.BlockHeader
	cur := newHead
	for {
		ancestors = append(ancestors, cur)
		if cur.Raw.PreviousBlockHash.IsZero() {
			break
		}
		existingHash, err := s.kv.Get(sequenceKey(cur.Raw.Sequence - 1))
		parent, found, derr := s.getHeaderLocked(cur.Raw.PreviousBlockHash)
		if derr != nil {
			return derr
		}
		if !found {
			return errors.New(errors.ErrFatalInvariant, "reorg walked off known headers before reaching genesis")
		}
		if err == nil {
			if existingHash, ok := types.HashFromBytes(existingHash); ok && existingHash == parent.Hash() {
				break
			}
		}
		cur = parent
	}

	for i := len(ancestors) - 1; i >= 0; i-- {
		h := ancestors[i]
		if err := s.kv.Put(sequenceKey(h.Raw.Sequence), h.Hash().Bytes()); err != nil {
			return err
		}
		s.subs.publishConnect(h)
	}

	return s.kv.Put(headKey, newHead.Hash().Bytes())
}
