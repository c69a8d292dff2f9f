// Package kv provides the embedded key/value storage capability, backed
// by github.com/btcsuite/goleveldb, with atomic transactions over
// caller-chosen key ranges. It is a thin interface that a higher-level
// store composes against rather than owning any domain semantics itself.
package kv

import (
	"github.com/btcsuite/goleveldb/leveldb"
	"github.com/btcsuite/goleveldb/leveldb/iterator"
	"github.com/btcsuite/goleveldb/leveldb/util"
)

// Store is the embedded KV engine capability.
type Store struct {
	db *leveldb.DB
}

func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(key []byte) ([]byte, error) {
	v, err := s.db.Get(key, nil)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Store) Has(key []byte) (bool, error) {
	return s.db.Has(key, nil)
}

func (s *Store) Put(key, value []byte) error {
	return s.db.Put(key, value, nil)
}

func (s *Store) Delete(key []byte) error {
	return s.db.Delete(key, nil)
}

// NewIterator returns a range iterator over [start, end) in the underlying
// engine; a nil start or end means "unbounded" on that side.
func (s *Store) NewIterator(start, end []byte) iterator.Iterator {
	return s.db.NewIterator(&util.Range{Start: start, Limit: end}, nil)
}

// Transaction is an atomic batch of reads and writes. Callers name the key
// ranges they intend to touch only by convention (the key prefixes defined
// by chainstore); the engine itself enforces atomicity, not range
// isolation.
type Transaction struct {
	tx *leveldb.Transaction
}

func (s *Store) NewTransaction() (*Transaction, error) {
	tx, err := s.db.OpenTransaction()
	if err != nil {
		return nil, err
	}
	return &Transaction{tx: tx}, nil
}

func (t *Transaction) Get(key []byte) ([]byte, error) {
	return t.tx.Get(key, nil)
}

func (t *Transaction) Put(key, value []byte) error {
	return t.tx.Put(key, value, nil)
}

func (t *Transaction) Delete(key []byte) error {
	return t.tx.Delete(key, nil)
}

func (t *Transaction) Commit() error {
	return t.tx.Commit()
}

func (t *Transaction) Discard() {
	t.tx.Discard()
}
