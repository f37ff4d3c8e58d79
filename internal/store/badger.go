// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/playwise/internal/logging"
)

var errReadOnly = errors.New("store: write in read-only transaction")

// badgerEngine adapts badger.DB to kvEngine.
type badgerEngine struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a badger database at path. An empty path opens
// an in-memory database.
func OpenBadger(path string) (*KVStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	logging.Info().
		Str("path", path).
		Bool("in_memory", path == "").
		Msg("badger store opened")
	return newKVStore(&badgerEngine{db: db}, BackendBadger), nil
}

func (e *badgerEngine) view(fn func(kvTxn) error) error {
	return e.db.View(func(txn *badger.Txn) error {
		return fn(badgerTxn{txn: txn})
	})
}

func (e *badgerEngine) update(fn func(kvTxn) error) error {
	err := e.db.Update(func(txn *badger.Txn) error {
		return fn(badgerTxn{txn: txn})
	})
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%w: %w", ErrVersionConflict, err)
	}
	return err
}

func (e *badgerEngine) ping() error {
	if e.db.IsClosed() {
		return ErrUnavailable
	}
	return nil
}

func (e *badgerEngine) close() error {
	return e.db.Close()
}

type badgerTxn struct {
	txn *badger.Txn
}

func (t badgerTxn) get(key string) ([]byte, error) {
	item, err := t.txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (t badgerTxn) set(key string, val []byte) error {
	return t.txn.Set([]byte(key), val)
}

func (t badgerTxn) del(key string) error {
	return t.txn.Delete([]byte(key))
}

func (t badgerTxn) scan(prefix string, fn func(string, []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := t.txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := fn(string(item.KeyCopy(nil)), val); err != nil {
			return err
		}
	}
	return nil
}
