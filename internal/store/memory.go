// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package store

import (
	"sort"
	"strings"
	"sync"
)

// memEngine is a map-backed kvEngine. Writes are serialized by mu, which
// makes every update transaction atomic.
type memEngine struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *KVStore {
	return newKVStore(&memEngine{data: make(map[string][]byte)}, BackendMemory)
}

func (e *memEngine) view(fn func(kvTxn) error) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fn(&memTxn{engine: e})
}

func (e *memEngine) update(fn func(kvTxn) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx := &memTxn{engine: e, writable: true, pending: make(map[string][]byte)}
	if err := fn(tx); err != nil {
		return err
	}
	for k, v := range tx.pending {
		if v == nil {
			delete(e.data, k)
			continue
		}
		e.data[k] = v
	}
	return nil
}

func (e *memEngine) ping() error  { return nil }
func (e *memEngine) close() error { return nil }

// memTxn buffers writes until the update function returns without error.
// A nil value in pending marks a deletion.
type memTxn struct {
	engine   *memEngine
	writable bool
	pending  map[string][]byte
}

func (t *memTxn) get(key string) ([]byte, error) {
	if v, ok := t.pending[key]; ok {
		if v == nil {
			return nil, ErrNotFound
		}
		return v, nil
	}
	v, ok := t.engine.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (t *memTxn) set(key string, val []byte) error {
	if !t.writable {
		return errReadOnly
	}
	t.pending[key] = append([]byte(nil), val...)
	return nil
}

func (t *memTxn) del(key string) error {
	if !t.writable {
		return errReadOnly
	}
	t.pending[key] = nil
	return nil
}

func (t *memTxn) scan(prefix string, fn func(string, []byte) error) error {
	keys := make([]string, 0)
	for k := range t.engine.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := fn(k, t.engine.data[k]); err != nil {
			return err
		}
	}
	return nil
}
