// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package swiss provides a generic open-addressing hash table in the style
// of Abseil's swisstable: a parallel control-byte array lets most probes
// reject a slot by comparing a one-byte hash fragment instead of the full
// key.
//
// This is a from-scratch, pure-Go table: unlike the arena-colocated,
// integer-keyed table it is descended from, it is backed by ordinary slices
// and is generic over any comparable key, since its caller (the name map of
// internal/namemap) keys on 64-bit hashes in one direction and on the mapped
// values (strings) in the other. Callers supply their own hash function so
// the table never needs to know how to hash K itself.
package swiss

import "github.com/polyserial/polyserial/internal/debug"

// Hash computes a 64-bit hash of a key. Implementations need not be
// cryptographically strong, only well-distributed.
type Hash[K comparable] func(K) uint64

// Table is an open-addressing hash table keyed by K, hashed with a
// caller-supplied Hash function.
//
// The zero Table is not ready to use; construct one with New.
type Table[K comparable, V any] struct {
	ctrl []byte
	keys []K
	vals []V
	hash Hash[K]
	len  int // Number of full slots.
	used int // Number of non-empty slots (full + deleted), for load factoring.
}

// New constructs an empty Table using the given hash function.
func New[K comparable, V any](hash Hash[K]) *Table[K, V] {
	return &Table[K, V]{hash: hash}
}

// Len returns the number of entries currently in the table.
func (t *Table[K, V]) Len() int { return t.len }

// Get returns the value associated with key, if any.
func (t *Table[K, V]) Get(key K) (V, bool) {
	var zero V
	if len(t.ctrl) == 0 {
		return zero, false
	}

	h := t.hash(key)
	frag := h2(h)
	mask := uint64(len(t.ctrl) - 1)
	i := h & mask

	for {
		c := t.ctrl[i]
		if c == ctrlEmpty {
			return zero, false
		}
		if isFull(c) && c == frag && t.keys[i] == key {
			return t.vals[i], true
		}
		i = (i + 1) & mask
	}
}

// Has reports whether key is present in the table.
func (t *Table[K, V]) Has(key K) bool {
	_, ok := t.Get(key)
	return ok
}

// Set inserts or overwrites the value associated with key, reporting
// whether key was already present.
func (t *Table[K, V]) Set(key K, val V) (replaced bool) {
	if t.needsGrow() {
		t.grow()
	}

	h := t.hash(key)
	frag := h2(h)
	mask := uint64(len(t.ctrl) - 1)
	i := h & mask

	firstTombstone := -1
	for {
		c := t.ctrl[i]
		switch {
		case c == ctrlEmpty:
			slot := i
			if firstTombstone >= 0 {
				slot = uint64(firstTombstone)
			} else {
				t.used++
			}
			t.ctrl[slot] = frag
			t.keys[slot] = key
			t.vals[slot] = val
			t.len++
			debug.Log("swiss.set", "new key at slot %d", slot)
			return false
		case c == ctrlDeleted:
			if firstTombstone < 0 {
				firstTombstone = int(i)
			}
		case c == frag && t.keys[i] == key:
			t.vals[i] = val
			return true
		}
		i = (i + 1) & mask
	}
}

// Delete removes key from the table, reporting whether it was present.
func (t *Table[K, V]) Delete(key K) bool {
	if len(t.ctrl) == 0 {
		return false
	}

	h := t.hash(key)
	frag := h2(h)
	mask := uint64(len(t.ctrl) - 1)
	i := h & mask

	for {
		c := t.ctrl[i]
		if c == ctrlEmpty {
			return false
		}
		if isFull(c) && c == frag && t.keys[i] == key {
			t.ctrl[i] = ctrlDeleted
			var zeroK K
			var zeroV V
			t.keys[i] = zeroK
			t.vals[i] = zeroV
			t.len--
			return true
		}
		i = (i + 1) & mask
	}
}

// Range calls f for every entry in the table, in unspecified order. Range
// stops early if f returns false.
func (t *Table[K, V]) Range(f func(K, V) bool) {
	for i, c := range t.ctrl {
		if !isFull(c) {
			continue
		}
		if !f(t.keys[i], t.vals[i]) {
			return
		}
	}
}

func (t *Table[K, V]) needsGrow() bool {
	if len(t.ctrl) == 0 {
		return true
	}
	// Resize once 7/8 of slots are non-empty, matching the swisstable load
	// factor; this keeps average probe length short.
	return t.used*8 >= len(t.ctrl)*7
}

func (t *Table[K, V]) grow() {
	oldKeys, oldVals, oldCtrl := t.keys, t.vals, t.ctrl

	n := 16
	if len(oldCtrl) > 0 {
		n = len(oldCtrl) * 2
	}
	t.ctrl = make([]byte, n)
	for i := range t.ctrl {
		t.ctrl[i] = ctrlEmpty
	}
	t.keys = make([]K, n)
	t.vals = make([]V, n)
	t.len, t.used = 0, 0

	mask := uint64(n - 1)
	for i, c := range oldCtrl {
		if !isFull(c) {
			continue
		}
		h := t.hash(oldKeys[i])
		frag := h2(h)
		j := h & mask
		for t.ctrl[j] != ctrlEmpty {
			j = (j + 1) & mask
		}
		t.ctrl[j] = frag
		t.keys[j] = oldKeys[i]
		t.vals[j] = oldVals[i]
		t.len++
		t.used++
	}
	debug.Log("swiss.grow", "%d -> %d slots", len(oldCtrl), n)
}
