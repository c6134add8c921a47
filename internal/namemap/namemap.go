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

// Package namemap implements the stable 64-bit hash-keyed lookup of
// spec.md §4.C, used by internal/typecodec to give well-known packages and
// types a compact 8-byte encoding instead of a length-prefixed name.
package namemap

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/polyserial/polyserial/internal/swiss"
)

// NameMap is a bidirectional lookup between values of type V and the
// 64-bit xxHash of a name derived from each value. Built once from a
// (values, name-fn) pair and immutable thereafter, per spec.md §5
// ("By-member configs and the name map are immutable after first
// publication").
type NameMap[V comparable] struct {
	byHash  *swiss.Table[uint64, V]
	byValue *swiss.Table[V, uint64]
}

// New builds a NameMap from values, hashing each one's name via
// xxhash.Sum64String. The first insertion for a given value wins; a
// duplicate value (by == on V) is rejected at construction time, while
// duplicate hashes across distinct values are tolerated silently, per the
// resolution of spec.md §9 Open Question (i) recorded in DESIGN.md.
func New[V comparable](values []V, name func(V) string) (*NameMap[V], error) {
	hashKey := func(v V) uint64 { return xxhash.Sum64String(name(v)) }
	m := &NameMap[V]{
		byHash:  swiss.New[uint64, V](func(h uint64) uint64 { return h }),
		byValue: swiss.New[V, uint64](hashKey),
	}

	for _, v := range values {
		if m.byValue.Has(v) {
			return nil, fmt.Errorf("namemap: duplicate value %v for name %q", v, name(v))
		}
		h := hashKey(v)
		m.byValue.Set(v, h)
		if !m.byHash.Has(h) {
			m.byHash.Set(h, v)
		}
	}
	return m, nil
}

// Hash returns the 64-bit hash assigned to v, if v is known to the map.
func (m *NameMap[V]) Hash(v V) (uint64, bool) {
	return m.byValue.Get(v)
}

// Value returns the value whose hash is h, if any. When two distinct
// values collide on their hash, Value returns whichever was inserted
// first.
func (m *NameMap[V]) Value(h uint64) (V, bool) {
	return m.byHash.Get(h)
}

// Len returns the number of distinct values in the map.
func (m *NameMap[V]) Len() int { return m.byValue.Len() }
