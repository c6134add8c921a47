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

// Package session implements the per-call auxiliary state of spec.md §3/§4.B:
// the encode-side identity map (reference, not structural, identity) and the
// decode-side slot vector that lets cyclic back-references resolve before
// their referent has finished decoding.
//
// Both session types are poolable: Reset returns them to a state
// indistinguishable from new, so a sync.Pool (see internal/sync2) can hand
// them out across unrelated top-level encode/decode calls without leaking
// identity from one call into the next — see DESIGN.md's resolution of
// spec.md §9 Open Question (ii).
package session

import (
	"reflect"

	"github.com/polyserial/polyserial/internal/debug"
	"github.com/polyserial/polyserial/internal/failure"
)

// identityOf returns a key that compares equal for two values of Go
// reference kind (pointer, map, channel, slice, function) iff they are the
// same reference, never merely structurally equal. Non-reference values
// (passed as `any` holding a struct or scalar) are not supported and panic,
// since spec.md's reference engine only ever puts reference-typed slots
// through the session. The key pairs the address with the dynamic type, so a
// pointer to a struct and a pointer to its first field stay distinct.
func identityOf(obj any) identityKey {
	v := reflect.ValueOf(obj)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		return identityKey{v.Type(), v.Pointer()}
	case reflect.Slice:
		return identityKey{v.Type(), v.Pointer()}
	case reflect.Func:
		return identityKey{v.Type(), v.Pointer()}
	default:
		panic("session: identityOf requires a reference-kind value, got " + v.Kind().String())
	}
}

type identityKey struct {
	typ  reflect.Type
	addr uintptr
}

// EncodeSession is the encode-side identity map of spec.md §4.B: a value
// identity map from object reference to monotonically-assigned index.
// Insertion order equals assignment order, and comparison uses reference
// identity, never structural equality.
//
// The zero EncodeSession is ready to use.
type EncodeSession struct {
	index map[identityKey]uint32
	next  uint32
}

// Lookup returns the identity index previously assigned to obj, if any.
func (s *EncodeSession) Lookup(obj any) (index uint32, ok bool) {
	if s.index == nil {
		return 0, false
	}
	index, ok = s.index[identityOf(obj)]
	return index, ok
}

// Allocate assigns obj the next identity index and returns it. Allocate
// must only be called once per distinct reference; callers should Lookup
// first.
func (s *EncodeSession) Allocate(obj any) uint32 {
	if s.index == nil {
		s.index = make(map[identityKey]uint32)
	}
	idx := s.next
	s.next++
	s.index[identityOf(obj)] = idx
	debug.Log("session.encode.allocate", "index=%d", idx)
	return idx
}

// Len returns the number of distinct identities assigned so far.
func (s *EncodeSession) Len() uint32 { return s.next }

// Reset clears the session for reuse from a pool.
func (s *EncodeSession) Reset() {
	clear(s.index)
	s.next = 0
}

// slot is one entry of a DecodeSession's slot vector: allocated before its
// payload is decoded (written == false) so that cyclic children can
// reference it by index, then filled in once the payload formatter runs.
type slot struct {
	value   any
	written bool
}

// DecodeSession is the decode-side slot vector of spec.md §4.B: an ordered
// vector of reconstructed objects indexed by the same monotonic counter
// used during encode, plus a running bytes-consumed counter checked
// against a configured allocation ceiling.
//
// The zero DecodeSession has no budget (unbounded) and is ready to use;
// construct with NewDecodeSession to set one.
type DecodeSession struct {
	slots  []slot
	budget int64
	used   int64
}

// NewDecodeSession constructs a DecodeSession with the given allocation
// budget in bytes; budget <= 0 means unbounded.
func NewDecodeSession(budget int64) *DecodeSession {
	return &DecodeSession{budget: budget}
}

// Allocate appends a freshly-allocated, unwritten slot and returns its
// index. The slot must be written via Set before any nested decode may
// observe it through Get.
func (s *DecodeSession) Allocate() uint32 {
	idx := uint32(len(s.slots))
	s.slots = append(s.slots, slot{})
	debug.Log("session.decode.allocate", "index=%d", idx)
	return idx
}

// Set writes the payload for a previously allocated slot.
func (s *DecodeSession) Set(index uint32, value any) {
	debug.Assert(int(index) < len(s.slots), "session: Set on out-of-range slot %d", index)
	s.slots[index] = slot{value: value, written: true}
}

// Get returns the value held in slot index. It fails with
// cyclic-before-init if the slot was allocated but not yet written, or
// bad-index (also reported as Malformed, per spec.md §7) if index exceeds
// the current slot count.
func (s *DecodeSession) Get(index uint32) (any, error) {
	if int(index) >= len(s.slots) {
		return nil, failure.Malformedf("back-reference to out-of-range slot %d (have %d slots)", index, len(s.slots))
	}
	sl := s.slots[index]
	if !sl.written {
		return nil, failure.Malformedf("back-reference to slot %d before it finished decoding (cycle error)", index)
	}
	return sl.value, nil
}

// Len returns the number of slots allocated so far.
func (s *DecodeSession) Len() uint32 { return uint32(len(s.slots)) }

// ConsumeBytes records n additional bytes consumed and fails with
// quota-exceeded if the running total now surpasses the configured
// ceiling.
func (s *DecodeSession) ConsumeBytes(n int64) error {
	s.used += n
	if s.budget > 0 && s.used > s.budget {
		return failure.Quota(s.used, s.budget)
	}
	return nil
}

// Reset clears the session for reuse from a pool, keeping its configured
// budget.
func (s *DecodeSession) Reset(budget int64) {
	s.slots = s.slots[:0]
	s.budget = budget
	s.used = 0
}
