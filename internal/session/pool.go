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

package session

import (
	"github.com/timandy/routine"

	"github.com/polyserial/polyserial/internal/sync2"
)

// EncodePool hands out EncodeSessions, keeping one warm per goroutine via
// routine.ThreadLocal before falling back to the shared sync.Pool, the
// same two-tier scheme the teacher uses to keep its own hot-path parser
// scratch state off the shared pool's lock in the common case of a
// goroutine repeatedly driving the same kernel.
type EncodePool struct {
	shared sync2.Pool[EncodeSession]
	local  routine.ThreadLocal
}

// NewEncodePool constructs an empty EncodePool.
func NewEncodePool() *EncodePool {
	return &EncodePool{local: routine.NewThreadLocal()}
}

// Get returns an EncodeSession ready for a new top-level encode, along with
// a function to call once that encode completes.
func (p *EncodePool) Get() (s *EncodeSession, release func()) {
	if v := p.local.Get(); v != nil {
		sess := v.(*EncodeSession)
		p.local.Set(nil)
		return sess, func() {
			sess.Reset()
			p.local.Set(sess)
		}
	}

	sess, drop := p.shared.Get()
	return sess, func() {
		sess.Reset()
		drop()
	}
}

// DecodePool hands out DecodeSessions the same way EncodePool hands out
// EncodeSessions.
type DecodePool struct {
	shared sync2.Pool[DecodeSession]
	local  routine.ThreadLocal
}

// NewDecodePool constructs an empty DecodePool.
func NewDecodePool() *DecodePool {
	return &DecodePool{local: routine.NewThreadLocal()}
}

// Get returns a DecodeSession configured with the given allocation budget,
// ready for a new top-level decode, along with a function to call once
// that decode completes.
func (p *DecodePool) Get(budget int64) (s *DecodeSession, release func()) {
	if v := p.local.Get(); v != nil {
		sess := v.(*DecodeSession)
		p.local.Set(nil)
		sess.Reset(budget)
		return sess, func() {
			sess.Reset(0)
			p.local.Set(sess)
		}
	}

	sess, drop := p.shared.Get()
	sess.Reset(budget)
	return sess, func() {
		sess.Reset(0)
		drop()
	}
}
