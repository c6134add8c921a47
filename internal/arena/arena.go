// Copyright 2020-2025 Buf Technologies, Inc.
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

// Package arena provides a bump allocator used as the growable backing
// store for the buffer codec's encode-side Writer (see internal/buffer).
//
// Unlike a general-purpose arena, this one only ever holds pointer-free byte
// data; callers needing to keep an externally-allocated value alive for as
// long as the arena use [Arena.KeepAlive].
package arena

import (
	"unsafe"

	"github.com/polyserial/polyserial/internal/debug"
)

// Align is the alignment of every allocation made by an Arena.
const Align = int(unsafe.Sizeof(uintptr(0)))

// Arena is a bump allocator for pointer-free byte data.
//
// A zero Arena is empty and ready to use.
type Arena struct {
	chunk []byte // The current chunk; len(chunk) is the high-water mark.
	used  int    // Bytes of chunk already handed out.

	// Prior chunks, kept only so their memory is not collected while any
	// pointer returned by Alloc into them is still reachable; Free drops
	// these all at once.
	prior [][]byte

	// Values kept alive for the lifetime of this arena via KeepAlive.
	keep []any
}

// New allocates a new value of type T on the arena and returns a pointer to
// it.
func New[T any](a *Arena, value T) *T {
	var z T
	size := int(unsafe.Sizeof(z))
	p := (*T)(unsafe.Pointer(a.Alloc(size)))
	*p = value
	return p
}

// Alloc allocates size bytes of zeroed, pointer-aligned memory.
func (a *Arena) Alloc(size int) *byte {
	size = roundUp(size, Align)

	if a.chunk == nil || a.used+size > len(a.chunk) {
		a.grow(size)
	}

	p := &a.chunk[a.used]
	a.used += size
	debug.Log("alloc", "%p, %d bytes", p, size)
	return p
}

// Bytes allocates a zeroed byte slice of the given length on the arena.
func (a *Arena) Bytes(n int) []byte {
	p := a.Alloc(n)
	return unsafe.Slice(p, n)
}

// KeepAlive ensures v is not collected for as long as this arena is live.
func (a *Arena) KeepAlive(v any) {
	a.keep = append(a.keep, v)
}

// Free resets the arena, allowing its memory to be reused by a future
// caller. Any pointer obtained from Alloc/New/Bytes before this call must
// not be used afterward.
func (a *Arena) Free() {
	if a.chunk != nil {
		a.prior = append(a.prior, a.chunk)
	}
	a.chunk, a.used, a.keep = nil, 0, nil
	for i, c := range a.prior {
		clear(c)
		a.prior[i] = nil
	}
	a.prior = a.prior[:0]
}

func (a *Arena) grow(atLeast int) {
	if a.chunk != nil {
		a.prior = append(a.prior, a.chunk)
	}
	size := max(atLeast, 4096, 2*len(a.chunk))
	size = roundUp(size, Align)
	a.chunk = make([]byte, size)
	a.used = 0
}

func roundUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}
