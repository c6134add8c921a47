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

// Package layout provides generic helpers for reasoning about the memory
// layout of Go types, used by the raw-pointer helpers in package xunsafe.
package layout

import "unsafe"

// Int is any integer type usable as an offset or count in the xunsafe
// helpers.
type Int interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Size returns the size in bytes of T.
func Size[T any]() int {
	var z T
	return int(unsafe.Sizeof(z))
}

// Align returns the alignment in bytes of T.
func Align[T any]() int {
	var z T
	return int(unsafe.Alignof(z))
}

// Bits returns the number of bits in T, which must be a fixed-width integer
// or pointer-shaped type.
func Bits[T any]() int {
	return Size[T]() * 8
}

// Layout returns the size and alignment of T in one call.
func Layout[T any]() (size, align int) {
	return Size[T](), Align[T]()
}

// RoundUp rounds n upward to the nearest multiple of align, which must be a
// power of two.
func RoundUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// Padding returns the number of bytes between n and the next multiple of
// align, which must be a power of two.
func Padding(n, align int) int {
	return RoundUp(n, align) - n
}
