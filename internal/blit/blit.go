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

// Package blit implements the blittability analyzer of spec.md §1(e)/§3
// invariant (iv): the decision procedure that authorizes raw byte copy for
// an aggregate. Named as its own component distinct from internal/member,
// which only records the decision once computed here.
//
// Bool and the fixed-width numeric scalars are blittable. Any other type is
// blittable iff it is an inline aggregate (a Go struct or fixed
// array, never a pointer/interface/map/slice/string/channel, and none of
// those appear anywhere in its field graph), every persisted field is
// itself blittable, and the sum of field sizes equals the aggregate size —
// i.e. the compiler inserted no padding. Raw copy of a blittable value
// uses internal/xunsafe.
package blit

import (
	"reflect"
	"sync"
)

var cache sync.Map // map[reflect.Type]bool

// Blittable reports whether t may be copied byte-for-byte without
// field-level interpretation. Results are cached per type for the
// lifetime of the process, matching the by-member config cache's
// lifetime in spec.md §3.
func Blittable(t reflect.Type) bool {
	if v, ok := cache.Load(t); ok {
		return v.(bool)
	}
	// Seed the cache with a provisional "not blittable" before recursing,
	// so that a self-referential struct (a field of the same type nested
	// inside itself, which can only happen through a pointer/slice/etc.
	// and therefore is never actually blittable) cannot recurse forever.
	cache.Store(t, false)
	result := compute(t)
	cache.Store(t, result)
	return result
}

func compute(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true

	case reflect.Array:
		return Blittable(t.Elem())

	case reflect.Struct:
		return structBlittable(t)

	default:
		// Pointer, Interface, Map, Slice, String, Chan, Func,
		// UnsafePointer, Int, Uint (platform-width, ambiguous size) are
		// never blittable.
		return false
	}
}

func structBlittable(t reflect.Type) bool {
	var sum uintptr
	for i := range t.NumField() {
		f := t.Field(i)
		if !Blittable(f.Type) {
			return false
		}
		sum += f.Type.Size()
	}
	// No compiler padding: the declared fields must account for every
	// byte of the struct.
	return sum == t.Size()
}
