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

package xunsafe

import (
	"reflect"
	"unsafe"

	"github.com/polyserial/polyserial/internal/xunsafe/layout"
)

// Bytes returns the byte representation of the value pointed to by p.
func Bytes[P ~*E, E any](p P) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), layout.Size[E]())
}

// ValueBytes returns a byte slice over the storage of an addressable
// reflect.Value, the reflect-driven analogue of Bytes used by the
// blittable formatters in internal/resolver, which only have a
// reflect.Value (not a concrete *T) to work with.
func ValueBytes(v reflect.Value) []byte {
	return unsafe.Slice((*byte)(v.Addr().UnsafePointer()), v.Type().Size())
}

// CopyBytes copies raw into the storage of an addressable reflect.Value.
func CopyBytes(v reflect.Value, raw []byte) {
	copy(ValueBytes(v), raw)
}

// SliceBytes returns a byte slice over a slice value's backing array,
// without requiring v itself to be addressable (reflect.MakeSlice results
// never are, unlike the struct/array values ValueBytes expects).
func SliceBytes(v reflect.Value) []byte {
	return unsafe.Slice((*byte)(v.UnsafePointer()), v.Len()*int(v.Type().Elem().Size()))
}

// CopySliceBytes copies raw into a slice value's backing array.
func CopySliceBytes(v reflect.Value, raw []byte) {
	copy(SliceBytes(v), raw)
}
