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

// Package typecodec implements the bit-exact, reconstructable encoding of
// reflective type identities of spec.md §3/§4.D: a discriminated structure
// whose tag byte packs a 3-bit kind into the low bits and a small inline
// number (array rank minus one, or a parameter index) into the high five
// bits, immediately followed by that case's operands in a fixed order.
package typecodec

// Kind discriminates the cases of a type Identity, packed into the low 3
// bits of the wire tag byte.
type Kind byte

const (
	KindSZArray Kind = iota
	KindArray
	KindTypeParameter
	KindMethodParameter
	KindConstructed
	KindBuiltinDef
	KindKnownDef
	KindNamedDef
)

func (k Kind) String() string {
	switch k {
	case KindSZArray:
		return "SZArray"
	case KindArray:
		return "Array"
	case KindTypeParameter:
		return "TypeParameter"
	case KindMethodParameter:
		return "MethodParameter"
	case KindConstructed:
		return "Constructed"
	case KindBuiltinDef:
		return "BuiltinDef"
	case KindKnownDef:
		return "KnownDef"
	case KindNamedDef:
		return "NamedDef"
	default:
		return "Invalid"
	}
}

// Identity is a reflective type identity, per spec.md §3. Only the fields
// relevant to Kind are populated; see the constructors below.
type Identity struct {
	Kind Kind

	Elem *Identity // SZArray, Array: element type.
	Rank int       // Array: dimension count.

	Index  int       // TypeParameter, MethodParameter: parameter index.
	Parent *Identity // TypeParameter: the generic type definition.
	// ParentMethod specializes, in this port, to "the generic type
	// definition" per SPEC_FULL.md §4.D: Go has no user-invocable open
	// generic methods the way the original host does, only type
	// parameters on generic type definitions, so MethodParameter's
	// parent is encoded the same way as TypeParameter's.
	ParentMethod *Identity

	Definition *Identity   // Constructed: the generic definition.
	Args       []*Identity // Constructed: the type arguments.

	Builtin uint16 // BuiltinDef: index into the fixed builtin table.
	Known   uint64 // KnownDef: namemap hash of a well-known type.

	FullName string   // NamedDef: canonical dotted/slash name.
	Assembly Assembly // NamedDef: owning package identity.
	Arity    int      // NamedDef: type parameter count, when this NamedDef denotes a generic definition used as a Constructed.Definition.
}

// SZArray constructs the identity of a zero-lower-bound single-dimension
// array (a Go slice) of elem.
func SZArray(elem *Identity) *Identity {
	return &Identity{Kind: KindSZArray, Elem: elem}
}

// Array constructs the identity of a fixed-rank array of elem.
func Array(rank int, elem *Identity) *Identity {
	return &Identity{Kind: KindArray, Rank: rank, Elem: elem}
}

// TypeParameter constructs the identity of the index'th formal parameter
// of the generic type definition parent.
func TypeParameter(index int, parent *Identity) *Identity {
	return &Identity{Kind: KindTypeParameter, Index: index, Parent: parent}
}

// MethodParameter constructs the identity of the index'th formal parameter
// of parentMethod — in this port, itself a generic type definition (see
// ParentMethod's doc comment on Identity).
func MethodParameter(index int, parentMethod *Identity) *Identity {
	return &Identity{Kind: KindMethodParameter, Index: index, ParentMethod: parentMethod}
}

// Constructed constructs the identity of def instantiated with args. The
// argument count is never transmitted: on decode, it is derived from def's
// arity, per spec.md §4.D.
func Constructed(def *Identity, args []*Identity) *Identity {
	return &Identity{Kind: KindConstructed, Definition: def, Args: args}
}

// BuiltinDef constructs the identity of one of the fixed builtin scalar
// types, indexed by id.
func BuiltinDef(id uint16) *Identity {
	return &Identity{Kind: KindBuiltinDef, Builtin: id}
}

// KnownDef constructs the identity of a type found by namemap hash in the
// configured known-assemblies trust list.
func KnownDef(hash uint64) *Identity {
	return &Identity{Kind: KindKnownDef, Known: hash}
}

// NamedDef constructs the identity of a type by its canonical full name and
// owning package.
func NamedDef(fullName string, asm Assembly) *Identity {
	return &Identity{Kind: KindNamedDef, FullName: fullName, Assembly: asm}
}

// GenericNamedDef constructs the identity of a generic type definition
// (e.g. the "Box" in "Box[T]") with the given type parameter arity, for
// use as a Constructed identity's Definition. The arity travels with the
// definition so that, per spec.md §4.D, a Constructed identity's argument
// count can be derived on decode rather than transmitted.
func GenericNamedDef(fullName string, asm Assembly, arity int) *Identity {
	return &Identity{Kind: KindNamedDef, FullName: fullName, Assembly: asm, Arity: arity}
}
