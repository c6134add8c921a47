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

package typecodec

import (
	"reflect"
	"strings"

	"github.com/polyserial/polyserial/internal/buffer"
	"github.com/polyserial/polyserial/internal/failure"
	"github.com/polyserial/polyserial/internal/namemap"
)

// Codec encodes and decodes type Identities and resolves them back to
// reflect.Type on decode, through the host reflection facility spec.md §1
// treats as an external collaborator. Since Go offers no runtime API for
// enumerating all loaded types by name (unlike a CLR AppDomain), decode-side
// resolution of NamedDef/Constructed identities is driven by an explicit
// registry the embedding application populates via Register — the Go
// analogue of spec.md §6's assembly-loader callback, just eager rather than
// lazy.
type Codec struct {
	// Assemblies maps well-known package import paths to their compact
	// 8-byte hash encoding, per spec.md §4.C/§4.D.
	Assemblies *namemap.NameMap[string]
	// Types maps well-known full type names to their compact 8-byte hash
	// encoding (KnownDef), per spec.md §4.D.
	Types *namemap.NameMap[string]

	builtins     []reflect.Type
	builtinIndex map[reflect.Type]uint16
	registry     map[string]reflect.Type
	typeNames    map[reflect.Type]string
}

// NewCodec constructs a Codec with the fixed builtin scalar table and an
// empty registry.
func NewCodec(assemblies, types *namemap.NameMap[string]) *Codec {
	c := &Codec{
		Assemblies:   assemblies,
		Types:        types,
		builtins:     defaultBuiltins(),
		builtinIndex: map[reflect.Type]uint16{},
		registry:     map[string]reflect.Type{},
		typeNames:    map[reflect.Type]string{},
	}
	for i, t := range c.builtins {
		c.builtinIndex[t] = uint16(i)
	}
	return c
}

func defaultBuiltins() []reflect.Type {
	return []reflect.Type{
		reflect.TypeOf(false),
		reflect.TypeOf(int8(0)),
		reflect.TypeOf(int16(0)),
		reflect.TypeOf(int32(0)),
		reflect.TypeOf(int64(0)),
		reflect.TypeOf(uint8(0)),
		reflect.TypeOf(uint16(0)),
		reflect.TypeOf(uint32(0)),
		reflect.TypeOf(uint64(0)),
		reflect.TypeOf(float32(0)),
		reflect.TypeOf(float64(0)),
		reflect.TypeOf(""),
	}
}

// Register associates fullName (and, for a generic definition instantiated
// with args, fullName plus those args' own full names) with a concrete
// reflect.Type, so that decode-side resolution can find it. Call this once
// per type reachable by the serializer, analogous to registering a message
// type with a protobuf type registry.
func (c *Codec) Register(fullName string, typ reflect.Type) {
	c.registry[fullName] = typ
	c.typeNames[typ] = fullName
}

// IdentityFor is the encode-side inverse of Resolve: given a concrete
// reflect.Type encountered at a polymorphic reference-typed slot (spec.md
// §4.G), produce the Identity to write ahead of its content bytes. Builtins
// are recognized by table lookup; anything else must have been registered
// via Register, and is written as a KnownDef when its full name is in
// Types, else as a NamedDef whose package is the well-known hash when its
// path is in Assemblies. An unregistered type fails type-not-found, since polyserial has no
// runtime type-name derivation richer than the registry it's given.
func (c *Codec) IdentityFor(t reflect.Type) (*Identity, error) {
	if id, ok := c.builtinIndex[t]; ok {
		return BuiltinDef(id), nil
	}
	if name, ok := c.typeNames[t]; ok {
		if h, ok := c.Types.Hash(name); ok {
			return KnownDef(h), nil
		}
		path := t.PkgPath()
		asm := Assembly{Path: path}
		if h, ok := c.Assemblies.Hash(path); ok {
			asm = Assembly{WellKnown: true, Hash: h}
		}
		return NamedDef(name, asm), nil
	}
	return nil, failure.TypeNotFoundf("type %s was never registered with the codec", t)
}

// canonicalKey builds the registry key for a Constructed identity from its
// definition and argument full names, joined the way a generic
// instantiation's mangled name would be.
func canonicalKey(def *Identity, args []*Identity) string {
	var b strings.Builder
	b.WriteString(def.FullName)
	b.WriteByte('[')
	for i, a := range args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(a.FullName)
	}
	b.WriteByte(']')
	return b.String()
}

// Resolve reconstructs the reflect.Type denoted by id, failing with
// type-not-found if no candidate can be produced.
func (c *Codec) Resolve(id *Identity) (reflect.Type, error) {
	switch id.Kind {
	case KindSZArray:
		elem, err := c.Resolve(id.Elem)
		if err != nil {
			return nil, err
		}
		return reflect.SliceOf(elem), nil

	case KindArray:
		// Go has no native multi-dimensional array type the way the
		// original host does; an Array(rank, Elem) identity resolves to
		// rank nested slices, matching the row-major element layout
		// spec.md §6 specifies for the *value* encoding (this is recorded
		// as a REDESIGN in DESIGN.md).
		t, err := c.Resolve(id.Elem)
		if err != nil {
			return nil, err
		}
		for range max(id.Rank, 1) {
			t = reflect.SliceOf(t)
		}
		return t, nil

	case KindBuiltinDef:
		if int(id.Builtin) >= len(c.builtins) {
			return nil, failure.TypeNotFoundf("unknown builtin type id %d", id.Builtin)
		}
		return c.builtins[id.Builtin], nil

	case KindKnownDef:
		name, ok := c.Types.Value(id.Known)
		if !ok {
			return nil, failure.TypeNotFoundf("unknown well-known type hash %#x", id.Known)
		}
		t, ok := c.registry[name]
		if !ok {
			return nil, failure.TypeNotFoundf("well-known type %q is not registered", name)
		}
		return t, nil

	case KindNamedDef:
		t, ok := c.registry[id.FullName]
		if !ok {
			return nil, failure.TypeNotFoundf("type %q not found in package %s", id.FullName, id.Assembly.Path)
		}
		return t, nil

	case KindConstructed:
		key := canonicalKey(id.Definition, id.Args)
		t, ok := c.registry[key]
		if !ok {
			return nil, failure.TypeNotFoundf("generic instantiation %q not registered", key)
		}
		return t, nil

	case KindTypeParameter, KindMethodParameter:
		return nil, failure.TypeNotFoundf("a bare type-parameter identity cannot be resolved outside of a Constructed context")

	default:
		return nil, failure.TypeNotFoundf("invalid type identity kind %d", id.Kind)
	}
}

// --- Wire encoding ---------------------------------------------------

// maxInline is the all-ones value of the 5 high bits of a tag byte. Values
// below it are carried directly; a value of maxInline or more is written
// as maxInline in the tag plus the value itself in a trailing varuint.
const maxInline = 0b0001_1111

func packTag(kind Kind, inline int) (byte, bool) {
	if inline < 0 {
		inline = 0
	}
	if inline >= maxInline {
		return byte(kind) | (maxInline << 3), true
	}
	return byte(kind) | (byte(inline) << 3), false
}

// Encode writes id's tag byte and operands, in the fixed order of
// spec.md §3/§4.D.
func (c *Codec) Encode(w *buffer.Writer, id *Identity) {
	switch id.Kind {
	case KindSZArray:
		tag, _ := packTag(id.Kind, 0)
		w.WriteByte(tag)
		c.Encode(w, id.Elem)

	case KindArray:
		tag, overflow := packTag(id.Kind, id.Rank-1)
		w.WriteByte(tag)
		if overflow {
			w.WriteVaruint(uint64(id.Rank - 1))
		}
		c.Encode(w, id.Elem)

	case KindTypeParameter:
		tag, overflow := packTag(id.Kind, id.Index)
		w.WriteByte(tag)
		if overflow {
			w.WriteVaruint(uint64(id.Index))
		}
		c.Encode(w, id.Parent)

	case KindMethodParameter:
		tag, overflow := packTag(id.Kind, id.Index)
		w.WriteByte(tag)
		if overflow {
			w.WriteVaruint(uint64(id.Index))
		}
		c.Encode(w, id.ParentMethod)

	case KindConstructed:
		tag, _ := packTag(id.Kind, 0)
		w.WriteByte(tag)
		c.Encode(w, id.Definition)
		// Argument count is derived on decode from the definition's
		// arity, per spec.md §4.D: it is never transmitted.
		for _, a := range id.Args {
			c.Encode(w, a)
		}

	case KindBuiltinDef:
		tag, _ := packTag(id.Kind, 0)
		w.WriteByte(tag)
		w.WriteUint16(id.Builtin)

	case KindKnownDef:
		tag, _ := packTag(id.Kind, 0)
		w.WriteByte(tag)
		w.WriteUint64(id.Known)

	case KindNamedDef:
		tag, _ := packTag(id.Kind, 0)
		w.WriteByte(tag)
		w.WriteString(id.FullName)
		c.encodeAssembly(w, id.Assembly)
		// Arity travels with every NamedDef, not just ones actually used as
		// a Constructed's Definition: a plain (non-generic) NamedDef simply
		// carries arity 0. This is what lets arityOf derive a Constructed's
		// argument count from the definition alone, rather than the count
		// of arguments being transmitted at the Constructed site itself.
		w.WriteVaruint(uint64(id.Arity))
	}
}

func (c *Codec) encodeAssembly(w *buffer.Writer, asm Assembly) {
	if asm.WellKnown {
		w.WriteBool(true)
		w.WriteUint64(asm.Hash)
		return
	}
	w.WriteBool(false)
	w.WriteString(asm.Path)
	for _, v := range asm.Version {
		w.WriteVarint(v)
	}
}

// Decode reads one Identity from r. The number of Constructed arguments
// decoded is derived from the resolved definition's registered arity (see
// arityOf), not transmitted on the wire.
func (c *Codec) Decode(r *buffer.Reader) (*Identity, error) {
	tagByte, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	kind := Kind(tagByte & 0b111)
	inline := int(tagByte >> 3)
	readInline := func() (int, error) {
		if inline != maxInline {
			return inline, nil
		}
		v, err := r.ReadVaruint()
		return int(v), err
	}

	switch kind {
	case KindSZArray:
		elem, err := c.Decode(r)
		if err != nil {
			return nil, err
		}
		return SZArray(elem), nil

	case KindArray:
		n, err := readInline()
		if err != nil {
			return nil, err
		}
		elem, err := c.Decode(r)
		if err != nil {
			return nil, err
		}
		return Array(n+1, elem), nil

	case KindTypeParameter:
		idx, err := readInline()
		if err != nil {
			return nil, err
		}
		parent, err := c.Decode(r)
		if err != nil {
			return nil, err
		}
		return TypeParameter(idx, parent), nil

	case KindMethodParameter:
		idx, err := readInline()
		if err != nil {
			return nil, err
		}
		parent, err := c.Decode(r)
		if err != nil {
			return nil, err
		}
		return MethodParameter(idx, parent), nil

	case KindConstructed:
		def, err := c.Decode(r)
		if err != nil {
			return nil, err
		}
		n := arityOf(def)
		args := make([]*Identity, n)
		for i := range args {
			args[i], err = c.Decode(r)
			if err != nil {
				return nil, err
			}
		}
		return Constructed(def, args), nil

	case KindBuiltinDef:
		id, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		return BuiltinDef(id), nil

	case KindKnownDef:
		h, err := r.ReadUint64()
		if err != nil {
			return nil, err
		}
		return KnownDef(h), nil

	case KindNamedDef:
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		asm, err := c.decodeAssembly(r)
		if err != nil {
			return nil, err
		}
		arity, err := r.ReadVaruint()
		if err != nil {
			return nil, err
		}
		return GenericNamedDef(name, asm, int(arity)), nil

	default:
		return nil, failure.Malformedf("invalid type identity tag kind %d", kind)
	}
}

func (c *Codec) decodeAssembly(r *buffer.Reader) (Assembly, error) {
	wellKnown, err := r.ReadBool()
	if err != nil {
		return Assembly{}, err
	}
	if wellKnown {
		h, err := r.ReadUint64()
		if err != nil {
			return Assembly{}, err
		}
		return Assembly{WellKnown: true, Hash: h}, nil
	}

	path, err := r.ReadString()
	if err != nil {
		return Assembly{}, err
	}
	var version [4]int64
	for i := range version {
		version[i], err = r.ReadVarint()
		if err != nil {
			return Assembly{}, err
		}
	}
	return Assembly{Path: path, Version: version}, nil
}

// arityOf returns the number of type arguments a Constructed identity's
// definition expects, per its Arity field (see GenericNamedDef). Arity
// travels on the wire as part of the definition's own NamedDef encoding
// (see Codec.Encode/Decode), so this is never a transmitted argument
// count at the Constructed use site itself — only a property of the
// definition being instantiated.
func arityOf(def *Identity) int {
	return def.Arity
}
