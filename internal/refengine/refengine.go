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

// Package refengine implements the reference engine of spec.md §4.G: the
// NULL/NEW/BACK tag protocol that gives reference-typed slots cycle support
// and, where the static type is an interface, polymorphic dispatch over the
// dynamic type.
//
// A reference-typed slot is modeled here as a Go pointer or interface
// value; everything else (structs passed by value, slices, maps, arrays) is
// handled directly by internal/resolver's content formatters and never
// reaches this package. The kernel facade (spec.md §4.H) decides, for a
// given static reflect.Type, whether a slot routes through Engine or
// straight to a content formatter; this package assumes that decision has
// already been made.
//
// A static interface slot's dynamic value is either pointer-shaped (some
// *T implementing the interface) or value-shaped (some T implementing it
// directly). Only the pointer-shaped case has a stable Go reference
// identity a later BACK tag could target — spec.md §4.G's "class" and
// "mutable inline aggregate" specializations both collapse to this one
// case in Go, since a mutable box with preserved identity *is* a pointer.
// The value-shaped case is spec.md's "read-only inline aggregate": it can
// never itself be the target of a cycle, so no identity slot is consumed
// for it, on either the encode or the decode side — consistent index
// bookkeeping on both sides depends on that symmetry.
package refengine

import (
	"reflect"

	"github.com/polyserial/polyserial/internal/buffer"
	"github.com/polyserial/polyserial/internal/debug"
	"github.com/polyserial/polyserial/internal/formatter"
	"github.com/polyserial/polyserial/internal/member"
	"github.com/polyserial/polyserial/internal/session"
	"github.com/polyserial/polyserial/internal/typecodec"
)

// newBox allocates a fresh, addressable value of t and returns a pointer
// to it, routing through member.New for struct types so that a
// RegisterConstructor registration (spec.md §4.E's construction policy)
// takes effect on the decode path, not just in member's own tests.
func newBox(t reflect.Type) reflect.Value {
	if t.Kind() == reflect.Struct {
		return member.New(t).Addr()
	}
	return reflect.New(t)
}

// Tag values for the NULL/NEW/BACK scheme, spec.md §4.x.
const (
	tagNull = 0
	tagNew  = 1
	// BACK(i) is encoded as i+2; see backOffset.
	backOffset = 2
)

// Engine implements formatter.Formatter for one static reference type,
// dispatching NULL/NEW/BACK tags and, for polymorphic (interface) static
// types, the dynamic type identity that precedes the payload.
type Engine struct {
	codec  *typecodec.Codec
	host   formatter.Host
	static reflect.Type
	// sealed is true when static is not itself an interface type: the
	// dynamic type at this slot is always static's pointed-to type, and no
	// type identity is written. Arrays of sealed elements are themselves
	// sealed per spec.md §4.G; an array of pointer elements simply builds
	// one Engine per element with the same pointer static type, so that
	// property falls out for free here rather than needing special-casing.
	sealed bool
}

// New constructs the reference engine for a static pointer or interface
// type. codec resolves/encodes dynamic type identities for polymorphic
// slots; host supplies the content formatter for whatever concrete
// non-reference type is ultimately decided — Engine never asks host for
// another pointer or interface type, so there is no re-entrant wrapping.
func New(codec *typecodec.Codec, host formatter.Host, static reflect.Type) *Engine {
	if static.Kind() != reflect.Pointer && static.Kind() != reflect.Interface {
		panic("refengine: static type must be a pointer or interface, got " + static.String())
	}
	return &Engine{codec: codec, host: host, static: static, sealed: static.Kind() != reflect.Interface}
}

// Encode implements formatter.Formatter.
func (e *Engine) Encode(w *buffer.Writer, s *session.EncodeSession, v reflect.Value) error {
	if v.IsNil() {
		w.WriteVaruint(tagNull)
		return nil
	}

	if v.Kind() == reflect.Pointer {
		return e.encodeReference(w, s, v.Interface(), v.Type().Elem(), v.Elem())
	}

	elem := v.Elem() // the concrete value stored in the interface
	if elem.Kind() == reflect.Pointer {
		return e.encodeReference(w, s, elem.Interface(), elem.Type(), elem.Elem())
	}
	return e.encodeInlineAggregate(w, s, elem)
}

// encodeReference handles a pointer-shaped dynamic value: identTyp is the
// type written to the wire as the dynamic type identity (the pointer type
// itself, so decode knows to allocate a box rather than a bare value), and
// content is the addressable pointed-to value the content formatter
// actually encodes.
func (e *Engine) encodeReference(w *buffer.Writer, s *session.EncodeSession, obj any, identTyp reflect.Type, content reflect.Value) error {
	if idx, ok := s.Lookup(obj); ok {
		w.WriteVaruint(uint64(idx) + backOffset)
		return nil
	}
	w.WriteVaruint(tagNew)
	s.Allocate(obj)

	if !e.sealed {
		id, err := e.codec.IdentityFor(identTyp)
		if err != nil {
			return err
		}
		e.codec.Encode(w, id)
	}

	fmtr, err := e.host.FormatterFor(content.Type())
	if err != nil {
		return err
	}
	return fmtr.Encode(w, s, content)
}

// encodeInlineAggregate handles a value-shaped dynamic value stored in an
// interface: it consumes no identity slot, since it can never be the
// target of a later back-reference.
func (e *Engine) encodeInlineAggregate(w *buffer.Writer, s *session.EncodeSession, elem reflect.Value) error {
	w.WriteVaruint(tagNew)

	if !e.sealed {
		id, err := e.codec.IdentityFor(elem.Type())
		if err != nil {
			return err
		}
		e.codec.Encode(w, id)
	}

	fmtr, err := e.host.FormatterFor(elem.Type())
	if err != nil {
		return err
	}
	return fmtr.Encode(w, s, elem)
}

// Decode implements formatter.Formatter. v must be addressable and of
// Engine's static type.
func (e *Engine) Decode(r *buffer.Reader, s *session.DecodeSession, v reflect.Value) error {
	tag, err := r.ReadVaruint()
	if err != nil {
		return err
	}

	switch {
	case tag == tagNull:
		v.Set(reflect.Zero(v.Type()))
		return nil

	case tag == tagNew:
		if e.sealed {
			return e.decodeSealed(r, s, v)
		}
		return e.decodePolymorphic(r, s, v)

	default:
		obj, err := s.Get(uint32(tag - backOffset))
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(obj))
		return nil
	}
}

// decodeSealed handles a NEW tag at a non-polymorphic (pointer) static
// slot: the dynamic type is always static's pointed-to type, and the
// freshly allocated box is published to the slot before its fields are
// decoded, so a cyclic back-reference among those fields resolves to the
// same box spec.md §4.G requires.
func (e *Engine) decodeSealed(r *buffer.Reader, s *session.DecodeSession, v reflect.Value) error {
	dynType := e.static.Elem()
	ptr := newBox(dynType)
	idx := s.Allocate()
	s.Set(idx, ptr.Interface())

	content, err := e.host.FormatterFor(dynType)
	if err != nil {
		return err
	}
	if err := content.Decode(r, s, ptr.Elem()); err != nil {
		return err
	}
	v.Set(ptr)
	return nil
}

// decodePolymorphic handles a NEW tag at an interface-typed slot: the
// dynamic type identity is read first, and then dispatched to either the
// pointer-shaped path (identical in spirit to decodeSealed, slot published
// before recursing) or the value-shaped path (constructed in full before
// ever touching the slot, since it cannot participate in a cycle).
func (e *Engine) decodePolymorphic(r *buffer.Reader, s *session.DecodeSession, v reflect.Value) error {
	id, err := e.codec.Decode(r)
	if err != nil {
		return err
	}
	storedType, err := e.codec.Resolve(id)
	if err != nil {
		return err
	}

	if storedType.Kind() == reflect.Pointer {
		dynType := storedType.Elem()
		ptr := newBox(dynType)
		idx := s.Allocate()
		s.Set(idx, ptr.Interface())

		content, err := e.host.FormatterFor(dynType)
		if err != nil {
			return err
		}
		if err := content.Decode(r, s, ptr.Elem()); err != nil {
			return err
		}
		debug.Assert(ptr.Type().AssignableTo(v.Type()), "refengine: decoded %s is not assignable to slot type %s", ptr.Type(), v.Type())
		v.Set(ptr)
		return nil
	}

	val := newBox(storedType).Elem()
	content, err := e.host.FormatterFor(storedType)
	if err != nil {
		return err
	}
	if err := content.Decode(r, s, val); err != nil {
		return err
	}
	debug.Assert(val.Type().AssignableTo(v.Type()), "refengine: decoded %s is not assignable to slot type %s", val.Type(), v.Type())
	v.Set(val)
	return nil
}
