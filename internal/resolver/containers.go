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

package resolver

import (
	"container/list"
	"fmt"
	"reflect"

	"github.com/polyserial/polyserial/internal/blit"
	"github.com/polyserial/polyserial/internal/buffer"
	"github.com/polyserial/polyserial/internal/failure"
	"github.com/polyserial/polyserial/internal/formatter"
	"github.com/polyserial/polyserial/internal/member"
	"github.com/polyserial/polyserial/internal/session"
	"github.com/polyserial/polyserial/internal/xunsafe"
)

// arrayResolver handles a fixed-length Go array as spec.md §6's
// multi-dimensional array wire format, rank-specialized to the array's
// compile-time length: no length is written, since the type itself fixes
// it.
func arrayResolver(host formatter.Host, t reflect.Type) (formatter.Formatter, bool) {
	if t.Kind() != reflect.Array {
		return nil, false
	}
	if blit.Blittable(t) {
		return blittableFormatter{}, true
	}
	elemFmt, err := host.FormatterFor(t.Elem())
	if err != nil {
		return nil, false
	}
	return arrayFormatter{elem: elemFmt, n: t.Len()}, true
}

type arrayFormatter struct {
	elem formatter.Formatter
	n    int
}

func (f arrayFormatter) Encode(w *buffer.Writer, s *session.EncodeSession, v reflect.Value) error {
	for i := range f.n {
		if err := f.elem.Encode(w, s, v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (f arrayFormatter) Decode(r *buffer.Reader, s *session.DecodeSession, v reflect.Value) error {
	for i := range f.n {
		if err := f.elem.Decode(r, s, v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

// sliceResolver handles the zero-lower-bound single-dimension case of
// spec.md §6: a varuint length followed by that many elements, with a raw
// byte-copy fast path when the element type is blittable.
func sliceResolver(host formatter.Host, t reflect.Type) (formatter.Formatter, bool) {
	if t.Kind() != reflect.Slice {
		return nil, false
	}
	elemFmt, err := host.FormatterFor(t.Elem())
	if err != nil {
		return nil, false
	}
	return sliceFormatter{elemType: t.Elem(), elem: elemFmt, blittable: blit.Blittable(t.Elem())}, true
}

type sliceFormatter struct {
	elemType  reflect.Type
	elem      formatter.Formatter
	blittable bool
}

func (f sliceFormatter) Encode(w *buffer.Writer, s *session.EncodeSession, v reflect.Value) error {
	w.WriteVaruint(uint64(v.Len()))
	if f.blittable && v.Len() > 0 {
		w.WriteRaw(xunsafe.SliceBytes(v))
		return nil
	}
	for i := range v.Len() {
		if err := f.elem.Encode(w, s, v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (f sliceFormatter) Decode(r *buffer.Reader, s *session.DecodeSession, v reflect.Value) error {
	n, err := r.ReadVaruint()
	if err != nil {
		return err
	}
	// Charge the backing array to the allocation budget before making it:
	// a malicious small input can otherwise claim a huge element count and
	// exhaust memory well before the per-element reads would ever fail.
	if err := s.ConsumeBytes(int64(n) * int64(f.elemType.Size())); err != nil {
		return err
	}
	out := reflect.MakeSlice(reflect.SliceOf(f.elemType), int(n), int(n))
	if f.blittable && n > 0 {
		raw, err := r.ReadRaw(int(n) * int(f.elemType.Size()))
		if err != nil {
			return err
		}
		xunsafe.CopySliceBytes(out, raw)
	} else {
		for i := range int(n) {
			if err := f.elem.Decode(r, s, out.Index(i)); err != nil {
				return err
			}
		}
	}
	v.Set(out)
	return nil
}

// listResolver handles container/list.List as the Go analogue of
// spec.md §4.F's pair/list/queue/stack case.
func listResolver(host formatter.Host, t reflect.Type) (formatter.Formatter, bool) {
	if t != reflect.TypeOf(list.List{}) {
		return nil, false
	}
	// Without a registered element type there is nothing to recurse
	// into; the by-member formatter decides per-field, so a bare
	// container/list.List field must come with a companion
	// RegisterListElem call naming its element type.
	elemType, ok := listElemTypes[t]
	if !ok {
		return nil, false
	}
	elemFmt, err := host.FormatterFor(elemType)
	if err != nil {
		return nil, false
	}
	return listFormatter{elem: elemFmt, elemType: elemType}, true
}

var listElemTypes = map[reflect.Type]reflect.Type{}

// RegisterListElem declares the element type stored in every
// container/list.List field the serializer will encounter, since Go's
// container/list is not itself generic.
func RegisterListElem(elemType reflect.Type) {
	listElemTypes[reflect.TypeOf(list.List{})] = elemType
}

type listFormatter struct {
	elem     formatter.Formatter
	elemType reflect.Type
}

func (f listFormatter) Encode(w *buffer.Writer, s *session.EncodeSession, v reflect.Value) error {
	l := v.Addr().Interface().(*list.List)
	w.WriteVaruint(uint64(l.Len()))
	for e := l.Front(); e != nil; e = e.Next() {
		if err := f.elem.Encode(w, s, reflect.ValueOf(e.Value)); err != nil {
			return err
		}
	}
	return nil
}

func (f listFormatter) Decode(r *buffer.Reader, s *session.DecodeSession, v reflect.Value) error {
	n, err := r.ReadVaruint()
	if err != nil {
		return err
	}
	if err := s.ConsumeBytes(int64(n) * int64(f.elemType.Size())); err != nil {
		return err
	}
	l := list.New()
	for range n {
		elem := reflect.New(f.elemType).Elem()
		if err := f.elem.Decode(r, s, elem); err != nil {
			return err
		}
		l.PushBack(elem.Interface())
	}
	v.Set(reflect.ValueOf(*l))
	return nil
}

// mapResolver handles "keyed collections with comparers" as a plain Go
// map, per spec.md §4.F.
func mapResolver(host formatter.Host, t reflect.Type) (formatter.Formatter, bool) {
	if t.Kind() != reflect.Map {
		return nil, false
	}
	keyFmt, err := host.FormatterFor(t.Key())
	if err != nil {
		return nil, false
	}
	valFmt, err := host.FormatterFor(t.Elem())
	if err != nil {
		return nil, false
	}
	return mapFormatter{keyType: t.Key(), valType: t.Elem(), key: keyFmt, val: valFmt}, true
}

type mapFormatter struct {
	keyType, valType reflect.Type
	key, val         formatter.Formatter
}

func (f mapFormatter) Encode(w *buffer.Writer, s *session.EncodeSession, v reflect.Value) error {
	w.WriteVaruint(uint64(v.Len()))
	iter := v.MapRange()
	for iter.Next() {
		if err := f.key.Encode(w, s, iter.Key()); err != nil {
			return err
		}
		if err := f.val.Encode(w, s, iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

func (f mapFormatter) Decode(r *buffer.Reader, s *session.DecodeSession, v reflect.Value) error {
	n, err := r.ReadVaruint()
	if err != nil {
		return err
	}
	if err := s.ConsumeBytes(int64(n) * int64(f.keyType.Size()+f.valType.Size())); err != nil {
		return err
	}
	out := reflect.MakeMapWithSize(reflect.MapOf(f.keyType, f.valType), int(n))
	for range n {
		k := reflect.New(f.keyType).Elem()
		if err := f.key.Decode(r, s, k); err != nil {
			return err
		}
		val := reflect.New(f.valType).Elem()
		if err := f.val.Decode(r, s, val); err != nil {
			return err
		}
		out.SetMapIndex(k, val)
	}
	v.Set(out)
	return nil
}

// appenderResolver handles "generic collections with add-method": any
// type whose pointer satisfies the resolver.Appender[T] shape for its own
// element type, discovered structurally rather than via Go generics
// instantiation (Go offers no runtime generic-interface satisfaction
// check parameterized by a reflect.Type, so this resolver matches the
// method shape directly).
func appenderResolver(host formatter.Host, t reflect.Type) (formatter.Formatter, bool) {
	ptr := reflect.PointerTo(t)
	addMethod, ok := ptr.MethodByName("Add")
	if !ok || addMethod.Type.NumIn() != 2 || addMethod.Type.NumOut() != 0 {
		return nil, false
	}
	elemType := addMethod.Type.In(1)
	rangeMethod, ok := ptr.MethodByName("Range")
	if !ok || rangeMethod.Type.NumIn() != 2 {
		return nil, false
	}
	elemFmt, err := host.FormatterFor(elemType)
	if err != nil {
		return nil, false
	}
	return appenderFormatter{elemType: elemType, elem: elemFmt, rangeArgType: rangeMethod.Type.In(1)}, true
}

type appenderFormatter struct {
	elemType     reflect.Type
	elem         formatter.Formatter
	rangeArgType reflect.Type
}

func (f appenderFormatter) Encode(w *buffer.Writer, s *session.EncodeSession, v reflect.Value) error {
	var elems []reflect.Value
	cb := reflect.MakeFunc(f.rangeArgType, func(args []reflect.Value) []reflect.Value {
		elems = append(elems, args[0])
		return nil
	})
	v.Addr().MethodByName("Range").Call([]reflect.Value{cb})
	w.WriteVaruint(uint64(len(elems)))
	for _, e := range elems {
		if err := f.elem.Encode(w, s, e); err != nil {
			return err
		}
	}
	return nil
}

func (f appenderFormatter) Decode(r *buffer.Reader, s *session.DecodeSession, v reflect.Value) error {
	n, err := r.ReadVaruint()
	if err != nil {
		return err
	}
	if err := s.ConsumeBytes(int64(n) * int64(f.elemType.Size())); err != nil {
		return err
	}
	for range n {
		elem := reflect.New(f.elemType).Elem()
		if err := f.elem.Decode(r, s, elem); err != nil {
			return err
		}
		v.Addr().MethodByName("Add").Call([]reflect.Value{elem})
	}
	return nil
}

// blittableResolver provides the byte-copy formatter for blittable
// aggregates, per spec.md §3 invariant (iv) and §4.F. It must be tried
// after the value-type singletons and before the enum/primitive/by-member
// fallbacks, so that a value type with a dedicated formatter earlier in the
// chain keeps that formatter even when it is blittable.
func blittableResolver(_ formatter.Host, t reflect.Type) (formatter.Formatter, bool) {
	if t.Kind() != reflect.Struct || !blit.Blittable(t) {
		return nil, false
	}
	return blittableFormatter{}, true
}

type blittableFormatter struct{}

func (blittableFormatter) Encode(w *buffer.Writer, _ *session.EncodeSession, v reflect.Value) error {
	w.WriteRaw(xunsafe.ValueBytes(v))
	return nil
}

func (blittableFormatter) Decode(r *buffer.Reader, _ *session.DecodeSession, v reflect.Value) error {
	raw, err := r.ReadRaw(int(v.Type().Size()))
	if err != nil {
		return err
	}
	xunsafe.CopyBytes(v, raw)
	return nil
}

// byMemberResolver is the last-resort formatter for user aggregates, per
// spec.md §4.E/§4.F.
func byMemberResolver(host formatter.Host, t reflect.Type) (formatter.Formatter, bool) {
	if t.Kind() != reflect.Struct {
		return nil, false
	}
	cfg := member.ConfigFor(t, nil)

	fmts := make([]formatter.Formatter, len(cfg.Members))
	for i, m := range cfg.Members {
		f, err := host.FormatterFor(m.Type)
		if err != nil {
			return nil, false
		}
		fmts[i] = f
	}
	return byMemberFormatter{cfg: cfg, fmts: fmts}, true
}

type byMemberFormatter struct {
	cfg  *member.Config
	fmts []formatter.Formatter
}

// Encode writes the concatenation of member encodings in the stable order
// of spec.md §4.E, with no length prefix or self-delimiting framing.
func (f byMemberFormatter) Encode(w *buffer.Writer, s *session.EncodeSession, v reflect.Value) error {
	for i, m := range f.cfg.Members {
		if err := f.fmts[i].Encode(w, s, v.FieldByIndex(m.Index)); err != nil {
			return annotateMemberError(err, m.Name)
		}
	}
	return nil
}

func (f byMemberFormatter) Decode(r *buffer.Reader, s *session.DecodeSession, v reflect.Value) error {
	for i, m := range f.cfg.Members {
		if err := f.fmts[i].Decode(r, s, v.FieldByIndex(m.Index)); err != nil {
			return annotateMemberError(err, m.Name)
		}
	}
	return nil
}

// annotateMemberError attaches the offending member's name to err for
// diagnostics without reclassifying its Kind: a quota-exceeded or
// malformed failure surfaced by a member's own formatter must still
// compare equal to that same Kind at the top level (spec.md §7 — the
// five kinds are mutually disjoint and must be surfaced as raised).
func annotateMemberError(err error, name string) error {
	if ferr, ok := err.(*failure.Error); ok {
		return ferr.WithValue(fmt.Sprintf("member %s", name))
	}
	return err
}
