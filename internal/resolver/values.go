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
	"math/big"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/polyserial/polyserial/internal/buffer"
	"github.com/polyserial/polyserial/internal/formatter"
	"github.com/polyserial/polyserial/internal/session"
)

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
	uuidType     = reflect.TypeOf(uuid.UUID{})
	bigIntType   = reflect.TypeOf(big.Int{})
	bitSetType   = reflect.TypeOf(BitSet(nil))
	localeType   = reflect.TypeOf(Locale(""))
)

// timeResolver provides the built-in date/time/duration value-type
// singleton, encoding time.Time (in UTC) as its Unix seconds (fixed-width
// int64) followed by its nanosecond within that second (uint32), and
// time.Duration as its nanosecond count in zigzag varint form.
func timeResolver(_ formatter.Host, t reflect.Type) (formatter.Formatter, bool) {
	switch t {
	case timeType:
		return timeFormatter{}, true
	case durationType:
		return durationFormatter{}, true
	default:
		return nil, false
	}
}

type timeFormatter struct{}

func (timeFormatter) Encode(w *buffer.Writer, _ *session.EncodeSession, v reflect.Value) error {
	tm := v.Interface().(time.Time).UTC()
	w.WriteInt64(tm.Unix())
	w.WriteUint32(uint32(tm.Nanosecond()))
	return nil
}

func (timeFormatter) Decode(r *buffer.Reader, _ *session.DecodeSession, v reflect.Value) error {
	sec, err := r.ReadInt64()
	if err != nil {
		return err
	}
	nsec, err := r.ReadUint32()
	if err != nil {
		return err
	}
	v.Set(reflect.ValueOf(time.Unix(sec, int64(nsec)).UTC()))
	return nil
}

type durationFormatter struct{}

func (durationFormatter) Encode(w *buffer.Writer, _ *session.EncodeSession, v reflect.Value) error {
	w.WriteVarint(int64(v.Interface().(time.Duration)))
	return nil
}

func (durationFormatter) Decode(r *buffer.Reader, _ *session.DecodeSession, v reflect.Value) error {
	n, err := r.ReadVarint()
	if err != nil {
		return err
	}
	v.Set(reflect.ValueOf(time.Duration(n)))
	return nil
}

// uuidResolver provides the built-in GUID value-type singleton: a 16-byte
// payload written as raw bytes. uuid.UUID is a blittable [16]byte array, so
// in the built-in chain arrayResolver, which comes earlier, already claims
// it with blittableFormatter; both write the same 16 raw bytes, and this
// resolver is reached only in a chain where no earlier link claims the type.
func uuidResolver(_ formatter.Host, t reflect.Type) (formatter.Formatter, bool) {
	if t != uuidType {
		return nil, false
	}
	return uuidFormatter{}, true
}

type uuidFormatter struct{}

func (uuidFormatter) Encode(w *buffer.Writer, _ *session.EncodeSession, v reflect.Value) error {
	id := v.Interface().(uuid.UUID)
	w.WriteRaw(id[:])
	return nil
}

func (uuidFormatter) Decode(r *buffer.Reader, _ *session.DecodeSession, v reflect.Value) error {
	raw, err := r.ReadRaw(16)
	if err != nil {
		return err
	}
	var id uuid.UUID
	copy(id[:], raw)
	v.Set(reflect.ValueOf(id))
	return nil
}

// bigIntResolver provides the built-in bignum value-type singleton: a
// sign byte followed by a varuint-length big-endian magnitude, mirroring
// math/big.Int's own Sign/Bytes accessors.
func bigIntResolver(_ formatter.Host, t reflect.Type) (formatter.Formatter, bool) {
	if t != bigIntType {
		return nil, false
	}
	return bigIntFormatter{}, true
}

type bigIntFormatter struct{}

func (bigIntFormatter) Encode(w *buffer.Writer, _ *session.EncodeSession, v reflect.Value) error {
	n := v.Addr().Interface().(*big.Int)
	w.WriteInt8(int8(n.Sign()))
	mag := n.Bytes()
	w.WriteVaruint(uint64(len(mag)))
	w.WriteRaw(mag)
	return nil
}

func (bigIntFormatter) Decode(r *buffer.Reader, _ *session.DecodeSession, v reflect.Value) error {
	sign, err := r.ReadInt8()
	if err != nil {
		return err
	}
	n, err := r.ReadVaruint()
	if err != nil {
		return err
	}
	mag, err := r.ReadRaw(int(n))
	if err != nil {
		return err
	}
	out := new(big.Int).SetBytes(mag)
	if sign < 0 {
		out.Neg(out)
	}
	v.Set(reflect.ValueOf(*out))
	return nil
}

// BitSet is a growable bitvector backed by 32-bit words, the Go analogue
// of spec.md §4.F's "bitvector" value type, grounded on the teacher's own
// presence-bitset layout in message.go (one uint32 word per 32 bits,
// little-endian bit order within a word).
type BitSet []uint32

// Get reports whether bit n is set.
func (b BitSet) Get(n uint32) bool {
	word := n / 32
	if int(word) >= len(b) {
		return false
	}
	return b[word]&(1<<(n%32)) != 0
}

// Set sets or clears bit n, growing the set if necessary.
func (b *BitSet) Set(n uint32, flag bool) {
	word := int(n / 32)
	for word >= len(*b) {
		*b = append(*b, 0)
	}
	mask := uint32(1) << (n % 32)
	if flag {
		(*b)[word] |= mask
	} else {
		(*b)[word] &^= mask
	}
}

// bitsetResolver provides the built-in bitvector value-type singleton: a
// varuint word count followed by that many little-endian uint32 words.
func bitsetResolver(_ formatter.Host, t reflect.Type) (formatter.Formatter, bool) {
	if t != bitSetType {
		return nil, false
	}
	return bitsetFormatter{}, true
}

type bitsetFormatter struct{}

func (bitsetFormatter) Encode(w *buffer.Writer, _ *session.EncodeSession, v reflect.Value) error {
	b := v.Interface().(BitSet)
	w.WriteVaruint(uint64(len(b)))
	for _, word := range b {
		w.WriteUint32(word)
	}
	return nil
}

func (bitsetFormatter) Decode(r *buffer.Reader, s *session.DecodeSession, v reflect.Value) error {
	n, err := r.ReadVaruint()
	if err != nil {
		return err
	}
	if err := s.ConsumeBytes(int64(n) * 4); err != nil {
		return err
	}
	b := make(BitSet, n)
	for i := range b {
		word, err := r.ReadUint32()
		if err != nil {
			return err
		}
		b[i] = word
	}
	v.Set(reflect.ValueOf(b))
	return nil
}

// Locale is a simplified stand-in for spec.md §4.F's "culture" value type:
// a bare BCP 47-style tag string (e.g. "en-US"), rather than a full
// golang.org/x/text/language.Tag (see DESIGN.md for why that dependency
// isn't wired here).
type Locale string

// localeResolver provides the built-in culture value-type singleton.
func localeResolver(_ formatter.Host, t reflect.Type) (formatter.Formatter, bool) {
	if t != localeType {
		return nil, false
	}
	return localeFormatter{}, true
}

type localeFormatter struct{}

func (localeFormatter) Encode(w *buffer.Writer, _ *session.EncodeSession, v reflect.Value) error {
	w.WriteString(v.String())
	return nil
}

func (localeFormatter) Decode(r *buffer.Reader, _ *session.DecodeSession, v reflect.Value) error {
	s, err := r.ReadString()
	if err != nil {
		return err
	}
	v.SetString(s)
	return nil
}
