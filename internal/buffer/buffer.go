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

// Package buffer implements the wire-level scalar, varint, and string
// codecs shared by every higher layer of the serializer: fixed-width
// little-endian scalars, LEB128 varuints and their zigzag-encoded signed
// form, booleans, UTF-16 code units, and length-prefixed UTF-8 strings.
//
// A Writer accumulates bytes in a growable arena-backed buffer; a Reader
// consumes bytes from an in-memory cursor and counts every byte read
// against a configured allocation budget. That count is the Reader's own;
// internal/session's DecodeSession keeps a separate counter for the
// allocations it is charged with.
package buffer

import (
	"encoding/binary"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/polyserial/polyserial/internal/arena"
	"github.com/polyserial/polyserial/internal/failure"
	"github.com/polyserial/polyserial/internal/zigzag"
)

// Writer accumulates encoded bytes in a growable buffer. Its initial
// backing storage comes from an arena.Arena so that a pool of Writers
// amortizes allocation the same way internal/session's pooled sessions do;
// once that initial chunk is outgrown, Writer falls back to ordinary slice
// growth for the remainder of the call, since the arena itself does not
// support growing an allocation in place. The zero Writer is ready to use.
type Writer struct {
	arena arena.Arena
	buf   []byte
}

// Reset discards any written bytes and releases the backing arena so the
// Writer can be returned to a pool.
func (w *Writer) Reset() {
	w.arena.Free()
	w.buf = nil
}

// Bytes returns the bytes written so far. The slice is only valid until
// the next call to Reset.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// initialCap is the size of the first arena-backed chunk handed to a
// fresh Writer.
const initialCap = 256

func (w *Writer) ensureInit() {
	if w.buf == nil {
		w.buf = w.arena.Bytes(initialCap)[:0]
	}
}

// WriteByte writes a single byte.
func (w *Writer) WriteByte(b byte) {
	w.ensureInit()
	w.buf = append(w.buf, b)
}

// WriteRaw appends a raw, unframed byte span.
func (w *Writer) WriteRaw(p []byte) {
	w.ensureInit()
	w.buf = append(w.buf, p...)
}

// WriteBool writes a boolean as a single byte, 0 or 1.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteByte(1)
	} else {
		w.WriteByte(0)
	}
}

// WriteUint16/32/64 and WriteInt8/16/32/64 write fixed-width little-endian
// scalars.

func (w *Writer) WriteUint8(v uint8)   { w.WriteByte(v) }
func (w *Writer) WriteInt8(v int8)     { w.WriteByte(byte(v)) }

func (w *Writer) WriteUint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.WriteRaw(b[:])
}

func (w *Writer) WriteInt16(v int16) { w.WriteUint16(uint16(v)) }

func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.WriteRaw(b[:])
}

func (w *Writer) WriteInt32(v int32) { w.WriteUint32(uint32(v)) }

func (w *Writer) WriteUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.WriteRaw(b[:])
}

func (w *Writer) WriteInt64(v int64) { w.WriteUint64(uint64(v)) }

// WriteFloat32/64 write IEEE-754 scalars.
func (w *Writer) WriteFloat32(v float32) { w.WriteUint32(math.Float32bits(v)) }
func (w *Writer) WriteFloat64(v float64) { w.WriteUint64(math.Float64bits(v)) }

// WriteDecimal128 writes a 128-bit decimal as four little-endian i32 words.
func (w *Writer) WriteDecimal128(words [4]int32) {
	for _, word := range words {
		w.WriteInt32(word)
	}
}

// WriteUTF16 writes a single UTF-16 code unit as two bytes.
func (w *Writer) WriteUTF16(v uint16) { w.WriteUint16(v) }

// WriteVaruint writes an unsigned LEB128 varint.
func (w *Writer) WriteVaruint(v uint64) {
	w.ensureInit()
	w.buf = protowire.AppendVarint(w.buf, v)
}

// WriteVarint writes a signed value, zigzag-encoded then as a LEB128
// varint, per spec.md §4.A/§6.
func (w *Writer) WriteVarint(v int64) {
	w.WriteVaruint(zigzag.Encode(v))
}

// WriteString writes a varuint byte-length followed by the UTF-8 bytes of
// s.
func (w *Writer) WriteString(s string) {
	w.WriteVaruint(uint64(len(s)))
	w.ensureInit()
	w.buf = append(w.buf, s...)
}

// Reader consumes bytes from an in-memory cursor, tracking how many bytes
// have been consumed against an optional budget.
type Reader struct {
	buf     []byte
	pos     int
	budget  int64 // 0 means unbounded.
	used    int64
}

// NewReader constructs a Reader over buf with an optional allocation
// budget; budget <= 0 means unbounded.
func NewReader(buf []byte, budget int64) *Reader {
	return &Reader{buf: buf, budget: budget}
}

// Remaining returns the number of unconsumed bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// BytesConsumed returns the running total of bytes consumed so far.
func (r *Reader) BytesConsumed() int64 { return r.used }

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, failure.At(failure.Malformed, int64(r.pos), "truncated read: need %d bytes, have %d", n, r.Remaining())
	}
	r.used += int64(n)
	if r.budget > 0 && r.used > r.budget {
		return nil, failure.Quota(r.used, r.budget)
	}
	p := r.buf[r.pos : r.pos+n]
	r.pos += n
	return p, nil
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	p, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

// ReadRaw reads n raw bytes.
func (r *Reader) ReadRaw(n int) ([]byte, error) {
	return r.take(n)
}

// ReadBool reads a boolean; any byte other than 0 or 1 is malformed.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, failure.Malformedf("invalid bool byte %#x", b)
	}
}

func (r *Reader) ReadUint8() (uint8, error) { return r.ReadByte() }

func (r *Reader) ReadInt8() (int8, error) {
	b, err := r.ReadByte()
	return int8(b), err
}

func (r *Reader) ReadUint16() (uint16, error) {
	p, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(p), nil
}

func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

func (r *Reader) ReadUint32() (uint32, error) {
	p, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(p), nil
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

func (r *Reader) ReadUint64() (uint64, error) {
	p, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(p), nil
}

func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadUint64()
	return math.Float64frombits(v), err
}

// ReadDecimal128 reads a 128-bit decimal as four little-endian i32 words.
func (r *Reader) ReadDecimal128() (words [4]int32, err error) {
	for i := range words {
		if words[i], err = r.ReadInt32(); err != nil {
			return words, err
		}
	}
	return words, nil
}

// ReadUTF16 reads a single UTF-16 code unit.
func (r *Reader) ReadUTF16() (uint16, error) { return r.ReadUint16() }

// maxVarintBytes is the most LEB128 bytes a 64-bit varuint may legally
// occupy: ceil(64/7) = 10.
const maxVarintBytes = 10

// ReadVaruint reads an unsigned LEB128 varint, rejecting any encoding
// whose continuation bits run past the width of a 64-bit value.
func (r *Reader) ReadVaruint() (uint64, error) {
	var v uint64
	for i := 0; i < maxVarintBytes; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if i == maxVarintBytes-1 && b > 1 {
			return 0, failure.Malformedf("varint continuation overruns 64-bit width")
		}
		v |= uint64(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			return v, nil
		}
	}
	return 0, failure.Malformedf("varint continuation overruns 64-bit width")
}

// ReadVarint reads a zigzag-encoded signed varint.
func (r *Reader) ReadVarint() (int64, error) {
	u, err := r.ReadVaruint()
	if err != nil {
		return 0, err
	}
	return int64(protowire.DecodeZigZag(u)), nil
}

// ReadString reads a varuint byte-length followed by that many UTF-8
// bytes.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadVaruint()
	if err != nil {
		return "", err
	}
	p, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(p), nil
}
