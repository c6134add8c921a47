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

package buffer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyserial/polyserial/internal/buffer"
	"github.com/polyserial/polyserial/internal/failure"
)

// TestPrimitiveScalar covers spec.md §8 scenario 1.
func TestPrimitiveScalar(t *testing.T) {
	var w buffer.Writer
	w.WriteUint32(0x01020304)
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, w.Bytes())

	r := buffer.NewReader(w.Bytes(), 0)
	v, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), v)
}

// TestSmallPositiveVaruint covers spec.md §8 scenario 2.
func TestSmallPositiveVaruint(t *testing.T) {
	var w buffer.Writer
	w.WriteVaruint(127)
	assert.Equal(t, []byte{0x7F}, w.Bytes())

	w.Reset()
	w.WriteVaruint(128)
	assert.Equal(t, []byte{0x80, 0x01}, w.Bytes())
}

// TestZigzag covers spec.md §8 scenario 3.
func TestZigzag(t *testing.T) {
	cases := []struct {
		v    int64
		want []byte
	}{
		{-1, []byte{0x01}},
		{1, []byte{0x02}},
		{-2, []byte{0x03}},
	}
	for _, tt := range cases {
		var w buffer.Writer
		w.WriteVarint(tt.v)
		assert.Equal(t, tt.want, w.Bytes())

		r := buffer.NewReader(w.Bytes(), 0)
		got, err := r.ReadVarint()
		require.NoError(t, err)
		assert.Equal(t, tt.v, got)
	}
}

func TestBoolRoundTrip(t *testing.T) {
	var w buffer.Writer
	w.WriteBool(true)
	w.WriteBool(false)

	r := buffer.NewReader(w.Bytes(), 0)
	v, err := r.ReadBool()
	require.NoError(t, err)
	assert.True(t, v)
	v, err = r.ReadBool()
	require.NoError(t, err)
	assert.False(t, v)
}

func TestBoolRejectsInvalidByte(t *testing.T) {
	r := buffer.NewReader([]byte{2}, 0)
	_, err := r.ReadBool()
	require.Error(t, err)
	var fe *failure.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, failure.Malformed, fe.Kind)
}

func TestStringRoundTrip(t *testing.T) {
	var w buffer.Writer
	w.WriteString("hello, 世界")

	r := buffer.NewReader(w.Bytes(), 0)
	s, err := r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "hello, 世界", s)
}

func TestTruncatedReadIsMalformed(t *testing.T) {
	r := buffer.NewReader([]byte{1, 2}, 0)
	_, err := r.ReadUint32()
	require.Error(t, err)
	var fe *failure.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, failure.Malformed, fe.Kind)
}

func TestVarintContinuationOverrun(t *testing.T) {
	// 10 bytes, every one with the continuation bit set: exceeds the
	// maximum legal length for a 64-bit varuint.
	raw := make([]byte, 10)
	for i := range raw {
		raw[i] = 0xFF
	}
	r := buffer.NewReader(raw, 0)
	_, err := r.ReadVaruint()
	require.Error(t, err)
	var fe *failure.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, failure.Malformed, fe.Kind)
}

func TestBudgetExceeded(t *testing.T) {
	r := buffer.NewReader([]byte{1, 2, 3, 4, 5, 6, 7, 8}, 4)
	_, err := r.ReadUint32()
	require.NoError(t, err)
	_, err = r.ReadUint32()
	require.Error(t, err)
	var fe *failure.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, failure.QuotaExceeded, fe.Kind)
}

func FuzzVaruintRoundTrip(f *testing.F) {
	f.Add(uint64(0))
	f.Add(uint64(127))
	f.Add(uint64(128))
	f.Add(uint64(1) << 63)
	f.Fuzz(func(t *testing.T, v uint64) {
		var w buffer.Writer
		w.WriteVaruint(v)

		r := buffer.NewReader(w.Bytes(), 0)
		got, err := r.ReadVaruint()
		require.NoError(t, err)
		assert.Equal(t, v, got)
	})
}

func FuzzVarintRoundTrip(f *testing.F) {
	f.Add(int64(0))
	f.Add(int64(-1))
	f.Add(int64(1))
	f.Fuzz(func(t *testing.T, v int64) {
		var w buffer.Writer
		w.WriteVarint(v)

		r := buffer.NewReader(w.Bytes(), 0)
		got, err := r.ReadVarint()
		require.NoError(t, err)
		assert.Equal(t, v, got)
	})
}
