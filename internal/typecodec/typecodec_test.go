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

package typecodec_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyserial/polyserial/internal/buffer"
	"github.com/polyserial/polyserial/internal/namemap"
	"github.com/polyserial/polyserial/internal/typecodec"
)

func newCodec(t *testing.T) *typecodec.Codec {
	t.Helper()
	assemblies, err := namemap.New([]string{"github.com/polyserial/polyserial"}, func(s string) string { return s })
	require.NoError(t, err)
	types, err := namemap.New([]string{"time.Time"}, func(s string) string { return s })
	require.NoError(t, err)
	return typecodec.NewCodec(assemblies, types)
}

func roundTrip(t *testing.T, c *typecodec.Codec, id *typecodec.Identity) *typecodec.Identity {
	t.Helper()
	var w buffer.Writer
	c.Encode(&w, id)
	r := buffer.NewReader(w.Bytes(), 0)
	got, err := c.Decode(r)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Remaining())
	return got
}

func TestBuiltinRoundTrip(t *testing.T) {
	c := newCodec(t)
	got := roundTrip(t, c, typecodec.BuiltinDef(3))
	assert.Equal(t, typecodec.KindBuiltinDef, got.Kind)
	assert.EqualValues(t, 3, got.Builtin)

	typ, err := c.Resolve(got)
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(int32(0)), typ)
}

func TestSZArrayRoundTrip(t *testing.T) {
	c := newCodec(t)
	got := roundTrip(t, c, typecodec.SZArray(typecodec.BuiltinDef(9)))
	require.Equal(t, typecodec.KindSZArray, got.Kind)

	typ, err := c.Resolve(got)
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf([]float32{}), typ)
}

func TestArrayRankRoundTrip(t *testing.T) {
	c := newCodec(t)
	got := roundTrip(t, c, typecodec.Array(40, typecodec.BuiltinDef(0)))
	assert.Equal(t, 40, got.Rank)
}

func TestNamedDefRoundTrip(t *testing.T) {
	c := newCodec(t)
	asm := typecodec.Assembly{Path: "example.com/pkg", Version: [4]int64{1, 2, 3, 0}}
	got := roundTrip(t, c, typecodec.NamedDef("pkg.Widget", asm))
	assert.Equal(t, "pkg.Widget", got.FullName)
	assert.Equal(t, asm, got.Assembly)
}

func TestKnownDefRoundTrip(t *testing.T) {
	c := newCodec(t)
	hash, ok := c.Types.Hash("time.Time")
	require.True(t, ok)

	got := roundTrip(t, c, typecodec.KnownDef(hash))
	assert.Equal(t, typecodec.KindKnownDef, got.Kind)
	assert.Equal(t, hash, got.Known)
}

func TestConstructedArityDerivedNotTransmitted(t *testing.T) {
	c := newCodec(t)
	def := typecodec.GenericNamedDef("pkg.Box", typecodec.Assembly{Path: "example.com/pkg"}, 1)
	id := typecodec.Constructed(def, []*typecodec.Identity{typecodec.BuiltinDef(3)})

	var w buffer.Writer
	c.Encode(&w, id)
	r := buffer.NewReader(w.Bytes(), 0)
	got, err := c.Decode(r)
	require.NoError(t, err)
	require.Len(t, got.Args, 1)
	assert.Equal(t, typecodec.KindBuiltinDef, got.Args[0].Kind)
}

func TestParseVersion(t *testing.T) {
	assert.Equal(t, [4]int64{1, 2, 3, 0}, typecodec.ParseVersion("v1.2.3"))
	assert.Equal(t, [4]int64{0, 0, 0, 0}, typecodec.ParseVersion("not-a-version"))
}

func TestUnknownBuiltinIsTypeNotFound(t *testing.T) {
	c := newCodec(t)
	_, err := c.Resolve(typecodec.BuiltinDef(9999))
	require.Error(t, err)
}
