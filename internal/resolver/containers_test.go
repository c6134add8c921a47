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

package resolver_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyserial/polyserial/internal/buffer"
	"github.com/polyserial/polyserial/internal/formatter"
	"github.com/polyserial/polyserial/internal/resolver"
	"github.com/polyserial/polyserial/internal/session"
)

func chainRoundTrip(t *testing.T, typ reflect.Type, want any) any {
	t.Helper()
	chain := resolver.NewChain()
	host := chainHost{chain: chain}
	f, ok := chain.Resolve(host, typ)
	require.True(t, ok, "no resolver matched %s", typ)

	w := &buffer.Writer{}
	encSess := &session.EncodeSession{}
	src := reflect.New(typ).Elem()
	src.Set(reflect.ValueOf(want))
	require.NoError(t, f.Encode(w, encSess, src))

	r := buffer.NewReader(w.Bytes(), 1<<20)
	decSess := session.NewDecodeSession(1 << 20)
	dst := reflect.New(typ).Elem()
	require.NoError(t, f.Decode(r, decSess, dst))
	return dst.Interface()
}

type chainHost struct{ chain *resolver.Chain }

func (h chainHost) FormatterFor(t reflect.Type) (formatter.Formatter, error) {
	f, ok := h.chain.Resolve(h, t)
	if !ok {
		return nil, assertErr{t}
	}
	return f, nil
}

func TestSliceOfPrimitivesRoundTrip(t *testing.T) {
	t.Parallel()
	want := []int32{1, 2, 3, -4}
	got := chainRoundTrip(t, reflect.TypeOf(want), want)
	assert.Equal(t, want, got)
}

func TestSliceOfStringsRoundTrip(t *testing.T) {
	t.Parallel()
	want := []string{"a", "bb", ""}
	got := chainRoundTrip(t, reflect.TypeOf(want), want)
	assert.Equal(t, want, got)
}

func TestArrayRoundTrip(t *testing.T) {
	t.Parallel()
	want := [3]int32{10, 20, 30}
	got := chainRoundTrip(t, reflect.TypeOf(want), want)
	assert.Equal(t, want, got)
}

func TestMapRoundTrip(t *testing.T) {
	t.Parallel()
	want := map[string]int32{"a": 1, "b": 2}
	got := chainRoundTrip(t, reflect.TypeOf(want), want)
	assert.Equal(t, want, got)
}

type vec3 struct {
	X, Y, Z float32
}

func TestBlittableStructRoundTrip(t *testing.T) {
	t.Parallel()
	want := vec3{1, 2, 3}
	got := chainRoundTrip(t, reflect.TypeOf(want), want)
	assert.Equal(t, want, got)
}

type withSlice struct {
	Name string
	Vals []int32
}

func TestByMemberRoundTrip(t *testing.T) {
	t.Parallel()
	want := withSlice{Name: "n", Vals: []int32{1, 2}}
	got := chainRoundTrip(t, reflect.TypeOf(want), want)
	assert.Equal(t, want, got)
}
