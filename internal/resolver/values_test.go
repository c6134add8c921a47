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
	"math/big"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyserial/polyserial/internal/buffer"
	"github.com/polyserial/polyserial/internal/formatter"
	"github.com/polyserial/polyserial/internal/resolver"
	"github.com/polyserial/polyserial/internal/session"
)

// nopHost is a formatter.Host that never recurses, sufficient for the
// value-type singletons under test here, none of which call FormatterFor.
type nopHost struct{}

func (nopHost) FormatterFor(reflect.Type) (formatter.Formatter, error) {
	panic("unused")
}

func roundTripValue(t *testing.T, want any) any {
	t.Helper()
	chain := resolver.NewChain()
	typ := reflect.TypeOf(want)

	f, ok := chain.Resolve(nopHost{}, typ)
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

func TestTimeRoundTrip(t *testing.T) {
	t.Parallel()
	want := time.Date(2026, 7, 31, 12, 0, 0, 123000, time.UTC)
	got := roundTripValue(t, want)
	assert.True(t, want.Equal(got.(time.Time)))
}

func TestDurationRoundTrip(t *testing.T) {
	t.Parallel()
	got := roundTripValue(t, 90*time.Second)
	assert.Equal(t, 90*time.Second, got)
}

func TestUUIDRoundTrip(t *testing.T) {
	t.Parallel()
	want := uuid.New()
	got := roundTripValue(t, want)
	assert.Equal(t, want, got)
}

func TestBigIntRoundTripNegative(t *testing.T) {
	t.Parallel()
	want := *big.NewInt(-123456789)
	got := roundTripValue(t, want).(big.Int)
	assert.Equal(t, 0, want.Cmp(&got))
}

func TestBigIntRoundTripPositive(t *testing.T) {
	t.Parallel()
	want := *big.NewInt(42)
	got := roundTripValue(t, want).(big.Int)
	assert.Equal(t, 0, want.Cmp(&got))
}

func TestBitSetRoundTrip(t *testing.T) {
	t.Parallel()
	var want resolver.BitSet
	want.Set(3, true)
	want.Set(40, true)
	got := roundTripValue(t, want).(resolver.BitSet)
	assert.True(t, got.Get(3))
	assert.True(t, got.Get(40))
	assert.False(t, got.Get(4))
}

func TestLocaleRoundTrip(t *testing.T) {
	t.Parallel()
	got := roundTripValue(t, resolver.Locale("en-US"))
	assert.Equal(t, resolver.Locale("en-US"), got)
}
