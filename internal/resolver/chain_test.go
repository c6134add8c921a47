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

type stubFormatter struct{ tag string }

func (stubFormatter) Encode(*buffer.Writer, *session.EncodeSession, reflect.Value) error { return nil }
func (stubFormatter) Decode(*buffer.Reader, *session.DecodeSession, reflect.Value) error { return nil }

// TestUserResolverPrecedesBuiltins asserts spec.md §8's "resolver ordering"
// law: a user-supplied resolver always wins over the built-in chain, even
// for a type a built-in resolver would also match (here, a named int
// enum-shaped type, which enumResolver/primitiveResolver would otherwise
// claim).
func TestUserResolverPrecedesBuiltins(t *testing.T) {
	t.Parallel()

	type myEnum int32
	want := stubFormatter{tag: "user"}

	user := func(_ formatter.Host, t reflect.Type) (formatter.Formatter, bool) {
		if t == reflect.TypeOf(myEnum(0)) {
			return want, true
		}
		return nil, false
	}

	chain := resolver.NewChain(user)
	got, ok := chain.Resolve(nopHost{}, reflect.TypeOf(myEnum(0)))
	require.True(t, ok)
	assert.Equal(t, want, got)
}

// TestBuiltinFallsThroughToByMember confirms that a plain struct with no
// matching built-in resolver falls all the way to byMemberResolver, the
// last-resort case in the chain.
func TestBuiltinFallsThroughToByMember(t *testing.T) {
	t.Parallel()

	type plain struct {
		A int32
		B string
	}

	chain := resolver.NewChain()
	f, ok := chain.Resolve(structHost{}, reflect.TypeOf(plain{}))
	require.True(t, ok)
	assert.NotNil(t, f)
}

// structHost recursively resolves through the same built-in chain, letting
// byMemberResolver look up formatters for its members' types.
type structHost struct{}

func (structHost) FormatterFor(t reflect.Type) (formatter.Formatter, error) {
	chain := resolver.NewChain()
	f, ok := chain.Resolve(structHost{}, t)
	if !ok {
		return nil, assertErr{t}
	}
	return f, nil
}

type assertErr struct{ t reflect.Type }

func (e assertErr) Error() string { return "no formatter for " + e.t.String() }
