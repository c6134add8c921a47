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

package member_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyserial/polyserial/internal/member"
)

type base struct {
	ID int32
}

type widget struct {
	base
	Zeta  string
	Alpha string
	skip  int32 //nolint:unused
	Raw   int32 `graph:"-"`
	Back  int32 `graph:"include" json:"-"`
}

func TestMemberOrderAndFiltering(t *testing.T) {
	cfg := member.ConfigFor(reflect.TypeOf(widget{}), nil)

	var names []string
	for _, m := range cfg.Members {
		names = append(names, m.Name)
	}
	// base.ID is exported, so the default filter includes it, but it is
	// promoted from an embedded struct at depth 1: fields declared directly
	// on widget (depth 0) sort first, by name, and ID comes after them.
	assert.Equal(t, []string{"Alpha", "Back", "Zeta", "ID"}, names)
}

func TestConfigIsCached(t *testing.T) {
	a := member.ConfigFor(reflect.TypeOf(widget{}), nil)
	b := member.ConfigFor(reflect.TypeOf(widget{}), nil)
	assert.Same(t, a, b)
}

type withCtor struct{ N int32 }

func TestRegisteredConstructorUsed(t *testing.T) {
	member.RegisterConstructor(func() withCtor { return withCtor{N: 42} })
	cfg := member.ConfigFor(reflect.TypeOf(withCtor{}), nil)
	assert.False(t, cfg.ConstructUninitialized)

	v := member.New(reflect.TypeOf(withCtor{}))
	require.Equal(t, int32(42), v.Interface().(withCtor).N)
}

func TestNewWithoutConstructorIsZeroValue(t *testing.T) {
	type plain struct{ N int32 }
	v := member.New(reflect.TypeOf(plain{}))
	assert.Equal(t, plain{}, v.Interface())
}
