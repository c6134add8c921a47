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

// Package resolver implements the formatter resolver chain of spec.md
// §4.F: an ordered list of resolvers, the first of which to produce a
// formatter for a requested type wins. The built-in chain order is
// preserved exactly as spec.md lists it; a handful of cases have no
// direct Go analogue and are implemented as documented simplifications
// (see DESIGN.md).
//
// Unlike the original host's CLR-level "solve F<T1..Tn> : Formatter<X> by
// structural unification" generic resolver, Go offers no runtime API for
// instantiating an arbitrary generic type, so each built-in generic-shaped
// case (slice, map, array) is implemented directly as a Go generic
// function monomorphized over its element type via reflection recursion —
// functionally equivalent to unification for the concrete cases the
// built-in chain needs. There is no general generic resolver: a user
// formatter for one concrete type is registered through RegisterFormatter
// (consulted by explicitResolver), and container/list element types through
// RegisterListElem; no formatter is ever derived by matching a generic
// definition against an instantiation.
package resolver

import (
	"reflect"

	"github.com/polyserial/polyserial/internal/formatter"
)

// Chain is an ordered sequence of resolvers.
type Chain struct {
	resolvers []formatter.Resolver
}

// NewChain constructs a Chain with the built-in resolvers in the fixed
// order spec.md §4.F specifies, preceded by any user resolvers (which are
// always tried first, per spec.md §6 "resolvers: user-supplied resolvers
// prepended to the built-in chain").
func NewChain(user ...formatter.Resolver) *Chain {
	c := &Chain{}
	c.resolvers = append(c.resolvers, user...)
	c.resolvers = append(c.resolvers, builtins()...)
	return c
}

// Resolve tries each resolver in order, returning the first formatter
// produced. Later resolvers are never consulted once one matches (spec.md
// §8 "Resolver ordering").
func (c *Chain) Resolve(host formatter.Host, t reflect.Type) (formatter.Formatter, bool) {
	for _, r := range c.resolvers {
		if f, ok := r(host, t); ok {
			return f, true
		}
	}
	return nil, false
}

func builtins() []formatter.Resolver {
	return []formatter.Resolver{
		explicitResolver,   // user-attribute-indicated formatter
		arrayResolver,      // array (rank-specialized)
		sliceResolver,      // span-like memory views -> Go slices
		listResolver,       // pair/list/queue/stack -> container/list
		timeResolver,       // date/time/duration
		uuidResolver,       // guid
		bigIntResolver,     // bignum
		bitsetResolver,     // bitvector
		localeResolver,     // culture (simplified, see DESIGN.md)
		mapResolver,        // keyed collections with comparers
		appenderResolver,   // generic collections with add-method
		blittableResolver,  // byte-copy formatter for blittable aggregates
		enumResolver,       // enum formatter
		primitiveResolver,  // primitive singleton
		byMemberResolver,   // by-member formatter (last resort)
	}
}
