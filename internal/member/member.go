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

// Package member implements the by-member configuration of spec.md §3/§4.E:
// for a user struct type, which fields are persisted, in what order, and
// whether the type can be constructed via its zero value.
//
// Go has no property accessors, so spec.md's field/property distinction
// collapses to "exported struct field" per SPEC_FULL.md §4.E; force
// include/exclude is driven by a `graph:"include"`/`graph:"-"` struct tag,
// which always wins over the configured filter.
package member

import (
	"reflect"
	"sort"
	"sync"

	"github.com/polyserial/polyserial/internal/blit"
)

// Descriptor is one persisted member of a user type: spec.md §3's member
// descriptor, minus the accessor-kind field Go's lack of properties makes
// moot.
type Descriptor struct {
	Name  string
	Type  reflect.Type
	Index []int // Field path, suitable for reflect.Value.FieldByIndex.
	depth int    // Embedding depth, used only to establish Config.Members order.
}

// Filter decides whether an exported field is persisted absent a
// `graph:"include"`/`graph:"-"` override. The default filter accepts every
// exported field.
type Filter func(reflect.StructField) bool

// DefaultFilter accepts every exported, non-blank-identifier field.
func DefaultFilter(f reflect.StructField) bool {
	return f.IsExported() && f.Name != "_"
}

// Config is the by-member configuration for one user type, per spec.md
// §3: cached per type, lifetime = process, immutable after first
// publication (spec.md §5).
type Config struct {
	Blittable              bool
	ConstructUninitialized bool
	Members                []Descriptor
}

var (
	cacheMu sync.RWMutex
	cache   = map[reflect.Type]*Config{}

	ctorMu sync.RWMutex
	ctors  = map[reflect.Type]func() reflect.Value{}
)

// RegisterConstructor registers a zero-arg factory function for t, used in
// place of construct-via-zero-value when building t's Config. This is the
// Go analogue of spec.md §4.E's "publicly invokable no-arg constructor":
// Go structs have none, so an embedding application opts a type into
// non-zero-value construction explicitly.
func RegisterConstructor[T any](ctor func() T) {
	var zero T
	t := reflect.TypeOf(zero)
	ctorMu.Lock()
	defer ctorMu.Unlock()
	ctors[t] = func() reflect.Value { return reflect.ValueOf(ctor()) }
}

// ConfigFor returns the cached by-member Config for t, building and
// caching it on first use via the given filter. t must be a struct type.
func ConfigFor(t reflect.Type, filter Filter) *Config {
	cacheMu.RLock()
	cfg, ok := cache[t]
	cacheMu.RUnlock()
	if ok {
		return cfg
	}

	cfg = build(t, filter)

	cacheMu.Lock()
	cache[t] = cfg
	cacheMu.Unlock()
	return cfg
}

func build(t reflect.Type, filter Filter) *Config {
	if filter == nil {
		filter = DefaultFilter
	}

	var members []Descriptor
	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous {
			continue // The embedding declaration itself, not a data field.
		}

		tag, hasTag := f.Tag.Lookup("graph")
		switch {
		case hasTag && tag == "-":
			continue
		case hasTag && tag == "include":
			// Force-include always wins over the configured filter.
		default:
			if !filter(f) {
				continue
			}
		}

		members = append(members, Descriptor{
			Name:  f.Name,
			Type:  f.Type,
			Index: append([]int(nil), f.Index...),
			depth: len(f.Index) - 1,
		})
	}

	// Stable order: declaring-type depth in the embedding chain
	// (most-embedded last), then field name, lexicographic.
	sort.Slice(members, func(i, j int) bool {
		if members[i].depth != members[j].depth {
			return members[i].depth < members[j].depth
		}
		return members[i].Name < members[j].Name
	})

	ctorMu.RLock()
	_, hasCtor := ctors[t]
	ctorMu.RUnlock()

	return &Config{
		Blittable:              blit.Blittable(t),
		ConstructUninitialized: !hasCtor,
		Members:                members,
	}
}

// New constructs a fresh, addressable value of t: seeded from its
// registered constructor if one exists, or left zeroed otherwise.
// "Construct uninitialized" in spec.md §4.E maps to the latter path:
// unlike a raw-allocate in a language with uninitialized-memory hazards, a
// Go reflect.New is always legal and GC-safe (recorded as a REDESIGN in
// DESIGN.md). The result is always obtained via reflect.New so that
// decode can keep filling its fields in place, whether or not a
// constructor ran first.
func New(t reflect.Type) reflect.Value {
	ptr := reflect.New(t)
	ctorMu.RLock()
	ctor, ok := ctors[t]
	ctorMu.RUnlock()
	if ok {
		ptr.Elem().Set(ctor())
	}
	return ptr.Elem()
}
