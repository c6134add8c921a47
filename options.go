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

package polyserial

import "reflect"

// Option is a configuration setting for New, following the teacher's
// CompileOption/UnmarshalOption shape: a function-valued struct rather
// than an interface, so options stay on the construction fast path.
type Option struct{ apply func(*Config) }

// Config accumulates the settings of a sequence of Options before New
// builds a Kernel from them. Most callers only ever see it through Option
// values.
type Config struct {
	// MaxAllocatedBytes bounds the bytes Decode will consume from its
	// input before failing with QuotaExceeded. Zero means unbounded.
	MaxAllocatedBytes int64

	// KnownAssemblies is the trust list of package import paths that
	// receive the compact 8-byte well-known encoding, per spec §4.C.
	KnownAssemblies []string

	// KnownTypes is the trust list of full type names that receive the
	// compact 8-byte well-known encoding, per spec §4.D.
	KnownTypes []string

	resolvers     []Resolver
	registrations []registration
}

type registration struct {
	name string
	typ  reflect.Type
}

// WithMaxAllocatedBytes sets the decode-side allocation budget (spec §4.B,
// §8 "Quota monotonicity"). A graph that decodes under budget B also
// decodes under any B' >= B.
func WithMaxAllocatedBytes(n int64) Option {
	return Option{func(c *Config) { c.MaxAllocatedBytes = n }}
}

// WithKnownAssemblies adds import paths to the well-known assembly trust
// list (spec §4.C). cmd/graphc loads this list from YAML.
func WithKnownAssemblies(paths ...string) Option {
	return Option{func(c *Config) { c.KnownAssemblies = append(c.KnownAssemblies, paths...) }}
}

// WithKnownTypes adds full type names to the well-known type trust list
// (spec §4.D).
func WithKnownTypes(names ...string) Option {
	return Option{func(c *Config) { c.KnownTypes = append(c.KnownTypes, names...) }}
}

// WithResolvers prepends user resolvers to the built-in chain, in the
// order given. A user resolver is always consulted before any built-in
// one (spec §6, §8 "Resolver ordering").
func WithResolvers(resolvers ...Resolver) Option {
	return Option{func(c *Config) { c.resolvers = append(c.resolvers, resolvers...) }}
}

// WithRegisteredType associates fullName with sample's type so that
// polymorphic reference slots (spec §4.G) and well-known-hash lookups
// (spec §4.D) can resolve it on decode. Pass a pointer sample (e.g.
// (*Shape)(nil)) for a type that must decode to a pointer-shaped
// identity, or a bare value sample for a value-shaped one.
func WithRegisteredType(fullName string, sample any) Option {
	return Option{func(c *Config) {
		c.registrations = append(c.registrations, registration{name: fullName, typ: reflect.TypeOf(sample)})
	}}
}
