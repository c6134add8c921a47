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

// Package polyserial is a binary object-graph serializer: it encodes and
// decodes arbitrary Go values, including cyclic and aliased pointer graphs
// and polymorphic interface slots, to a compact length-free wire format.
//
// A Kernel owns the compiled formatter cache, the type/assembly identity
// registry, and the pooled encode/decode session state; construct one with
// New and reuse it across calls. Encode and Decode are free functions
// parameterized by the value's static Go type, since Go does not allow a
// method itself to introduce new type parameters:
//
//	k, err := polyserial.New(polyserial.WithMaxAllocatedBytes(1 << 20))
//	data, err := polyserial.Encode(k, graph)
//	out, err := polyserial.Decode[*Node](k, data)
//
// Reference identity (pointer equality) and cycles are preserved across
// the round trip. Blittable aggregates are copied byte-for-byte; everything
// else goes through a by-member formatter built by reflection. Custom
// types are supported either by registering a type identity (for
// polymorphic slots) or by supplying a Resolver via WithResolvers.
//
// # Support Status
//
// The following are explicitly out of scope (see spec Non-goals):
//
//   - Schema evolution: the wire format has no optional-field or
//     version-skew tolerance. A registered type's member layout must match
//     between the encoding and decoding process.
//   - Cross-endian interchange: fixed-width scalars are little-endian only.
//   - Concealment or integrity: the format is not encrypted, signed, or
//     checksummed.
//   - Streaming/chunked decode: Decode requires the full byte slice
//     up front.
//   - Ahead-of-time compiled formatters: by-member formatters are built by
//     reflection at first use and cached, never code-generated to a file.
package polyserial
