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

// Package formatter defines the Formatter and Resolver contracts shared by
// internal/resolver, internal/refengine, and the root kernel facade: a
// Formatter encodes and decodes values of one static type (spec.md
// GLOSSARY); a Resolver, given a reflect.Type, returns a Formatter or
// declines.
//
// These live in their own package, below the root package in the import
// graph, so that internal/resolver and internal/refengine can both refer
// to them without importing the root package (which itself imports both).
package formatter

import (
	"reflect"

	"github.com/polyserial/polyserial/internal/buffer"
	"github.com/polyserial/polyserial/internal/session"
)

// Formatter encodes and decodes values of one static type, per the
// GLOSSARY. Content formatters operate on the value directly (no
// reference/identity handling — that is internal/refengine's job for
// reference-typed slots).
type Formatter interface {
	// Encode writes value's payload, recursing into s for any nested
	// reference-typed fields.
	Encode(w *buffer.Writer, s *session.EncodeSession, value reflect.Value) error
	// Decode reads a payload into value, which is addressable and
	// settable.
	Decode(r *buffer.Reader, s *session.DecodeSession, value reflect.Value) error
}

// FormatterFunc pairs are occasionally convenient for builtins expressed as
// plain functions.
type FormatterFunc struct {
	Enc func(w *buffer.Writer, s *session.EncodeSession, value reflect.Value) error
	Dec func(r *buffer.Reader, s *session.DecodeSession, value reflect.Value) error
}

func (f FormatterFunc) Encode(w *buffer.Writer, s *session.EncodeSession, value reflect.Value) error {
	return f.Enc(w, s, value)
}

func (f FormatterFunc) Decode(r *buffer.Reader, s *session.DecodeSession, value reflect.Value) error {
	return f.Dec(r, s, value)
}

// Host is the recursive lookup capability a Resolver and the formatters it
// builds need from the kernel facade: obtaining the formatter for some
// other type, e.g. an element or field type. Kept as a narrow interface so
// internal/resolver never needs to import the root package.
type Host interface {
	FormatterFor(t reflect.Type) (Formatter, error)
}

// Resolver transforms (host, type) into a Formatter, or declines by
// returning ok == false, per spec.md §4.F. Resolvers are tried in a fixed
// order; the first to return ok == true wins, and later resolvers are not
// consulted (spec.md §8 "Resolver ordering").
type Resolver func(host Host, t reflect.Type) (f Formatter, ok bool)
