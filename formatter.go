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

import "github.com/polyserial/polyserial/internal/formatter"

// Formatter encodes and decodes values of one static type. Custom
// formatters are plugged in through a Resolver, not constructed directly.
type Formatter = formatter.Formatter

// Host is the recursive lookup capability a Resolver receives: obtaining
// the formatter for some other type, e.g. a field or element type. A
// *Kernel implements Host.
type Host = formatter.Host

// Resolver transforms (host, type) into a Formatter, or declines by
// returning ok == false. User resolvers are tried before any built-in one,
// in the order supplied to WithResolvers; the first to return ok == true
// wins (spec §8 "Resolver ordering").
type Resolver = formatter.Resolver
