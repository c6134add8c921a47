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

package resolver

import (
	"reflect"
	"sync"

	"github.com/polyserial/polyserial/internal/formatter"
)

var (
	explicitMu  sync.RWMutex
	explicitFmt = map[reflect.Type]formatter.Formatter{}
)

// RegisterFormatter opts t into a user-supplied formatter ahead of the
// rest of the built-in chain, the Go analogue of spec.md §4.F's
// "user-attribute-indicated formatter" (Go has no field/type attributes
// read at formatter-resolution time, so this is the explicit opt-in
// equivalent).
func RegisterFormatter(t reflect.Type, f formatter.Formatter) {
	explicitMu.Lock()
	defer explicitMu.Unlock()
	explicitFmt[t] = f
}

func explicitResolver(_ formatter.Host, t reflect.Type) (formatter.Formatter, bool) {
	explicitMu.RLock()
	defer explicitMu.RUnlock()
	f, ok := explicitFmt[t]
	return f, ok
}

// Appender is satisfied by any generic collection exposing a single-value
// Add method, the Go shape of spec.md §4.F's "generic collections with
// add-method" case.
type Appender[T any] interface {
	Add(T)
}
