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

import "github.com/polyserial/polyserial/internal/failure"

// Error is the single error type every polyserial failure is reported as,
// per spec §7. Use errors.As to recover it and inspect Kind.
type Error = failure.Error

// Kind is one of the five mutually disjoint failure kinds of spec §7.
type Kind = failure.Kind

// The five failure kinds, re-exported from internal/failure so callers
// never need to import an internal package to match on Kind.
const (
	Malformed        = failure.Malformed
	TypeNotFound     = failure.TypeNotFound
	MissingFormatter = failure.MissingFormatter
	QuotaExceeded    = failure.QuotaExceeded
	UnsupportedHost  = failure.UnsupportedHost
)
