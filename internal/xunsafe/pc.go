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

package xunsafe

// PC holds a function value of type F recoverable via Get, the way a raw
// program counter would be recoverable through runtime.FuncForPC if Go
// exposed a supported way to turn that back into a callable value (it does
// not, so this wraps the function value itself rather than its bare
// address).
type PC[F any] struct {
	fn F
}

// NewPC captures a function value for later retrieval via Get.
func NewPC[F any](f F) PC[F] {
	return PC[F]{fn: f}
}

// Get returns the captured function value.
func (p PC[F]) Get() F {
	return p.fn
}
