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

package swiss

// control bytes, one per slot, tracking occupancy independently of the
// slot's key/value. The top bit distinguishes empty/deleted (1) from full
// (0); the low seven bits of a full slot cache a fragment of that slot's
// hash so most probes can reject a slot without comparing keys.
const (
	ctrlEmpty   byte = 0b1000_0000
	ctrlDeleted byte = 0b1111_1110
)

func h2(hash uint64) byte {
	return byte(hash>>57) & 0b0111_1111
}

func isFull(c byte) bool {
	return c&0b1000_0000 == 0
}
