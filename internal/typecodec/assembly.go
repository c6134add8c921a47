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

package typecodec

import (
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// Assembly is either a well-known 8-byte hash from a user-supplied trust
// list, or a package path plus a major/minor/build/revision version quad,
// per spec.md §3/§6. "Assembly" ports to "Go package" per SPEC_FULL.md
// §4.D: Path is the import path, Version the quad derived from the
// module's version string.
type Assembly struct {
	WellKnown bool
	Hash      uint64 // Set iff WellKnown.

	Path    string // Set iff !WellKnown.
	Version [4]int64
}

// ParseVersion derives the major/minor/build/revision quad spec.md §3/§6
// requires from a Go module version string such as "v1.2.3" or
// "v1.2.3-rc.4". Unparseable strings (including the empty string, used for
// packages with no module version information available) encode as an
// all-zero quad: spec.md's assembly-identity contract does not mandate any
// particular version format validity, only that the quad round-trips.
func ParseVersion(version string) [4]int64 {
	if !semver.IsValid(version) {
		return [4]int64{}
	}

	core := strings.TrimPrefix(semver.Canonical(version), "v")
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core = core[:i]
	}

	parts := strings.SplitN(core, ".", 3)
	var quad [4]int64
	for i, p := range parts {
		if i >= 3 {
			break
		}
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return [4]int64{}
		}
		quad[i] = n
	}

	// The fourth ("revision") component has no analogue in semver proper;
	// a numeric prerelease identifier, when present, fills it, matching
	// how many Go modules encode a build/revision counter as a
	// prerelease tag (e.g. "v1.2.3-4").
	if pre := semver.Prerelease(version); pre != "" {
		pre = strings.TrimPrefix(pre, "-")
		if n, err := strconv.ParseInt(pre, 10, 64); err == nil {
			quad[3] = n
		}
	}
	return quad
}
