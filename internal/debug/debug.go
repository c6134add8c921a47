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

//go:build debug

// Package debug includes debugging and assertion helpers shared by the
// kernel's internal packages.
package debug

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/timandy/routine"
)

// Enabled is true if the binary was built with the debug tag.
const Enabled = true

var (
	debugPattern *regexp.Regexp
	nocapture    = flag.Bool("polyserial.nocapture", false, "disables capturing debug logs as test logs")
)

func init() {
	flag.Func("polyserial.filter", "regexp to filter debug logs by", func(s string) (err error) {
		debugPattern, err = regexp.Compile(s)
		return err
	})
}

// Log prints debugging information to stderr, tagged with the calling
// package, file, line, and goroutine id.
func Log(operation string, format string, args ...any) {
	skip := 1
again:
	pc, file, line, _ := runtime.Caller(skip)
	fn := runtime.FuncForPC(pc)
	name := fn.Name()
	name = name[strings.LastIndex(name, ".")+1:]
	if strings.HasPrefix(name, "log") || strings.Contains(name, "Log") {
		skip++
		goto again
	}

	pkg := fn.Name()
	pkg = strings.TrimPrefix(pkg, "github.com/polyserial/polyserial/")
	pkg = strings.TrimPrefix(pkg, "internal/")
	if idx := strings.Index(pkg, "."); idx >= 0 {
		pkg = pkg[:idx]
	}

	file = filepath.Base(file)

	buf := new(strings.Builder)
	fmt.Fprintf(buf, "%s/%s:%d [g%04d] %s: ", pkg, file, line, routine.Goid(), operation)
	fmt.Fprintf(buf, format, args...)

	if debugPattern != nil && !debugPattern.MatchString(buf.String()) {
		return
	}

	if !*nocapture {
		buf.WriteByte('\n')
	}
	os.Stderr.WriteString(buf.String())
}

// Assert panics if cond is false. When the debug tag is not set, Assert is
// an empty function; its arguments are still evaluated at the call site.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Errorf("polyserial: internal assertion failed: "+format, args...))
	}
}

// Value is a value of any type that only occupies space when the debug tag
// is enabled; see the !debug build of this type in debug_off.go.
type Value[T any] struct {
	x T
}

// Get returns a pointer to the wrapped value.
func (v *Value[T]) Get() *T { return &v.x }
