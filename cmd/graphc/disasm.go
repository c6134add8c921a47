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

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"golang.org/x/term"

	"github.com/polyserial/polyserial/internal/buffer"
	"github.com/polyserial/polyserial/internal/dbg"
	"github.com/polyserial/polyserial/internal/failure"
	"github.com/polyserial/polyserial/internal/namemap"
	"github.com/polyserial/polyserial/internal/trace"
	"github.com/polyserial/polyserial/internal/typecodec"
)

func runDisasm(args []string) error {
	fs := flag.NewFlagSet("disasm", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a known-assemblies/known-types/max-allocated-bytes YAML config")
	polymorphic := fs.Bool("polymorphic", true, "treat the root slot as a polymorphic (interface-typed) reference")
	format := fs.String("format", "text", `output format: "text" or "json"`)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: graphc disasm [flags] <input-file>")
	}
	inputPath := fs.Arg(0)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	assemblies, err := namemap.New(cfg.KnownAssemblies, func(s string) string { return s })
	if err != nil {
		return fmt.Errorf("known-assemblies: %w", err)
	}
	types, err := namemap.New(cfg.KnownTypes, func(s string) string { return s })
	if err != nil {
		return fmt.Errorf("known-types: %w", err)
	}
	codec := typecodec.NewCodec(assemblies, types)

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}

	r := buffer.NewReader(data, cfg.MaxAllocatedBytes)
	events, err := trace.Disassemble(r, codec, *polymorphic)
	if err != nil {
		var fe *failure.Error
		if errors.As(err, &fe) && fe.Kind == failure.TypeNotFound {
			rerun := fmt.Sprintf("graphc disasm %s", shellescape.Quote(inputPath))
			fmt.Fprintf(os.Stderr, "graphc: %v\nonce the type-not-found cause is fixed, retry with:\n\t%s\n", err, rerun)
		}
		return err
	}

	colorize := *format == "text" && term.IsTerminal(int(os.Stdout.Fd()))
	if *format == "json" {
		printJSON(os.Stdout, events)
	} else {
		printText(os.Stdout, events, colorize)
	}
	return nil
}

func printText(w io.Writer, events []trace.Event, colorize bool) {
	for _, e := range events {
		kind := e.Kind
		if colorize {
			kind = colorForKind(e.Kind) + kind + "\x1b[0m"
		}
		fmt.Fprintf(w, "% 6d  %-12s %s\n", e.Offset, kind, e.Detail)
	}
}

func colorForKind(kind string) string {
	switch kind {
	case "null":
		return "\x1b[90m" // gray
	case "new":
		return "\x1b[32m" // green
	case "back":
		return "\x1b[36m" // cyan
	case "identity":
		return "\x1b[33m" // yellow
	default:
		return "\x1b[37m"
	}
}

func printJSON(w io.Writer, events []trace.Event) {
	fmt.Fprint(w, "[")
	for i, e := range events {
		if i > 0 {
			fmt.Fprint(w, ",")
		}
		fmt.Fprintf(w, `{"%s":%d,"%s":%q,"%s":%q}`,
			dbg.JSONKey("Offset"), e.Offset,
			dbg.JSONKey("Kind"), e.Kind,
			dbg.JSONKey("Detail"), strings.TrimSpace(e.Detail),
		)
	}
	fmt.Fprintln(w, "]")
}
