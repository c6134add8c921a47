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

// Package trace implements the schema-free half of the cmd/graphc
// disasm supplemented feature (SPEC_FULL.md §5): a best-effort,
// human-readable walk of one top-level reference-typed slot's NULL/NEW/BACK
// tag and, for a polymorphic root, the dynamic type Identity that follows
// it (spec.md §4.G, §4.x).
//
// Unlike a protobuf wire stream, which is self-delimiting at every field
// (protoscope decodes arbitrarily deep without a .proto file), polyserial's
// by-member payload has no length prefix or field tags of its own: walking
// past the type identity requires the compiled member.Config for whatever
// concrete Go type the identity names, which this package does not have
// access to. So Disassemble reports everything it can parse without a
// schema — the reference tag and, if present, the type identity — and
// reports the rest of that slot's bytes as an opaque payload rather than
// guessing at member boundaries it cannot actually know.
package trace

import (
	"fmt"

	"github.com/polyserial/polyserial/internal/buffer"
	"github.com/polyserial/polyserial/internal/dbg"
	"github.com/polyserial/polyserial/internal/typecodec"
)

// Event is one line of a disassembly trace.
type Event struct {
	Offset int64
	Kind   string // "null", "new", "back", "identity", "payload"
	Detail string
}

// Disassemble walks one top-level reference slot from r. polymorphic
// selects whether a NEW tag is followed by a type Identity (an interface
// static root, spec.md §4.G) or not (a sealed pointer root, whose dynamic
// type is implied).
func Disassemble(r *buffer.Reader, codec *typecodec.Codec, polymorphic bool) ([]Event, error) {
	offset := r.BytesConsumed()
	tag, err := r.ReadVaruint()
	if err != nil {
		return nil, err
	}

	switch {
	case tag == 0:
		return []Event{{offset, "null", "NULL"}}, nil

	case tag == 1:
		events := []Event{{offset, "new", "NEW"}}
		if polymorphic {
			idOffset := r.BytesConsumed()
			id, err := codec.Decode(r)
			if err != nil {
				return events, err
			}
			events = append(events, Event{idOffset, "identity", describeIdentity(codec, id)})
		}
		payloadOffset := r.BytesConsumed()
		if n := r.Remaining(); n > 0 {
			raw, err := r.ReadRaw(n)
			if err != nil {
				return events, err
			}
			events = append(events, Event{
				payloadOffset, "payload",
				fmt.Sprintf("%d bytes follow (schema required to descend further): % x", len(raw), raw),
			})
		}
		return events, nil

	default:
		return []Event{{offset, "back", fmt.Sprintf("BACK(%d)", tag-2)}}, nil
	}
}

// describeIdentity renders a type Identity the way stringer.go renders the
// teacher's own internal types: a dbg.Dict keyed on whichever fields Kind
// populates.
func describeIdentity(codec *typecodec.Codec, id *typecodec.Identity) string {
	switch id.Kind {
	case typecodec.KindBuiltinDef:
		return dbg.Dict(id.Kind, "builtin", id.Builtin).String()
	case typecodec.KindKnownDef:
		if name, ok := codec.Types.Value(id.Known); ok {
			return dbg.Dict(id.Kind, "hash", fmt.Sprintf("%#x", id.Known), "name", name).String()
		}
		return dbg.Dict(id.Kind, "hash", fmt.Sprintf("%#x", id.Known), "name", "<not in known-types trust list>").String()
	case typecodec.KindNamedDef:
		return dbg.Dict(id.Kind, "name", id.FullName, "assembly", id.Assembly.Path).String()
	case typecodec.KindSZArray:
		return dbg.Dict(id.Kind, "elem", describeIdentity(codec, id.Elem)).String()
	case typecodec.KindArray:
		return dbg.Dict(id.Kind, "rank", id.Rank, "elem", describeIdentity(codec, id.Elem)).String()
	case typecodec.KindConstructed:
		return dbg.Dict(id.Kind, "definition", describeIdentity(codec, id.Definition), "args", len(id.Args)).String()
	default:
		return dbg.Dict(id.Kind).String()
	}
}
