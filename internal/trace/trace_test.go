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

package trace_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyserial/polyserial/internal/buffer"
	"github.com/polyserial/polyserial/internal/namemap"
	"github.com/polyserial/polyserial/internal/trace"
	"github.com/polyserial/polyserial/internal/typecodec"
)

func newCodec(t *testing.T) *typecodec.Codec {
	t.Helper()
	assemblies, err := namemap.New([]string{}, func(s string) string { return s })
	require.NoError(t, err)
	types, err := namemap.New([]string{"widgets.Gadget"}, func(s string) string { return s })
	require.NoError(t, err)
	return typecodec.NewCodec(assemblies, types)
}

func TestDisassembleNull(t *testing.T) {
	w := &buffer.Writer{}
	w.WriteVaruint(0)
	r := buffer.NewReader(w.Bytes(), 0)

	events, err := trace.Disassemble(r, newCodec(t), true)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "null", events[0].Kind)
}

func TestDisassembleBack(t *testing.T) {
	w := &buffer.Writer{}
	w.WriteVaruint(5) // BACK(3)
	r := buffer.NewReader(w.Bytes(), 0)

	events, err := trace.Disassemble(r, newCodec(t), true)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "back", events[0].Kind)
	assert.Contains(t, events[0].Detail, "BACK(3)")
}

func TestDisassembleNewPolymorphicWithKnownIdentity(t *testing.T) {
	codec := newCodec(t)
	hash, ok := codec.Types.Hash("widgets.Gadget")
	require.True(t, ok)

	w := &buffer.Writer{}
	w.WriteVaruint(1) // NEW
	codec.Encode(w, typecodec.KnownDef(hash))
	w.WriteRaw([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	r := buffer.NewReader(w.Bytes(), 0)

	events, err := trace.Disassemble(r, codec, true)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "new", events[0].Kind)
	assert.Equal(t, "identity", events[1].Kind)
	assert.Contains(t, events[1].Detail, "widgets.Gadget")
	assert.Equal(t, "payload", events[2].Kind)
	assert.Contains(t, events[2].Detail, "4 bytes")
}

func TestDisassembleSealedNewHasNoIdentity(t *testing.T) {
	w := &buffer.Writer{}
	w.WriteVaruint(1) // NEW
	w.WriteRaw([]byte{0x01, 0x02})
	r := buffer.NewReader(w.Bytes(), 0)

	events, err := trace.Disassemble(r, newCodec(t), false)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "new", events[0].Kind)
	assert.Equal(t, "payload", events[1].Kind)
}
