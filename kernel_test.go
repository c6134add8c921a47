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

package polyserial_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyserial/polyserial"
)

type gadget struct {
	Value int32
	Next  *gadget
}

func TestKernelSharedReference(t *testing.T) {
	t.Parallel()
	k, err := polyserial.New(polyserial.WithRegisteredType("polyserial_test.gadget", gadget{}))
	require.NoError(t, err)

	a := &gadget{Value: 1}
	b := &gadget{Value: 2}

	data, err := polyserial.Encode(k, [3]*gadget{a, b, a})
	require.NoError(t, err)

	out, err := polyserial.Decode[[3]*gadget](k, data)
	require.NoError(t, err)

	assert.Equal(t, int32(1), out[0].Value)
	assert.Equal(t, int32(2), out[1].Value)
	assert.Same(t, out[0], out[2], "[a, b, a] must decode with out[0] === out[2]")
	assert.NotSame(t, out[0], out[1])
}

func TestKernelSelfCycle(t *testing.T) {
	t.Parallel()
	k, err := polyserial.New(polyserial.WithRegisteredType("polyserial_test.gadget", gadget{}))
	require.NoError(t, err)

	n := &gadget{Value: 42}
	n.Next = n

	data, err := polyserial.Encode(k, n)
	require.NoError(t, err)

	out, err := polyserial.Decode[*gadget](k, data)
	require.NoError(t, err)

	assert.Equal(t, int32(42), out.Value)
	assert.Same(t, out, out.Next)
}

type status int8

const (
	statusA status = iota
	statusB
	statusC
)

func TestKernelEnumEncoding(t *testing.T) {
	t.Parallel()
	k, err := polyserial.New()
	require.NoError(t, err)

	data, err := polyserial.Encode(k, statusC)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02}, data)

	out, err := polyserial.Decode[status](k, data)
	require.NoError(t, err)
	assert.Equal(t, statusC, out)
}

func TestKernelPrimitiveEncoding(t *testing.T) {
	t.Parallel()
	k, err := polyserial.New()
	require.NoError(t, err)

	data, err := polyserial.Encode(k, uint32(0x01020304))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, data)

	out, err := polyserial.Decode[uint32](k, data)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), out)
}

func TestKernelNilPointerRoundTrip(t *testing.T) {
	t.Parallel()
	k, err := polyserial.New(polyserial.WithRegisteredType("polyserial_test.gadget", gadget{}))
	require.NoError(t, err)

	var nilGadget *gadget
	data, err := polyserial.Encode(k, nilGadget)
	require.NoError(t, err)

	out, err := polyserial.Decode[*gadget](k, data)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestKernelQuotaExceeded(t *testing.T) {
	t.Parallel()
	k, err := polyserial.New(polyserial.WithRegisteredType("polyserial_test.gadget", gadget{}))
	require.NoError(t, err)

	n := &gadget{Value: 1}
	data, err := polyserial.Encode(k, n)
	require.NoError(t, err)

	tight, err := polyserial.New(
		polyserial.WithRegisteredType("polyserial_test.gadget", gadget{}),
		polyserial.WithMaxAllocatedBytes(1),
	)
	require.NoError(t, err)

	_, err = polyserial.Decode[*gadget](tight, data)
	require.Error(t, err)
	var perr *polyserial.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, polyserial.QuotaExceeded, perr.Kind)
}
