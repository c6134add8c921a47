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

package blit_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/polyserial/polyserial/internal/blit"
)

type point struct{ X, Y int32 }

type withPointer struct {
	P *int32
}

type withString struct {
	S string
}

type padded struct {
	A int8
	B int64
}

type nested struct {
	Pt point
	Z  int32
}

func TestBlittablePrimitives(t *testing.T) {
	assert.True(t, blit.Blittable(reflect.TypeOf(int32(0))))
	assert.True(t, blit.Blittable(reflect.TypeOf(false)))
}

func TestBlittableStruct(t *testing.T) {
	assert.True(t, blit.Blittable(reflect.TypeOf(point{})))
	assert.True(t, blit.Blittable(reflect.TypeOf(nested{})))
}

func TestNotBlittableWithPointer(t *testing.T) {
	assert.False(t, blit.Blittable(reflect.TypeOf(withPointer{})))
}

func TestNotBlittableWithString(t *testing.T) {
	assert.False(t, blit.Blittable(reflect.TypeOf(withString{})))
}

func TestNotBlittableWithPadding(t *testing.T) {
	assert.False(t, blit.Blittable(reflect.TypeOf(padded{})))
}

func TestBlittableArray(t *testing.T) {
	assert.True(t, blit.Blittable(reflect.TypeOf([4]int32{})))
}
