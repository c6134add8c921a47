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

package resolver

import (
	"reflect"

	"github.com/polyserial/polyserial/internal/buffer"
	"github.com/polyserial/polyserial/internal/failure"
	"github.com/polyserial/polyserial/internal/formatter"
	"github.com/polyserial/polyserial/internal/session"
)

// primitiveResolver is the last-but-one link of the built-in chain: the
// fixed-width scalar singleton formatter for bool/int/uint/float/string,
// per spec.md §4.A/§6.
func primitiveResolver(_ formatter.Host, t reflect.Type) (formatter.Formatter, bool) {
	switch t.Kind() {
	case reflect.Bool:
		return primitiveFormatter{}, true
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint,
		reflect.Float32, reflect.Float64, reflect.String:
		// A named integer type (an enum) is claimed earlier in the chain by
		// enumResolver; named float and string types are encoded here by
		// their underlying kind, like the builtins.
		return primitiveFormatter{}, true
	default:
		return nil, false
	}
}

type primitiveFormatter struct{}

func (primitiveFormatter) Encode(w *buffer.Writer, _ *session.EncodeSession, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Bool:
		w.WriteBool(v.Bool())
	case reflect.Int8:
		w.WriteInt8(int8(v.Int()))
	case reflect.Int16:
		w.WriteInt16(int16(v.Int()))
	case reflect.Int32:
		w.WriteInt32(int32(v.Int()))
	case reflect.Int64, reflect.Int:
		w.WriteInt64(v.Int())
	case reflect.Uint8:
		w.WriteUint8(uint8(v.Uint()))
	case reflect.Uint16:
		w.WriteUint16(uint16(v.Uint()))
	case reflect.Uint32:
		w.WriteUint32(uint32(v.Uint()))
	case reflect.Uint64, reflect.Uint:
		w.WriteUint64(v.Uint())
	case reflect.Float32:
		w.WriteFloat32(float32(v.Float()))
	case reflect.Float64:
		w.WriteFloat64(v.Float())
	case reflect.String:
		w.WriteString(v.String())
	default:
		return failure.MissingFormatterf("primitive formatter cannot encode kind %s", v.Kind())
	}
	return nil
}

func (primitiveFormatter) Decode(r *buffer.Reader, _ *session.DecodeSession, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Bool:
		b, err := r.ReadBool()
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int8:
		x, err := r.ReadInt8()
		if err != nil {
			return err
		}
		v.SetInt(int64(x))
	case reflect.Int16:
		x, err := r.ReadInt16()
		if err != nil {
			return err
		}
		v.SetInt(int64(x))
	case reflect.Int32:
		x, err := r.ReadInt32()
		if err != nil {
			return err
		}
		v.SetInt(int64(x))
	case reflect.Int64, reflect.Int:
		x, err := r.ReadInt64()
		if err != nil {
			return err
		}
		v.SetInt(x)
	case reflect.Uint8:
		x, err := r.ReadUint8()
		if err != nil {
			return err
		}
		v.SetUint(uint64(x))
	case reflect.Uint16:
		x, err := r.ReadUint16()
		if err != nil {
			return err
		}
		v.SetUint(uint64(x))
	case reflect.Uint32:
		x, err := r.ReadUint32()
		if err != nil {
			return err
		}
		v.SetUint(uint64(x))
	case reflect.Uint64, reflect.Uint:
		x, err := r.ReadUint64()
		if err != nil {
			return err
		}
		v.SetUint(x)
	case reflect.Float32:
		x, err := r.ReadFloat32()
		if err != nil {
			return err
		}
		v.SetFloat(float64(x))
	case reflect.Float64:
		x, err := r.ReadFloat64()
		if err != nil {
			return err
		}
		v.SetFloat(x)
	case reflect.String:
		x, err := r.ReadString()
		if err != nil {
			return err
		}
		v.SetString(x)
	default:
		return failure.MissingFormatterf("primitive formatter cannot decode kind %s", v.Kind())
	}
	return nil
}

// enumResolver dispatches a named integer type through the underlying
// integer's primitive formatter, per spec.md §4.F/§8 scenario 6.
func enumResolver(_ formatter.Host, t reflect.Type) (formatter.Formatter, bool) {
	if t.Name() == "" {
		return nil, false
	}
	switch t.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		return primitiveFormatter{}, true
	default:
		return nil, false
	}
}
