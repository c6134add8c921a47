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

package polyserial

import (
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/polyserial/polyserial/internal/buffer"
	"github.com/polyserial/polyserial/internal/failure"
	"github.com/polyserial/polyserial/internal/namemap"
	"github.com/polyserial/polyserial/internal/refengine"
	"github.com/polyserial/polyserial/internal/resolver"
	"github.com/polyserial/polyserial/internal/session"
	"github.com/polyserial/polyserial/internal/typecodec"
)

// Kernel is the compiled facade of spec §4.H: it owns the type/assembly
// codec, the formatter resolver chain, and the pooled session state, and
// decides for any requested static type whether a slot is reference-typed
// (routed through a reference engine, spec §4.G) or an inline aggregate
// (routed straight to a content formatter, spec §4.F).
//
// A Kernel is safe for concurrent use; its formatter cache is built
// at-most-once per type even under concurrent first use.
type Kernel struct {
	codec  *typecodec.Codec
	chain  *resolver.Chain
	budget int64

	encPool *session.EncodePool
	decPool *session.DecodePool

	cache sync.Map // reflect.Type -> Formatter
	group singleflight.Group
}

// New builds a Kernel from the given options.
func New(opts ...Option) (*Kernel, error) {
	var cfg Config
	for _, o := range opts {
		o.apply(&cfg)
	}

	assemblies, err := namemap.New(cfg.KnownAssemblies, func(s string) string { return s })
	if err != nil {
		return nil, err
	}
	types, err := namemap.New(cfg.KnownTypes, func(s string) string { return s })
	if err != nil {
		return nil, err
	}

	codec := typecodec.NewCodec(assemblies, types)
	for _, r := range cfg.registrations {
		codec.Register(r.name, r.typ)
	}

	return &Kernel{
		codec:   codec,
		chain:   resolver.NewChain(cfg.resolvers...),
		budget:  cfg.MaxAllocatedBytes,
		encPool: session.NewEncodePool(),
		decPool: session.NewDecodePool(),
	}, nil
}

// RegisterType associates fullName with typ after construction, for
// callers that discover registerable types dynamically (e.g. cmd/graphc
// loading a plugin list). Safe to call concurrently with Encode/Decode,
// but not with another RegisterType call for the same Kernel.
func (k *Kernel) RegisterType(fullName string, typ reflect.Type) {
	k.codec.Register(fullName, typ)
}

// FormatterFor implements formatter.Host (and so Host): it is the
// get_formatter(T) operation of spec §4.H. For a pointer or interface
// static type it returns a reference engine over T; for anything else it
// returns the content formatter the resolver chain produces directly.
// The result is cached per type and built at most once, even under
// concurrent first callers, using singleflight the way the resolver
// cache contract of spec §5 requires.
func (k *Kernel) FormatterFor(t reflect.Type) (Formatter, error) {
	if f, ok := k.cache.Load(t); ok {
		return f.(Formatter), nil
	}

	v, err, _ := k.group.Do(t.String(), func() (any, error) {
		if f, ok := k.cache.Load(t); ok {
			return f, nil
		}
		f, err := k.buildFormatter(t)
		if err != nil {
			return nil, err
		}
		k.cache.Store(t, f)
		return f, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Formatter), nil
}

func (k *Kernel) buildFormatter(t reflect.Type) (Formatter, error) {
	if t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface {
		return refengine.New(k.codec, k, t), nil
	}
	f, ok := k.chain.Resolve(k, t)
	if !ok {
		return nil, failure.MissingFormatterf("no formatter resolved for %s", t)
	}
	return f, nil
}

// Encode writes value to a fresh byte slice under k. T's static type
// decides sealed-vs-polymorphic dispatch for the root slot exactly as it
// would for a field of that type (spec §8 "Sealed-vs-polymorphic").
//
// Encode is a free function, not a method with its own type parameter,
// because Go does not allow a method to introduce type parameters beyond
// its receiver's.
func Encode[T any](k *Kernel, value T) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = failure.UnsupportedHostf("panic while synthesizing a by-member routine: %v", r)
		}
	}()

	w := &buffer.Writer{}
	s, release := k.encPool.Get()
	defer release()

	t := reflect.TypeOf((*T)(nil)).Elem()
	f, err := k.FormatterFor(t)
	if err != nil {
		return nil, err
	}
	if err := f.Encode(w, s, reflect.ValueOf(&value).Elem()); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Decode reads a T from data under k, enforcing k's configured allocation
// budget (spec §4.B, §8 "Quota monotonicity").
func Decode[T any](k *Kernel, data []byte) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = failure.UnsupportedHostf("panic while synthesizing a by-member routine: %v", r)
		}
	}()

	r := buffer.NewReader(data, k.budget)
	s, release := k.decPool.Get(k.budget)
	defer release()

	t := reflect.TypeOf((*T)(nil)).Elem()
	f, err := k.FormatterFor(t)
	if err != nil {
		return value, err
	}
	rv := reflect.ValueOf(&value).Elem()
	if err := f.Decode(r, s, rv); err != nil {
		return value, err
	}
	if n := r.Remaining(); n > 0 {
		return value, failure.Malformedf("trailing data: %d unconsumed byte(s) after decoding %s", n, t)
	}
	return value, nil
}
