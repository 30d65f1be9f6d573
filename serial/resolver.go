// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package serial

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// ErrNotRegistered is returned by Configure when the serializer type is
// neither the Resolver's default nor the target of any registration.
var ErrNotRegistered = errors.New("apix/serial: serializer is neither default nor registered")

// ErrRestrictedDefault is returned by NewResolver when the proposed
// default serializer is Restricted.
var ErrRestrictedDefault = errors.New("apix/serial: restricted serializer cannot be a default")

// A Resolver maps data types to serializer instances.
//
// The Resolver consults the process-wide registrations made with
// Register and keeps a private cache holding one lazily constructed
// instance per serializer type. A Resolver is safe for concurrent use
// by multiple goroutines.
type Resolver struct {
	def Serializer

	mu    sync.Mutex
	cache map[reflect.Type]Serializer
}

// NewResolver returns a Resolver whose fallback is def. The default
// must be generic: a Restricted serializer is rejected.
func NewResolver(def Serializer) (*Resolver, error) {
	if def == nil {
		return nil, errors.New("apix/serial: nil default serializer")
	}
	if _, ok := def.(Restricted); ok {
		return nil, fmt.Errorf("%w: %T", ErrRestrictedDefault, def)
	}
	return &Resolver{
		def:   def,
		cache: make(map[reflect.Type]Serializer),
	}, nil
}

// Default returns the default serializer.
func (r *Resolver) Default() Serializer {
	return r.def
}

// Resolve returns the serializer for data type t in direction d, which
// must be one of In or Out. Resolve never fails: types with no
// registration, and boolean and numeric types, resolve to the default
// serializer.
func (r *Resolver) Resolve(t reflect.Type, d Direction) Serializer {
	if t == nil || !resolvable(Indirect(t)) {
		return r.def
	}
	s, ok := Lookup(t, d)
	if !ok {
		return r.def
	}
	return r.instance(s)
}

// Configure applies f to the shared instance of serializer type S held
// by r. If S is the type of the default serializer, the default itself
// is passed to f. Otherwise, if S is registered for any type, its
// cached instance is created if needed and passed to f. Otherwise
// Configure returns ErrNotRegistered without calling f.
//
// For the change to be visible to later resolutions S should be a
// pointer type.
func Configure[S Serializer](r *Resolver, f func(S)) error {
	st := reflect.TypeOf((*S)(nil)).Elem()
	if reflect.TypeOf(r.def) == st {
		f(r.def.(S))
		return nil
	}
	if !registered(st) {
		return fmt.Errorf("%w: %s", ErrNotRegistered, st)
	}
	f(r.instance(st).(S))
	return nil
}

func (r *Resolver) instance(s reflect.Type) Serializer {
	if s == reflect.TypeOf(r.def) {
		return r.def
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.cache[s]
	if !ok {
		inst = newInstance(s)
		r.cache[s] = inst
	}
	return inst
}

func resolvable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array, reflect.Interface, reflect.String:
		return true
	default:
		return false
	}
}
