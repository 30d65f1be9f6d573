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

// A Direction says whether a registration applies to incoming
// (response) bodies, outgoing (request) bodies, or both.
type Direction int

const (
	// In is the direction of response bodies being deserialized.
	In Direction = 1 << iota
	// Out is the direction of request bodies being serialized.
	Out
	// All is both In and Out.
	All = In | Out
)

// String returns "In", "Out", "All", or "None".
func (d Direction) String() string {
	switch d & All {
	case In:
		return "In"
	case Out:
		return "Out"
	case All:
		return "All"
	default:
		return "None"
	}
}

var serializerType = reflect.TypeOf((*Serializer)(nil)).Elem()

// ErrNotSerializer is returned by RegisterType when the serializer
// type does not implement Serializer.
var ErrNotSerializer = errors.New("apix/serial: type does not implement Serializer")

// registry is the process-wide table of registrations. Writes are
// rare, so a single RWMutex is enough.
var registry = struct {
	sync.RWMutex
	in  map[reflect.Type]reflect.Type
	out map[reflect.Type]reflect.Type
}{
	in:  make(map[reflect.Type]reflect.Type),
	out: make(map[reflect.Type]reflect.Type),
}

// Register maps data type T to serializer type S for direction d. The
// most recent registration for a type and direction wins. S is
// instantiated lazily, once per Resolver; when S is a pointer type the
// instance is a pointer to a zero value of the element type.
//
// Register panics if S is a Restricted serializer which does not accept
// T, since that can only be a programming error.
func Register[T any, S Serializer](d Direction) {
	if err := RegisterType(reflect.TypeOf((*T)(nil)).Elem(), reflect.TypeOf((*S)(nil)).Elem(), d); err != nil {
		panic(err)
	}
}

// Unregister removes the registrations of data type T for direction d.
// Resolution for T falls back to the default serializer.
func Unregister[T any](d Direction) {
	UnregisterType(reflect.TypeOf((*T)(nil)).Elem(), d)
}

// RegisterType is the non-generic form of Register.
//
// Pointer types are registered under their element type, so
// registering T also covers *T.
func RegisterType(t, s reflect.Type, d Direction) error {
	if s.Kind() == reflect.Interface || !s.Implements(serializerType) {
		return fmt.Errorf("%w: %s", ErrNotSerializer, s)
	}
	t = Indirect(t)
	if restricted, ok := newInstance(s).(Restricted); ok && !restricted.Accepts(t) {
		return fmt.Errorf("apix/serial: %s does not accept %s", s, t)
	}
	registry.Lock()
	defer registry.Unlock()
	if d&In != 0 {
		registry.in[t] = s
	}
	if d&Out != 0 {
		registry.out[t] = s
	}
	return nil
}

// UnregisterType is the non-generic form of Unregister.
func UnregisterType(t reflect.Type, d Direction) {
	t = Indirect(t)
	registry.Lock()
	defer registry.Unlock()
	if d&In != 0 {
		delete(registry.in, t)
	}
	if d&Out != 0 {
		delete(registry.out, t)
	}
}

// Lookup returns the serializer type registered for data type t and
// direction d, which must be exactly one of In or Out.
func Lookup(t reflect.Type, d Direction) (reflect.Type, bool) {
	t = Indirect(t)
	registry.RLock()
	defer registry.RUnlock()
	var s reflect.Type
	var ok bool
	switch d {
	case In:
		s, ok = registry.in[t]
	case Out:
		s, ok = registry.out[t]
	}
	return s, ok
}

// registered reports whether serializer type s is the target of any
// registration in either direction.
func registered(s reflect.Type) bool {
	registry.RLock()
	defer registry.RUnlock()
	for _, m := range [...]map[reflect.Type]reflect.Type{registry.in, registry.out} {
		for _, v := range m {
			if v == s {
				return true
			}
		}
	}
	return false
}

// Indirect strips all pointer levels from t.
func Indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// newInstance default-constructs serializer type s.
func newInstance(s reflect.Type) Serializer {
	if s.Kind() == reflect.Pointer {
		return reflect.New(s.Elem()).Interface().(Serializer)
	}
	return reflect.Zero(s).Interface().(Serializer)
}
