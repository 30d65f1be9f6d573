// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package param

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

var (
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()

	errUnsupported = errors.New("apix/param: unsupported scalar type")
)

// IsScalar reports whether FormatScalar can render values of type t.
//
// Scalars are booleans, integers, floats, strings, and any type which
// implements encoding.TextMarshaler or fmt.Stringer (with either a
// value or a pointer receiver). Enumerations are scalars too, but are
// rendered with EncodeEnum.
func IsScalar(t reflect.Type) bool {
	if implements(t, textMarshalerType) || implements(t, stringerType) {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String, reflect.Float32, reflect.Float64:
		return true
	default:
		return isInteger(t.Kind())
	}
}

// FormatScalar renders v with invariant formatting.
//
// Booleans always render as "true" or "false". Floats use the shortest
// decimal representation without an exponent. A TextMarshaler takes
// precedence over the value's kind, which in turn takes precedence over
// a String method.
func FormatScalar(v reflect.Value) (string, error) {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return "", nil
		}
		v = v.Elem()
	}
	t := v.Type()
	if implements(t, textMarshalerType) {
		b, err := addressable(v).Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	switch k := t.Kind(); {
	case k == reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	case k == reflect.String:
		if implements(t, stringerType) {
			break
		}
		return v.String(), nil
	case k == reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32), nil
	case k == reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), nil
	case isUnsigned(k):
		return strconv.FormatUint(v.Uint(), 10), nil
	case isInteger(k):
		return strconv.FormatInt(v.Int(), 10), nil
	}
	if implements(t, stringerType) {
		return addressable(v).Interface().(fmt.Stringer).String(), nil
	}
	return "", fmt.Errorf("%w: %s", errUnsupported, t)
}

// implements reports whether t or *t implements iface.
func implements(t, iface reflect.Type) bool {
	return t.Implements(iface) || (t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(iface))
}

// addressable returns a value whose method set includes pointer
// receiver methods.
func addressable(v reflect.Value) reflect.Value {
	if v.Kind() == reflect.Pointer {
		return v
	}
	if v.CanAddr() {
		return v.Addr()
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p
}
