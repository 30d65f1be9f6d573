// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"unsafe"

	"github.com/gogama/apix/param"
)

// An Entry is one key/value produced from a Definition's tagged
// fields.
type Entry struct {
	param.Pair
	// Member is the Go name of the field which produced the entry.
	Member string
	// Data is the payload of a binary multipart part. It is nil for
	// text entries.
	Data io.Reader
}

// Extract walks the tagged fields of def, which must be of the
// described type, and returns their entries in emission order.
//
// Fields whose value is null (a nil pointer, func, interface, or
// slice, or a field promoted through a nil embedded pointer) produce no
// entries. Query and path values, and form values of a URL-encoded
// body, are percent-escaped; header and multipart values are not.
func (d *Descriptor) Extract(def interface{}) ([]Entry, error) {
	v := reflect.ValueOf(def)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}
	if !v.IsValid() || v.Type() != d.Type {
		return nil, fmt.Errorf("apix/request: descriptor of %s applied to %T", d.Type, def)
	}
	v = addressable(v)
	var entries []Entry
	for i := range d.Params {
		p := &d.Params[i]
		fv, ok, err := p.value(v)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		produced, err := p.encode(fv, d.escaper(p.Location))
		if err != nil {
			return nil, fmt.Errorf("apix/request: %s.%s: %w", d.Type, p.Name, err)
		}
		entries = append(entries, produced...)
	}
	return entries, nil
}

func (d *Descriptor) escaper(loc param.Location) param.Escaper {
	switch {
	case loc == param.Query:
		return param.QueryEscape
	case loc == param.Path:
		return param.PathEscape
	case loc == param.Form && d.Body == FormURLEncoded:
		return param.QueryEscape
	default:
		return param.NoEscape
	}
}

// bodyValue returns the value of the `body` field.
func (d *Descriptor) bodyValue(def interface{}) (reflect.Value, bool, error) {
	v := addressable(reflect.Indirect(reflect.ValueOf(def)))
	return d.body.value(v)
}

// value resolves the field's accessor on struct value v. It reports
// false if the value is null.
func (p *Param) value(v reflect.Value) (reflect.Value, bool, error) {
	fv, ok := fieldByIndex(v, p.index)
	if !ok {
		return reflect.Value{}, false, nil
	}
	if p.accessor != fieldAccessor {
		if fv.IsNil() {
			return reflect.Value{}, false, nil
		}
		out := fv.Call(nil)
		if p.accessor == funcErrAccessor && !out[1].IsNil() {
			return reflect.Value{}, false, out[1].Interface().(error)
		}
		fv = out[0]
	}
	for fv.Kind() == reflect.Pointer || fv.Kind() == reflect.Interface {
		if fv.IsNil() {
			return reflect.Value{}, false, nil
		}
		if fv.Kind() == reflect.Interface && p.kind == binaryValue {
			break
		}
		fv = fv.Elem()
	}
	if fv.Kind() == reflect.Slice && fv.IsNil() {
		return reflect.Value{}, false, nil
	}
	return fv, true, nil
}

// fieldByIndex is like reflect.Value.FieldByIndex but reports false
// instead of panicking when it meets a nil embedded pointer. The value
// v must be addressable. Fields promoted through an unexported embedded
// struct are returned without the read-only flag, so their methods and
// accessors can be called.
func fieldByIndex(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(x)
		if !v.CanInterface() {
			v = reflect.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem()
		}
	}
	return v, true
}

// addressable returns v, or an addressable copy of v.
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v
	}
	c := reflect.New(v.Type()).Elem()
	c.Set(v)
	return c
}

func (p *Param) encode(v reflect.Value, escape param.Escaper) ([]Entry, error) {
	switch p.kind {
	case scalarValue:
		s, err := param.FormatScalar(v)
		if err != nil {
			return nil, err
		}
		return p.entries([]param.Pair{{Key: escape(p.Key), Value: escape(s)}}, nil), nil
	case enumValue:
		s := param.EncodeEnum(v, p.Options.Enum)
		return p.entries([]param.Pair{{Key: escape(p.Key), Value: escape(s)}}, nil), nil
	case sequenceValue:
		values := make([]string, 0, v.Len())
		for i := range v.Len() {
			e := v.Index(i)
			for e.Kind() == reflect.Pointer || e.Kind() == reflect.Interface {
				if e.IsNil() {
					break
				}
				e = e.Elem()
			}
			if (e.Kind() == reflect.Pointer || e.Kind() == reflect.Interface) && e.IsNil() {
				continue
			}
			if param.IsEnum(e.Type()) {
				values = append(values, param.EncodeEnum(e, p.Options.Enum))
				continue
			}
			s, err := param.FormatScalar(e)
			if err != nil {
				return nil, err
			}
			values = append(values, s)
		}
		pairs := param.EncodeCollection(values, p.Key, p.Options.Collection, p.Options.Separator, escape)
		return p.entries(pairs, nil), nil
	case binaryValue:
		var data io.Reader
		if b, ok := v.Interface().([]byte); ok {
			data = bytes.NewReader(b)
		} else if r, ok := v.Interface().(io.Reader); ok {
			data = r
		} else if v.CanAddr() {
			data, _ = v.Addr().Interface().(io.Reader)
		}
		if data == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, v.Type())
		}
		return p.entries([]param.Pair{{Key: p.Key}}, data), nil
	default:
		panic("apix/request: invalid value kind")
	}
}

func (p *Param) entries(pairs []param.Pair, data io.Reader) []Entry {
	entries := make([]Entry, len(pairs))
	for i := range pairs {
		pairs[i].Location = p.Location
		entries[i] = Entry{Pair: pairs[i], Member: p.Name, Data: data}
	}
	return entries
}
