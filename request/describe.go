// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"

	"github.com/gogama/apix/param"
)

// Configuration errors reported by Describe. They are wrapped in a
// *ConfigError naming the offending type and field.
var (
	ErrNotStruct       = errors.New("definition is not a struct")
	ErrUnexported      = errors.New("tagged field is not exported")
	ErrAccessor        = errors.New("accessor must be func() T or func() (T, error)")
	ErrUnsupportedType = errors.New("unsupported field type")
	ErrBadTag          = errors.New("invalid tag")
	ErrMultipleBodies  = errors.New("more than one body field")
	ErrConflictingBody = errors.New("conflicting body sources")
	ErrAmbiguous       = errors.New("tagged field is ambiguous")
)

// A ConfigError reports a Definition type whose tags cannot describe a
// request. Configuration errors are programming errors: they are found
// the first time a type is described and never go away at run time.
type ConfigError struct {
	Type  reflect.Type
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("apix/request: %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("apix/request: %s.%s: %v", e.Type, e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// A BodyMode says how the body of a request is produced.
type BodyMode int

const (
	// NoBody means the request has no body.
	NoBody BodyMode = iota
	// FormURLEncoded joins the `form` pairs into a URL-encoded body.
	FormURLEncoded
	// FormMultipart sends each `form` pair as a multipart part.
	FormMultipart
	// SerializedObject serializes the whole Definition.
	SerializedObject
	// SerializedMember serializes the value of the `body` field.
	SerializedMember
	// RawMember sends the `body` field, a []byte, string, or
	// io.Reader, as is.
	RawMember
	// ContentMember sends the `body` field, a Content, as is.
	ContentMember
)

var bodyModeNames = []string{
	"NoBody",
	"FormURLEncoded",
	"FormMultipart",
	"SerializedObject",
	"SerializedMember",
	"RawMember",
	"ContentMember",
}

func (m BodyMode) String() string {
	if m < 0 || int(m) >= len(bodyModeNames) {
		return fmt.Sprintf("BodyMode(%d)", int(m))
	}
	return bodyModeNames[m]
}

type valueKind int

const (
	scalarValue valueKind = iota
	enumValue
	sequenceValue
	binaryValue
)

type accessorKind int

const (
	fieldAccessor accessorKind = iota
	funcAccessor
	funcErrAccessor
)

// A Param describes one tagged field of a Definition.
type Param struct {
	// Location is the destination of the field's pairs.
	Location param.Location
	// Key is the output name: the tag key, or the field name if the
	// tag has none.
	Key string
	// Name is the Go field name.
	Name string
	// Depth is the embedding depth of the field: zero for fields of
	// the Definition struct itself, one for fields promoted from an
	// embedded struct, and so on.
	Depth int
	// Options are the parsed tag options.
	Options param.Options

	index    []int
	accessor accessorKind
	kind     valueKind
	elem     reflect.Type
}

// A Descriptor is the precomputed mapping of a Definition type onto
// the wire. Descriptors are immutable and are shared by all goroutines.
type Descriptor struct {
	// Type is the Definition's struct type.
	Type reflect.Type
	// Body is how the request body is produced.
	Body BodyMode
	// Params are the tagged fields in emission order: by depth, then
	// by declaration order.
	Params []Param
	// Authorized reports whether the Definition embeds Authorized.
	Authorized bool

	body *Param
}

// BodyField returns the Go name of the `body` field, if any.
func (d *Descriptor) BodyField() (string, bool) {
	if d.body == nil {
		return "", false
	}
	return d.body.Name, true
}

type describeResult struct {
	d   *Descriptor
	err error
}

var descriptors sync.Map

var (
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	readerType  = reflect.TypeOf((*io.Reader)(nil)).Elem()
	contentType = reflect.TypeOf((*Content)(nil)).Elem()
	bytesType   = reflect.TypeOf([]byte(nil))
)

// Describe returns the Descriptor of Definition type t, which is a
// struct or a pointer to one. Descriptors, and configuration errors,
// are computed once per type and cached.
//
// Fields promoted from embedded structs follow Go's promotion rules: a
// field at a shallower depth hides deeper fields of the same name, and
// a tagged field declared by two embedded structs at the same depth is
// ambiguous, which is reported as ErrAmbiguous. Embedded structs may be
// unexported.
func Describe(t reflect.Type) (*Descriptor, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if v, ok := descriptors.Load(t); ok {
		r := v.(describeResult)
		return r.d, r.err
	}
	d, err := describe(t)
	v, _ := descriptors.LoadOrStore(t, describeResult{d, err})
	r := v.(describeResult)
	return r.d, r.err
}

// DescribeOf returns the Descriptor of def's type.
func DescribeOf(def Definition) (*Descriptor, error) {
	return Describe(reflect.TypeOf(def))
}

type level struct {
	t     reflect.Type
	index []int
}

func describe(t reflect.Type) (*Descriptor, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, &ConfigError{Type: t, Err: ErrNotStruct}
	}
	d := &Descriptor{Type: t}
	seen := make(map[string]bool)
	current := []level{{t: t}}
	for depth := 0; len(current) > 0; depth++ {
		counts := make(map[string]int)
		for _, lv := range current {
			for i := range lv.t.NumField() {
				if name := lv.t.Field(i).Name; !seen[name] {
					counts[name]++
				}
			}
		}
		var next []level
		for _, lv := range current {
			for i := range lv.t.NumField() {
				f := lv.t.Field(i)
				if seen[f.Name] {
					continue
				}
				index := append(append([]int(nil), lv.index...), i)
				if f.Anonymous {
					ft := f.Type
					if ft.Kind() == reflect.Pointer {
						ft = ft.Elem()
					}
					if ft.Kind() == reflect.Struct {
						next = append(next, level{t: ft, index: index})
						continue
					}
				}
				if counts[f.Name] > 1 {
					if tagged(f) {
						return nil, &ConfigError{Type: t, Field: f.Name, Err: ErrAmbiguous}
					}
					continue
				}
				if err := d.addField(f, index, depth); err != nil {
					return nil, &ConfigError{Type: t, Field: f.Name, Err: err}
				}
			}
		}
		for name := range counts {
			seen[name] = true
		}
		current = next
	}
	if err := d.resolveBody(); err != nil {
		return nil, &ConfigError{Type: t, Err: err}
	}
	return d, nil
}

func tagged(f reflect.StructField) bool {
	if _, ok := f.Tag.Lookup("body"); ok {
		return true
	}
	for _, l := range param.Locations() {
		if _, ok := f.Tag.Lookup(l.Tag()); ok {
			return true
		}
	}
	return false
}

func (d *Descriptor) addField(f reflect.StructField, index []int, depth int) error {
	var loc param.Location
	var tag string
	tagged := false
	for _, l := range param.Locations() {
		if v, ok := f.Tag.Lookup(l.Tag()); ok {
			if tagged {
				return fmt.Errorf("%w: more than one location", ErrBadTag)
			}
			loc, tag, tagged = l, v, true
		}
	}
	_, isBody := f.Tag.Lookup("body")
	if !tagged && !isBody {
		return nil
	}
	if tagged && isBody {
		return fmt.Errorf("%w: body field cannot also be a %s parameter", ErrBadTag, loc)
	}
	if !f.IsExported() {
		return ErrUnexported
	}
	p := Param{Name: f.Name, Depth: depth, index: index}
	vt, err := p.bindAccessor(f.Type)
	if err != nil {
		return err
	}
	if isBody {
		if d.body != nil {
			return fmt.Errorf("%w: %s and %s", ErrMultipleBodies, d.body.Name, f.Name)
		}
		p.elem = vt
		d.body = &p
		return nil
	}
	if p.Options, err = param.ParseTag(tag); err != nil {
		return fmt.Errorf("%w: %v", ErrBadTag, err)
	}
	p.Location = loc
	p.Key = p.Options.Key
	if p.Key == "" {
		p.Key = f.Name
	}
	if err = p.classify(vt); err != nil {
		return err
	}
	if p.kind == binaryValue && loc != param.Form {
		return fmt.Errorf("%w: binary %s parameter", ErrUnsupportedType, loc)
	}
	d.Params = append(d.Params, p)
	return nil
}

// bindAccessor decides how the field's value is obtained and returns
// the type of that value.
func (p *Param) bindAccessor(t reflect.Type) (reflect.Type, error) {
	if t.Kind() != reflect.Func {
		p.accessor = fieldAccessor
		return t, nil
	}
	if t.NumIn() != 0 || t.IsVariadic() {
		return nil, ErrAccessor
	}
	switch {
	case t.NumOut() == 1 && t.Out(0) != errorType:
		p.accessor = funcAccessor
	case t.NumOut() == 2 && t.Out(1) == errorType:
		p.accessor = funcErrAccessor
	default:
		return nil, ErrAccessor
	}
	return t.Out(0), nil
}

func (p *Param) classify(declared reflect.Type) error {
	t := indirect(declared)
	switch {
	case param.IsEnum(t):
		p.kind = enumValue
	case t == bytesType || declared.Implements(readerType):
		p.kind = binaryValue
	case param.IsScalar(t):
		p.kind = scalarValue
	case t.Kind() == reflect.Slice || t.Kind() == reflect.Array:
		e := indirect(t.Elem())
		switch {
		case param.IsEnum(e):
			p.kind, p.elem = sequenceValue, e
		case param.IsScalar(e):
			p.kind, p.elem = sequenceValue, e
		default:
			return fmt.Errorf("%w: %s", ErrUnsupportedType, t)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	return nil
}

func (d *Descriptor) resolveBody() error {
	pt := reflect.PointerTo(d.Type)
	urlEncoded := pt.Implements(reflect.TypeOf((*urlEncodedMarker)(nil)).Elem())
	multipart := pt.Implements(reflect.TypeOf((*multipartMarker)(nil)).Elem())
	serialized := pt.Implements(reflect.TypeOf((*serializedMarker)(nil)).Elem())
	d.Authorized = pt.Implements(reflect.TypeOf((*authorizedMarker)(nil)).Elem())

	hasForm := false
	for i := range d.Params {
		if d.Params[i].Location == param.Form {
			hasForm = true
			break
		}
	}
	formKind := urlEncoded || multipart || hasForm

	switch {
	case urlEncoded && multipart:
		return fmt.Errorf("%w: URLEncoded and Multipart", ErrConflictingBody)
	case d.body != nil && serialized:
		return fmt.Errorf("%w: body field %s and Serialized", ErrConflictingBody, d.body.Name)
	case d.body != nil && formKind:
		return fmt.Errorf("%w: body field %s and form", ErrConflictingBody, d.body.Name)
	case serialized && formKind:
		return fmt.Errorf("%w: Serialized and form", ErrConflictingBody)
	}

	switch {
	case multipart:
		d.Body = FormMultipart
	case formKind:
		d.Body = FormURLEncoded
		for i := range d.Params {
			if d.Params[i].kind == binaryValue {
				return fmt.Errorf("%w: binary form field %s requires Multipart", ErrUnsupportedType, d.Params[i].Name)
			}
		}
	case serialized:
		d.Body = SerializedObject
	case d.body != nil:
		t := d.body.elem
		switch {
		case t.Implements(contentType) || reflect.PointerTo(t).Implements(contentType):
			d.Body = ContentMember
		case indirect(t) == bytesType || indirect(t).Kind() == reflect.String || t.Implements(readerType):
			d.Body = RawMember
		default:
			d.Body = SerializedMember
		}
	default:
		d.Body = NoBody
	}
	return nil
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
