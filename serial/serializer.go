// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package serial

import (
	"bytes"
	"encoding"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"reflect"

	"gopkg.in/yaml.v3"
)

// A Serializer converts values to and from a body format.
//
// Implementations must be safe for concurrent use by multiple
// goroutines once configured, since a Resolver shares one instance of
// each serializer type among all requests of a client.
type Serializer interface {
	// ContentType returns the media type of the serialized form, for
	// example "application/json".
	ContentType() string
	// Serialize encodes v.
	Serialize(v interface{}) ([]byte, error)
	// Deserialize decodes the contents of r into v, which is a
	// non-nil pointer. An empty body leaves v unchanged and is not
	// an error.
	Deserialize(r io.Reader, v interface{}) error
}

// A Restricted serializer only handles some types. A restricted
// serializer may not be the default serializer of a Resolver, and may
// only be registered for types it accepts.
type Restricted interface {
	Serializer
	// Accepts reports whether the serializer handles values of type t.
	Accepts(t reflect.Type) bool
}

// JSON is the generic JSON serializer. It is the usual default.
type JSON struct {
	// Indent, if not empty, indents serialized output.
	Indent string
	// DisallowUnknownFields makes deserialization fail when the body
	// has object keys which do not match any destination field.
	DisallowUnknownFields bool
	// UseNumber decodes numbers into interface{} as json.Number.
	UseNumber bool
}

// ContentType returns "application/json".
func (s *JSON) ContentType() string { return "application/json" }

// Serialize encodes v as JSON.
func (s *JSON) Serialize(v interface{}) ([]byte, error) {
	if s.Indent != "" {
		return json.MarshalIndent(v, "", s.Indent)
	}
	return json.Marshal(v)
}

// Deserialize decodes JSON from r into v.
func (s *JSON) Deserialize(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	if s.DisallowUnknownFields {
		dec.DisallowUnknownFields()
	}
	if s.UseNumber {
		dec.UseNumber()
	}
	return ignoreEOF(dec.Decode(v))
}

// XML is the generic XML serializer.
type XML struct {
	// OmitHeader suppresses the <?xml ... ?> header in serialized
	// output.
	OmitHeader bool
}

// ContentType returns "application/xml".
func (s *XML) ContentType() string { return "application/xml" }

// Serialize encodes v as XML.
func (s *XML) Serialize(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if !s.OmitHeader {
		buf.WriteString(xml.Header)
	}
	if err := xml.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Deserialize decodes XML from r into v.
func (s *XML) Deserialize(r io.Reader, v interface{}) error {
	return ignoreEOF(xml.NewDecoder(r).Decode(v))
}

// YAML is the generic YAML serializer.
type YAML struct {
	// Indent is the number of spaces used for indentation. Zero means
	// the package default of four.
	Indent int
	// KnownFields makes deserialization fail when the body has keys
	// which do not match any destination field.
	KnownFields bool
}

// ContentType returns "application/yaml".
func (s *YAML) ContentType() string { return "application/yaml" }

// Serialize encodes v as YAML.
func (s *YAML) Serialize(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	if s.Indent > 0 {
		enc.SetIndent(s.Indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Deserialize decodes YAML from r into v.
func (s *YAML) Deserialize(r io.Reader, v interface{}) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(s.KnownFields)
	return ignoreEOF(dec.Decode(v))
}

var (
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	byteSliceType       = reflect.TypeOf([]byte(nil))
)

// Text is a restricted serializer for plain text bodies. It accepts
// strings, byte slices, and types implementing both
// encoding.TextMarshaler and encoding.TextUnmarshaler.
type Text struct{}

// ContentType returns "text/plain; charset=utf-8".
func (Text) ContentType() string { return "text/plain; charset=utf-8" }

// Accepts reports whether t is a string, byte slice, or text
// (un)marshaler. Pointers are looked through.
func (Text) Accepts(t reflect.Type) bool {
	t = Indirect(t)
	if t.Kind() == reflect.String || t == byteSliceType {
		return true
	}
	p := reflect.PointerTo(t)
	return (t.Implements(textMarshalerType) || p.Implements(textMarshalerType)) &&
		p.Implements(textUnmarshalerType)
}

// Serialize returns the text form of v.
func (s Text) Serialize(v interface{}) ([]byte, error) {
	switch x := v.(type) {
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	case encoding.TextMarshaler:
		return x.MarshalText()
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.String {
		return []byte(rv.String()), nil
	}
	return nil, fmt.Errorf("apix/serial: text cannot serialize %T", v)
}

// Deserialize reads r as text into v, which must be a *string, a
// *[]byte, or an encoding.TextUnmarshaler.
func (s Text) Deserialize(r io.Reader, v interface{}) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	switch x := v.(type) {
	case *string:
		*x = string(b)
	case *[]byte:
		*x = b
	case encoding.TextUnmarshaler:
		if len(b) == 0 {
			return nil
		}
		return x.UnmarshalText(b)
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.String {
			return fmt.Errorf("apix/serial: text cannot deserialize into %T", v)
		}
		rv.Elem().SetString(string(b))
	}
	return nil
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
