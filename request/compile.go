// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	urlpkg "net/url"
	"reflect"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gogama/apix/param"
	"github.com/gogama/apix/serial"
	"golang.org/x/net/http/httpguts"
)

// Validation errors reported by Compile, and by the client before a
// request is sent. They are wrapped in a *ValidationError.
var (
	ErrEmptyPath        = errors.New("empty request path")
	ErrInvalidPath      = errors.New("invalid request path")
	ErrMissingPathParam = errors.New("missing path parameter")
	ErrInvalidMethod    = errors.New("invalid method")
	ErrInvalidHeader    = errors.New("invalid header")
	ErrUnauthorized     = errors.New("authorization required")
)

// A ValidationError reports a request which was rejected before any
// network I/O. A request which failed validation was never sent.
type ValidationError struct {
	Type reflect.Type
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("apix/request: invalid %s: %v", e.Type, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

const (
	formURLEncoded = "application/x-www-form-urlencoded"
	octetStream    = "application/octet-stream"
)

// Compile builds the Plan for def.
//
// The path returned by def is resolved against base if base is not nil,
// and must result in an absolute URL. Query entries replace any query
// component of the path, which is dropped when there are none. The
// body is produced as the Descriptor's body mode dictates, consulting
// res for serialized bodies; res may be nil if def has no serialized
// body.
//
// Compiling the same unchanged Definition twice yields identical plans,
// including the multipart boundary, which is derived from the parts.
//
// Configuration problems with def's type are returned as *ConfigError,
// and problems with its values as *ValidationError.
func Compile(def Definition, base *urlpkg.URL, res *serial.Resolver) (*Plan, error) {
	d, err := DescribeOf(def)
	if err != nil {
		return nil, err
	}
	invalid := func(err error) error {
		return &ValidationError{Type: d.Type, Err: err}
	}

	method := MethodOf(def)
	if !validMethod(method) {
		return nil, invalid(fmt.Errorf("%w %q", ErrInvalidMethod, method))
	}

	entries, err := d.Extract(def)
	if err != nil {
		return nil, err
	}
	byLoc := make([][]Entry, 4)
	for _, e := range entries {
		byLoc[e.Location] = append(byLoc[e.Location], e)
	}

	path := strings.TrimSpace(def.Path())
	if path == "" {
		return nil, invalid(ErrEmptyPath)
	}
	path, err = expandPath(path, byLoc[param.Path])
	if err != nil {
		return nil, invalid(err)
	}
	u, err := urlpkg.Parse(path)
	if err != nil {
		return nil, invalid(fmt.Errorf("%w: %v", ErrInvalidPath, err))
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, invalid(fmt.Errorf("%w: %q is not absolute", ErrInvalidPath, u.String()))
	}
	u.Host = removeEmptyPort(u.Host)
	u.RawQuery = param.Join(pairs(byLoc[param.Query]), "&")
	u.ForceQuery = false

	p := &Plan{
		Method: method,
		URL:    u,
		Header: make(http.Header),
		Host:   u.Host,
	}
	if err = applyHeaders(p.Header, byLoc[param.Header]); err != nil {
		return nil, invalid(err)
	}
	if err = d.compileBody(p, def, byLoc[param.Form], res); err != nil {
		return nil, err
	}
	return p, nil
}

func pairs(entries []Entry) []param.Pair {
	ps := make([]param.Pair, len(entries))
	for i := range entries {
		ps[i] = entries[i].Pair
	}
	return ps
}

// expandPath replaces {name} placeholders with path entry values.
func expandPath(path string, entries []Entry) (string, error) {
	if !strings.Contains(path, "{") {
		return path, nil
	}
	var b strings.Builder
	for {
		i := strings.IndexByte(path, '{')
		if i < 0 {
			b.WriteString(path)
			return b.String(), nil
		}
		j := strings.IndexByte(path[i:], '}')
		if j < 0 {
			return "", fmt.Errorf("%w: unterminated placeholder", ErrInvalidPath)
		}
		name := path[i+1 : i+j]
		value, ok := lookupEntry(entries, name)
		if !ok {
			return "", fmt.Errorf("%w {%s}", ErrMissingPathParam, name)
		}
		b.WriteString(path[:i])
		b.WriteString(value)
		path = path[i+j+1:]
	}
}

func lookupEntry(entries []Entry, key string) (string, bool) {
	for i := range entries {
		if entries[i].Key == key {
			return entries[i].Value, true
		}
	}
	return "", false
}

// applyHeaders sets header entries on h. Entries from the same field
// accumulate; a later field replaces the values of an earlier one with
// the same key.
func applyHeaders(h http.Header, entries []Entry) error {
	owner := make(map[string]string)
	for _, e := range entries {
		if !httpguts.ValidHeaderFieldName(e.Key) {
			return fmt.Errorf("%w name %q", ErrInvalidHeader, e.Key)
		}
		if !httpguts.ValidHeaderFieldValue(e.Value) {
			return fmt.Errorf("%w value for %q", ErrInvalidHeader, e.Key)
		}
		k := textproto.CanonicalMIMEHeaderKey(e.Key)
		if owner[k] == e.Member {
			h.Add(k, e.Value)
		} else {
			h.Set(k, e.Value)
			owner[k] = e.Member
		}
	}
	return nil
}

func (d *Descriptor) compileBody(p *Plan, def Definition, form []Entry, res *serial.Resolver) error {
	switch d.Body {
	case NoBody:
		return nil
	case FormURLEncoded:
		p.Body = []byte(param.Join(pairs(form), "&"))
		p.setContentType(formURLEncoded)
		return nil
	case FormMultipart:
		return p.multipartBody(form)
	case SerializedObject:
		return p.serialize(def, res)
	}

	v, ok, err := d.bodyValue(def)
	if err != nil {
		return fmt.Errorf("apix/request: %s.%s: %w", d.Type, d.body.Name, err)
	}
	if !ok {
		return nil
	}
	switch d.Body {
	case ContentMember:
		c, ok := asInterface(v, contentType)
		if !ok {
			return fmt.Errorf("apix/request: %s.%s: %w", d.Type, d.body.Name, ErrUnsupportedType)
		}
		p.Content = c.(Content)
		p.setContentType(p.Content.ContentType())
	case RawMember:
		var x interface{}
		switch v.Kind() {
		case reflect.String:
			x = v.String()
		case reflect.Slice:
			x = v.Bytes()
		default:
			r, ok := asInterface(v, readerType)
			if !ok {
				return fmt.Errorf("apix/request: %s.%s: %w", d.Type, d.body.Name, ErrUnsupportedType)
			}
			x = r
		}
		b, err := BodyBytes(x)
		if err != nil {
			return err
		}
		p.Body = b
		p.setContentType(octetStream)
	case SerializedMember:
		return p.serialize(v.Interface(), res)
	}
	return nil
}

// asInterface returns v, or its address, as a value implementing
// iface.
func asInterface(v reflect.Value, iface reflect.Type) (interface{}, bool) {
	if v.Type().Implements(iface) {
		return v.Interface(), true
	}
	if v.CanAddr() && v.Addr().Type().Implements(iface) {
		return v.Addr().Interface(), true
	}
	return nil, false
}

func (p *Plan) serialize(v interface{}, res *serial.Resolver) error {
	if res == nil {
		return errors.New("apix/request: no serializer resolver")
	}
	s := res.Resolve(reflect.TypeOf(v), serial.Out)
	b, err := s.Serialize(v)
	if err != nil {
		return fmt.Errorf("apix/request: serialize %T: %w", v, err)
	}
	p.Body = b
	p.setContentType(s.ContentType())
	return nil
}

func (p *Plan) setContentType(ct string) {
	if p.Header.Get("Content-Type") == "" {
		p.Header.Set("Content-Type", ct)
	}
}

type part struct {
	entry Entry
	data  []byte
}

// multipartBody writes one part per form entry. Binary entries are
// read fully; their content type is sniffed from the data.
func (p *Plan) multipartBody(form []Entry) error {
	parts := make([]part, len(form))
	h := sha256.New()
	for i, e := range form {
		parts[i].entry = e
		if e.Data != nil {
			b, err := io.ReadAll(e.Data)
			if err != nil {
				return fmt.Errorf("apix/request: read form part %q: %w", e.Key, err)
			}
			parts[i].data = b
		} else {
			parts[i].data = []byte(e.Value)
		}
		fmt.Fprintf(h, "%d:%s:%d:", len(e.Key), e.Key, len(parts[i].data))
		h.Write(parts[i].data)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary("apix" + hex.EncodeToString(h.Sum(nil))[:32]); err != nil {
		return err
	}
	for _, pt := range parts {
		var dst io.Writer
		var err error
		if pt.entry.Data != nil {
			hdr := make(textproto.MIMEHeader)
			hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
				escapeQuotes(pt.entry.Key), escapeQuotes(pt.entry.Key)))
			hdr.Set("Content-Type", mimetype.Detect(pt.data).String())
			dst, err = w.CreatePart(hdr)
		} else {
			dst, err = w.CreateFormField(pt.entry.Key)
		}
		if err != nil {
			return err
		}
		if _, err = dst.Write(pt.data); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	p.Body = buf.Bytes()
	p.setContentType(w.FormDataContentType())
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func validMethod(method string) bool {
	return method != "" && strings.IndexFunc(method, isNotToken) == -1
}

func isNotToken(r rune) bool {
	return !httpguts.IsTokenRune(r)
}
