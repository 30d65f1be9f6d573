// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

// A Definition is a declarative HTTP request: a struct, used through a
// pointer, whose tagged fields describe the query string, headers,
// path parameters, and body of the request.
//
// Path returns the target URL, or a path relative to the client's base
// URL. It may contain {name} placeholders, which are replaced by the
// values of fields tagged `path:"name"`.
type Definition interface {
	Path() string
}

// A Methoder provides the HTTP method of a Definition. Definitions
// which do not implement Methoder are sent with GET. The usual way to
// implement Methoder is to embed one of the method markers, for example
// Post.
type Methoder interface {
	Method() string
}

// A Preflighter is a Definition with a pre-flight hook. Preflight runs
// before anything is sent; if it returns an error the request is
// abandoned and the error is returned unmodified to the caller.
type Preflighter interface {
	Preflight(ctx context.Context) error
}

// Content is a ready-made request body. A Content-typed field tagged
// `body:""` is sent as is, without serialization.
//
// Open is called once per request built from the plan, so
// implementations backed by a one-shot stream can only be sent once.
type Content interface {
	ContentType() string
	Open() (io.Reader, error)
}

// BytesContent is a Content holding an in-memory payload.
type BytesContent struct {
	Type string
	Data []byte
}

// ContentType returns c.Type, or "application/octet-stream" if it is
// empty.
func (c BytesContent) ContentType() string {
	if c.Type == "" {
		return octetStream
	}
	return c.Type
}

// Open returns a reader over c.Data.
func (c BytesContent) Open() (io.Reader, error) {
	return bytes.NewReader(c.Data), nil
}

// Method markers. Embed one in a Definition to select its HTTP method.
type (
	Get    struct{}
	Head   struct{}
	Post   struct{}
	Put    struct{}
	Patch  struct{}
	Delete struct{}
	Trace  struct{}
)

func (Get) Method() string    { return http.MethodGet }
func (Head) Method() string   { return http.MethodHead }
func (Post) Method() string   { return http.MethodPost }
func (Put) Method() string    { return http.MethodPut }
func (Patch) Method() string  { return http.MethodPatch }
func (Delete) Method() string { return http.MethodDelete }
func (Trace) Method() string  { return http.MethodTrace }

// URLEncoded marks a Definition whose `form` fields are sent as an
// application/x-www-form-urlencoded body. It is the default form kind
// and only needs embedding for clarity.
type URLEncoded struct{}

func (URLEncoded) urlEncodedForm() {}

// Multipart marks a Definition whose `form` fields are sent as a
// multipart/form-data body, one part per pair. Fields of type []byte
// or io.Reader become binary parts.
type Multipart struct{}

func (Multipart) multipartForm() {}

// Serialized marks a Definition which is itself the request body. The
// whole value is handed to the serializer resolved for its type.
type Serialized struct{}

func (Serialized) serializedBody() {}

// Authorized marks a Definition which may only be sent with an
// Authorization header, either set on the client or by a `header`
// field of the request.
type Authorized struct{}

func (Authorized) requiresAuthorization() {}

type urlEncodedMarker interface{ urlEncodedForm() }

type multipartMarker interface{ multipartForm() }

type serializedMarker interface{ serializedBody() }

type authorizedMarker interface{ requiresAuthorization() }

// MethodOf returns the HTTP method of def.
func MethodOf(def Definition) string {
	if m, ok := def.(Methoder); ok {
		if method := m.Method(); method != "" {
			return method
		}
	}
	return http.MethodGet
}
