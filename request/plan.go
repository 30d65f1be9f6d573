// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net/http"
	urlpkg "net/url"
	"strings"
)

var (
	template, _ = http.NewRequest("GET", "", nil)
)

// A Plan is a compiled HTTP request: the absolute URL with its query
// string, the headers, and the body produced from a Definition.
//
// The field structure of a Plan mirrors the client-side fields of
// http.Request, except that the body is either a pre-buffered []byte
// or a Content handle which is opened when the request is built.
type Plan struct {
	// Method specifies the HTTP method (GET, POST, PUT, etc.).
	Method string

	// URL specifies the URL to access, including the query string.
	URL *urlpkg.URL

	// Header contains the request header fields to be sent. When the
	// client sends the plan, its own default headers are merged in
	// underneath: a header set here always wins over a client default
	// of the same name.
	Header http.Header

	// Body is the pre-buffered request body. A nil or empty body
	// indicates no request body should be sent unless Content is set.
	Body []byte

	// Content, if not nil, supplies the body in place of Body.
	Content Content

	// Close stipulates whether to close the connection after sending
	// the request and reading the response.
	Close bool

	// Host optionally overrides the Host header to send. If empty, the
	// value of URL.Host will be sent.
	Host string
}

// AddCookie adds a cookie to the request. Per RFC 6265 section 5.4,
// AddCookie does not attach more than one Cookie header field. That
// means all cookies, if any, are written into the same line,
// separated by semicolons.
func (p *Plan) AddCookie(c *http.Cookie) {
	c2 := &http.Cookie{Name: c.Name, Value: c.Value}
	s := c2.String()
	if h := p.Header.Get("Cookie"); h != "" {
		p.Header.Set("Cookie", h+"; "+s)
	} else {
		p.Header.Set("Cookie", s)
	}
}

// SetBasicAuth sets the plan's Authorization header to use HTTP Basic
// Authentication with the provided username and password.
func (p *Plan) SetBasicAuth(username, password string) {
	p.Header.Set("Authorization", "Basic "+basicAuth(username, password))
}

// MergeHeader adds every header of defaults which the plan does not
// already set. Plan headers therefore take precedence over defaults.
func (p *Plan) MergeHeader(defaults http.Header) {
	for k, vs := range defaults {
		if _, ok := p.Header[k]; ok {
			continue
		}
		p.Header[k] = append([]string(nil), vs...)
	}
}

// ToRequest creates an HTTP request corresponding to the plan. The
// context of the new request is set to ctx, which may not be nil.
//
// An error is returned only if the plan's Content cannot be opened.
func (p *Plan) ToRequest(ctx context.Context) (*http.Request, error) {
	r := template.WithContext(ctx)
	r.Method = p.Method
	r.URL = p.URL
	r.Header = p.Header
	switch {
	case p.Content != nil:
		body, err := p.Content.Open()
		if err != nil {
			return nil, err
		}
		if rc, ok := body.(io.ReadCloser); ok {
			r.Body = rc
		} else {
			r.Body = io.NopCloser(body)
		}
		if l, ok := body.(interface{ Len() int }); ok {
			r.ContentLength = int64(l.Len())
		} else {
			r.ContentLength = -1
		}
	case len(p.Body) > 0:
		r.Body = io.NopCloser(bytes.NewReader(p.Body))
		r.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(p.Body)), nil
		}
		r.ContentLength = int64(len(p.Body))
	}
	r.Close = p.Close
	r.Host = p.Host
	return r, nil
}

// basicAuth is lifted verbatim from net/http/client.go.
//
// See 2 (end of page 4) https://www.ietf.org/rfc/rfc2617.txt
// "To receive authorization, the client sends the userid and password,
// separated by a single colon (":") character, within a base64
// encoded string in the credentials."
// It is not meant to be urlencoded.
func basicAuth(username, password string) string {
	auth := username + ":" + password
	return base64.StdEncoding.EncodeToString([]byte(auth))
}

// hasPort is lifted verbatim from net/http/http.go
//
// Given a string of the form "host", "host:port", or "[ipv6::address]:port",
// return true if the string includes a port.
func hasPort(s string) bool { return strings.LastIndex(s, ":") > strings.LastIndex(s, "]") }

// removeEmptyPort is lifted verbatim from net/http/http.go
//
// removeEmptyPort strips the empty port in ":port" to ""
// as mandated by RFC 3986 Section 6.2.3.
func removeEmptyPort(host string) string {
	if hasPort(host) {
		return strings.TrimSuffix(host, ":")
	}
	return host
}
