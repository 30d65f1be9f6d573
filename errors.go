// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package apix

import (
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"
)

// ErrClosed is returned by requests made on a Client after Close.
var ErrClosed = errors.New("apix: client closed")

// snippetLimit is the most bytes of an error response body kept in a
// StatusError.
const snippetLimit = 4 << 10

// A StatusError reports a response with a non-2XX status code.
type StatusError struct {
	// StatusCode is the response status code, e.g. 404.
	StatusCode int
	// Status is the response status line, e.g. "404 Not Found".
	Status string
	// Header is the response header.
	Header http.Header
	// Body holds up to the first 4 KiB of the response body.
	Body []byte
}

func (e *StatusError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if len(e.Body) == 0 || !utf8.Valid(e.Body) {
		return "apix: unexpected status " + status
	}
	body := e.Body
	if len(body) > 256 {
		body = body[:256]
	}
	return fmt.Sprintf("apix: unexpected status %s: %q", status, body)
}

// Temporary reports whether the status indicates a condition the
// server expects to be transient: 429 and 5XX other than 501.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests ||
		(e.StatusCode >= 500 && e.StatusCode != http.StatusNotImplemented)
}

func success(code int) bool {
	return code >= 200 && code < 300
}
