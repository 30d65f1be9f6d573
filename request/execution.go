// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"net/http"
	"time"

	"github.com/gogama/apix/transient"
)

// An Execution represents the state of a single request dispatch,
// from the compiled Plan through to the consumed response.
//
// Timeout policies and event handlers may set values on an Execution
// using its SetValue method and read them back using the Value method.
// However, they should treat the structure's exported field values as
// immutable.
type Execution struct {
	// Definition is the declarative request being executed. It is
	// never nil.
	Definition Definition

	// Plan is the request compiled from Definition. It is nil only if
	// compilation failed.
	Plan *Plan

	// Start is the time the dispatch started. It is assigned a
	// non-zero value once the plan is compiled, and remains constant
	// thereafter.
	Start time.Time

	// End is the time the execution ended: the response was consumed
	// (or, for raw responses, its body was closed) or an error ended
	// the execution early. It is the zero time until then.
	End time.Time

	// Generation identifies the transport the request was sent
	// through. It increases by one every time the client rebuilds its
	// transport, so two executions with the same generation used the
	// same transport.
	Generation int64

	// Request is the HTTP request which was sent.
	Request *http.Request

	// Response is the HTTP response received. It is nil if the
	// request ended in an error before response headers arrived.
	Response *http.Response

	// Err is the error which ended the execution, if any.
	Err error

	data context.Context
}

// StatusCode returns the status code of the HTTP response, or 0 if
// there is no response.
func (e *Execution) StatusCode() int {
	if e.Response == nil {
		return 0
	}

	return e.Response.StatusCode
}

// Header returns the HTTP response headers. If there is no HTTP
// response, the nil header is returned, which is safe for read-only
// operations.
func (e *Execution) Header() http.Header {
	if e.Response == nil {
		var nilHeader http.Header
		return nilHeader
	}

	return e.Response.Header
}

// Duration returns the duration of the execution.
//
// If the execution has not yet started, the duration is zero. If the
// execution has ended, the duration returned is equal to End minus
// Start. Otherwise, it is equal to the current time minus Start.
func (e *Execution) Duration() time.Duration {
	if !e.Started() {
		return time.Duration(0)
	} else if !e.Ended() {
		return time.Since(e.Start)
	}

	return e.End.Sub(e.Start)
}

// Started indicates whether the execution has started.
func (e *Execution) Started() bool {
	return e.Start != (time.Time{})
}

// Ended indicates whether the execution has ended.
func (e *Execution) Ended() bool {
	return e.End != (time.Time{})
}

// Timeout indicates whether Err indicates a timeout.
func (e *Execution) Timeout() bool {
	return transient.Categorize(e.Err) == transient.Timeout
}

// SetValue allows event handlers to store arbitrary data in the
// execution.
//
// The key must follow the same rules as the key parameter in
// context.WithValue, namely it:
//
// • it may not be nil;
//
// • it must be comparable;
//
// • it should not be of type string or any other built-in type to avoid
// collisions between different event handlers putting data into the
// same execution.
func (e *Execution) SetValue(key, value interface{}) {
	ctx := e.data
	if ctx == nil {
		ctx = context.Background()
	}

	e.data = context.WithValue(ctx, key, value)
}

// Value returns the data value associated with this execution for key,
// or nil if there is no value associated with key.
func (e *Execution) Value(key interface{}) interface{} {
	ctx := e.data
	if ctx == nil {
		return nil
	}

	return ctx.Value(key)
}
