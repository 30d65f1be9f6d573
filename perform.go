// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package apix

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"reflect"

	"github.com/gogama/apix/request"
	"github.com/gogama/apix/serial"
)

// NoContent is a type argument to Perform for requests whose response
// body is of no interest. The body is read and discarded.
type NoContent struct{}

// Perform sends the request described by def and returns the response
// body as a T.
//
// A response with a non-2XX status code results in a *StatusError. A
// failure to speak HTTP, including a timeout or a canceled context,
// results in a *url.Error; use errors.Is with context.Canceled or
// context.DeadlineExceeded to detect cancellation. A request which
// failed validation before anything was sent results in a
// *request.ValidationError, and a definition type which cannot be
// mapped onto a request results in a *request.ConfigError. The error
// returned by a request.Preflighter is returned as is.
//
// The body is fully received, and the transport released, before it
// is converted into a T, in one of the following ways:
//
// • []byte and string receive the body as is;
//
// • *Payload receives the buffered body, which the caller must close;
//
// • NoContent discards the body; and
//
// • any other type is deserialized by the serializer the client's
// resolver finds for T.
//
// An empty body deserializes to the zero value of T.
func Perform[T any](ctx context.Context, c *Client, def request.Definition) (T, error) {
	var out T
	x, err := c.start(ctx, def)
	if err != nil {
		return out, err
	}

	_, discard := any(&out).(*NoContent)
	pl, err := x.receive(c.memoryLimit(), discard)
	if err != nil || discard {
		return out, err
	}

	switch v := any(&out).(type) {
	case **Payload:
		*v = pl
		return out, nil
	case *[]byte:
		defer pl.Close()
		b, err := pl.Bytes()
		if err != nil {
			return out, err
		}
		*v = b
		return out, nil
	case *string:
		defer pl.Close()
		b, err := pl.Bytes()
		if err != nil {
			return out, err
		}
		*v = string(b)
		return out, nil
	}

	defer pl.Close()
	t := reflect.TypeOf((*T)(nil)).Elem()
	s := c.resolver().Resolve(t, serial.In)
	if err = s.Deserialize(pl.Reader(), &out); err != nil {
		return out, fmt.Errorf("apix: deserialize %s: %w", t, err)
	}
	return out, nil
}

// Do sends the request described by def and returns the raw HTTP
// response. The status code is not checked.
//
// The caller must close the response body. Until it does, the request
// counts as in flight and holds the client's transport, so transport
// changes wait for it.
func (c *Client) Do(ctx context.Context, def request.Definition) (*http.Response, error) {
	x, err := c.start(ctx, def)
	if err != nil {
		return nil, err
	}
	resp := x.e.Response
	resp.Body = &exchangeBody{ReadCloser: resp.Body, x: x}
	return resp, nil
}

// exchangeBody ends its exchange when closed.
type exchangeBody struct {
	io.ReadCloser
	x *exchange
}

func (b *exchangeBody) Close() error {
	err := b.ReadCloser.Close()
	b.x.end(nil)
	return err
}

// receive consumes the response and ends the exchange. Unless discard
// is set, the body of a 2XX response is returned.
func (x *exchange) receive(limit int64, discard bool) (*Payload, error) {
	pl, err := x.read(limit, discard)
	_ = x.e.Response.Body.Close()
	if err = x.end(err); err != nil {
		_ = pl.Close()
		return nil, err
	}
	return pl, nil
}

func (x *exchange) read(limit int64, discard bool) (*Payload, error) {
	defer x.guard()
	resp := x.e.Response
	if !success(resp.StatusCode) {
		return nil, x.statusError()
	}
	if discard {
		if _, err := io.Copy(io.Discard, resp.Body); err != nil {
			return nil, urlErrorWrap(x.e.Plan, err)
		}
		return nil, nil
	}
	pl, err := newPayload(resp.Body, limit)
	if err != nil {
		return nil, urlErrorWrap(x.e.Plan, err)
	}
	return pl, nil
}
