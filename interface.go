// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package apix

import (
	"context"
	"io"
	"net/http"

	"github.com/gogama/apix/request"
)

// An HTTPDoer implements a Do method in the same manner as the GoLang
// standard library http.Client from the net/http package.
//
// The client's transport is an HTTPDoer built by a HandlerFactory.
type HTTPDoer interface {
	// Do sends an HTTP request and returns an HTTP response following
	// policy (such as redirects, cookies, auth) configured on the
	// HTTPDoer.
	//
	// The Do method must follow the contract documented on the GoLang
	// standard library http.Client from the net/http package.
	Do(r *http.Request) (*http.Response, error)
}

// An IdleCloser closes idle connections.
//
// When the client replaces or closes its transport, the old HTTPDoer's
// CloseIdleConnections method is called if it is an IdleCloser, and
// its Close method if it is an io.Closer.
type IdleCloser interface {
	// CloseIdleConnections closes any idle connections the
	// implementation holds, without interrupting connections in use.
	CloseIdleConnections()
}

// A Doer sends the request described by a Definition and returns the
// raw HTTP response, whose body the caller must close.
//
// Client implements Doer.
type Doer interface {
	Do(ctx context.Context, def request.Definition) (*http.Response, error)
}

var _ Doer = (*Client)(nil)

// dispose releases the resources held by a transport which is no
// longer in use.
func dispose(doer HTTPDoer) error {
	if ic, ok := doer.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
	if c, ok := doer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
