// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package apix

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogama/apix/request"
	"github.com/stretchr/testify/mock"
)

type thing struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type getThing struct {
	request.Get
	ID    string   `path:"id"`
	Tags  []string `query:"tag"`
	Trace *string  `header:"X-Trace"`
}

func (r *getThing) Path() string { return "things/{id}" }

type putThing struct {
	request.Put
	ID    string `path:"id"`
	Thing thing  `body:""`
}

func (r *putThing) Path() string { return "things/{id}" }

type deleteThing struct {
	request.Delete
	request.Authorized
	ID string `path:"id"`
}

func (r *deleteThing) Path() string { return "things/{id}" }

type createThing struct {
	request.Post
	Name string `query:"name" validate:"required"`
}

func (r *createThing) Path() string { return "things" }

var errNotToday = errors.New("not today")

type guardedThing struct {
	request.Get
	err error
}

func (r *guardedThing) Path() string                    { return "guarded" }
func (r *guardedThing) Preflight(context.Context) error { return r.err }

type twoBodies struct {
	request.Post
	A []byte `body:""`
	B []byte `body:""`
}

func (r *twoBodies) Path() string { return "broken" }

// newTestClient returns a client whose transport is always doer.
func newTestClient(t *testing.T, doer HTTPDoer) *Client {
	base, err := url.Parse("http://example.com/api/")
	if err != nil {
		t.Fatal(err)
	}
	cl := &Client{BaseURL: base, Handlers: &HandlerGroup{}}
	cl.SetHandlerFactory(func(TransportConfig) (HTTPDoer, error) {
		return doer, nil
	})
	return cl
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode:    status,
		Status:        http.StatusText(status),
		Header:        http.Header{"Content-Type": {"application/json"}},
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}

type mockHTTPDoer struct {
	mock.Mock
}

func newMockHTTPDoer(t *testing.T) *mockHTTPDoer {
	m := &mockHTTPDoer{}
	m.Test(t)
	return m
}

func (m *mockHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	err := args.Error(1)
	if resp, ok := args.Get(0).(*http.Response); ok {
		return resp, err
	}
	return nil, err
}

type mockHTTPDoerWithCloseIdleConnections struct {
	mockHTTPDoer
}

func newMockHTTPDoerWithCloseIdleConnections(t *testing.T) *mockHTTPDoerWithCloseIdleConnections {
	m := &mockHTTPDoerWithCloseIdleConnections{}
	m.Test(t)
	return m
}

func (m *mockHTTPDoerWithCloseIdleConnections) CloseIdleConnections() {
	m.Called()
}

type mockTimeoutPolicy struct {
	mock.Mock
}

func newMockTimeoutPolicy(t *testing.T) *mockTimeoutPolicy {
	m := &mockTimeoutPolicy{}
	m.Test(t)
	return m
}

func (m *mockTimeoutPolicy) Timeout(e *request.Execution) time.Duration {
	args := m.Called(e)
	return args.Get(0).(time.Duration)
}

func (g *HandlerGroup) mock(evt Event) *mockHandler {
	var m *mockHandler
	if len(g.handlers) <= int(evt) || len(g.handlers[evt]) < 1 {
		m = &mockHandler{}
		g.PushBack(evt, m)
		return m
	}

	for _, h := range g.handlers[evt] {
		if m, ok := h.(*mockHandler); ok {
			return m
		}
	}

	m = &mockHandler{}
	g.PushBack(evt, m)
	return m
}

func (g *HandlerGroup) assertExpectations(t *testing.T) {
	if g.handlers == nil {
		return
	}

	for _, evt := range Events() {
		handlers := g.handlers[evt]
		for _, h := range handlers {
			if m, ok := h.(*mockHandler); ok {
				m.AssertExpectations(t)
			}
		}
	}
}

type mockHandler struct {
	mock.Mock
}

func (m *mockHandler) Handle(evt Event, e *request.Execution) {
	m.Called(evt, e)
}

// trackedBody records when it is closed.
type trackedBody struct {
	io.Reader
	closed atomic.Bool
}

func (b *trackedBody) Close() error {
	b.closed.Store(true)
	return nil
}

// stubDoer answers every request with body, after calling onDo.
type stubDoer struct {
	body       string
	onDo       func(*http.Request)
	onClose    func()
	onIdle     func()
	calls      atomic.Int32
	idleClosed atomic.Int32
}

func (d *stubDoer) Do(req *http.Request) (*http.Response, error) {
	d.calls.Add(1)
	if d.onDo != nil {
		d.onDo(req)
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
		Body:       &stubBody{Reader: strings.NewReader(d.body), onClose: d.onClose},
		Request:    req,
	}, nil
}

type stubBody struct {
	io.Reader
	onClose func()
}

func (b *stubBody) Close() error {
	if b.onClose != nil {
		b.onClose()
	}
	return nil
}

func (d *stubDoer) CloseIdleConnections() {
	d.idleClosed.Add(1)
	if d.onIdle != nil {
		d.onIdle()
	}
}
