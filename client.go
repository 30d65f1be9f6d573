// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package apix

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogama/apix/request"
	"github.com/gogama/apix/serial"
	"github.com/gogama/apix/timeout"
	"golang.org/x/net/http/httpguts"
)

// DefaultMemoryLimit is the size up to which a Payload is held in
// memory when Client.MemoryLimit is zero.
const DefaultMemoryLimit = 1 << 20

// Pending transport work, in increasing order of cost.
const (
	signalNone    int32 = iota // transport is current
	signalHeaders              // default headers changed
	signalRebuild              // transport must be rebuilt
)

var (
	emptyHandlers = HandlerGroup{}
	discardLogger = slog.New(slog.DiscardHandler)
)

// A Client sends requests described by request definitions. Its zero
// value is a valid configuration.
//
// The zero value client builds its transport with DefaultHandlerFactory
// and DefaultTransportConfig, uses timeout.DefaultPolicy, serializes
// with serial.JSON, and installs no event handlers.
//
// A Client manages a transport (an HTTPDoer) and a set of default
// headers. Changing either with the Set methods does not affect
// requests already in flight: the change is applied just before the
// next request is sent, once every in-flight request has finished with
// the old transport. Requests never run against a transport which is
// about to be replaced.
//
// Client is safe for concurrent use by multiple goroutines. The
// exported fields must not be changed after the first request.
//
// Client does not retry. Each request results in one send and one
// outcome.
type Client struct {
	// BaseURL is the URL against which relative request paths are
	// resolved. If BaseURL is nil, request paths must be absolute.
	BaseURL *url.URL
	// TimeoutPolicy specifies how to set timeouts on requests. The
	// timeout covers sending the request and consuming the response.
	//
	// If TimeoutPolicy is nil, timeout.DefaultPolicy is used.
	TimeoutPolicy timeout.Policy
	// Handlers allows custom handler chains to be invoked when
	// designated events occur during an execution.
	//
	// If Handlers is nil, no custom handlers will be run.
	Handlers *HandlerGroup
	// Logger receives debug records about transport builds and
	// requests. If Logger is nil, nothing is logged.
	Logger *slog.Logger
	// Serializers resolves the serializer for request and response
	// bodies. If Serializers is nil, a resolver defaulting to
	// serial.JSON is used.
	Serializers *serial.Resolver
	// MemoryLimit is the response size up to which a Payload is held
	// in memory. Larger responses are spilled to a temporary file.
	//
	// If MemoryLimit is zero, DefaultMemoryLimit is used.
	MemoryLimit int64

	// Managed configuration, guarded by cfgMu. Each change increments
	// version and raises signal.
	cfgMu     sync.Mutex
	header    http.Header
	transport *TransportConfig
	factory   HandlerFactory
	version   uint64

	signal    atomic.Int32
	rebuildMu sync.Mutex   // serializes rebuilds and Close
	mu        sync.RWMutex // readers are in-flight requests
	live      *transportState
	builds    atomic.Int64
	closed    atomic.Bool

	resolverOnce sync.Once
	defResolver  *serial.Resolver
}

// transportState is an immutable snapshot of the transport and the
// default headers which requests holding the reader lock use.
type transportState struct {
	doer       HTTPDoer
	header     http.Header
	generation int64
}

// SetHeader sets a default header sent with every request, replacing
// any existing values for key. Headers set by the request definition
// take precedence over default headers.
func (c *Client) SetHeader(key, value string) error {
	if err := checkHeader(key, value); err != nil {
		return err
	}
	c.update(signalHeaders, func() {
		c.headers().Set(key, value)
	})
	return nil
}

// AddHeader adds a value to a default header sent with every request.
func (c *Client) AddHeader(key, value string) error {
	if err := checkHeader(key, value); err != nil {
		return err
	}
	c.update(signalHeaders, func() {
		c.headers().Add(key, value)
	})
	return nil
}

// DelHeader deletes a default header.
func (c *Client) DelHeader(key string) {
	c.update(signalHeaders, func() {
		c.headers().Del(key)
	})
}

// Header returns a copy of the default headers.
func (c *Client) Header() http.Header {
	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()
	return c.header.Clone()
}

// SetTransportConfig replaces the transport configuration. The
// transport is rebuilt before the next request is sent.
//
// An invalid configuration is rejected and the current one kept.
func (c *Client) SetTransportConfig(cfg TransportConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("apix: invalid transport config: %w", err)
	}
	c.update(signalRebuild, func() {
		c.transport = &cfg
	})
	return nil
}

// TransportConfig returns the current transport configuration.
func (c *Client) TransportConfig() TransportConfig {
	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()
	if c.transport == nil {
		return DefaultTransportConfig
	}
	return *c.transport
}

// SetHandlerFactory replaces the factory which builds the transport.
// The transport is rebuilt before the next request is sent. A nil
// factory restores DefaultHandlerFactory.
func (c *Client) SetHandlerFactory(f HandlerFactory) {
	c.update(signalRebuild, func() {
		c.factory = f
	})
}

// Generation returns the number of times the client has built its
// transport.
func (c *Client) Generation() int64 {
	return c.builds.Load()
}

// CloseIdleConnections invokes the same method on the client's
// current transport, if it has one and the transport is an IdleCloser.
func (c *Client) CloseIdleConnections() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.live == nil {
		return
	}
	if ic, ok := c.live.doer.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

// Close waits for in-flight requests to finish and disposes of the
// transport. Requests made after Close fail with ErrClosed. Closing a
// closed client does nothing.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.rebuildMu.Lock()
	defer c.rebuildMu.Unlock()
	c.mu.Lock()
	old := c.live
	c.live = nil
	c.mu.Unlock()
	if old == nil {
		return nil
	}
	c.logger().Debug("apix: client closed", "generation", old.generation)
	return dispose(old.doer)
}

func (c *Client) headers() http.Header {
	if c.header == nil {
		c.header = make(http.Header)
	}
	return c.header
}

func (c *Client) update(sig int32, f func()) {
	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()
	f()
	c.version++
	for {
		cur := c.signal.Load()
		if cur >= sig || c.signal.CompareAndSwap(cur, sig) {
			return
		}
	}
}

type snapshot struct {
	signal    int32
	version   uint64
	header    http.Header
	transport TransportConfig
	factory   HandlerFactory
}

func (c *Client) snapshot() snapshot {
	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()
	s := snapshot{
		signal:    c.signal.Load(),
		version:   c.version,
		header:    c.header.Clone(),
		transport: DefaultTransportConfig,
		factory:   c.factory,
	}
	if c.transport != nil {
		s.transport = *c.transport
	}
	if s.factory == nil {
		s.factory = DefaultHandlerFactory
	}
	return s
}

// acquire returns the current transport with the reader lock held,
// first applying any pending configuration change. The caller must
// release the reader lock.
func (c *Client) acquire() (*transportState, error) {
	for {
		if c.closed.Load() {
			return nil, ErrClosed
		}
		c.mu.RLock()
		if t := c.live; t != nil && c.signal.Load() == signalNone {
			return t, nil
		}
		c.mu.RUnlock()
		if err := c.rebuild(); err != nil {
			return nil, err
		}
	}
}

// rebuild applies pending configuration. The new transport is built
// before the writer lock is taken, so in-flight requests are only
// blocked for the swap.
func (c *Client) rebuild() error {
	c.rebuildMu.Lock()
	defer c.rebuildMu.Unlock()
	if c.closed.Load() {
		return ErrClosed
	}

	s := c.snapshot()
	c.mu.RLock()
	cur := c.live
	c.mu.RUnlock()
	if cur != nil && s.signal == signalNone {
		return nil
	}

	next := &transportState{header: s.header}
	full := cur == nil || s.signal == signalRebuild
	if full {
		doer, err := s.factory(s.transport)
		if err != nil {
			return fmt.Errorf("apix: build transport: %w", err)
		}
		if doer == nil {
			return errors.New("apix: handler factory returned nil")
		}
		next.doer = doer
		next.generation = c.builds.Add(1)
	} else {
		next.doer = cur.doer
		next.generation = cur.generation
	}

	c.mu.Lock()
	c.live = next
	c.cfgMu.Lock()
	if c.version == s.version {
		c.signal.Store(signalNone)
	}
	c.cfgMu.Unlock()
	c.mu.Unlock()

	c.logger().Debug("apix: transport updated", "generation", next.generation, "rebuilt", full)
	if full && cur != nil {
		if err := dispose(cur.doer); err != nil {
			c.logger().Warn("apix: dispose transport", "generation", cur.generation, "error", err)
		}
	}
	return nil
}

// An exchange is one execution from compiled plan to consumed
// response.
type exchange struct {
	c           *Client
	e           *request.Execution
	handlers    *HandlerGroup
	cancel      context.CancelFunc
	locked      bool
	releaseOnce sync.Once
	endOnce     sync.Once
}

// start validates and compiles def, then sends it holding the reader
// lock. On success the response has been received and the caller must
// end the exchange.
func (c *Client) start(ctx context.Context, def request.Definition) (*exchange, error) {
	if def == nil {
		return nil, errors.New("apix: nil request definition")
	}
	d, err := request.DescribeOf(def)
	if err != nil {
		return nil, err
	}
	if pf, ok := def.(request.Preflighter); ok {
		if err = pf.Preflight(ctx); err != nil {
			return nil, err
		}
	}
	if err = validate.StructCtx(ctx, def); err != nil {
		return nil, &request.ValidationError{Type: d.Type, Err: err}
	}
	p, err := request.Compile(def, c.BaseURL, c.resolver())
	if err != nil {
		return nil, err
	}

	x := &exchange{
		c:        c,
		e:        &request.Execution{Definition: def, Plan: p},
		handlers: c.handlers(),
	}
	x.handlers.run(BeforeExecutionStart, x.e)
	x.e.Start = time.Now()
	ttl := c.timeoutPolicy().Timeout(x.e)

	t, err := c.acquire()
	if err != nil {
		return nil, x.end(err)
	}
	x.locked = true
	defer x.guard()
	x.e.Generation = t.generation
	p.MergeHeader(t.header)
	if d.Authorized && p.Header.Get("Authorization") == "" {
		return nil, x.end(&request.ValidationError{Type: d.Type, Err: request.ErrUnauthorized})
	}

	if ttl == time.Duration(math.MaxInt64) {
		ctx, x.cancel = context.WithCancel(ctx)
	} else {
		ctx, x.cancel = context.WithTimeout(ctx, ttl)
	}
	x.e.Request, err = p.ToRequest(ctx)
	if err != nil {
		return nil, x.end(fmt.Errorf("apix: open request body: %w", err))
	}
	c.logger().DebugContext(ctx, "apix: sending request",
		"method", p.Method, "url", p.URL.Redacted(), "generation", t.generation)
	x.e.Response, err = t.doer.Do(x.e.Request)
	if err != nil {
		return nil, x.end(urlErrorWrap(p, err))
	}
	return x, nil
}

// guard releases the reader lock if the exchange panics.
func (x *exchange) guard() {
	if r := recover(); r != nil {
		x.release()
		panic(r)
	}
}

func (x *exchange) release() {
	x.releaseOnce.Do(func() {
		if x.cancel != nil {
			x.cancel()
		}
		if x.locked {
			x.c.mu.RUnlock()
		}
	})
}

// end releases the reader lock, records err and runs the end handlers.
// It returns the execution's error.
func (x *exchange) end(err error) error {
	x.release()
	x.endOnce.Do(func() {
		e := x.e
		e.End = time.Now()
		if err != nil {
			e.Err = err
		}
		log := x.c.logger()
		if e.Err != nil {
			log.Debug("apix: request failed", "method", e.Plan.Method, "url", e.Plan.URL.Redacted(),
				"status", e.StatusCode(), "duration", e.Duration(), "generation", e.Generation, "error", e.Err)
		} else {
			log.Debug("apix: request done", "method", e.Plan.Method, "url", e.Plan.URL.Redacted(),
				"status", e.StatusCode(), "duration", e.Duration(), "generation", e.Generation)
		}
		x.handlers.run(AfterExecutionEnd, e)
	})
	return x.e.Err
}

// statusError reads a bounded snippet of a non-2XX response body.
func (x *exchange) statusError() *StatusError {
	resp := x.e.Response
	b, _ := io.ReadAll(io.LimitReader(resp.Body, snippetLimit))
	return &StatusError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       b,
	}
}

func (c *Client) handlers() *HandlerGroup {
	if c.Handlers == nil {
		return &emptyHandlers
	}
	return c.Handlers
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return discardLogger
	}
	return c.Logger
}

func (c *Client) timeoutPolicy() timeout.Policy {
	if c.TimeoutPolicy == nil {
		return timeout.DefaultPolicy
	}
	return c.TimeoutPolicy
}

func (c *Client) resolver() *serial.Resolver {
	if c.Serializers != nil {
		return c.Serializers
	}
	c.resolverOnce.Do(func() {
		c.defResolver, _ = serial.NewResolver(&serial.JSON{})
	})
	return c.defResolver
}

func (c *Client) memoryLimit() int64 {
	if c.MemoryLimit <= 0 {
		return DefaultMemoryLimit
	}
	return c.MemoryLimit
}

func checkHeader(key, value string) error {
	if !httpguts.ValidHeaderFieldName(key) {
		return fmt.Errorf("apix: %w name %q", request.ErrInvalidHeader, key)
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return fmt.Errorf("apix: %w value for %q", request.ErrInvalidHeader, key)
	}
	return nil
}

func urlErrorWrap(p *request.Plan, err error) error {
	if _, ok := err.(*url.Error); ok {
		return err
	}

	return &url.Error{
		Op:  urlErrorOp(p.Method),
		URL: p.URL.String(),
		Err: err,
	}
}

// urlErrorOp is lifted verbatim from net/http/client.go
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}
