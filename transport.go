// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package apix

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/net/http2"
)

// TransportConfig holds the knobs passed through to the transport when
// it is built. Zero durations and sizes mean no limit, as they do on
// http.Transport.
type TransportConfig struct {
	// DialTimeout bounds establishing a TCP connection.
	DialTimeout time.Duration `validate:"gte=0"`
	// KeepAlive is the TCP keep-alive period.
	KeepAlive time.Duration `validate:"gte=0"`
	// TLSHandshakeTimeout bounds the TLS handshake.
	TLSHandshakeTimeout time.Duration `validate:"gte=0"`
	// ResponseHeaderTimeout bounds the wait for response headers after
	// the request is written.
	ResponseHeaderTimeout time.Duration `validate:"gte=0"`
	// IdleConnTimeout is how long an idle connection stays pooled.
	IdleConnTimeout time.Duration `validate:"gte=0"`
	// MaxIdleConns caps idle connections across all hosts.
	MaxIdleConns int `validate:"gte=0"`
	// MaxIdleConnsPerHost caps idle connections per host. Zero means
	// the net/http default of 2.
	MaxIdleConnsPerHost int `validate:"gte=0"`
	// MaxConnsPerHost caps all connections per host.
	MaxConnsPerHost int `validate:"gte=0"`
	// HTTP2 enables HTTP/2 negotiation over TLS.
	HTTP2 bool
	// DisableCompression disables transparent gzip decoding.
	DisableCompression bool
	// Cookies enables an in-memory cookie jar.
	Cookies bool
	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool
	// MaxRedirects is the number of redirects followed before the
	// request fails. Negative disables redirects; zero means the
	// net/http default of 10.
	MaxRedirects int `validate:"gte=-1"`
}

// DefaultTransportConfig is the transport configuration of a Client
// on which SetTransportConfig was never called.
var DefaultTransportConfig = TransportConfig{
	DialTimeout:         30 * time.Second,
	KeepAlive:           30 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
	IdleConnTimeout:     90 * time.Second,
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	HTTP2:               true,
}

// A HandlerFactory builds the transport for a transport configuration.
//
// The client calls its factory when it first needs a transport, and
// again whenever the factory or transport configuration is replaced.
// The factory is never called while requests are being sent, but it
// may be called concurrently with requests still in flight on the
// previous transport.
type HandlerFactory func(cfg TransportConfig) (HTTPDoer, error)

// DefaultHandlerFactory builds an *http.Client over a new
// *http.Transport configured from cfg.
func DefaultHandlerFactory(cfg TransportConfig) (HTTPDoer, error) {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: cfg.KeepAlive,
		}).DialContext,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		DisableCompression:    cfg.DisableCompression,
		ExpectContinueTimeout: time.Second,
	}
	if cfg.InsecureSkipVerify {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if cfg.HTTP2 {
		if _, err := http2.ConfigureTransports(t); err != nil {
			return nil, fmt.Errorf("apix: configure http2: %w", err)
		}
	}
	cl := &http.Client{Transport: t}
	if cfg.Cookies {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		cl.Jar = jar
	}
	if cfg.MaxRedirects != 0 {
		cl.CheckRedirect = checkRedirect(cfg.MaxRedirects)
	}
	return cl, nil
}

func checkRedirect(max int) func(*http.Request, []*http.Request) error {
	return func(_ *http.Request, via []*http.Request) error {
		if max < 0 {
			return http.ErrUseLastResponse
		}
		if len(via) >= max {
			return fmt.Errorf("apix: stopped after %d redirects", max)
		}
		return nil
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())
