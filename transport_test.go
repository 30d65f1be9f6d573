// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package apix

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHandlerFactory(t *testing.T) {
	t.Run("default config", func(t *testing.T) {
		doer, err := DefaultHandlerFactory(DefaultTransportConfig)
		require.NoError(t, err)
		cl, ok := doer.(*http.Client)
		require.True(t, ok)
		tr, ok := cl.Transport.(*http.Transport)
		require.True(t, ok)
		assert.Equal(t, 10*time.Second, tr.TLSHandshakeTimeout)
		assert.Equal(t, 90*time.Second, tr.IdleConnTimeout)
		assert.Equal(t, 100, tr.MaxIdleConns)
		assert.Equal(t, 10, tr.MaxIdleConnsPerHost)
		assert.Contains(t, tr.TLSNextProto, "h2")
		assert.Nil(t, cl.Jar)
		assert.Nil(t, cl.CheckRedirect)
		assert.Nil(t, tr.TLSClientConfig.Certificates)
		assert.False(t, tr.TLSClientConfig.InsecureSkipVerify)
	})
	t.Run("http1 only", func(t *testing.T) {
		doer, err := DefaultHandlerFactory(TransportConfig{DisableCompression: true})
		require.NoError(t, err)
		tr := doer.(*http.Client).Transport.(*http.Transport)
		assert.NotContains(t, tr.TLSNextProto, "h2")
		assert.True(t, tr.DisableCompression)
		assert.Nil(t, tr.TLSClientConfig)
	})
	t.Run("options", func(t *testing.T) {
		doer, err := DefaultHandlerFactory(TransportConfig{
			Cookies:            true,
			InsecureSkipVerify: true,
			MaxRedirects:       2,
			MaxConnsPerHost:    3,
		})
		require.NoError(t, err)
		cl := doer.(*http.Client)
		tr := cl.Transport.(*http.Transport)
		assert.NotNil(t, cl.Jar)
		assert.True(t, tr.TLSClientConfig.InsecureSkipVerify)
		assert.Equal(t, 3, tr.MaxConnsPerHost)
		require.NotNil(t, cl.CheckRedirect)
		assert.NoError(t, cl.CheckRedirect(nil, make([]*http.Request, 1)))
		assert.EqualError(t, cl.CheckRedirect(nil, make([]*http.Request, 2)), "apix: stopped after 2 redirects")
	})
	t.Run("no redirects", func(t *testing.T) {
		doer, err := DefaultHandlerFactory(TransportConfig{MaxRedirects: -1})
		require.NoError(t, err)
		cl := doer.(*http.Client)
		assert.Equal(t, http.ErrUseLastResponse, cl.CheckRedirect(nil, make([]*http.Request, 1)))
	})
}

func TestTransportConfigValidation(t *testing.T) {
	valid := []TransportConfig{
		{},
		DefaultTransportConfig,
		{MaxRedirects: -1},
	}
	for _, cfg := range valid {
		assert.NoError(t, validate.Struct(cfg))
	}
	invalid := []TransportConfig{
		{DialTimeout: -time.Second},
		{IdleConnTimeout: -1},
		{MaxIdleConns: -1},
		{MaxIdleConnsPerHost: -1},
		{MaxRedirects: -2},
	}
	for _, cfg := range invalid {
		assert.Error(t, validate.Struct(cfg), "%+v", cfg)
	}
}
