// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package apix

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestDispose(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		m := newMockHTTPDoer(t)
		assert.NoError(t, dispose(m))
		m.AssertNotCalled(t, "Do", mock.Anything)
	})
	t.Run("IdleCloser", func(t *testing.T) {
		m := newMockHTTPDoerWithCloseIdleConnections(t)
		m.On("CloseIdleConnections").Return().Once()
		assert.NoError(t, dispose(m))
		m.AssertExpectations(t)
	})
	t.Run("io.Closer", func(t *testing.T) {
		closeErr := errors.New("close")
		m := &mockClosingDoer{}
		m.Test(t)
		m.On("CloseIdleConnections").Return().Once()
		m.On("Close").Return(closeErr).Once()
		assert.Same(t, closeErr, dispose(m))
		m.AssertExpectations(t)
	})
}

type mockClosingDoer struct {
	mockHTTPDoerWithCloseIdleConnections
}

func (m *mockClosingDoer) Close() error {
	args := m.Called()
	return args.Error(0)
}
