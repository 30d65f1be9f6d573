// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package apix

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		assert.Equal(t, "apix: unexpected status 500 Internal Server Error",
			(&StatusError{StatusCode: 500}).Error())
		assert.Equal(t, "apix: unexpected status 400 Bad: \"oops\"",
			(&StatusError{StatusCode: 400, Status: "400 Bad", Body: []byte("oops")}).Error())
		assert.Equal(t, "apix: unexpected status 400 Bad",
			(&StatusError{StatusCode: 400, Status: "400 Bad", Body: []byte{0xff, 0xfe}}).Error())
		long := (&StatusError{StatusCode: 400, Status: "400 Bad", Body: []byte(strings.Repeat("a", 1000))}).Error()
		assert.Contains(t, long, strings.Repeat("a", 256)+`"`)
		assert.NotContains(t, long, strings.Repeat("a", 257))
	})
	t.Run("Temporary", func(t *testing.T) {
		testCases := map[int]bool{
			200: false,
			400: false,
			404: false,
			429: true,
			500: true,
			501: false,
			502: true,
			503: true,
		}
		for code, temporary := range testCases {
			assert.Equal(t, temporary, (&StatusError{StatusCode: code}).Temporary(), code)
		}
	})
}

func TestSuccess(t *testing.T) {
	assert.False(t, success(199))
	assert.True(t, success(200))
	assert.True(t, success(204))
	assert.True(t, success(299))
	assert.False(t, success(300))
	assert.False(t, success(404))
}
