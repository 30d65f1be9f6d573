// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"math"
	"syscall"
	"testing"
	"time"

	"github.com/gogama/apix/request"
	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	a := DefaultPolicy.Timeout(&request.Execution{})
	assert.Equal(t, 100*time.Second, a)
	b := DefaultPolicy.Timeout(&request.Execution{Err: syscall.ETIMEDOUT, Plan: &request.Plan{Method: "PUT"}})
	assert.Equal(t, 100*time.Second, b)
}

func TestInfinite(t *testing.T) {
	a := Infinite.Timeout(&request.Execution{})
	assert.Equal(t, time.Duration(math.MaxInt64), a)
}

func TestFixed(t *testing.T) {
	p := Fixed(33 * time.Hour)
	assert.Equal(t, 33*time.Hour, p.Timeout(&request.Execution{}))
	assert.Equal(t, 33*time.Hour, p.Timeout(&request.Execution{Plan: &request.Plan{Method: "GET"}}))
}

func TestByMethod(t *testing.T) {
	p := ByMethod(map[string]time.Duration{
		"put":  10 * time.Minute,
		"HEAD": time.Second,
	}, Fixed(30*time.Second))
	assert.Equal(t, 10*time.Minute, p.Timeout(&request.Execution{Plan: &request.Plan{Method: "PUT"}}))
	assert.Equal(t, time.Second, p.Timeout(&request.Execution{Plan: &request.Plan{Method: "head"}}))
	assert.Equal(t, 30*time.Second, p.Timeout(&request.Execution{Plan: &request.Plan{Method: "GET"}}))
	assert.Equal(t, 30*time.Second, p.Timeout(&request.Execution{}), "no plan uses fallback")
}
