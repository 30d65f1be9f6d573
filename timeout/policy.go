// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"strings"
	"time"

	"github.com/gogama/apix/request"
)

// A Policy defines a timeout policy which may be plugged into the
// client (apix.Client) to direct how long a request dispatch may take.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	// Timeout returns the timeout to set on the dispatch described by
	// e. When Timeout is called, the execution's Definition and Plan
	// are set but nothing has been sent.
	Timeout(e *request.Execution) time.Duration
}

// DefaultPolicy is the default timeout policy. It sets a fixed timeout
// of 100 seconds on each dispatch.
var DefaultPolicy Policy = Fixed(100 * time.Second)

// Infinite is a built-in timeout policy which never times out. The
// dispatch is then bounded only by the caller's context.
var Infinite Policy = Fixed(1<<63 - 1)

// Fixed constructs a timeout policy that uses the same value for every
// dispatch.
func Fixed(d time.Duration) Policy {
	return fixed(d)
}

type fixed time.Duration

func (p fixed) Timeout(_ *request.Execution) time.Duration {
	return time.Duration(p)
}

// ByMethod constructs a timeout policy that looks up the timeout by
// the plan's HTTP method, falling back to other for methods not in m.
// Method names are matched case-insensitively.
//
// Use ByMethod when some verbs are expected to be slow, for example to
// give uploads by PUT more time than lookups by GET:
//
// 	p := ByMethod(map[string]time.Duration{"PUT": 10 * time.Minute}, Fixed(30*time.Second))
func ByMethod(m map[string]time.Duration, other Policy) Policy {
	p := byMethod{m: make(map[string]time.Duration, len(m)), other: other}
	for method, d := range m {
		p.m[strings.ToUpper(method)] = d
	}
	return p
}

type byMethod struct {
	m     map[string]time.Duration
	other Policy
}

func (p byMethod) Timeout(e *request.Execution) time.Duration {
	if e.Plan != nil {
		if d, ok := p.m[strings.ToUpper(e.Plan.Method)]; ok {
			return d
		}
	}
	return p.other.Timeout(e)
}
