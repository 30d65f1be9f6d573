// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient sorts transport errors from request dispatch into
// categories: cancellation, timeout, refused connection, and reset
// connection. This is handy for callers deciding whether a failed
// request is worth trying again, and for bucketing error metrics.
//
// Package transient depends only on the standard library packages
// "context", "errors" and "syscall".
package transient
