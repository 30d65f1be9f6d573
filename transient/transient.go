// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"context"
	"errors"
	"syscall"
)

// A Category is the category of a transport error, as reported by
// function Categorize.
//
// The client never retries, so the category does not drive any
// behavior inside this module. It lets callers tell a cancelled
// request from one which timed out, and a connection which was refused
// from one which was reset, when deciding whether to try again.
type Category int

const (
	// Not indicates any error which is not in one of the other
	// categories, including a nil error.
	Not Category = iota
	// Canceled indicates the caller cancelled the operation's
	// context. A cancelled request is not a failed one: the outcome
	// is unknown rather than bad.
	//
	// Function Categorize returns Canceled if the error or any of its
	// wrapped causes is context.Canceled.
	Canceled
	// Timeout indicates a client-side timeout, either from the
	// client's timeout policy or from a context deadline.
	//
	// Function Categorize returns Timeout if the error is not
	// Canceled and the error or any of its wrapped causes has a
	// Timeout() function that reports true.
	Timeout
	// ConnRefused indicates the remote host refused the connection,
	// and corresponds to the POSIX error code ECONNREFUSED.
	//
	// Function Categorize returns ConnRefused if the error is not
	// Canceled or a Timeout, and the error or any of its wrapped
	// causes is equal to syscall.ECONNREFUSED.
	ConnRefused
	// ConnReset indicates the remote host returned an RST packet on a
	// previously active TCP connection, and corresponds to the POSIX
	// error code ECONNRESET.
	//
	// Function Categorize returns ConnReset if the error is not
	// Canceled or a Timeout, and the error or any of its wrapped
	// causes is equal to syscall.ECONNRESET.
	ConnReset
)

var categoryNames = []string{"Not", "Canceled", "Timeout", "ConnRefused", "ConnReset"}

// String returns the name of the category.
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "Category(?)"
	}
	return categoryNames[c]
}

// Categorize returns the category of the given error, looking at
// wrapped cause errors as well as err itself.
func Categorize(err error) Category {
	if err == nil {
		return Not
	}

	if errors.Is(err, context.Canceled) {
		return Canceled
	}

	var hasTimeout hasTimeout
	if errors.As(err, &hasTimeout) && hasTimeout.Timeout() {
		return Timeout
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		if errno == syscall.ECONNRESET {
			return ConnReset
		} else if errno == syscall.ECONNREFUSED {
			return ConnRefused
		}
	}

	return Not
}

type hasTimeout interface {
	Timeout() bool
}
