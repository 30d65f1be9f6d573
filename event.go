// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package apix

// An Event identifies the event type when installing or running a
// Handler. Each event marks a plug-in point at which the client
// runs a chain of installed handlers.
//
// Handlers never run while the client's transport lock is held, so a
// handler may change the client's configuration or start another
// request.
type Event int

const (
	// BeforeExecutionStart identifies the event that occurs after a
	// request definition has been compiled into a plan, but before
	// anything has been sent.
	//
	// When Client fires BeforeExecutionStart, the execution's
	// definition and plan are set. Handlers may modify the plan, for
	// example to add headers. Headers set on the plan take precedence
	// over the client's default headers.
	BeforeExecutionStart Event = iota
	// AfterExecutionEnd identifies the event that occurs after the
	// execution ends, either because the response was consumed or
	// because an error occurred after BeforeExecutionStart.
	//
	// When Client fires AfterExecutionEnd, the end time is set, the
	// response body (if any) has been closed, and the transport lock
	// has been released. The execution's error field is set if the
	// execution failed, including when the response had a non-2XX
	// status code and was consumed by Perform or Download.
	AfterExecutionEnd
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforeExecutionStart",
	"AfterExecutionEnd",
}

// Events returns a slice containing all events which can occur during
// an execution, in the order in which they would occur.
func Events() []Event {
	return []Event{
		BeforeExecutionStart,
		AfterExecutionEnd,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

func (evt Event) String() string {
	return evt.Name()
}
