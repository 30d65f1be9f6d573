// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package apix

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gogama/apix/request"
	"golang.org/x/time/rate"
)

// DefaultChunkSize is the download buffer size when
// DownloadOptions.ChunkSize is zero.
const DefaultChunkSize = 32 << 10

// DefaultProgressEvery is the number of chunks between progress
// reports when neither DownloadOptions.Every nor Interval is set.
const DefaultProgressEvery = 16

// Progress describes how much of a download has been written.
type Progress struct {
	// Written is the number of bytes written to the sink so far.
	Written int64
	// Total is the expected size from the response's Content-Length,
	// or -1 if unknown.
	Total int64
	// Done is set on the final report, sent after the last byte is
	// written.
	Done bool
}

// DownloadOptions tune Download. The zero value is valid.
type DownloadOptions struct {
	// ChunkSize is the size of each read from the response body.
	ChunkSize int
	// Progress, if not nil, receives progress reports. Reports are
	// batched: one is sent every Every chunks, or every Interval,
	// whichever comes first. The final report is always sent.
	//
	// Progress runs on its own goroutine, never while the client's
	// transport lock is held, and may miss intermediate reports if it
	// is slower than the download. Download returns only after the
	// final report has been handled.
	Progress func(Progress)
	// Every is the number of chunks between progress reports.
	Every int
	// Interval is the time between progress reports.
	Interval time.Duration
	// Truncate truncates the sink before the first byte is written.
	// The sink must then implement Truncate(int64) error and
	// io.Seeker.
	Truncate bool
}

// ErrNotTruncatable is returned by Download when truncation is
// requested for a sink which cannot be truncated.
var ErrNotTruncatable = errors.New("apix: download sink cannot be truncated")

type truncater interface {
	Truncate(size int64) error
	io.Seeker
}

var chunkPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, DefaultChunkSize)
		return &b
	},
}

// Download sends the request described by def and streams the body of
// a 2XX response into dst in bounded chunks. It returns the number of
// bytes written.
//
// The sink is only written to, and truncated first if requested, once
// a 2XX response has arrived. Errors are as for Perform; a failure to
// write to dst is returned as is.
func Download(ctx context.Context, c *Client, def request.Definition, dst io.Writer, opts *DownloadOptions) (int64, error) {
	if opts == nil {
		opts = &DownloadOptions{}
	}
	var trunc truncater
	if opts.Truncate {
		var ok bool
		if trunc, ok = dst.(truncater); !ok {
			return 0, ErrNotTruncatable
		}
	}

	x, err := c.start(ctx, def)
	if err != nil {
		return 0, err
	}

	var rep *reporter
	if opts.Progress != nil {
		rep = newReporter(opts.Progress)
	}
	total := x.e.Response.ContentLength
	n, err := x.copyTo(dst, trunc, opts, rep)
	_ = x.e.Response.Body.Close()
	err = x.end(err)
	if rep != nil {
		rep.finish(Progress{Written: n, Total: total, Done: true})
	}
	return n, err
}

func (x *exchange) copyTo(dst io.Writer, trunc truncater, opts *DownloadOptions, rep *reporter) (int64, error) {
	defer x.guard()
	resp := x.e.Response
	if !success(resp.StatusCode) {
		return 0, x.statusError()
	}
	if trunc != nil {
		if _, err := trunc.Seek(0, io.SeekStart); err != nil {
			return 0, fmt.Errorf("apix: truncate download sink: %w", err)
		}
		if err := trunc.Truncate(0); err != nil {
			return 0, fmt.Errorf("apix: truncate download sink: %w", err)
		}
	}

	buf, put := chunk(opts.ChunkSize)
	defer put()
	sometimes := rate.Sometimes{Every: opts.Every, Interval: opts.Interval}
	if opts.Every <= 0 && opts.Interval <= 0 {
		sometimes.Every = DefaultProgressEvery
	}

	var written int64
	for {
		nr, rerr := resp.Body.Read(buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			if nw < 0 || nr < nw {
				nw = 0
				if werr == nil {
					werr = errors.New("apix: invalid write result")
				}
			}
			written += int64(nw)
			if werr != nil {
				return written, werr
			}
			if nr != nw {
				return written, io.ErrShortWrite
			}
			if rep != nil {
				due := false
				sometimes.Do(func() { due = true })
				if due {
					rep.report(Progress{Written: written, Total: resp.ContentLength})
				}
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, urlErrorWrap(x.e.Plan, rerr)
		}
	}
}

func chunk(size int) ([]byte, func()) {
	if size > 0 && size != DefaultChunkSize {
		return make([]byte, size), func() {}
	}
	bp := chunkPool.Get().(*[]byte)
	return *bp, func() { chunkPool.Put(bp) }
}

// A reporter delivers progress to a callback on its own goroutine.
// Only the latest undelivered report is kept.
type reporter struct {
	fn   func(Progress)
	ch   chan Progress
	done chan struct{}
}

func newReporter(fn func(Progress)) *reporter {
	r := &reporter{
		fn:   fn,
		ch:   make(chan Progress, 1),
		done: make(chan struct{}),
	}
	go r.loop()
	return r
}

func (r *reporter) loop() {
	defer close(r.done)
	for p := range r.ch {
		r.fn(p)
	}
}

// report queues p, replacing any report not yet delivered. It must be
// called from one goroutine.
func (r *reporter) report(p Progress) {
	select {
	case r.ch <- p:
		return
	default:
	}
	select {
	case <-r.ch:
	default:
	}
	r.ch <- p
}

// finish waits for queued reports to be delivered, then delivers the
// final report on the calling goroutine.
func (r *reporter) finish(p Progress) {
	close(r.ch)
	<-r.done
	r.fn(p)
}
