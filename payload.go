// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package apix

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// A Payload is a fully received response body. Bodies up to the
// client's MemoryLimit are held in memory; larger ones are written to
// a temporary file which is removed by Close.
//
// Use Payload as the type argument to Perform to receive a body
// without deserializing it. The caller must close the returned
// Payload.
//
// A Payload may be read concurrently through independent Readers.
type Payload struct {
	size int64
	data []byte
	file *os.File

	closeOnce sync.Once
	closeErr  error
}

// ErrPayloadClosed is returned when reading a closed Payload.
var ErrPayloadClosed = errors.New("apix: payload closed")

// newPayload reads r to EOF. Up to limit bytes are kept in memory,
// past which the whole body is moved to a temporary file.
func newPayload(r io.Reader, limit int64) (*Payload, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if n <= limit {
		return &Payload{size: n, data: buf.Bytes()}, nil
	}

	f, err := os.CreateTemp("", "apix-payload-*")
	if err != nil {
		return nil, fmt.Errorf("apix: spill payload: %w", err)
	}
	p := &Payload{file: f}
	m, err := io.Copy(f, io.MultiReader(&buf, r))
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	p.size = m
	return p, nil
}

// Len returns the payload size in bytes.
func (p *Payload) Len() int64 {
	return p.size
}

// InMemory reports whether the payload is held in memory rather than
// in a temporary file.
func (p *Payload) InMemory() bool {
	return p.file == nil
}

// Reader returns a new reader positioned at the start of the payload.
func (p *Payload) Reader() io.ReadSeeker {
	if p.file != nil {
		return io.NewSectionReader(p.file, 0, p.size)
	}
	return bytes.NewReader(p.data)
}

// Bytes returns the payload contents. For a payload held in a file,
// the file is read into memory.
func (p *Payload) Bytes() ([]byte, error) {
	if p.file == nil {
		return p.data, nil
	}
	b := make([]byte, p.size)
	if _, err := p.file.ReadAt(b, 0); err != nil && err != io.EOF {
		if errors.Is(err, os.ErrClosed) {
			return nil, ErrPayloadClosed
		}
		return nil, err
	}
	return b, nil
}

// WriteTo writes the payload to w.
func (p *Payload) WriteTo(w io.Writer) (int64, error) {
	return io.Copy(w, p.Reader())
}

// Close releases the payload. If the payload is held in a temporary
// file, the file is removed.
func (p *Payload) Close() error {
	if p == nil {
		return nil
	}
	p.closeOnce.Do(func() {
		p.data = nil
		if p.file == nil {
			return
		}
		name := p.file.Name()
		p.closeErr = p.file.Close()
		if err := os.Remove(name); err != nil && p.closeErr == nil {
			p.closeErr = err
		}
	})
	return p.closeErr
}
