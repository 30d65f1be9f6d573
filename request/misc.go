// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"io"
)

const badBodyTypeMsg = "apix/request: invalid raw body type (use string, []byte or io.Reader)"

// BodyBytes returns the bytes of a raw body member: a string or []byte
// as is, or the whole contents of an io.Reader. A reader which is also
// an io.Closer is closed after it is read, even if reading fails.
func BodyBytes(body interface{}) ([]byte, error) {
	switch x := body.(type) {
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	case io.Reader:
		b, err := io.ReadAll(x)
		if c, ok := x.(io.Closer); ok {
			if cerr := c.Close(); err == nil {
				err = cerr
			}
		}
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, errors.New(badBodyTypeMsg)
	}
}
