// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package param converts the values of annotated request members into
wire-ready key/value pairs.

The package contains the leaf encoders used by the request compiler:
EncodeEnum renders an enumeration value under an EnumPolicy,
EncodeCollection expands a sequence of scalar values into one or more
pairs under a CollectionPolicy, and FormatScalar renders a single
scalar using invariant formatting. ParseTag reads the struct tag
options which select the policies.

A pair destined for a URL context (the query string or a URL-encoded
form body) has its key and value percent-escaped by the encoder, while
the separators and brackets of the collection format are left as is:

	EncodeCollection([]string{"a", "b"}, "data", Ordered, "", QueryEscape)
	// data[0]=a, data[1]=b

Pairs destined for headers or multipart parts are not escaped.
*/
package param
