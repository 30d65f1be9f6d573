// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request compiles declarative request definitions into HTTP
request plans.

A Definition is a struct whose tagged fields say where their values go:

	type SearchItems struct {
		request.Get
		Tenant string   `path:"tenant"`
		Terms  []string `query:"q"`
		Tags   []string `query:"tag,ordered"`
		Color  Color    `query:"color,enum=lower"`
		Limit  *int     `query:"limit"`
		Trace  string   `header:"X-Trace-Id"`
	}

	func (r *SearchItems) Path() string { return "/tenants/{tenant}/items" }

The `query`, `header`, `form`, and `path` tags name the output key
(defaulting to the field name) followed by options: a collection policy
(recursive, unordered, ordered, concat, or concat=<sep>) and an enum
policy (enum=numeric, string, lower, or upper). A field of type
func() T or func() (T, error) is called to obtain the value. Null
values (nil pointers, funcs, slices, and interfaces) are omitted.

Embedded structs contribute their tagged fields after those of the
embedding struct, and a field shadows any deeper field with the same
name.

The body is chosen by the Definition's shape: `form` fields produce a
URL-encoded body, or a multipart body if the Definition embeds
Multipart; a single field tagged `body:""` is sent as is if it is a
Content, []byte, string, or io.Reader and serialized otherwise; and a
Definition embedding Serialized is serialized whole.

Describe computes the Descriptor of a Definition type once and caches
it, reporting tag mistakes as *ConfigError. Compile turns a Definition
into a Plan, which the client sends; the state of the dispatch is kept
in an Execution.
*/
package request
