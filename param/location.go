// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package param

import (
	"net/url"
	"strings"
)

// A Location is the destination of an annotated request member within
// the HTTP request.
type Location int

const (
	// Query places the member in the URL query string.
	Query Location = iota
	// Header places the member in a request header.
	Header
	// Form places the member in the form body, either URL-encoded or
	// as one multipart part per pair.
	Form
	// Path substitutes the member for a {name} placeholder in the
	// request path.
	Path

	locationSentinel
)

var locationNames = []string{"query", "header", "form", "path"}

// Locations returns all locations in the order in which their struct
// tags are consulted.
func Locations() []Location {
	return []Location{Query, Header, Form, Path}
}

// Tag returns the struct tag key which annotates a member for the
// location.
func (loc Location) Tag() string {
	return locationNames[int(loc)]
}

// String returns the struct tag key of the location.
func (loc Location) String() string {
	if loc < 0 || loc >= locationSentinel {
		return "Location(?)"
	}
	return loc.Tag()
}

// A Pair is a single key/value destined for a Location.
type Pair struct {
	Location Location
	Key      string
	Value    string
}

// String returns the pair as key=value.
func (p Pair) String() string {
	return p.Key + "=" + p.Value
}

// An Escaper escapes an individual key or value for its destination.
type Escaper func(string) string

// QueryEscape escapes values for the query string or a URL-encoded form
// body using url.QueryEscape.
func QueryEscape(s string) string {
	return url.QueryEscape(s)
}

// PathEscape escapes values substituted into a URL path segment.
func PathEscape(s string) string {
	return url.PathEscape(s)
}

// NoEscape returns s unchanged. It is used for header and multipart
// destinations.
func NoEscape(s string) string {
	return s
}

// Join renders pairs as key=value joined by sep with no trailing
// separator.
func Join(pairs []Pair, sep string) string {
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
	return b.String()
}
