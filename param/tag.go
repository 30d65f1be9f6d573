// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package param

import (
	"fmt"
	"strings"
)

// Options are the parsed contents of a location struct tag such as
// `query:"ids,ordered,enum=lower"`.
type Options struct {
	// Key is the output field or header name. It is empty when the
	// tag does not name one, in which case the member name is used.
	Key string
	// Collection is the expansion policy for sequence members.
	Collection CollectionPolicy
	// Separator is the Concatenated separator. Empty means
	// DefaultSeparator.
	Separator string
	// Enum is the rendering policy for enumeration members.
	Enum EnumPolicy
}

// ParseTag parses a location struct tag value. The first
// comma-separated element is the key; the remaining elements are
// options:
//
//	recursive | unordered | ordered | concat | concat=<sep>
//	enum=default|numeric|string|lower|upper
//
// Since the separator itself may be a comma, concat=<sep> consumes the
// rest of the tag, so it must be the last option.
func ParseTag(tag string) (Options, error) {
	key, opts := tagOptions(tag)
	o := Options{Key: key}
	for opts != "" {
		var opt string
		if strings.HasPrefix(opts, "concat=") {
			o.Collection = Concatenated
			o.Separator = strings.TrimPrefix(opts, "concat=")
			if o.Separator == "" {
				return o, fmt.Errorf("apix/param: empty separator in tag %q", tag)
			}
			break
		}
		opt, opts, _ = strings.Cut(opts, ",")
		name, value, hasValue := strings.Cut(opt, "=")
		switch {
		case name == "enum" && hasValue:
			p, err := ParseEnumPolicy(value)
			if err != nil {
				return o, err
			}
			o.Enum = p
		case !hasValue:
			p, err := ParseCollectionPolicy(name)
			if err != nil {
				return o, fmt.Errorf("apix/param: unknown option %q in tag %q", opt, tag)
			}
			o.Collection = p
		default:
			return o, fmt.Errorf("apix/param: unknown option %q in tag %q", opt, tag)
		}
	}
	return o, nil
}

// tagOptions splits a struct tag value on comma and returns the name
// and remaining options.
func tagOptions(tag string) (string, string) {
	name, opts, _ := strings.Cut(tag, ",")
	return name, opts
}
