// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package param

import (
	"fmt"
	"strconv"
	"strings"
)

// A CollectionPolicy selects how a sequence of scalar values expands
// into key/value pairs.
type CollectionPolicy int

const (
	// Concatenated emits a single pair whose value joins the elements
	// with a separator (default ","). It is the default policy.
	Concatenated CollectionPolicy = iota
	// Recursive emits one pair per element, repeating the key.
	Recursive
	// Unordered emits one pair per element with the key suffixed by
	// "[]".
	Unordered
	// Ordered emits one pair per element with the key suffixed by
	// "[i]", where i counts up from zero in iteration order.
	Ordered

	collectionPolicySentinel
)

// DefaultSeparator is the separator used by Concatenated when none is
// given.
const DefaultSeparator = ","

var collectionPolicyNames = []string{"concat", "recursive", "unordered", "ordered"}

// ParseCollectionPolicy returns the policy named s, as used in struct
// tag options.
func ParseCollectionPolicy(s string) (CollectionPolicy, error) {
	for i, name := range collectionPolicyNames {
		if name == s {
			return CollectionPolicy(i), nil
		}
	}
	return Concatenated, fmt.Errorf("apix/param: unknown collection policy %q", s)
}

// String returns the name of the policy.
func (p CollectionPolicy) String() string {
	if p < 0 || p >= collectionPolicySentinel {
		return "CollectionPolicy(" + strconv.Itoa(int(p)) + ")"
	}
	return collectionPolicyNames[p]
}

// EncodeCollection expands values into pairs for key under policy p.
//
// The escape function is applied to the key and to every individual
// value, never to the "[]" and "[i]" suffixes nor to the separator.
// Use QueryEscape for URL contexts and NoEscape otherwise. A nil escape
// means NoEscape. An empty sep means DefaultSeparator.
//
// An empty values slice produces no pairs. The returned pairs have a
// zero Location, which the caller sets.
//
// EncodeCollection panics if p is not a known policy.
func EncodeCollection(values []string, key string, p CollectionPolicy, sep string, escape Escaper) []Pair {
	if len(values) == 0 {
		return nil
	}
	if escape == nil {
		escape = NoEscape
	}
	k := escape(key)
	switch p {
	case Recursive:
		pairs := make([]Pair, len(values))
		for i, v := range values {
			pairs[i] = Pair{Key: k, Value: escape(v)}
		}
		return pairs
	case Unordered:
		pairs := make([]Pair, len(values))
		for i, v := range values {
			pairs[i] = Pair{Key: k + "[]", Value: escape(v)}
		}
		return pairs
	case Ordered:
		pairs := make([]Pair, len(values))
		for i, v := range values {
			pairs[i] = Pair{Key: k + "[" + strconv.Itoa(i) + "]", Value: escape(v)}
		}
		return pairs
	case Concatenated:
		if sep == "" {
			sep = DefaultSeparator
		}
		var b strings.Builder
		for i, v := range values {
			if i > 0 {
				b.WriteString(sep)
			}
			b.WriteString(escape(v))
		}
		return []Pair{{Key: k, Value: b.String()}}
	default:
		panic("apix/param: invalid collection policy " + p.String())
	}
}
