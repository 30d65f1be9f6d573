// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package param

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"
)

// An EnumPolicy selects the wire representation of an enumeration
// value.
//
// An enumeration is a named integer type which implements fmt.Stringer.
// Flag enumerations whose String method joins names, for example
// "Read, Write", are supported: the lower- and upper-case policies strip
// the whitespace between names.
type EnumPolicy int

const (
	// EnumDefault uses the value's String method.
	EnumDefault EnumPolicy = iota
	// EnumNumeric uses the underlying integer value.
	EnumNumeric
	// EnumString uses the value's String method. It is the explicit
	// spelling of EnumDefault.
	EnumString
	// EnumLower uses the lower-cased String form without whitespace.
	EnumLower
	// EnumUpper uses the upper-cased String form without whitespace.
	EnumUpper

	enumPolicySentinel
)

var enumPolicyNames = []string{"default", "numeric", "string", "lower", "upper"}

// ParseEnumPolicy returns the policy named s, as used in the enum=
// struct tag option.
func ParseEnumPolicy(s string) (EnumPolicy, error) {
	for i, name := range enumPolicyNames {
		if name == s {
			return EnumPolicy(i), nil
		}
	}
	return EnumDefault, fmt.Errorf("apix/param: unknown enum policy %q", s)
}

// String returns the name of the policy.
func (p EnumPolicy) String() string {
	if p < 0 || p >= enumPolicySentinel {
		return "EnumPolicy(" + strconv.Itoa(int(p)) + ")"
	}
	return enumPolicyNames[p]
}

var stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()

// IsEnum reports whether t is treated as an enumeration: a named
// integer type implementing fmt.Stringer.
func IsEnum(t reflect.Type) bool {
	if t.Name() == "" || !isInteger(t.Kind()) {
		return false
	}
	return t.Implements(stringerType)
}

// EncodeEnum renders the enumeration value v under policy p.
//
// EncodeEnum panics if p is not a known policy, since an unknown policy
// can only come from a programming error.
func EncodeEnum(v reflect.Value, p EnumPolicy) string {
	switch p {
	case EnumNumeric:
		if isUnsigned(v.Kind()) {
			return strconv.FormatUint(v.Uint(), 10)
		}
		return strconv.FormatInt(v.Int(), 10)
	case EnumDefault, EnumString:
		return enumName(v)
	case EnumLower:
		return strings.ToLower(stripSpace(enumName(v)))
	case EnumUpper:
		return strings.ToUpper(stripSpace(enumName(v)))
	default:
		panic("apix/param: invalid enum policy " + p.String())
	}
}

func enumName(v reflect.Value) string {
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v.Interface())
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func isInteger(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Uintptr
}

func isUnsigned(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}
