// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package param

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type color int

const (
	red   color = 1
	green color = 512
)

func (c color) String() string {
	switch c {
	case red:
		return "Red"
	case green:
		return "Green"
	default:
		return "color?"
	}
}

type perm uint8

const (
	permRead perm = 1 << iota
	permWrite
	permExec
)

func (p perm) String() string {
	var names []string
	if p&permRead != 0 {
		names = append(names, "Read")
	}
	if p&permWrite != 0 {
		names = append(names, "Write")
	}
	if p&permExec != 0 {
		names = append(names, "Exec")
	}
	return strings.Join(names, ", ")
}

type plainInt int

func TestIsEnum(t *testing.T) {
	assert.True(t, IsEnum(reflect.TypeOf(green)))
	assert.True(t, IsEnum(reflect.TypeOf(permRead)))
	assert.False(t, IsEnum(reflect.TypeOf(plainInt(0))))
	assert.False(t, IsEnum(reflect.TypeOf(0)))
	assert.False(t, IsEnum(reflect.TypeOf("Green")))
}

func TestEncodeEnum(t *testing.T) {
	testCases := []struct {
		name   string
		value  interface{}
		policy EnumPolicy
		want   string
	}{
		{"numeric", green, EnumNumeric, "512"},
		{"lower", green, EnumLower, "green"},
		{"upper", green, EnumUpper, "GREEN"},
		{"default", green, EnumDefault, "Green"},
		{"string", green, EnumString, "Green"},
		{"flags numeric", permRead | permExec, EnumNumeric, "5"},
		{"flags default", permRead | permExec, EnumDefault, "Read, Exec"},
		{"flags lower", permRead | permExec, EnumLower, "read,exec"},
		{"flags upper", permRead | permWrite, EnumUpper, "READ,WRITE"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got := EncodeEnum(reflect.ValueOf(testCase.value), testCase.policy)
			assert.Equal(t, testCase.want, got)
		})
	}
	t.Run("invalid policy", func(t *testing.T) {
		assert.Panics(t, func() { EncodeEnum(reflect.ValueOf(green), EnumPolicy(99)) })
	})
}

func TestParseEnumPolicy(t *testing.T) {
	for _, p := range []EnumPolicy{EnumDefault, EnumNumeric, EnumString, EnumLower, EnumUpper} {
		parsed, err := ParseEnumPolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}
	_, err := ParseEnumPolicy("camel")
	assert.EqualError(t, err, `apix/param: unknown enum policy "camel"`)
	assert.Equal(t, "EnumPolicy(42)", EnumPolicy(42).String())
}
