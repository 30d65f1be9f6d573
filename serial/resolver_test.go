// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package serial

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type invoice struct {
	ID int
}

type manifest struct {
	Items []string
}

type countingSerializer struct {
	JSON
	configured int
}

func TestDirection(t *testing.T) {
	assert.Equal(t, "In", In.String())
	assert.Equal(t, "Out", Out.String())
	assert.Equal(t, "All", All.String())
	assert.Equal(t, "None", Direction(0).String())
}

func TestResolve(t *testing.T) {
	r, err := NewResolver(&JSON{})
	require.NoError(t, err)
	invoiceType := reflect.TypeOf(invoice{})

	t.Run("unregistered falls back to default", func(t *testing.T) {
		assert.Same(t, r.Default(), r.Resolve(invoiceType, In))
		assert.Same(t, r.Default(), r.Resolve(invoiceType, Out))
		assert.Same(t, r.Default(), r.Resolve(nil, Out))
	})
	t.Run("register then unregister", func(t *testing.T) {
		Register[invoice, *XML](In)
		t.Cleanup(func() { Unregister[invoice](All) })

		assert.IsType(t, &XML{}, r.Resolve(invoiceType, In))
		assert.IsType(t, &XML{}, r.Resolve(reflect.PointerTo(invoiceType), In), "pointers share registration")
		assert.Same(t, r.Default(), r.Resolve(invoiceType, Out))
		assert.Same(t, r.Resolve(invoiceType, In), r.Resolve(invoiceType, In), "instances are cached")

		Unregister[invoice](In)
		assert.Same(t, r.Default(), r.Resolve(invoiceType, In))
	})
	t.Run("All registers both directions", func(t *testing.T) {
		Register[invoice, *YAML](All)
		t.Cleanup(func() { Unregister[invoice](All) })

		assert.IsType(t, &YAML{}, r.Resolve(invoiceType, In))
		assert.IsType(t, &YAML{}, r.Resolve(invoiceType, Out))
		Unregister[invoice](Out)
		assert.IsType(t, &YAML{}, r.Resolve(invoiceType, In))
		assert.Same(t, r.Default(), r.Resolve(invoiceType, Out))
	})
	t.Run("last registration wins", func(t *testing.T) {
		Register[invoice, *XML](Out)
		Register[invoice, *YAML](Out)
		t.Cleanup(func() { Unregister[invoice](All) })

		assert.IsType(t, &YAML{}, r.Resolve(invoiceType, Out))
	})
	t.Run("numbers and booleans use default", func(t *testing.T) {
		Register[int, *XML](All)
		t.Cleanup(func() { Unregister[int](All) })

		assert.Same(t, r.Default(), r.Resolve(reflect.TypeOf(0), In))
	})
	t.Run("registration is global", func(t *testing.T) {
		Register[manifest, *YAML](In)
		t.Cleanup(func() { Unregister[manifest](All) })

		r2, err := NewResolver(&JSON{})
		require.NoError(t, err)
		a := r.Resolve(reflect.TypeOf(manifest{}), In)
		b := r2.Resolve(reflect.TypeOf(manifest{}), In)
		assert.IsType(t, &YAML{}, a)
		assert.IsType(t, &YAML{}, b)
		assert.NotSame(t, a, b, "instances are per resolver")
	})
}

func TestRegisterType(t *testing.T) {
	err := RegisterType(reflect.TypeOf(invoice{}), reflect.TypeOf(0), All)
	assert.ErrorIs(t, err, ErrNotSerializer)
	err = RegisterType(reflect.TypeOf(invoice{}), reflect.TypeOf((*Serializer)(nil)).Elem(), All)
	assert.ErrorIs(t, err, ErrNotSerializer)
	err = RegisterType(reflect.TypeOf(invoice{}), reflect.TypeOf(Text{}), All)
	assert.EqualError(t, err, "apix/serial: serial.Text does not accept serial.invoice")
	assert.Panics(t, func() { Register[invoice, Text](In) })

	require.NoError(t, RegisterType(reflect.TypeOf(""), reflect.TypeOf(Text{}), In))
	t.Cleanup(func() { UnregisterType(reflect.TypeOf(""), All) })
	s, ok := Lookup(reflect.TypeOf(""), In)
	assert.True(t, ok)
	assert.Equal(t, reflect.TypeOf(Text{}), s)
	_, ok = Lookup(reflect.TypeOf(""), Out)
	assert.False(t, ok)
}

func TestNewResolver(t *testing.T) {
	_, err := NewResolver(nil)
	assert.Error(t, err)
	_, err = NewResolver(Text{})
	assert.ErrorIs(t, err, ErrRestrictedDefault)
}

func TestConfigure(t *testing.T) {
	def := &JSON{}
	r, err := NewResolver(def)
	require.NoError(t, err)

	t.Run("default", func(t *testing.T) {
		require.NoError(t, Configure(r, func(s *JSON) { s.Indent = "\t" }))
		assert.Equal(t, "\t", def.Indent)
	})
	t.Run("unregistered", func(t *testing.T) {
		called := false
		err := Configure(r, func(s *countingSerializer) { called = true })
		assert.ErrorIs(t, err, ErrNotRegistered)
		assert.False(t, called)
	})
	t.Run("registered", func(t *testing.T) {
		Register[manifest, *countingSerializer](Out)
		t.Cleanup(func() { Unregister[manifest](All) })

		require.NoError(t, Configure(r, func(s *countingSerializer) { s.configured++ }))
		require.NoError(t, Configure(r, func(s *countingSerializer) { s.configured++ }))
		s := r.Resolve(reflect.TypeOf(manifest{}), Out)
		require.IsType(t, &countingSerializer{}, s)
		assert.Equal(t, 2, s.(*countingSerializer).configured)
	})
}
