// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package serial contains the pluggable request and response body
serializers, the process-wide registration table which maps data types
to serializer types, and the Resolver which hands out serializer
instances.

Registrations are global. They are meant to be made during program
startup and then only read:

	serial.Register[Invoice, *serial.XML](serial.All)
	serial.Register[Manifest, *serial.YAML](serial.In)

A registration affects every Resolver, including those created before
it was made, but each Resolver keeps its own cache of serializer
instances. A type with no registration for a direction resolves to the
Resolver's default serializer:

	r, _ := serial.NewResolver(&serial.JSON{})
	s := r.Resolve(reflect.TypeOf(Invoice{}), serial.Out) // *serial.XML

The shared instance of a serializer type can be adjusted with Configure:

	err := serial.Configure(r, func(s *serial.JSON) { s.Indent = "  " })
*/
package serial
