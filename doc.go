// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package apix provides an HTTP API client driven by declarative request
definitions.

Describe a request as a struct (see package request), then send it with
a Client:

	type GetUser struct {
		request.Get
		request.Authorized
		ID     int      `path:"id"`
		Fields []string `query:"fields"`
	}

	func (r *GetUser) Path() string { return "/users/{id}" }

	base, _ := url.Parse("https://api.example.com/v1/")
	client := &apix.Client{BaseURL: base}
	_ = client.SetHeader("Authorization", "Bearer "+token)
	user, err := apix.Perform[User](ctx, client, &GetUser{ID: 7, Fields: []string{"name", "email"}})

Perform decodes the body through the client's serializer resolver (see
package serial). Use []byte, string, or *apix.Payload as the type
argument to receive the body as is, or apix.NoContent to discard it.
For the raw *http.Response, use Client.Do. To stream a large body into
a file with progress reports, use Download:

	f, _ := os.Create("report.csv")
	n, err := apix.Download(ctx, client, &GetReport{ID: 1}, f, &apix.DownloadOptions{
		Progress: func(p apix.Progress) { log.Printf("%d/%d", p.Written, p.Total) },
	})

The client builds its transport lazily with a HandlerFactory from a
TransportConfig, and keeps a set of default headers. Changing either is
safe while requests are in flight: the change waits for in-flight
requests to finish and is applied before the next request is sent.

	err := client.SetTransportConfig(apix.TransportConfig{
		DialTimeout: 5 * time.Second,
		HTTP2:       true,
	})

For control over request timeouts, set a timeout policy using package
timeout:

	client := &apix.Client{
		TimeoutPolicy: timeout.Fixed(10*time.Second),
	}

To hook into the client's request execution logic, install a handler
into the appropriate handler chain:

	handlers := &apix.HandlerGroup{}
	handlers.PushBack(apix.AfterExecutionEnd, apix.HandlerFunc(
		func(_ apix.Event, e *request.Execution) {
			log.Printf("%s %s: %d in %s", e.Plan.Method, e.Plan.URL, e.StatusCode(), e.Duration())
		}),
	)
	client := &apix.Client{
		Handlers: handlers,
	}

The client never retries. Errors distinguish requests which were never
sent (*request.ValidationError, *request.ConfigError) from requests
which were sent and failed (*url.Error, *StatusError).
*/
package apix
