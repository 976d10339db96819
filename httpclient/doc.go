// Package httpclient is a small JSON-over-HTTP client used to talk to
// model servers.
//
// Requests are built against an optional BaseURL, default headers are
// merged with per-request headers and bodies are JSON-encoded unless they
// are already bytes, strings or readers. Non-2xx responses come back as
// *Error values that record whether the call may be retried, and a
// configured resilience.RetryConfig retries exactly those.
//
//	c, err := httpclient.New(httpclient.Config{
//	    Service: "seldon",
//	    Retry:   httpclient.DefaultRetryConfig(),
//	}, log)
//	var out PredictionResponse
//	err = c.PostJSON(ctx, url, payload, &out)
package httpclient
