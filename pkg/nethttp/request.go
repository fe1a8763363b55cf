package nethttp

import (
	"context"
	"io"
	"net/http"
)

// FreshRequest is an outgoing request whose headers have not been sent yet.
// Start consumes it: headers must not be touched once it has been called.
type FreshRequest interface {
	Context() context.Context
	Method() string
	Header() http.Header
	Start() (StreamingRequest, error)
}

// StreamingRequest is a started request accepting body bytes. It has no
// header accessor, so headers cannot be changed after the body has begun.
type StreamingRequest interface {
	io.Writer
	// Send finishes the body and waits for the response.
	Send() (*http.Response, error)
	// Abort terminates the body with err. The connection is not reusable.
	Abort(err error)
}
