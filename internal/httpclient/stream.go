package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/dpe27/esk-upload/pkg/nethttp"
	"github.com/dpe27/esk-upload/pkg/utils"
)

var ErrRequestStarted = errors.New(utils.ErrorRequestStarted)

type (
	// FreshRequest wraps a request whose headers may still change.
	FreshRequest struct {
		cli     HttpClient
		req     *http.Request
		opts    *reqOpt
		started bool
	}

	// StreamingRequest feeds the body of a request already handed to the
	// client. Writes block until the transport has consumed them.
	StreamingRequest struct {
		pw      *io.PipeWriter
		done    chan result
		once    sync.Once
		result  result
		aborted bool
	}

	// StatusError is returned by Write when the server answered with a
	// non-2xx status before it had read the whole body.
	StatusError struct {
		StatusCode int
		Body       string
	}

	result struct {
		res *http.Response
		err error
	}
)

var (
	_ nethttp.FreshRequest     = (*FreshRequest)(nil)
	_ nethttp.StreamingRequest = (*StreamingRequest)(nil)
)

func NewFreshRequest(
	ctx context.Context,
	cli HttpClient,
	method string,
	url string,
	opts *reqOpt,
) (*FreshRequest, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	return &FreshRequest{
		cli:  cli,
		req:  req,
		opts: opts,
	}, nil
}

func (f *FreshRequest) Context() context.Context {
	return f.req.Context()
}

func (f *FreshRequest) Method() string {
	return f.req.Method
}

func (f *FreshRequest) Header() http.Header {
	return f.req.Header
}

// Start hands the request to the client with a pipe as its body. The body
// length is unknown, so HTTP/1.1 sends it chunked.
func (f *FreshRequest) Start() (nethttp.StreamingRequest, error) {
	if f.started {
		return nil, ErrRequestStarted
	}
	f.started = true

	pr, pw := io.Pipe()
	f.req.Body = pr
	f.req.GetBody = nil
	f.req.ContentLength = -1

	done := make(chan result, 1)
	go func() {
		res, err := f.cli.Do(f.req, f.opts)
		if err != nil {
			// unblock any pending Write
			pr.CloseWithError(err)
		}
		done <- result{res: res, err: err}
	}()

	return &StreamingRequest{pw: pw, done: done}, nil
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server replied %d before the body was sent: %s", e.StatusCode, e.Body)
}

// Write fails once the transport stops reading the body. The error is then
// the round trip's own failure, or a *StatusError when the server already
// replied, rather than the bare pipe error.
func (s *StreamingRequest) Write(p []byte) (int, error) {
	n, err := s.pw.Write(p)
	if err != nil && !s.aborted {
		return n, s.cause(err)
	}
	return n, err
}

func (s *StreamingRequest) wait() result {
	s.once.Do(func() {
		s.result = <-s.done
	})
	return s.result
}

func (s *StreamingRequest) cause(writeErr error) error {
	r := s.wait()
	if r.err != nil {
		return r.err
	}
	if r.res == nil || (r.res.StatusCode >= 200 && r.res.StatusCode < 300) {
		return writeErr
	}

	body, _ := io.ReadAll(io.LimitReader(r.res.Body, bodyBytesLimit))
	_ = r.res.Body.Close()
	return &StatusError{StatusCode: r.res.StatusCode, Body: string(body)}
}

// Send closes the body and waits for the response.
func (s *StreamingRequest) Send() (*http.Response, error) {
	if err := s.pw.Close(); err != nil {
		return nil, err
	}
	r := s.wait()
	return r.res, r.err
}

// Abort fails the body with err and waits for the round trip to give up.
func (s *StreamingRequest) Abort(err error) {
	s.aborted = true
	_ = s.pw.CloseWithError(err)
	r := s.wait()
	if r.res != nil && r.res.Body != nil {
		_ = r.res.Body.Close()
	}
}
