package multipart

import (
	"net/http"

	"github.com/dpe27/esk-upload/pkg/log"
	"github.com/dpe27/esk-upload/pkg/nethttp"
)

// SendError is returned for any failure after Send has started the request.
// The connection behind the request must be treated as unusable.
type SendError struct {
	Err error
}

func (e *SendError) Error() string {
	return "multipart: send failed: " + e.Err.Error()
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// Send sets the multipart Content-Type on req, starts it and streams every
// field in insertion order. req must be a POST request; anything else is a
// programming error and panics before req is touched.
func (m *Multipart) Send(req nethttp.FreshRequest) (*http.Response, error) {
	if req.Method() != http.MethodPost {
		panic("multipart: request must use POST method")
	}

	ctx := req.Context()
	m.applyHeaders(req.Header())
	log.Debug(ctx, "Sending multipart request", "fields", m.fieldNames(), "boundary", m.boundary)

	stream, err := req.Start()
	if err != nil {
		return nil, &SendError{Err: err}
	}

	if err := m.writeBody(stream); err != nil {
		stream.Abort(err)
		return nil, &SendError{Err: err}
	}

	res, err := stream.Send()
	if err != nil {
		return nil, &SendError{Err: err}
	}
	return res, nil
}

func (m *Multipart) applyHeaders(h http.Header) {
	h.Set(nethttp.HeaderContentType, m.ContentType())
}

func (m *Multipart) fieldNames() []string {
	names := make([]string, 0, len(m.fields))
	for _, f := range m.fields {
		names = append(names, f.Name)
	}
	return names
}
