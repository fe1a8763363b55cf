package multipart

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpe27/esk-upload/pkg/nethttp"
)

type fakeFresh struct {
	method   string
	header   http.Header
	started  bool
	startErr error
	stream   *fakeStream
}

func newFakeFresh(method string) *fakeFresh {
	return &fakeFresh{
		method: method,
		header: make(http.Header),
		stream: &fakeStream{},
	}
}

func (f *fakeFresh) Context() context.Context { return context.Background() }
func (f *fakeFresh) Method() string           { return f.method }
func (f *fakeFresh) Header() http.Header      { return f.header }

func (f *fakeFresh) Start() (nethttp.StreamingRequest, error) {
	f.started = true
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f.stream, nil
}

type fakeStream struct {
	buf      bytes.Buffer
	failAt   int // fail once the body would exceed this many bytes, 0 disables
	writeErr error
	sendErr  error
	sent     bool
	aborted  error
}

func (s *fakeStream) Write(p []byte) (int, error) {
	if s.failAt > 0 && s.buf.Len()+len(p) > s.failAt {
		return 0, s.writeErr
	}
	return s.buf.Write(p)
}

func (s *fakeStream) Send() (*http.Response, error) {
	s.sent = true
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(""))}, nil
}

func (s *fakeStream) Abort(err error) {
	s.aborted = err
}

func TestSend(t *testing.T) {
	m := New(WithMIMEGuesser(textPlain))
	m.AddText("field1", "value1")
	m.AddFile("file1", namedReader{Reader: strings.NewReader("hello"), name: "a.txt"})
	m.AddText("field2", "value2")

	req := newFakeFresh(http.MethodPost)
	res, err := m.Send(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, req.stream.sent)
	assert.Nil(t, req.stream.aborted)

	ct := req.header.Get("Content-Type")
	match := regexp.MustCompile(`^multipart/form-data; boundary=([a-z0-9]{8})$`).FindStringSubmatch(ct)
	require.Len(t, match, 2, "content type %q", ct)
	boundary := match[1]

	body := req.stream.buf.String()
	delimiters := regexp.MustCompile(`--([a-z0-9]+)\r\n`).FindAllStringSubmatch(body, -1)
	require.Len(t, delimiters, 4)
	for _, d := range delimiters {
		assert.Equal(t, boundary, d[1])
	}
	assert.True(t, strings.HasPrefix(body, "--"+boundary+"\r\n"))
	assert.True(t, strings.HasSuffix(body, "value2\r\n--"+boundary+"\r\n"))
}

func TestSendRequiresPost(t *testing.T) {
	m := New()
	m.AddText("a", "b")
	req := newFakeFresh(http.MethodPut)

	assert.PanicsWithValue(t, "multipart: request must use POST method", func() {
		_, _ = m.Send(req)
	})
	assert.Empty(t, req.header)
	assert.False(t, req.started)
	assert.Zero(t, req.stream.buf.Len())
}

func TestSendStartError(t *testing.T) {
	m := New()
	req := newFakeFresh(http.MethodPost)
	req.startErr = errors.New("dial tcp: refused")

	_, err := m.Send(req)
	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	assert.ErrorIs(t, err, req.startErr)
	assert.NotEmpty(t, req.header.Get("Content-Type"))
}

func TestSendWriteErrorAborts(t *testing.T) {
	reset := errors.New("connection reset by peer")
	m := New()
	m.AddText("first", "ok")
	m.AddText("second", strings.Repeat("y", 64))

	req := newFakeFresh(http.MethodPost)
	req.stream.failAt = 80
	req.stream.writeErr = reset

	res, err := m.Send(req)
	assert.Nil(t, res)
	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	assert.ErrorIs(t, err, reset)
	assert.ErrorIs(t, req.stream.aborted, reset)
	assert.False(t, req.stream.sent)
	assert.NotContains(t, req.stream.buf.String(), "yyyy")
}

func TestSendFileReadErrorAborts(t *testing.T) {
	boom := errors.New("read failed")
	m := New()
	m.AddReader("f", "f.bin", "", failingReader{err: boom})

	req := newFakeFresh(http.MethodPost)
	_, err := m.Send(req)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, req.stream.aborted, boom)
	assert.False(t, req.stream.sent)
}

func TestSendResponseError(t *testing.T) {
	m := New()
	req := newFakeFresh(http.MethodPost)
	req.stream.sendErr = errors.New("unexpected EOF")

	_, err := m.Send(req)
	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, "multipart: send failed: unexpected EOF", err.Error())
	assert.Equal(t, "--"+m.Boundary()+"\r\n", req.stream.buf.String())
}
