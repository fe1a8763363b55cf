// Package multipart streams multipart/form-data request bodies.
//
// A Multipart collects text and file fields in order and writes them part by
// part onto a started request, without holding file contents in memory.
package multipart

import (
	"io"
	"slices"

	"github.com/dpe27/esk-upload/pkg/nethttp"
)

type (
	// FieldValue is either a TextValue or a FileValue.
	FieldValue interface {
		isFieldValue()
	}

	TextValue string

	// FileValue borrows Reader for the duration of Send. Closing the
	// underlying resource stays with the caller.
	FileValue struct {
		Filename    string // empty when no filename could be derived
		ContentType string
		Reader      io.Reader
	}

	Field struct {
		Name  string
		Value FieldValue
	}

	// NamedReader is a readable source with a path, such as *os.File.
	NamedReader interface {
		io.Reader
		Name() string
	}

	Option func(*Multipart)

	// Multipart is single use: after Send it must be discarded.
	Multipart struct {
		fields      []Field
		boundary    string
		guessMIME   MIMEGuesser
		strictFrame bool
	}
)

func (TextValue) isFieldValue() {}
func (FileValue) isFieldValue() {}

// WithMIMEGuesser replaces GuessMIMEType for AddFile.
func WithMIMEGuesser(g MIMEGuesser) Option {
	return func(m *Multipart) {
		m.guessMIME = g
	}
}

// WithStandardFraming makes the body RFC 2046 conformant: file content is
// followed by CRLF and the closing delimiter ends with "--". Without it the
// closing delimiter is written like every other delimiter.
func WithStandardFraming() Option {
	return func(m *Multipart) {
		m.strictFrame = true
	}
}

func New(opts ...Option) *Multipart {
	return newMultipart(randomBoundary(), opts)
}

func NewWithBoundary(boundary string, opts ...Option) (*Multipart, error) {
	if err := validateBoundary(boundary); err != nil {
		return nil, err
	}
	return newMultipart(boundary, opts), nil
}

func newMultipart(boundary string, opts []Option) *Multipart {
	m := &Multipart{
		boundary:  boundary,
		guessMIME: GuessMIMEType,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Multipart) AddText(name, value string) {
	m.fields = append(m.fields, Field{Name: name, Value: TextValue(value)})
}

// AddFile adds f as a file field. The filename comes from the last element of
// f.Name() and the content type is guessed from its extension. Nothing is
// read from f until Send.
func (m *Multipart) AddFile(name string, f NamedReader) {
	m.AddReader(name, filenameOf(f.Name()), m.guessMIME(f.Name()), f)
}

// AddReader adds a file field with explicit metadata. An empty contentType
// becomes application/octet-stream.
func (m *Multipart) AddReader(name, filename, contentType string, r io.Reader) {
	if contentType == "" {
		contentType = nethttp.MIMEApplicationOctetStream
	}
	m.fields = append(m.fields, Field{
		Name: name,
		Value: FileValue{
			Filename:    filename,
			ContentType: contentType,
			Reader:      r,
		},
	})
}

// Fields returns a copy of the collected fields in insertion order.
func (m *Multipart) Fields() []Field {
	return slices.Clone(m.fields)
}

func (m *Multipart) Boundary() string {
	return m.boundary
}

// ContentType returns the value Send puts in the Content-Type header.
func (m *Multipart) ContentType() string {
	return formDataContentType(m.boundary)
}
