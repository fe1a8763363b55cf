package multipart

import (
	"errors"
	"math/rand/v2"

	"github.com/dpe27/esk-upload/pkg/nethttp"
)

const (
	boundaryLen      = 8
	boundaryAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	maxBoundaryLen   = 70
)

var (
	ErrBoundaryLength = errors.New("multipart: invalid boundary length")
	ErrBoundaryChar   = errors.New("multipart: invalid boundary character")
)

// randomBoundary returns a lowercase alphanumeric token. It only has to be
// unlikely to show up inside field content, not unpredictable.
func randomBoundary() string {
	b := make([]byte, boundaryLen)
	for i := range b {
		b[i] = boundaryAlphabet[rand.IntN(len(boundaryAlphabet))]
	}
	return string(b)
}

// validateBoundary checks boundary against rfc2046#section-5.1.1.
func validateBoundary(boundary string) error {
	if len(boundary) < 1 || len(boundary) > maxBoundaryLen {
		return ErrBoundaryLength
	}
	for _, b := range boundary {
		if 'A' <= b && b <= 'Z' || 'a' <= b && b <= 'z' || '0' <= b && b <= '9' {
			continue
		}
		switch b {
		case '\'', '(', ')', '+', '_', ',', '-', '.', '/', ':', '=', '?':
			continue
		}
		return ErrBoundaryChar
	}
	return nil
}

// formDataContentType builds the outer Content-Type value. The token is
// inserted verbatim.
func formDataContentType(boundary string) string {
	return nethttp.MIMEMultipartFormData + "; boundary=" + boundary
}
