package multipart

import (
	"mime"
	"path/filepath"

	"github.com/dpe27/esk-upload/pkg/nethttp"
)

// MIMEGuesser maps a file path to a content type.
type MIMEGuesser func(path string) string

// GuessMIMEType looks the extension of path up in the system MIME table.
// Parameters such as charset are dropped. Unknown extensions map to
// application/octet-stream.
func GuessMIMEType(path string) string {
	typ := mime.TypeByExtension(filepath.Ext(path))
	if typ == "" {
		return nethttp.MIMEApplicationOctetStream
	}
	mediaType, _, err := mime.ParseMediaType(typ)
	if err != nil {
		return typ
	}
	return mediaType
}

// filenameOf returns the last element of path, or "" when there is none.
func filenameOf(path string) string {
	if path == "" {
		return ""
	}
	name := filepath.Base(path)
	switch name {
	case ".", "..", string(filepath.Separator):
		return ""
	}
	return name
}
