package multipart

import (
	"fmt"
	"io"

	"github.com/dpe27/esk-upload/pkg/nethttp"
)

var crlf = []byte("\r\n")

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteTo writes the encoded body to w and stops at the first error.
func (m *Multipart) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	err := m.writeBody(cw)
	return cw.n, err
}

func (m *Multipart) writeBody(w io.Writer) error {
	for _, f := range m.fields {
		if err := writeBoundary(w, m.boundary); err != nil {
			return err
		}
		if err := m.writePart(w, f); err != nil {
			return err
		}
	}

	if m.strictFrame {
		return writeLine(w, "--"+m.boundary+"--")
	}
	return writeBoundary(w, m.boundary)
}

func (m *Multipart) writePart(w io.Writer, f Field) error {
	disposition := fmt.Sprintf(`%s: %s; name="%s"`,
		nethttp.HeaderContentDisposition, nethttp.DispositionFormData, f.Name)
	if _, err := io.WriteString(w, disposition); err != nil {
		return err
	}

	switch v := f.Value.(type) {
	case TextValue:
		return writeText(w, string(v))
	case FileValue:
		return m.writeFile(w, v)
	default:
		return fmt.Errorf("multipart: unsupported value %T for field %q", v, f.Name)
	}
}

func writeText(w io.Writer, text string) error {
	// ends the disposition line, then the empty line before content
	if err := writeLine(w, ""); err != nil {
		return err
	}
	if err := writeLine(w, ""); err != nil {
		return err
	}
	return writeLine(w, text)
}

func (m *Multipart) writeFile(w io.Writer, file FileValue) error {
	var param string
	if file.Filename != "" {
		param = fmt.Sprintf(`; filename="%s"`, file.Filename)
	}
	if err := writeLine(w, param); err != nil {
		return err
	}
	if err := writeLine(w, nethttp.HeaderContentType+": "+file.ContentType); err != nil {
		return err
	}
	if err := writeLine(w, ""); err != nil {
		return err
	}

	if _, err := io.Copy(w, file.Reader); err != nil {
		return err
	}
	if m.strictFrame {
		_, err := w.Write(crlf)
		return err
	}
	return nil
}

func writeBoundary(w io.Writer, boundary string) error {
	return writeLine(w, "--"+boundary)
}

// writeLine writes s terminated by CRLF. Bare LF is never used.
func writeLine(w io.Writer, s string) error {
	if _, err := io.WriteString(w, s); err != nil {
		return err
	}
	_, err := w.Write(crlf)
	return err
}
