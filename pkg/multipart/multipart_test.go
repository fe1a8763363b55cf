package multipart

import (
	"bytes"
	"errors"
	"io"
	"mime"
	stdmultipart "mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBoundary = "abcd1234"

type namedReader struct {
	io.Reader
	name string
}

func (n namedReader) Name() string {
	return n.name
}

func textPlain(string) string {
	return "text/plain"
}

func encode(t *testing.T, m *Multipart) string {
	t.Helper()
	var buf bytes.Buffer
	n, err := m.WriteTo(&buf)
	require.NoError(t, err)
	assert.EqualValues(t, buf.Len(), n)
	return buf.String()
}

func TestWriteToTextAndFile(t *testing.T) {
	m, err := NewWithBoundary(testBoundary, WithMIMEGuesser(textPlain))
	require.NoError(t, err)

	m.AddText("field1", "value1")
	m.AddFile("file1", namedReader{Reader: strings.NewReader("hello"), name: "/tmp/a.txt"})

	want := "--abcd1234\r\n" +
		"Content-Disposition: form-data; name=\"field1\"\r\n" +
		"\r\n" +
		"value1\r\n" +
		"--abcd1234\r\n" +
		"Content-Disposition: form-data; name=\"file1\"; filename=\"a.txt\"\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"hello--abcd1234\r\n"
	assert.Equal(t, want, encode(t, m))
}

func TestWriteToEmpty(t *testing.T) {
	m, err := NewWithBoundary(testBoundary)
	require.NoError(t, err)
	assert.Equal(t, "--abcd1234\r\n", encode(t, m))
}

func TestWriteToKeepsInsertionOrder(t *testing.T) {
	m, err := NewWithBoundary(testBoundary)
	require.NoError(t, err)

	names := []string{"z", "a", "m", "a"}
	for i, name := range names {
		m.AddText(name, strings.Repeat("x", i))
	}
	body := encode(t, m)

	assert.Equal(t, len(names)+1, strings.Count(body, "--"+testBoundary+"\r\n"))
	assert.NotContains(t, body, "Content-Type")

	last := -1
	for i, name := range names {
		part := `name="` + name + `"` + "\r\n\r\n" + strings.Repeat("x", i) + "\r\n"
		idx := strings.Index(body[last+1:], part)
		require.GreaterOrEqual(t, idx, 0, "part %d missing or out of order", i)
		last += idx + 1
	}
}

func TestFileWithoutFilename(t *testing.T) {
	m, err := NewWithBoundary(testBoundary)
	require.NoError(t, err)
	m.AddFile("blob", namedReader{Reader: strings.NewReader("\x00\x01"), name: ""})

	body := encode(t, m)
	assert.NotContains(t, body, "filename=")
	assert.Contains(t, body, "Content-Disposition: form-data; name=\"blob\"\r\nContent-Type: application/octet-stream\r\n\r\n\x00\x01--")
}

func TestAddReader(t *testing.T) {
	m, err := NewWithBoundary(testBoundary)
	require.NoError(t, err)
	m.AddReader("doc", "report.csv", "", strings.NewReader("a,b"))

	require.Len(t, m.Fields(), 1)
	v, ok := m.Fields()[0].Value.(FileValue)
	require.True(t, ok)
	assert.Equal(t, "report.csv", v.Filename)
	assert.Equal(t, "application/octet-stream", v.ContentType)
}

func TestAddFileFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pixel.png")
	require.NoError(t, os.WriteFile(path, []byte("PNG"), 0o600))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	m := New()
	m.AddFile("image", f)

	v, ok := m.Fields()[0].Value.(FileValue)
	require.True(t, ok)
	assert.Equal(t, "pixel.png", v.Filename)
	assert.Equal(t, "image/png", v.ContentType)
	assert.Contains(t, encode(t, m), "\r\n\r\nPNG--"+m.Boundary()+"\r\n")
}

func TestNewBoundary(t *testing.T) {
	m := New()
	require.Len(t, m.Boundary(), boundaryLen)
	for _, c := range m.Boundary() {
		assert.True(t, strings.ContainsRune(boundaryAlphabet, c), "unexpected %q", c)
	}
	assert.Equal(t, "multipart/form-data; boundary="+m.Boundary(), m.ContentType())
	assert.NoError(t, validateBoundary(m.Boundary()))
}

func TestNewWithBoundaryValidation(t *testing.T) {
	_, err := NewWithBoundary("")
	assert.ErrorIs(t, err, ErrBoundaryLength)
	_, err = NewWithBoundary(strings.Repeat("a", 71))
	assert.ErrorIs(t, err, ErrBoundaryLength)
	_, err = NewWithBoundary(strings.Repeat("a", 70))
	assert.NoError(t, err)
	_, err = NewWithBoundary("bad\"quote")
	assert.ErrorIs(t, err, ErrBoundaryChar)
	_, err = NewWithBoundary("good-'()+_,./:=?")
	assert.NoError(t, err)
}

func TestGuessMIMEType(t *testing.T) {
	assert.Equal(t, "image/png", GuessMIMEType("/srv/x/photo.png"))
	assert.Equal(t, "application/pdf", GuessMIMEType("doc.PDF"))
	assert.Equal(t, "text/html", GuessMIMEType("index.html"))
	assert.Equal(t, "application/octet-stream", GuessMIMEType("archive.zzqqx"))
	assert.Equal(t, "application/octet-stream", GuessMIMEType("Makefile"))
}

func TestFilenameOf(t *testing.T) {
	tests := map[string]string{
		"":              "",
		".":             "",
		"..":            "",
		"/":             "",
		"a.txt":         "a.txt",
		"/tmp/a.txt":    "a.txt",
		"dir/sub/b.bin": "b.bin",
	}
	for in, want := range tests {
		assert.Equal(t, want, filenameOf(in), "filenameOf(%q)", in)
	}
}

func TestStandardFramingParses(t *testing.T) {
	m, err := NewWithBoundary(testBoundary, WithStandardFraming(), WithMIMEGuesser(textPlain))
	require.NoError(t, err)
	m.AddText("field1", "value1")
	m.AddFile("file1", namedReader{Reader: strings.NewReader("hello"), name: "a.txt"})
	m.AddText("field2", "")

	body := encode(t, m)
	assert.True(t, strings.HasSuffix(body, "\r\n--"+testBoundary+"--\r\n"))

	_, params, err := mime.ParseMediaType(m.ContentType())
	require.NoError(t, err)
	r := stdmultipart.NewReader(strings.NewReader(body), params["boundary"])

	type got struct{ name, filename, contentType, body string }
	var parts []got
	for {
		p, err := r.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		b, err := io.ReadAll(p)
		require.NoError(t, err)
		parts = append(parts, got{p.FormName(), p.FileName(), p.Header.Get("Content-Type"), string(b)})
	}

	assert.Equal(t, []got{
		{"field1", "", "", "value1"},
		{"file1", "a.txt", "text/plain", "hello"},
		{"field2", "", "", ""},
	}, parts)
}

type failingReader struct {
	err error
}

func (f failingReader) Read([]byte) (int, error) {
	return 0, f.err
}

func TestWriteToStopsOnReadError(t *testing.T) {
	boom := errors.New("disk gone")
	m, err := NewWithBoundary(testBoundary)
	require.NoError(t, err)
	m.AddReader("f", "f.bin", "", failingReader{err: boom})
	m.AddText("after", "never")

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	assert.ErrorIs(t, err, boom)
	assert.NotContains(t, buf.String(), "after")
}

func TestWriteToEmptyFile(t *testing.T) {
	m, err := NewWithBoundary(testBoundary)
	require.NoError(t, err)
	m.AddReader("f", "e.bin", "", strings.NewReader(""))

	want := "--abcd1234\r\n" +
		"Content-Disposition: form-data; name=\"f\"; filename=\"e.bin\"\r\n" +
		"Content-Type: application/octet-stream\r\n" +
		"\r\n" +
		"--abcd1234\r\n"
	assert.Equal(t, want, encode(t, m))
}

func TestWriteToQuotesVerbatim(t *testing.T) {
	m, err := NewWithBoundary(testBoundary)
	require.NoError(t, err)
	m.AddText(`say "hi"`, "v")
	m.AddReader("doc", `my "best".txt`, "text/plain", strings.NewReader("x"))

	body := encode(t, m)
	assert.Contains(t, body, `Content-Disposition: form-data; name="say "hi""`+"\r\n")
	assert.Contains(t, body, `name="doc"; filename="my "best".txt"`+"\r\n")
	assert.NotContains(t, body, `\"`)
}

func TestFieldsReturnsCopy(t *testing.T) {
	m, err := NewWithBoundary(testBoundary)
	require.NoError(t, err)
	m.AddText("a", "1")

	fields := m.Fields()
	fields[0] = Field{Name: "hijacked"}
	_ = append(fields, Field{Name: "extra", Value: TextValue("2")})

	require.Len(t, m.Fields(), 1)
	assert.Equal(t, Field{Name: "a", Value: TextValue("1")}, m.Fields()[0])
	assert.NotContains(t, encode(t, m), "hijacked")
}
