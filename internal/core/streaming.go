package core

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// WrapForImport decodes an uploaded text file as UTF-8. A leading byte order
// mark is stripped; a UTF-16 mark switches decoding to UTF-16, which is what
// spreadsheet "Unicode text" exports produce. Invalid UTF-8 becomes U+FFFD.
func WrapForImport(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// countingWriter tracks bytes written through it.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
