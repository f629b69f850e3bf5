package core

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"golang.org/x/text/encoding/unicode"
)

func readAll(t *testing.T, r io.Reader) string {
	t.Helper()
	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(b)
}

func TestWrapForImport(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"plain", []byte("name,stock\nWidget,3\n"), "name,stock\nWidget,3\n"},
		{"utf8 bom stripped", append([]byte{0xEF, 0xBB, 0xBF}, "name\nA\n"...), "name\nA\n"},
		{"bom only", []byte{0xEF, 0xBB, 0xBF}, ""},
		{"empty", nil, ""},
		{"multibyte kept", []byte("name\nCafé ☕\n"), "name\nCafé ☕\n"},
		{"invalid byte replaced", []byte("name\nBad\xffName\n"), "name\nBad�Name\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := readAll(t, WrapForImport(bytes.NewReader(tt.input)))
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapForImport_UTF16WithBOM(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	encoded, err := enc.String("name,brand\nWidget,Acme\n")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got := readAll(t, WrapForImport(strings.NewReader(encoded)))
	if got != "name,brand\nWidget,Acme\n" {
		t.Errorf("got %q", got)
	}
}

func TestCountingWriter(t *testing.T) {
	var buf bytes.Buffer
	cw := &countingWriter{w: &buf}
	io.WriteString(cw, "hello ")
	io.WriteString(cw, "world")

	if cw.n != 11 {
		t.Errorf("n = %d, want 11", cw.n)
	}
	if buf.String() != "hello world" {
		t.Errorf("buf = %q", buf.String())
	}
}
