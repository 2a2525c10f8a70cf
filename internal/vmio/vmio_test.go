package vmio

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("boom") }

func TestErrWriterLatchesFirstError(t *testing.T) {
	w := NewErrWriter(failingWriter{})
	_, err1 := w.Write([]byte("a"))
	_, err2 := w.Write([]byte("b"))
	if err1 == nil || err2 == nil {
		t.Fatal("expected both writes to fail")
	}
	if err1.Error() != err2.Error() {
		t.Errorf("expected the latched error to be returned on the second write too")
	}
}

func TestErrWriterPassesThroughOnSuccess(t *testing.T) {
	var buf bytes.Buffer
	w := NewErrWriter(&buf)
	if _, err := w.Write([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "hello" {
		t.Errorf("got %q, want hello", buf.String())
	}
}

func TestLineReaderStripsNewline(t *testing.T) {
	lr := NewLineReader(strings.NewReader("hello\r\nworld\n"))
	line, err := lr.ReadLine()
	if err != nil {
		t.Fatal(err)
	}
	if line != "hello" {
		t.Errorf("got %q, want hello", line)
	}
	line2, err := lr.ReadLine()
	if err != nil {
		t.Fatal(err)
	}
	if line2 != "world" {
		t.Errorf("got %q, want world", line2)
	}
}
