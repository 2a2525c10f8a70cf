package vmsys

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/sixtyfive/il65/vmprog"
)

func TestMemoryByteReadWrite(t *testing.T) {
	m := NewMemory()
	if err := m.SetByte(100, 42); err != nil {
		t.Fatal(err)
	}
	if got := m.GetByte(100); got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}

func TestMemoryReadOnlyRejectsWrite(t *testing.T) {
	m := NewMemory()
	m.MarkReadOnly(0, 10)
	if err := m.SetByte(5, 1); err == nil {
		t.Fatal("expected a ReadOnlyWriteError")
	} else if _, ok := err.(*ReadOnlyWriteError); !ok {
		t.Fatalf("expected *ReadOnlyWriteError, got %T", err)
	}
}

func TestMemoryWordIsLSBFirst(t *testing.T) {
	m := NewMemory()
	if err := m.SetWord(200, 0x1234); err != nil {
		t.Fatal(err)
	}
	if m.GetByte(200) != 0x34 || m.GetByte(201) != 0x12 {
		t.Fatalf("expected LSB-first encoding, got %02x %02x", m.GetByte(200), m.GetByte(201))
	}
	if got := m.GetWord(200); got != 0x1234 {
		t.Fatalf("got %04x, want 1234", got)
	}
}

func TestMemoryMappedCharOut(t *testing.T) {
	m := NewMemory()
	var got byte
	m.MemMappedCharOut(DefaultCharOutAddress, func(b byte) { got = b })
	if err := m.SetByte(DefaultCharOutAddress, 'A'); err != nil {
		t.Fatal(err)
	}
	if got != 'A' {
		t.Fatalf("callback not invoked, got %v", got)
	}
}

func TestMemoryMappedCharIn(t *testing.T) {
	m := NewMemory()
	m.MemMappedCharIn(DefaultCharInAddress, func() byte { return 'z' })
	if got := m.GetByte(DefaultCharInAddress); got != 'z' {
		t.Fatalf("got %v, want z", got)
	}
}

func TestMFLPTRoundTrip(t *testing.T) {
	for _, f := range []float64{0, 1, -1, 3.14159, -123.456, 65535, 0.0001, -0.0001} {
		b := FloatToMFLPT(f)
		got := MFLPTToFloat(b)
		if math.Abs(got-f) > math.Abs(f)*1e-5+1e-7 {
			t.Errorf("FloatToMFLPT/MFLPTToFloat(%v) round-tripped to %v", f, got)
		}
	}
}

func TestMemoryFloatRoundTrip(t *testing.T) {
	m := NewMemory()
	if err := m.SetFloat(300, 99.5); err != nil {
		t.Fatal(err)
	}
	if got := m.GetFloat(300); math.Abs(got-99.5) > 1e-4 {
		t.Fatalf("got %v, want ~99.5", got)
	}
}

func TestLatin1CodecRoundTrip(t *testing.T) {
	c := NewLatin1Codec()
	in := []byte{65, 66, 67, 32, 33}
	text := c.Decode(in)
	out := c.Encode(text)
	if !bytes.Equal(in, out) {
		t.Fatalf("round trip mismatch: %v != %v", in, out)
	}
}

func TestCodecEncodeUnmappableRune(t *testing.T) {
	c := NewLatin1Codec()
	out := c.Encode(string(rune(0x4e2d))) // a CJK character, not in Latin-1
	if len(out) != 1 || out[0] != '?' {
		t.Fatalf("expected a single '?' byte, got %v", out)
	}
}

func TestSyscallPrintstr(t *testing.T) {
	var buf bytes.Buffer
	sys := NewSystem(NewMemory(), NewLatin1Codec(), &buf, strings.NewReader(""))
	stack := vmprog.NewStack()
	if err := stack.Push(vmprog.NewByteArray([]byte("hi"))); err != nil {
		t.Fatal(err)
	}
	unknown, err := sys.Invoke("printstr", stack)
	if unknown || err != nil {
		t.Fatalf("unknown=%v err=%v", unknown, err)
	}
	if buf.String() != "hi" {
		t.Fatalf("got %q, want hi", buf.String())
	}
}

func TestSyscallInputPushesByteArray(t *testing.T) {
	var buf bytes.Buffer
	sys := NewSystem(NewMemory(), NewLatin1Codec(), &buf, strings.NewReader("hello\n"))
	stack := vmprog.NewStack()
	if _, err := sys.Invoke("input", stack); err != nil {
		t.Fatal(err)
	}
	item, err := stack.Pop()
	if err != nil {
		t.Fatal(err)
	}
	v := item.(vmprog.Value)
	if string(v.Bytes) != "hello" {
		t.Fatalf("got %q, want hello", string(v.Bytes))
	}
}

func TestSyscallMemwriteByteThenMemreadByte(t *testing.T) {
	mem := NewMemory()
	sys := NewSystem(mem, NewLatin1Codec(), &bytes.Buffer{}, strings.NewReader(""))
	stack := vmprog.NewStack()
	// memwrite_byte pops (value, address): address pushed first, value on top.
	if err := stack.Push(vmprog.NewWord(500)); err != nil {
		t.Fatal(err)
	}
	if err := stack.Push(vmprog.NewByte(77)); err != nil {
		t.Fatal(err)
	}
	if _, err := sys.Invoke("memwrite_byte", stack); err != nil {
		t.Fatal(err)
	}
	if mem.GetByte(500) != 77 {
		t.Fatalf("got %d, want 77", mem.GetByte(500))
	}

	if err := stack.Push(vmprog.NewWord(500)); err != nil {
		t.Fatal(err)
	}
	if _, err := sys.Invoke("memread_byte", stack); err != nil {
		t.Fatal(err)
	}
	item, err := stack.Pop()
	if err != nil {
		t.Fatal(err)
	}
	if item.(vmprog.Value).I != 77 {
		t.Fatalf("got %v, want 77", item)
	}
}

func TestSyscallUnknownSelector(t *testing.T) {
	sys := NewSystem(NewMemory(), NewLatin1Codec(), &bytes.Buffer{}, strings.NewReader(""))
	unknown, err := sys.Invoke("frobnicate", vmprog.NewStack())
	if !unknown || err != nil {
		t.Fatalf("unknown=%v err=%v, want unknown=true err=nil", unknown, err)
	}
}

func TestSyscallHexStrSigned(t *testing.T) {
	sys := NewSystem(NewMemory(), NewLatin1Codec(), &bytes.Buffer{}, strings.NewReader(""))
	stack := vmprog.NewStack()
	if err := stack.Push(vmprog.NewSWord(-255)); err != nil {
		t.Fatal(err)
	}
	if _, err := sys.Invoke("hexstr_signed", stack); err != nil {
		t.Fatal(err)
	}
	item, _ := stack.Pop()
	if got := string(item.(vmprog.Value).Bytes); got != "-$ff" {
		t.Fatalf("got %q, want -$ff", got)
	}
}

func TestScreenRenderDrawsGridFromMemory(t *testing.T) {
	mem := NewMemory()
	mem.SetBytes(0x8000, []byte("hi"))
	s := NewScreen(mem, 0x8000, 2, 1, NewLatin1Codec())
	var buf bytes.Buffer
	if err := s.Render(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "hi") {
		t.Fatalf("rendered output missing grid content: %q", buf.String())
	}
}

func TestScreenKeyPressMapsArrowToWASD(t *testing.T) {
	s := NewScreen(NewMemory(), 0, 1, 1, NewLatin1Codec())
	s.KeyPress(0x41) // up arrow
	if got := s.CurrentKey(); got != 'w' {
		t.Fatalf("got %q, want w", got)
	}
	s.KeyRelease()
	if got := s.CurrentKey(); got != 0 {
		t.Fatalf("got %q, want 0 after release", got)
	}
}
