package vmsys

// StringCodec implements the VM's "configurable 8-bit encoding" string
// decode/encode (§4.6). Each byte value 0-255 maps to exactly one rune;
// DefaultCodec is Latin-1 (byte value == code point), which covers every
// character the VM's fixed-width character screen can render without
// pulling in a charmap library no example repo in this toolchain's corpus
// actually depends on.
type StringCodec struct {
	toRune [256]rune
	toByte map[rune]byte
}

// NewLatin1Codec returns the default 8-bit encoding: byte value N decodes
// to rune N.
func NewLatin1Codec() *StringCodec {
	c := &StringCodec{toByte: make(map[rune]byte, 256)}
	for i := 0; i < 256; i++ {
		c.toRune[i] = rune(i)
		c.toByte[rune(i)] = byte(i)
	}
	return c
}

// NewCodec builds a codec from an explicit 256-entry byte-to-rune table,
// for callers that need a different 8-bit character set than Latin-1.
func NewCodec(table [256]rune) *StringCodec {
	c := &StringCodec{toRune: table, toByte: make(map[rune]byte, 256)}
	for b, r := range table {
		c.toByte[r] = byte(b)
	}
	return c
}

// Decode converts a byte string to text.
func (c *StringCodec) Decode(b []byte) string {
	runes := make([]rune, len(b))
	for i, bb := range b {
		runes[i] = c.toRune[bb]
	}
	return string(runes)
}

// Encode converts text to a byte string; runes outside the codec's table
// are replaced with '?' (0x3f).
func (c *StringCodec) Encode(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if b, ok := c.toByte[r]; ok {
			out = append(out, b)
		} else {
			out = append(out, '?')
		}
	}
	return out
}
