package vmprog

import "github.com/sixtyfive/il65/types"

// Value is the VM's runtime value union (§3.2): a tagged datatype plus
// whichever payload field applies. It is a plain value type -- pushing the
// same Value twice (DUP) just copies the struct, matching the original's
// reference-to-immutable-object behavior closely enough since every
// mutating operation (arithmetic, POP) produces or installs a fresh Value
// rather than mutating one in place.
type Value struct {
	Type  types.DataType
	I     int64   // BOOL (0/1), BYTE, SBYTE, WORD, SWORD
	F     float64 // FLOAT
	Bytes []byte  // ARRAY_BYTE, ARRAY_SBYTE, MATRIX_BYTE/MATRIX_SBYTE (row-major)
	Width int     // row width, meaningful only for MATRIX_* values
}

func NewBool(b bool) Value {
	if b {
		return Value{Type: types.BOOL, I: 1}
	}
	return Value{Type: types.BOOL, I: 0}
}

func NewByte(v uint8) Value   { return Value{Type: types.BYTE, I: int64(v)} }
func NewSByte(v int8) Value   { return Value{Type: types.SBYTE, I: int64(v)} }
func NewWord(v uint16) Value  { return Value{Type: types.WORD, I: int64(v)} }
func NewSWord(v int16) Value  { return Value{Type: types.SWORD, I: int64(v)} }
func NewFloat(v float64) Value { return Value{Type: types.FLOAT, F: v} }

func NewByteArray(b []byte) Value  { return Value{Type: types.ARRAY_BYTE, Bytes: b} }
func NewSByteArray(b []byte) Value { return Value{Type: types.ARRAY_SBYTE, Bytes: b} }

func NewByteMatrix(rows []byte, width int) Value {
	return Value{Type: types.MATRIX_BYTE, Bytes: rows, Width: width}
}
func NewSByteMatrix(rows []byte, width int) Value {
	return Value{Type: types.MATRIX_SBYTE, Bytes: rows, Width: width}
}

// Truthy mirrors the original's use of Python truthiness for TEST/NOT/AND/
// OR/XOR: zero numbers and empty byte arrays are false.
func (v Value) Truthy() bool {
	switch {
	case v.Type == types.FLOAT:
		return v.F != 0
	case v.Type.IsArray() || v.Type.IsMatrix():
		return len(v.Bytes) != 0
	default:
		return v.I != 0
	}
}

func (v Value) String() string {
	return "<Value " + v.Type.String() + ">"
}
