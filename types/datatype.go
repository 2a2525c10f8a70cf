package types

// DataType enumerates the value types the VM and the AST's constant folder
// can operate on.
type DataType int

const (
	UNDEFINED DataType = iota
	BOOL
	BYTE
	SBYTE
	WORD
	SWORD
	FLOAT
	ARRAY_BYTE
	ARRAY_SBYTE
	ARRAY_WORD
	ARRAY_SWORD
	MATRIX_BYTE
	MATRIX_SBYTE
)

var dataTypeNames = [...]string{
	"undefined",
	"bool",
	"byte",
	"sbyte",
	"word",
	"sword",
	"float",
	"array_byte",
	"array_sbyte",
	"array_word",
	"array_sword",
	"matrix_byte",
	"matrix_sbyte",
}

func (d DataType) String() string {
	if d < 0 || int(d) >= len(dataTypeNames) {
		return "invalid"
	}
	return dataTypeNames[d]
}

// IsArray reports whether d is one of the one-dimensional array types.
func (d DataType) IsArray() bool {
	switch d {
	case ARRAY_BYTE, ARRAY_SBYTE, ARRAY_WORD, ARRAY_SWORD:
		return true
	}
	return false
}

// IsMatrix reports whether d is one of the two-dimensional matrix types.
func (d DataType) IsMatrix() bool {
	return d == MATRIX_BYTE || d == MATRIX_SBYTE
}

// IsNumeric reports whether d is a scalar numeric type (the only kind
// allowed as a Dereference datatype, per the parser's grammar rule).
func (d DataType) IsNumeric() bool {
	switch d {
	case BYTE, SBYTE, WORD, SWORD, FLOAT:
		return true
	}
	return false
}

// IsSigned reports whether d is a signed scalar integer type.
func (d DataType) IsSigned() bool {
	return d == SBYTE || d == SWORD
}

// ElementSize returns the size in bytes of a single element of d, used by
// Dereference and by vmsys's memory accessors. Array/matrix types report
// the size of their element, not their total extent.
func (d DataType) ElementSize() int {
	switch d {
	case BOOL, BYTE, SBYTE, ARRAY_BYTE, ARRAY_SBYTE, MATRIX_BYTE, MATRIX_SBYTE:
		return 1
	case WORD, SWORD, ARRAY_WORD, ARRAY_SWORD:
		return 2
	case FLOAT:
		return 5 // MFLPT
	default:
		return 0
	}
}

// Range bounds for numeric coercion (§4.3).
const (
	ByteMin  = 0
	ByteMax  = 255
	SByteMin = -128
	SByteMax = 127
	WordMin  = 0
	WordMax  = 65535
	SWordMin = -32768
	SWordMax = 32767

	// FloatMin/FloatMax bound the platform's 5-byte MFLPT representable
	// magnitude, mirroring the constants the original VM coerces against.
	FloatMax = 1.7014118345e+38
	FloatMin = -FloatMax
)

// VarKind distinguishes VarDef's three flavors (§3.1).
type VarKind int

const (
	VarKindVar VarKind = iota
	VarKindConst
	VarKindMemory
)

func (k VarKind) String() string {
	switch k {
	case VarKindVar:
		return "var"
	case VarKindConst:
		return "const"
	case VarKindMemory:
		return "memory"
	}
	return "invalid"
}

// ScopeLevel distinguishes the three nesting levels a Scope can occupy.
type ScopeLevel int

const (
	ScopeModule ScopeLevel = iota
	ScopeBlock
	ScopeSub
)

func (l ScopeLevel) String() string {
	switch l {
	case ScopeModule:
		return "module"
	case ScopeBlock:
		return "block"
	case ScopeSub:
		return "sub"
	}
	return "invalid"
}

// RegisterWidth tells whether a register name refers to a single byte or a
// register pair.
type RegisterWidth int

const (
	RegByte RegisterWidth = iota
	RegWord
)

// byteRegisters and wordRegisters are the fixed register alphabet (§6):
// single-byte registers (including status bits and the scancode pseudo
// register SC) and word-pair registers.
var byteRegisters = map[string]bool{
	"A": true, "X": true, "Y": true,
	"SC": true,
	"N": true, "Z": true, "C": true, "V": true, // status bits
}

var wordRegisters = map[string]bool{
	"AX": true, "AY": true, "XY": true,
}

// RegisterInfo reports whether name is a known register and, if so, its
// width. Byte and word registers are distinguished sets: this determines a
// Register node's effective data type (BYTE vs WORD).
func RegisterInfo(name string) (width RegisterWidth, ok bool) {
	if byteRegisters[name] {
		return RegByte, true
	}
	if wordRegisters[name] {
		return RegWord, true
	}
	return 0, false
}

// RegisterDataType returns the DataType a Register node of the given name
// carries, or UNDEFINED if name is not a known register.
func RegisterDataType(name string) DataType {
	width, ok := RegisterInfo(name)
	if !ok {
		return UNDEFINED
	}
	if width == RegWord {
		return WORD
	}
	return BYTE
}
