package lexer

import "github.com/sixtyfive/il65/srcref"

// TokenType enumerates the token kinds the lexer can produce (§6).
type TokenType int

const (
	EOF TokenType = iota
	ENDL
	DIRECTIVE
	NAME
	DOTTEDNAME
	LABEL
	INTEGER
	FLOATINGPOINT
	STRING
	CHARACTER
	BOOLEAN
	REGISTER
	CLOBBEREDREGISTER
	VARTYPE
	DATATYPE
	SUB
	RARROW
	IS
	INCR
	DECR
	AUGASSIGN
	GOTO
	RETURN
	IF
	INLINEASM
	PRESERVEREGS
	BITINVERT
	BITAND
	BITOR
	BITXOR
	LOGICAND
	LOGICOR
	LOGICNOT
	SHIFTLEFT
	SHIFTRIGHT
	LT
	GT
	LE
	GE
	EQUALS
	NOTEQUALS
	MODULO
	INTEGERDIVIDE
	POWER
	COMMENT
	PUNCT // any single-character punctuation not covered above
)

var tokenNames = map[TokenType]string{
	EOF: "EOF", ENDL: "ENDL", DIRECTIVE: "DIRECTIVE", NAME: "NAME",
	DOTTEDNAME: "DOTTEDNAME", LABEL: "LABEL", INTEGER: "INTEGER",
	FLOATINGPOINT: "FLOATINGPOINT", STRING: "STRING", CHARACTER: "CHARACTER",
	BOOLEAN: "BOOLEAN", REGISTER: "REGISTER", CLOBBEREDREGISTER: "CLOBBEREDREGISTER",
	VARTYPE: "VARTYPE", DATATYPE: "DATATYPE", SUB: "SUB", RARROW: "RARROW",
	IS: "IS", INCR: "INCR", DECR: "DECR", AUGASSIGN: "AUGASSIGN", GOTO: "GOTO",
	RETURN: "RETURN", IF: "IF", INLINEASM: "INLINEASM", PRESERVEREGS: "PRESERVEREGS",
	BITINVERT: "BITINVERT", BITAND: "BITAND", BITOR: "BITOR", BITXOR: "BITXOR",
	LOGICAND: "LOGICAND", LOGICOR: "LOGICOR", LOGICNOT: "LOGICNOT",
	SHIFTLEFT: "SHIFTLEFT", SHIFTRIGHT: "SHIFTRIGHT", LT: "LT", GT: "GT",
	LE: "LE", GE: "GE", EQUALS: "EQUALS", NOTEQUALS: "NOTEQUALS", MODULO: "MODULO",
	INTEGERDIVIDE: "INTEGERDIVIDE", POWER: "POWER", COMMENT: "COMMENT", PUNCT: "PUNCT",
}

func (t TokenType) String() string {
	if n, ok := tokenNames[t]; ok {
		return n
	}
	return "UNKNOWN"
}

// Token is one lexical unit: its type, raw text, decoded value (for
// literals), and source reference.
type Token struct {
	Type   TokenType
	Text   string
	Value  interface{} // int64, float64, bool or string for literal tokens
	Ref    srcref.SourceRef
	Offset int // absolute byte offset in the source, per §6
}
