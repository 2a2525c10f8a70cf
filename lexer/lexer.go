package lexer

import (
	"strconv"
	"strings"
	"text/scanner"

	"github.com/pkg/errors"

	"github.com/sixtyfive/il65/srcref"
)

var vartypes = map[string]bool{"const": true, "var": true, "memory": true}

var datatypes = map[string]bool{
	"byte": true, "sbyte": true, "word": true, "sword": true, "float": true,
	"bool": true, "byte_array": true, "sbyte_array": true, "word_array": true,
	"sword_array": true, "matrix": true, "matrix_sbyte": true,
}

var registerNames = map[string]bool{
	"A": true, "X": true, "Y": true, "AX": true, "AY": true, "XY": true,
	"SC": true, "N": true, "Z": true, "C": true, "V": true,
}

var keywordTypes = map[string]TokenType{
	"sub": SUB, "return": RETURN, "goto": GOTO, "if": IF, "mod": MODULO,
	"true": BOOLEAN, "false": BOOLEAN, "asm": INLINEASM,
}

// Lexer tokenizes il65 source text, coalescing consecutive end-of-line
// tokens into a single ENDL (§4.2: "Newlines are significant as statement
// terminators; the lexer layer coalesces consecutive end-of-line tokens
// into a single terminator").
type Lexer struct {
	s        scanner.Scanner
	filename string
	pending  []Token
	lastWasEndl bool
	started  bool
}

func isIdentRune(ch rune, i int) bool {
	return ch == '_' || (i == 0 && (ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z')) ||
		(i > 0 && (ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9' || ch == '.'))
}

// New creates a Lexer reading from src, using filename in source
// references and error messages.
func New(filename string, src []byte) *Lexer {
	l := &Lexer{filename: filename}
	l.s.Init(strings.NewReader(string(src)))
	l.s.Filename = filename
	l.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanChars | scanner.ScanStrings
	l.s.IsIdentRune = isIdentRune
	l.s.Whitespace = 1<<'\t' | 1<<'\r' | 1<<' ' // newline is NOT whitespace: it's ENDL
	return l
}

func (l *Lexer) ref() srcref.SourceRef {
	p := l.s.Position
	if !p.IsValid() {
		p = l.s.Pos()
	}
	return srcref.SourceRef{File: l.filename, Line: p.Line, Column: p.Column}
}

// Next returns the next coalesced token. At end of input it returns a token
// of type EOF repeatedly.
func (l *Lexer) Next() (Token, error) {
	for {
		tok, err := l.rawNext()
		if err != nil {
			return Token{}, err
		}
		if tok.Type == COMMENT {
			continue
		}
		if tok.Type == ENDL {
			if l.lastWasEndl {
				continue // coalesce consecutive ENDLs
			}
			l.lastWasEndl = true
			return tok, nil
		}
		l.lastWasEndl = false
		return tok, nil
	}
}

func (l *Lexer) rawNext() (t Token, err error) {
	tok := l.s.Scan()
	off := l.s.Position.Offset
	defer func() { t.Offset = off }()
	ref := l.ref()
	text := l.s.TokenText()
	switch tok {
	case scanner.EOF:
		return Token{Type: EOF, Ref: ref}, nil
	case '\n':
		return Token{Type: ENDL, Text: "\n", Ref: ref}, nil
	case scanner.Int:
		n, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return Token{}, errors.Wrapf(err, "%s: invalid integer literal %q", ref, text)
		}
		return Token{Type: INTEGER, Text: text, Value: n, Ref: ref}, nil
	case scanner.Float:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Token{}, errors.Wrapf(err, "%s: invalid float literal %q", ref, text)
		}
		return Token{Type: FLOATINGPOINT, Text: text, Value: f, Ref: ref}, nil
	case scanner.String:
		s, err := strconv.Unquote(text)
		if err != nil {
			return Token{}, errors.Wrapf(err, "%s: invalid string literal %q", ref, text)
		}
		return Token{Type: STRING, Text: text, Value: s, Ref: ref}, nil
	case scanner.Char:
		r, _, _, err := strconv.UnquoteChar(text[1:len(text)-1], '\'')
		if err != nil {
			return Token{}, errors.Wrapf(err, "%s: invalid character literal %q", ref, text)
		}
		// "A character literal is converted to its byte value during
		// parsing" (§4.2) -- the lexer already hands over the byte value
		// so the parser only has to build a LiteralValue from it.
		return Token{Type: CHARACTER, Text: text, Value: int64(byte(r)), Ref: ref}, nil
	case scanner.Ident:
		return l.identToken(text, ref), nil
	case ';':
		// line comment: ';' to end of line
		var b strings.Builder
		for {
			r := l.s.Peek()
			if r == '\n' || r == scanner.EOF {
				break
			}
			b.WriteRune(l.s.Next())
		}
		return Token{Type: COMMENT, Text: b.String(), Ref: ref}, nil
	case '.':
		return Token{Type: PUNCT, Text: ".", Ref: ref}, nil
	case '%':
		// A '%' immediately followed by a letter introduces a module-level
		// directive (e.g. "%output prg"); otherwise it's the modulo operator
		// (the "mod" keyword is the more commonly used spelling).
		if r := l.s.Peek(); r >= 'a' && r <= 'z' {
			var b strings.Builder
			for {
				r := l.s.Peek()
				if !(r >= 'a' && r <= 'z' || r == '_') {
					break
				}
				b.WriteRune(l.s.Next())
			}
			return Token{Type: DIRECTIVE, Text: b.String(), Ref: ref}, nil
		}
		if l.s.Peek() == '=' {
			l.s.Next()
			return Token{Type: AUGASSIGN, Text: "%=", Ref: ref}, nil
		}
		return Token{Type: MODULO, Text: "%", Ref: ref}, nil
	case '@':
		// A '@' immediately followed by register letters introduces a
		// preserve-registers clause ahead of a subroutine call, e.g.
		// "@AXY counter()"; its token text is the captured register letters.
		if r := l.s.Peek(); r >= 'A' && r <= 'Z' {
			var b strings.Builder
			for {
				r := l.s.Peek()
				if !(r >= 'A' && r <= 'Z') {
					break
				}
				b.WriteRune(l.s.Next())
			}
			return Token{Type: PRESERVEREGS, Text: b.String(), Ref: ref}, nil
		}
		return Token{Type: PUNCT, Text: "@", Ref: ref}, nil
	case '&':
		switch l.s.Peek() {
		case '&':
			l.s.Next()
			return Token{Type: LOGICAND, Text: "&&", Ref: ref}, nil
		case '=':
			l.s.Next()
			return Token{Type: AUGASSIGN, Text: "&=", Ref: ref}, nil
		}
		return Token{Type: BITAND, Text: "&", Ref: ref}, nil
	case '|':
		switch l.s.Peek() {
		case '|':
			l.s.Next()
			return Token{Type: LOGICOR, Text: "||", Ref: ref}, nil
		case '=':
			l.s.Next()
			return Token{Type: AUGASSIGN, Text: "|=", Ref: ref}, nil
		}
		return Token{Type: BITOR, Text: "|", Ref: ref}, nil
	case '^':
		if l.s.Peek() == '=' {
			l.s.Next()
			return Token{Type: AUGASSIGN, Text: "^=", Ref: ref}, nil
		}
		return Token{Type: BITXOR, Text: "^", Ref: ref}, nil
	case '~':
		return Token{Type: BITINVERT, Text: "~", Ref: ref}, nil
	case '!':
		if l.s.Peek() == '=' {
			l.s.Next()
			return Token{Type: NOTEQUALS, Text: "!=", Ref: ref}, nil
		}
		return Token{Type: LOGICNOT, Text: "!", Ref: ref}, nil
	case '<':
		if l.s.Peek() == '<' {
			l.s.Next()
			if l.s.Peek() == '=' {
				l.s.Next()
				return Token{Type: AUGASSIGN, Text: "<<=", Ref: ref}, nil
			}
			return Token{Type: SHIFTLEFT, Text: "<<", Ref: ref}, nil
		}
		if l.s.Peek() == '=' {
			l.s.Next()
			return Token{Type: LE, Text: "<=", Ref: ref}, nil
		}
		return Token{Type: LT, Text: "<", Ref: ref}, nil
	case '>':
		if l.s.Peek() == '>' {
			l.s.Next()
			if l.s.Peek() == '=' {
				l.s.Next()
				return Token{Type: AUGASSIGN, Text: ">>=", Ref: ref}, nil
			}
			return Token{Type: SHIFTRIGHT, Text: ">>", Ref: ref}, nil
		}
		if l.s.Peek() == '=' {
			l.s.Next()
			return Token{Type: GE, Text: ">=", Ref: ref}, nil
		}
		return Token{Type: GT, Text: ">", Ref: ref}, nil
	case '=':
		switch l.s.Peek() {
		case '=':
			l.s.Next()
			return Token{Type: EQUALS, Text: "==", Ref: ref}, nil
		case '>':
			l.s.Next()
			return Token{Type: RARROW, Text: "=>", Ref: ref}, nil
		}
		return Token{Type: IS, Text: "=", Ref: ref}, nil
	case '/':
		switch l.s.Peek() {
		case '/':
			l.s.Next()
			return Token{Type: INTEGERDIVIDE, Text: "//", Ref: ref}, nil
		case '=':
			l.s.Next()
			return Token{Type: AUGASSIGN, Text: "/=", Ref: ref}, nil
		}
		return Token{Type: PUNCT, Text: "/", Ref: ref}, nil
	case '*':
		switch l.s.Peek() {
		case '*':
			l.s.Next()
			return Token{Type: POWER, Text: "**", Ref: ref}, nil
		case '=':
			l.s.Next()
			return Token{Type: AUGASSIGN, Text: "*=", Ref: ref}, nil
		}
		return Token{Type: PUNCT, Text: "*", Ref: ref}, nil
	case '+':
		if l.s.Peek() == '+' {
			l.s.Next()
			return Token{Type: INCR, Text: "++", Ref: ref}, nil
		}
		if l.s.Peek() == '=' {
			l.s.Next()
			return Token{Type: AUGASSIGN, Text: "+=", Ref: ref}, nil
		}
		return Token{Type: PUNCT, Text: "+", Ref: ref}, nil
	case '-':
		switch l.s.Peek() {
		case '-':
			l.s.Next()
			return Token{Type: DECR, Text: "--", Ref: ref}, nil
		case '=':
			l.s.Next()
			return Token{Type: AUGASSIGN, Text: "-=", Ref: ref}, nil
		case '>':
			l.s.Next()
			return Token{Type: RARROW, Text: "->", Ref: ref}, nil
		}
		return Token{Type: PUNCT, Text: "-", Ref: ref}, nil
	case ':':
		// a label definition: ':name'
		next := l.s.Scan()
		if next != scanner.Ident {
			return Token{}, errors.Errorf("%s: expected label name after ':'", ref)
		}
		return Token{Type: LABEL, Text: l.s.TokenText(), Ref: ref}, nil
	default:
		return Token{Type: PUNCT, Text: string(tok), Ref: ref}, nil
	}
}

func (l *Lexer) identToken(text string, ref srcref.SourceRef) Token {
	if kt, ok := keywordTypes[text]; ok {
		if kt == BOOLEAN {
			return Token{Type: BOOLEAN, Text: text, Value: text == "true", Ref: ref}
		}
		return Token{Type: kt, Text: text, Ref: ref}
	}
	if vartypes[text] {
		return Token{Type: VARTYPE, Text: text, Ref: ref}
	}
	if datatypes[text] {
		return Token{Type: DATATYPE, Text: text, Ref: ref}
	}
	if registerNames[text] {
		return Token{Type: REGISTER, Text: text, Ref: ref}
	}
	if strings.Contains(text, ".") {
		return Token{Type: DOTTEDNAME, Text: text, Ref: ref}
	}
	return Token{Type: NAME, Text: text, Ref: ref}
}
