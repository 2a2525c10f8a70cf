package parser

import (
	"github.com/sixtyfive/il65/ast"
	"github.com/sixtyfive/il65/lexer"
	"github.com/sixtyfive/il65/srcref"
	"github.com/sixtyfive/il65/types"
)

// parseExpr is the expression grammar's entry point (logical-or, the
// lowest-precedence level).
func (p *Parser) parseExpr() (ast.Expression, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == lexer.LOGICOR {
		ref := p.advance().Ref
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryExpr(ref, "||", left, right)
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expression, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == lexer.LOGICAND {
		ref := p.advance().Ref
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryExpr(ref, "&&", left, right)
	}
	return left, nil
}

// parseNot is logical-not: right-associative (!!x is valid), sitting
// between logical-and and the comparison operators (§4.2's precedence
// list, not the more familiar "tighter than comparisons" convention).
func (p *Parser) parseNot() (ast.Expression, error) {
	if p.cur().Type == lexer.LOGICNOT {
		ref := p.advance().Ref
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryExpr(ref, "!", operand), nil
	}
	return p.parseComparison()
}

var comparisonOps = map[lexer.TokenType]string{
	lexer.LT: "<", lexer.GT: ">", lexer.LE: "<=", lexer.GE: ">=",
	lexer.EQUALS: "==", lexer.NOTEQUALS: "!=",
}

func (p *Parser) parseComparison() (ast.Expression, error) {
	left, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := comparisonOps[p.cur().Type]
		if !ok {
			return left, nil
		}
		ref := p.advance().Ref
		right, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryExpr(ref, op, left, right)
	}
}

func (p *Parser) parseBitOr() (ast.Expression, error) {
	left, err := p.parseBitXor()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == lexer.BITOR {
		ref := p.advance().Ref
		right, err := p.parseBitXor()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryExpr(ref, "|", left, right)
	}
	return left, nil
}

func (p *Parser) parseBitXor() (ast.Expression, error) {
	left, err := p.parseBitAnd()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == lexer.BITXOR {
		ref := p.advance().Ref
		right, err := p.parseBitAnd()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryExpr(ref, "^", left, right)
	}
	return left, nil
}

func (p *Parser) parseBitAnd() (ast.Expression, error) {
	left, err := p.parseShift()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == lexer.BITAND {
		ref := p.advance().Ref
		right, err := p.parseShift()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryExpr(ref, "&", left, right)
	}
	return left, nil
}

func (p *Parser) parseShift() (ast.Expression, error) {
	left, err := p.parseAddSub()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == lexer.SHIFTLEFT || p.cur().Type == lexer.SHIFTRIGHT {
		op := "<<"
		if p.cur().Type == lexer.SHIFTRIGHT {
			op = ">>"
		}
		ref := p.advance().Ref
		right, err := p.parseAddSub()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryExpr(ref, op, left, right)
	}
	return left, nil
}

func (p *Parser) parseAddSub() (ast.Expression, error) {
	left, err := p.parseMulDiv()
	if err != nil {
		return nil, err
	}
	for p.atPunct("+") || p.atPunct("-") {
		op := p.cur().Text
		ref := p.advance().Ref
		right, err := p.parseMulDiv()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryExpr(ref, op, left, right)
	}
	return left, nil
}

func (p *Parser) parseMulDiv() (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch {
		case p.atPunct("*"):
			op = "*"
		case p.atPunct("/"):
			op = "/"
		case p.cur().Type == lexer.INTEGERDIVIDE:
			op = "//"
		case p.cur().Type == lexer.MODULO:
			op = "%"
		default:
			return left, nil
		}
		ref := p.advance().Ref
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryExpr(ref, op, left, right)
	}
}

// parseUnary handles unary minus, bitwise-not and address-of: all
// right-associative and binding looser than power but tighter than
// multiplication (§4.2).
func (p *Parser) parseUnary() (ast.Expression, error) {
	switch {
	case p.atPunct("-"):
		ref := p.advance().Ref
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryExpr(ref, "-", operand), nil
	case p.cur().Type == lexer.BITINVERT:
		ref := p.advance().Ref
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryExpr(ref, "~", operand), nil
	case p.cur().Type == lexer.BITAND:
		ref := p.advance().Ref
		nameTok, err := p.expectName()
		if err != nil {
			return nil, err
		}
		return ast.NewAddressOf(ref, nameTok.Text), nil
	}
	return p.parsePower()
}

func (p *Parser) parsePower() (ast.Expression, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.cur().Type == lexer.POWER {
		ref := p.advance().Ref
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewBinaryExpr(ref, "**", left, right), nil
	}
	return left, nil
}

func (p *Parser) expectName() (lexer.Token, error) {
	if p.cur().Type != lexer.NAME && p.cur().Type != lexer.DOTTEDNAME {
		return lexer.Token{}, p.errorf(p.cur().Ref, "expected a name, got %s %q", p.cur().Type, p.cur().Text)
	}
	return p.advance(), nil
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	tok := p.cur()
	switch tok.Type {
	case lexer.INTEGER, lexer.CHARACTER:
		p.advance()
		return ast.NewLiteralValue(tok.Ref, tok.Value), nil
	case lexer.FLOATINGPOINT:
		p.advance()
		return ast.NewLiteralValue(tok.Ref, tok.Value), nil
	case lexer.STRING:
		p.advance()
		return ast.NewLiteralValue(tok.Ref, tok.Value), nil
	case lexer.BOOLEAN:
		p.advance()
		b, _ := tok.Value.(bool)
		v := int64(0)
		if b {
			v = 1
		}
		return ast.NewLiteralValue(tok.Ref, v), nil
	case lexer.REGISTER:
		p.advance()
		return ast.NewRegister(tok.Ref, tok.Text), nil
	case lexer.NAME, lexer.DOTTEDNAME:
		p.advance()
		if p.atPunct("(") {
			return p.parseSubCallTail(tok.Ref, ast.NewSymbolName(tok.Ref, tok.Text), nil)
		}
		return ast.NewSymbolName(tok.Ref, tok.Text), nil
	case lexer.PRESERVEREGS:
		p.advance()
		preserve := ast.NewPreserveRegs(tok.Ref, tok.Text)
		nameTok, err := p.expectName()
		if err != nil {
			return nil, err
		}
		return p.parseSubCallTail(tok.Ref, ast.NewSymbolName(nameTok.Ref, nameTok.Text), preserve)
	case lexer.PUNCT:
		switch tok.Text {
		case "(":
			p.advance()
			inner, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return inner, nil
		case "[":
			return p.parseDereference()
		}
	}
	return nil, p.errorf(tok.Ref, "unexpected token in expression: %s %q", tok.Type, tok.Text)
}

// parseSubCallTail parses the "preserveregs_opt '(' call_arguments_opt ')'"
// tail of a subroutine call whose target has already been parsed.
func (p *Parser) parseSubCallTail(ref srcref.SourceRef, target ast.Node, preserve *ast.PreserveRegs) (ast.Expression, error) {
	if preserve == nil {
		preserve = ast.NewPreserveRegs(ref, "")
	}
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var callArgs []*ast.CallArgument
	for !p.atPunct(")") {
		arg, err := p.parseCallArgument()
		if err != nil {
			return nil, err
		}
		callArgs = append(callArgs, arg)
		if p.atPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	args := ast.NewCallArguments(ref, callArgs...)
	return ast.NewSubCall(ref, target, preserve, args), nil
}

func (p *Parser) parseCallArgument() (*ast.CallArgument, error) {
	ref := p.cur().Ref
	if (p.cur().Type == lexer.NAME || p.cur().Type == lexer.REGISTER) && p.peek(1).Type == lexer.IS {
		name := p.advance().Text
		p.advance() // '='
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ast.NewCallArgument(ref, name, val), nil
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return ast.NewCallArgument(ref, "", val), nil
}

// parseDereference parses "[" operand datatype? "]" (§4.2). The operand
// must be a SymbolName, integer LiteralValue, or Register.
func (p *Parser) parseDereference() (ast.Expression, error) {
	open := p.advance() // '['
	var operand ast.Node
	switch p.cur().Type {
	case lexer.NAME, lexer.DOTTEDNAME:
		tok := p.advance()
		operand = ast.NewSymbolName(tok.Ref, tok.Text)
	case lexer.REGISTER:
		tok := p.advance()
		operand = ast.NewRegister(tok.Ref, tok.Text)
	case lexer.INTEGER:
		tok := p.advance()
		operand = ast.NewLiteralValue(tok.Ref, tok.Value)
	default:
		return nil, p.errorf(p.cur().Ref, "dereference operand must be a name, integer or register, got %s %q", p.cur().Type, p.cur().Text)
	}
	dt := types.BYTE
	if p.cur().Type == lexer.DATATYPE {
		dtTok := p.advance()
		resolved, ok := mapDataType(dtTok.Text)
		if !ok {
			return nil, p.errorf(dtTok.Ref, "unknown datatype %q", dtTok.Text)
		}
		if !resolved.IsNumeric() {
			return nil, p.errorf(dtTok.Ref, "dereference datatype must be numeric, got %s", resolved)
		}
		dt = resolved
	}
	if _, err := p.expectPunct("]"); err != nil {
		return nil, err
	}
	return ast.NewDereference(open.Ref, operand, dt), nil
}
