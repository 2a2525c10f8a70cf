package parser

import (
	"github.com/sixtyfive/il65/ast"
	"github.com/sixtyfive/il65/lexer"
	"github.com/sixtyfive/il65/srcref"
)

var augOps = map[string]ast.AugAssignOp{
	"+=": ast.AugAdd, "-=": ast.AugSub, "*=": ast.AugMul, "/=": ast.AugDiv,
	"%=": ast.AugMod, "&=": ast.AugAnd, "|=": ast.AugOr, "^=": ast.AugXor,
	"<<=": ast.AugShiftL, ">>=": ast.AugShiftR,
}

// parseSimpleStatement parses a bare expression statement: it parses one
// full expression first, then reinterprets the result based on what
// follows -- '=' chains into an Assignment (with multi-target flattening
// for "a = b = expr"), a comma after a bare Register collects a
// TargetRegisters list, an AUGASSIGN/INCR/DECR token turns it into a
// compound assignment, and anything else is left as a standalone
// expression statement (a bare subroutine call).
func (p *Parser) parseSimpleStatement() (ast.Node, error) {
	defer p.enterRule("statement")()
	ref := p.cur().Ref

	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	// TargetRegisters: "A, X = ..." -- a comma-separated list of bare
	// registers immediately followed by more registers, only meaningful
	// as assignment targets.
	if reg, ok := first.(*ast.Register); ok && p.atPunct(",") {
		regs := []*ast.Register{reg}
		for p.atPunct(",") {
			p.advance()
			tok, err := p.expect(lexer.REGISTER, "register")
			if err != nil {
				return nil, err
			}
			regs = append(regs, ast.NewRegister(tok.Ref, tok.Text))
		}
		targets := ast.NewAssignmentTargets(ref, ast.NewTargetRegisters(ref, regs...))
		if _, err := p.expect(lexer.IS, "'='"); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ast.NewAssignment(ref, targets, value), nil
	}

	switch {
	case p.cur().Type == lexer.IS:
		return p.parseAssignmentTail(ref, first)
	case p.cur().Type == lexer.AUGASSIGN:
		op := augOps[p.advance().Text]
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ast.NewAugAssignment(ref, first, op, value), nil
	case p.cur().Type == lexer.INCR:
		p.advance()
		return ast.NewIncrDecr(ref, first, ast.OpIncr, 1), nil
	case p.cur().Type == lexer.DECR:
		p.advance()
		return ast.NewIncrDecr(ref, first, ast.OpDecr, 1), nil
	default:
		return first, nil
	}
}

// parseAssignmentTail handles "target (= target)* = value", flattening
// chained assignments like "a = b = 1" into a single Assignment with
// multiple targets.
func (p *Parser) parseAssignmentTail(ref srcref.SourceRef, firstTarget ast.Expression) (ast.Node, error) {
	targets := []ast.Node{firstTarget}
	for p.cur().Type == lexer.IS {
		p.advance()
		next, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.cur().Type == lexer.IS {
			targets = append(targets, next)
			continue
		}
		tgt := ast.NewAssignmentTargets(ref, targets...)
		return ast.NewAssignment(ref, tgt, next), nil
	}
	return nil, p.errorf(ref, "malformed assignment")
}

// parseGoto parses "IF expr? GOTO target" or a bare "GOTO target" (§4.2).
func (p *Parser) parseGoto() (ast.Node, error) {
	defer p.enterRule("goto")()
	ref := p.cur().Ref
	hasIf := false
	var condition ast.Expression
	if p.cur().Type == lexer.IF {
		hasIf = true
		p.advance()
		if p.cur().Type != lexer.GOTO {
			var err error
			condition, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(lexer.GOTO, "'goto'"); err != nil {
		return nil, err
	}
	target, err := p.parseGotoTarget()
	if err != nil {
		return nil, err
	}
	return ast.NewGoto(ref, hasIf, target, condition), nil
}

// parseGotoTarget parses a goto/subcall target: a SymbolName, an integer
// LiteralValue, or a Dereference (§4.2).
func (p *Parser) parseGotoTarget() (ast.Node, error) {
	tok := p.cur()
	switch {
	case tok.Type == lexer.NAME || tok.Type == lexer.DOTTEDNAME:
		p.advance()
		return ast.NewSymbolName(tok.Ref, tok.Text), nil
	case tok.Type == lexer.INTEGER:
		p.advance()
		return ast.NewLiteralValue(tok.Ref, tok.Value), nil
	case p.atPunct("["):
		expr, err := p.parseDereference()
		if err != nil {
			return nil, err
		}
		return expr, nil
	}
	return nil, p.errorf(tok.Ref, "expected a goto target (name, integer or dereference), got %s %q", tok.Type, tok.Text)
}

// parseReturn parses "return" followed by zero to three comma-separated
// expressions (§4.2).
func (p *Parser) parseReturn() (ast.Node, error) {
	defer p.enterRule("return")()
	ref := p.advance().Ref // 'return'
	var values []ast.Expression
	if p.cur().Type != lexer.ENDL && !p.atEOF() && !p.atPunct("}") {
		for {
			v, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			values = append(values, v)
			if p.atPunct(",") {
				p.advance()
				continue
			}
			break
		}
	}
	return ast.NewReturn(ref, values...), nil
}
