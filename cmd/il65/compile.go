package main

import (
	"fmt"

	"github.com/sixtyfive/il65/ast"
	"github.com/sixtyfive/il65/constfold"
	"github.com/sixtyfive/il65/types"
	"github.com/sixtyfive/il65/vmprog"
)

// compiler walks a parsed ast.Module and produces a vmprog.Program. Only
// the variable/label/control-flow core of il65 is compiled: an
// inline-assembly body or a Dereference/Register target needs the
// addressing model vmsys owns, which this pass does not synthesize. Those
// constructs are reported as CompileError, not silently dropped. A
// reference to a symbol declared outside the il65 block currently being
// compiled is not checked here: its name is emitted as written.
type compiler struct {
	constCounter int
	labelCounter int
}

// CompileError is returned for an il65 construct this pass does not lower,
// as opposed to a Go error from a malformed tree.
type CompileError struct {
	Msg string
}

func (e *CompileError) Error() string { return e.Msg }

// subCtx tracks the subroutine currently being compiled, if any. A
// subroutine's parameters, locals and labels all share the enclosing
// vmprog.Block's flat instruction/variable/label space (so that sibling
// subroutines can CALL each other, and a subroutine body can reference a
// variable declared directly in its enclosing il65 block, by bare name --
// both resolve through vmlink.flatten's single per-block dotted prefix).
// To keep two subroutines' same-named locals from colliding in that shared
// space, every name this subroutine itself declares is mangled to
// "<sub>.<name>" at the point of declaration; mangle looks up whether a
// bare reference is one of those declared names before deciding whether to
// qualify it.
type subCtx struct {
	prefix string
	locals map[string]bool
}

func (s *subCtx) mangle(name string) string {
	if s != nil && s.locals[name] {
		return s.prefix + "." + name
	}
	return name
}

func (s *subCtx) declare(name string) string {
	s.locals[name] = true
	return s.prefix + "." + name
}

// CompileModule lowers mod's "~main"-rooted block tree into a vmprog.Program
// whose top-level Blocks mirror the module scope's direct Block children.
func CompileModule(mod *ast.Module) (*vmprog.Program, error) {
	c := &compiler{}
	prog := &vmprog.Program{}
	scope := mod.Scope()
	if scope == nil {
		return prog, nil
	}
	for _, child := range scope.Children() {
		blk, ok := child.(*ast.Block)
		if !ok {
			continue
		}
		vb, err := c.compileBlock(blk, nil)
		if err != nil {
			return nil, err
		}
		prog.Blocks = append(prog.Blocks, vb)
	}
	return prog, nil
}

func (c *compiler) compileBlock(blk *ast.Block, parent *vmprog.Block) (*vmprog.Block, error) {
	vb := vmprog.NewBlock(blk.Label(), parent)
	scope := blk.Scope()
	if scope == nil {
		return vb, nil
	}
	if err := c.compileScope(scope, vb, nil); err != nil {
		return nil, err
	}
	return vb, nil
}

// compileSub compiles a subroutine's body directly into the enclosing
// il65 block's vmprog.Block and registers its entry point as a label
// there, under the subroutine's own (unmangled) name -- a CALL from any
// sibling code in the same block reaches it by that bare name. It appends
// a trailing RETURN if the body does not already end in one.
func (c *compiler) compileSub(sub *ast.Subroutine, vb *vmprog.Block) error {
	entry := &vmprog.Instruction{Opcode: vmprog.NOP}
	vb.Instructions = append(vb.Instructions, entry)
	vb.Labels[sub.Name()] = entry

	ctx := &subCtx{prefix: sub.Name(), locals: map[string]bool{}}

	// The caller pushes arguments in declaration order, so the last
	// parameter is the one sitting on top of the stack at entry; pop them
	// off in reverse to land each value in its matching named variable.
	for _, p := range sub.Params {
		name := ctx.declare(p.Name)
		vb.Variables = append(vb.Variables, &vmprog.Variable{Name: name, Type: p.Type, Value: zeroValue(p.Type)})
	}
	for i := len(sub.Params) - 1; i >= 0; i-- {
		vb.Instructions = append(vb.Instructions, &vmprog.Instruction{
			Opcode: vmprog.POP,
			Args:   []interface{}{ctx.mangle(sub.Params[i].Name)},
		})
	}

	scope := sub.Scope()
	if scope != nil {
		if err := c.compileScope(scope, vb, ctx); err != nil {
			return err
		}
	}
	if n := len(vb.Instructions); n == 0 || vb.Instructions[n-1].Opcode != vmprog.RETURN {
		vb.Instructions = append(vb.Instructions, &vmprog.Instruction{
			Opcode: vmprog.RETURN,
			Args:   []interface{}{0},
		})
	}
	return nil
}

func (c *compiler) compileScope(scope *ast.Scope, vb *vmprog.Block, sub *subCtx) error {
	for _, child := range scope.Children() {
		switch n := child.(type) {
		case *ast.VarDef:
			if err := c.compileVarDef(n, vb, sub); err != nil {
				return err
			}
		case *ast.Label:
			instr := &vmprog.Instruction{Opcode: vmprog.NOP}
			vb.Instructions = append(vb.Instructions, instr)
			name := n.Name()
			if sub != nil {
				name = sub.declare(name)
			}
			vb.Labels[name] = instr
		case *ast.Block:
			nested, err := c.compileBlock(n, vb)
			if err != nil {
				return err
			}
			vb.Blocks = append(vb.Blocks, nested)
		case *ast.Subroutine:
			if n.Scope() == nil && n.Address != 0 {
				// Absolute-address subroutine stub: nothing to generate,
				// it lives outside this program's flattened instruction
				// space.
				continue
			}
			// A subroutine's body is inlined into the same flat
			// instruction stream as the rest of this block (so sibling
			// subroutines and the block's own statements can reference
			// each other by bare name, see subCtx); jump clean over it so
			// ordinary control flow never falls into a body that's only
			// meant to be entered via CALL.
			after := c.newLabel("il65_after_sub")
			vb.Instructions = append(vb.Instructions, &vmprog.Instruction{
				Opcode: vmprog.JUMP,
				Args:   []interface{}{after},
			})
			if err := c.compileSub(n, vb); err != nil {
				return err
			}
			afterInstr := &vmprog.Instruction{Opcode: vmprog.NOP}
			vb.Instructions = append(vb.Instructions, afterInstr)
			vb.Labels[after] = afterInstr
		case *ast.Directive:
			// Block-level directives (e.g. %saveregisters) don't affect
			// this pass's codegen.
		case *ast.InlineAssembly:
			return &CompileError{Msg: "inline assembly bodies require 6502 code generation, which this VM-only toolchain does not perform"}
		default:
			instrs, err := c.compileStatement(child, vb, sub)
			if err != nil {
				return err
			}
			vb.Instructions = append(vb.Instructions, instrs...)
		}
	}
	return nil
}

func (c *compiler) compileVarDef(vd *ast.VarDef, vb *vmprog.Block, sub *subCtx) error {
	name := vd.Name()
	if sub != nil {
		name = sub.declare(name)
	}
	v := &vmprog.Variable{Name: name, Type: vd.Type, Const: vd.IsConst()}
	init := vd.Initializer()
	if init != nil {
		// ExpressionWithOperator is never compile-constant by itself
		// (folding it is a rewrite, not a query) -- so try the fold directly via ConstValue, which recurses
		// through foldOperator, rather than gating on IsCompileConstant
		// first. A successful fold is then range-checked against vd.Type
		// through CoerceConstantValue (§4.3), so e.g. "var byte b = 300"
		// reports an OverflowError instead of silently wrapping to 44.
		if cv, ferr := constfold.ConstValue(init); ferr == nil {
			lit := ast.NewLiteralValue(init.SourceRef(), cv)
			if _, _, _, err := constfold.CoerceConstantValue(vd.Type, lit, vd.SourceRef()); err != nil {
				return err
			}
			val, err := literalToValue(cv, vd.Type)
			if err != nil {
				return err
			}
			v.Value = val
			vb.Variables = append(vb.Variables, v)
			return nil
		} else if vd.IsConst() {
			return &CompileError{Msg: "const " + vd.Name() + " has a non-constant initializer: " + ferr.Error()}
		}
	}
	v.Value = zeroValue(vd.Type)
	vb.Variables = append(vb.Variables, v)
	if init == nil {
		return nil
	}
	// A non-constant initializer on a var/memory declaration runs as an
	// implicit assignment at the point of declaration.
	instrs, err := c.compileExpr(init, vb, sub)
	if err != nil {
		return err
	}
	instrs = append(instrs, &vmprog.Instruction{Opcode: vmprog.POP, Args: []interface{}{name}})
	vb.Instructions = append(vb.Instructions, instrs...)
	return nil
}

func (c *compiler) compileStatement(node ast.Node, vb *vmprog.Block, sub *subCtx) ([]*vmprog.Instruction, error) {
	switch n := node.(type) {
	case *ast.Assignment:
		return c.compileAssignment(n, vb, sub)
	case *ast.AugAssignment:
		return c.compileAugAssignment(n, vb, sub)
	case *ast.IncrDecr:
		return c.compileIncrDecr(n, vb, sub)
	case *ast.Return:
		return c.compileReturn(n, vb, sub)
	case *ast.Goto:
		return c.compileGoto(n, vb, sub)
	case ast.Expression:
		// A bare expression statement: a SubCall for effect. No POP is
		// emitted for it, so any result values it pushes stay on the value
		// stack (the grammar never produces a value destination for it at
		// statement level).
		return c.compileExpr(n, vb, sub)
	default:
		return nil, &CompileError{Msg: fmt.Sprintf("unsupported statement node %T", node)}
	}
}

func (c *compiler) compileAssignment(a *ast.Assignment, vb *vmprog.Block, sub *subCtx) ([]*vmprog.Instruction, error) {
	targets := a.Targets().Targets()
	names := make([]string, 0, len(targets))
	for _, t := range targets {
		sn, ok := t.(*ast.SymbolName)
		if !ok {
			return nil, &CompileError{Msg: fmt.Sprintf("assignment target %T is not supported by this minimal compiler pass (only a plain variable name)", t)}
		}
		names = append(names, sub.mangle(sn.QualifiedName))
	}
	instrs, err := c.compileExpr(a.Value(), vb, sub)
	if err != nil {
		return nil, err
	}
	for i, name := range names {
		if i < len(names)-1 {
			instrs = append(instrs, &vmprog.Instruction{Opcode: vmprog.DUP})
		}
		instrs = append(instrs, &vmprog.Instruction{Opcode: vmprog.POP, Args: []interface{}{name}})
	}
	return instrs, nil
}

var augOpcodes = map[ast.AugAssignOp]vmprog.Opcode{
	ast.AugAdd: vmprog.ADD, ast.AugSub: vmprog.SUB,
	ast.AugMul: vmprog.MUL, ast.AugDiv: vmprog.DIV,
	ast.AugAnd: vmprog.AND, ast.AugOr: vmprog.OR, ast.AugXor: vmprog.XOR,
}

func (c *compiler) compileAugAssignment(a *ast.AugAssignment, vb *vmprog.Block, sub *subCtx) ([]*vmprog.Instruction, error) {
	sn, ok := a.Target().(*ast.SymbolName)
	if !ok {
		return nil, &CompileError{Msg: fmt.Sprintf("compound-assignment target %T is not supported by this minimal compiler pass", a.Target())}
	}
	// AugAssignment is parsed straight off AUGASSIGN text (statements.go's
	// augOps); reject the shift/mod spellings here since the VM has no
	// SHIFTLEFT/SHIFTRIGHT/MODULO opcode -- only ADD/SUB/MUL/DIV and the
	// truthy AND/OR/XOR exist (§3.2's opcode list).
	op, ok := augOpcodes[a.Op]
	if !ok {
		return nil, &CompileError{Msg: "compound assignment operator has no runtime VM opcode; only +=, -=, *=, /=, &=, |=, ^= are supported outside constant folding"}
	}
	name := sub.mangle(sn.QualifiedName)
	instrs := []*vmprog.Instruction{{Opcode: vmprog.PUSH, Args: []interface{}{name}}}
	rhs, err := c.compileExpr(a.Value(), vb, sub)
	if err != nil {
		return nil, err
	}
	instrs = append(instrs, rhs...)
	instrs = append(instrs, &vmprog.Instruction{Opcode: op})
	instrs = append(instrs, &vmprog.Instruction{Opcode: vmprog.POP, Args: []interface{}{name}})
	return instrs, nil
}

func (c *compiler) compileIncrDecr(n *ast.IncrDecr, vb *vmprog.Block, sub *subCtx) ([]*vmprog.Instruction, error) {
	sn, ok := n.Target().(*ast.SymbolName)
	if !ok {
		return nil, &CompileError{Msg: fmt.Sprintf("increment/decrement target %T is not supported by this minimal compiler pass", n.Target())}
	}
	name := sub.mangle(sn.QualifiedName)
	amountVar := c.newConstVar(vb, vmprog.NewWord(uint16(n.Amount)))
	op := vmprog.ADD
	if n.Op == ast.OpDecr {
		op = vmprog.SUB
	}
	return []*vmprog.Instruction{
		{Opcode: vmprog.PUSH, Args: []interface{}{name}},
		{Opcode: vmprog.PUSH, Args: []interface{}{amountVar}},
		{Opcode: op},
		{Opcode: vmprog.POP, Args: []interface{}{name}},
	}, nil
}

func (c *compiler) compileReturn(r *ast.Return, vb *vmprog.Block, sub *subCtx) ([]*vmprog.Instruction, error) {
	var instrs []*vmprog.Instruction
	values := r.Values()
	for _, v := range values {
		expr, ok := v.(ast.Expression)
		if !ok {
			return nil, &CompileError{Msg: fmt.Sprintf("return value %T is not an expression", v)}
		}
		vi, err := c.compileExpr(expr, vb, sub)
		if err != nil {
			return nil, err
		}
		instrs = append(instrs, vi...)
	}
	instrs = append(instrs, &vmprog.Instruction{Opcode: vmprog.RETURN, Args: []interface{}{len(values)}})
	return instrs, nil
}

func (c *compiler) compileGoto(g *ast.Goto, vb *vmprog.Block, sub *subCtx) ([]*vmprog.Instruction, error) {
	sn, ok := g.Target().(*ast.SymbolName)
	if !ok {
		return nil, &CompileError{Msg: fmt.Sprintf("goto target %T is not supported by this minimal compiler pass (only a plain label name)", g.Target())}
	}
	name := sub.mangle(sn.QualifiedName)
	if cond := g.Condition(); cond != nil {
		instrs, err := c.compileExpr(cond, vb, sub)
		if err != nil {
			return nil, err
		}
		instrs = append(instrs, &vmprog.Instruction{Opcode: vmprog.JUMP_IF_TRUE, Args: []interface{}{name}})
		return instrs, nil
	}
	return []*vmprog.Instruction{{Opcode: vmprog.JUMP, Args: []interface{}{name}}}, nil
}

// compileExpr lowers expr to a sequence of instructions leaving exactly
// one value on the stack. Only the operators the VM itself can execute at
// runtime are compiled directly (arithmetic +,-,*,/ and the truthy &&,||,
// !; comparisons ==,!=,<,>,<=,>=); every other operator (bitwise &,|,^,
// <<,>>, //, %, **, unary ~ and -) is accepted only when constant-foldable
// (§3.2 lists no opcode for them -- they exist solely as a constant-folding
// vocabulary, per constfold.foldBinary/foldUnary).
func (c *compiler) compileExpr(expr ast.Expression, vb *vmprog.Block, sub *subCtx) ([]*vmprog.Instruction, error) {
	switch e := expr.(type) {
	case *ast.LiteralValue:
		val, err := literalToValue(e.Value, types.UNDEFINED)
		if err != nil {
			return nil, err
		}
		name := c.newConstVar(vb, val)
		return []*vmprog.Instruction{{Opcode: vmprog.PUSH, Args: []interface{}{name}}}, nil
	case *ast.SymbolName:
		if constfold.IsCompileConstant(e) {
			return c.foldAndPush(e, vb)
		}
		return []*vmprog.Instruction{{Opcode: vmprog.PUSH, Args: []interface{}{sub.mangle(e.QualifiedName)}}}, nil
	case *ast.AddressOf:
		cv, err := constfold.ConstValue(e)
		if err != nil {
			return nil, &CompileError{Msg: "address-of " + e.SymbolRef + " is not a known compile-time constant, and this pass has no runtime addressing model for it"}
		}
		val, err := literalToValue(cv, types.WORD)
		if err != nil {
			return nil, err
		}
		name := c.newConstVar(vb, val)
		return []*vmprog.Instruction{{Opcode: vmprog.PUSH, Args: []interface{}{name}}}, nil
	case *ast.ExpressionWithOperator:
		// An ExpressionWithOperator is never compile-constant by
		// IsCompileConstant's own query (matching the original: folding
		// this node shape is a rewrite, not a query) -- so attempt the
		// fold directly via ConstValue, which recurses through
		// foldOperator, before falling back to the opcode-only path. This
		// also catches a foldable subexpression nested inside a runtime
		// one, e.g. "x + (12 & 10)" embeds a foldable "&" inside a
		// runtime "+": the outer "+" fails to fold (x isn't constant) and
		// falls to compileOperatorExpr, whose recursive compileExpr call
		// on "(12 & 10)" folds that piece on its own.
		if cv, ferr := constfold.ConstValue(e); ferr == nil {
			return c.pushConstValue(cv, vb)
		}
		return c.compileOperatorExpr(e, vb, sub)
	case *ast.SubCall:
		return c.compileSubCall(e, vb, sub)
	default:
		return nil, &CompileError{Msg: fmt.Sprintf("expression node %T is not supported by this minimal compiler pass (no addressing model for Register/Dereference)", expr)}
	}
}

// runtimeBinaryOps covers every binary operator with a direct VM opcode.
// "!=" is handled separately (CMP_EQ followed by NOT) since the VM has no
// dedicated not-equal comparison.
var runtimeBinaryOps = map[string]vmprog.Opcode{
	"+": vmprog.ADD, "-": vmprog.SUB, "*": vmprog.MUL, "/": vmprog.DIV,
	"&&": vmprog.AND, "||": vmprog.OR,
	"==": vmprog.CMP_EQ, "<": vmprog.CMP_LT, ">": vmprog.CMP_GT,
	"<=": vmprog.CMP_LTE, ">=": vmprog.CMP_GTE,
}

func (c *compiler) compileOperatorExpr(e *ast.ExpressionWithOperator, vb *vmprog.Block, sub *subCtx) ([]*vmprog.Instruction, error) {
	if e.IsUnary() {
		if e.Operator == "!" {
			operand, err := c.compileExpr(e.Left(), vb, sub)
			if err != nil {
				return nil, err
			}
			return append(operand, &vmprog.Instruction{Opcode: vmprog.NOT}), nil
		}
		return nil, &CompileError{Msg: "unary operator " + e.Operator + " has no runtime VM opcode; only !<expr> and constant-foldable unary expressions are supported"}
	}

	if e.Operator == "!=" {
		left, err := c.compileExpr(e.Left(), vb, sub)
		if err != nil {
			return nil, err
		}
		right, err := c.compileExpr(e.Right(), vb, sub)
		if err != nil {
			return nil, err
		}
		instrs := append(left, right...)
		instrs = append(instrs, &vmprog.Instruction{Opcode: vmprog.CMP_EQ}, &vmprog.Instruction{Opcode: vmprog.NOT})
		return instrs, nil
	}

	op, ok := runtimeBinaryOps[e.Operator]
	if !ok {
		return nil, &CompileError{Msg: "operator " + e.Operator + " has no runtime VM opcode; only +, -, *, /, &&, ||, ==, !=, <, >, <=, >= and constant-foldable expressions are supported"}
	}
	left, err := c.compileExpr(e.Left(), vb, sub)
	if err != nil {
		return nil, err
	}
	right, err := c.compileExpr(e.Right(), vb, sub)
	if err != nil {
		return nil, err
	}
	instrs := append(left, right...)
	instrs = append(instrs, &vmprog.Instruction{Opcode: op})
	return instrs, nil
}

func (c *compiler) compileSubCall(s *ast.SubCall, vb *vmprog.Block, sub *subCtx) ([]*vmprog.Instruction, error) {
	sn, ok := s.Target().(*ast.SymbolName)
	if !ok {
		return nil, &CompileError{Msg: fmt.Sprintf("call target %T is not supported by this minimal compiler pass (only a plain subroutine name)", s.Target())}
	}
	var instrs []*vmprog.Instruction
	args := s.Arguments().Args()
	for _, a := range args {
		ai, err := c.compileExpr(a.Value(), vb, sub)
		if err != nil {
			return nil, err
		}
		instrs = append(instrs, ai...)
	}
	// A call target is always another subroutine's entry label, registered
	// under its own bare name in the shared enclosing block -- never one
	// of this subroutine's mangled locals.
	instrs = append(instrs, &vmprog.Instruction{
		Opcode: vmprog.CALL,
		Args:   []interface{}{len(args), sn.QualifiedName},
	})
	return instrs, nil
}

// foldAndPush constant-folds expr and pushes the result through a fresh
// synthetic variable; callers have already established expr is foldable.
func (c *compiler) foldAndPush(expr ast.Expression, vb *vmprog.Block) ([]*vmprog.Instruction, error) {
	cv, err := constfold.ConstValue(expr)
	if err != nil {
		return nil, err
	}
	return c.pushConstValue(cv, vb)
}

// pushConstValue pushes an already-folded constant value through a fresh
// synthetic variable.
func (c *compiler) pushConstValue(cv interface{}, vb *vmprog.Block) ([]*vmprog.Instruction, error) {
	val, err := literalToValue(cv, types.UNDEFINED)
	if err != nil {
		return nil, err
	}
	name := c.newConstVar(vb, val)
	return []*vmprog.Instruction{{Opcode: vmprog.PUSH, Args: []interface{}{name}}}, nil
}

func (c *compiler) newLabel(prefix string) string {
	name := fmt.Sprintf("%s_%d", prefix, c.labelCounter)
	c.labelCounter++
	return name
}

// newConstVar allocates a fresh, block-local synthetic variable backing a
// literal value -- PUSH only ever loads from a named variable (§3.2), so
// every literal needs one of these. Its name embeds a compiler-wide
// counter, so it never collides with another subroutine's mangled locals
// even though all of them end up sharing vb's flat Variables list.
func (c *compiler) newConstVar(vb *vmprog.Block, val vmprog.Value) string {
	name := fmt.Sprintf("il65_const_%d", c.constCounter)
	c.constCounter++
	vb.Variables = append(vb.Variables, &vmprog.Variable{Name: name, Type: val.Type, Const: true, Value: val})
	return name
}

func literalToValue(v interface{}, want types.DataType) (vmprog.Value, error) {
	switch n := v.(type) {
	case bool:
		return vmprog.NewBool(n), nil
	case float64:
		return vmprog.NewFloat(n), nil
	case int64:
		return coerceInt(n, want), nil
	case string:
		return vmprog.NewByteArray([]byte(n)), nil
	default:
		return vmprog.Value{}, &CompileError{Msg: fmt.Sprintf("literal of type %T has no VM Value representation", v)}
	}
}

// coerceInt narrows n to want's representation. It is not a range check.
// On compileVarDef's constant path CoerceConstantValue (§4.3) runs first,
// so an out-of-range constant is rejected there as an OverflowError. Other
// callers pass values unchecked: an out-of-range n wraps through the
// narrowing cast, and with an untyped want n becomes a byte when it fits
// 0..255 and a (truncated) word otherwise.
func coerceInt(n int64, want types.DataType) vmprog.Value {
	switch want {
	case types.BYTE:
		return vmprog.NewByte(uint8(n))
	case types.SBYTE:
		return vmprog.NewSByte(int8(n))
	case types.SWORD:
		return vmprog.NewSWord(int16(n))
	case types.WORD:
		return vmprog.NewWord(uint16(n))
	}
	if n >= types.ByteMin && n <= types.ByteMax {
		return vmprog.NewByte(uint8(n))
	}
	return vmprog.NewWord(uint16(n))
}

func zeroValue(dt types.DataType) vmprog.Value {
	switch dt {
	case types.BOOL:
		return vmprog.NewBool(false)
	case types.BYTE:
		return vmprog.NewByte(0)
	case types.SBYTE:
		return vmprog.NewSByte(0)
	case types.WORD:
		return vmprog.NewWord(0)
	case types.SWORD:
		return vmprog.NewSWord(0)
	case types.FLOAT:
		return vmprog.NewFloat(0)
	case types.ARRAY_BYTE:
		return vmprog.NewByteArray(nil)
	case types.ARRAY_SBYTE:
		return vmprog.NewSByteArray(nil)
	default:
		return vmprog.NewWord(0)
	}
}
