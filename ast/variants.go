package ast

import (
	"strconv"

	"github.com/sixtyfive/il65/srcref"
	"github.com/sixtyfive/il65/types"
)

// Named is implemented by every node variant that can occupy a slot in a
// Scope's symbol map: Label, VarDef, Subroutine, BuiltinFunction, and named
// Block.
type Named interface {
	Node
	Name() string
}

// Expression is implemented by every node variant that can appear wherever
// the grammar expects a value-producing expression.
type Expression interface {
	Node
	expressionNode()
}

// ---------------------------------------------------------------------
// Module

// ProgramFormat is the Module's `output` directive value.
type ProgramFormat int

const (
	FormatRaw ProgramFormat = iota
	FormatPRG
	FormatBasicPRG
)

// ZPOption is the Module's `zp` directive value.
type ZPOption int

const (
	ZPNoClobber ZPOption = iota
	ZPClobber
	ZPClobberRestore
)

// Module is the AST root: one Scope child at level "module", plus the
// directive-derived fields from §6.
type Module struct {
	base
	Filename     string
	Format       ProgramFormat
	LoadAddress  int // 0 means unset
	ZeroPage     ZPOption
}

func NewModule(ref srcref.SourceRef, filename string) *Module {
	return &Module{base: newBase(ref), Filename: filename, Format: FormatPRG}
}

// Scope returns the Module's sole Scope child, or nil if not yet attached.
func (m *Module) Scope() *Scope {
	if len(m.children) == 0 {
		return nil
	}
	s, _ := m.children[0].(*Scope)
	return s
}

// SetScope attaches scope as the Module's sole child.
func (m *Module) SetScope(scope *Scope) {
	m.children = []Node{scope}
	scope.setParent(m)
	scope.Name = ""
}

// Zeropage returns the "ZP" block directly under the module scope, if any.
func (m *Module) Zeropage() *Block {
	sc := m.Scope()
	if sc == nil {
		return nil
	}
	for _, c := range sc.Children() {
		if b, ok := c.(*Block); ok && b.Name() == "ZP" {
			return b
		}
	}
	return nil
}

// Main returns the block named "main" directly under the module scope, if
// any.
func (m *Module) Main() *Block {
	sc := m.Scope()
	if sc == nil {
		return nil
	}
	for _, c := range sc.Children() {
		if b, ok := c.(*Block); ok && b.name == "main" {
			return b
		}
	}
	return nil
}

// ---------------------------------------------------------------------
// Block

var unnamedBlockCounter int

// Block is a named or anonymous lexical container: one Scope child,
// optional name, optional load address.
type Block struct {
	base
	name        string
	LoadAddress int // 0 means unset
	autoLabel   string
}

func NewBlock(ref srcref.SourceRef, name string) *Block {
	return &Block{base: newBase(ref), name: name}
}

func (b *Block) Name() string { return b.name }

// Scope returns the Block's sole Scope child, or nil.
func (b *Block) Scope() *Scope {
	if len(b.children) == 0 {
		return nil
	}
	s, _ := b.children[0].(*Scope)
	return s
}

func (b *Block) SetScope(scope *Scope) {
	b.children = []Node{scope}
	scope.setParent(b)
	scope.Name = b.name
}

// Label returns the block's name, or, for an anonymous block, a generated
// stable label of the form "il65_block_<n>" (first call allocates it).
func (b *Block) Label() string {
	if b.name != "" {
		return b.name
	}
	if b.autoLabel == "" {
		b.autoLabel = "il65_block_" + strconv.Itoa(unnamedBlockCounter)
		unnamedBlockCounter++
	}
	return b.autoLabel
}

// ---------------------------------------------------------------------
// Subroutine

// ParamSpec describes one formal parameter's name and declared type.
type ParamSpec struct {
	Name string
	Type types.DataType
}

// Subroutine has either a Scope child (defined by body) or an Address (a
// hardware/absolute-address stub), never both.
type Subroutine struct {
	base
	name       string
	Params     []ParamSpec
	Results    []types.DataType
	ClobbersAXY bool // '?' result spec: clobbers A, X, Y
	Address    int  // non-zero when defined by absolute address
}

func NewSubroutine(ref srcref.SourceRef, name string) *Subroutine {
	return &Subroutine{base: newBase(ref), name: name}
}

func (s *Subroutine) Name() string { return s.name }

// Scope returns the Subroutine's Scope child, or nil when the subroutine is
// defined by absolute address.
func (s *Subroutine) Scope() *Scope {
	if len(s.children) == 0 {
		return nil
	}
	sc, _ := s.children[0].(*Scope)
	return sc
}

func (s *Subroutine) SetScope(scope *Scope) {
	s.children = []Node{scope}
	scope.setParent(s)
	scope.Name = s.name
}

// ---------------------------------------------------------------------
// Label

type Label struct {
	base
	name string
}

func NewLabel(ref srcref.SourceRef, name string) *Label { return &Label{base: newBase(ref), name: name} }
func (l *Label) Name() string                           { return l.name }

// ---------------------------------------------------------------------
// Directive

type Directive struct {
	base
	DirectiveName string
	Args          []interface{} // literal arguments: int, float, bool or string
}

func NewDirective(ref srcref.SourceRef, name string, args []interface{}) *Directive {
	return &Directive{base: newBase(ref), DirectiveName: name, Args: args}
}

// ---------------------------------------------------------------------
// VarDef

type VarDef struct {
	base
	name          string
	Kind          types.VarKind
	Type          types.DataType
	Dimensions    []int
	ZeroPageAddr  int // non-zero when explicitly placed in zero page
}

func NewVarDef(ref srcref.SourceRef, name string, kind types.VarKind, dt types.DataType) *VarDef {
	return &VarDef{base: newBase(ref), name: name, Kind: kind, Type: dt}
}

func (v *VarDef) Name() string  { return v.name }
func (v *VarDef) IsConst() bool { return v.Kind == types.VarKindConst }

// Initializer returns the VarDef's initial-value expression child, if any.
func (v *VarDef) Initializer() Expression {
	if len(v.children) == 0 {
		return nil
	}
	e, _ := v.children[0].(Expression)
	return e
}

func (v *VarDef) SetInitializer(e Expression) {
	v.children = []Node{e}
	if e != nil {
		e.setParent(v)
	}
}

// ---------------------------------------------------------------------
// InlineAssembly

type InlineAssembly struct {
	base
	Text string
}

func NewInlineAssembly(ref srcref.SourceRef, text string) *InlineAssembly {
	return &InlineAssembly{base: newBase(ref), Text: text}
}

// ---------------------------------------------------------------------
// BuiltinFunction

// BuiltinCallable is the opaque handle a BuiltinFunction carries. Its shape
// is left to the driver/parser wiring it up (§3.1: "opaque callable
// handle").
type BuiltinCallable interface{}

type BuiltinFunction struct {
	base
	name string
	Func BuiltinCallable
}

func NewBuiltinFunction(ref srcref.SourceRef, name string, fn BuiltinCallable) *BuiltinFunction {
	return &BuiltinFunction{base: newBase(ref), name: name, Func: fn}
}

func (f *BuiltinFunction) Name() string { return f.name }

// ---------------------------------------------------------------------
// Assignment family

// AssignmentTargets wraps 1..N assignable targets (SymbolName, Dereference,
// Register, TargetRegisters).
type AssignmentTargets struct {
	base
}

func NewAssignmentTargets(ref srcref.SourceRef, targets ...Node) *AssignmentTargets {
	a := &AssignmentTargets{base: newBase(ref)}
	for _, t := range targets {
		a.addChild(a, t)
	}
	return a
}

func (a *AssignmentTargets) Targets() []Node { return a.children }

type Assignment struct {
	base
}

func NewAssignment(ref srcref.SourceRef, targets *AssignmentTargets, value Expression) *Assignment {
	a := &Assignment{base: newBase(ref)}
	a.addChild(a, targets)
	a.addChild(a, value)
	return a
}

func (a *Assignment) Targets() *AssignmentTargets { t, _ := a.children[0].(*AssignmentTargets); return t }
func (a *Assignment) Value() Expression           { v, _ := a.children[1].(Expression); return v }

// AugAssignOp enumerates the compound-assignment operators.
type AugAssignOp string

const (
	AugAdd    AugAssignOp = "+="
	AugSub    AugAssignOp = "-="
	AugMul    AugAssignOp = "*="
	AugDiv    AugAssignOp = "/="
	AugMod    AugAssignOp = "%="
	AugAnd    AugAssignOp = "&="
	AugOr     AugAssignOp = "|="
	AugXor    AugAssignOp = "^="
	AugShiftL AugAssignOp = "<<="
	AugShiftR AugAssignOp = ">>="
)

type AugAssignment struct {
	base
	Op AugAssignOp
}

func NewAugAssignment(ref srcref.SourceRef, target Node, op AugAssignOp, value Expression) *AugAssignment {
	a := &AugAssignment{base: newBase(ref), Op: op}
	a.addChild(a, target)
	a.addChild(a, value)
	return a
}

func (a *AugAssignment) Target() Node       { return a.children[0] }
func (a *AugAssignment) Value() Expression  { v, _ := a.children[1].(Expression); return v }

// ---------------------------------------------------------------------
// IncrDecr

type IncrOp string

const (
	OpIncr IncrOp = "++"
	OpDecr IncrOp = "--"
)

// IncrDecr's stored Amount is always non-negative; a negative literal in
// source flips Op instead (§3.1).
type IncrDecr struct {
	base
	Op     IncrOp
	Amount int
}

func NewIncrDecr(ref srcref.SourceRef, target Node, op IncrOp, amount int) *IncrDecr {
	if amount < 0 {
		amount = -amount
		if op == OpIncr {
			op = OpDecr
		} else {
			op = OpIncr
		}
	}
	i := &IncrDecr{base: newBase(ref), Op: op, Amount: amount}
	i.addChild(i, target)
	return i
}

func (i *IncrDecr) Target() Node { return i.children[0] }

// ---------------------------------------------------------------------
// Return

// Return carries 0..3 expressions assigned to the A, X, Y registers in
// order.
type Return struct {
	base
}

func NewReturn(ref srcref.SourceRef, values ...Expression) *Return {
	r := &Return{base: newBase(ref)}
	for _, v := range values {
		r.addChild(r, v)
	}
	return r
}

func (r *Return) Values() []Node { return r.children }

// ---------------------------------------------------------------------
// Goto

// Goto's target is its first child; an optional second child carries the
// condition expression. HasIf records that the "if" keyword was present;
// with HasIf set and no condition child the statement is an unconditional
// "if goto".
type Goto struct {
	base
	HasIf bool
}

func NewGoto(ref srcref.SourceRef, hasIf bool, target Node, condition Expression) *Goto {
	g := &Goto{base: newBase(ref), HasIf: hasIf}
	g.addChild(g, target)
	if condition != nil {
		g.addChild(g, condition)
	}
	return g
}

func (g *Goto) Target() Node { return g.children[0] }

func (g *Goto) Condition() Expression {
	if len(g.children) < 2 {
		return nil
	}
	c, _ := g.children[1].(Expression)
	return c
}

// ---------------------------------------------------------------------
// SubCall / CallArguments / CallArgument

type SubCall struct {
	base
}

func NewSubCall(ref srcref.SourceRef, target Node, preserve *PreserveRegs, args *CallArguments) *SubCall {
	s := &SubCall{base: newBase(ref)}
	s.addChild(s, target)
	s.addChild(s, preserve)
	s.addChild(s, args)
	return s
}

func (s *SubCall) expressionNode() {}

func (s *SubCall) Target() Node              { return s.children[0] }
func (s *SubCall) Preserve() *PreserveRegs    { p, _ := s.children[1].(*PreserveRegs); return p }
func (s *SubCall) Arguments() *CallArguments  { a, _ := s.children[2].(*CallArguments); return a }

type CallArguments struct {
	base
}

func NewCallArguments(ref srcref.SourceRef, args ...*CallArgument) *CallArguments {
	c := &CallArguments{base: newBase(ref)}
	for _, a := range args {
		c.addChild(c, a)
	}
	return c
}

func (c *CallArguments) Args() []*CallArgument {
	out := make([]*CallArgument, 0, len(c.children))
	for _, n := range c.children {
		if a, ok := n.(*CallArgument); ok {
			out = append(out, a)
		}
	}
	return out
}

type CallArgument struct {
	base
	ParamName string // optional named-argument name, "" if positional
}

func NewCallArgument(ref srcref.SourceRef, paramName string, value Expression) *CallArgument {
	c := &CallArgument{base: newBase(ref), ParamName: paramName}
	c.addChild(c, value)
	return c
}

func (c *CallArgument) Value() Expression { v, _ := c.children[0].(Expression); return v }

// ---------------------------------------------------------------------
// PreserveRegs / TargetRegisters / Register

type PreserveRegs struct {
	base
	Registers string // register letters, e.g. "AXY"
}

func NewPreserveRegs(ref srcref.SourceRef, regs string) *PreserveRegs {
	return &PreserveRegs{base: newBase(ref), Registers: regs}
}

type TargetRegisters struct {
	base
}

func NewTargetRegisters(ref srcref.SourceRef, regs ...*Register) *TargetRegisters {
	t := &TargetRegisters{base: newBase(ref)}
	for _, r := range regs {
		t.addChild(t, r)
	}
	return t
}

func (t *TargetRegisters) Registers() []*Register {
	out := make([]*Register, 0, len(t.children))
	for _, n := range t.children {
		if r, ok := n.(*Register); ok {
			out = append(out, r)
		}
	}
	return out
}

type Register struct {
	base
	RegName string
}

func NewRegister(ref srcref.SourceRef, name string) *Register {
	return &Register{base: newBase(ref), RegName: name}
}

func (r *Register) expressionNode() {}

// DataType returns the register's data type (BYTE or WORD) per the fixed
// register alphabet, or types.UNDEFINED if RegName is not a known register.
func (r *Register) DataType() types.DataType {
	return types.RegisterDataType(r.RegName)
}

// ---------------------------------------------------------------------
// LiteralValue

// LiteralValue holds a concrete compile-time value: an int64, float64, bool
// or string. A character literal is converted to its byte value and a
// boolean literal to 0/1 during parsing (§4.2), so a parsed LiteralValue
// holds an int64, float64 or string; a bool Value comes only from constant
// folding a comparison or logical operator.
type LiteralValue struct {
	base
	Value interface{}
}

func NewLiteralValue(ref srcref.SourceRef, value interface{}) *LiteralValue {
	return &LiteralValue{base: newBase(ref), Value: value}
}

func (l *LiteralValue) expressionNode() {}

// ---------------------------------------------------------------------
// SymbolName

// SymbolName is a possibly-dotted identifier reference.
type SymbolName struct {
	base
	QualifiedName string
}

func NewSymbolName(ref srcref.SourceRef, name string) *SymbolName {
	return &SymbolName{base: newBase(ref), QualifiedName: name}
}

func (s *SymbolName) expressionNode() {}

// ---------------------------------------------------------------------
// AddressOf

type AddressOf struct {
	base
	SymbolRef string
}

func NewAddressOf(ref srcref.SourceRef, name string) *AddressOf {
	return &AddressOf{base: newBase(ref), SymbolRef: name}
}

func (a *AddressOf) expressionNode() {}

// ---------------------------------------------------------------------
// Dereference

// Dereference's operand must be a SymbolName, integer LiteralValue, or
// Register (§4.2); ElementSize is the scalar element size of Type (the
// ambiguous "size" field from §3.1 is resolved here as a scalar, see
// DESIGN.md).
type Dereference struct {
	base
	Type        types.DataType
	ElementSize int
}

func NewDereference(ref srcref.SourceRef, operand Node, dt types.DataType) *Dereference {
	d := &Dereference{base: newBase(ref), Type: dt, ElementSize: dt.ElementSize()}
	d.addChild(d, operand)
	return d
}

func (d *Dereference) expressionNode() {}

func (d *Dereference) Operand() Node { return d.children[0] }

// ---------------------------------------------------------------------
// ExpressionWithOperator

// ExpressionWithOperator carries one operand (unary) or two (binary). The
// MustBeConstant flag is set on VarDef initializers (§3.1).
type ExpressionWithOperator struct {
	base
	Operator       string
	MustBeConstant bool
}

func NewUnaryExpr(ref srcref.SourceRef, op string, operand Expression) *ExpressionWithOperator {
	e := &ExpressionWithOperator{base: newBase(ref), Operator: op}
	e.addChild(e, operand)
	return e
}

func NewBinaryExpr(ref srcref.SourceRef, op string, left, right Expression) *ExpressionWithOperator {
	e := &ExpressionWithOperator{base: newBase(ref), Operator: op}
	e.addChild(e, left)
	e.addChild(e, right)
	return e
}

func (e *ExpressionWithOperator) expressionNode() {}

func (e *ExpressionWithOperator) IsUnary() bool { return len(e.children) == 1 }

func (e *ExpressionWithOperator) Left() Expression {
	l, _ := e.children[0].(Expression)
	return l
}

func (e *ExpressionWithOperator) Right() Expression {
	if len(e.children) < 2 {
		return nil
	}
	r, _ := e.children[1].(Expression)
	return r
}

// ---------------------------------------------------------------------
// DatatypeNode

type DatatypeNode struct {
	base
	TypeName   string
	Dimensions []int
}

func NewDatatypeNode(ref srcref.SourceRef, typeName string, dims []int) *DatatypeNode {
	return &DatatypeNode{base: newBase(ref), TypeName: typeName, Dimensions: dims}
}

