package parser

import (
	"testing"

	"github.com/sixtyfive/il65/ast"
	"github.com/sixtyfive/il65/types"
)

func parseOK(t *testing.T, src string) *ast.Module {
	t.Helper()
	p, err := New("t.il65", []byte(src))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mod, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return mod
}

func TestParseBlockWithVarDef(t *testing.T) {
	mod := parseOK(t, "~main {\n  var byte x = 5\n}\n")
	main := mod.Main()
	if main == nil {
		t.Fatal("expected a ~main block")
	}
	children := main.Scope().Children()
	if len(children) != 1 {
		t.Fatalf("got %d children, want 1", len(children))
	}
	vd, ok := children[0].(*ast.VarDef)
	if !ok {
		t.Fatalf("got %T, want *ast.VarDef", children[0])
	}
	if vd.Name() != "x" || vd.Type != types.BYTE {
		t.Errorf("got name=%s type=%v, want x/BYTE", vd.Name(), vd.Type)
	}
}

func TestParseAnonymousBlockAutoLabel(t *testing.T) {
	mod := parseOK(t, "~{\n  var byte x = 1\n}\n")
	scope := mod.Scope()
	children := scope.Children()
	if len(children) != 1 {
		t.Fatalf("got %d children, want 1", len(children))
	}
	blk, ok := children[0].(*ast.Block)
	if !ok {
		t.Fatalf("got %T, want *ast.Block", children[0])
	}
	if blk.Label() == "" {
		t.Errorf("expected an auto-generated label for an anonymous block")
	}
}

func TestParseSubroutineParamsAndResult(t *testing.T) {
	mod := parseOK(t, "~main {\nsub add(x byte, y byte) -> byte {\n  return x + y\n}\n}\n")
	main := mod.Main()
	var sub *ast.Subroutine
	for _, c := range main.Scope().Children() {
		if s, ok := c.(*ast.Subroutine); ok {
			sub = s
		}
	}
	if sub == nil {
		t.Fatal("expected a subroutine")
	}
	if len(sub.Params) != 2 || sub.Params[0].Name != "x" || sub.Params[0].Type != types.BYTE {
		t.Fatalf("got params %+v", sub.Params)
	}
	if len(sub.Results) != 1 || sub.Results[0] != types.BYTE {
		t.Fatalf("got results %+v", sub.Results)
	}
	body := sub.Scope().Children()
	if len(body) != 1 {
		t.Fatalf("got %d body statements, want 1", len(body))
	}
	ret, ok := body[0].(*ast.Return)
	if !ok {
		t.Fatalf("got %T, want *ast.Return", body[0])
	}
	_ = ret
}

func TestExpressionPrecedence(t *testing.T) {
	// 2 + 3 * 4 must parse as 2 + (3 * 4): the outer node is '+', whose
	// right child is a '*' node.
	mod := parseOK(t, "~main {\n  var byte x = 2 + 3 * 4\n}\n")
	vd := mod.Main().Scope().Children()[0].(*ast.VarDef)
	top, ok := vd.Children()[0].(*ast.ExpressionWithOperator)
	if !ok {
		t.Fatalf("got %T, want *ast.ExpressionWithOperator", vd.Children()[0])
	}
	if top.Operator != "+" {
		t.Fatalf("got top operator %q, want +", top.Operator)
	}
	right, ok := top.Right().(*ast.ExpressionWithOperator)
	if !ok || right.Operator != "*" {
		t.Fatalf("got right child %+v, want a '*' node", top.Right())
	}
}

func TestPowerIsRightAssociativeAndBindsTighterThanUnaryMinus(t *testing.T) {
	// -2 ** 2 parses as -(2 ** 2), since unary minus is looser than power.
	mod := parseOK(t, "~main {\n  var byte x = -2 ** 2\n}\n")
	vd := mod.Main().Scope().Children()[0].(*ast.VarDef)
	top, ok := vd.Children()[0].(*ast.ExpressionWithOperator)
	if !ok || top.Operator != "-" || !top.IsUnary() {
		t.Fatalf("got top %+v, want unary '-'", vd.Children()[0])
	}
	inner, ok := top.Left().(*ast.ExpressionWithOperator)
	if !ok || inner.Operator != "**" {
		t.Fatalf("got inner %+v, want '**'", top.Left())
	}
}

func TestMultiAssignmentFlattening(t *testing.T) {
	mod := parseOK(t, "~main {\n  var byte a = 0\n  var byte b = 0\n  a = b = 1\n}\n")
	children := mod.Main().Scope().Children()
	assign, ok := children[len(children)-1].(*ast.Assignment)
	if !ok {
		t.Fatalf("got %T, want *ast.Assignment", children[len(children)-1])
	}
	if len(assign.Targets().Children()) != 2 {
		t.Fatalf("got %d targets, want 2", len(assign.Targets().Children()))
	}
}

func TestGotoWithCondition(t *testing.T) {
	mod := parseOK(t, "~main {\n  if true goto skip\n  :skip\n}\n")
	children := mod.Main().Scope().Children()
	g, ok := children[0].(*ast.Goto)
	if !ok {
		t.Fatalf("got %T, want *ast.Goto", children[0])
	}
	if !g.HasIf {
		t.Errorf("expected HasIf true")
	}
}

func TestSubCallWithNamedArgument(t *testing.T) {
	mod := parseOK(t, "~main {\n  sub greet(name byte) {\n    return\n  }\n  greet(name = 1)\n}\n")
	children := mod.Main().Scope().Children()
	var call *ast.SubCall
	for _, c := range children {
		if sc, ok := c.(*ast.SubCall); ok {
			call = sc
		}
	}
	if call == nil {
		t.Fatal("expected a bare SubCall statement")
	}
}

func TestErrorAccumulationDoesNotAbortOnFirstError(t *testing.T) {
	p, err := New("t.il65", []byte("~main {\n  var byte = 1\n  var byte y = 2\n}\n"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = p.Parse()
	if err == nil {
		t.Fatal("expected a parse error for the missing variable name")
	}
	errs, ok := err.(ErrorList)
	if !ok {
		t.Fatalf("got %T, want ErrorList", err)
	}
	if len(errs) == 0 {
		t.Fatal("expected at least one recorded error")
	}
}

func TestDereferenceWithExplicitDatatype(t *testing.T) {
	mod := parseOK(t, "~main {\n  var byte x = [1000 word]\n}\n")
	vd := mod.Main().Scope().Children()[0].(*ast.VarDef)
	deref, ok := vd.Children()[0].(*ast.Dereference)
	if !ok {
		t.Fatalf("got %T, want *ast.Dereference", vd.Children()[0])
	}
	if deref.ElementSize != types.WORD.ElementSize() {
		t.Errorf("got element size %d, want %d", deref.ElementSize, types.WORD.ElementSize())
	}
}

func parseErr(t *testing.T, src string) error {
	t.Helper()
	p, err := New("t.il65", []byte(src))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = p.Parse()
	if err == nil {
		t.Fatal("expected a parse error, got none")
	}
	return err
}

func TestParseRejectsZeropageBlockWithCustomLoadAddress(t *testing.T) {
	parseErr(t, "~ZP 0x1000 {\n}\n")
}

func TestParseRejectsLoadAddressOutOfRange(t *testing.T) {
	parseErr(t, "~main 0x0100 {\n}\n")
}

func TestParseAcceptsLoadAddressInRange(t *testing.T) {
	parseOK(t, "~main 0xc000 {\n}\n")
}

func TestParseRejectsOversizedByteArray(t *testing.T) {
	parseErr(t, "~main {\n  var byte_array(999) x\n}\n")
}

func TestParseAcceptsByteArrayInRange(t *testing.T) {
	parseOK(t, "~main {\n  var byte_array(100) x\n}\n")
}

func TestParseRejectsOversizedMatrix(t *testing.T) {
	parseErr(t, "~main {\n  var matrix(200,200) m\n}\n")
}

func TestParseRejectsMatrixWithInterleaveThatIsNotMemoryMapped(t *testing.T) {
	parseErr(t, "~main {\n  var matrix(10,10,4) m\n}\n")
}

func TestParseAcceptsMemoryMappedMatrixWithInterleave(t *testing.T) {
	parseOK(t, "~main {\n  memory matrix(10,10,4) m = 0xd000\n}\n")
}

func TestParseRejectsDimensionOnScalarDatatype(t *testing.T) {
	parseErr(t, "~main {\n  var byte(4) x\n}\n")
}
