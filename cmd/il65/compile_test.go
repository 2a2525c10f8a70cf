package main

import (
	"testing"

	"github.com/sixtyfive/il65/constfold"
	"github.com/sixtyfive/il65/parser"
	"github.com/sixtyfive/il65/vm"
	"github.com/sixtyfive/il65/vmlink"
	"github.com/sixtyfive/il65/vmprog"
)

func TestCompileRunAddAndCall(t *testing.T) {
	src := `~main {
  var byte a = 2
  var byte b = 3

  sub addone(x byte) -> byte {
    return x + 1
  }

  sub start() {
    a = a + b
    b = addone(a)
  }

  start()
}
`
	p, err := parser.New("t.il65", []byte(src))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mod, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	prog, err := CompileModule(mod)
	if err != nil {
		t.Fatalf("CompileModule: %v", err)
	}
	mainInstrs, timerInstrs, vars, labels, err := vmlink.FlattenPrograms(prog, nil)
	if err != nil {
		t.Fatalf("FlattenPrograms: %v", err)
	}
	if err := vmlink.Link(mainInstrs, labels); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if len(timerInstrs) != 0 {
		t.Fatalf("expected no timer program, got %d instructions", len(timerInstrs))
	}
	instance, err := vm.New(mainInstrs, timerInstrs, vars, labels)
	if err != nil {
		t.Fatalf("vm.New: %v", err)
	}
	if err := instance.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	av, ok := vars["main.a"]
	if !ok {
		t.Fatalf("expected a variable named main.a, got %v", keysOf(vars))
	}
	if av.Value.I != 5 {
		t.Fatalf("got a=%d, want 5", av.Value.I)
	}
	bv, ok := vars["main.b"]
	if !ok {
		t.Fatalf("expected a variable named main.b, got %v", keysOf(vars))
	}
	if bv.Value.I != 6 {
		t.Fatalf("got b=%d, want 6 (a+b then addone(a))", bv.Value.I)
	}
}

func keysOf(m map[string]*vmprog.Variable) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestCompileRejectsBitwiseAndOutsideConstantFolding(t *testing.T) {
	src := `~main {
  var byte a = 1
  var byte b = 2
  var byte c = 0
  c = a & b
}
`
	p, err := parser.New("t.il65", []byte(src))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mod, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = CompileModule(mod)
	if err == nil {
		t.Fatal("expected a CompileError for runtime bitwise &")
	}
	if _, ok := err.(*CompileError); !ok {
		t.Fatalf("got %T, want *CompileError", err)
	}
}

func TestCompileRejectsOutOfRangeByteInitializer(t *testing.T) {
	src := `~main {
  var byte b = 300
}
`
	p, err := parser.New("t.il65", []byte(src))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mod, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = CompileModule(mod)
	if err == nil {
		t.Fatal("expected an OverflowError for 300 into a byte")
	}
	if _, ok := err.(*constfold.OverflowError); !ok {
		t.Fatalf("got %T, want *constfold.OverflowError", err)
	}
}

func TestCompileFoldsConstantBitwiseAnd(t *testing.T) {
	src := `~main {
  const byte mask = 12 & 10
}
`
	p, err := parser.New("t.il65", []byte(src))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mod, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := CompileModule(mod); err != nil {
		t.Fatalf("CompileModule: %v, want a constant-folded const to compile cleanly", err)
	}
}

func TestCompileFoldsNestedConstantSubexpression(t *testing.T) {
	// The outer '+' is runtime (x is not const), but its right operand
	// "(12 & 10)" is fully constant and must be folded rather than
	// rejected, even though it's nested inside a non-const expression.
	src := `~main {
  var byte x = 1
  var byte y = 0
  y = x + (12 & 10)
}
`
	p, err := parser.New("t.il65", []byte(src))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mod, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	prog, err := CompileModule(mod)
	if err != nil {
		t.Fatalf("CompileModule: %v, want the nested constant & to fold cleanly", err)
	}
	mainInstrs, timerInstrs, vars, labels, err := vmlink.FlattenPrograms(prog, nil)
	if err != nil {
		t.Fatalf("FlattenPrograms: %v", err)
	}
	if err := vmlink.Link(mainInstrs, labels); err != nil {
		t.Fatalf("Link: %v", err)
	}
	instance, err := vm.New(mainInstrs, timerInstrs, vars, labels)
	if err != nil {
		t.Fatalf("vm.New: %v", err)
	}
	if err := instance.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	yv, ok := vars["main.y"]
	if !ok {
		t.Fatalf("expected a variable named main.y, got %v", keysOf(vars))
	}
	if yv.Value.I != 9 {
		t.Fatalf("got y=%d, want 9 (1 + (12&10)=1+8)", yv.Value.I)
	}
}

func TestCompileSiblingSubroutinesWithSameNamedParamsDoNotCollide(t *testing.T) {
	// Two subroutines in the same block each declare a parameter named
	// "x"; their compiled bodies must not be run by ordinary fallthrough
	// (only by CALL), and their same-named locals must not collide in the
	// enclosing block's shared variable namespace.
	src := `~main {
  var byte result = 0

  sub addone(x byte) -> byte {
    return x + 1
  }

  sub double(x byte) -> byte {
    return x * 2
  }

  result = addone(double(3))
}
`
	p, err := parser.New("t.il65", []byte(src))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mod, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	prog, err := CompileModule(mod)
	if err != nil {
		t.Fatalf("CompileModule: %v", err)
	}
	mainInstrs, timerInstrs, vars, labels, err := vmlink.FlattenPrograms(prog, nil)
	if err != nil {
		t.Fatalf("FlattenPrograms: %v", err)
	}
	if err := vmlink.Link(mainInstrs, labels); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if _, ok := vars["main.addone.x"]; !ok {
		t.Fatalf("expected a mangled variable main.addone.x, got %v", keysOf(vars))
	}
	if _, ok := vars["main.double.x"]; !ok {
		t.Fatalf("expected a mangled variable main.double.x, got %v", keysOf(vars))
	}
	instance, err := vm.New(mainInstrs, timerInstrs, vars, labels)
	if err != nil {
		t.Fatalf("vm.New: %v", err)
	}
	if err := instance.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	rv, ok := vars["main.result"]
	if !ok {
		t.Fatalf("expected a variable named main.result, got %v", keysOf(vars))
	}
	if rv.Value.I != 7 {
		t.Fatalf("got result=%d, want 7 (double(3)=6, addone(6)=7)", rv.Value.I)
	}
}

func TestCompileRejectsInlineAssembly(t *testing.T) {
	src := "~main {\n  asm {\n    nop\n  }\n}\n"
	p, err := parser.New("t.il65", []byte(src))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mod, err := p.Parse()
	if err != nil {
		t.Skipf("parser does not accept this inline-asm fixture, skipping: %v", err)
	}
	_, err = CompileModule(mod)
	if err == nil {
		t.Fatal("expected a CompileError for an inline assembly body")
	}
}
