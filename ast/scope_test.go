package ast

import (
	"testing"

	"github.com/sixtyfive/il65/types"
)

func buildNestedModule(t *testing.T) (*Module, *Scope, *Scope) {
	t.Helper()
	mod := NewModule(ref(1), "t.il65")
	modScope := NewScope(ref(1), types.ScopeModule)
	mod.SetScope(modScope)

	main := NewBlock(ref(2), "main")
	mainScope := NewScope(ref(2), types.ScopeBlock)
	main.SetScope(mainScope)
	if err := modScope.AddNode(main); err != nil {
		t.Fatal(err)
	}

	v := NewVarDef(ref(3), "x", types.VarKindVar, types.BYTE)
	if err := mainScope.AddNode(v); err != nil {
		t.Fatal(err)
	}
	LinkParents(mod)
	return mod, modScope, mainScope
}

func TestDottedLookup(t *testing.T) {
	_, _, mainScope := buildNestedModule(t)

	sym, err := mainScope.Lookup("main.x")
	if err != nil {
		t.Fatal(err)
	}
	if sym.Name() != "x" {
		t.Errorf("got %q, want x", sym.Name())
	}
}

func TestBareLookupAscendsScopes(t *testing.T) {
	_, modScope, mainScope := buildNestedModule(t)
	_ = modScope

	sym, err := mainScope.Lookup("x")
	if err != nil {
		t.Fatal(err)
	}
	if sym.Name() != "x" {
		t.Errorf("got %q, want x", sym.Name())
	}
}

func TestBareLookupUndefined(t *testing.T) {
	_, _, mainScope := buildNestedModule(t)
	if _, err := mainScope.Lookup("nope"); err == nil {
		t.Errorf("expected undefined symbol error")
	}
}

func TestDottedAndBareLookupAgree(t *testing.T) {
	// Property test #3: sequential bare lookups along nested scopes reach
	// the same node that a dotted lookup resolves to.
	_, modScope, mainScope := buildNestedModule(t)

	dotted, err := modScope.Lookup("main.x")
	if err != nil {
		t.Fatal(err)
	}
	bare, err := mainScope.Lookup("x")
	if err != nil {
		t.Fatal(err)
	}
	if dotted != bare {
		t.Errorf("dotted and bare lookup resolved to different nodes")
	}
}

func TestFloatConstInterning(t *testing.T) {
	sc := NewScope(ref(1), types.ScopeBlock)
	n1 := sc.DefineFloatConstant(3.14)
	n2 := sc.DefineFloatConstant(3.14)
	if n1 != n2 {
		t.Errorf("expected same interned name, got %q and %q", n1, n2)
	}
	if n1 != "il65_float_const_1" {
		t.Errorf("got %q, want il65_float_const_1", n1)
	}
	n3 := sc.DefineFloatConstant(2.71)
	if n3 == n1 {
		t.Errorf("expected distinct name for distinct value")
	}
}

func TestSaveRegistersInheritance(t *testing.T) {
	outer := NewScope(ref(1), types.ScopeBlock)
	inner := NewScope(ref(2), types.ScopeSub)
	outer.addChild(outer, inner)

	if inner.SaveRegisters() != false {
		t.Errorf("expected default false")
	}
	outer.SetSaveRegisters(true)
	if inner.SaveRegisters() != true {
		t.Errorf("expected inherited true")
	}
	inner.SetSaveRegisters(false)
	if inner.SaveRegisters() != false {
		t.Errorf("expected local override false")
	}
}
