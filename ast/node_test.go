package ast

import (
	"testing"

	"github.com/sixtyfive/il65/srcref"
	"github.com/sixtyfive/il65/types"
)

func ref(line int) srcref.SourceRef {
	return srcref.SourceRef{File: "t.il65", Line: line, Column: 1}
}

func TestParentChildInvariant(t *testing.T) {
	mod := NewModule(ref(1), "t.il65")
	sc := NewScope(ref(1), types.ScopeModule)
	mod.SetScope(sc)

	v := NewVarDef(ref(2), "x", types.VarKindVar, types.BYTE)
	if err := sc.AddNode(v); err != nil {
		t.Fatal(err)
	}

	if v.Parent() != Node(sc) {
		t.Errorf("VarDef parent = %v, want scope", v.Parent())
	}
	found := false
	for _, c := range sc.Children() {
		if c == Node(v) {
			found = true
		}
	}
	if !found {
		t.Errorf("VarDef not found in scope children")
	}
}

func TestRemoveNodeUnindexes(t *testing.T) {
	sc := NewScope(ref(1), types.ScopeBlock)
	lbl := NewLabel(ref(2), "loop")
	if err := sc.AddNode(lbl); err != nil {
		t.Fatal(err)
	}
	if _, ok := sc.Symbols()["loop"]; !ok {
		t.Fatalf("expected loop indexed")
	}
	if err := sc.RemoveNode(lbl); err != nil {
		t.Fatal(err)
	}
	if _, ok := sc.Symbols()["loop"]; ok {
		t.Errorf("expected loop unindexed after removal")
	}
	if lbl.Parent() != nil {
		t.Errorf("expected detached label to have nil parent")
	}
}

func TestDuplicateSymbolFails(t *testing.T) {
	sc := NewScope(ref(1), types.ScopeBlock)
	v1 := NewVarDef(ref(2), "x", types.VarKindVar, types.BYTE)
	v2 := NewVarDef(ref(3), "x", types.VarKindVar, types.BYTE)
	if err := sc.AddNode(v1); err != nil {
		t.Fatal(err)
	}
	if err := sc.AddNode(v2); err == nil {
		t.Errorf("expected duplicate-symbol error")
	}
}

func TestZPBlockAllowsDuplicate(t *testing.T) {
	sc := NewScope(ref(1), types.ScopeModule)
	zp1 := NewBlock(ref(2), "ZP")
	zp1.SetScope(NewScope(ref(2), types.ScopeBlock))
	zp2 := NewBlock(ref(3), "ZP")
	zp2.SetScope(NewScope(ref(3), types.ScopeBlock))
	if err := sc.AddNode(zp1); err != nil {
		t.Fatal(err)
	}
	if err := sc.AddNode(zp2); err != nil {
		t.Errorf("expected ZP duplication to be allowed, got %v", err)
	}
}

func TestIncrDecrNormalizesNegativeAmount(t *testing.T) {
	target := NewSymbolName(ref(1), "x")
	id := NewIncrDecr(ref(1), target, OpIncr, -3)
	if id.Op != OpDecr || id.Amount != 3 {
		t.Errorf("got op=%v amount=%d, want op=-- amount=3", id.Op, id.Amount)
	}
}
