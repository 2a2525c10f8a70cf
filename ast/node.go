package ast

import (
	"github.com/pkg/errors"

	"github.com/sixtyfive/il65/srcref"
)

// Node is the common envelope every AST variant satisfies: a source
// reference, a single mutable parent, and an ordered list of children.
//
// Parent back-references are non-owning: a node's lifetime is governed by
// its parent's children slice, not by the parent pointer.
type Node interface {
	SourceRef() srcref.SourceRef
	Parent() Node
	Children() []Node

	setParent(Node)
}

// base is embedded by every concrete node type and supplies the uniform
// parent/children bookkeeping. Variants with scope-table side effects
// (Scope itself) add their own AddNode/InsertNode/RemoveNode/ReplaceNode on
// top of the embedded base instead of relying on it directly.
type base struct {
	ref      srcref.SourceRef
	parent   Node
	children []Node
}

func newBase(ref srcref.SourceRef) base {
	return base{ref: ref}
}

func (b *base) SourceRef() srcref.SourceRef { return b.ref }
func (b *base) Parent() Node                { return b.parent }
func (b *base) Children() []Node            { return b.children }
func (b *base) setParent(p Node)            { b.parent = p }

// addChild appends newChild to self's children, wiring its parent to self.
// self must be the Node embedding this base (passed explicitly since Go
// cannot recover the outer pointer from an embedded struct).
func (b *base) addChild(self Node, newChild Node) {
	b.children = append(b.children, newChild)
	newChild.setParent(self)
}

// insertChild inserts newChild at index, wiring its parent to self.
func (b *base) insertChild(self Node, index int, newChild Node) {
	b.children = append(b.children, nil)
	copy(b.children[index+1:], b.children[index:])
	b.children[index] = newChild
	newChild.setParent(self)
}

// removeChild detaches child from self's children. Returns an error if
// child is not actually a child of self.
func (b *base) removeChild(child Node) error {
	for i, c := range b.children {
		if c == child {
			b.children = append(b.children[:i], b.children[i+1:]...)
			child.setParent(nil)
			return nil
		}
	}
	return errors.Errorf("node is not a child of this parent")
}

// replaceChild substitutes newChild for oldChild in place, preserving index.
func (b *base) replaceChild(self Node, oldChild, newChild Node) error {
	for i, c := range b.children {
		if c == oldChild {
			b.children[i] = newChild
			newChild.setParent(self)
			oldChild.setParent(nil)
			return nil
		}
	}
	return errors.Errorf("node is not a child of this parent")
}

// LinkParents walks the tree rooted at root top-down, setting every node's
// parent field to match its position in its container's Children() list.
// This is run once after the parse tree is fully built (§4.2).
func LinkParents(root Node) {
	for _, c := range root.Children() {
		if c == nil {
			continue
		}
		c.setParent(root)
		LinkParents(c)
	}
}

// EnclosingScope returns the closest Scope in n's ancestry (never n itself,
// even when n is a *Scope), or nil if none is found.
func EnclosingScope(n Node) *Scope {
	p := n.Parent()
	for p != nil {
		if s, ok := p.(*Scope); ok {
			return s
		}
		p = p.Parent()
	}
	return nil
}

// AllNodes yields every descendant of n (not including n) in depth-first,
// parent-before-children order, keeping only the nodes for which match
// returns true. If match is nil, every node is yielded.
func AllNodes(n Node, match func(Node) bool) []Node {
	var out []Node
	for _, c := range n.Children() {
		if c == nil {
			continue
		}
		if match == nil || match(c) {
			out = append(out, c)
		}
		out = append(out, AllNodes(c, match)...)
	}
	return out
}
