// Package ast implements the il65 typed abstract syntax tree: a closed set
// of node variants wired into a parent/children tree, each carrying a
// source reference, plus the per-scope symbol table with dotted and bare
// lookup, float-constant interning and save-registers inheritance.
//
// Every non-root node has exactly one parent, equal to the node that
// contains it in its Children() list; mutating a tree through a Scope
// (AddNode, InsertNode, RemoveNode, ReplaceNode) keeps that invariant and
// keeps the Scope's symbol map consistent with the tree shape.
package ast
