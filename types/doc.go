// Package types defines the data types, variable kinds and register
// alphabet shared by the il65 front-end (package ast) and the il65 virtual
// machine (packages vmprog, vm, vmsys). Nothing in this package depends on
// parsing or execution; it is the leaf of the module's dependency graph.
package types
