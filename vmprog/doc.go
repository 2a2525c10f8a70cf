// Package vmprog models the VM's pre-link program graph: instructions,
// blocks, variables and the opcode set the interpreter dispatches on
// (§3.2, §4.4). It carries no execution logic of its own -- vmlink
// flattens and links it, vm executes the result.
package vmprog
