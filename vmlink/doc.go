// Package vmlink flattens a block-structured vmprog.Program into the two
// linear instruction lists the interpreter runs, and links each
// instruction's Next/AltNext successor pointers (§4.4).
package vmlink
