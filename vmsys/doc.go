// Package vmsys implements the VM's memory, memory-mapped I/O, system call
// surface, the 5-byte MFLPT float codec and the character-screen viewer
// collaborator (§4.6).
package vmsys
