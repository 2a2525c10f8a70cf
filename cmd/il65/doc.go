// Command il65 compiles and runs il65 source files on the stack-based
// virtual machine defined by the vm package.
//
// Usage:
//
//	-disasm
//		  print the linked main program's disassembly instead of running it
//	-dump
//		  dump the stack and the last popped values upon an execution error
//	-noraw
//		  disable raw terminal IO
//	-stats
//		  print execution statistics upon exit
//	-zp-addr int
//		  base address of the memory-mapped screen/keyboard region (default 53248)
//
// The positional argument is the il65 source file to compile and run.
package main
