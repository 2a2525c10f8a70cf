// Package vmio provides the small console I/O helpers vmsys's syscalls use:
// ErrWriter, a writer that keeps the first write error, and LineReader,
// which reads one line at a time with its line terminator stripped.
package vmio
