package vmsys

// ReadOnlyWriteError is raised by a Memory write that lands inside a
// range marked read-only via MarkReadOnly (§4.6).
type ReadOnlyWriteError struct {
	Address int
}

func (e *ReadOnlyWriteError) Error() string {
	return "write to read-only memory address"
}
