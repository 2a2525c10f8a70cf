//go:build linux || darwin

package main

import (
	"os"

	"golang.org/x/term"
)

func setRawIO() (func(), error) {
	fd := int(os.Stdin.Fd())
	prev, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return func() { term.Restore(fd, prev) }, nil
}
