//go:build windows

package main

import "errors"

func setRawIO() (func(), error) {
	return nil, errors.New("raw IO not supported on this platform")
}
