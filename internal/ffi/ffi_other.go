//go:build !darwin && !linux && !freebsd && !windows

package ffi

import (
	"fmt"
	"runtime"
)

func openLibrary(path string) (Handle, error) {
	return 0, fmt.Errorf("dynamic loading not supported on %s", runtime.GOOS)
}

func getSymbol(h Handle, name string) (uintptr, error) {
	return 0, fmt.Errorf("dynamic loading not supported on %s", runtime.GOOS)
}

func closeLibrary(h Handle) error {
	return nil
}

func register[T any](fn *T, h Handle, name string) error {
	return fmt.Errorf("register %s: dynamic loading not supported on %s", name, runtime.GOOS)
}
