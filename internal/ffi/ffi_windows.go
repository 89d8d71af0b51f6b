//go:build windows

package ffi

import (
	"golang.org/x/sys/windows"
)

// openLibrary loads a dynamic library on Windows
func openLibrary(path string) (Handle, error) {
	h, err := windows.LoadLibrary(path)
	if err != nil {
		return 0, err
	}
	// HMODULE, usable with purego.RegisterLibFunc
	return Handle(h), nil
}

// getSymbol retrieves a symbol from the loaded library on Windows
func getSymbol(h Handle, name string) (uintptr, error) {
	return windows.GetProcAddress(windows.Handle(h), name)
}

func closeLibrary(h Handle) error {
	if h == 0 {
		return nil
	}
	return windows.FreeLibrary(windows.Handle(h))
}
