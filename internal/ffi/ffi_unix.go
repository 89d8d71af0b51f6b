//go:build darwin || linux || freebsd

package ffi

import (
	"github.com/ebitengine/purego"
)

// openLibrary loads a dynamic library on Unix-like systems
func openLibrary(path string) (Handle, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return 0, err
	}
	return Handle(h), nil
}

// getSymbol retrieves a symbol from the loaded library
func getSymbol(h Handle, name string) (uintptr, error) {
	return purego.Dlsym(uintptr(h), name)
}

func closeLibrary(h Handle) error {
	if h == 0 {
		return nil
	}
	return purego.Dlclose(uintptr(h))
}
