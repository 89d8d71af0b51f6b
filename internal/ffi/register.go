//go:build darwin || linux || freebsd || windows

package ffi

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// register wraps purego.RegisterLibFunc, which panics on unsupported
// signatures (struct returns are not available on every platform).
func register[T any](fn *T, h Handle, name string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("register %s: %v", name, r)
		}
	}()
	purego.RegisterLibFunc(fn, uintptr(h), name)
	return nil
}
