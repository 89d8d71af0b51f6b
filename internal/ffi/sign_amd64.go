//go:build (linux || freebsd || windows) && amd64

package ffi

import (
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
)

// SignatureC is larger than two registers, so both the SysV and Win64
// conventions return it through a caller-allocated buffer passed as a
// hidden first argument.
func bindSign(h Handle) (func(message, privateKey string) SignatureC, error) {
	fn, err := getSymbol(h, SymSign)
	if err != nil {
		return nil, err
	}
	return func(message, privateKey string) SignatureC {
		m := cstring(message)
		k := cstring(privateKey)
		out := new(SignatureC)
		purego.SyscallN(fn,
			uintptr(unsafe.Pointer(out)),
			uintptr(unsafe.Pointer(&m[0])),
			uintptr(unsafe.Pointer(&k[0])),
		)
		runtime.KeepAlive(m)
		runtime.KeepAlive(k)
		return *out
	}, nil
}

func cstring(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}
