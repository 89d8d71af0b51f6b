package ffi

import (
	"errors"
	"runtime"
	"strings"
	"testing"
	"unsafe"
)

func cstr(s string) (uintptr, []byte) {
	buf := append([]byte(s), 0)
	return uintptr(unsafe.Pointer(&buf[0])), buf
}

func TestGoString(t *testing.T) {
	if got := GoString(0); got != "" {
		t.Errorf("GoString(0) = %q, want empty", got)
	}

	for _, s := range []string{"", "0x1", "0x" + strings.Repeat("ab", 32)} {
		ptr, buf := cstr(s)
		if got := GoString(ptr); got != s {
			t.Errorf("GoString() = %q, want %q", got, s)
		}
		runtime.KeepAlive(buf)
	}
}

func TestBindNilHandle(t *testing.T) {
	if _, err := Bind(0); err == nil {
		t.Error("Bind(0) expected error")
	}
}

func TestMissingSymbolError(t *testing.T) {
	cause := errors.New("undefined symbol")
	var err error = &MissingSymbolError{Symbol: SymSign, Err: cause}

	if !errors.Is(err, cause) {
		t.Error("MissingSymbolError does not unwrap to its cause")
	}
	var mse *MissingSymbolError
	if !errors.As(err, &mse) || mse.Symbol != "starknet_sign" {
		t.Errorf("errors.As() = %v", mse)
	}
	if !strings.Contains(err.Error(), "starknet_sign") {
		t.Errorf("Error() = %q, want symbol name", err.Error())
	}
}
