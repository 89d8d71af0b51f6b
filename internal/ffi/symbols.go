package ffi

import (
	"errors"
	"fmt"
	"unsafe"

	"go.uber.org/zap"
)

// Exported symbol names of the native signer module.
const (
	SymSign        = "starknet_sign"
	SymOrderHash   = "get_order_hash"
	SymFreeString1 = "free_c_string_1"
	SymFreeString2 = "free_c_string_2"
	SymFreeString3 = "free_c_string_3"
)

// SignatureC matches the C struct returned by starknet_sign: three
// NUL-terminated hex strings owned by the native side.
type SignatureC struct {
	R uintptr
	S uintptr
	V uintptr
}

// EntryPoints is the function table of the native signer module.
type EntryPoints struct {
	Sign func(message, privateKey string) SignatureC

	OrderHash func(
		positionID uint32,
		baseAssetID string,
		baseAmount int64,
		quoteAssetID string,
		quoteAmount int64,
		feeAssetID string,
		feeAmount uint64,
		expiration uint64,
		salt uint64,
		userPublicKey string,
		domainChainID string,
	) uintptr

	FreeString1 func(s1 uintptr)
	FreeString2 func(s1, s2 uintptr)
	FreeString3 func(s1, s2, s3 uintptr)
}

// ErrUnsupported is returned when an entry point exists but cannot be called
// on the host platform.
var ErrUnsupported = errors.New("not supported on this platform")

// MissingSymbolError reports an entry point the module does not export.
type MissingSymbolError struct {
	Symbol string
	Err    error
}

func (e *MissingSymbolError) Error() string {
	return fmt.Sprintf("native symbol %s not found: %v", e.Symbol, e.Err)
}

func (e *MissingSymbolError) Unwrap() error { return e.Err }

// Bind resolves every entry point in h. All symbols are checked before any
// function is registered. Sign is left nil when the host has no way to call
// a function returning SignatureC by value.
func Bind(h Handle) (*EntryPoints, error) {
	if h == 0 {
		return nil, fmt.Errorf("bind: nil library handle")
	}

	syms := []string{SymSign, SymOrderHash, SymFreeString1, SymFreeString2, SymFreeString3}
	for _, name := range syms {
		if _, err := getSymbol(h, name); err != nil {
			return nil, &MissingSymbolError{Symbol: name, Err: err}
		}
	}

	ep := &EntryPoints{}
	sign, err := bindSign(h)
	switch {
	case errors.Is(err, ErrUnsupported):
		Logger().Debug("native entry point unavailable", zap.String("symbol", SymSign), zap.Error(err))
	case err != nil:
		return nil, err
	default:
		ep.Sign = sign
	}
	if err := register(&ep.OrderHash, h, SymOrderHash); err != nil {
		return nil, err
	}
	if err := register(&ep.FreeString1, h, SymFreeString1); err != nil {
		return nil, err
	}
	if err := register(&ep.FreeString2, h, SymFreeString2); err != nil {
		return nil, err
	}
	if err := register(&ep.FreeString3, h, SymFreeString3); err != nil {
		return nil, err
	}
	return ep, nil
}

// maxCStringLen bounds GoString scans of unterminated memory.
const maxCStringLen = 1 << 20

// GoString copies a NUL-terminated C string into Go memory.
func GoString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	var length int
	for length < maxCStringLen {
		if *(*byte)(unsafe.Pointer(ptr + uintptr(length))) == 0 {
			break
		}
		length++
	}
	if length == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(ptr)), length))
}
