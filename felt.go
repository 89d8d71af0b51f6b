package extsigner

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	// ErrInvalidFelt marks a value that is not a field element in hex.
	ErrInvalidFelt = errors.New("invalid field element")
	// ErrInvalidArgument marks any other malformed argument.
	ErrInvalidArgument = errors.New("invalid argument")
)

// starkPrime is 2^251 + 17*2^192 + 1.
var starkPrime = func() *big.Int {
	p := new(big.Int).Lsh(big.NewInt(1), 251)
	p.Add(p, new(big.Int).Lsh(big.NewInt(17), 192))
	return p.Add(p, big.NewInt(1))
}()

// ArgumentError describes an argument rejected before reaching native code.
type ArgumentError struct {
	Field string
	Value string
	Err   error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// normalizeFelt checks that s is a hex field element and returns it in
// 0x-prefixed lower case.
func normalizeFelt(field, s string) (string, error) {
	digits := strings.TrimSpace(s)
	if len(digits) >= 2 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		digits = digits[2:]
	}
	if digits == "" || len(digits) > 64 {
		return "", &ArgumentError{Field: field, Value: s, Err: ErrInvalidFelt}
	}
	for _, c := range digits {
		if !isHexDigit(c) {
			return "", &ArgumentError{Field: field, Value: s, Err: ErrInvalidFelt}
		}
	}

	v, ok := new(big.Int).SetString(digits, 16)
	if !ok || v.Cmp(starkPrime) >= 0 {
		return "", &ArgumentError{Field: field, Value: s, Err: ErrInvalidFelt}
	}
	return "0x" + strings.ToLower(digits), nil
}

func isHexDigit(c rune) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func checkText(field, s string) error {
	if s == "" || strings.ContainsRune(s, 0) {
		return &ArgumentError{Field: field, Value: s, Err: ErrInvalidArgument}
	}
	return nil
}
