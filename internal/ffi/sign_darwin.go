//go:build darwin

package ffi

// purego returns small structs by value on darwin.
func bindSign(h Handle) (func(message, privateKey string) SignatureC, error) {
	var fn func(message, privateKey string) SignatureC
	if err := register(&fn, h, SymSign); err != nil {
		return nil, err
	}
	return fn, nil
}
