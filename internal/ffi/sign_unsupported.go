//go:build !darwin && !((linux || freebsd || windows) && amd64)

package ffi

func bindSign(h Handle) (func(message, privateKey string) SignatureC, error) {
	return nil, ErrUnsupported
}
