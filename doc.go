// Package extsigner loads the native Stark signer library shipped next to
// an application and exposes its entry points as Go methods.
//
// The library is located by logical name. For a process on linux/amd64 and
// the default name the search is:
//
//	<base>/librust_crypto_lib_base.so
//	<base>/runtimes/linux-x64/native/librust_crypto_lib_base.so
//
// where <base> is the directory of the executable unless configured
// otherwise. The first path is used if it exists; otherwise the second is
// handed to the OS loader.
//
// Usage:
//
//	cfg, err := extsigner.LoadConfig("")
//	if err != nil {
//		return err
//	}
//	s, err := extsigner.Open(cfg)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//	sig, err := s.Sign(msgHash, privateKey)
package extsigner
