// Package ffi locates, loads and binds the native signer module via purego.
//
// Prebuilt binaries are shipped for every supported platform in one of two
// layouts below the application base directory:
//
//	<base>/<prefix><name><ext>
//	<base>/runtimes/<os>-<arch>/native/<prefix><name><ext>
//
// The flat layout is produced by single-directory publishing and is tried
// first; the runtimes/ layout is the multi-platform package layout.
package ffi
