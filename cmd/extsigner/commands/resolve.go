package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/agiangrant/extsigner/internal/ffi"
)

// ResolveOptions selects the library and host to resolve for. Empty
// GOOS/GOARCH fall back to the running process.
type ResolveOptions struct {
	Name    string
	BaseDir string
	GOOS    string
	GOARCH  string
}

// Resolve implements the 'extsigner resolve' command. It reports the
// search candidates and the file that would be loaded, without loading.
func Resolve(w io.Writer, opts ResolveOptions) error {
	host := ffi.CurrentHost()
	if opts.GOOS != "" {
		host.GOOS = opts.GOOS
	}
	if opts.GOARCH != "" {
		host.GOARCH = opts.GOARCH
	}

	r, err := ffi.NewResolver(opts.Name, opts.BaseDir, host)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Library:  %s\n", r.Name)
	fmt.Fprintf(w, "Runtime:  %s\n", r.Target.RID())
	fmt.Fprintf(w, "File:     %s\n", r.FileName())
	fmt.Fprintf(w, "Base dir: %s\n", r.BaseDir)
	fmt.Fprintln(w, "Candidates:")
	for i, c := range r.Candidates() {
		fmt.Fprintf(w, "  %d. %s %s\n", i+1, c, existsMark(c))
	}
	fmt.Fprintf(w, "Selected: %s\n", r.Select())
	return nil
}

func existsMark(path string) string {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return "(missing)"
	case info.IsDir():
		return "(directory)"
	default:
		return "(found)"
	}
}
