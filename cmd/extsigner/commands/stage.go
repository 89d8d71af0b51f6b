package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/agiangrant/extsigner/internal/ffi"
)

// StageOptions describes one library to place into the package layout.
type StageOptions struct {
	// Built library file
	Lib string
	// Logical library name used for the destination file name
	Name   string
	OutDir string
	Target ffi.Target
	// Flat places the file directly in OutDir instead of runtimes/<rid>/native
	Flat bool
}

// StagePath returns the destination for opts without touching the disk.
func StagePath(opts StageOptions) string {
	file := opts.Target.FileName(opts.Name)
	if opts.Flat {
		return filepath.Join(opts.OutDir, file)
	}
	return filepath.Join(opts.OutDir, "runtimes", opts.Target.RID(), "native", file)
}

// Stage implements the 'extsigner stage' command. It copies a built
// library to the path the resolver searches for its target.
func Stage(w io.Writer, opts StageOptions) (string, error) {
	if opts.Name == "" {
		return "", fmt.Errorf("library name is required")
	}
	info, err := os.Stat(opts.Lib)
	if err != nil {
		return "", fmt.Errorf("library not found: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", opts.Lib)
	}

	dst := StagePath(opts)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := copyFile(opts.Lib, dst, info.Mode().Perm()); err != nil {
		return "", fmt.Errorf("failed to copy library: %w", err)
	}

	fmt.Fprintf(w, "✓ Staged %s -> %s\n", opts.Lib, dst)
	return dst, nil
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
