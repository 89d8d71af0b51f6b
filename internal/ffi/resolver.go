package ffi

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Handle is an opaque handle to a loaded native module.
type Handle uintptr

// ResolverFunc is consulted when a native module is first needed.
// Returning ok == false means the resolver has no opinion about name and
// the default search should proceed.
type ResolverFunc func(name string) (h Handle, ok bool, err error)

// Resolver maps one logical library name onto the flat or runtimes/
// package layout below BaseDir.
type Resolver struct {
	// Name is the logical library name this resolver answers for.
	Name    string
	BaseDir string
	Target  Target

	// Stat and Open default to os.Stat and the OS dynamic loader.
	Stat func(string) (fs.FileInfo, error)
	Open func(string) (Handle, error)
}

// NewResolver returns a Resolver for name using the host facts in h.
// An empty baseDir selects the directory of the running executable.
func NewResolver(name, baseDir string, h Host) (*Resolver, error) {
	if name == "" {
		return nil, fmt.Errorf("resolver: empty library name")
	}
	target, err := Detect(h)
	if err != nil {
		return nil, err
	}
	if baseDir == "" {
		if baseDir, err = AppBaseDir(); err != nil {
			return nil, err
		}
	}
	if baseDir, err = filepath.Abs(baseDir); err != nil {
		return nil, fmt.Errorf("resolver: base dir: %w", err)
	}
	return &Resolver{
		Name:    name,
		BaseDir: baseDir,
		Target:  target,
		Stat:    os.Stat,
		Open:    openLibrary,
	}, nil
}

// AppBaseDir returns the directory containing the running executable.
func AppBaseDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// FileName returns the platform file name for the resolver's library.
func (r *Resolver) FileName() string {
	return r.Target.FileName(r.Name)
}

// Candidates returns the flat path followed by the runtimes/ path.
func (r *Resolver) Candidates() [2]string {
	file := r.FileName()
	return [2]string{
		filepath.Join(r.BaseDir, file),
		filepath.Join(r.BaseDir, "runtimes", r.Target.RID(), "native", file),
	}
}

// Select returns the candidate that Resolve would hand to the loader.
// Only the flat candidate is checked for existence.
func (r *Resolver) Select() string {
	c := r.Candidates()
	if r.exists(c[0]) {
		return c[0]
	}
	return c[1]
}

// Resolve loads the library if requested matches the resolver's name.
// Loader errors are returned as-is.
func (r *Resolver) Resolve(requested string) (Handle, bool, error) {
	h, _, ok, err := r.ResolvePath(requested)
	return h, ok, err
}

// ResolvePath is Resolve that also reports the path handed to the loader.
// The path is empty when requested is declined.
func (r *Resolver) ResolvePath(requested string) (Handle, string, bool, error) {
	if requested != r.Name {
		return 0, "", false, nil
	}

	path := r.Select()
	Logger().Debug("resolved native library",
		zap.String("name", r.Name),
		zap.String("rid", r.Target.RID()),
		zap.String("path", path))

	h, err := r.open(path)
	if err != nil {
		Logger().Debug("native library load failed",
			zap.String("path", path),
			zap.Error(err))
		return 0, path, true, err
	}
	return h, path, true, nil
}

// Func adapts r for registration with a Loader.
func (r *Resolver) Func() ResolverFunc {
	return r.Resolve
}

func (r *Resolver) exists(path string) bool {
	stat := r.Stat
	if stat == nil {
		stat = os.Stat
	}
	info, err := stat(path)
	return err == nil && !info.IsDir()
}

func (r *Resolver) open(path string) (Handle, error) {
	if r.Open != nil {
		return r.Open(path)
	}
	return openLibrary(path)
}
