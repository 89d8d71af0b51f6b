package ffi

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeOS records the filesystem and loader calls a Resolver makes.
type fakeOS struct {
	files   map[string]bool
	stats   []string
	opens   []string
	openErr error
}

func (f *fakeOS) stat(path string) (fs.FileInfo, error) {
	f.stats = append(f.stats, path)
	if f.files[path] {
		return os.Stat(os.Args[0])
	}
	return nil, fs.ErrNotExist
}

func (f *fakeOS) open(path string) (Handle, error) {
	f.opens = append(f.opens, path)
	if f.openErr != nil {
		return 0, f.openErr
	}
	return Handle(0x1234), nil
}

// appDir is the absolute form of /app on the test host.
func appDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.Abs(filepath.FromSlash("/app"))
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

func newTestResolver(t *testing.T, name string, h Host, f *fakeOS) *Resolver {
	t.Helper()
	r, err := NewResolver(name, appDir(t), h)
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	r.Stat = f.stat
	r.Open = f.open
	return r
}

func TestResolverCandidates(t *testing.T) {
	base := appDir(t)
	tests := []struct {
		host Host
		flat string
		rt   string
	}{
		{Host{"windows", "386"}, "signer.dll", "runtimes/win-x86/native/signer.dll"},
		{Host{"windows", "amd64"}, "signer.dll", "runtimes/win-x64/native/signer.dll"},
		{Host{"windows", "arm64"}, "signer.dll", "runtimes/win-arm64/native/signer.dll"},
		{Host{"darwin", "amd64"}, "signer.dylib", "runtimes/osx-x64/native/signer.dylib"},
		{Host{"darwin", "arm64"}, "signer.dylib", "runtimes/osx-arm64/native/signer.dylib"},
		{Host{"linux", "386"}, "libsigner.so", "runtimes/linux-x86/native/libsigner.so"},
		{Host{"linux", "amd64"}, "libsigner.so", "runtimes/linux-x64/native/libsigner.so"},
		{Host{"linux", "arm64"}, "libsigner.so", "runtimes/linux-arm64/native/libsigner.so"},
	}

	for _, tt := range tests {
		t.Run(tt.host.GOOS+"/"+tt.host.GOARCH, func(t *testing.T) {
			r := newTestResolver(t, "signer", tt.host, &fakeOS{})
			got := r.Candidates()
			if want := filepath.Join(base, tt.flat); got[0] != want {
				t.Errorf("Candidates()[0] = %q, want %q", got[0], want)
			}
			if want := filepath.Join(base, filepath.FromSlash(tt.rt)); got[1] != want {
				t.Errorf("Candidates()[1] = %q, want %q", got[1], want)
			}
		})
	}
}

func TestResolveRuntimesFallback(t *testing.T) {
	f := &fakeOS{}
	r := newTestResolver(t, "signer", Host{"linux", "amd64"}, f)
	want := filepath.Join(appDir(t), "runtimes", "linux-x64", "native", "libsigner.so")
	f.files = map[string]bool{want: true}

	h, ok, err := r.Resolve("signer")
	if err != nil || !ok {
		t.Fatalf("Resolve() = (%v, %v, %v)", h, ok, err)
	}
	if h != Handle(0x1234) {
		t.Errorf("handle = %#x, want 0x1234", h)
	}
	if len(f.opens) != 1 || f.opens[0] != want {
		t.Errorf("opens = %v, want [%s]", f.opens, want)
	}
	// Only the flat candidate is checked.
	if len(f.stats) != 1 {
		t.Errorf("stats = %v, want exactly one", f.stats)
	}
}

func TestResolveFlatFirst(t *testing.T) {
	f := &fakeOS{}
	r := newTestResolver(t, "signer", Host{"windows", "386"}, f)
	flat := filepath.Join(appDir(t), "signer.dll")
	f.files = map[string]bool{flat: true}

	if _, ok, err := r.Resolve("signer"); err != nil || !ok {
		t.Fatalf("Resolve() ok=%v err=%v", ok, err)
	}
	if len(f.opens) != 1 || f.opens[0] != flat {
		t.Errorf("opens = %v, want [%s]", f.opens, flat)
	}
	for _, p := range f.stats {
		if p != flat {
			t.Errorf("unexpected stat of %s", p)
		}
	}
}

func TestResolvePropagatesLoaderError(t *testing.T) {
	loadErr := errors.New("dlopen: image not found")
	f := &fakeOS{openErr: loadErr}
	r := newTestResolver(t, "signer", Host{"darwin", "arm64"}, f)

	h, ok, err := r.Resolve("signer")
	if !ok {
		t.Fatal("Resolve() declined a matching name")
	}
	if err != loadErr {
		t.Errorf("error = %v, want loader error unchanged", err)
	}
	if h != 0 {
		t.Errorf("handle = %#x, want 0", h)
	}
	want := filepath.Join(appDir(t), "runtimes", "osx-arm64", "native", "signer.dylib")
	if len(f.opens) != 1 || f.opens[0] != want {
		t.Errorf("opens = %v, want [%s]", f.opens, want)
	}
}

func TestResolveDeclinesOtherNames(t *testing.T) {
	f := &fakeOS{}
	r := newTestResolver(t, "signer", Host{"linux", "amd64"}, f)

	for _, name := range []string{"", "other", "Signer", "libsigner.so"} {
		h, ok, err := r.Resolve(name)
		if ok || err != nil || h != 0 {
			t.Errorf("Resolve(%q) = (%v, %v, %v), want decline", name, h, ok, err)
		}
	}
	if len(f.stats) != 0 || len(f.opens) != 0 {
		t.Errorf("decline touched the filesystem: stats=%v opens=%v", f.stats, f.opens)
	}
}

func TestResolveIgnoresDirectoryAtFlatPath(t *testing.T) {
	base := t.TempDir()
	r, err := NewResolver("signer", base, Host{"linux", "arm64"})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(base, "libsigner.so"), 0755); err != nil {
		t.Fatal(err)
	}
	var opened string
	r.Open = func(p string) (Handle, error) { opened = p; return 1, nil }

	if _, _, err := r.Resolve("signer"); err != nil {
		t.Fatal(err)
	}
	if want := r.Candidates()[1]; opened != want {
		t.Errorf("opened %q, want %q", opened, want)
	}
}

func TestResolveWithRealFiles(t *testing.T) {
	base := t.TempDir()
	r, err := NewResolver("signer", base, Host{"windows", "amd64"})
	if err != nil {
		t.Fatal(err)
	}
	if got := r.Select(); got != r.Candidates()[1] {
		t.Errorf("Select() with empty base = %q, want runtimes path", got)
	}

	flat := filepath.Join(base, "signer.dll")
	if err := os.WriteFile(flat, []byte("MZ"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := r.Select(); got != flat {
		t.Errorf("Select() = %q, want %q", got, flat)
	}
}

func TestNewResolverErrors(t *testing.T) {
	if _, err := NewResolver("", "/app", Host{"linux", "amd64"}); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := NewResolver("signer", "/app", Host{"linux", "s390x"}); !errors.Is(err, ErrUnsupportedArch) {
		t.Errorf("error = %v, want ErrUnsupportedArch", err)
	}
}

func TestNewResolverRelativeBaseDir(t *testing.T) {
	wd := t.TempDir()
	chdir(t, wd)

	r, err := NewResolver("signer", "bin", Host{"linux", "amd64"})
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(r.BaseDir) {
		t.Fatalf("BaseDir = %q, want absolute", r.BaseDir)
	}
	// Later working directory changes must not move the candidates.
	chdir(t, t.TempDir())
	for i, c := range r.Candidates() {
		if !filepath.IsAbs(c) {
			t.Errorf("Candidates()[%d] = %q, want absolute", i, c)
		}
	}
	if want := filepath.Join(wd, "bin", "libsigner.so"); r.Candidates()[0] != want {
		t.Errorf("Candidates()[0] = %q, want %q", r.Candidates()[0], want)
	}
}

func TestResolvePathReportsLoadedFile(t *testing.T) {
	f := &fakeOS{}
	r := newTestResolver(t, "signer", Host{"linux", "amd64"}, f)

	_, path, ok, err := r.ResolvePath("signer")
	if err != nil || !ok {
		t.Fatalf("ResolvePath() ok=%v err=%v", ok, err)
	}
	if want := r.Candidates()[1]; path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	if len(f.stats) != 1 {
		t.Errorf("stats = %v, want exactly one", f.stats)
	}

	if _, path, ok, _ := r.ResolvePath("other"); ok || path != "" {
		t.Errorf("ResolvePath(other) = (%q, %v), want decline", path, ok)
	}
}

func TestNewResolverDefaultsToExecutableDir(t *testing.T) {
	r, err := NewResolver("signer", "", Host{"linux", "amd64"})
	if err != nil {
		t.Fatal(err)
	}
	want, err := AppBaseDir()
	if err != nil {
		t.Fatal(err)
	}
	if r.BaseDir != want {
		t.Errorf("BaseDir = %q, want %q", r.BaseDir, want)
	}
}

func TestResolveLogsChosenPath(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	f := &fakeOS{}
	r := newTestResolver(t, "signer", Host{"linux", "amd64"}, f)
	if _, _, err := r.Resolve("signer"); err != nil {
		t.Fatal(err)
	}

	entries := logs.FilterMessage("resolved native library").All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["rid"]; got != "linux-x64" {
		t.Errorf("rid field = %v, want linux-x64", got)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
