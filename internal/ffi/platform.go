package ffi

import (
	"errors"
	"fmt"
	"runtime"
)

// Platform is the operating system segment of a runtime identifier.
type Platform string

const (
	PlatformWindows Platform = "win"
	PlatformMacOS   Platform = "osx"
	PlatformLinux   Platform = "linux"
)

// Arch is the architecture segment of a runtime identifier.
type Arch string

const (
	ArchX86         Arch = "x86"
	ArchX64         Arch = "x64"
	ArchArm64       Arch = "arm64"
	ArchUnsupported Arch = ""
)

// ErrUnsupportedArch is returned when the host architecture has no
// runtimes/<os>-<arch> directory.
var ErrUnsupportedArch = errors.New("unsupported architecture")

// Host carries the facts about the process environment that resolution
// depends on. Values use Go's GOOS/GOARCH spelling.
type Host struct {
	GOOS   string
	GOARCH string
}

// CurrentHost returns the facts for the running process.
func CurrentHost() Host {
	return Host{GOOS: runtime.GOOS, GOARCH: runtime.GOARCH}
}

// Target is a resolved (platform, architecture) pair.
type Target struct {
	Platform Platform
	Arch     Arch
}

// Detect maps host facts to a Target. Windows is checked first, then macOS;
// every other OS is treated as Linux.
func Detect(h Host) (Target, error) {
	t := Target{Platform: detectPlatform(h.GOOS), Arch: detectArch(h.GOARCH)}
	if t.Arch == ArchUnsupported {
		return t, fmt.Errorf("%w: %q", ErrUnsupportedArch, h.GOARCH)
	}
	return t, nil
}

func detectPlatform(goos string) Platform {
	switch goos {
	case "windows":
		return PlatformWindows
	case "darwin", "ios":
		return PlatformMacOS
	default:
		return PlatformLinux
	}
}

func detectArch(goarch string) Arch {
	switch goarch {
	case "386":
		return ArchX86
	case "amd64":
		return ArchX64
	case "arm64":
		return ArchArm64
	default:
		return ArchUnsupported
	}
}

// ParseRID parses a runtime identifier such as "linux-x64".
func ParseRID(rid string) (Target, error) {
	for _, p := range []Platform{PlatformWindows, PlatformMacOS, PlatformLinux} {
		prefix := string(p) + "-"
		if len(rid) <= len(prefix) || rid[:len(prefix)] != prefix {
			continue
		}
		switch a := Arch(rid[len(prefix):]); a {
		case ArchX86, ArchX64, ArchArm64:
			return Target{Platform: p, Arch: a}, nil
		default:
			return Target{}, fmt.Errorf("%w: %q", ErrUnsupportedArch, string(a))
		}
	}
	return Target{}, fmt.Errorf("invalid runtime identifier %q", rid)
}

// RID returns the runtime identifier, e.g. "osx-arm64".
func (t Target) RID() string {
	return string(t.Platform) + "-" + string(t.Arch)
}

// Prefix is "lib" on Linux and empty elsewhere.
func (t Target) Prefix() string {
	if t.Platform == PlatformLinux {
		return "lib"
	}
	return ""
}

// Extension returns the shared library suffix for the platform.
func (t Target) Extension() string {
	switch t.Platform {
	case PlatformWindows:
		return ".dll"
	case PlatformMacOS:
		return ".dylib"
	default:
		return ".so"
	}
}

// FileName returns the on-disk file name for a logical library name.
func (t Target) FileName(name string) string {
	return t.Prefix() + name + t.Extension()
}

func (t Target) String() string {
	return t.RID()
}
