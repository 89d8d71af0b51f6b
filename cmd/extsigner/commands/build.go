package commands

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/agiangrant/extsigner"
	"github.com/agiangrant/extsigner/internal/ffi"
)

var rustTriples = map[string]string{
	"win-x86":     "i686-pc-windows-msvc",
	"win-x64":     "x86_64-pc-windows-msvc",
	"win-arm64":   "aarch64-pc-windows-msvc",
	"osx-x64":     "x86_64-apple-darwin",
	"osx-arm64":   "aarch64-apple-darwin",
	"linux-x86":   "i686-unknown-linux-gnu",
	"linux-x64":   "x86_64-unknown-linux-gnu",
	"linux-arm64": "aarch64-unknown-linux-gnu",
}

// RustTriple returns the Rust target triple for a runtime identifier.
func RustTriple(t ffi.Target) (string, error) {
	triple, ok := rustTriples[t.RID()]
	if !ok {
		return "", fmt.Errorf("no Rust target for %s", t.RID())
	}
	return triple, nil
}

// CargoArtifact returns the file name cargo gives a cdylib for t. Cargo
// prefixes "lib" on macOS too, so it differs from the staged name there.
func CargoArtifact(t ffi.Target, name string) string {
	if t.Platform == ffi.PlatformWindows {
		return name + ".dll"
	}
	return "lib" + name + t.Extension()
}

// Build implements the 'extsigner build' command: cargo builds the crate
// for each runtime identifier and stages the result below the output
// directory.
func Build(w io.Writer, cfg extsigner.Config, rids []string) error {
	if len(rids) == 0 {
		rids = cfg.Build.Targets
	}
	if len(rids) == 0 {
		t, err := ffi.Detect(ffi.CurrentHost())
		if err != nil {
			return err
		}
		rids = []string{t.RID()}
	}

	if _, err := os.Stat(cfg.Build.CrateDir); os.IsNotExist(err) {
		return fmt.Errorf("crate directory not found: %s", cfg.Build.CrateDir)
	}

	buildType := "debug"
	if cfg.Build.Release {
		buildType = "release"
	}

	for _, rid := range rids {
		target, err := ffi.ParseRID(rid)
		if err != nil {
			return err
		}
		triple, err := RustTriple(target)
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "Building %s for %s...\n", cfg.Library.Name, triple)
		if err := ensureRustTarget(w, triple); err != nil {
			return fmt.Errorf("failed to add target %s: %w", triple, err)
		}

		args := []string{"build", "--target", triple}
		if cfg.Build.Release {
			args = append(args, "--release")
		}
		cmd := exec.Command("cargo", args...)
		cmd.Dir = cfg.Build.CrateDir
		cmd.Stdout = w
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("cargo build failed: %w", err)
		}

		lib := filepath.Join(cfg.Build.CrateDir, "target", triple, buildType, CargoArtifact(target, cfg.Library.Name))
		if _, err := Stage(w, StageOptions{
			Lib:    lib,
			Name:   cfg.Library.Name,
			OutDir: cfg.Build.OutputDir,
			Target: target,
		}); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Build complete!")
	return nil
}

func ensureRustTarget(w io.Writer, target string) error {
	output, err := exec.Command("rustup", "target", "list", "--installed").Output()
	if err != nil {
		return err
	}
	for _, line := range strings.Split(string(output), "\n") {
		if strings.TrimSpace(line) == target {
			return nil
		}
	}

	fmt.Fprintf(w, "Installing Rust target: %s\n", target)
	install := exec.Command("rustup", "target", "add", target)
	install.Stdout = w
	install.Stderr = os.Stderr
	return install.Run()
}
