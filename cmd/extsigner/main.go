package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/agiangrant/extsigner"
	"github.com/agiangrant/extsigner/cmd/extsigner/commands"
	"github.com/agiangrant/extsigner/internal/ffi"
	"github.com/docopt/docopt-go"
)

const version = "0.1.0"

const usage = `extsigner - native Stark signer loader

Locates the platform build of the native signer library next to the
application (flat, or under runtimes/<os>-<arch>/native/), loads it and
calls its entry points.

Usage:
  extsigner resolve [--name=<name>] [--base=<dir>] [--os=<goos>] [--arch=<goarch>]
  extsigner load [--config=<file>] [--lib=<file>]
  extsigner sign --message=<hex> [--key=<hex>] [--config=<file>] [--lib=<file>]
  extsigner order-hash --position=<id> --base-asset=<hex> --base-amount=<n> --quote-asset=<hex> --quote-amount=<n> --fee-asset=<hex> --fee-amount=<n> --expiration=<s> --salt=<n> --user-key=<hex> --chain-id=<id> [--config=<file>] [--lib=<file>]
  extsigner stage --lib=<file> --out=<dir> [--name=<name>] [--os=<goos>] [--arch=<goarch>] [--flat]
  extsigner build [--target=<rid>...] [--config=<file>]
  extsigner init [--config=<file>] [--name=<name>] [--force]
  extsigner -h | --help
  extsigner --version

Commands:
  resolve     Show the search candidates and the file that would be loaded
  load        Load the library and check its entry points
  sign        Sign a message hash
  order-hash  Hash an order under the Perpetuals domain
  stage       Copy a built library into the runtimes/ layout
  build       cargo build the crate for runtime identifiers and stage the results
  init        Write a default extsigner.toml

Options:
  --config=<file>    Configuration file [default: extsigner.toml]
  --lib=<file>       Load this exact file instead of resolving
  --name=<name>      Logical library name [default: rust_crypto_lib_base]
  --base=<dir>       Application base directory (defaults to the executable's)
  --os=<goos>        Resolve for this GOOS instead of the host's
  --arch=<goarch>    Resolve for this GOARCH instead of the host's
  --message=<hex>    Message hash as a hex field element
  --key=<hex>        Private key (or EXTSIGNER_PRIVATE_KEY env var)
  --out=<dir>        Output directory for stage
  --flat             Stage directly into the output directory
  --target=<rid>     Runtime identifier, e.g. linux-x64 (repeatable)
  --force            Overwrite an existing configuration file
  -h --help          Show this help message
  --version          Show version

Environment Variables:
  EXTSIGNER_LIB_PATH     Exact library file (overridden by --lib)
  EXTSIGNER_BASE_DIR     Application base directory
  EXTSIGNER_LOG_LEVEL    debug, info, warn or error
  EXTSIGNER_PRIVATE_KEY  Private key for sign (overridden by --key)

Examples:
  # Show where the library would be loaded from on linux/arm64
  extsigner resolve --base=./dist --os=linux --arch=arm64

  # Package a macOS build
  extsigner stage --lib=target/release/librust_crypto_lib_base.dylib --out=dist --os=darwin --arch=arm64

  # Sign a message hash
  extsigner sign --message=0x1234 --key=0xabc
`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing arguments: %v\n", err)
		os.Exit(1)
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts docopt.Opts) error {
	if ok, _ := opts.Bool("resolve"); ok {
		name, _ := opts.String("--name")
		base, _ := opts.String("--base")
		goos, _ := opts.String("--os")
		goarch, _ := opts.String("--arch")
		return commands.Resolve(os.Stdout, commands.ResolveOptions{
			Name:    name,
			BaseDir: base,
			GOOS:    goos,
			GOARCH:  goarch,
		})
	}

	if ok, _ := opts.Bool("stage"); ok {
		return runStage(opts)
	}

	if ok, _ := opts.Bool("init"); ok {
		path, _ := opts.String("--config")
		name, _ := opts.String("--name")
		force, _ := opts.Bool("--force")
		return commands.Init(os.Stdout, path, name, force)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	defer extsigner.Logger().Sync()

	switch {
	case flag(opts, "load"):
		return commands.Load(os.Stdout, cfg)
	case flag(opts, "sign"):
		message, _ := opts.String("--message")
		key, _ := opts.String("--key")
		if key == "" {
			key = os.Getenv("EXTSIGNER_PRIVATE_KEY")
		}
		if key == "" {
			return fmt.Errorf("--key is required (or set EXTSIGNER_PRIVATE_KEY environment variable)")
		}
		return commands.Sign(os.Stdout, cfg, message, key)
	case flag(opts, "order-hash"):
		order, err := parseOrder(opts)
		if err != nil {
			return err
		}
		return commands.OrderHash(os.Stdout, cfg, order)
	case flag(opts, "build"):
		rids, _ := opts["--target"].([]string)
		return commands.Build(os.Stdout, cfg, rids)
	}
	return nil
}

func flag(opts docopt.Opts, name string) bool {
	ok, _ := opts.Bool(name)
	return ok
}

// loadConfig reads the configuration file, applies environment and flag
// overrides and installs the logger.
func loadConfig(opts docopt.Opts) (extsigner.Config, error) {
	path, _ := opts.String("--config")
	cfg, err := extsigner.LoadConfig(path)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv()
	if lib, _ := opts.String("--lib"); lib != "" {
		cfg.Library.Path = lib
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	logger, err := extsigner.NewLogger(cfg.Log)
	if err != nil {
		return cfg, err
	}
	extsigner.SetLogger(logger)
	return cfg, nil
}

func runStage(opts docopt.Opts) error {
	lib, _ := opts.String("--lib")
	out, _ := opts.String("--out")
	name, _ := opts.String("--name")
	flat, _ := opts.Bool("--flat")

	host := ffi.CurrentHost()
	if goos, _ := opts.String("--os"); goos != "" {
		host.GOOS = goos
	}
	if goarch, _ := opts.String("--arch"); goarch != "" {
		host.GOARCH = goarch
	}
	target, err := ffi.Detect(host)
	if err != nil {
		return err
	}

	_, err = commands.Stage(os.Stdout, commands.StageOptions{
		Lib:    lib,
		Name:   name,
		OutDir: out,
		Target: target,
		Flat:   flat,
	})
	return err
}

func parseOrder(opts docopt.Opts) (extsigner.Order, error) {
	var (
		o   extsigner.Order
		err error
	)
	str := func(key string) string {
		v, _ := opts.String(key)
		return v
	}
	parseU := func(key string, bits int) uint64 {
		if err != nil {
			return 0
		}
		var v uint64
		if v, err = strconv.ParseUint(str(key), 10, bits); err != nil {
			err = fmt.Errorf("%s: %w", key, err)
		}
		return v
	}
	parseI := func(key string) int64 {
		if err != nil {
			return 0
		}
		var v int64
		if v, err = strconv.ParseInt(str(key), 10, 64); err != nil {
			err = fmt.Errorf("%s: %w", key, err)
		}
		return v
	}

	o.PositionID = uint32(parseU("--position", 32))
	o.BaseAssetID = str("--base-asset")
	o.BaseAmount = parseI("--base-amount")
	o.QuoteAssetID = str("--quote-asset")
	o.QuoteAmount = parseI("--quote-amount")
	o.FeeAssetID = str("--fee-asset")
	o.FeeAmount = parseU("--fee-amount", 64)
	o.Expiration = parseU("--expiration", 64)
	o.Salt = parseU("--salt", 64)
	o.UserPublicKey = str("--user-key")
	o.DomainChainID = str("--chain-id")
	return o, err
}
