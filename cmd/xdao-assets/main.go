package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ipfs/go-cid"

	"xdao.co/assetpack/asset"
	"xdao.co/assetpack/builtin"
	"xdao.co/assetpack/cidutil"
	"xdao.co/assetpack/codec"
	"xdao.co/assetpack/compiler"
	"xdao.co/assetpack/container"
	"xdao.co/assetpack/keys"
	"xdao.co/assetpack/pack"
	"xdao.co/assetpack/registry"
	"xdao.co/assetpack/storage"
	"xdao.co/assetpack/storage/casconfig"
	"xdao.co/assetpack/storage/casregistry"

	_ "xdao.co/assetpack/storage/grpccas"
	_ "xdao.co/assetpack/storage/ipfs"
	_ "xdao.co/assetpack/storage/localfs"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// app carries what every subcommand shares.
type app struct {
	out    io.Writer
	errOut io.Writer
	log    *slog.Logger
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("xdao-assets", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() { printUsage(errOut) }
	logLevel := fs.String("log-level", "warn", "Log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(errOut, "invalid -log-level: %v\n", err)
		return 2
	}
	a := &app{
		out:    out,
		errOut: errOut,
		log:    slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level})),
	}

	args = fs.Args()
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "compile":
		return a.cmdCompile(args[1:])
	case "inspect":
		return a.cmdInspect(args[1:])
	case "diag":
		return a.cmdDiag(args[1:])
	case "cid":
		return a.cmdCID(args[1:])
	case "load":
		return a.cmdLoad(args[1:])
	case "put":
		return a.cmdPut(args[1:])
	case "get":
		return a.cmdGet(args[1:])
	case "bundle":
		return a.cmdBundle(args[1:])
	case "seal":
		return a.cmdSeal(args[1:])
	case "verify":
		return a.cmdVerify(args[1:])
	case "key":
		return a.cmdKey(args[1:])
	case "backends":
		return a.cmdBackends(args[1:])
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "xdao-assets: build, inspect and distribute asset packs")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  xdao-assets [-log-level <level>] <command> ...")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  xdao-assets compile [-o <pack>] <manifest.yaml|manifest.hcl> [...]")
	fmt.Fprintln(w, "  xdao-assets inspect <pack>")
	fmt.Fprintln(w, "  xdao-assets diag <pack>")
	fmt.Fprintln(w, "  xdao-assets cid <file>")
	fmt.Fprintln(w, "  xdao-assets load <pack>")
	fmt.Fprintln(w, "  xdao-assets put [store flags] <pack>")
	fmt.Fprintln(w, "  xdao-assets get [store flags] [-o <file>] <CID>")
	fmt.Fprintln(w, "  xdao-assets bundle export [store flags] -o <bundle.tar> [-index] [-label name=CID ...] [<CID> ...]")
	fmt.Fprintln(w, "  xdao-assets bundle import [store flags] <bundle.tar>")
	fmt.Fprintln(w, "  xdao-assets seal -key <name> [-alg ed25519|dilithium3] [-hash sha256|sha512|sha3-256] [-o <seal>] <pack>")
	fmt.Fprintln(w, "  xdao-assets verify [-seal <seal>] [-issuer <issuer key>] <pack>")
	fmt.Fprintln(w, "  xdao-assets key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  xdao-assets key list")
	fmt.Fprintln(w, "  xdao-assets key export --name <name> [--alg ed25519|dilithium3]")
	fmt.Fprintln(w, "  xdao-assets backends")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Store flags:")
	fmt.Fprintln(w, "  -backend <name>      CAS backend (see `xdao-assets backends`), default localfs")
	fmt.Fprintln(w, "  -cas-config <file>   JSONC multi-backend config (overrides -backend)")
	fmt.Fprintln(w, "  -prefer <id>         backend that receives writes when using -cas-config")
	fmt.Fprintln(w, "  plus per-backend flags such as -localfs-dir and -grpc-target")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - compile and load know the builtin kinds: file, table")
	fmt.Fprintln(w, "  - compile -o defaults to "+pack.DefaultName+"; -o - writes the pack to stdout")
	fmt.Fprintln(w, "  - seal writes <pack>"+keys.SealExt+" unless -o is given")
	fmt.Fprintln(w, "  - keys live under ~/.xdao/assetpack/keys/<name> unless -keys-dir is set")
}

// fail prints err, adding the rule ID for asset errors, and returns the
// exit code.
func (a *app) fail(context string, err error) int {
	if rule := asset.RuleID(err); rule != "" {
		fmt.Fprintf(a.errOut, "%s: [%s] %v\n", context, rule, err)
		return 1
	}
	fmt.Fprintf(a.errOut, "%s: %v\n", context, err)
	return 1
}

func (a *app) cmdCompile(args []string) int {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	output := fs.String("o", pack.DefaultName, "Output pack path, or - for stdout")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(a.errOut, "usage: xdao-assets compile [-o <pack>] <manifest> [...]")
		return 2
	}

	cat, err := builtin.Catalog()
	if err != nil {
		return a.fail("catalog", err)
	}
	c := compiler.New(compiler.WithLogger(a.log))
	for _, path := range fs.Args() {
		m, err := cat.LoadFile(path)
		if err != nil {
			return a.fail("manifest", err)
		}
		m.AddTo(c)
		a.log.Info("loaded manifest", "path", path, "assets", len(m.Instances))
	}

	data, err := c.Compile()
	if err != nil {
		return a.fail("compile", err)
	}
	if *output == "-" {
		_, _ = a.out.Write(data)
		return 0
	}
	if err := pack.WriteFile(*output, data); err != nil {
		return a.fail("write pack", err)
	}
	a.log.Info("wrote pack", "path", *output, "assets", c.Len(), "bytes", len(data))
	_, _ = fmt.Fprintln(a.out, cidutil.String(data))
	return 0
}

// readPackArg reads the single pack path argument of fs.
func (a *app) readPackArg(fs *flag.FlagSet, usage string) ([]byte, int) {
	if fs.NArg() != 1 {
		fmt.Fprintln(a.errOut, "usage: "+usage)
		return nil, 2
	}
	data, err := pack.ReadFile(fs.Arg(0))
	if err != nil {
		return nil, a.fail("read pack", err)
	}
	return data, 0
}

func (a *app) cmdInspect(args []string) int {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	data, code := a.readPackArg(fs, "xdao-assets inspect <pack>")
	if code != 0 {
		return code
	}
	summaries, err := container.Inspect(data)
	if err != nil {
		return a.fail("inspect", err)
	}
	for _, s := range summaries {
		_, _ = fmt.Fprintln(a.out, s.String())
	}
	return 0
}

func (a *app) cmdDiag(args []string) int {
	fs := flag.NewFlagSet("diag", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	data, code := a.readPackArg(fs, "xdao-assets diag <pack>")
	if code != 0 {
		return code
	}
	s, err := codec.Diagnose(data)
	if err != nil {
		return a.fail("diag", err)
	}
	_, _ = fmt.Fprintln(a.out, s)
	return 0
}

func (a *app) cmdCID(args []string) int {
	fs := flag.NewFlagSet("cid", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(a.errOut, "usage: xdao-assets cid <file>")
		return 2
	}
	path := fs.Arg(0)
	b, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(a.errOut, "read %s: %v\n", filepath.Base(path), err)
		return 1
	}
	_, _ = fmt.Fprintln(a.out, cidutil.String(b))
	return 0
}

func (a *app) cmdLoad(args []string) int {
	fs := flag.NewFlagSet("load", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	data, code := a.readPackArg(fs, "xdao-assets load <pack>")
	if code != 0 {
		return code
	}
	reg, err := builtin.Register(registry.NewBuilder(registry.WithLogger(a.log))).Load(data)
	if err != nil {
		return a.fail("load", err)
	}
	md, err := reg.Metadata()
	if err != nil {
		return a.fail("metadata", err)
	}
	for _, m := range md {
		fmt.Fprintf(a.out, "%s\t%s\t%d\t%s\n", m.TypeName, m.Name, m.Size, m.CID)
	}
	return 0
}

// storeFlags selects a pack store from the command line.
type storeFlags struct {
	backend string
	config  string
	prefer  string
}

func addStoreFlags(fs *flag.FlagSet) *storeFlags {
	s := &storeFlags{}
	fs.StringVar(&s.backend, "backend", "localfs", "CAS backend name")
	fs.StringVar(&s.config, "cas-config", "", "JSONC multi-backend config file")
	fs.StringVar(&s.prefer, "prefer", "", "Backend name or id that receives writes (with -cas-config)")
	casregistry.RegisterFlags(fs, casregistry.UsageCLI)
	return s
}

func (s *storeFlags) open() (storage.CAS, func() error, error) {
	if s.config != "" {
		cfg, err := casconfig.LoadFile(s.config)
		if err != nil {
			return nil, nil, err
		}
		return cfg.Open(casregistry.UsageCLI, s.prefer)
	}
	return casregistry.Open(s.backend, casregistry.UsageCLI)
}

// withStore opens the selected store, runs fn and closes the store.
func (a *app) withStore(s *storeFlags, fn func(storage.CAS) int) int {
	cas, closeFn, err := s.open()
	if err != nil {
		fmt.Fprintf(a.errOut, "open store: %v\n", err)
		return 2
	}
	code := fn(cas)
	if closeFn != nil {
		if err := closeFn(); err != nil {
			a.log.Warn("close store", "err", err)
		}
	}
	return code
}

func (a *app) cmdPut(args []string) int {
	fs := flag.NewFlagSet("put", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	data, code := a.readPackArg(fs, "xdao-assets put [store flags] <pack>")
	if code != 0 {
		return code
	}
	return a.withStore(store, func(cas storage.CAS) int {
		id, err := pack.Publish(cas, data)
		if err != nil {
			return a.fail("put", err)
		}
		a.log.Info("published pack", "cid", id.String(), "bytes", len(data))
		_, _ = fmt.Fprintln(a.out, id.String())
		return 0
	})
}

func (a *app) cmdGet(args []string) int {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	store := addStoreFlags(fs)
	output := fs.String("o", "", "Write the pack to this path instead of stdout")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(a.errOut, "usage: xdao-assets get [store flags] [-o <file>] <CID>")
		return 2
	}
	id, err := cid.Decode(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(a.errOut, "invalid CID: %v\n", err)
		return 2
	}
	return a.withStore(store, func(cas storage.CAS) int {
		data, err := pack.Fetch(cas, id)
		if err != nil {
			return a.fail("get", err)
		}
		if *output == "" {
			_, _ = a.out.Write(data)
			return 0
		}
		if err := pack.WriteFile(*output, data); err != nil {
			return a.fail("write pack", err)
		}
		return 0
	})
}

func (a *app) cmdBackends(args []string) int {
	fs := flag.NewFlagSet("backends", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	for _, b := range casregistry.List(casregistry.UsageCLI) {
		if b.Description == "" {
			_, _ = fmt.Fprintf(a.out, "%s\n", b.Name)
			continue
		}
		_, _ = fmt.Fprintf(a.out, "%s\t%s\n", b.Name, b.Description)
	}
	return 0
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}
