package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"flag"
	"fmt"
	"io"
	"os"

	"xdao.co/assetpack/keys"
	"xdao.co/assetpack/pack"
)

func (a *app) openKeyStore(dir string) (*keys.KeyStore, int) {
	ks, err := keys.Open(dir)
	if err != nil {
		fmt.Fprintf(a.errOut, "keys: %v\n", err)
		return nil, 1
	}
	return ks, 0
}

func (a *app) cmdSeal(args []string) int {
	fs := flag.NewFlagSet("seal", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	keysDir := fs.String("keys-dir", "", "Keystore directory (default ~/.xdao/assetpack/keys)")
	name := fs.String("key", "", "Key name")
	alg := fs.String("alg", keys.AlgEd25519, "Signature algorithm: ed25519 or dilithium3")
	hashAlg := fs.String("hash", keys.HashSHA256, "Digest: sha256, sha512 or sha3-256")
	output := fs.String("o", "", "Seal output path (default <pack>"+keys.SealExt+")")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *name == "" {
		fmt.Fprintln(a.errOut, "missing -key")
		return 2
	}
	data, code := a.readPackArg(fs, "xdao-assets seal -key <name> <pack>")
	if code != 0 {
		return code
	}
	ks, code := a.openKeyStore(*keysDir)
	if ks == nil {
		return code
	}

	s, err := ks.Seal(*name, data, *alg, *hashAlg)
	if err != nil {
		return a.fail("seal", err)
	}
	b, err := s.MarshalBinary()
	if err != nil {
		return a.fail("seal", err)
	}
	path := *output
	if path == "" {
		path = fs.Arg(0) + keys.SealExt
	}
	if err := pack.WriteFile(path, b); err != nil {
		return a.fail("write seal", err)
	}
	_, _ = fmt.Fprintln(a.out, s.IssuerKey)
	return 0
}

func (a *app) cmdVerify(args []string) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	sealPath := fs.String("seal", "", "Seal path (default <pack>"+keys.SealExt+")")
	issuer := fs.String("issuer", "", "Require this issuer key")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	data, code := a.readPackArg(fs, "xdao-assets verify [-seal <seal>] [-issuer <key>] <pack>")
	if code != 0 {
		return code
	}
	path := *sealPath
	if path == "" {
		path = fs.Arg(0) + keys.SealExt
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return a.fail("read seal", err)
	}
	var s keys.Seal
	if err := s.UnmarshalBinary(b); err != nil {
		return a.fail("seal", err)
	}
	if err := s.Verify(data); err != nil {
		return a.fail("verify", err)
	}
	if *issuer != "" && s.IssuerKey != *issuer {
		fmt.Fprintf(a.errOut, "verify: sealed by %s, want %s\n", s.IssuerKey, *issuer)
		return 1
	}
	_, _ = fmt.Fprintf(a.out, "OK %s %s\n", s.Alg, s.IssuerKey)
	return 0
}

func (a *app) cmdKey(args []string) int {
	if len(args) == 0 {
		printKeyUsage(a.errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return a.cmdKeyInit(args[1:])
	case "list":
		return a.cmdKeyList(args[1:])
	case "export":
		return a.cmdKeyExport(args[1:])
	case "help", "-h", "--help":
		printKeyUsage(a.out)
		return 0
	default:
		fmt.Fprintf(a.errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(a.errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "xdao-assets key: local pack signing keys")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  xdao-assets key init --name <name> [--seed-hex <64hex>] [--force] [--keys-dir <dir>]")
	fmt.Fprintln(w, "  xdao-assets key list [--keys-dir <dir>]")
	fmt.Fprintln(w, "  xdao-assets key export --name <name> [--alg ed25519|dilithium3] [--keys-dir <dir>]")
}

func (a *app) cmdKeyInit(args []string) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(a.errOut)

	var name, seedHex, keysDir string
	var force bool
	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&seedHex, "seed-hex", "", "Optional ed25519 seed as 64 hex chars (for reproducible builds)")
	fs.BoolVar(&force, "force", false, "Overwrite an existing key")
	fs.StringVar(&keysDir, "keys-dir", "", "Keystore directory")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(a.errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(a.errOut, "invalid --name: %v\n", err)
		return 2
	}
	ks, code := a.openKeyStore(keysDir)
	if ks == nil {
		return code
	}

	var seed []byte
	if seedHex != "" {
		var err error
		seed, err = keys.ParseSeedHex(seedHex)
		if err != nil {
			fmt.Fprintf(a.errOut, "invalid --seed-hex: %v\n", err)
			return 2
		}
	} else {
		seed = make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			fmt.Fprintf(a.errOut, "rand: %v\n", err)
			return 1
		}
	}

	issuerKey, path, err := ks.Init(name, seed, force)
	if err != nil {
		fmt.Fprintf(a.errOut, "write key: %v\n", err)
		return 1
	}
	fmt.Fprintf(a.out, "Created key: %s\n", issuerKey)
	fmt.Fprintf(a.out, "Stored at: %s\n", path)
	return 0
}

func (a *app) cmdKeyList(args []string) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	keysDir := fs.String("keys-dir", "", "Keystore directory")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, code := a.openKeyStore(*keysDir)
	if ks == nil {
		return code
	}
	names, err := ks.List()
	if err != nil {
		fmt.Fprintf(a.errOut, "list keys: %v\n", err)
		return 1
	}
	for _, n := range names {
		fmt.Fprintln(a.out, n)
	}
	return 0
}

func (a *app) cmdKeyExport(args []string) int {
	fs := flag.NewFlagSet("key export", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	name := fs.String("name", "", "Key name")
	alg := fs.String("alg", keys.AlgEd25519, "Signature algorithm: ed25519 or dilithium3")
	keysDir := fs.String("keys-dir", "", "Keystore directory")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *name == "" {
		fmt.Fprintln(a.errOut, "missing --name")
		return 2
	}
	ks, code := a.openKeyStore(*keysDir)
	if ks == nil {
		return code
	}
	issuerKey, err := ks.IssuerKey(*name, *alg)
	if err != nil {
		fmt.Fprintf(a.errOut, "export key: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(a.out, issuerKey)
	return 0
}
