package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xdao.co/assetpack/cidutil"
)

const testSeedHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func writeManifest(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hello, world\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	src := `assets:
  - kind: file
    name: greeting
    fields:
      path: hello.txt
  - kind: table
    name: strings.en
    fields:
      values:
        title: Asset Pack
`
	path := filepath.Join(dir, "assets.yaml")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func compilePack(t *testing.T) string {
	t.Helper()
	packPath := filepath.Join(t.TempDir(), "assets.bin")
	code, out, errOut := runCLI(t, "compile", "-o", packPath, writeManifest(t))
	if code != 0 {
		t.Fatalf("compile exit %d: %s", code, errOut)
	}
	data, err := os.ReadFile(packPath)
	if err != nil {
		t.Fatalf("read pack: %v", err)
	}
	if strings.TrimSpace(out) != cidutil.String(data) {
		t.Fatalf("compile printed %q, want pack CID %s", out, cidutil.String(data))
	}
	return packPath
}

func TestCompileInspectLoad(t *testing.T) {
	packPath := compilePack(t)

	code, out, errOut := runCLI(t, "inspect", packPath)
	if code != 0 {
		t.Fatalf("inspect exit %d: %s", code, errOut)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("inspect printed %d lines: %q", len(lines), out)
	}
	if !strings.Contains(lines[0], "builtin.File") || !strings.Contains(lines[1], "builtin.Table") {
		t.Fatalf("unexpected inspect output %q", out)
	}

	code, out, errOut = runCLI(t, "load", packPath)
	if code != 0 {
		t.Fatalf("load exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "greeting") || !strings.Contains(out, "strings.en") {
		t.Fatalf("unexpected load output %q", out)
	}

	code, out, errOut = runCLI(t, "diag", packPath)
	if code != 0 || !strings.HasPrefix(out, "[") {
		t.Fatalf("diag exit %d: %q %s", code, out, errOut)
	}
}

func TestCompileStdoutIsDeterministic(t *testing.T) {
	manifest := writeManifest(t)
	_, a, _ := runCLI(t, "compile", "-o", "-", manifest)
	_, b, _ := runCLI(t, "compile", "-o", "-", manifest)
	if a == "" || a != b {
		t.Fatalf("expected identical non-empty packs")
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bin")
	if err := os.WriteFile(path, []byte{0xff, 0xff}, 0o644); err != nil {
		t.Fatal(err)
	}
	code, _, errOut := runCLI(t, "load", path)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(errOut, "ASSET-DES-001") {
		t.Fatalf("expected rule ID in %q", errOut)
	}
}

func TestPutGetBundle(t *testing.T) {
	packPath := compilePack(t)
	data, _ := os.ReadFile(packPath)
	store := t.TempDir()

	code, out, errOut := runCLI(t, "put", "-localfs-dir", store, packPath)
	if code != 0 {
		t.Fatalf("put exit %d: %s", code, errOut)
	}
	id := strings.TrimSpace(out)
	if id != cidutil.String(data) {
		t.Fatalf("put returned %q", id)
	}

	got := filepath.Join(t.TempDir(), "fetched.bin")
	if code, _, errOut := runCLI(t, "get", "-localfs-dir", store, "-o", got, id); code != 0 {
		t.Fatalf("get exit %d: %s", code, errOut)
	}
	fetched, err := os.ReadFile(got)
	if err != nil || !bytes.Equal(fetched, data) {
		t.Fatalf("fetched pack differs: %v", err)
	}

	tarPath := filepath.Join(t.TempDir(), "packs.tar")
	if code, _, errOut := runCLI(t, "bundle", "export", "-localfs-dir", store, "-o", tarPath, "-label", "game="+id); code != 0 {
		t.Fatalf("bundle export exit %d: %s", code, errOut)
	}
	code, out, errOut = runCLI(t, "bundle", "import", "-localfs-dir", t.TempDir(), tarPath)
	if code != 0 {
		t.Fatalf("bundle import exit %d: %s", code, errOut)
	}
	if strings.TrimSpace(out) != id {
		t.Fatalf("bundle import printed %q, want %s", out, id)
	}
}

func TestPutRejectsNonPack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("not a pack"), 0o644); err != nil {
		t.Fatal(err)
	}
	if code, _, _ := runCLI(t, "put", "-localfs-dir", t.TempDir(), path); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
}

func TestSealVerify(t *testing.T) {
	packPath := compilePack(t)
	keysDir := t.TempDir()

	if code, _, errOut := runCLI(t, "key", "init", "--keys-dir", keysDir, "--name", "release", "--seed-hex", testSeedHex); code != 0 {
		t.Fatalf("key init exit %d: %s", code, errOut)
	}
	code, out, _ := runCLI(t, "key", "list", "--keys-dir", keysDir)
	if code != 0 || strings.TrimSpace(out) != "release" {
		t.Fatalf("key list = %d %q", code, out)
	}

	for _, alg := range []string{"ed25519", "dilithium3"} {
		code, issuer, errOut := runCLI(t, "seal", "-keys-dir", keysDir, "-key", "release", "-alg", alg, packPath)
		if code != 0 {
			t.Fatalf("seal %s exit %d: %s", alg, code, errOut)
		}
		issuer = strings.TrimSpace(issuer)

		_, exported, _ := runCLI(t, "key", "export", "--keys-dir", keysDir, "--name", "release", "--alg", alg)
		if strings.TrimSpace(exported) != issuer {
			t.Fatalf("%s: key export %q, seal issuer %q", alg, exported, issuer)
		}

		code, out, errOut = runCLI(t, "verify", "-issuer", issuer, packPath)
		if code != 0 || !strings.HasPrefix(out, "OK "+alg) {
			t.Fatalf("verify %s exit %d: %q %s", alg, code, out, errOut)
		}
	}

	if code, _, _ := runCLI(t, "verify", "-issuer", "ed25519:AAAA", packPath); code != 1 {
		t.Fatalf("expected issuer mismatch exit 1, got %d", code)
	}

	data, _ := os.ReadFile(packPath)
	other := filepath.Join(t.TempDir(), "assets.bin")
	if err := os.WriteFile(other, append(data, 0x00), 0o644); err != nil {
		t.Fatal(err)
	}
	if code, _, _ := runCLI(t, "verify", "-seal", packPath+".seal", other); code != 1 {
		t.Fatalf("expected tampered pack to fail verification, got %d", code)
	}
}

func TestUsageErrors(t *testing.T) {
	if code, _, _ := runCLI(t); code != 2 {
		t.Fatalf("no args: exit %d", code)
	}
	if code, _, _ := runCLI(t, "frobnicate"); code != 2 {
		t.Fatalf("unknown command: exit %d", code)
	}
	if code, _, _ := runCLI(t, "-log-level", "loud", "help"); code != 2 {
		t.Fatalf("bad log level: exit %d", code)
	}
	if code, out, _ := runCLI(t, "help"); code != 0 || !strings.Contains(out, "xdao-assets compile") {
		t.Fatalf("help: exit %d", code)
	}
	code, out, _ := runCLI(t, "backends")
	if code != 0 || !strings.Contains(out, "localfs") || !strings.Contains(out, "grpc") {
		t.Fatalf("backends: %d %q", code, out)
	}
}
