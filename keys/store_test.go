package keys

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestKeyStoreInitSeedList(t *testing.T) {
	ks, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	names, err := ks.List()
	if err != nil || len(names) != 0 {
		t.Fatalf("List on empty store = %v, %v", names, err)
	}

	issuer, path, err := ks.Init("release", testSeed(9), false)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if issuer != IssuerKeyFromSeed(testSeed(9)) {
		t.Fatalf("unexpected issuer key %q", issuer)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("seed file mode = %v", info.Mode().Perm())
	}

	if _, _, err := ks.Init("release", testSeed(10), false); err == nil {
		t.Fatalf("expected error re-initializing without overwrite")
	}
	if _, _, err := ks.Init("release", testSeed(10), true); err != nil {
		t.Fatalf("Init overwrite: %v", err)
	}
	seed, err := ks.Seed("release")
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if string(seed) != string(testSeed(10)) {
		t.Fatalf("overwrite did not replace seed")
	}

	if _, _, err := ks.Init("dev", testSeed(11), false); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(ks.Directory, "empty"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	names, err = ks.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"dev", "release"}) {
		t.Fatalf("List = %v", names)
	}
}

func TestKeyStoreSealVerify(t *testing.T) {
	ks, _ := Open(t.TempDir())
	if _, _, err := ks.Init("ci", testSeed(12), false); err != nil {
		t.Fatalf("Init: %v", err)
	}
	for _, alg := range []string{AlgEd25519, AlgDilithium3} {
		s, err := ks.Seal("ci", testPack, alg, HashSHA512)
		if err != nil {
			t.Fatalf("Seal(%s): %v", alg, err)
		}
		want, err := ks.IssuerKey("ci", alg)
		if err != nil {
			t.Fatalf("IssuerKey: %v", err)
		}
		if s.IssuerKey != want {
			t.Fatalf("%s: issuer %q, want %q", alg, s.IssuerKey, want)
		}
		if err := s.Verify(testPack); err != nil {
			t.Fatalf("Verify(%s): %v", alg, err)
		}
	}
}

func TestKeyStoreRejectsBadNames(t *testing.T) {
	ks, _ := Open(t.TempDir())
	for _, name := range []string{"", "../x", "a b", "a/b"} {
		if _, _, err := ks.Init(name, testSeed(1), false); err == nil {
			t.Fatalf("expected error for name %q", name)
		}
	}
	if _, err := ks.Seed("missing"); err == nil {
		t.Fatalf("expected error for missing key")
	}
}

func TestParseSeedHex(t *testing.T) {
	seed, err := ParseSeedHex(" 0x" + "00010203040506070809101112131415161718192021222324252627282930ff" + "\n")
	if err != nil {
		t.Fatalf("ParseSeedHex: %v", err)
	}
	if len(seed) != 32 {
		t.Fatalf("len = %d", len(seed))
	}
	if _, err := ParseSeedHex("abcd"); err == nil {
		t.Fatalf("expected length error")
	}
	if _, err := ParseSeedHex("zz"); err == nil {
		t.Fatalf("expected hex error")
	}
}
