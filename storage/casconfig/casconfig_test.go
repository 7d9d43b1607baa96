package casconfig_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xdao.co/assetpack/storage"
	"xdao.co/assetpack/storage/casconfig"
	"xdao.co/assetpack/storage/casregistry"
	_ "xdao.co/assetpack/storage/localfs"
	"xdao.co/assetpack/storage/testkit"
)

func TestParse_AcceptsJSONC(t *testing.T) {
	cfg, err := casconfig.Parse([]byte(`{
		// comment
		"write_policy": "all",
		"backends": [
			{"name": "localfs", "id": "a", "config": {"localfs-dir": "/tmp/a"}},
			{"name": "localfs", "id": "b", "config": {"localfs-dir": "/tmp/b"}}, /* trailing */
		],
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.WritePolicy != casconfig.WriteAll || len(cfg.Backends) != 2 || cfg.Backends[1].ID != "b" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"no-backends":   `{"backends": []}`,
		"no-name":       `{"backends": [{"id": "x"}]}`,
		"duplicate-id":  `{"backends": [{"name": "localfs"}, {"name": "localfs"}]}`,
		"bad-policy":    `{"write_policy": "some", "backends": [{"name": "localfs"}]}`,
		"unknown-field": `{"backend": [{"name": "localfs"}]}`,
		"not-json":      `backends: []`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := casconfig.Parse([]byte(in)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestOpen_WritePolicies(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	base := casconfig.Config{Backends: []casconfig.BackendConfig{
		{Name: "localfs", ID: "a", Config: map[string]string{"localfs-dir": dirA}},
		{Name: "localfs", ID: "b", Config: map[string]string{"localfs-dir": dirB}},
	}}

	first := base
	cas, closeFn, err := first.Open(casregistry.UsageCLI, "b")
	if err != nil {
		t.Fatalf("Open(first): %v", err)
	}
	defer closeFn()
	if _, ok := cas.(storage.MultiCAS); !ok {
		t.Fatalf("expected MultiCAS, got %T", cas)
	}
	id, err := cas.Put(testkit.SamplePack(t, "preferred"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !exists(t, dirB, id.String()) || exists(t, dirA, id.String()) {
		t.Fatalf("preferred backend should receive the only write")
	}

	all := base
	all.WritePolicy = casconfig.WriteAll
	cas, closeAll, err := all.Open(casregistry.UsageCLI, "")
	if err != nil {
		t.Fatalf("Open(all): %v", err)
	}
	defer closeAll()
	id, err = cas.Put(testkit.SamplePack(t, "replicated"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !exists(t, dirA, id.String()) || !exists(t, dirB, id.String()) {
		t.Fatalf("WriteAll should write every backend")
	}
}

func TestOpen_Errors(t *testing.T) {
	cfg := casconfig.Config{Backends: []casconfig.BackendConfig{{Name: "localfs", Config: map[string]string{"localfs-dir": t.TempDir()}}}}
	if _, _, err := cfg.Open(casregistry.UsageCLI, "missing"); err == nil {
		t.Fatalf("expected preferred-backend error")
	}

	bad := casconfig.Config{Backends: []casconfig.BackendConfig{{Name: "localfs", Config: map[string]string{"nope": "1"}}}}
	_, _, err := bad.Open(casregistry.UsageCLI, "")
	if err == nil || !strings.Contains(err.Error(), "nope") {
		t.Fatalf("expected unknown option error, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cas.jsonc")
	dir := t.TempDir()
	body := "{\n  // local cache\n  \"backends\": [{\"name\": \"localfs\", \"config\": {\"localfs-dir\": \"" + filepath.ToSlash(dir) + "\"}}],\n}\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := casconfig.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	cas, closeFn, err := cfg.Open(casregistry.UsageCLI, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer closeFn()
	if _, ok := cas.(storage.Lister); !ok {
		t.Fatalf("single localfs backend should be returned directly, got %T", cas)
	}
	if _, err := casconfig.LoadFile(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func exists(t *testing.T, root, cidStr string) bool {
	t.Helper()
	_, err := os.Stat(filepath.Join(root, cidStr[:2], cidStr))
	return err == nil
}
