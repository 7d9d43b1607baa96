package manifest_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xdao.co/assetpack/asset"
	"xdao.co/assetpack/codec"
	"xdao.co/assetpack/compiler"
	"xdao.co/assetpack/internal/assettest"
	"xdao.co/assetpack/manifest"
	"xdao.co/assetpack/registry"
)

// note reads its body from a file next to the manifest.
type note struct {
	Name string `cbor:"name" yaml:"-"`
	File string `cbor:"-" yaml:"file" hcl:"file"`
	Text string `cbor:"text" yaml:"-"`
}

func (n *note) AssetType() asset.TypeID        { return asset.TypeIDOf[note]() }
func (n *note) AssetTypeName() string          { return asset.TypeNameOf[note]() }
func (n *note) AssetName() string              { return n.Name }
func (n *note) SetAssetName(name string)       { n.Name = name }
func (n *note) MarshalBinary() ([]byte, error) { return codec.Marshal(n) }
func (n *note) UnmarshalBinary(b []byte) error { return codec.Unmarshal(b, n) }

func (n *note) Resolve(baseDir string) error {
	b, err := os.ReadFile(filepath.Join(baseDir, n.File))
	if err != nil {
		return err
	}
	n.Text = string(b)
	return nil
}

func catalog(t *testing.T) *manifest.Catalog {
	t.Helper()
	c, err := manifest.NewCatalog(
		manifest.KindOf[assettest.Sprite]("sprite"),
		manifest.KindOf[assettest.Font]("font"),
		manifest.KindOf[note]("note"),
	)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return c
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

const gameYAML = `
assets:
  - kind: sprite
    name: Player
    fields:
      width: 64
      height: 64
      texture: player.png
  - kind: font
    name: Body
    fields:
      family: serif
      points: 12
  - kind: sprite
    name: Enemy
    fields:
      width: 32
      height: 32
`

const gameHCL = `
asset "sprite" "Player" {
  width   = 64
  height  = 64
  texture = "player.png"
}

asset "font" "Body" {
  family = "serif"
  points = 12
}

asset "sprite" "Enemy" {
  width  = 16 * 2
  height = 32
}
`

func checkGame(t *testing.T, m *manifest.Manifest) {
	t.Helper()
	if len(m.Instances) != 3 {
		t.Fatalf("expected 3 instances, got %d", len(m.Instances))
	}
	wantNames := []string{"Player", "Body", "Enemy"}
	for i, in := range m.Instances {
		if in.Name != wantNames[i] || in.Asset.AssetName() != wantNames[i] {
			t.Fatalf("instance %d: got %q/%q want %q", i, in.Name, in.Asset.AssetName(), wantNames[i])
		}
	}
	s, ok := asset.As[*assettest.Sprite](m.Instances[2].Asset)
	if !ok || s.Width != 32 || s.Height != 32 {
		t.Fatalf("unexpected Enemy: %+v", m.Instances[2].Asset)
	}
	f, ok := asset.As[*assettest.Font](m.Instances[1].Asset)
	if !ok || f.Family != "serif" || f.Points != 12 {
		t.Fatalf("unexpected Body: %+v", m.Instances[1].Asset)
	}
}

func TestParseYAML(t *testing.T) {
	m, err := catalog(t).ParseYAML([]byte(gameYAML), "game.yaml", ".")
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	checkGame(t, m)
	if !strings.HasPrefix(m.Instances[0].Pos, "game.yaml:") {
		t.Fatalf("unexpected position %q", m.Instances[0].Pos)
	}
}

func TestParseHCL(t *testing.T) {
	m, err := catalog(t).ParseHCL([]byte(gameHCL), "game.hcl", ".")
	if err != nil {
		t.Fatalf("ParseHCL: %v", err)
	}
	checkGame(t, m)
	if m.Instances[0].Pos != "game.hcl:2" {
		t.Fatalf("unexpected position %q", m.Instances[0].Pos)
	}
}

func TestYAMLAndHCLCompileIdentically(t *testing.T) {
	cat := catalog(t)
	y, err := cat.ParseYAML([]byte(gameYAML), "game.yaml", ".")
	if err != nil {
		t.Fatal(err)
	}
	h, err := cat.ParseHCL([]byte(gameHCL), "game.hcl", ".")
	if err != nil {
		t.Fatal(err)
	}

	compile := func(m *manifest.Manifest) []byte {
		c := compiler.New()
		m.AddTo(c)
		b, err := c.Compile()
		if err != nil {
			t.Fatalf("Compile: %v", err)
		}
		return b
	}
	if string(compile(y)) != string(compile(h)) {
		t.Fatalf("YAML and HCL manifests should produce identical packs")
	}
}

func TestCatalogRegister(t *testing.T) {
	cat := catalog(t)
	m, err := cat.ParseYAML([]byte(gameYAML), "game.yaml", ".")
	if err != nil {
		t.Fatal(err)
	}
	c := compiler.New()
	m.AddTo(c)
	data, err := c.Compile()
	if err != nil {
		t.Fatal(err)
	}

	r, err := cat.Register(registry.NewBuilder()).Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := registry.Get[assettest.Font](r, "Body"); !ok {
		t.Fatalf("Body missing after load")
	}
	if got := cat.Labels(); strings.Join(got, ",") != "font,note,sprite" {
		t.Fatalf("Labels: %v", got)
	}
}

func TestResolveRelativeToManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "intro.txt", "Welcome.")
	yamlPath := writeFile(t, dir, "notes.yaml", "assets:\n  - kind: note\n    name: intro\n    fields:\n      file: intro.txt\n")
	hclPath := writeFile(t, dir, "notes.hcl", "asset \"note\" \"intro\" {\n  file = \"intro.txt\"\n}\n")

	for _, p := range []string{yamlPath, hclPath} {
		m, err := catalog(t).LoadFile(p)
		if err != nil {
			t.Fatalf("LoadFile(%s): %v", filepath.Base(p), err)
		}
		n, ok := asset.As[*note](m.Instances[0].Asset)
		if !ok || n.Text != "Welcome." {
			t.Fatalf("%s: note not resolved: %+v", filepath.Base(p), m.Instances[0].Asset)
		}
	}
}

func TestHCLManifestDir(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "art.hcl", "asset \"sprite\" \"Player\" {\n  width = 1\n  height = 1\n  texture = \"${manifest_dir}/player.png\"\n}\n")
	m, err := catalog(t).LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	s, _ := asset.As[*assettest.Sprite](m.Instances[0].Asset)
	if s.Texture != dir+"/player.png" {
		t.Fatalf("manifest_dir not applied: %q", s.Texture)
	}
}

func TestRejects(t *testing.T) {
	cases := []struct {
		name   string
		yaml   string
		target error
	}{
		{"unknown-kind", "assets:\n  - kind: shader\n    name: x\n", manifest.ErrUnknownKind},
		{"empty-name", "assets:\n  - kind: sprite\n    fields: {width: 1, height: 1}\n", manifest.ErrEmptyName},
		{"duplicate", "assets:\n  - kind: font\n    name: a\n  - kind: font\n    name: a\n", manifest.ErrDuplicate},
		{"unknown-field", "assets:\n  - kind: font\n    name: a\n    fields: {colour: red}\n", nil},
		{"unknown-entry-key", "assets:\n  - kind: font\n    name: a\n    extra: 1\n", nil},
		{"unknown-top-level", "sprites: []\n", nil},
		{"name-in-fields", "assets:\n  - kind: font\n    name: a\n    fields: {name: b}\n", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := catalog(t).ParseYAML([]byte(tc.yaml), "bad.yaml", ".")
			if err == nil {
				t.Fatalf("expected error")
			}
			if tc.target != nil && !errors.Is(err, tc.target) {
				t.Fatalf("expected %v, got %v", tc.target, err)
			}
		})
	}
}

func TestRejectsHCL(t *testing.T) {
	cases := map[string]string{
		"unknown-kind":      `asset "shader" "x" {}`,
		"duplicate":         "asset \"font\" \"a\" {\n family = \"x\"\n}\nasset \"font\" \"a\" {\n family = \"y\"\n}\n",
		"unknown-attribute": "asset \"font\" \"a\" {\n family = \"x\"\n colour = \"red\"\n}\n",
		"missing-required":  `asset "font" "a" {}`,
		"top-level-attr":    `version = 2`,
		"syntax":            `asset "font" "a" {`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := catalog(t).ParseHCL([]byte(src), "bad.hcl", "."); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestDuplicateNamesAcrossKindsAllowed(t *testing.T) {
	src := "assets:\n  - kind: font\n    name: Shared\n    fields: {family: x}\n  - kind: sprite\n    name: Shared\n    fields: {width: 1, height: 1}\n"
	m, err := catalog(t).ParseYAML([]byte(src), "ok.yaml", ".")
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	if len(m.Assets()) != 2 {
		t.Fatalf("expected 2 assets")
	}
}

func TestEmptyAndUnsupported(t *testing.T) {
	m, err := catalog(t).ParseYAML(nil, "empty.yaml", ".")
	if err != nil || len(m.Instances) != 0 {
		t.Fatalf("empty manifest: %v, %v", m, err)
	}
	p := writeFile(t, t.TempDir(), "game.toml", "")
	if _, err := catalog(t).LoadFile(p); !errors.Is(err, manifest.ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestNewCatalog_Duplicate(t *testing.T) {
	_, err := manifest.NewCatalog(
		manifest.KindOf[assettest.Sprite]("art"),
		manifest.KindOf[assettest.Font]("art"),
	)
	if err == nil {
		t.Fatalf("expected duplicate label error")
	}
	if _, err := manifest.NewCatalog(manifest.Kind{Label: "x"}); err == nil {
		t.Fatalf("expected invalid kind error")
	}
}
