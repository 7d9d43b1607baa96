package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"xdao.co/assetpack/asset"
	"xdao.co/assetpack/compiler"
)

var (
	ErrUnknownKind = errors.New("manifest: unknown kind")
	ErrEmptyName   = errors.New("manifest: asset name is required")
	ErrDuplicate   = errors.New("manifest: duplicate asset")
	ErrFormat      = errors.New("manifest: unsupported file extension")
)

// Instance is one decoded manifest entry.
type Instance struct {
	Label string
	Name  string
	Asset asset.Asset
	// Pos is "file:line" of the entry, for diagnostics.
	Pos string
}

// Manifest is the ordered list of instances read from one file.
type Manifest struct {
	Path      string
	Instances []Instance
}

// AddTo appends every instance to c in file order.
func (m *Manifest) AddTo(c *compiler.Compiler) {
	for _, in := range m.Instances {
		c.Add(in.Asset)
	}
}

// Assets returns the instances' assets in file order.
func (m *Manifest) Assets() []asset.Asset {
	out := make([]asset.Asset, 0, len(m.Instances))
	for _, in := range m.Instances {
		out = append(out, in.Asset)
	}
	return out
}

// LoadFile parses the manifest at path, choosing the syntax by extension
// (.yaml, .yml or .hcl). Relative references inside the manifest resolve
// against the file's directory.
func (c *Catalog) LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	baseDir := filepath.Dir(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return c.ParseYAML(data, path, baseDir)
	case ".hcl":
		return c.ParseHCL(data, path, baseDir)
	default:
		return nil, fmt.Errorf("%w: %s", ErrFormat, path)
	}
}

// builder accumulates instances and enforces per-manifest uniqueness.
type builder struct {
	cat     *Catalog
	baseDir string
	m       *Manifest
	seen    map[[2]string]string
}

func newBuilder(cat *Catalog, path, baseDir string) *builder {
	return &builder{
		cat:     cat,
		baseDir: baseDir,
		m:       &Manifest{Path: path},
		seen:    make(map[[2]string]string),
	}
}

// add instantiates label/name, lets decode fill it and finishes it.
func (b *builder) add(label, name, pos string, decode func(target any) error) error {
	if prev, ok := b.seen[[2]string{label, name}]; ok {
		return fmt.Errorf("%s: %w %s %q (first defined at %s)", pos, ErrDuplicate, label, name, prev)
	}
	a, err := b.cat.instantiate(label, name)
	if err != nil {
		return fmt.Errorf("%s: %w", pos, err)
	}
	if err := decode(a); err != nil {
		return fmt.Errorf("%s: manifest: decode %s %q: %w", pos, label, name, err)
	}
	a.(interface{ SetAssetName(string) }).SetAssetName(name)
	if r, ok := a.(Resolver); ok {
		if err := r.Resolve(b.baseDir); err != nil {
			return fmt.Errorf("%s: manifest: resolve %s %q: %w", pos, label, name, err)
		}
	}
	b.seen[[2]string{label, name}] = pos
	b.m.Instances = append(b.m.Instances, Instance{Label: label, Name: name, Asset: a, Pos: pos})
	return nil
}
