// Package builtin provides general-purpose record types that most packs
// need: raw files and string tables.
package builtin

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"xdao.co/assetpack/asset"
	"xdao.co/assetpack/codec"
	"xdao.co/assetpack/manifest"
	"xdao.co/assetpack/registry"
)

// File embeds a file's bytes in the pack.
//
// In manifests only path (and optionally media_type) is given; the bytes
// are read at build time relative to the manifest's directory. Path is kept
// as written so the pack does not depend on where it was built.
type File struct {
	Name      string `cbor:"name" yaml:"-"`
	Path      string `cbor:"path" yaml:"path" hcl:"path"`
	MediaType string `cbor:"media_type,omitempty" yaml:"media_type" hcl:"media_type,optional"`
	Data      []byte `cbor:"data" yaml:"-"`
}

func (f *File) AssetType() asset.TypeID        { return asset.TypeIDOf[File]() }
func (f *File) AssetTypeName() string          { return asset.TypeNameOf[File]() }
func (f *File) AssetName() string              { return f.Name }
func (f *File) SetAssetName(name string)       { f.Name = name }
func (f *File) MarshalBinary() ([]byte, error) { return codec.Marshal(f) }
func (f *File) UnmarshalBinary(b []byte) error { return codec.Unmarshal(b, f) }

// Resolve reads Path, relative to baseDir unless absolute, into Data and
// infers MediaType from the extension when it is empty.
func (f *File) Resolve(baseDir string) error {
	if f.Path == "" {
		return fmt.Errorf("builtin: file %q has no path", f.Name)
	}
	p := f.Path
	if !filepath.IsAbs(p) {
		p = filepath.Join(baseDir, p)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return fmt.Errorf("builtin: %w", err)
	}
	f.Data = b
	if f.MediaType == "" {
		f.MediaType = mime.TypeByExtension(filepath.Ext(p))
	}
	if f.MediaType == "" {
		f.MediaType = "application/octet-stream"
	}
	return nil
}

// Table is a flat string-to-string mapping, e.g. localized strings or
// tuning values.
type Table struct {
	Name   string            `cbor:"name" yaml:"-"`
	Values map[string]string `cbor:"values" yaml:"values" hcl:"values"`
}

func (t *Table) AssetType() asset.TypeID        { return asset.TypeIDOf[Table]() }
func (t *Table) AssetTypeName() string          { return asset.TypeNameOf[Table]() }
func (t *Table) AssetName() string              { return t.Name }
func (t *Table) SetAssetName(name string)       { t.Name = name }
func (t *Table) MarshalBinary() ([]byte, error) { return codec.Marshal(t) }
func (t *Table) UnmarshalBinary(b []byte) error { return codec.Unmarshal(b, t) }

// Lookup returns the value for key.
func (t *Table) Lookup(key string) (string, bool) {
	v, ok := t.Values[key]
	return v, ok
}

// Register installs decoders for every builtin type.
func Register(b *registry.Builder) *registry.Builder {
	return b.Register(
		registry.TypeOf[File](),
		registry.TypeOf[Table](),
	)
}

// Kinds returns the manifest kinds for the builtin types, labelled "file"
// and "table".
func Kinds() []manifest.Kind {
	return []manifest.Kind{
		manifest.KindOf[File]("file"),
		manifest.KindOf[Table]("table"),
	}
}

// Catalog returns a manifest catalog with the builtin kinds plus extra.
func Catalog(extra ...manifest.Kind) (*manifest.Catalog, error) {
	return manifest.NewCatalog(append(Kinds(), extra...)...)
}
