// Package manifest builds asset instances from YAML or HCL files, so packs
// can be authored as data instead of Go literals.
//
// A Catalog binds short labels ("sprite", "font") to record types. A
// manifest names each instance by label and logical name and supplies the
// record's fields. Manifests are stricter than the pack format: unknown
// labels, unknown fields and repeated (label, name) pairs are errors.
package manifest

import (
	"encoding"
	"fmt"
	"sort"

	"xdao.co/assetpack/asset"
	"xdao.co/assetpack/registry"
)

// Resolver is implemented by record types that reference external data,
// such as a file path relative to the manifest. Resolve runs once after
// the instance's fields are decoded.
type Resolver interface {
	Resolve(baseDir string) error
}

// Kind binds a manifest label to a record type.
type Kind struct {
	Label string
	Type  registry.Type
	new   func() asset.Asset
}

// KindOf returns the Kind for record type T under label.
func KindOf[T any, PT interface {
	*T
	asset.Asset
	encoding.BinaryUnmarshaler
	SetAssetName(string)
}](label string) Kind {
	return Kind{
		Label: label,
		Type:  registry.TypeOf[T, PT](),
		new:   func() asset.Asset { return PT(new(T)) },
	}
}

// Catalog is the set of kinds a manifest may use.
type Catalog struct {
	kinds map[string]Kind
}

// NewCatalog returns a catalog of kinds. Labels must be non-empty and
// unique.
func NewCatalog(kinds ...Kind) (*Catalog, error) {
	c := &Catalog{kinds: make(map[string]Kind, len(kinds))}
	if err := c.Add(kinds...); err != nil {
		return nil, err
	}
	return c, nil
}

// Add extends the catalog.
func (c *Catalog) Add(kinds ...Kind) error {
	for _, k := range kinds {
		if k.Label == "" || k.new == nil {
			return fmt.Errorf("manifest: invalid kind %q", k.Label)
		}
		if _, ok := c.kinds[k.Label]; ok {
			return fmt.Errorf("manifest: duplicate kind %q", k.Label)
		}
		c.kinds[k.Label] = k
	}
	return nil
}

// Labels returns the catalog's labels, sorted.
func (c *Catalog) Labels() []string {
	out := make([]string, 0, len(c.kinds))
	for l := range c.kinds {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Register installs a decoder for every kind in the catalog, so packs
// compiled from its manifests can be loaded with b.
func (c *Catalog) Register(b *registry.Builder) *registry.Builder {
	for _, l := range c.Labels() {
		b.Register(c.kinds[l].Type)
	}
	return b
}

func (c *Catalog) instantiate(label, name string) (asset.Asset, error) {
	k, ok := c.kinds[label]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, label)
	}
	if name == "" {
		return nil, ErrEmptyName
	}
	return k.new(), nil
}
