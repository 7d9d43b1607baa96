// Package compiler serializes an ordered, heterogeneous list of assets into
// a single pack.
package compiler

import (
	"fmt"
	"log/slog"

	"xdao.co/assetpack/asset"
	"xdao.co/assetpack/cidutil"
	"xdao.co/assetpack/container"
)

// Compiler collects assets and compiles them into a pack.
//
// A Compiler is owned by one goroutine; it has no internal locking.
// Insertion order is preserved into the pack and, after loading, into
// registry iteration order.
type Compiler struct {
	assets []asset.Asset
	logger *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for debug records. The default is
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns an empty Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add appends a to the list. It performs no validation or deduplication.
func (c *Compiler) Add(a asset.Asset) {
	c.assets = append(c.assets, a)
}

// Len returns the number of assets added so far.
func (c *Compiler) Len() int { return len(c.assets) }

// Compile serializes every asset in insertion order and encodes the result
// as a pack.
//
// The first asset that fails to serialize aborts the compile; no partial
// output is returned. Compile does not modify the list, so calling it again
// without further Adds yields identical bytes.
func (c *Compiler) Compile() ([]byte, error) {
	entries, err := c.entries()
	if err != nil {
		return nil, err
	}
	b, err := container.Encode(entries)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("compiled asset pack", "assets", len(entries), "bytes", len(b))
	return b, nil
}

// Metadata returns per-asset metadata in insertion order. It serializes
// every asset, so it fails exactly when Compile would.
func (c *Compiler) Metadata() ([]asset.Metadata, error) {
	entries, err := c.entries()
	if err != nil {
		return nil, err
	}
	out := make([]asset.Metadata, 0, len(entries))
	for i, e := range entries {
		id, err := cidutil.Sum(e.Payload)
		if err != nil {
			return nil, asset.WrapError(asset.KindSerialization, "ASSET-SER-001", e.TypeName, "compiler: payload CID", err)
		}
		out = append(out, asset.Metadata{
			Name:     c.assets[i].AssetName(),
			TypeName: e.TypeName,
			CID:      id,
			Size:     len(e.Payload),
		})
	}
	return out, nil
}

func (c *Compiler) entries() ([]container.Entry, error) {
	entries := make([]container.Entry, 0, len(c.assets))
	for i, a := range c.assets {
		if a == nil {
			return nil, asset.NewError(asset.KindCompilation, "ASSET-CMP-001", "", fmt.Sprintf("compiler: asset %d is nil", i))
		}
		typeName := a.AssetTypeName()
		if typeName == "" {
			return nil, asset.NewError(asset.KindCompilation, "ASSET-CMP-002", "",
				fmt.Sprintf("compiler: asset %d (%q) has an empty type name", i, a.AssetName()))
		}
		payload, err := a.MarshalBinary()
		if err != nil {
			return nil, asset.WrapError(asset.KindSerialization, "ASSET-SER-001", typeName,
				fmt.Sprintf("compiler: serialize %s %q", typeName, a.AssetName()), err)
		}
		if payload == nil {
			payload = []byte{}
		}
		entries = append(entries, container.Entry{TypeName: typeName, Payload: payload})
	}
	return entries, nil
}
