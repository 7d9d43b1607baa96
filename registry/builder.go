// Package registry rebuilds typed assets from a pack and serves
// identity-gated lookups over them.
//
// A Builder maps wire type names to decoders. Load re-segments a pack with
// the container format and dispatches every payload to the decoder
// registered for its type name. Loading is fail-closed: an unknown type
// name or a failing decoder aborts the whole load and no Registry is
// returned.
package registry

import (
	"encoding"
	"errors"
	"fmt"
	"log/slog"

	"xdao.co/assetpack/asset"
	"xdao.co/assetpack/container"
)

// ErrBuilderUsed is returned by Load on a Builder that has already loaded.
var ErrBuilderUsed = errors.New("registry: builder already used")

// Decoder reconstructs one asset from its payload bytes.
type Decoder func(payload []byte) (asset.Asset, error)

// Type is a dispatch entry: a wire type name and the decoder for it.
type Type struct {
	Name   string
	Decode Decoder
}

// TypeOf returns the dispatch entry for record type T. The wire name is
// taken from a zero T's AssetTypeName, and payloads are decoded with
// PT's UnmarshalBinary.
func TypeOf[T any, PT interface {
	*T
	asset.Asset
	encoding.BinaryUnmarshaler
}]() Type {
	var zero T
	return Type{
		Name: PT(&zero).AssetTypeName(),
		Decode: func(payload []byte) (asset.Asset, error) {
			v := PT(new(T))
			if err := v.UnmarshalBinary(payload); err != nil {
				return nil, err
			}
			return v, nil
		},
	}
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for debug records. The default is
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Builder accumulates decoders and performs a single Load.
//
// A Builder is owned by one goroutine. It has no internal locking.
type Builder struct {
	decoders map[string]Decoder
	logger   *slog.Logger
	used     bool
}

// NewBuilder returns a Builder with no registered types.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{decoders: make(map[string]Decoder), logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register installs the given dispatch entries. Registering a type name
// that is already present replaces the previous decoder.
func (b *Builder) Register(types ...Type) *Builder {
	for _, t := range types {
		b.RegisterDecoder(t.Name, t.Decode)
	}
	return b
}

// RegisterDecoder installs dec for typeName. A later registration for the
// same name wins.
func (b *Builder) RegisterDecoder(typeName string, dec Decoder) *Builder {
	if _, ok := b.decoders[typeName]; ok {
		b.logger.Debug("replacing asset decoder", "type", typeName)
	} else {
		b.logger.Debug("registered asset decoder", "type", typeName)
	}
	b.decoders[typeName] = dec
	return b
}

// Registered reports whether a decoder exists for typeName.
func (b *Builder) Registered(typeName string) bool {
	_, ok := b.decoders[typeName]
	return ok
}

// Load decodes data and returns the populated Registry.
//
// Errors:
//   - malformed framing: KindDeserialization (ASSET-DES-001)
//   - no decoder for an entry's type name: KindTypeNotFound (ASSET-TYP-001)
//   - a decoder failed: KindDeserialization (ASSET-DES-002)
//
// On error the returned Registry is nil. A Builder loads at most once.
func (b *Builder) Load(data []byte) (*Registry, error) {
	if b.used {
		return nil, ErrBuilderUsed
	}
	b.used = true

	entries, err := container.Decode(data)
	if err != nil {
		return nil, err
	}

	assets := make([]asset.Asset, 0, len(entries))
	for i, e := range entries {
		dec, ok := b.decoders[e.TypeName]
		if !ok || dec == nil {
			return nil, asset.NewError(asset.KindTypeNotFound, "ASSET-TYP-001", e.TypeName,
				fmt.Sprintf("registry: entry %d: no decoder registered for type %q", i, e.TypeName))
		}
		a, err := dec(e.Payload)
		if err != nil {
			return nil, asset.WrapError(asset.KindDeserialization, "ASSET-DES-002", e.TypeName,
				fmt.Sprintf("registry: entry %d: decode %s", i, e.TypeName), err)
		}
		if a == nil {
			return nil, asset.NewError(asset.KindDeserialization, "ASSET-DES-002", e.TypeName,
				fmt.Sprintf("registry: entry %d: decoder for %s returned no asset", i, e.TypeName))
		}
		assets = append(assets, a)
	}

	b.logger.Debug("loaded asset pack", "assets", len(assets), "bytes", len(data))
	return &Registry{assets: assets}, nil
}
