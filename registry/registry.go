package registry

import (
	"encoding"

	"xdao.co/assetpack/asset"
	"xdao.co/assetpack/cidutil"
)

// Registry is the immutable result of a successful Load.
//
// Assets are kept in pack order. A Registry is never mutated after Load
// returns and may be read from any number of goroutines.
type Registry struct {
	assets []asset.Asset
}

// Len returns the number of loaded assets.
func (r *Registry) Len() int { return len(r.assets) }

// Assets returns every asset in pack order. The returned slice is a copy.
func (r *Registry) Assets() []asset.Asset {
	out := make([]asset.Asset, len(r.assets))
	copy(out, r.assets)
	return out
}

// Metadata returns per-asset metadata in pack order. Payload CIDs are
// computed by re-serializing each asset, so they match the compiler's
// metadata for round-trip-faithful types.
func (r *Registry) Metadata() ([]asset.Metadata, error) {
	out := make([]asset.Metadata, 0, len(r.assets))
	for _, a := range r.assets {
		payload, err := a.MarshalBinary()
		if err != nil {
			return nil, asset.WrapError(asset.KindSerialization, "ASSET-SER-001", a.AssetTypeName(),
				"registry: serialize "+a.AssetTypeName()+" "+a.AssetName(), err)
		}
		id, err := cidutil.Sum(payload)
		if err != nil {
			return nil, asset.WrapError(asset.KindSerialization, "ASSET-SER-001", a.AssetTypeName(), "registry: payload CID", err)
		}
		out = append(out, asset.Metadata{
			Name:     a.AssetName(),
			TypeName: a.AssetTypeName(),
			CID:      id,
			Size:     len(payload),
		})
	}
	return out, nil
}

// Get returns the first asset of type T named name.
//
// A candidate matches only if its AssetType equals the AssetType a T
// reports and its name equals name. A candidate that passes the identity check but is not a PT
// is skipped. No match yields (nil, false).
func Get[T any, PT interface {
	*T
	asset.Asset
	encoding.BinaryUnmarshaler
}](r *Registry, name string) (PT, bool) {
	if r == nil {
		return nil, false
	}
	want := PT(new(T)).AssetType()
	for _, a := range r.assets {
		if a.AssetType() != want || a.AssetName() != name {
			continue
		}
		if v, ok := asset.As[PT](a); ok {
			return v, true
		}
	}
	return nil, false
}

// All returns every asset of type T in pack order.
func All[T any, PT interface {
	*T
	asset.Asset
	encoding.BinaryUnmarshaler
}](r *Registry) []PT {
	if r == nil {
		return nil
	}
	want := PT(new(T)).AssetType()
	var out []PT
	for _, a := range r.assets {
		if a.AssetType() != want {
			continue
		}
		if v, ok := asset.As[PT](a); ok {
			out = append(out, v)
		}
	}
	return out
}
