// Package assettest provides record types for tests across the module.
package assettest

import (
	"errors"

	"xdao.co/assetpack/asset"
	"xdao.co/assetpack/codec"
)

// Sprite mirrors a typical game sprite record.
type Sprite struct {
	Name    string `cbor:"name" yaml:"-"`
	Width   uint32 `cbor:"width" yaml:"width" hcl:"width"`
	Height  uint32 `cbor:"height" yaml:"height" hcl:"height"`
	Texture string `cbor:"texture" yaml:"texture" hcl:"texture,optional"`
}

func (s *Sprite) AssetType() asset.TypeID        { return asset.TypeIDOf[Sprite]() }
func (s *Sprite) AssetTypeName() string          { return asset.TypeNameOf[Sprite]() }
func (s *Sprite) AssetName() string              { return s.Name }
func (s *Sprite) SetAssetName(name string)       { s.Name = name }
func (s *Sprite) MarshalBinary() ([]byte, error) { return codec.Marshal(s) }
func (s *Sprite) UnmarshalBinary(b []byte) error { return codec.Unmarshal(b, s) }

// Font is a second record type, used to check that lookups are gated by
// type identity and not by name alone.
type Font struct {
	Name   string `cbor:"name" yaml:"-"`
	Family string `cbor:"family" yaml:"family" hcl:"family"`
	Points int    `cbor:"points" yaml:"points" hcl:"points,optional"`
}

func (f *Font) AssetType() asset.TypeID        { return asset.TypeIDOf[Font]() }
func (f *Font) AssetTypeName() string          { return asset.TypeNameOf[Font]() }
func (f *Font) AssetName() string              { return f.Name }
func (f *Font) SetAssetName(name string)       { f.Name = name }
func (f *Font) MarshalBinary() ([]byte, error) { return codec.Marshal(f) }
func (f *Font) UnmarshalBinary(b []byte) error { return codec.Unmarshal(b, f) }

// ErrBroken is returned by Broken's serialization methods.
var ErrBroken = errors.New("assettest: broken record")

// Broken fails to serialize and to deserialize.
type Broken struct {
	Name string
}

func (b *Broken) AssetType() asset.TypeID        { return asset.TypeIDOf[Broken]() }
func (b *Broken) AssetTypeName() string          { return asset.TypeNameOf[Broken]() }
func (b *Broken) AssetName() string              { return b.Name }
func (b *Broken) MarshalBinary() ([]byte, error) { return nil, ErrBroken }
func (b *Broken) UnmarshalBinary([]byte) error   { return ErrBroken }

// Liar claims Sprite's identity and type name without being a Sprite.
type Liar struct {
	Name string `cbor:"name"`
}

func (l *Liar) AssetType() asset.TypeID        { return asset.TypeIDOf[Sprite]() }
func (l *Liar) AssetTypeName() string          { return "assettest.Liar" }
func (l *Liar) AssetName() string              { return l.Name }
func (l *Liar) MarshalBinary() ([]byte, error) { return codec.Marshal(l) }
func (l *Liar) UnmarshalBinary(b []byte) error { return codec.Unmarshal(b, l) }
