package keys

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/cloudflare/circl/sign/dilithium/mode3"

	"xdao.co/assetpack/cidutil"
	"xdao.co/assetpack/codec"
)

// SealExt is the conventional file suffix for a pack's seal.
const SealExt = ".seal"

// ErrSealMismatch is returned when a seal does not verify against a pack.
var ErrSealMismatch = errors.New("keys: seal does not match pack")

// Seal is a detached signature over one pack.
type Seal struct {
	Alg       string `cbor:"alg"`
	HashAlg   string `cbor:"hash"`
	IssuerKey string `cbor:"issuer"`
	// Pack is the CID of the sealed pack, recorded so a seal can be
	// matched to its pack without hashing.
	Pack      string `cbor:"pack"`
	Signature []byte `cbor:"sig"`
}

// MarshalBinary encodes the seal as deterministic CBOR.
func (s Seal) MarshalBinary() ([]byte, error) {
	return codec.Marshal(s)
}

// UnmarshalBinary decodes a seal, rejecting unknown fields.
func (s *Seal) UnmarshalBinary(b []byte) error {
	var tmp Seal
	if err := codec.UnmarshalStrict(b, &tmp); err != nil {
		return fmt.Errorf("keys: decode seal: %w", err)
	}
	*s = tmp
	return nil
}

// SealEd25519 signs pack with an ed25519 key.
func SealEd25519(pack []byte, hashAlg string, priv ed25519.PrivateKey) (Seal, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return Seal{}, fmt.Errorf("keys: ed25519 private key must be %d bytes", ed25519.PrivateKeySize)
	}
	digest, err := sealDigest(hashAlg, pack)
	if err != nil {
		return Seal{}, err
	}
	return Seal{
		Alg:       AlgEd25519,
		HashAlg:   hashAlg,
		IssuerKey: ed25519IssuerKey(priv.Public().(ed25519.PublicKey)),
		Pack:      cidutil.String(pack),
		Signature: ed25519.Sign(priv, digest),
	}, nil
}

// SealDilithium3 signs pack with a dilithium3 key.
func SealDilithium3(pack []byte, hashAlg string, priv *mode3.PrivateKey) (Seal, error) {
	if priv == nil {
		return Seal{}, errors.New("keys: missing dilithium3 private key")
	}
	digest, err := sealDigest(hashAlg, pack)
	if err != nil {
		return Seal{}, err
	}
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(priv, digest, sig)
	return Seal{
		Alg:       AlgDilithium3,
		HashAlg:   hashAlg,
		IssuerKey: dilithium3IssuerKey(priv.Public().(*mode3.PublicKey)),
		Pack:      cidutil.String(pack),
		Signature: sig,
	}, nil
}

// Verify checks that s is a valid seal over pack. It does not decide
// whether the issuer is trusted; compare IssuerKey for that.
func (s Seal) Verify(pack []byte) error {
	alg, pub, err := parseIssuerKey(s.IssuerKey)
	if err != nil {
		return err
	}
	if alg != s.Alg {
		return fmt.Errorf("keys: seal algorithm %q does not match issuer key %q", s.Alg, alg)
	}
	if s.Pack != cidutil.String(pack) {
		return ErrSealMismatch
	}
	digest, err := sealDigest(s.HashAlg, pack)
	if err != nil {
		return err
	}

	var ok bool
	switch alg {
	case AlgEd25519:
		ok = ed25519.Verify(ed25519.PublicKey(pub), digest, s.Signature)
	case AlgDilithium3:
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return fmt.Errorf("keys: %w", err)
		}
		ok = mode3.Verify(&pk, digest, s.Signature)
	}
	if !ok {
		return ErrSealMismatch
	}
	return nil
}
