package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
)

// DeriveSeed deterministically derives a purpose-specific 32-byte seed from
// a root seed. The keystore keeps only the root seed; the dilithium3 key
// is derived from it under purpose "dilithium3".
func DeriveSeed(rootSeed []byte, purpose string) ([]byte, error) {
	if len(rootSeed) != ed25519.SeedSize {
		return nil, fmt.Errorf("keys: root seed must be %d bytes", ed25519.SeedSize)
	}
	if err := CheckKeyName(purpose); err != nil {
		return nil, fmt.Errorf("keys: purpose: %w", err)
	}

	h := sha256.New()
	_, _ = h.Write(rootSeed)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("xdao-assetpack-keys-v1"))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("purpose:"))
	_, _ = h.Write([]byte(purpose))
	return h.Sum(nil)[:ed25519.SeedSize], nil
}

// Dilithium3FromSeed derives the dilithium3 keypair belonging to rootSeed.
func Dilithium3FromSeed(rootSeed []byte) (*mode3.PublicKey, *mode3.PrivateKey, error) {
	d, err := DeriveSeed(rootSeed, AlgDilithium3)
	if err != nil {
		return nil, nil, err
	}
	var seed [mode3.SeedSize]byte
	copy(seed[:], d)
	pub, priv := mode3.NewKeyFromSeed(&seed)
	return pub, priv, nil
}
