package keys

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
)

// Signature algorithm names. An issuer key is "<alg>:" + base64(public key).
const (
	AlgEd25519    = "ed25519"
	AlgDilithium3 = "dilithium3"
)

// IssuerKeyFromSeed returns the ed25519 issuer key for seed.
func IssuerKeyFromSeed(seed []byte) string {
	priv := ed25519.NewKeyFromSeed(seed)
	return ed25519IssuerKey(priv.Public().(ed25519.PublicKey))
}

// IssuerKeyFromPublicKey encodes an ed25519 public key.
func IssuerKeyFromPublicKey(pub ed25519.PublicKey) (string, error) {
	if l := len(pub); l != ed25519.PublicKeySize {
		return "", fmt.Errorf("keys: ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, l)
	}
	return ed25519IssuerKey(pub), nil
}

func ed25519IssuerKey(pub ed25519.PublicKey) string {
	return AlgEd25519 + ":" + base64.StdEncoding.EncodeToString(pub)
}

func dilithium3IssuerKey(pub *mode3.PublicKey) string {
	return AlgDilithium3 + ":" + base64.StdEncoding.EncodeToString(pub.Bytes())
}

// parseIssuerKey splits an issuer key into its algorithm and raw public
// key bytes, checking the length for the algorithm.
func parseIssuerKey(issuerKey string) (alg string, pub []byte, err error) {
	alg, b64, ok := strings.Cut(issuerKey, ":")
	if !ok {
		return "", nil, fmt.Errorf("keys: malformed issuer key %q", issuerKey)
	}
	pub, err = base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", nil, fmt.Errorf("keys: issuer key: %w", err)
	}
	want := 0
	switch alg {
	case AlgEd25519:
		want = ed25519.PublicKeySize
	case AlgDilithium3:
		want = mode3.PublicKeySize
	default:
		return "", nil, fmt.Errorf("keys: unsupported signature algorithm %q", alg)
	}
	if len(pub) != want {
		return "", nil, fmt.Errorf("keys: %s public key must be %d bytes, got %d", alg, want, len(pub))
	}
	return alg, pub, nil
}
