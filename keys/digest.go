package keys

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// Hash algorithm names accepted in seals.
const (
	HashSHA256   = "sha256"
	HashSHA512   = "sha512"
	HashSHA3_256 = "sha3-256"
)

// sealDomain separates pack seals from any other use of the same keys.
const sealDomain = "xdao-assetpack-seal-v1"

func digestFor(hashAlg string, message []byte) ([]byte, error) {
	switch hashAlg {
	case HashSHA256:
		s := sha256.Sum256(message)
		return s[:], nil
	case HashSHA512:
		s := sha512.Sum512(message)
		return s[:], nil
	case HashSHA3_256:
		s := sha3.Sum256(message)
		return s[:], nil
	default:
		return nil, fmt.Errorf("keys: unsupported hash algorithm %q", hashAlg)
	}
}

// sealDigest is hash(domain || 0x00 || pack).
func sealDigest(hashAlg string, pack []byte) ([]byte, error) {
	msg := make([]byte, 0, len(sealDomain)+1+len(pack))
	msg = append(msg, sealDomain...)
	msg = append(msg, 0)
	msg = append(msg, pack...)
	return digestFor(hashAlg, msg)
}
