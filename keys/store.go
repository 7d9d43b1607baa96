package keys

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// KeyStore keeps named ed25519 root seeds on the local filesystem, one
// directory per key:
//
//	<Directory>/<name>/root.key   hex seed, mode 0600
//
// The dilithium3 key for a name is derived from its root seed and never
// stored.
type KeyStore struct {
	Directory string
}

// DefaultDirectory is ~/.xdao/assetpack/keys.
func DefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".xdao", "assetpack", "keys"), nil
}

// Open returns a keystore rooted at directory, or at DefaultDirectory when
// directory is empty. The directory is created lazily by Init.
func Open(directory string) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = DefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: directory}, nil
}

func (ks *KeyStore) seedPath(name string) string {
	return filepath.Join(ks.Directory, name, "root.key")
}

// CheckKeyName accepts [A-Za-z0-9_-]+.
func CheckKeyName(name string) error {
	if name == "" {
		return errors.New("name cannot be empty")
	}
	for _, char := range name {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in name", char)
	}
	return nil
}

// ParseSeedHex parses a 32-byte hex seed, tolerating a 0x prefix and
// surrounding whitespace.
func ParseSeedHex(seedHex string) ([]byte, error) {
	seedHex = strings.TrimSpace(seedHex)
	seedHex = strings.TrimPrefix(seedHex, "0x")
	data, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(data) != ed25519.SeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", ed25519.SeedSize, len(data))
	}
	return data, nil
}

func saveSeed(path string, seed []byte, overwrite bool) error {
	if len(seed) != ed25519.SeedSize {
		return fmt.Errorf("expected seed length of %d bytes", ed25519.SeedSize)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := file.WriteString(hex.EncodeToString(seed) + "\n"); err != nil {
		return err
	}
	return file.Close()
}

// Init stores seed under name and returns its ed25519 issuer key. Without
// overwrite an existing key is an error.
func (ks *KeyStore) Init(name string, seed []byte, overwrite bool) (issuerKey string, path string, err error) {
	if err := CheckKeyName(name); err != nil {
		return "", "", err
	}
	path = ks.seedPath(name)
	if err := saveSeed(path, seed, overwrite); err != nil {
		return "", "", err
	}
	return IssuerKeyFromSeed(seed), path, nil
}

// Seed loads the root seed stored under name.
func (ks *KeyStore) Seed(name string) ([]byte, error) {
	if err := CheckKeyName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(ks.seedPath(name))
	if err != nil {
		return nil, err
	}
	return ParseSeedHex(string(data))
}

// List returns the sorted names of stored keys. A missing directory is an
// empty keystore.
func (ks *KeyStore) List() ([]string, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || CheckKeyName(entry.Name()) != nil {
			continue
		}
		if _, err := os.Stat(ks.seedPath(entry.Name())); err != nil {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// IssuerKey returns the issuer key of name for alg.
func (ks *KeyStore) IssuerKey(name, alg string) (string, error) {
	seed, err := ks.Seed(name)
	if err != nil {
		return "", err
	}
	return IssuerKeyFor(seed, alg)
}

// IssuerKeyFor returns the issuer key for alg derived from a root seed.
func IssuerKeyFor(seed []byte, alg string) (string, error) {
	switch alg {
	case AlgEd25519:
		if len(seed) != ed25519.SeedSize {
			return "", fmt.Errorf("keys: seed must be %d bytes", ed25519.SeedSize)
		}
		return IssuerKeyFromSeed(seed), nil
	case AlgDilithium3:
		pub, _, err := Dilithium3FromSeed(seed)
		if err != nil {
			return "", err
		}
		return dilithium3IssuerKey(pub), nil
	default:
		return "", fmt.Errorf("keys: unsupported signature algorithm %q", alg)
	}
}

// SealWithSeed seals pack with the alg key belonging to a root seed.
func SealWithSeed(pack []byte, seed []byte, alg, hashAlg string) (Seal, error) {
	switch alg {
	case AlgEd25519:
		if len(seed) != ed25519.SeedSize {
			return Seal{}, fmt.Errorf("keys: seed must be %d bytes", ed25519.SeedSize)
		}
		return SealEd25519(pack, hashAlg, ed25519.NewKeyFromSeed(seed))
	case AlgDilithium3:
		_, priv, err := Dilithium3FromSeed(seed)
		if err != nil {
			return Seal{}, err
		}
		return SealDilithium3(pack, hashAlg, priv)
	default:
		return Seal{}, fmt.Errorf("keys: unsupported signature algorithm %q", alg)
	}
}

// Seal seals pack with the stored key name.
func (ks *KeyStore) Seal(name string, pack []byte, alg, hashAlg string) (Seal, error) {
	seed, err := ks.Seed(name)
	if err != nil {
		return Seal{}, err
	}
	return SealWithSeed(pack, seed, alg, hashAlg)
}
