// Package pack reads and writes compiled packs: as files next to the
// program that ships them, or through a content-addressed store.
//
// Failures touching the filesystem or a store are asset.KindIO errors.
// Framing problems found while validating keep their
// asset.KindDeserialization classification.
package pack

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ipfs/go-cid"

	"xdao.co/assetpack/asset"
	"xdao.co/assetpack/cidutil"
	"xdao.co/assetpack/container"
	"xdao.co/assetpack/storage"
)

// DefaultName is the conventional file name of a program's pack.
const DefaultName = "assets.bin"

// WriteFile writes data to path atomically: it writes a temporary file in
// the same directory, syncs it and renames it over path. Readers never
// observe a partially written pack.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ioError("ASSET-IO-002", "pack: create directory "+dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return ioError("ASSET-IO-002", "pack: create temp file", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return ioError("ASSET-IO-002", "pack: write "+path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return ioError("ASSET-IO-002", "pack: sync "+path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return ioError("ASSET-IO-002", "pack: close "+path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return ioError("ASSET-IO-002", "pack: chmod "+path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return ioError("ASSET-IO-002", "pack: rename to "+path, err)
	}
	return nil
}

// ReadFile reads the pack at path. It does not validate framing; the
// registry does that on load.
func ReadFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, ioError("ASSET-IO-001", "pack: read "+path, err)
	}
	return b, nil
}

// BesideExecutable returns the path of name in the directory holding the
// running executable, with symlinks resolved.
func BesideExecutable(name string) (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", ioError("ASSET-IO-001", "pack: locate executable", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), name), nil
}

// Publish validates data as a pack and stores it in cas, returning its CID.
func Publish(cas storage.CAS, data []byte) (cid.Cid, error) {
	if _, err := container.Decode(data); err != nil {
		return cid.Undef, err
	}
	if cas == nil {
		return cid.Undef, ioError("ASSET-IO-003", "pack: publish", fmt.Errorf("nil store"))
	}
	id, err := cas.Put(data)
	if err != nil {
		return cid.Undef, ioError("ASSET-IO-003", "pack: publish", err)
	}
	if !cidutil.Verify(id, data) {
		return cid.Undef, ioError("ASSET-IO-003", "pack: publish", storage.ErrCIDMismatch)
	}
	return id, nil
}

// Fetch retrieves the pack id from cas and validates its CID and framing.
func Fetch(cas storage.CAS, id cid.Cid) ([]byte, error) {
	if cas == nil {
		return nil, ioError("ASSET-IO-003", "pack: fetch", fmt.Errorf("nil store"))
	}
	b, err := cas.Get(id)
	if err != nil {
		return nil, ioError("ASSET-IO-003", "pack: fetch "+id.String(), err)
	}
	if !cidutil.Verify(id, b) {
		return nil, ioError("ASSET-IO-003", "pack: fetch "+id.String(), storage.ErrCIDMismatch)
	}
	if _, err := container.Decode(b); err != nil {
		return nil, err
	}
	return b, nil
}

func ioError(ruleID, msg string, cause error) error {
	return asset.WrapError(asset.KindIO, ruleID, "", msg, cause)
}
