package storage

import (
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/assetpack/cidutil"
)

// NamedCAS associates a store with a stable backend name, used in
// per-backend reports such as the result of PutAll.
type NamedCAS struct {
	Name string
	CAS  CAS
}

// ReplicatingCAS publishes every pack to all configured backends.
//
// Writes require every backend to return the CID computed locally from the
// bytes; otherwise ErrCIDMismatch is returned. Reads fall back in order.
type ReplicatingCAS struct {
	Backends []NamedCAS
}

var (
	_ CAS    = ReplicatingCAS{}
	_ Lister = ReplicatingCAS{}
)

// PutAll writes data to every backend and returns the canonical CID along
// with the CID each backend reported, keyed by backend name.
func (r ReplicatingCAS) PutAll(data []byte) (cid.Cid, map[string]cid.Cid, error) {
	want, err := cidutil.Sum(data)
	if err != nil {
		return cid.Undef, nil, err
	}
	if len(r.Backends) == 0 {
		return cid.Undef, nil, ErrNoBackends
	}

	out := make(map[string]cid.Cid, len(r.Backends))
	for _, b := range r.Backends {
		if b.CAS == nil {
			return cid.Undef, nil, fmt.Errorf("storage: nil CAS for backend %q", b.Name)
		}
		got, err := b.CAS.Put(data)
		if err != nil {
			return cid.Undef, out, fmt.Errorf("storage: backend %q: %w", b.Name, err)
		}
		out[b.Name] = got
		if got != want {
			return cid.Undef, out, ErrCIDMismatch
		}
	}
	return want, out, nil
}

func (r ReplicatingCAS) Put(data []byte) (cid.Cid, error) {
	id, _, err := r.PutAll(data)
	return id, err
}

func (r ReplicatingCAS) Get(id cid.Cid) ([]byte, error) {
	for _, b := range r.Backends {
		if b.CAS == nil {
			continue
		}
		out, err := b.CAS.Get(id)
		if err == nil {
			return out, nil
		}
		if !IsNotFound(err) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

func (r ReplicatingCAS) Has(id cid.Cid) bool {
	for _, b := range r.Backends {
		if b.CAS != nil && b.CAS.Has(id) {
			return true
		}
	}
	return false
}

// List returns the union of every listable backend's contents.
func (r ReplicatingCAS) List() ([]cid.Cid, error) {
	stores := make([]CAS, 0, len(r.Backends))
	for _, b := range r.Backends {
		stores = append(stores, b.CAS)
	}
	return unionList(stores)
}
