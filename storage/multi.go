package storage

import (
	"github.com/ipfs/go-cid"
)

// MultiCAS layers several stores with a fixed fallback order.
//
// Reads try Adapters in slice order, skipping stores that report
// ErrNotFound. Any other error stops the search. Put writes only to the
// first adapter, which is usually the local pack cache.
type MultiCAS struct {
	Adapters []CAS
}

var (
	_ CAS    = MultiCAS{}
	_ Lister = MultiCAS{}
)

func (m MultiCAS) Put(data []byte) (cid.Cid, error) {
	if len(m.Adapters) == 0 {
		return cid.Undef, ErrNoBackends
	}
	return m.Adapters[0].Put(data)
}

func (m MultiCAS) Get(id cid.Cid) ([]byte, error) {
	for _, cas := range m.Adapters {
		b, err := cas.Get(id)
		if err == nil {
			return b, nil
		}
		if !IsNotFound(err) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

func (m MultiCAS) Has(id cid.Cid) bool {
	for _, cas := range m.Adapters {
		if cas.Has(id) {
			return true
		}
	}
	return false
}

// List returns the union of every listable adapter's contents. Adapters
// that cannot enumerate are skipped; if none can, ErrNotListable is
// returned.
func (m MultiCAS) List() ([]cid.Cid, error) {
	return unionList(m.Adapters)
}

func unionList(stores []CAS) ([]cid.Cid, error) {
	seen := make(map[cid.Cid]struct{})
	listed := false
	for _, cas := range stores {
		if cas == nil {
			continue
		}
		ids, err := List(cas)
		if err == ErrNotListable {
			continue
		}
		if err != nil {
			return nil, err
		}
		listed = true
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}
	if !listed {
		return nil, ErrNotListable
	}
	out := make([]cid.Cid, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	SortCIDs(out)
	return out, nil
}
