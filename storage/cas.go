// Package storage defines where compiled packs live once they leave the
// build: content-addressed stores keyed by the pack's CID.
//
// Every backend honors the same CID contract (CIDv1, raw codec, sha2-256;
// see cidutil), so a pack published to one store can be fetched from any
// other that holds the same bytes.
package storage

import (
	"sort"

	"github.com/ipfs/go-cid"
)

// CAS is a minimal content-addressable store.
//
// Contract:
//   - Put MUST be idempotent.
//   - Stored objects MUST be immutable.
//   - The returned CID MUST be derived from the bytes written.
//   - Get MUST return ErrNotFound when the CID is absent and MUST NOT
//     return bytes that do not hash to the requested CID.
type CAS interface {
	Put(data []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}

// Lister is implemented by stores that can enumerate their contents.
type Lister interface {
	// List returns every stored CID in ascending string order.
	List() ([]cid.Cid, error)
}

// List enumerates cas if it implements Lister.
func List(cas CAS) ([]cid.Cid, error) {
	l, ok := cas.(Lister)
	if !ok {
		return nil, ErrNotListable
	}
	return l.List()
}

// SortCIDs orders ids by their string form. Backends use it to satisfy
// Lister's ordering.
func SortCIDs(ids []cid.Cid) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
}
