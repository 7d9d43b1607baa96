package asset

import "github.com/ipfs/go-cid"

// Metadata describes one packaged asset without its payload.
//
// CID addresses the asset's serialized payload (CIDv1, raw codec,
// sha2-256), so two metadata records with equal CIDs carry identical bytes.
type Metadata struct {
	Name     string
	TypeName string
	CID      cid.Cid
	Size     int
}
