// Package cidutil derives content identifiers for packs and asset payloads.
//
// Every identifier in this module is a CIDv1 with the "raw" multicodec and a
// sha2-256 multihash, so the same bytes always map to the same CID no matter
// which store holds them.
package cidutil

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Sum returns the CID of data.
func Sum(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// MustSum is like Sum but panics on error.
//
// multihash.Sum only fails for unknown codes or invalid lengths, neither of
// which can happen with SHA2_256 and the default length.
func MustSum(data []byte) cid.Cid {
	id, err := Sum(data)
	if err != nil {
		panic("cidutil: " + err.Error())
	}
	return id
}

// String returns the string form of the CID of data, or "" on error.
func String(data []byte) string {
	id, err := Sum(data)
	if err != nil {
		return ""
	}
	return id.String()
}

// Verify reports whether data hashes to id.
func Verify(id cid.Cid, data []byte) bool {
	if !id.Defined() {
		return false
	}
	got, err := Sum(data)
	if err != nil {
		return false
	}
	return got == id
}
