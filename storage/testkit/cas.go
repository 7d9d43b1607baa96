// Package testkit holds the conformance suite every pack store must pass.
package testkit

import (
	"bytes"
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/assetpack/cidutil"
	"xdao.co/assetpack/container"
	"xdao.co/assetpack/storage"
)

// NewCAS constructs a fresh, empty store for a test. The returned store
// MUST be isolated from other tests.
type NewCAS func(t *testing.T) storage.CAS

// SamplePack returns a small, well-formed pack whose bytes vary with name.
func SamplePack(t *testing.T, name string) []byte {
	t.Helper()
	b, err := container.Encode([]container.Entry{
		{TypeName: "testkit.Sample", Payload: []byte(name)},
	})
	if err != nil {
		t.Fatalf("container.Encode: %v", err)
	}
	return b
}

// RunCASConformance exercises the storage.CAS contract against newCAS.
// Stores that also implement storage.Lister get the listing checks.
func RunCASConformance(t *testing.T, newCAS NewCAS) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		cas := newCAS(t)
		want := SamplePack(t, "round-trip")

		id, err := cas.Put(want)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if id != cidutil.MustSum(want) {
			t.Fatalf("Put CID mismatch: got %s want %s", id, cidutil.MustSum(want))
		}

		got, err := cas.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}
		if !cidutil.Verify(id, got) {
			t.Fatalf("Get returned bytes not matching requested CID")
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		cas := newCAS(t)
		b := SamplePack(t, "same bytes")

		id1, err := cas.Put(b)
		if err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		id2, err := cas.Put(b)
		if err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		if id1 != id2 {
			t.Fatalf("Put not idempotent: %s vs %s", id1, id2)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		cas := newCAS(t)
		b := SamplePack(t, "missing")
		id := cidutil.MustSum(b)

		if cas.Has(id) {
			t.Fatalf("Has returned true for missing CID")
		}
		if _, err := cas.Get(id); !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}

		if _, err := cas.Put(b); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !cas.Has(id) {
			t.Fatalf("Has returned false after Put")
		}
	})

	t.Run("RejectUndefCID", func(t *testing.T) {
		cas := newCAS(t)
		var undef cid.Cid
		if cas.Has(undef) {
			t.Fatalf("Has should be false for undefined CID")
		}
		if _, err := cas.Get(undef); err == nil {
			t.Fatalf("Get should fail for undefined CID")
		}
	})

	t.Run("ListSorted", func(t *testing.T) {
		cas := newCAS(t)
		if _, ok := cas.(storage.Lister); !ok {
			t.Skip("store does not implement storage.Lister")
		}
		var want []cid.Cid
		for _, name := range []string{"a", "b", "c"} {
			id, err := cas.Put(SamplePack(t, name))
			if err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			want = append(want, id)
		}
		storage.SortCIDs(want)

		got, err := storage.List(cas)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("List: got %d ids want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("List[%d]: got %s want %s", i, got[i], want[i])
			}
		}
	})
}
