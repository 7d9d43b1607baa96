package grpccas

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/assetpack/cidutil"
	"xdao.co/assetpack/storage"
	"xdao.co/assetpack/storage/localfs"
	"xdao.co/assetpack/storage/testkit"
)

func serve(t *testing.T, srv *Server) *Client {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	gs := grpc.NewServer()
	RegisterPackStoreServer(gs, srv)
	go func() {
		_ = gs.Serve(lis)
	}()
	t.Cleanup(gs.Stop)

	dialer := func(ctx context.Context, s string) (net.Conn, error) { return lis.Dial() }
	cc, err := grpc.DialContext(
		context.Background(),
		"bufnet",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("DialContext: %v", err)
	}
	t.Cleanup(func() { _ = cc.Close() })

	client := NewClient(cc)
	client.Timeout = 2 * time.Second
	return client
}

func TestGRPCCAS_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		cas, err := localfs.New(t.TempDir())
		if err != nil {
			t.Fatalf("localfs.New: %v", err)
		}
		return serve(t, &Server{CAS: cas})
	})
}

func TestGRPCCAS_RejectsMalformedPacks(t *testing.T) {
	client := serve(t, &Server{CAS: storage.NewMemory()})
	if _, err := client.Put([]byte("not a pack")); err == nil {
		t.Fatalf("expected malformed pack to be rejected")
	}

	blobs := serve(t, &Server{CAS: storage.NewMemory(), AcceptAny: true})
	if _, err := blobs.Put([]byte("not a pack")); err != nil {
		t.Fatalf("AcceptAny Put: %v", err)
	}
}

func TestGRPCCAS_ErrorMapping(t *testing.T) {
	client := serve(t, &Server{CAS: storage.NewMemory()})

	missing := cidutil.MustSum([]byte("missing"))
	if _, err := client.Get(missing); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Get missing: got %v want ErrNotFound", err)
	}

	reply, err := client.client.Get(context.Background(), wrapperspb.String("not-a-cid"))
	if reply != nil || fromStatus(err) != storage.ErrInvalidCID {
		t.Fatalf("expected ErrInvalidCID for malformed CID, got %v", err)
	}
}

type unlistable struct{ storage.CAS }

func TestGRPCCAS_ListUnsupported(t *testing.T) {
	client := serve(t, &Server{CAS: unlistable{storage.NewMemory()}})
	if _, err := client.List(); !errors.Is(err, storage.ErrNotListable) {
		t.Fatalf("expected ErrNotListable, got %v", err)
	}
}

type tamperingCAS struct{ *storage.Memory }

func (tamperingCAS) Get(cid.Cid) ([]byte, error) { return []byte("tampered"), nil }

func TestGRPCCAS_ServerRejectsTamperedBytes(t *testing.T) {
	mem := storage.NewMemory()
	client := serve(t, &Server{CAS: tamperingCAS{mem}})
	id, err := client.Put(testkit.SamplePack(t, "orig"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := client.Get(id); !errors.Is(err, storage.ErrCIDMismatch) {
		t.Fatalf("expected ErrCIDMismatch, got %v", err)
	}
}
