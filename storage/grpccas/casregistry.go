package grpccas

import (
	"errors"
	"flag"
	"strings"
	"time"

	"xdao.co/assetpack/storage"
	"xdao.co/assetpack/storage/casregistry"
)

// remote holds the command-line settings of the "grpc" backend.
type remote struct {
	target      string
	dialTimeout time.Duration
	rpcTimeout  time.Duration
	maxPack     int
}

var remoteFlags remote

func (r *remote) register(fs *flag.FlagSet) {
	fs.StringVar(&r.target, "grpc-target", "", "host:port of an xdao-casgrpcd pack store (for -backend=grpc)")
	fs.DurationVar(&r.dialTimeout, "grpc-dial-timeout", 5*time.Second, "Give up connecting to the pack store after this long")
	fs.DurationVar(&r.rpcTimeout, "grpc-timeout", 0, "Deadline for each pack transfer; 0 waits indefinitely")
	fs.IntVar(&r.maxPack, "grpc-max-msg-bytes", 0, "Largest pack in bytes that can be sent or received; 0 keeps the 4 MiB gRPC limit")
}

func (r *remote) open() (storage.CAS, func() error, error) {
	target := strings.TrimSpace(r.target)
	if target == "" {
		return nil, nil, errors.New("grpccas: missing -grpc-target")
	}
	client, err := Dial(target, DialOptions{Timeout: r.dialTimeout, MaxMsgBytes: r.maxPack})
	if err != nil {
		return nil, nil, err
	}
	client.Timeout = r.rpcTimeout
	return client, client.Close, nil
}

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:          "grpc",
		Description:   "Remote pack store served by xdao-casgrpcd",
		Usage:         casregistry.UsageCLI,
		RegisterFlags: remoteFlags.register,
		Open:          remoteFlags.open,
	})
}
