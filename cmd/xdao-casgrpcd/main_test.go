package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestListBackends(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run(context.Background(), []string{"-list-backends"}, &out, &errOut); code != 0 {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	if !strings.Contains(out.String(), "localfs") {
		t.Fatalf("expected localfs in %q", out.String())
	}
	if strings.Contains(out.String(), "grpc\t") {
		t.Fatalf("grpc backend must not be served by the daemon: %q", out.String())
	}
}

func TestRejectsBadFlags(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run(context.Background(), []string{"-backend", "nope"}, &out, &errOut); code != 2 {
		t.Fatalf("unknown backend: exit %d", code)
	}
	if code := run(context.Background(), []string{"-log-level", "loud"}, &out, &errOut); code != 2 {
		t.Fatalf("bad log level: exit %d", code)
	}
	if code := run(context.Background(), []string{"-backend", "localfs"}, &out, &errOut); code != 2 {
		t.Fatalf("missing -localfs-dir: exit %d", code)
	}
}
