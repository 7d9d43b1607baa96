package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ipfs/go-cid"

	"xdao.co/assetpack/storage"
	"xdao.co/assetpack/storage/bundle"
)

func (a *app) cmdBundle(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(a.errOut, "usage: xdao-assets bundle <subcommand> ...")
		fmt.Fprintln(a.errOut, "subcommands: export, import")
		return 2
	}
	switch args[0] {
	case "export":
		return a.cmdBundleExport(args[1:])
	case "import":
		return a.cmdBundleImport(args[1:])
	default:
		fmt.Fprintf(a.errOut, "unknown bundle subcommand: %s\n", args[0])
		return 2
	}
}

func (a *app) cmdBundleExport(args []string) int {
	fs := flag.NewFlagSet("bundle export", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	store := addStoreFlags(fs)
	output := fs.String("o", "", "Bundle output path")
	index := fs.Bool("index", true, "Write index.json")
	var labels stringList
	fs.Var(&labels, "label", "Label a pack as name=CID (repeatable)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *output == "" {
		fmt.Fprintln(a.errOut, "missing -o")
		return 2
	}

	var ids []cid.Cid
	for _, s := range fs.Args() {
		id, err := cid.Decode(s)
		if err != nil {
			fmt.Fprintf(a.errOut, "invalid CID %q: %v\n", s, err)
			return 2
		}
		ids = append(ids, id)
	}
	opts := bundle.ExportOptions{IncludeIndex: *index}
	if len(labels) > 0 {
		opts.Labels = make(map[string]cid.Cid, len(labels))
		for _, l := range labels {
			name, cidStr, ok := strings.Cut(l, "=")
			if !ok || name == "" {
				fmt.Fprintf(a.errOut, "invalid -label %q: want name=CID\n", l)
				return 2
			}
			id, err := cid.Decode(cidStr)
			if err != nil {
				fmt.Fprintf(a.errOut, "invalid -label %q: %v\n", l, err)
				return 2
			}
			opts.Labels[name] = id
		}
	}

	return a.withStore(store, func(cas storage.CAS) int {
		if len(ids) == 0 {
			all, err := storage.List(cas)
			if err != nil {
				return a.fail("list packs", err)
			}
			ids = all
		}
		f, err := os.Create(*output)
		if err != nil {
			return a.fail("create bundle", err)
		}
		if err := bundle.Export(f, cas, ids, opts); err != nil {
			_ = f.Close()
			_ = os.Remove(*output)
			return a.fail("export", err)
		}
		if err := f.Close(); err != nil {
			return a.fail("close bundle", err)
		}
		a.log.Info("exported bundle", "path", *output, "packs", len(ids))
		return 0
	})
}

func (a *app) cmdBundleImport(args []string) int {
	fs := flag.NewFlagSet("bundle import", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(a.errOut, "usage: xdao-assets bundle import [store flags] <bundle.tar>")
		return 2
	}
	return a.withStore(store, func(cas storage.CAS) int {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			return a.fail("open bundle", err)
		}
		defer f.Close()
		ids, err := bundle.Import(f, cas)
		if err != nil {
			return a.fail("import", err)
		}
		for _, id := range ids {
			_, _ = fmt.Fprintln(a.out, id.String())
		}
		return 0
	})
}
