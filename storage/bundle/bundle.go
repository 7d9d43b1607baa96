// Package bundle moves packs between stores as a single deterministic TAR
// file.
//
// Layout:
//
//	packs/<cid>   one file per pack, bytes exactly as stored
//	index.json    optional; per-pack entry listing and labels
//
// The index is informational. Import trusts only the pack files, and
// re-verifies each one's CID and container framing before writing it.
package bundle

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/assetpack/cidutil"
	"xdao.co/assetpack/container"
	"xdao.co/assetpack/storage"
)

// FormatVersion is the current index schema version.
const FormatVersion = 1

const (
	packDir   = "packs/"
	indexName = "index.json"
)

// epoch pins every header timestamp so identical inputs produce identical
// archives.
var epoch = time.Unix(0, 0).UTC()

// ExportOptions controls bundle export.
type ExportOptions struct {
	// Labels maps human names (e.g. "game/v3") to pack CIDs. Every
	// labelled CID must also be exported.
	Labels map[string]cid.Cid
	// IncludeIndex writes index.json.
	IncludeIndex bool
}

// Index is the decoded index.json.
type Index struct {
	Version   int         `json:"version"`
	CIDCodec  string      `json:"cidCodec"`
	Multihash string      `json:"multihash"`
	Packs     []PackIndex `json:"packs"`
	Labels    []Label     `json:"labels,omitempty"`
}

type PackIndex struct {
	CID     string       `json:"cid"`
	Size    int          `json:"size"`
	Entries []EntryIndex `json:"entries"`
}

type EntryIndex struct {
	TypeName string `json:"type"`
	CID      string `json:"cid"`
	Size     int    `json:"size"`
}

type Label struct {
	Name string `json:"name"`
	CID  string `json:"cid"`
}

// Export writes the packs named by ids, read from cas, to w.
//
// Output is deterministic: packs are ordered by CID string, duplicates are
// collapsed and TAR headers are normalized. Every pack is verified against
// its CID and must decode as a container.
func Export(w io.Writer, cas storage.CAS, ids []cid.Cid, opts ExportOptions) error {
	if cas == nil {
		return fmt.Errorf("bundle: nil CAS")
	}

	uniq := make(map[string]cid.Cid, len(ids))
	for _, id := range ids {
		if !id.Defined() {
			return storage.ErrInvalidCID
		}
		uniq[id.String()] = id
	}
	keys := make([]string, 0, len(uniq))
	for s := range uniq {
		keys = append(keys, s)
	}
	sort.Strings(keys)

	labels, err := sortedLabels(opts.Labels, uniq)
	if err != nil {
		return err
	}

	tw := tar.NewWriter(w)
	idx := Index{
		Version:   FormatVersion,
		CIDCodec:  "raw",
		Multihash: "sha2-256",
		Packs:     make([]PackIndex, 0, len(keys)),
		Labels:    labels,
	}
	for _, s := range keys {
		id := uniq[s]
		b, err := cas.Get(id)
		if err != nil {
			_ = tw.Close()
			return fmt.Errorf("bundle: read %s: %w", s, err)
		}
		if !cidutil.Verify(id, b) {
			_ = tw.Close()
			return storage.ErrCIDMismatch
		}
		entry, err := indexPack(s, b)
		if err != nil {
			_ = tw.Close()
			return err
		}
		if err := writeFile(tw, packDir+s, b); err != nil {
			_ = tw.Close()
			return err
		}
		idx.Packs = append(idx.Packs, entry)
	}

	if opts.IncludeIndex {
		b, err := json.MarshalIndent(idx, "", "  ")
		if err != nil {
			_ = tw.Close()
			return err
		}
		if err := writeFile(tw, indexName, append(b, '\n')); err != nil {
			_ = tw.Close()
			return err
		}
	}
	return tw.Close()
}

func sortedLabels(in map[string]cid.Cid, exported map[string]cid.Cid) ([]Label, error) {
	if len(in) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(in))
	for k := range in {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make([]Label, 0, len(names))
	for _, name := range names {
		if name == "" {
			return nil, fmt.Errorf("bundle: empty label name")
		}
		id := in[name]
		if !id.Defined() {
			return nil, storage.ErrInvalidCID
		}
		if _, ok := exported[id.String()]; !ok {
			return nil, fmt.Errorf("bundle: label %q points at %s, which is not exported", name, id)
		}
		out = append(out, Label{Name: name, CID: id.String()})
	}
	return out, nil
}

func indexPack(cidStr string, b []byte) (PackIndex, error) {
	entries, err := container.Decode(b)
	if err != nil {
		return PackIndex{}, fmt.Errorf("bundle: %s: %w", cidStr, err)
	}
	out := PackIndex{CID: cidStr, Size: len(b), Entries: make([]EntryIndex, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, EntryIndex{
			TypeName: e.TypeName,
			CID:      cidutil.String(e.Payload),
			Size:     len(e.Payload),
		})
	}
	return out, nil
}

// ImportOptions controls bundle import.
type ImportOptions struct {
	// IgnoreUnknown skips unrecognized TAR entries instead of failing.
	IgnoreUnknown bool
}

// Import reads a bundle from r and stores every pack in cas, failing on
// unknown entries. It returns the imported CIDs in archive order.
func Import(r io.Reader, cas storage.CAS) ([]cid.Cid, error) {
	return ImportWithOptions(r, cas, ImportOptions{})
}

// ImportWithOptions is Import with explicit options.
//
// Each pack must hash to the CID in its file name and decode as a
// container. The first failure stops the import; packs already written
// stay in cas, which is harmless because stores are content-addressed.
func ImportWithOptions(r io.Reader, cas storage.CAS, opts ImportOptions) ([]cid.Cid, error) {
	if cas == nil {
		return nil, fmt.Errorf("bundle: nil CAS")
	}

	tr := tar.NewReader(r)
	seen := map[string]struct{}{}
	var imported []cid.Cid

	for {
		h, err := tr.Next()
		if err == io.EOF {
			return imported, nil
		}
		if err != nil {
			return imported, err
		}
		name := cleanTarPath(h.Name)
		if name == "" {
			return imported, fmt.Errorf("bundle: invalid entry path: %q", h.Name)
		}

		if h.Typeflag != tar.TypeReg {
			if opts.IgnoreUnknown {
				continue
			}
			return imported, fmt.Errorf("bundle: unexpected tar entry type: %v (%s)", h.Typeflag, name)
		}

		if name == indexName {
			continue
		}
		if !strings.HasPrefix(name, packDir) {
			if opts.IgnoreUnknown {
				continue
			}
			return imported, fmt.Errorf("bundle: unknown entry: %s", name)
		}

		id, err := cid.Decode(strings.TrimPrefix(name, packDir))
		if err != nil || !id.Defined() {
			return imported, storage.ErrInvalidCID
		}
		if _, ok := seen[id.String()]; ok {
			return imported, fmt.Errorf("bundle: duplicate pack entry: %s", id)
		}
		seen[id.String()] = struct{}{}

		payload, err := io.ReadAll(tr)
		if err != nil {
			return imported, err
		}
		if !cidutil.Verify(id, payload) {
			return imported, storage.ErrCIDMismatch
		}
		if _, err := container.Decode(payload); err != nil {
			return imported, fmt.Errorf("bundle: %s: %w", id, err)
		}

		putID, err := cas.Put(payload)
		if err != nil {
			return imported, err
		}
		if putID != id {
			return imported, storage.ErrCIDMismatch
		}
		imported = append(imported, id)
	}
}

// ReadIndex returns the bundle's index.json without importing anything.
// A bundle without an index yields storage.ErrNotFound.
func ReadIndex(r io.Reader) (Index, error) {
	tr := tar.NewReader(r)
	for {
		h, err := tr.Next()
		if err == io.EOF {
			return Index{}, storage.ErrNotFound
		}
		if err != nil {
			return Index{}, err
		}
		if cleanTarPath(h.Name) != indexName {
			continue
		}
		var idx Index
		if err := json.NewDecoder(tr).Decode(&idx); err != nil {
			return Index{}, fmt.Errorf("bundle: index.json: %w", err)
		}
		if idx.Version != FormatVersion {
			return Index{}, fmt.Errorf("bundle: unsupported index version %d", idx.Version)
		}
		return idx, nil
	}
}

func writeFile(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  epoch,
		Typeflag: tar.TypeReg,
		Format:   tar.FormatUSTAR,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := io.Copy(tw, bytes.NewReader(content))
	return err
}

func cleanTarPath(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return ""
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." || part == ".." {
			return ""
		}
	}
	return name
}
