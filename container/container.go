// Package container implements the pack wire format: an ordered sequence of
// (type name, payload) pairs.
//
// A pack is one CBOR array whose elements are 2-element arrays
// [text type-name, bytes payload], encoded with Core Deterministic Encoding.
// CBOR heads carry explicit lengths for both fields, so a pack re-segments
// without any external schema. There is no header. Payloads are opaque: the
// container only ever looks at their length and the accompanying tag.
package container

import (
	"errors"
	"fmt"

	"xdao.co/assetpack/asset"
	"xdao.co/assetpack/cidutil"
	"xdao.co/assetpack/codec"
)

// Entry is one tagged payload.
type Entry struct {
	_        struct{} `cbor:",toarray"`
	TypeName string
	Payload  []byte
}

// Encode serializes entries in order.
func Encode(entries []Entry) ([]byte, error) {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		if e.Payload == nil {
			// A nil slice would encode as null.
			e.Payload = []byte{}
		}
		out[i] = e
	}
	b, err := codec.Marshal(out)
	if err != nil {
		return nil, asset.WrapError(asset.KindSerialization, "ASSET-SER-002", "", "container: encode framing", err)
	}
	return b, nil
}

// Decode re-segments a pack into its ordered entries.
//
// Any framing problem (empty input, wrong shapes, trailing bytes, null or
// mistyped fields, an empty type name) is a KindDeserialization error with
// RuleID ASSET-DES-001.
func Decode(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, framingError("container: empty input", nil)
	}
	var items []codec.RawMessage
	if err := codec.UnmarshalStrict(data, &items); err != nil {
		return nil, framingError("container: malformed framing", err)
	}
	if items == nil {
		// CBOR null decodes into a nil slice without error.
		return nil, framingError("container: top-level item is not an array", nil)
	}
	entries := make([]Entry, 0, len(items))
	for i, item := range items {
		e, err := decodeEntry(item)
		if err != nil {
			return nil, framingError(fmt.Sprintf("container: entry %d", i), err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// CBOR major types of the two entry fields.
const (
	majorBytes = 2
	majorText  = 3
)

// decodeEntry accepts exactly [text, bytes] with a non-empty text.
func decodeEntry(item codec.RawMessage) (Entry, error) {
	if len(item) == 0 || item[0] != 0x82 {
		return Entry{}, errors.New("not a 2-element array")
	}
	var fields []codec.RawMessage
	if err := codec.UnmarshalStrict(item, &fields); err != nil {
		return Entry{}, err
	}
	if len(fields) != 2 || len(fields[0]) == 0 || len(fields[1]) == 0 {
		return Entry{}, errors.New("not a 2-element array")
	}
	if fields[0][0]>>5 != majorText {
		return Entry{}, errors.New("type name is not a text string")
	}
	if fields[1][0]>>5 != majorBytes {
		return Entry{}, errors.New("payload is not a byte string")
	}
	var e Entry
	if err := codec.UnmarshalStrict(fields[0], &e.TypeName); err != nil {
		return Entry{}, err
	}
	if e.TypeName == "" {
		return Entry{}, errors.New("empty type name")
	}
	if err := codec.UnmarshalStrict(fields[1], &e.Payload); err != nil {
		return Entry{}, err
	}
	if e.Payload == nil {
		e.Payload = []byte{}
	}
	return e, nil
}

func framingError(msg string, cause error) error {
	return asset.WrapError(asset.KindDeserialization, "ASSET-DES-001", "", msg, cause)
}

// Summary describes one entry without its payload bytes.
type Summary struct {
	Index    int
	TypeName string
	Size     int
	CID      string
}

// Inspect decodes data and summarizes each entry in order.
func Inspect(data []byte) ([]Summary, error) {
	entries, err := Decode(data)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(entries))
	for i, e := range entries {
		out = append(out, Summary{
			Index:    i,
			TypeName: e.TypeName,
			Size:     len(e.Payload),
			CID:      cidutil.String(e.Payload),
		})
	}
	return out, nil
}

func (s Summary) String() string {
	return fmt.Sprintf("%d\t%s\t%d\t%s", s.Index, s.TypeName, s.Size, s.CID)
}
