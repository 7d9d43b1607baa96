// Package codec is the CBOR encoding shared by the pack container, the
// builtin record types and pack seals.
//
// Encoding uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map
// keys, smallest integer encodings, definite lengths only. The same logical
// value always produces identical bytes, which is what makes repeated
// compiles of one asset set byte-identical.
package codec

import "github.com/fxamacker/cbor/v2"

var (
	encMode cbor.EncMode

	// decMode accepts standard CBOR and ignores unknown struct fields.
	decMode cbor.DecMode

	// strictMode rejects unknown fields and duplicate map keys. Used for
	// framing whose shape is fixed.
	strictMode cbor.DecMode
)

func init() {
	var err error

	// Record types implement encoding.BinaryMarshaler by calling Marshal on
	// themselves. The library default would route back into MarshalBinary,
	// so both directions ignore the binary (un)marshaler interfaces.
	encOptions := cbor.CoreDetEncOptions()
	encOptions.BinaryMarshaler = cbor.BinaryMarshalerNone
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		BinaryUnmarshaler: cbor.BinaryUnmarshalerNone,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}

	strictMode, err = cbor.DecOptions{
		BinaryUnmarshaler: cbor.BinaryUnmarshalerNone,
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
		IndefLength:       cbor.IndefLengthForbidden,
	}.DecMode()
	if err != nil {
		panic("codec: strict CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes a single CBOR data item from data into v. Trailing
// bytes after the item are an error.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// UnmarshalStrict is like Unmarshal but also rejects unknown struct
// fields, duplicate map keys and indefinite-length items.
func UnmarshalStrict(data []byte, v any) error {
	return strictMode.Unmarshal(data, v)
}

// RawMessage is a raw encoded CBOR value, used to defer decoding.
type RawMessage = cbor.RawMessage

// Diagnose returns the CBOR diagnostic notation (RFC 8949 §8) of data.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
