package codec

import (
	"bytes"
	"strings"
	"testing"
)

type spriteRecord struct {
	Name    string    `cbor:"name"`
	Size    [2]uint32 `cbor:"size"`
	Texture string    `cbor:"texture,omitempty"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := spriteRecord{Name: "Player", Size: [2]uint32{64, 64}, Texture: "player.png"}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded spriteRecord
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != original {
		t.Fatalf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	values := map[string]uint32{"zeta": 1, "alpha": 2, "mid": 3}

	first, err := Marshal(values)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := Marshal(values)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("deterministic encoding violated: %x != %x", first, again)
		}
	}
}

func TestUnmarshalRejectsTrailingBytes(t *testing.T) {
	data, err := Marshal("Player")
	if err != nil {
		t.Fatal(err)
	}
	var s string
	if err := Unmarshal(append(data, 0x00), &s); err == nil {
		t.Fatalf("expected error for trailing bytes")
	}
}

func TestUnmarshalStrictRejectsUnknownField(t *testing.T) {
	data, err := Marshal(map[string]any{"name": "Player", "bogus": 1})
	if err != nil {
		t.Fatal(err)
	}

	var lenient spriteRecord
	if err := Unmarshal(data, &lenient); err != nil {
		t.Fatalf("Unmarshal should ignore unknown fields: %v", err)
	}

	var strict spriteRecord
	if err := UnmarshalStrict(data, &strict); err == nil {
		t.Fatalf("UnmarshalStrict should reject unknown fields")
	}
}

func TestUnmarshalInvalidCBOR(t *testing.T) {
	var record spriteRecord
	if err := Unmarshal([]byte{0xFF, 0xFE, 0xFD}, &record); err == nil {
		t.Fatalf("Unmarshal should reject invalid CBOR")
	}
}

func TestRawMessageDefersDecoding(t *testing.T) {
	data, err := Marshal([]any{"Sprite", []byte{1, 2}})
	if err != nil {
		t.Fatal(err)
	}
	var items []RawMessage
	if err := UnmarshalStrict(data, &items); err != nil {
		t.Fatalf("UnmarshalStrict: %v", err)
	}
	if len(items) != 2 || items[0][0] != 0x66 || items[1][0] != 0x42 {
		t.Fatalf("unexpected raw items %x", items)
	}
	var name string
	if err := Unmarshal(items[0], &name); err != nil || name != "Sprite" {
		t.Fatalf("Unmarshal raw item: %q %v", name, err)
	}
}

func TestDiagnose(t *testing.T) {
	data, err := Marshal([]any{"Sprite", []byte{1, 2}})
	if err != nil {
		t.Fatal(err)
	}
	diag, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(diag, `"Sprite"`) || !strings.Contains(diag, "h'0102'") {
		t.Fatalf("unexpected diagnostic notation: %s", diag)
	}
}

// selfEncoding implements the binary marshaler interfaces in terms of the
// codec itself, the way packaged record types do.
type selfEncoding struct {
	Value string `cbor:"value"`
}

func (s *selfEncoding) MarshalBinary() ([]byte, error) { return Marshal(s) }
func (s *selfEncoding) UnmarshalBinary(b []byte) error { return Unmarshal(b, s) }

func TestSelfEncodingTypesDoNotRecurse(t *testing.T) {
	original := &selfEncoding{Value: "Enemy"}
	data, err := original.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	var decoded selfEncoding
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if decoded != *original {
		t.Fatalf("roundtrip mismatch: got %+v want %+v", decoded, *original)
	}
	// Encoded as a map, not as a byte string wrapping itself.
	if data[0]>>5 != 5 {
		t.Fatalf("expected CBOR map (major type 5), got major type %d", data[0]>>5)
	}
}
