package dcx

import (
	"bytes"
	"testing"
)

func TestDecompress(t *testing.T) {
	data := bytes.Repeat([]byte("FLVER\x00"), 100)
	packed, err := Compress(data)
	if err != nil {
		t.Fatal(err)
	}
	if !Is(packed) {
		t.Fatalf("Is(packed)=false")
	}
	if Is(data) {
		t.Errorf("Is(raw)=true")
	}

	raw, err := Decompress(packed)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw, data) {
		t.Errorf("Decompress returned %d bytes; expected %d", len(raw), len(data))
	}
}

func TestDecompressCorrupted(t *testing.T) {
	packed, err := Compress([]byte("payload"))
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range [][]byte{
		packed[:RAW_HEADER_SIZE+2],
		append(append([]byte{}, packed[:0x28]...), append([]byte("KRAK"), packed[0x2C:]...)...),
		[]byte("DCX\x00"),
	} {
		if _, err := Decompress(b); err == nil {
			t.Errorf("Decompress(%d bytes) succeeded; expected error", len(b))
		}
	}
}
