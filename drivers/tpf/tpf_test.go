package tpf

import (
	"bytes"
	"testing"
)

func TestReadWrite(t *testing.T) {
	textures := []Texture{
		{Name: "c1000_a", Format: 1, Mipmaps: 1, Data: []byte("DDS |first")},
		{Name: "c1000_n", Format: 5, Mipmaps: 3, Data: []byte("DDS |second")},
	}
	pack, err := Read(Write(textures))
	if err != nil {
		t.Fatal(err)
	}
	if pack.Platform != PLATFORM_PC {
		t.Errorf("Platform=%v; expected PC", pack.Platform)
	}
	if len(pack.Textures) != 2 {
		t.Fatalf("len(Textures)=%d; expected 2", len(pack.Textures))
	}
	for i, tex := range pack.Textures {
		if tex.Name != textures[i].Name || !bytes.Equal(tex.Data, textures[i].Data) || tex.Format != textures[i].Format {
			t.Errorf("Textures[%d]=%q,%q; expected %q,%q", i, tex.Name, tex.Data, textures[i].Name, textures[i].Data)
		}
	}
}

func TestReadConsolePack(t *testing.T) {
	b := Write([]Texture{{Name: "x", Data: []byte{1}}})
	b[0x0C] = byte(PLATFORM_PS3)
	if _, err := Read(b); err == nil {
		t.Errorf("Read(PS3 pack) succeeded")
	}
}
