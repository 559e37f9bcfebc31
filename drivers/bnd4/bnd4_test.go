package bnd4

import (
	"bytes"
	"testing"

	"github.com/mogaika/mass_convert/drivers/binder"
	"github.com/mogaika/mass_convert/drivers/bnd3"
)

func TestReadWrite(t *testing.T) {
	files := []binder.File{
		{Name: `N:\FDP\data\Model\chr\c2000\c2000.flver`, ID: 200, Data: []byte("FLVER\x00body")},
		{Name: `c2000_ユニコード.tpf`, ID: 100, Data: []byte("TPF\x00")},
	}
	b := Write("10F26A11", files)
	if !Is(b) || bnd3.Is(b) {
		t.Fatalf("probes mismatch: bnd4 %v bnd3 %v", Is(b), bnd3.Is(b))
	}

	bnd, err := Read(b)
	if err != nil {
		t.Fatal(err)
	}
	if !bnd.Unicode {
		t.Errorf("Unicode=false")
	}
	if len(bnd.Files) != len(files) {
		t.Fatalf("len(Files)=%d; expected %d", len(bnd.Files), len(files))
	}
	for i, f := range bnd.Files {
		if f.Name != files[i].Name || f.ID != files[i].ID || !bytes.Equal(f.Data, files[i].Data) {
			t.Errorf("Files[%d]=%q,%d,%q; expected %q,%d,%q",
				i, f.Name, f.ID, f.Data, files[i].Name, files[i].ID, files[i].Data)
		}
	}
}

func TestReadBadHeader(t *testing.T) {
	b := Write("10F26A11", []binder.File{{Name: "a", Data: []byte{1}}})
	b[0x0C] = 0xFF
	b[0x0D] = 0xFF
	if _, err := Read(b); err == nil {
		t.Errorf("Read(bad count) succeeded")
	}
}
