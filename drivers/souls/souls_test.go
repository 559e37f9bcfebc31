package souls

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/mogaika/mass_convert/drivers/binder"
	"github.com/mogaika/mass_convert/drivers/bnd3"
	"github.com/mogaika/mass_convert/drivers/bnd4"
	"github.com/mogaika/mass_convert/drivers/bxf"
	"github.com/mogaika/mass_convert/drivers/dcx"
	"github.com/mogaika/mass_convert/formats"
)

func flverHeader(version uint32) []byte {
	b := []byte("FLVER\x00L\x00\x00\x00\x00\x00\x00\x00\x00\x00")
	b[8] = byte(version)
	b[9] = byte(version >> 8)
	b[10] = byte(version >> 16)
	return b
}

func TestIsModel(t *testing.T) {
	lib := NewLibrary()
	for _, c := range []struct {
		data []byte
		kind formats.ModelKind
	}{
		{flverHeader(0x15), formats.MODEL_FLVER0},
		{flverHeader(0x2000C), formats.MODEL_FLVER2},
		{[]byte("MDL4\x00\x00\x00\x00"), formats.MODEL_MDL4},
		{[]byte("SMD4\x00\x00\x00\x00"), formats.MODEL_SMD4},
	} {
		for _, kind := range formats.ModelKinds {
			if got := lib.IsModel(kind, c.data); got != (kind == c.kind) {
				t.Errorf("IsModel(%v, %q)=%v", kind, c.data[:4], got)
			}
		}
	}
}

func TestReadModelWithoutReader(t *testing.T) {
	lib := NewLibrary()
	_, err := lib.ReadModel(formats.MODEL_SMD4, []byte("SMD4\x00\x00\x00\x00"))
	if errors.Cause(err) != formats.ErrNoReader {
		t.Errorf("ReadModel err=%v; expected ErrNoReader", err)
	}
}

func TestReadModelRegistered(t *testing.T) {
	SetModelReader(formats.MODEL_MDL4, func(b []byte) (formats.Model, error) {
		return &formats.MDL4{Version: 0x40001}, nil
	})
	defer SetModelReader(formats.MODEL_MDL4, nil)

	m, err := NewLibrary().ReadModel(formats.MODEL_MDL4, []byte("MDL4\x00\x00\x00\x00"))
	if err != nil {
		t.Fatal(err)
	}
	if mdl, ok := m.(*formats.MDL4); !ok || mdl.Version != 0x40001 {
		t.Errorf("ReadModel returned %#v", m)
	}
}

func TestContainers(t *testing.T) {
	lib := NewLibrary()
	files := []binder.File{{Name: "a.flver", Data: []byte("x")}}

	b3 := bnd3.Write("07D7R6", files)
	b4 := bnd4.Write("07D7R6", files)
	if !lib.IsContainer(formats.CONTAINER_BND3, b3) || lib.IsContainer(formats.CONTAINER_BND4, b3) {
		t.Errorf("generation 3 probes mismatch")
	}
	if !lib.IsContainer(formats.CONTAINER_BND4, b4) || lib.IsContainer(formats.CONTAINER_BND3, b4) {
		t.Errorf("generation 4 probes mismatch")
	}

	packed, err := dcx.Compress(b4)
	if err != nil {
		t.Fatal(err)
	}
	if !lib.IsCompressed(packed) {
		t.Fatalf("IsCompressed=false")
	}
	raw, err := lib.Decompress(packed)
	if err != nil {
		t.Fatal(err)
	}
	c, err := lib.ReadContainer(formats.CONTAINER_BND4, raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Entries) != 1 || c.Entries[0].Name != "a.flver" {
		t.Errorf("entries %#v", c.Entries)
	}

	header, data := bxf.Write3("07D7R6", files)
	if !lib.IsContainer(formats.CONTAINER_BXF3, header) {
		t.Errorf("IsContainer(BXF3)=false")
	}
	if c, err := lib.ReadSplitContainer(formats.CONTAINER_BXF3, header, data); err != nil || len(c.Entries) != 1 {
		t.Errorf("ReadSplitContainer=%v,%v", c, err)
	}
	if _, err := lib.ReadSplitContainer(formats.CONTAINER_BND3, header, data); err == nil {
		t.Errorf("ReadSplitContainer(BND3) succeeded")
	}
}
