package bxf

import (
	"bytes"
	"testing"

	"github.com/mogaika/mass_convert/drivers/binder"
)

func TestRead3(t *testing.T) {
	files := []binder.File{
		{Name: "c1000.flver", ID: 1, Data: []byte("FLVER\x00x")},
		{Name: "c1000.anibnd", ID: 2, Data: []byte("BND3")},
	}
	header, data := Write3("07D7R6", files)
	if !IsHeader3(header) || IsHeader4(header) {
		t.Fatalf("header probes mismatch")
	}
	if IsHeader3(data) {
		t.Errorf("IsHeader3(data)=true")
	}

	b, err := Read3(header, data)
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Files) != 2 {
		t.Fatalf("len(Files)=%d; expected 2", len(b.Files))
	}
	for i, f := range b.Files {
		if f.Name != files[i].Name || !bytes.Equal(f.Data, files[i].Data) {
			t.Errorf("Files[%d]=%q,%q; expected %q,%q", i, f.Name, f.Data, files[i].Name, files[i].Data)
		}
	}
}

func TestRead3WrongCompanion(t *testing.T) {
	header, _ := Write3("07D7R6", []binder.File{{Name: "a", Data: []byte("x")}})
	if _, err := Read3(header, []byte("BDF4\x00\x00")); err == nil {
		t.Errorf("Read3 accepted generation 4 data")
	}
	if _, err := Read3(header, []byte("BDF3")); err == nil {
		t.Errorf("Read3 accepted truncated data")
	}
}
