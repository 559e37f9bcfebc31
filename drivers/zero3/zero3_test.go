package zero3

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/mogaika/mass_convert/drivers/binder"
)

func testFiles() []binder.File {
	return []binder.File{
		{Name: "chr/c0000.flver", Data: bytes.Repeat([]byte{1}, 40)},
		{Name: "chr/c0001.flver", Data: bytes.Repeat([]byte{2}, 40)},
		{Name: "obj/o0000.tpf", Data: bytes.Repeat([]byte{3}, 8)},
	}
}

func TestIs(t *testing.T) {
	for _, c := range []struct {
		in  string
		out bool
	}{
		{"model.000", true},
		{"model.001", false},
		{"model.000.bak", false},
	} {
		if got := Is(c.in); got != c.out {
			t.Errorf("Is(%q)=%v; expected %v", c.in, got, c.out)
		}
	}
}

func TestReadParts(t *testing.T) {
	files := testFiles()
	parts := Write(files, 0x60)
	if len(parts) < 2 {
		t.Fatalf("expected data split over parts, got %d", len(parts))
	}

	got, err := Read(parts)
	if err != nil {
		t.Fatal(err)
	}
	for i := range files {
		if got[i].Name != files[i].Name || !bytes.Equal(got[i].Data, files[i].Data) {
			t.Errorf("file %d=%q; expected %q", i, got[i].Name, files[i].Name)
		}
	}

	if _, err := Read(parts[:1]); err == nil {
		t.Errorf("Read without second part succeeded")
	}
}

func TestReadPath(t *testing.T) {
	dir := t.TempDir()
	for i, p := range Write(testFiles(), 0x60) {
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("data.%03d", i)), p, 0666); err != nil {
			t.Fatal(err)
		}
	}
	first := filepath.Join(dir, "data.000")
	if !Exists(first) {
		t.Fatalf("Exists(%q)=false", first)
	}
	files, err := ReadPath(first)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Errorf("len(files)=%d; expected 3", len(files))
	}
}
