package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func sep(p string) string {
	return filepath.FromSlash(p)
}

func TestCleanPath(t *testing.T) {
	for _, c := range []struct{ in, out string }{
		{`N:\FRPG\data\Model\chr\c1000.flver`, sep("FRPG/data/Model/chr/c1000.flver")},
		{`c1000.flver`, "c1000.flver"},
		{`/abs/path`, sep("abs/path")},
		{``, ``},
	} {
		if got := CleanPath(c.in); got != c.out {
			t.Errorf("CleanPath(%q)=%q; expected %q", c.in, got, c.out)
		}
	}
}

func TestStripExtensions(t *testing.T) {
	for _, c := range []struct{ in, out string }{
		{"c1000.flv.dcx", "c1000"},
		{`N:\x\c1000.flver`, "c1000"},
		{"noext", "noext"},
		{".hidden", ".hidden"},
	} {
		if got := StripExtensions(c.in); got != c.out {
			t.Errorf("StripExtensions(%q)=%q; expected %q", c.in, got, c.out)
		}
	}
}

func TestSafeFolderName(t *testing.T) {
	for _, c := range []struct{ in, out string }{
		{"c1000.chrbnd.dcx", "c1000-chrbnd-dcx"},
		{`N:\FRPG\data\m10.tpf`, "m10-tpf"},
	} {
		if got := SafeFolderName(c.in); got != c.out {
			t.Errorf("SafeFolderName(%q)=%q; expected %q", c.in, got, c.out)
		}
	}
}

func TestEntryDir(t *testing.T) {
	for _, c := range []struct{ in, out string }{
		{`N:\FRPG\data\c1000.flver`, sep("FRPG/data")},
		{`c1000.flver`, ""},
	} {
		if got := EntryDir(c.in); got != c.out {
			t.Errorf("EntryDir(%q)=%q; expected %q", c.in, got, c.out)
		}
	}
}

func TestFolderOnlyPath(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out")
	if got := FolderOnlyPath(target); got != target {
		t.Errorf("FolderOnlyPath(free)=%q; expected %q", got, target)
	}

	if err := os.WriteFile(target, []byte{1}, 0666); err != nil {
		t.Fatal(err)
	}
	if got := FolderOnlyPath(target); got != target+"_folder" {
		t.Errorf("FolderOnlyPath(file)=%q; expected %q", got, target+"_folder")
	}

	if err := os.WriteFile(target+"_folder", []byte{1}, 0666); err != nil {
		t.Fatal(err)
	}
	if got := FolderOnlyPath(target); got != target+"_folder0" {
		t.Errorf("FolderOnlyPath(file x2)=%q; expected %q", got, target+"_folder0")
	}
}
