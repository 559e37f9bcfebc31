package utils

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const separators = `\/`

func correctSeparators(path string) string {
	return strings.Map(func(r rune) rune {
		if r == '\\' || r == '/' {
			return filepath.Separator
		}
		return r
	}, path)
}

// CleanPath normalizes separators of a game path (N:\FRPG\data\x.flver),
// drops a drive prefix and leading separators so it can be joined under
// an output folder.
func CleanPath(path string) string {
	if len(path) >= 2 && path[1] == ':' {
		path = path[2:]
	}
	return correctSeparators(strings.TrimLeft(path, separators))
}

// Combine joins the first path as is and cleaned remaining parts.
func Combine(first string, parts ...string) string {
	elems := make([]string, 0, len(parts)+1)
	elems = append(elems, correctSeparators(first))
	for _, p := range parts {
		if p = CleanPath(p); p != "" {
			elems = append(elems, p)
		}
	}
	return filepath.Join(elems...)
}

// EntryDir returns the cleaned directory part of a container entry name.
func EntryDir(name string) string {
	name = CleanPath(name)
	if dir := filepath.Dir(name); dir != "." {
		return dir
	}
	return ""
}

// EntryBase returns the file name of a container entry name.
func EntryBase(name string) string {
	return filepath.Base(CleanPath(name))
}

// StripExtensions cuts everything after the first dot of the file name,
// so c1000.flv.dcx becomes c1000.
func StripExtensions(name string) string {
	name = EntryBase(name)
	if i := strings.IndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}

// SafeFolderName makes a folder name out of a file name that
// never collides with the file itself.
func SafeFolderName(name string) string {
	return strings.NewReplacer(".", "-", ":", "-").Replace(EntryBase(name))
}

// FolderOnlyPath returns folder, or a sibling name if a regular file
// already occupies that path.
func FolderOnlyPath(folder string) string {
	if !isRegularFile(folder) {
		return folder
	}
	candidate := folder + "_folder"
	for i := 0; isRegularFile(candidate); i++ {
		candidate = folder + "_folder" + strconv.Itoa(i)
	}
	return candidate
}

func isRegularFile(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

// FileExists reports whether path exists and is not a directory.
func FileExists(path string) bool {
	return isRegularFile(path)
}
