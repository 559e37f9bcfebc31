package vfs

import (
	"strings"

	"github.com/pkg/errors"
)

// MemoryFile is a named blob, usually a container entry.
type MemoryFile struct {
	name string
	data []byte
}

func NewMemoryFile(name string, data []byte) *MemoryFile {
	return &MemoryFile{name: name, data: data}
}

func (mf *MemoryFile) Name() string             { return mf.name }
func (mf *MemoryFile) IsDirectory() bool        { return false }
func (mf *MemoryFile) Size() int64              { return int64(len(mf.data)) }
func (mf *MemoryFile) ReadAll() ([]byte, error) { return mf.data, nil }

// MemoryDirectory lists the entries of an already read container.
// Lookups ignore case.
type MemoryDirectory struct {
	name  string
	files []*MemoryFile
}

func NewMemoryDirectory(name string) *MemoryDirectory {
	return &MemoryDirectory{name: name}
}

func (md *MemoryDirectory) Name() string      { return md.name }
func (md *MemoryDirectory) IsDirectory() bool { return true }

func (md *MemoryDirectory) Add(f *MemoryFile) {
	md.files = append(md.files, f)
}

func (md *MemoryDirectory) Files() []*MemoryFile {
	return md.files
}

func (md *MemoryDirectory) List() ([]string, error) {
	result := make([]string, len(md.files))
	for i, f := range md.files {
		result[i] = f.name
	}
	return result, nil
}

func (md *MemoryDirectory) GetElement(name string) (Element, error) {
	for _, f := range md.files {
		if strings.EqualFold(f.name, name) {
			return f, nil
		}
	}
	return nil, errors.Wrapf(ErrNotExist, "'%s' in '%s'", name, md.name)
}
