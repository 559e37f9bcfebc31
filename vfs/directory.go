package vfs

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

type DirectoryDriver struct {
	path string
}

func (dd *DirectoryDriver) Name() string {
	return filepath.Base(dd.path)
}

func (dd *DirectoryDriver) IsDirectory() bool {
	return true
}

func (dd *DirectoryDriver) List() ([]string, error) {
	if fileinfos, err := ioutil.ReadDir(dd.path); err != nil {
		return nil, errors.Wrapf(err, "Error getting directory '%s' info", dd.path)
	} else {
		result := make([]string, 0, len(fileinfos))
		for _, f := range fileinfos {
			result = append(result, f.Name())
		}
		return result, nil
	}
}

func (dd *DirectoryDriver) GetElement(name string) (Element, error) {
	newPath := filepath.Join(dd.path, name)
	if s, err := os.Stat(newPath); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotExist, "'%s'", newPath)
		}
		return nil, errors.Wrapf(err, "Stat error")
	} else if s.IsDir() {
		return NewDirectoryDriver(newPath), nil
	} else {
		return NewDirectoryDriverFile(newPath), nil
	}
}

func (dd *DirectoryDriver) Path() string {
	return dd.path
}

func NewDirectoryDriver(path string) *DirectoryDriver {
	return &DirectoryDriver{path: path}
}

type DirectoryDriverFile struct {
	path string
}

func NewDirectoryDriverFile(path string) *DirectoryDriverFile {
	return &DirectoryDriverFile{path: path}
}

func (ddf *DirectoryDriverFile) Name() string {
	return filepath.Base(ddf.path)
}

func (ddf *DirectoryDriverFile) IsDirectory() bool {
	return false
}

func (ddf *DirectoryDriverFile) Path() string {
	return ddf.path
}

func (ddf *DirectoryDriverFile) Size() int64 {
	if stat, err := os.Stat(ddf.path); err != nil {
		return 0
	} else {
		return stat.Size()
	}
}

func (ddf *DirectoryDriverFile) ReadAll() ([]byte, error) {
	b, err := ioutil.ReadFile(ddf.path)
	if err != nil {
		return nil, errors.Wrapf(err, "os.ReadFile('%s')", ddf.path)
	}
	return b, nil
}

// Open returns an element for an os path: a directory driver for folders,
// a file otherwise.
func Open(path string) (Element, error) {
	s, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotExist, "'%s'", path)
		}
		return nil, errors.Wrapf(err, "Stat error")
	}
	if s.IsDir() {
		return NewDirectoryDriver(path), nil
	}
	return NewDirectoryDriverFile(path), nil
}
