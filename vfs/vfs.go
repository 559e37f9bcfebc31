package vfs

import (
	"github.com/pkg/errors"
)

var ErrNotExist = errors.New("element does not exist")

// must contain only metadata (filename) as long as possible
// (before List/GetElement/ReadAll calls)
type Element interface {
	Name() string
	IsDirectory() bool
}

type File interface {
	Element
	Size() int64
	ReadAll() ([]byte, error)
}

type Directory interface {
	Element
	List() ([]string, error)
	GetElement(name string) (Element, error)
}

// Pather is implemented by elements backed by the os file system.
type Pather interface {
	Path() string
}
