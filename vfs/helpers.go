package vfs

import (
	"strings"

	"github.com/pkg/errors"
)

func DirectoryGetFile(d Directory, name string) (File, error) {
	if f, err := d.GetElement(name); err != nil {
		return nil, err
	} else if f.IsDirectory() {
		return nil, errors.Errorf("File '%s' is directory, not a file!", name)
	} else {
		return f.(File), nil
	}
}

// Walk visits every file under d in listing order, descending into
// sub directories. Listing errors are passed to fn with a nil file and
// do not stop the walk.
func Walk(d Directory, fn func(f File, err error)) {
	names, err := d.List()
	if err != nil {
		fn(nil, err)
		return
	}
	for _, name := range names {
		e, err := d.GetElement(name)
		if err != nil {
			fn(nil, err)
			continue
		}
		switch el := e.(type) {
		case Directory:
			Walk(el, fn)
		case File:
			fn(el, nil)
		}
	}
}

const (
	headerInfix = "bhd"
	dataInfix   = "bdt"
)

// CompanionName returns the data file name of a split archive header
// (c1000.chrbhd -> c1000.chrbdt), keeping the case of the infix.
func CompanionName(name string) (string, bool) {
	i := strings.LastIndex(strings.ToLower(name), headerInfix)
	if i < 0 {
		return "", false
	}
	infix := dataInfix
	if name[i:i+len(headerInfix)] == strings.ToUpper(headerInfix) {
		infix = strings.ToUpper(dataInfix)
	}
	return name[:i] + infix + name[i+len(headerInfix):], true
}

// Finder resolves a companion blob by name.
type Finder func(name string) ([]byte, error)

// DirectoryFinder looks names up in d, falling back to the base name
// when the full entry name is not present.
func DirectoryFinder(d Directory) Finder {
	return func(name string) ([]byte, error) {
		f, err := DirectoryGetFile(d, name)
		if err != nil && errors.Cause(err) == ErrNotExist {
			if i := strings.LastIndexAny(name, `\/`); i >= 0 {
				f, err = DirectoryGetFile(d, name[i+1:])
			}
		}
		if err != nil {
			return nil, err
		}
		return f.ReadAll()
	}
}

// PathFinder reads companions from the os file system.
func PathFinder() Finder {
	return func(name string) ([]byte, error) {
		e, err := Open(name)
		if err != nil {
			return nil, err
		}
		f, ok := e.(File)
		if !ok {
			return nil, errors.Errorf("'%s' is a directory", name)
		}
		return f.ReadAll()
	}
}
