package vfs

import (
	"encoding/binary"
	"io"
	"io/ioutil"
	"log"
	"os"
	"strings"

	"github.com/mogaika/udf"
	"github.com/pkg/errors"
)

const SECTOR_SIZE = 2048

// IsoDriver exposes a disc image as a read-only directory tree.
type IsoDriver struct {
	path   string
	f      *os.File
	size   int64
	layers [2]*udf.Udf
}

type isoDirectory struct {
	iso   *IsoDriver
	name  string
	files []udf.File
}

type isoFile struct {
	f udf.File
}

func OpenIso(path string) (*IsoDriver, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "os.Open('%s')", path)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "Stat error")
	}
	iso := &IsoDriver{path: path, f: f, size: st.Size()}
	iso.openLayers()
	return iso, nil
}

func (iso *IsoDriver) openLayers() {
	iso.layers[0] = udf.NewUdfFromReader(iso.f)

	var volSizeBuf [4]byte
	// primary volume description sector + offset of volume space size
	if _, err := iso.f.ReadAt(volSizeBuf[:], 0x10*SECTOR_SIZE+80); err != nil {
		log.Printf("[vfs] [iso] Error when detecting second layer: %v", err)
		return
	}
	// minus 16 boot sectors, they are not replicated over layers
	volumeSize := (int64(binary.LittleEndian.Uint32(volSizeBuf[:])) - 16) * SECTOR_SIZE
	if volumeSize > 0 && volumeSize+32*SECTOR_SIZE < iso.size {
		iso.layers[1] = udf.NewUdfFromReader(io.NewSectionReader(iso.f, volumeSize, iso.size-volumeSize))
		log.Printf("[vfs] [iso] Detected second layer of %s at %x", iso.path, volumeSize+16*SECTOR_SIZE)
	}
}

func (iso *IsoDriver) Close() error {
	return iso.f.Close()
}

// Root lists both layers as a single directory.
func (iso *IsoDriver) Root() (dir Directory, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("Failed to read disc image '%s': %v", iso.path, r)
		}
	}()
	root := &isoDirectory{iso: iso, name: iso.path}
	for _, layer := range iso.layers {
		if layer != nil {
			root.files = append(root.files, layer.ReadDir(nil)...)
		}
	}
	return root, nil
}

func (d *isoDirectory) Name() string      { return d.name }
func (d *isoDirectory) IsDirectory() bool { return true }

func (d *isoDirectory) List() ([]string, error) {
	result := make([]string, len(d.files))
	for i := range d.files {
		result[i] = d.files[i].Name()
	}
	return result, nil
}

func (d *isoDirectory) GetElement(name string) (Element, error) {
	for i := range d.files {
		if strings.EqualFold(d.files[i].Name(), name) {
			f := d.files[i]
			if f.IsDir() {
				return &isoDirectory{iso: d.iso, name: f.Name(), files: f.Udf.ReadDir(f.FileEntry())}, nil
			}
			return &isoFile{f: f}, nil
		}
	}
	return nil, errors.Wrapf(ErrNotExist, "'%s' in '%s'", name, d.name)
}

func (f *isoFile) Name() string      { return f.f.Name() }
func (f *isoFile) IsDirectory() bool { return false }
func (f *isoFile) Size() int64       { return f.f.Size() }

func (f *isoFile) ReadAll() ([]byte, error) {
	return ioutil.ReadAll(f.f.NewReader())
}
