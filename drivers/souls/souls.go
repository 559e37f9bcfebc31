// Package souls assembles the container drivers into a formats.Library.
// Model decoders are registered by kind with SetModelReader.
package souls

import (
	"encoding/binary"
	"sync"

	"github.com/pkg/errors"

	"github.com/mogaika/mass_convert/drivers/binder"
	"github.com/mogaika/mass_convert/drivers/bnd3"
	"github.com/mogaika/mass_convert/drivers/bnd4"
	"github.com/mogaika/mass_convert/drivers/bxf"
	"github.com/mogaika/mass_convert/drivers/dcx"
	"github.com/mogaika/mass_convert/drivers/tpf"
	"github.com/mogaika/mass_convert/drivers/zero3"
	"github.com/mogaika/mass_convert/formats"
)

type ModelReader func(b []byte) (formats.Model, error)

var (
	gModelReadersLock sync.RWMutex
	gModelReaders     = make(map[formats.ModelKind]ModelReader)
)

func SetModelReader(kind formats.ModelKind, r ModelReader) {
	gModelReadersLock.Lock()
	defer gModelReadersLock.Unlock()
	if r == nil {
		delete(gModelReaders, kind)
	} else {
		gModelReaders[kind] = r
	}
}

func getModelReader(kind formats.ModelKind) (ModelReader, bool) {
	gModelReadersLock.RLock()
	defer gModelReadersLock.RUnlock()
	r, ok := gModelReaders[kind]
	return r, ok
}

type Library struct{}

func NewLibrary() *Library {
	return &Library{}
}

func (*Library) IsCompressed(b []byte) bool {
	return dcx.Is(b)
}

func (*Library) Decompress(b []byte) ([]byte, error) {
	return dcx.Decompress(b)
}

func (*Library) IsContainer(kind formats.ContainerKind, b []byte) bool {
	switch kind {
	case formats.CONTAINER_BND3:
		return bnd3.Is(b)
	case formats.CONTAINER_BND4:
		return bnd4.Is(b)
	case formats.CONTAINER_BXF3:
		return bxf.IsHeader3(b)
	case formats.CONTAINER_BXF4:
		return bxf.IsHeader4(b)
	}
	return false
}

func toContainer(kind formats.ContainerKind, files []binder.File) *formats.Container {
	c := &formats.Container{Kind: kind, Entries: make([]formats.Entry, len(files))}
	for i, f := range files {
		c.Entries[i] = formats.Entry{Name: f.Name, ID: f.ID, Data: f.Data}
	}
	return c
}

func (*Library) ReadContainer(kind formats.ContainerKind, b []byte) (*formats.Container, error) {
	var bnd *binder.Binder
	var err error
	switch kind {
	case formats.CONTAINER_BND3:
		bnd, err = bnd3.Read(b)
	case formats.CONTAINER_BND4:
		bnd, err = bnd4.Read(b)
	default:
		return nil, errors.Errorf("[souls] %v is not a single blob container", kind)
	}
	if err != nil {
		return nil, err
	}
	return toContainer(kind, bnd.Files), nil
}

func (*Library) ReadSplitContainer(kind formats.ContainerKind, header, data []byte) (*formats.Container, error) {
	var bnd *binder.Binder
	var err error
	switch kind {
	case formats.CONTAINER_BXF3:
		bnd, err = bxf.Read3(header, data)
	case formats.CONTAINER_BXF4:
		bnd, err = bxf.Read4(header, data)
	default:
		return nil, errors.Errorf("[souls] %v is not a split container", kind)
	}
	if err != nil {
		return nil, err
	}
	return toContainer(kind, bnd.Files), nil
}

func (*Library) ReadMultiPart(kind formats.ContainerKind, firstPartPath string) (*formats.Container, error) {
	if kind != formats.CONTAINER_ZERO3 {
		return nil, errors.Errorf("[souls] %v is not a multi part container", kind)
	}
	files, err := zero3.ReadPath(firstPartPath)
	if err != nil {
		return nil, err
	}
	return toContainer(kind, files), nil
}

const (
	FLVER_MAGIC = "FLVER\x00"
	MDL4_MAGIC  = "MDL4"
	SMD4_MAGIC  = "SMD4"

	// first version of the second generation layout
	FLVER2_MIN_VERSION = 0x20000
)

// FlverVersion peeks at the version of a FLVER header.
func FlverVersion(b []byte) (int32, bool) {
	if len(b) < 0x0C || string(b[:6]) != FLVER_MAGIC {
		return 0, false
	}
	var order binary.ByteOrder
	switch b[6] {
	case 'L':
		order = binary.LittleEndian
	case 'B':
		order = binary.BigEndian
	default:
		return 0, false
	}
	return int32(order.Uint32(b[8:])), true
}

func (*Library) IsModel(kind formats.ModelKind, b []byte) bool {
	switch kind {
	case formats.MODEL_FLVER0:
		v, ok := FlverVersion(b)
		return ok && v < FLVER2_MIN_VERSION
	case formats.MODEL_FLVER2:
		v, ok := FlverVersion(b)
		return ok && v >= FLVER2_MIN_VERSION
	case formats.MODEL_MDL4:
		return len(b) >= 8 && string(b[:4]) == MDL4_MAGIC
	case formats.MODEL_SMD4:
		return len(b) >= 8 && string(b[:4]) == SMD4_MAGIC
	}
	return false
}

func (*Library) ReadModel(kind formats.ModelKind, b []byte) (formats.Model, error) {
	r, ok := getModelReader(kind)
	if !ok {
		return nil, errors.Wrapf(formats.ErrNoReader, "%v", kind)
	}
	m, err := r(b)
	if err != nil {
		return nil, errors.Wrapf(err, "[souls] %v", kind)
	}
	if m.Kind() != kind {
		return nil, errors.Errorf("[souls] %v reader returned %v", kind, m.Kind())
	}
	return m, nil
}

func (*Library) IsTexturePack(b []byte) bool {
	return tpf.Is(b)
}

func (*Library) ReadTexturePack(b []byte) (*formats.TexturePack, error) {
	t, err := tpf.Read(b)
	if err != nil {
		return nil, err
	}
	pack := &formats.TexturePack{Platform: t.Platform.String(), Textures: make([]formats.Texture, len(t.Textures))}
	for i, tex := range t.Textures {
		pack.Textures[i] = formats.Texture{Name: tex.Name, Data: tex.Data}
	}
	return pack, nil
}
