// Package formats describes what the conversion core needs from the game
// format library: typed records and cheap probes.
package formats

import (
	"github.com/pkg/errors"
)

// ErrNoReader is returned when a probe matched but nothing can decode
// that record kind.
var ErrNoReader = errors.New("no reader for format")

type ContainerKind int

const (
	CONTAINER_BND3 ContainerKind = iota
	CONTAINER_BND4
	CONTAINER_BXF3
	CONTAINER_BXF4
	CONTAINER_ZERO3
)

func (k ContainerKind) String() string {
	switch k {
	case CONTAINER_BND3:
		return "BND3"
	case CONTAINER_BND4:
		return "BND4"
	case CONTAINER_BXF3:
		return "BXF3"
	case CONTAINER_BXF4:
		return "BXF4"
	case CONTAINER_ZERO3:
		return "Zero3"
	}
	return "Unknown"
}

type Entry struct {
	Name string
	ID   int32
	Data []byte
}

type Container struct {
	Kind    ContainerKind
	Entries []Entry
}

type Codec interface {
	IsCompressed(b []byte) bool
	Decompress(b []byte) ([]byte, error)
}

type Library interface {
	Codec

	// IsContainer only peeks at a fixed size header. For split kinds it
	// checks the header part.
	IsContainer(kind ContainerKind, b []byte) bool
	ReadContainer(kind ContainerKind, b []byte) (*Container, error)
	ReadSplitContainer(kind ContainerKind, header, data []byte) (*Container, error)
	// ReadMultiPart reads a container split over numbered files on disk.
	ReadMultiPart(kind ContainerKind, firstPartPath string) (*Container, error)

	IsModel(kind ModelKind, b []byte) bool
	ReadModel(kind ModelKind, b []byte) (Model, error)

	IsTexturePack(b []byte) bool
	ReadTexturePack(b []byte) (*TexturePack, error)
}
