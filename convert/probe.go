package convert

import (
	"strings"

	"github.com/mogaika/mass_convert/config"
	"github.com/mogaika/mass_convert/formats"
	"github.com/mogaika/mass_convert/vfs"
)

type Class int

const (
	CLASS_NONE Class = iota
	CLASS_CONTAINER
	CLASS_SPLIT_CONTAINER
	CLASS_TEXTURE_PACK
	CLASS_MODEL
)

// Probe is the outcome of classifying a blob by its header only.
type Probe struct {
	Class     Class
	Container formats.ContainerKind
	Model     formats.ModelKind
	// data blob name for split containers
	Companion string
}

// Prober classifies blobs with the kinds enabled in the config.
type Prober struct {
	cfg *config.Config
	lib formats.Library
}

func NewProber(cfg *config.Config, lib formats.Library) *Prober {
	return &Prober{cfg: cfg, lib: lib}
}

// Container checks single blob containers. The two generations are
// mutually exclusive, the older one wins.
func (p *Prober) Container(b []byte) Probe {
	if p.cfg.SearchBND3 && p.lib.IsContainer(formats.CONTAINER_BND3, b) {
		return Probe{Class: CLASS_CONTAINER, Container: formats.CONTAINER_BND3}
	}
	if p.cfg.SearchBND4 && p.lib.IsContainer(formats.CONTAINER_BND4, b) {
		return Probe{Class: CLASS_CONTAINER, Container: formats.CONTAINER_BND4}
	}
	return Probe{}
}

// Split checks header blobs of split containers. Only names carrying
// the header infix are considered.
func (p *Prober) Split(name string, b []byte) Probe {
	if !p.cfg.SearchBXF3 && !p.cfg.SearchBXF4 {
		return Probe{}
	}
	companion, ok := vfs.CompanionName(name)
	if !ok {
		return Probe{}
	}
	if p.cfg.SearchBXF3 && p.lib.IsContainer(formats.CONTAINER_BXF3, b) {
		return Probe{Class: CLASS_SPLIT_CONTAINER, Container: formats.CONTAINER_BXF3, Companion: companion}
	}
	if p.cfg.SearchBXF4 && p.lib.IsContainer(formats.CONTAINER_BXF4, b) {
		return Probe{Class: CLASS_SPLIT_CONTAINER, Container: formats.CONTAINER_BXF4, Companion: companion}
	}
	return Probe{}
}

// MultiPart is decided by the path suffix alone.
func (p *Prober) MultiPart(path string) bool {
	return p.cfg.SearchZero3 && strings.HasSuffix(strings.ToLower(path), ".000")
}

func (p *Prober) Iso(path string) bool {
	return p.cfg.SearchISO && strings.HasSuffix(strings.ToLower(path), ".iso")
}

func (p *Prober) modelEnabled(kind formats.ModelKind) bool {
	switch kind {
	case formats.MODEL_FLVER0:
		return p.cfg.SearchFLVER0
	case formats.MODEL_FLVER2:
		return p.cfg.SearchFLVER2
	case formats.MODEL_MDL4:
		return p.cfg.SearchMDL4
	case formats.MODEL_SMD4:
		return p.cfg.SearchSMD4
	}
	return false
}

// Leaf tries the texture pack probe, then every enabled model kind in
// formats.ModelKinds order.
func (p *Prober) Leaf(b []byte) Probe {
	if p.cfg.SearchTextures && p.lib.IsTexturePack(b) {
		return Probe{Class: CLASS_TEXTURE_PACK}
	}
	return p.Model(b)
}

func (p *Prober) Model(b []byte) Probe {
	for _, kind := range formats.ModelKinds {
		if p.modelEnabled(kind) && p.lib.IsModel(kind, b) {
			return Probe{Class: CLASS_MODEL, Model: kind}
		}
	}
	return Probe{}
}
