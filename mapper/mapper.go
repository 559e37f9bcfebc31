// Package mapper turns model records into scene graphs.
package mapper

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/mass_convert/formats"
	"github.com/mogaika/mass_convert/scene"
)

var (
	ErrBoneParent   = errors.New("bone parent index out of range")
	ErrBoneIndex    = errors.New("bone index out of range")
	ErrSingularBone = errors.New("bone transform is not invertible")
	ErrFace         = errors.New("bad face index")
)

const DefaultMaterialName = "default"

// Map converts any model variant. The returned scene has an unnamed root;
// the exporter names it.
func Map(m formats.Model) (*scene.Scene, error) {
	var s *scene.Scene
	var err error
	switch model := m.(type) {
	case *formats.FLVER0:
		s, err = MapFLVER0(model)
	case *formats.FLVER2:
		s, err = MapFLVER2(model)
	case *formats.MDL4:
		s, err = MapMDL4(model)
	case *formats.SMD4:
		s, err = MapSMD4(model)
	default:
		return nil, errors.Errorf("unknown model type %T", m)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, errors.Wrapf(err, "%v", m.Kind())
	}
	return s, nil
}

func meshName(i int) string {
	return fmt.Sprintf("Mesh_M%d", i)
}

func meshNodeName(i int) string {
	return fmt.Sprintf("Mesh_%d", i)
}

// attachMesh adds the mesh and a node referencing it under the root.
func attachMesh(s *scene.Scene, m *scene.Mesh) {
	index := len(s.Meshes)
	s.Meshes = append(s.Meshes, m)
	node := scene.NewNode(meshNodeName(index), mgl32.Ident4())
	node.Meshes = []int{index}
	s.Root.AddChild(node)
}

func copyMaterials(s *scene.Scene, materials []formats.Material) {
	s.Materials = make([]scene.Material, len(materials))
	for i, mat := range materials {
		s.Materials[i] = scene.Material{Name: mat.Name}
	}
}
