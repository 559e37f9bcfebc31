package mapper

import (
	"github.com/pkg/errors"

	"github.com/mogaika/mass_convert/formats"
	"github.com/mogaika/mass_convert/scene"
)

// MapSMD4 emits positions only and a single default material.
func MapSMD4(model *formats.SMD4) (*scene.Scene, error) {
	s := scene.NewScene()
	sk, err := BuildSkeleton(s, model.Bones)
	if err != nil {
		return nil, errors.Wrapf(err, "SMD4")
	}
	s.Materials = []scene.Material{{Name: DefaultMaterialName}}

	for mi := range model.Meshes {
		mesh := &model.Meshes[mi]
		table := int16Table(mesh.BoneIndices)
		b := newMeshBuilder(mi, 0, sk)

		for vi := range mesh.Vertices {
			v := &mesh.Vertices[vi]
			bone := -1
			if len(table) != 0 {
				global, err := sk.Resolve(table, int(v.BoneIndices[0]))
				if err != nil {
					return nil, errors.Wrapf(err, "SMD4 mesh %d vertex %d", mi, vi)
				}
				bone = global
			}
			if err := b.add(vertex{position: v.Position}, bone); err != nil {
				return nil, errors.Wrapf(err, "SMD4 mesh %d vertex %d", mi, vi)
			}
		}

		if err := b.addFaces(TriangulateList(mesh.Indices)); err != nil {
			return nil, errors.Wrapf(err, "SMD4 mesh %d", mi)
		}
		attachMesh(s, b.build())
	}
	return s, nil
}
