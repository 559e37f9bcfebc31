package mapper

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/mass_convert/formats"
	"github.com/mogaika/mass_convert/scene"
)

func MapMDL4(model *formats.MDL4) (*scene.Scene, error) {
	s := scene.NewScene()
	sk, err := BuildSkeleton(s, model.Bones)
	if err != nil {
		return nil, errors.Wrapf(err, "MDL4")
	}
	copyMaterials(s, model.Materials)

	for mi := range model.Meshes {
		mesh := &model.Meshes[mi]
		table := int16Table(mesh.BoneIndices)
		b := newMeshBuilder(mi, mesh.MaterialIndex, sk)

		for vi := range mesh.Vertices {
			v := &mesh.Vertices[vi]
			bone := -1
			if len(table) != 0 {
				// local bone index lives in the normal w component
				global, err := sk.Resolve(table, int(v.Normal.W()))
				if err != nil {
					return nil, errors.Wrapf(err, "MDL4 mesh %d vertex %d", mi, vi)
				}
				bone = global
			}
			err := b.add(vertex{
				position:  v.Position,
				normal:    vec3p(v.Normal.Vec3()),
				bitangent: vec3p(v.Bitangent.Vec3()),
				tangents:  []mgl32.Vec3{v.Tangent.Vec3()},
				uvs:       v.UVs,
				colors:    []mgl32.Vec4{v.Color},
			}, bone)
			if err != nil {
				return nil, errors.Wrapf(err, "MDL4 mesh %d vertex %d", mi, vi)
			}
		}

		if err := b.addFaces(TriangulateList(mesh.Indices)); err != nil {
			return nil, errors.Wrapf(err, "MDL4 mesh %d", mi)
		}
		attachMesh(s, b.build())
	}
	return s, nil
}
