package mapper

import (
	"github.com/pkg/errors"

	"github.com/mogaika/mass_convert/formats"
	"github.com/mogaika/mass_convert/scene"
)

func flverVertex(v *formats.FlverVertex) vertex {
	return vertex{
		position:  v.Position,
		normal:    vec3p(v.Normal),
		bitangent: vec3p(v.Bitangent.Vec3()),
		tangents:  vec4sTo3(v.Tangents),
		uvs:       uvs3to2(v.UVs),
		colors:    v.Colors,
	}
}

// addFlverVertices binds each vertex through NormalW when the mesh has a
// bone table.
func addFlverVertices(b *meshBuilder, sk *Skeleton, table []int32, vertices []formats.FlverVertex) error {
	for i := range vertices {
		v := &vertices[i]
		bone := -1
		if len(table) != 0 {
			global, err := sk.Resolve(table, int(v.NormalW))
			if err != nil {
				return errors.Wrapf(err, "vertex %d", i)
			}
			bone = global
		}
		if err := b.add(flverVertex(v), bone); err != nil {
			return errors.Wrapf(err, "vertex %d", i)
		}
	}
	return nil
}

func MapFLVER0(model *formats.FLVER0) (*scene.Scene, error) {
	s := scene.NewScene()
	sk, err := BuildSkeleton(s, model.Bones)
	if err != nil {
		return nil, errors.Wrapf(err, "FLVER0")
	}
	copyMaterials(s, model.Materials)

	for mi := range model.Meshes {
		mesh := &model.Meshes[mi]
		b := newMeshBuilder(mi, mesh.MaterialIndex, sk)
		if err := addFlverVertices(b, sk, int16Table(mesh.BoneIndices), mesh.Vertices); err != nil {
			return nil, errors.Wrapf(err, "FLVER0 mesh %d", mi)
		}

		var faces [][3]int32
		if mesh.UseTriangleStrips {
			faces = TriangulateStrip(mesh.VertexIndices, true)
		} else {
			faces = TriangulateList(mesh.VertexIndices)
		}
		if err := b.addFaces(faces); err != nil {
			return nil, errors.Wrapf(err, "FLVER0 mesh %d", mi)
		}
		attachMesh(s, b.build())
	}
	return s, nil
}

func MapFLVER2(model *formats.FLVER2) (*scene.Scene, error) {
	s := scene.NewScene()
	sk, err := BuildSkeleton(s, model.Bones)
	if err != nil {
		return nil, errors.Wrapf(err, "FLVER2")
	}
	copyMaterials(s, model.Materials)

	for mi := range model.Meshes {
		mesh := &model.Meshes[mi]
		b := newMeshBuilder(mi, mesh.MaterialIndex, sk)
		if err := addFlverVertices(b, sk, mesh.BoneIndices, mesh.Vertices); err != nil {
			return nil, errors.Wrapf(err, "FLVER2 mesh %d", mi)
		}

		allowRestarts := len(mesh.Vertices) < STRIP_RESTART
		for fi := range mesh.FaceSets {
			if err := b.addFaces(triangulateFaceSet(&mesh.FaceSets[fi], allowRestarts)); err != nil {
				return nil, errors.Wrapf(err, "FLVER2 mesh %d", mi)
			}
		}
		attachMesh(s, b.build())
	}
	return s, nil
}
