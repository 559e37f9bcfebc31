package export

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/mass_convert/config"
	"github.com/mogaika/mass_convert/scene"
)

// ApplyPostProcess runs the supported steps in place. Unsupported flags
// are ignored.
func ApplyPostProcess(s *scene.Scene, opts Options) {
	flags := opts.Flags
	if flags.Has(config.GlobalScale) && opts.Scale != 0 && opts.Scale != 1 {
		s.Root.Transform = mgl32.Scale3D(opts.Scale, opts.Scale, opts.Scale).Mul4(s.Root.Transform)
	}
	if flags.Has(config.MakeLeftHanded) {
		makeLeftHanded(s)
	}
	for _, m := range s.Meshes {
		if flags.Has(config.DropNormals) {
			m.Normals = nil
		}
		if flags.Has(config.FlipUVs) {
			for _, ch := range m.UVs {
				for i := range ch {
					if ch[i] != scene.UVSentinel {
						ch[i][1] = 1 - ch[i][1]
					}
				}
			}
		}
		// left handed conversion already reversed the winding once
		if flags.Has(config.FlipWindingOrder) != flags.Has(config.MakeLeftHanded) {
			flipWinding(m)
		}
		if flags.Has(config.FindDegenerates) {
			m.Faces = dropDegenerates(m.Faces)
		}
	}
}

var mirrorZ = mgl32.Scale3D(1, 1, -1)

func makeLeftHanded(s *scene.Scene) {
	s.Root.Walk(func(n *scene.Node) {
		n.Transform = mirrorZ.Mul4(n.Transform).Mul4(mirrorZ)
	})
	for _, m := range s.Meshes {
		for i := range m.Positions {
			m.Positions[i][2] = -m.Positions[i][2]
		}
		for i := range m.Normals {
			m.Normals[i][2] = -m.Normals[i][2]
		}
		for i := range m.Bones {
			m.Bones[i].InverseBind = mirrorZ.Mul4(m.Bones[i].InverseBind).Mul4(mirrorZ)
		}
	}
}

func flipWinding(m *scene.Mesh) {
	for i, f := range m.Faces {
		m.Faces[i] = [3]uint32{f[0], f[2], f[1]}
	}
}

func dropDegenerates(faces [][3]uint32) [][3]uint32 {
	result := faces[:0]
	for _, f := range faces {
		if f[0] != f[1] && f[1] != f[2] && f[0] != f[2] {
			result = append(result, f)
		}
	}
	return result
}
