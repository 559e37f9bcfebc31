package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/mogaika/mass_convert/scene"
	"github.com/mogaika/mass_convert/utils"
)

// WriteObj writes every mesh in world space, first uv channel only.
// Skinning is dropped.
func WriteObj(_w io.Writer, s *scene.Scene) error {
	bw := bufio.NewWriter(_w)
	w := func(format string, args ...interface{}) {
		fmt.Fprintf(bw, format+"\n", args...)
	}

	w("# %s", s.Root.Name)
	for _, mat := range s.Materials {
		w("# material %s", mat.Name)
	}

	iV, iT, iN := 1, 1, 1
	for _, n := range s.Nodes() {
		world := n.WorldTransform()
		normalMat := world.Mat3().Inv().Transpose()

		for _, mi := range n.Meshes {
			m := s.Meshes[mi]
			for _, p := range m.Positions {
				p = utils.TransformPoint(world, p)
				w("v %f %f %f", p[0], p[1], p[2])
			}

			haveUV := len(m.UVs) != 0
			if haveUV {
				for _, uv := range m.UVs[0] {
					w("vt %f %f", uv[0], uv[1])
				}
			}

			haveNorm := len(m.Normals) != 0
			if haveNorm {
				for _, normal := range m.Normals {
					normal = normalMat.Mul3x1(normal)
					if normal.Len() > 0 {
						normal = normal.Normalize()
					}
					w("vn %f %f %f", normal[0], normal[1], normal[2])
				}
			}

			w("o %s", m.Name)
			if m.MaterialIndex >= 0 && m.MaterialIndex < len(s.Materials) {
				w("usemtl %s", s.Materials[m.MaterialIndex].Name)
			}

			for _, f := range m.Faces {
				a, b, c := int(f[0]), int(f[1]), int(f[2])
				switch {
				case haveNorm && haveUV:
					w("f %v/%v/%v %v/%v/%v %v/%v/%v",
						iV+a, iT+a, iN+a,
						iV+b, iT+b, iN+b,
						iV+c, iT+c, iN+c)
				case haveNorm:
					w("f %v//%v %v//%v %v//%v",
						iV+a, iN+a,
						iV+b, iN+b,
						iV+c, iN+c)
				case haveUV:
					w("f %v/%v %v/%v %v/%v",
						iV+a, iT+a,
						iV+b, iT+b,
						iV+c, iT+c)
				default:
					w("f %v %v %v", iV+a, iV+b, iV+c)
				}
			}

			iV += len(m.Positions)
			if haveUV {
				iT += len(m.UVs[0])
			}
			if haveNorm {
				iN += len(m.Normals)
			}
		}
	}
	return bw.Flush()
}
