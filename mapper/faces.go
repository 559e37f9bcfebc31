package mapper

import (
	"github.com/mogaika/mass_convert/formats"
)

const STRIP_RESTART = 0xFFFF

// TriangulateStrip walks a strip, flipping every other triangle. A restart
// index resets the parity; degenerate triangles are kept.
func TriangulateStrip(indices []int32, allowRestarts bool) [][3]int32 {
	faces := make([][3]int32, 0, len(indices))
	flip := false
	for i := 0; i+2 < len(indices); i++ {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		if allowRestarts && (a == STRIP_RESTART || b == STRIP_RESTART || c == STRIP_RESTART) {
			flip = false
			continue
		}
		if flip {
			faces = append(faces, [3]int32{a, c, b})
		} else {
			faces = append(faces, [3]int32{a, b, c})
		}
		flip = !flip
	}
	return faces
}

// TriangulateList groups a list by three, dropping a trailing remainder.
func TriangulateList(indices []int32) [][3]int32 {
	faces := make([][3]int32, 0, len(indices)/3)
	for i := 0; i+2 < len(indices); i += 3 {
		faces = append(faces, [3]int32{indices[i], indices[i+1], indices[i+2]})
	}
	return faces
}

func triangulateFaceSet(fs *formats.FaceSet, allowRestarts bool) [][3]int32 {
	if fs.TriangleStrip {
		return TriangulateStrip(fs.Indices, allowRestarts)
	}
	return TriangulateList(fs.Indices)
}
