package mapper

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/mass_convert/scene"
)

// vertex is the common shape every variant is flattened into.
type vertex struct {
	position  mgl32.Vec3
	normal    *mgl32.Vec3
	bitangent *mgl32.Vec3
	tangents  []mgl32.Vec3
	uvs       []mgl32.Vec2
	colors    []mgl32.Vec4
}

type meshBuilder struct {
	mesh     *scene.Mesh
	vertices []vertex
	skin     *skinner
}

func newMeshBuilder(index int, material int, sk *Skeleton) *meshBuilder {
	b := &meshBuilder{
		mesh: &scene.Mesh{Name: meshName(index), MaterialIndex: material},
	}
	if sk != nil {
		b.skin = newSkinner(sk)
	}
	return b
}

// add appends a vertex, bound to global bone when bone >= 0.
func (b *meshBuilder) add(v vertex, bone int) error {
	if bone >= 0 {
		if b.skin == nil {
			return errors.Wrapf(ErrBoneIndex, "bound vertex in mesh without skeleton")
		}
		pos, err := b.skin.bind(bone, len(b.vertices), v.position)
		if err != nil {
			return err
		}
		v.position = pos
	}
	b.vertices = append(b.vertices, v)
	return nil
}

func (b *meshBuilder) addFaces(faces [][3]int32) error {
	count := int32(len(b.vertices))
	for _, f := range faces {
		for _, idx := range f {
			if idx < 0 || idx >= count {
				return errors.Wrapf(ErrFace, "%s: index %d of %d vertices", b.mesh.Name, idx, count)
			}
		}
		b.mesh.Faces = append(b.mesh.Faces, [3]uint32{uint32(f[0]), uint32(f[1]), uint32(f[2])})
	}
	return nil
}

// build fills attribute channels. Every uv channel is present, padded
// with the sentinel. Color channels exist only when every vertex has them,
// tangent channels are zero padded.
func (b *meshBuilder) build() *scene.Mesh {
	m := b.mesh
	n := len(b.vertices)

	m.Positions = make([]mgl32.Vec3, n)
	hasNormals, hasBitangents := n > 0, n > 0
	tangentChannels := 0
	colorChannels := scene.MAX_COLOR_CHANNELS
	for i, v := range b.vertices {
		m.Positions[i] = v.position
		hasNormals = hasNormals && v.normal != nil
		hasBitangents = hasBitangents && v.bitangent != nil
		if len(v.tangents) > tangentChannels {
			tangentChannels = len(v.tangents)
		}
		if len(v.colors) < colorChannels {
			colorChannels = len(v.colors)
		}
	}
	if n == 0 {
		colorChannels = 0
	}

	if hasNormals {
		m.Normals = make([]mgl32.Vec3, n)
		for i, v := range b.vertices {
			m.Normals[i] = *v.normal
		}
	}
	if hasBitangents {
		m.Bitangents = make([]mgl32.Vec3, n)
		for i, v := range b.vertices {
			m.Bitangents[i] = *v.bitangent
		}
	}

	m.Tangents = make([][]mgl32.Vec3, tangentChannels)
	for c := range m.Tangents {
		m.Tangents[c] = make([]mgl32.Vec3, n)
		for i, v := range b.vertices {
			if c < len(v.tangents) {
				m.Tangents[c][i] = v.tangents[c]
			}
		}
	}

	m.UVs = make([][]mgl32.Vec3, scene.MAX_UV_CHANNELS)
	for c := range m.UVs {
		m.UVs[c] = make([]mgl32.Vec3, n)
		for i, v := range b.vertices {
			if c < len(v.uvs) {
				m.UVs[c][i] = mgl32.Vec3{v.uvs[c][0], v.uvs[c][1], 0}
			} else {
				m.UVs[c][i] = scene.UVSentinel
			}
		}
	}

	m.Colors = make([][]mgl32.Vec4, colorChannels)
	for c := range m.Colors {
		m.Colors[c] = make([]mgl32.Vec4, n)
		for i, v := range b.vertices {
			m.Colors[c][i] = v.colors[c]
		}
	}

	if b.skin != nil {
		m.Bones = b.skin.bindings
	}
	return m
}

func vec3p(v mgl32.Vec3) *mgl32.Vec3 {
	return &v
}

func uvs3to2(uvs []mgl32.Vec3) []mgl32.Vec2 {
	result := make([]mgl32.Vec2, len(uvs))
	for i, uv := range uvs {
		result[i] = uv.Vec2()
	}
	return result
}

func vec4sTo3(vs []mgl32.Vec4) []mgl32.Vec3 {
	result := make([]mgl32.Vec3, len(vs))
	for i, v := range vs {
		result[i] = v.Vec3()
	}
	return result
}
