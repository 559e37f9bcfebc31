package export

import (
	"fmt"
	"io"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/mass_convert/scene"
)

type gltfSceneExporter struct {
	doc     *gltf.Document
	s       *scene.Scene
	nodeIds map[*scene.Node]uint32
}

func newGLTFDocument(s *scene.Scene) *gltf.Document {
	ge := &gltfSceneExporter{
		doc:     gltf.NewDocument(),
		s:       s,
		nodeIds: make(map[*scene.Node]uint32),
	}

	for _, mat := range s.Materials {
		ge.doc.Materials = append(ge.doc.Materials, &gltf.Material{
			Name:        mat.Name,
			DoubleSided: true,
		})
	}

	root := ge.exportNode(s.Root)
	ge.doc.Scenes[0].Nodes = append(ge.doc.Scenes[0].Nodes, root)

	for _, n := range s.Nodes() {
		for _, mi := range n.Meshes {
			ge.exportMesh(s.Meshes[mi], ge.nodeIds[n])
		}
	}
	return ge.doc
}

func (ge *gltfSceneExporter) exportNode(n *scene.Node) uint32 {
	id := uint32(len(ge.doc.Nodes))
	node := &gltf.Node{
		Name:   n.Name,
		Matrix: [16]float32(n.Transform),
	}
	ge.doc.Nodes = append(ge.doc.Nodes, node)
	ge.nodeIds[n] = id
	for _, c := range n.Children {
		node.Children = append(node.Children, ge.exportNode(c))
	}
	return id
}

func (ge *gltfSceneExporter) exportMesh(m *scene.Mesh, nodeId uint32) {
	doc := ge.doc
	verticesCount := m.VertexCount()
	attributes := make(map[string]uint32)

	positions := make([][3]float32, verticesCount)
	for i, p := range m.Positions {
		positions[i] = p
	}
	attributes["POSITION"] = modeler.WritePosition(doc, positions)

	if len(m.Normals) != 0 {
		normals := make([][3]float32, verticesCount)
		for i, n := range m.Normals {
			if n.Len() > 0.5 {
				n = n.Normalize()
			}
			normals[i] = n
		}
		attributes["NORMAL"] = modeler.WriteNormal(doc, normals)
	}

	for iLayer, layer := range m.UVs {
		uvs := make([][2]float32, verticesCount)
		for i, uv := range layer {
			uvs[i] = [2]float32{uv[0], uv[1]}
		}
		attributes[fmt.Sprintf("TEXCOORD_%d", iLayer)] = modeler.WriteTextureCoord(doc, uvs)
	}

	for iLayer, layer := range m.Colors {
		colors := make([][4]uint8, verticesCount)
		for i, c := range layer {
			colors[i] = [4]uint8{colorByte(c[0]), colorByte(c[1]), colorByte(c[2]), colorByte(c[3])}
		}
		attributes[fmt.Sprintf("COLOR_%d", iLayer)] = modeler.WriteColor(doc, colors)
	}

	indices := make([]uint32, 0, len(m.Faces)*3)
	for _, f := range m.Faces {
		indices = append(indices, f[0], f[1], f[2])
	}
	indicesAccessor := modeler.WriteIndices(doc, indices)

	primitive := &gltf.Primitive{
		Indices:    gltf.Index(indicesAccessor),
		Attributes: attributes,
	}
	if m.MaterialIndex >= 0 && m.MaterialIndex < len(doc.Materials) {
		primitive.Material = gltf.Index(uint32(m.MaterialIndex))
	}

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name:       m.Name,
		Primitives: []*gltf.Primitive{primitive},
	})
	doc.Nodes[nodeId].Mesh = gltf.Index(uint32(len(doc.Meshes) - 1))

	if m.HasBones() {
		ge.exportSkin(m, nodeId, attributes)
	}
}

// exportSkin writes single joint influences. Vertices without a binding
// fall back to the first joint.
func (ge *gltfSceneExporter) exportSkin(m *scene.Mesh, nodeId uint32, attributes map[string]uint32) {
	doc := ge.doc
	verticesCount := m.VertexCount()

	skin := &gltf.Skin{Name: m.Name}
	inverseBinds := make([][4][4]float32, 0, len(m.Bones))
	joints := make([][4]uint16, verticesCount)
	weights := make([][4]float32, verticesCount)
	for i := range weights {
		weights[i][0] = 1
	}

	for i := range m.Bones {
		bone := &m.Bones[i]
		boneNode, ok := ge.nodeIds[ge.s.BoneNode(bone)]
		if !ok {
			continue
		}
		joint := uint16(len(skin.Joints))
		skin.Joints = append(skin.Joints, boneNode)

		var ibm [4][4]float32
		for c := 0; c < 4; c++ {
			col := bone.InverseBind.Col(c)
			ibm[c] = [4]float32{col[0], col[1], col[2], col[3]}
		}
		inverseBinds = append(inverseBinds, ibm)

		for _, w := range bone.Weights {
			joints[w.Vertex] = [4]uint16{joint, 0, 0, 0}
			weights[w.Vertex] = [4]float32{w.Weight, 0, 0, 0}
		}
	}
	if len(skin.Joints) == 0 {
		return
	}

	skin.InverseBindMatrices = gltf.Index(modeler.WriteAccessor(doc, gltf.TargetNone, inverseBinds))
	attributes["JOINTS_0"] = modeler.WriteJoints(doc, joints)
	attributes["WEIGHTS_0"] = modeler.WriteWeights(doc, weights)

	doc.Skins = append(doc.Skins, skin)
	doc.Nodes[nodeId].Skin = gltf.Index(uint32(len(doc.Skins) - 1))
}

func colorByte(f float32) uint8 {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return uint8(f*255 + 0.5)
}

// WriteGLTF writes a text document with buffers embedded as data uris.
func WriteGLTF(w io.Writer, s *scene.Scene) error {
	doc := newGLTFDocument(s)
	for _, b := range doc.Buffers {
		b.EmbeddedResource()
	}
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = false
	return encoder.Encode(doc)
}

func WriteGLB(w io.Writer, s *scene.Scene) error {
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return encoder.Encode(newGLTFDocument(s))
}
