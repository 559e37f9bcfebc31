package export

import (
	"io"

	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"

	"github.com/mogaika/mass_convert/scene"
	"github.com/mogaika/mass_convert/utils"
)

type fbxSceneExporter struct {
	b *fbxBuilder
	s *scene.Scene

	modelIds    map[*scene.Node]int64
	materialIds []int64
	bones       map[*scene.Node]struct{}
}

func newFBXSceneExporter(s *scene.Scene) *fbxSceneExporter {
	fe := &fbxSceneExporter{
		b:        newFBXBuilder(s.Root.Name + ".fbx"),
		s:        s,
		modelIds: make(map[*scene.Node]int64),
		bones:    make(map[*scene.Node]struct{}),
	}
	for _, m := range s.Meshes {
		for i := range m.Bones {
			if n := s.BoneNode(&m.Bones[i]); n != nil {
				fe.bones[n] = struct{}{}
			}
		}
	}
	return fe
}

func WriteFBX(w io.Writer, s *scene.Scene) error {
	return newFBXSceneExporter(s).build().Write(w)
}

func WriteFBXText(w io.Writer, s *scene.Scene) error {
	return newFBXSceneExporter(s).build().WriteText(w)
}

func (fe *fbxSceneExporter) build() *fbxBuilder {
	fe.exportMaterials()
	fe.exportNode(fe.s.Root, 0)
	for _, n := range fe.s.Nodes() {
		for _, mi := range n.Meshes {
			fe.exportMesh(fe.s.Meshes[mi], fe.modelIds[n])
		}
	}
	return fe.b
}

func (fe *fbxSceneExporter) exportMaterials() {
	fe.materialIds = make([]int64, len(fe.s.Materials))
	for i, mat := range fe.s.Materials {
		id := fe.b.GenerateId()
		fe.materialIds[i] = id
		fe.b.AddObjects(bfbx73.Material(id, mat.Name+"\x00\x01Material", "").AddNodes(
			bfbx73.Version(102),
			bfbx73.ShadingModel("lambert"),
			bfbx73.MultiLayer(0),
			bfbx73.Properties70().AddNodes(
				bfbx73.P("DiffuseColor", "Color", "", "A", float64(1), float64(1), float64(1)),
				bfbx73.P("Opacity", "double", "Number", "", float64(1)),
			),
		))
	}
}

func (fe *fbxSceneExporter) nodeClass(n *scene.Node) string {
	if len(n.Meshes) != 0 {
		return "Mesh"
	}
	if _, ok := fe.bones[n]; ok {
		return "LimbNode"
	}
	return "Null"
}

func (fe *fbxSceneExporter) exportNode(n *scene.Node, parentId int64) {
	id := fe.b.GenerateId()
	fe.modelIds[n] = id
	class := fe.nodeClass(n)

	pos, rotation, scale := utils.DecomposeMat4(n.Transform)
	model := bfbx73.Model(id, n.Name+"\x00\x01Model", class).AddNodes(
		bfbx73.Version(232),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("InheritType", "enum", "", "", int32(1)),
			bfbx73.P("DefaultAttributeIndex", "int", "Integer", "", int32(0)),
			bfbx73.P("Lcl Translation", "Lcl Translation", "", "A",
				float64(pos[0]), float64(pos[1]), float64(pos[2])),
			bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A",
				float64(rotation[0]), float64(rotation[1]), float64(rotation[2])),
			bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A",
				float64(scale[0]), float64(scale[1]), float64(scale[2])),
		),
		bfbx73.Shading(true),
		bfbx73.Culling("CullingOff"),
	)
	fe.b.AddObjects(model)
	fe.b.AddConnections(bfbx73.C("OO", id, parentId))

	if class != "Mesh" {
		attrClass, flags := "Null", "Null"
		if class == "LimbNode" {
			attrClass, flags = "LimbNode", "Skeleton"
		}
		attr := bfbx73.NodeAttribute(fe.b.GenerateId(), n.Name+"\x00\x01NodeAttribute", attrClass).AddNodes(
			bfbx73.TypeFlags(flags),
		)
		fe.b.AddObjects(attr)
		fe.b.AddConnections(bfbx73.C("OO", attr.Properties[0].(int64), id))
	}

	for _, c := range n.Children {
		fe.exportNode(c, id)
	}
}

func (fe *fbxSceneExporter) exportMesh(m *scene.Mesh, modelId int64) {
	vertices := make([]float64, 0, len(m.Positions)*3)
	for _, p := range m.Positions {
		vertices = append(vertices, float64(p[0]), float64(p[1]), float64(p[2]))
	}

	indexes := make([]int32, 0, len(m.Faces)*3)
	uvindexes := make([]int32, 0, len(m.Faces)*3)
	for _, f := range m.Faces {
		indexes = append(indexes, int32(f[0]), int32(f[1]), -int32(f[2])-1)
		uvindexes = append(uvindexes, int32(f[0]), int32(f[1]), int32(f[2]))
	}

	geometryId := fe.b.GenerateId()
	geometryLayer := bfbx73.Layer(0).AddNodes(
		bfbx73.Version(100),
	)
	geometry := bfbx73.Geometry(geometryId, m.Name+"\x00\x01Geometry", "Mesh").AddNodes(
		bfbx73.Properties70(),
		bfbx73.GeometryVersion(124),
		bfbx73.Vertices(vertices),
		bfbx73.PolygonVertexIndex(indexes),
	)

	addLayer := func(element *fbx.Node, typ string) {
		geometry.AddNode(element)
		geometryLayer.AddNode(
			bfbx73.LayerElement().AddNodes(
				bfbx73.Type(typ),
				bfbx73.TypedIndex(0),
			),
		)
	}

	if len(m.Normals) != 0 {
		normals := make([]float64, 0, len(m.Normals)*3)
		for _, n := range m.Normals {
			normals = append(normals, float64(n[0]), float64(n[1]), float64(n[2]))
		}
		addLayer(bfbx73.LayerElementNormal(0).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name(""),
			bfbx73.MappingInformationType("ByVertice"),
			bfbx73.ReferenceInformationType("Direct"),
			bfbx73.Normals(normals),
		), "LayerElementNormal")
	}

	if len(m.Colors) != 0 {
		colors := make([]float64, 0, len(m.Colors[0])*4)
		for _, c := range m.Colors[0] {
			colors = append(colors, float64(c[0]), float64(c[1]), float64(c[2]), float64(c[3]))
		}
		addLayer(bfbx73.LayerElementColor(0).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name(""),
			bfbx73.MappingInformationType("ByVertice"),
			bfbx73.ReferenceInformationType("Direct"),
			bfbx73.Colors(colors),
		), "LayerElementColor")
	}

	if len(m.UVs) != 0 {
		uv := make([]float64, 0, len(m.UVs[0])*2)
		for _, c := range m.UVs[0] {
			uv = append(uv, float64(c[0]), float64(c[1]))
		}
		addLayer(bfbx73.LayerElementUV(0).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name("UVChannel_0"),
			bfbx73.MappingInformationType("ByPolygonVertex"),
			bfbx73.ReferenceInformationType("IndexToDirect"),
			bfbx73.UV(uv),
			bfbx73.UVIndex(uvindexes),
		), "LayerElementUV")
	}

	addLayer(bfbx73.LayerElementMaterial(0).AddNodes(
		bfbx73.Version(101),
		bfbx73.Name(""),
		bfbx73.MappingInformationType("AllSame"),
		bfbx73.ReferenceInformationType("IndexToDirect"),
		bfbx73.Materials([]int32{0}),
	), "LayerElementMaterial")
	geometry.AddNode(geometryLayer)

	fe.b.AddObjects(geometry)
	fe.b.AddConnections(bfbx73.C("OO", geometryId, modelId))
	if m.MaterialIndex >= 0 && m.MaterialIndex < len(fe.materialIds) {
		fe.b.AddConnections(bfbx73.C("OO", fe.materialIds[m.MaterialIndex], modelId))
	}

	if m.HasBones() {
		fe.exportSkin(m, geometryId)
	}
}

// exportSkin adds a skin deformer with one cluster per bone binding.
func (fe *fbxSceneExporter) exportSkin(m *scene.Mesh, geometryId int64) {
	skinId := fe.b.GenerateId()
	fe.b.AddObjects(fbx.NewNode("Deformer", skinId, m.Name+"\x00\x01Deformer", "Skin").AddNodes(
		bfbx73.Version(101),
		fbx.NewNode("Link_DeformAcuracy", float64(50)),
	))
	fe.b.AddConnections(bfbx73.C("OO", skinId, geometryId))

	for i := range m.Bones {
		bone := &m.Bones[i]
		boneNode := fe.s.BoneNode(bone)
		if boneNode == nil {
			continue
		}
		indexes := make([]int32, len(bone.Weights))
		weights := make([]float64, len(bone.Weights))
		for i, w := range bone.Weights {
			indexes[i] = int32(w.Vertex)
			weights[i] = float64(w.Weight)
		}

		clusterId := fe.b.GenerateId()
		fe.b.AddObjects(fbx.NewNode("Deformer", clusterId, bone.BoneName+"\x00\x01SubDeformer", "Cluster").AddNodes(
			bfbx73.Version(100),
			fbx.NewNode("UserData", "", ""),
			fbx.NewNode("Indexes", indexes),
			fbx.NewNode("Weights", weights),
			fbx.NewNode("Transform", utils.Mat4ToFloat64(bone.InverseBind)),
			fbx.NewNode("TransformLink", utils.Mat4ToFloat64(bone.InverseBind.Inv())),
		))
		fe.b.AddConnections(
			bfbx73.C("OO", clusterId, skinId),
			bfbx73.C("OO", fe.modelIds[boneNode], clusterId),
		)
	}
}
