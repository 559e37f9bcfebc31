package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mogaika/go-collada"

	"github.com/mogaika/mass_convert/scene"
)

const COLLADA_NAMESPACE = "http://www.collada.org/2005/11/COLLADASchema"
const COLLADA_VERSION collada.Version = "1.4.1"

// colladaDocument appends skin controllers to the document; controller
// elements are not modelled by the collada package.
// Visual scenes and the scene instance shadow the embedded ones to keep
// the library order valid.
type colladaDocument struct {
	*collada.Collada
	LibraryControllers  []*colladaLibraryControllers   `xml:"library_controllers"`
	LibraryVisualScenes []*collada.LibraryVisualScenes `xml:"library_visual_scenes"`
	Scene               *collada.Scene                 `xml:"scene"`
}

type colladaLibraryControllers struct {
	Controller []*colladaController `xml:"controller"`
}

type colladaController struct {
	collada.HasId
	Skin colladaSkin `xml:"skin"`
}

type colladaSkin struct {
	Source          collada.Uri          `xml:"source,attr"`
	BindShapeMatrix *collada.Float4x4    `xml:"bind_shape_matrix"`
	Sources         []*collada.Source    `xml:"source"`
	Joints          colladaJoints        `xml:"joints"`
	VertexWeights   colladaVertexWeights `xml:"vertex_weights"`
}

type colladaJoints struct {
	Input []*collada.InputUnshared `xml:"input"`
}

type colladaVertexWeights struct {
	collada.HasCount
	collada.HasSharedInput
	VCount *collada.Ints `xml:"vcount"`
	V      *collada.Ints `xml:"v"`
}

func formatFloats(fs ...float32) string {
	var sb strings.Builder
	for i, f := range fs {
		if i != 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	return sb.String()
}

func formatInts(is []int) string {
	var sb strings.Builder
	for i, v := range is {
		if i != 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(v))
	}
	return sb.String()
}

func m4Transposed(m mgl32.Mat4) []float32 {
	t := m.Transpose()
	return t[:]
}

// colladaMatrix writes row major, as the format expects.
func colladaMatrix(m mgl32.Mat4) *collada.Float4x4 {
	return &collada.Float4x4{Floats: collada.Floats{Values: collada.Values{V: formatFloats(m4Transposed(m)...)}}}
}

func colladaInts(is []int) *collada.Ints {
	return &collada.Ints{Values: collada.Values{V: formatInts(is)}}
}

func uri(id string) collada.Uri {
	return collada.Uri("#" + id)
}

// accessor renders technique_common content; accessor is not modelled by
// the collada package.
func accessor(arrayId string, count, stride int, typ string, params ...string) collada.HasTechniqueCommon {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<accessor source="#%s" count="%d" stride="%d">`, arrayId, count, stride)
	for _, p := range params {
		fmt.Fprintf(&sb, `<param name="%s" type="%s"/>`, p, typ)
	}
	sb.WriteString(`</accessor>`)
	return collada.HasTechniqueCommon{TechniqueCommon: collada.TechniqueCommon{XML: sb.String()}}
}

func floatSource(id string, values []float32, stride int, params ...string) *collada.Source {
	src := &collada.Source{
		HasId: collada.HasId{Id: collada.Id(id)},
		FloatArray: &collada.FloatArray{
			HasId:    collada.HasId{Id: collada.Id(id + "-array")},
			HasCount: collada.HasCount{Count: len(values)},
			Floats:   collada.Floats{Values: collada.Values{V: formatFloats(values...)}},
		},
	}
	src.HasTechniqueCommon = accessor(id+"-array", len(values)/stride, stride, "float", params...)
	return src
}

func bindMaterial(m *scene.Mesh) *collada.BindMaterial {
	return &collada.BindMaterial{HasTechniqueCommon: collada.HasTechniqueCommon{
		TechniqueCommon: collada.TechniqueCommon{
			XML: fmt.Sprintf(`<instance_material symbol="material" target="#material%d"/>`, m.MaterialIndex),
		},
	}}
}

type colladaSceneExporter struct {
	doc   *colladaDocument
	s     *scene.Scene
	ids   map[*scene.Node]string
	bones map[*scene.Node]struct{}
}

func newColladaDocument(s *scene.Scene) *colladaDocument {
	now := time.Now().UTC().Format(time.RFC3339)
	ce := &colladaSceneExporter{
		doc: &colladaDocument{
			Collada: &collada.Collada{
				Xmlns:   COLLADA_NAMESPACE,
				Version: COLLADA_VERSION,
				HasAsset: collada.HasAsset{Asset: &collada.Asset{
					Created:  now,
					Modified: now,
					Unit:     &collada.Unit{HasName: collada.HasName{Name: "meter"}, Meter: 1},
					UpAxis:   collada.Yup,
				}},
			},
			Scene: &collada.Scene{
				InstanceVisualScene: &collada.InstanceVisualScene{HasUrl: collada.HasUrl{Url: uri("Scene")}},
			},
		},
		s:     s,
		ids:   make(map[*scene.Node]string),
		bones: make(map[*scene.Node]struct{}),
	}
	for i, n := range s.Nodes() {
		ce.ids[n] = fmt.Sprintf("node%d", i)
	}
	for _, m := range s.Meshes {
		for i := range m.Bones {
			if n := s.BoneNode(&m.Bones[i]); n != nil {
				ce.bones[n] = struct{}{}
			}
		}
	}

	effects := &collada.LibraryEffects{}
	materials := &collada.LibraryMaterials{}
	for i, mat := range s.Materials {
		effectId := fmt.Sprintf("effect%d", i)
		effects.Effect = append(effects.Effect, &collada.Effect{
			HasId: collada.HasId{Id: collada.Id(effectId)},
			ProfileCommon: &collada.ProfileCommon{HasTechniqueFx: collada.HasTechniqueFx{
				TechniqueFx: []*collada.TechniqueFx{{
					HasSid: collada.HasSid{Sid: "common"},
					Phone: &collada.Phong{Diffuse: &collada.FxCommonColorOrTextureType{
						Color: &collada.Color{Float3: collada.Float3{Floats: collada.Floats{Values: collada.Values{V: "1 1 1 1"}}}},
					}},
				}},
			}},
		})
		materials.Material = append(materials.Material, &collada.Material{
			HasId:          collada.HasId{Id: collada.Id(fmt.Sprintf("material%d", i))},
			HasName:        collada.HasName{Name: mat.Name},
			InstanceEffect: collada.InstanceEffect{HasUrl: collada.HasUrl{Url: uri(effectId)}},
		})
	}
	ce.doc.LibraryEffects = []*collada.LibraryEffects{effects}
	ce.doc.LibraryMaterials = []*collada.LibraryMaterials{materials}

	geometries := &collada.LibraryGeometries{}
	controllers := &colladaLibraryControllers{}
	for i, m := range s.Meshes {
		geometries.Geometry = append(geometries.Geometry, ce.exportGeometry(i, m))
		if m.HasBones() {
			controllers.Controller = append(controllers.Controller, ce.exportController(i, m))
		}
	}
	ce.doc.LibraryGeometries = []*collada.LibraryGeometries{geometries}
	if len(controllers.Controller) != 0 {
		ce.doc.LibraryControllers = []*colladaLibraryControllers{controllers}
	}

	visualScene := &collada.VisualScene{HasId: collada.HasId{Id: "Scene"}}
	visualScene.Node = []*collada.Node{ce.exportNode(s.Root)}
	ce.doc.LibraryVisualScenes = []*collada.LibraryVisualScenes{{VisualScene: []*collada.VisualScene{visualScene}}}
	return ce.doc
}

func (ce *colladaSceneExporter) exportNode(n *scene.Node) *collada.Node {
	cn := &collada.Node{
		HasId:   collada.HasId{Id: collada.Id(ce.ids[n])},
		HasName: collada.HasName{Name: n.Name},
		HasType: collada.HasType{Type: "NODE"},
		Matrix:  []*collada.Matrix{{Float4x4: *colladaMatrix(n.Transform)}},
	}
	if _, ok := ce.bones[n]; ok {
		cn.Type = "JOINT"
		cn.Sid = ce.ids[n]
	}
	for _, mi := range n.Meshes {
		m := ce.s.Meshes[mi]
		if m.HasBones() {
			cn.InstanceController = append(cn.InstanceController, &collada.InstanceController{
				HasUrl:       collada.HasUrl{Url: uri(fmt.Sprintf("skin%d", mi))},
				BindMaterial: bindMaterial(m),
			})
		} else {
			cn.InstanceGeometry = append(cn.InstanceGeometry, &collada.InstanceGeometry{
				HasUrl:       collada.HasUrl{Url: uri(fmt.Sprintf("geometry%d", mi))},
				BindMaterial: bindMaterial(m),
			})
		}
	}
	for _, c := range n.Children {
		cn.Node = append(cn.Node, ce.exportNode(c))
	}
	return cn
}

func (ce *colladaSceneExporter) exportGeometry(index int, m *scene.Mesh) *collada.Geometry {
	id := fmt.Sprintf("geometry%d", index)
	mesh := &collada.Mesh{}

	positions := make([]float32, 0, len(m.Positions)*3)
	for _, p := range m.Positions {
		positions = append(positions, p[0], p[1], p[2])
	}
	mesh.Source = append(mesh.Source, floatSource(id+"-positions", positions, 3, "X", "Y", "Z"))
	mesh.Vertices = collada.Vertices{
		HasId: collada.HasId{Id: collada.Id(id + "-vertices")},
		Input: []*collada.InputUnshared{{Semantic: "POSITION", Source: uri(id + "-positions")}},
	}

	inputs := []*collada.InputShared{{Semantic: "VERTEX", Source: uri(id + "-vertices")}}
	if len(m.Normals) != 0 {
		normals := make([]float32, 0, len(m.Normals)*3)
		for _, n := range m.Normals {
			normals = append(normals, n[0], n[1], n[2])
		}
		mesh.Source = append(mesh.Source, floatSource(id+"-normals", normals, 3, "X", "Y", "Z"))
		inputs = append(inputs, &collada.InputShared{Semantic: "NORMAL", Source: uri(id + "-normals")})
	}
	for c, layer := range m.UVs {
		uvs := make([]float32, 0, len(layer)*2)
		for _, uv := range layer {
			uvs = append(uvs, uv[0], uv[1])
		}
		srcId := fmt.Sprintf("%s-uv%d", id, c)
		mesh.Source = append(mesh.Source, floatSource(srcId, uvs, 2, "S", "T"))
		inputs = append(inputs, &collada.InputShared{Semantic: "TEXCOORD", Source: uri(srcId), Set: uint(c)})
	}
	for c, layer := range m.Colors {
		colors := make([]float32, 0, len(layer)*4)
		for _, col := range layer {
			colors = append(colors, col[0], col[1], col[2], col[3])
		}
		srcId := fmt.Sprintf("%s-color%d", id, c)
		mesh.Source = append(mesh.Source, floatSource(srcId, colors, 4, "R", "G", "B", "A"))
		inputs = append(inputs, &collada.InputShared{Semantic: "COLOR", Source: uri(srcId), Set: uint(c)})
	}

	indices := make([]int, 0, len(m.Faces)*3)
	for _, f := range m.Faces {
		indices = append(indices, int(f[0]), int(f[1]), int(f[2]))
	}
	mesh.Triangles = []*collada.Triangles{{
		HasCount:       collada.HasCount{Count: len(m.Faces)},
		HasMaterial:    collada.HasMaterial{Material: "material"},
		HasSharedInput: collada.HasSharedInput{Input: inputs},
		HasP:           collada.HasP{P: &collada.P{Ints: *colladaInts(indices)}},
	}}

	return &collada.Geometry{
		HasId:   collada.HasId{Id: collada.Id(id)},
		HasName: collada.HasName{Name: m.Name},
		Mesh:    mesh,
	}
}

func (ce *colladaSceneExporter) exportController(index int, m *scene.Mesh) *colladaController {
	id := fmt.Sprintf("skin%d", index)

	names := make([]string, 0, len(m.Bones))
	matrices := make([]float32, 0, len(m.Bones)*16)
	influences := make([][][2]int, m.VertexCount())
	weights := make([]float32, 0)
	for i := range m.Bones {
		b := &m.Bones[i]
		n := ce.s.BoneNode(b)
		if n == nil {
			continue
		}
		joint := len(names)
		names = append(names, ce.ids[n])
		matrices = append(matrices, m4Transposed(b.InverseBind)...)
		for _, w := range b.Weights {
			influences[w.Vertex] = append(influences[w.Vertex], [2]int{joint, len(weights)})
			weights = append(weights, w.Weight)
		}
	}

	vcount := make([]int, len(influences))
	v := make([]int, 0, len(weights)*2)
	for i, inf := range influences {
		vcount[i] = len(inf)
		for _, pair := range inf {
			v = append(v, pair[0], pair[1])
		}
	}

	jointsId := id + "-joints"
	jointsSrc := &collada.Source{
		HasId: collada.HasId{Id: collada.Id(jointsId)},
		NameArray: &collada.NameArray{
			HasId:    collada.HasId{Id: collada.Id(jointsId + "-array")},
			HasCount: collada.HasCount{Count: len(names)},
			Names:    collada.Names{Values: collada.Values{V: strings.Join(names, " ")}},
		},
		HasTechniqueCommon: accessor(jointsId+"-array", len(names), 1, "name", "JOINT"),
	}
	bindSrc := floatSource(id+"-bind", matrices, 16)
	bindSrc.HasTechniqueCommon = accessor(id+"-bind-array", len(names), 16, "float4x4", "TRANSFORM")
	weightSrc := floatSource(id+"-weights", weights, 1, "WEIGHT")

	return &colladaController{
		HasId: collada.HasId{Id: collada.Id(id)},
		Skin: colladaSkin{
			Source:          uri(fmt.Sprintf("geometry%d", index)),
			BindShapeMatrix: colladaMatrix(mgl32.Ident4()),
			Sources:         []*collada.Source{jointsSrc, bindSrc, weightSrc},
			Joints: colladaJoints{Input: []*collada.InputUnshared{
				{Semantic: "JOINT", Source: uri(jointsId)},
				{Semantic: "INV_BIND_MATRIX", Source: uri(id + "-bind")},
			}},
			VertexWeights: colladaVertexWeights{
				HasCount: collada.HasCount{Count: len(influences)},
				HasSharedInput: collada.HasSharedInput{Input: []*collada.InputShared{
					{Semantic: "JOINT", Source: uri(jointsId), Offset: 0},
					{Semantic: "WEIGHT", Source: uri(id + "-weights"), Offset: 1},
				}},
				VCount: colladaInts(vcount),
				V:      colladaInts(v),
			},
		},
	}
}

func WriteCollada(w io.Writer, s *scene.Scene) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", " ")
	if err := enc.Encode(newColladaDocument(s)); err != nil {
		return err
	}
	return enc.Flush()
}
