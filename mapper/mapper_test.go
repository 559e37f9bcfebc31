package mapper

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/mass_convert/formats"
	"github.com/mogaika/mass_convert/scene"
)

func bone(name string, parent int16, translation mgl32.Vec3) formats.Bone {
	return formats.Bone{Name: name, ParentIndex: parent, Translation: translation, Scale: mgl32.Vec3{1, 1, 1}}
}

func triangleVertices(uvs int) []formats.FlverVertex {
	vs := make([]formats.FlverVertex, 3)
	for i := range vs {
		vs[i].Position = mgl32.Vec3{float32(i), 0, 0}
		vs[i].Normal = mgl32.Vec3{0, 1, 0}
		vs[i].UVs = make([]mgl32.Vec3, uvs)
		for j := range vs[i].UVs {
			vs[i].UVs[j] = mgl32.Vec3{0.25, 0.5, 0}
		}
	}
	return vs
}

func TestWorldTransforms(t *testing.T) {
	bones := []formats.Bone{
		bone("root", -1, mgl32.Vec3{1, 0, 0}),
		bone("child", 0, mgl32.Vec3{0, 2, 0}),
		bone("grandchild", 1, mgl32.Vec3{0, 0, 3}),
	}
	world, err := WorldTransforms(bones)
	if err != nil {
		t.Fatal(err)
	}
	expected := mgl32.Vec3{1, 2, 3}
	if got := world[2].Col(3).Vec3(); !got.ApproxEqual(expected) {
		t.Errorf("WorldTransforms()[2]=%v; expected %v", got, expected)
	}

	s := scene.NewScene()
	sk, err := BuildSkeleton(s, bones)
	if err != nil {
		t.Fatal(err)
	}
	for i, n := range sk.Nodes {
		if got := n.WorldTransform(); !got.ApproxEqual(world[i]) {
			t.Errorf("node %q world %v; expected %v", n.Name, got, world[i])
		}
	}
}

func TestWorldTransformsBadParent(t *testing.T) {
	for _, c := range []struct {
		name  string
		bones []formats.Bone
	}{
		{"out of range", []formats.Bone{bone("a", -1, mgl32.Vec3{}), bone("b", 5, mgl32.Vec3{})}},
		{"negative", []formats.Bone{bone("a", -2, mgl32.Vec3{})}},
		{"forward", []formats.Bone{bone("a", 1, mgl32.Vec3{}), bone("b", -1, mgl32.Vec3{})}},
		{"self", []formats.Bone{bone("a", 0, mgl32.Vec3{})}},
	} {
		if _, err := WorldTransforms(c.bones); errors.Cause(err) != ErrBoneParent {
			t.Errorf("%s: WorldTransforms()=%v; expected %v", c.name, err, ErrBoneParent)
		}
	}
}

func TestTriangulateStrip(t *testing.T) {
	for _, c := range []struct {
		in       []int32
		restarts bool
		out      [][3]int32
	}{
		{[]int32{0, 1, 2, 3}, true, [][3]int32{{0, 1, 2}, {1, 3, 2}}},
		{[]int32{0, 1, 2, 0xFFFF, 3, 4, 5}, true, [][3]int32{{0, 1, 2}, {3, 4, 5}}},
		{[]int32{0, 1, 1, 2}, false, [][3]int32{{0, 1, 1}, {1, 2, 1}}},
		{[]int32{0, 1}, true, [][3]int32{}},
	} {
		got := TriangulateStrip(c.in, c.restarts)
		if len(got) != len(c.out) {
			t.Errorf("TriangulateStrip(%v)=%v; expected %v", c.in, got, c.out)
			continue
		}
		for i := range got {
			if got[i] != c.out[i] {
				t.Errorf("TriangulateStrip(%v)=%v; expected %v", c.in, got, c.out)
				break
			}
		}
	}
}

func TestMapFLVER2FaceSets(t *testing.T) {
	for _, c := range []struct {
		sets  []formats.FaceSet
		faces int
	}{
		{[]formats.FaceSet{{Indices: []int32{0, 1, 2}}}, 1},
		{[]formats.FaceSet{
			{Indices: []int32{0, 1, 2}},
			{Flags: formats.FACESET_LOD_LEVEL1, Indices: []int32{0, 1, 2}},
			{Flags: formats.FACESET_MOTION_BLUR, Indices: []int32{2, 1, 0}},
		}, 3},
		{[]formats.FaceSet{
			{Flags: formats.FACESET_LOD_LEVEL2, TriangleStrip: true, Indices: []int32{0, 1, 2}},
		}, 1},
		{nil, 0},
	} {
		model := &formats.FLVER2{
			Bones:  []formats.Bone{bone("root", -1, mgl32.Vec3{})},
			Meshes: []formats.FLVER2Mesh{{FaceSets: c.sets, Vertices: triangleVertices(0)}},
		}
		s, err := Map(model)
		if err != nil {
			t.Fatal(err)
		}
		if got := len(s.Meshes[0].Faces); got != c.faces {
			t.Errorf("MapFLVER2(%d face sets)=%d faces; expected %d", len(c.sets), got, c.faces)
		}
	}
}

func TestMapFLVER2(t *testing.T) {
	model := &formats.FLVER2{
		Bones: []formats.Bone{
			bone("root", -1, mgl32.Vec3{}),
			bone("arm", 0, mgl32.Vec3{}),
		},
		Materials: []formats.Material{{Name: "body"}},
		Meshes: []formats.FLVER2Mesh{{
			BoneIndices: []int32{1},
			FaceSets: []formats.FaceSet{
				{Indices: []int32{0, 1, 2}},
				{Flags: formats.FACESET_LOD_LEVEL1, Indices: []int32{0, 0, 0}},
			},
			Vertices: triangleVertices(1),
		}},
	}
	s, err := Map(model)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Meshes) != 1 {
		t.Fatalf("got %d meshes; expected 1", len(s.Meshes))
	}
	m := s.Meshes[0]
	if m.Name != "Mesh_M0" {
		t.Errorf("mesh name %q; expected Mesh_M0", m.Name)
	}
	if len(m.Faces) != 2 {
		t.Errorf("got %d faces; expected main and lod sets", len(m.Faces))
	}
	if len(m.UVs) != scene.MAX_UV_CHANNELS {
		t.Fatalf("got %d uv channels; expected %d", len(m.UVs), scene.MAX_UV_CHANNELS)
	}
	if got := m.UVs[0][0]; got != (mgl32.Vec3{0.25, 0.5, 0}) {
		t.Errorf("uv0=%v; expected real coordinate", got)
	}
	for c := 1; c < scene.MAX_UV_CHANNELS; c++ {
		if got := m.UVs[c][2]; got != scene.UVSentinel {
			t.Errorf("uv%d=%v; expected sentinel", c, got)
		}
	}
	if len(m.Normals) != 3 {
		t.Errorf("got %d normals; expected 3", len(m.Normals))
	}
	if len(m.Colors) != 0 {
		t.Errorf("got %d color channels; expected none", len(m.Colors))
	}

	if len(m.Bones) != 1 || m.Bones[0].BoneName != "arm" {
		t.Fatalf("bones %v; expected single arm binding", m.Bones)
	}
	if len(m.Bones[0].Weights) != 3 {
		t.Errorf("got %d weights; expected 3", len(m.Bones[0].Weights))
	}
	for _, w := range m.Bones[0].Weights {
		if w.Weight != 1 {
			t.Errorf("weight %v; expected 1", w)
		}
	}
	if got := m.Positions[1]; got != (mgl32.Vec3{1, 0, 0}) {
		t.Errorf("identity bound position %v; expected unchanged", got)
	}
	if s.Root.Find("Mesh_0") == nil {
		t.Errorf("mesh node Mesh_0 not found")
	}
}

func TestMapFLVER0Strip(t *testing.T) {
	model := &formats.FLVER0{
		Materials: []formats.Material{{Name: "m"}},
		Meshes: []formats.FLVER0Mesh{{
			VertexIndices:     []int32{0, 1, 2, 0xFFFF, 2, 1, 0},
			UseTriangleStrips: true,
			Vertices:          triangleVertices(0),
		}},
	}
	s, err := Map(model)
	if err != nil {
		t.Fatal(err)
	}
	m := s.Meshes[0]
	if len(m.Faces) != 2 {
		t.Errorf("got %d faces; expected 2", len(m.Faces))
	}
	if m.HasBones() {
		t.Errorf("unexpected bones %v", m.Bones)
	}
}

func TestMapSMD4(t *testing.T) {
	model := &formats.SMD4{
		Bones: []formats.Bone{bone("root", -1, mgl32.Vec3{1, 0, 0})},
		Meshes: []formats.SMD4Mesh{{
			MaterialIndex: 7,
			BoneIndices:   []int16{0},
			Indices:       []int32{0, 1, 2},
			Vertices:      make([]formats.SMD4Vertex, 3),
		}},
	}
	s, err := Map(model)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Materials) != 1 || s.Materials[0].Name != DefaultMaterialName {
		t.Errorf("materials %v; expected single default", s.Materials)
	}
	m := s.Meshes[0]
	if m.MaterialIndex != 0 {
		t.Errorf("material index %d; expected 0", m.MaterialIndex)
	}
	if got := m.Positions[0]; !got.ApproxEqual(mgl32.Vec3{1, 0, 0}) {
		t.Errorf("bound position %v; expected bone translation", got)
	}
	if len(m.Normals) != 0 || len(m.Tangents) != 0 {
		t.Errorf("unexpected normals or tangents")
	}
	if got := m.UVs[0][0]; got != scene.UVSentinel {
		t.Errorf("uv0=%v; expected sentinel", got)
	}
}

func TestMapMDL4(t *testing.T) {
	vertices := make([]formats.MDL4Vertex, 3)
	for i := range vertices {
		vertices[i].Normal = mgl32.Vec4{0, 0, 1, 1}
		vertices[i].Color = mgl32.Vec4{1, 0, 0, 1}
		vertices[i].UVs = []mgl32.Vec2{{0.5, 0.5}, {0.1, 0.2}}
	}
	model := &formats.MDL4{
		Bones:     []formats.Bone{bone("a", -1, mgl32.Vec3{}), bone("b", 0, mgl32.Vec3{0, 1, 0})},
		Materials: []formats.Material{{Name: "m"}},
		Meshes: []formats.MDL4Mesh{{
			BoneIndices: []int16{0, 1},
			Indices:     []int32{0, 1, 2},
			Vertices:    vertices,
		}},
	}
	s, err := Map(model)
	if err != nil {
		t.Fatal(err)
	}
	m := s.Meshes[0]
	if len(m.Bones) != 1 || m.Bones[0].BoneName != "b" {
		t.Errorf("bones %v; expected b from normal w", m.Bones)
	}
	if len(m.Colors) != 1 || len(m.Tangents) != 1 {
		t.Errorf("got %d colors %d tangents; expected 1 each", len(m.Colors), len(m.Tangents))
	}
	if got := m.UVs[1][0]; !got.ApproxEqual(mgl32.Vec3{0.1, 0.2, 0}) {
		t.Errorf("uv1=%v", got)
	}
}

func TestMapSingularBone(t *testing.T) {
	model := &formats.SMD4{
		Bones: []formats.Bone{{Name: "flat", ParentIndex: -1}},
		Meshes: []formats.SMD4Mesh{{
			BoneIndices: []int16{0},
			Indices:     []int32{0, 1, 2},
			Vertices:    make([]formats.SMD4Vertex, 3),
		}},
	}
	if _, err := Map(model); errors.Cause(err) != ErrSingularBone {
		t.Errorf("Map()=%v; expected %v", err, ErrSingularBone)
	}
}

func TestMapBadBoneIndex(t *testing.T) {
	vs := triangleVertices(0)
	vs[0].NormalW = 3
	model := &formats.FLVER2{
		Bones:     []formats.Bone{bone("a", -1, mgl32.Vec3{})},
		Materials: []formats.Material{{Name: "m"}},
		Meshes:    []formats.FLVER2Mesh{{BoneIndices: []int32{0}, Vertices: vs}},
	}
	if _, err := Map(model); errors.Cause(err) != ErrBoneIndex {
		t.Errorf("Map()=%v; expected %v", err, ErrBoneIndex)
	}
}

func skinnedModel(table []int32) *formats.FLVER2 {
	vs := triangleVertices(0)
	vs[2].NormalW = 1
	return &formats.FLVER2{
		Bones: []formats.Bone{
			bone("root", -1, mgl32.Vec3{1, 0, 0}),
			bone("arm", 0, mgl32.Vec3{0, 2, 0}),
		},
		Materials: []formats.Material{{Name: "body"}},
		Meshes: []formats.FLVER2Mesh{{
			BoneIndices: table,
			FaceSets:    []formats.FaceSet{{Indices: []int32{0, 1, 2}}},
			Vertices:    vs,
		}},
	}
}

func TestMapTwoBones(t *testing.T) {
	model := skinnedModel([]int32{0, 1})
	world, err := WorldTransforms(model.Bones)
	if err != nil {
		t.Fatal(err)
	}
	s, err := Map(model)
	if err != nil {
		t.Fatal(err)
	}
	m := s.Meshes[0]
	if len(m.Bones) != 2 {
		t.Fatalf("got %d bindings; expected one per bone", len(m.Bones))
	}

	for i, c := range []struct {
		name     string
		vertices []int
	}{
		{"root", []int{0, 1}},
		{"arm", []int{2}},
	} {
		b := m.Bones[i]
		if b.BoneName != c.name || b.Bone == nil || b.Bone.Name != c.name {
			t.Errorf("binding %d bone %q; expected %q", i, b.BoneName, c.name)
		}
		if len(b.Weights) != len(c.vertices) {
			t.Errorf("%s weights %v; expected vertices %v", c.name, b.Weights, c.vertices)
			continue
		}
		for j, w := range b.Weights {
			if w.Vertex != c.vertices[j] || w.Weight != 1 {
				t.Errorf("%s weight %v; expected vertex %d at 1", c.name, w, c.vertices[j])
			}
		}
		if !b.InverseBind.ApproxEqual(world[i].Inv()) {
			t.Errorf("%s inverse bind %v; expected %v", c.name, b.InverseBind, world[i].Inv())
		}
		if got := b.Bone.WorldTransform(); !got.ApproxEqual(world[i]) {
			t.Errorf("%s node world %v; expected %v", c.name, got, world[i])
		}
	}

	for i, expected := range []mgl32.Vec3{{1, 0, 0}, {2, 0, 0}, {3, 2, 0}} {
		if got := m.Positions[i]; !got.ApproxEqual(expected) {
			t.Errorf("position %d=%v; expected %v", i, got, expected)
		}
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate()=%v", err)
	}
}

func TestMapUnboundUnderSkeleton(t *testing.T) {
	s, err := Map(skinnedModel(nil))
	if err != nil {
		t.Fatal(err)
	}
	m := s.Meshes[0]
	if len(m.Bones) != 0 {
		t.Errorf("got %d bindings; expected none", len(m.Bones))
	}
	for i, expected := range []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}} {
		if got := m.Positions[i]; got != expected {
			t.Errorf("position %d=%v; expected %v", i, got, expected)
		}
	}
}
