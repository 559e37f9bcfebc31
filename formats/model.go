package formats

import (
	"github.com/go-gl/mathgl/mgl32"
)

type ModelKind int

const (
	MODEL_FLVER0 ModelKind = iota
	MODEL_FLVER2
	MODEL_MDL4
	MODEL_SMD4
)

// ModelKinds is the order leaf probes are tried in.
var ModelKinds = []ModelKind{MODEL_FLVER2, MODEL_FLVER0, MODEL_MDL4, MODEL_SMD4}

func (k ModelKind) String() string {
	switch k {
	case MODEL_FLVER0:
		return "FLVER0"
	case MODEL_FLVER2:
		return "FLVER2"
	case MODEL_MDL4:
		return "MDL4"
	case MODEL_SMD4:
		return "SMD4"
	}
	return "Unknown"
}

// Model is one of *FLVER0, *FLVER2, *MDL4 or *SMD4.
type Model interface {
	Kind() ModelKind
	sealed()
}

const ROOT_PARENT = -1

type Bone struct {
	Name        string
	ParentIndex int16
	Translation mgl32.Vec3
	// euler angles, radians
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3
}

// LocalTransform composes scale, then rotation around X, Z, Y and
// finally the translation.
func (b *Bone) LocalTransform() mgl32.Mat4 {
	return mgl32.Translate3D(b.Translation[0], b.Translation[1], b.Translation[2]).
		Mul4(mgl32.HomogRotate3DY(b.Rotation[1])).
		Mul4(mgl32.HomogRotate3DZ(b.Rotation[2])).
		Mul4(mgl32.HomogRotate3DX(b.Rotation[0])).
		Mul4(mgl32.Scale3D(b.Scale[0], b.Scale[1], b.Scale[2]))
}

type Material struct {
	Name string
}

// FlverVertex is shared by both FLVER generations. NormalW holds the
// mesh local bone index.
type FlverVertex struct {
	Position  mgl32.Vec3
	Normal    mgl32.Vec3
	NormalW   int32
	Tangents  []mgl32.Vec4
	Bitangent mgl32.Vec4
	UVs       []mgl32.Vec3
	Colors    []mgl32.Vec4
}

type FLVER0Mesh struct {
	MaterialIndex int
	BoneIndices   []int16
	// strip with 0xFFFF restarts when UseTriangleStrips is set,
	// plain triangle list otherwise
	VertexIndices     []int32
	UseTriangleStrips bool
	Vertices          []FlverVertex
}

type FLVER0 struct {
	Version   int32
	Bones     []Bone
	Materials []Material
	Meshes    []FLVER0Mesh
}

func (*FLVER0) Kind() ModelKind { return MODEL_FLVER0 }
func (*FLVER0) sealed()         {}

const (
	FACESET_LOD_LEVEL1  = 0x01000000
	FACESET_LOD_LEVEL2  = 0x02000000
	FACESET_EDGE        = 0x40000000
	FACESET_MOTION_BLUR = 0x80000000
)

type FaceSet struct {
	Flags         uint32
	TriangleStrip bool
	CullBackfaces bool
	Indices       []int32
}

type FLVER2Mesh struct {
	MaterialIndex int
	BoneIndices   []int32
	FaceSets      []FaceSet
	Vertices      []FlverVertex
}

type FLVER2 struct {
	Version   int32
	Bones     []Bone
	Materials []Material
	Meshes    []FLVER2Mesh
}

func (*FLVER2) Kind() ModelKind { return MODEL_FLVER2 }
func (*FLVER2) sealed()         {}

// MDL4Vertex keeps the mesh local bone index in Normal.W.
type MDL4Vertex struct {
	Position  mgl32.Vec3
	Normal    mgl32.Vec4
	Tangent   mgl32.Vec4
	Bitangent mgl32.Vec4
	Color     mgl32.Vec4
	UVs       []mgl32.Vec2
}

type MDL4Mesh struct {
	MaterialIndex int
	BoneIndices   []int16
	// triangle list
	Indices  []int32
	Vertices []MDL4Vertex
}

type MDL4 struct {
	Version   int32
	Bones     []Bone
	Materials []Material
	Meshes    []MDL4Mesh
}

func (*MDL4) Kind() ModelKind { return MODEL_MDL4 }
func (*MDL4) sealed()         {}

type SMD4Vertex struct {
	Position    mgl32.Vec3
	BoneIndices [4]int16
}

type SMD4Mesh struct {
	MaterialIndex int
	BoneIndices   []int16
	Indices       []int32
	Vertices      []SMD4Vertex
}

// SMD4 carries no materials.
type SMD4 struct {
	Version int32
	Bones   []Bone
	Meshes  []SMD4Mesh
}

func (*SMD4) Kind() ModelKind { return MODEL_SMD4 }
func (*SMD4) sealed()         {}
