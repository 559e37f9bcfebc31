package mapper

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/mass_convert/formats"
	"github.com/mogaika/mass_convert/scene"
	"github.com/mogaika/mass_convert/utils"
)

// Skeleton holds bone nodes and their bind pose world transforms.
type Skeleton struct {
	Bones []formats.Bone
	Nodes []*scene.Node
	World []mgl32.Mat4
}

// WorldTransforms composes each bone local transform with every ancestor
// up to the root. A parent must be declared before its child.
func WorldTransforms(bones []formats.Bone) ([]mgl32.Mat4, error) {
	world := make([]mgl32.Mat4, len(bones))
	for i := range bones {
		local := bones[i].LocalTransform()
		parent := int(bones[i].ParentIndex)
		switch {
		case parent == formats.ROOT_PARENT:
			world[i] = local
		case parent < formats.ROOT_PARENT || parent >= len(bones):
			return nil, errors.Wrapf(ErrBoneParent, "bone %d %q has parent %d of %d bones",
				i, bones[i].Name, parent, len(bones))
		case parent >= i:
			return nil, errors.Wrapf(ErrBoneParent, "bone %d %q references later bone %d",
				i, bones[i].Name, parent)
		default:
			world[i] = world[parent].Mul4(local)
		}
	}
	return world, nil
}

// BuildSkeleton adds a node per bone, parented to the root for root bones.
func BuildSkeleton(s *scene.Scene, bones []formats.Bone) (*Skeleton, error) {
	world, err := WorldTransforms(bones)
	if err != nil {
		return nil, err
	}
	sk := &Skeleton{Bones: bones, Nodes: make([]*scene.Node, len(bones)), World: world}
	for i := range bones {
		parent := s.Root
		if bones[i].ParentIndex != formats.ROOT_PARENT {
			parent = sk.Nodes[bones[i].ParentIndex]
		}
		sk.Nodes[i] = parent.AddChild(scene.NewNode(bones[i].Name, bones[i].LocalTransform()))
	}
	return sk, nil
}

// Resolve maps a mesh local bone reference to the global bone index.
func (sk *Skeleton) Resolve(table []int32, local int) (int, error) {
	if local < 0 || local >= len(table) {
		return 0, errors.Wrapf(ErrBoneIndex, "local bone %d of %d", local, len(table))
	}
	global := int(table[local])
	if global < 0 || global >= len(sk.Bones) {
		return 0, errors.Wrapf(ErrBoneIndex, "bone %d of %d (local %d)", global, len(sk.Bones), local)
	}
	return global, nil
}

func int16Table(t []int16) []int32 {
	result := make([]int32, len(t))
	for i, v := range t {
		result[i] = int32(v)
	}
	return result
}

// skinner collects one binding per referenced bone in first use order.
type skinner struct {
	sk       *Skeleton
	bindings []scene.SkinBinding
	byBone   map[int]int
}

func newSkinner(sk *Skeleton) *skinner {
	return &skinner{sk: sk, byBone: make(map[int]int)}
}

// bind moves position into bone space and records a unit weight for
// vertex.
func (sn *skinner) bind(global int, vertex int, position mgl32.Vec3) (mgl32.Vec3, error) {
	world := sn.sk.World[global]
	bi, ok := sn.byBone[global]
	if !ok {
		if utils.IsSingular(world) {
			return position, errors.Wrapf(ErrSingularBone, "bone %d %q", global, sn.sk.Bones[global].Name)
		}
		bi = len(sn.bindings)
		sn.byBone[global] = bi
		sn.bindings = append(sn.bindings, scene.SkinBinding{
			Bone:        sn.sk.Nodes[global],
			BoneName:    sn.sk.Nodes[global].Name,
			InverseBind: world.Inv(),
		})
	}
	sn.bindings[bi].Weights = append(sn.bindings[bi].Weights, scene.VertexWeight{Vertex: vertex, Weight: 1})
	return utils.TransformPoint(world, position), nil
}
