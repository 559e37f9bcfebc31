// Package scene is the format neutral scene graph handed to exporters.
package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

const (
	MAX_UV_CHANNELS    = 4
	MAX_COLOR_CHANNELS = 2
)

// UVSentinel marks a missing texture coordinate, so it never gets
// confused with a real (0,0).
var UVSentinel = mgl32.Vec3{1, 1, 1}

type Node struct {
	Name      string
	Transform mgl32.Mat4
	Parent    *Node
	Children  []*Node
	// indexes into Scene.Meshes
	Meshes []int
}

func NewNode(name string, transform mgl32.Mat4) *Node {
	return &Node{Name: name, Transform: transform}
}

func (n *Node) AddChild(c *Node) *Node {
	c.Parent = n
	n.Children = append(n.Children, c)
	return c
}

// WorldTransform multiplies transforms from the root down to n.
func (n *Node) WorldTransform() mgl32.Mat4 {
	m := n.Transform
	for p := n.Parent; p != nil; p = p.Parent {
		m = p.Transform.Mul4(m)
	}
	return m
}

// Walk visits n and its subtree depth first, parents before children.
func (n *Node) Walk(fn func(n *Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

func (n *Node) Find(name string) *Node {
	var found *Node
	n.Walk(func(c *Node) {
		if found == nil && c.Name == name {
			found = c
		}
	})
	return found
}

type VertexWeight struct {
	Vertex int
	Weight float32
}

// SkinBinding ties vertices of a mesh to a bone node. Bone is the node
// itself; BoneName is kept for formats that reference joints by name.
type SkinBinding struct {
	Bone        *Node
	BoneName    string
	InverseBind mgl32.Mat4
	Weights     []VertexWeight
}

type Mesh struct {
	Name       string
	Positions  []mgl32.Vec3
	Normals    []mgl32.Vec3
	Bitangents []mgl32.Vec3
	// each channel has one entry per vertex
	Tangents [][]mgl32.Vec3
	UVs      [][]mgl32.Vec3
	Colors   [][]mgl32.Vec4
	Faces    [][3]uint32

	MaterialIndex int
	Bones         []SkinBinding
}

func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

func (m *Mesh) HasBones() bool {
	return len(m.Bones) != 0
}

// Validate checks that every channel matches the vertex count and every
// face references an existing vertex.
func (m *Mesh) Validate() error {
	count := len(m.Positions)
	check := func(what string, l int) error {
		if l != 0 && l != count {
			return errors.Errorf("mesh %q: %s has %d entries for %d vertices", m.Name, what, l, count)
		}
		return nil
	}
	if err := check("normals", len(m.Normals)); err != nil {
		return err
	}
	if err := check("bitangents", len(m.Bitangents)); err != nil {
		return err
	}
	for _, ch := range m.Tangents {
		if err := check("tangents", len(ch)); err != nil {
			return err
		}
	}
	if len(m.UVs) > MAX_UV_CHANNELS {
		return errors.Errorf("mesh %q: %d uv channels", m.Name, len(m.UVs))
	}
	for _, ch := range m.UVs {
		if err := check("uvs", len(ch)); err != nil {
			return err
		}
	}
	if len(m.Colors) > MAX_COLOR_CHANNELS {
		return errors.Errorf("mesh %q: %d color channels", m.Name, len(m.Colors))
	}
	for _, ch := range m.Colors {
		if err := check("colors", len(ch)); err != nil {
			return err
		}
	}
	for i, f := range m.Faces {
		for _, idx := range f {
			if int(idx) >= count {
				return errors.Errorf("mesh %q: face %d references vertex %d of %d", m.Name, i, idx, count)
			}
		}
	}
	for _, b := range m.Bones {
		for _, w := range b.Weights {
			if w.Vertex < 0 || w.Vertex >= count {
				return errors.Errorf("mesh %q: bone %q weights vertex %d of %d", m.Name, b.BoneName, w.Vertex, count)
			}
		}
	}
	return nil
}

type Material struct {
	Name string
}

type Scene struct {
	Root      *Node
	Materials []Material
	Meshes    []*Mesh
}

func NewScene() *Scene {
	return &Scene{Root: NewNode("", mgl32.Ident4())}
}

// Nodes lists every node depth first.
func (s *Scene) Nodes() []*Node {
	result := make([]*Node, 0, 32)
	s.Root.Walk(func(n *Node) {
		result = append(result, n)
	})
	return result
}

func (s *Scene) Validate() error {
	if s.Root == nil {
		return errors.New("scene without root")
	}
	for _, m := range s.Meshes {
		if err := m.Validate(); err != nil {
			return err
		}
		if m.MaterialIndex < 0 || m.MaterialIndex >= len(s.Materials) {
			return errors.Errorf("mesh %q: material %d of %d", m.Name, m.MaterialIndex, len(s.Materials))
		}
		for i := range m.Bones {
			b := &m.Bones[i]
			if b.Bone != nil && !s.contains(b.Bone) {
				return errors.Errorf("mesh %q: bone node %q is not in the scene", m.Name, b.BoneName)
			}
			if s.BoneNode(b) == nil {
				return errors.Errorf("mesh %q: bone node %q not found", m.Name, b.BoneName)
			}
		}
	}
	var err error
	s.Root.Walk(func(n *Node) {
		for _, mi := range n.Meshes {
			if err == nil && (mi < 0 || mi >= len(s.Meshes)) {
				err = errors.Errorf("node %q: mesh %d of %d", n.Name, mi, len(s.Meshes))
			}
		}
	})
	return err
}

func (s *Scene) contains(n *Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == s.Root {
			return true
		}
	}
	return false
}

// BoneNode returns the node a binding deforms. Without a node reference
// the deepest node of that name wins, so a root renamed after the asset
// never shadows a bone of the same name.
func (s *Scene) BoneNode(b *SkinBinding) *Node {
	if b.Bone != nil {
		return b.Bone
	}
	var found *Node
	foundDepth := -1
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		if n.Name == b.BoneName && depth > foundDepth {
			found, foundDepth = n, depth
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(s.Root, 0)
	return found
}

func (n *Node) clone(parent *Node, mapping map[*Node]*Node) *Node {
	c := &Node{Name: n.Name, Transform: n.Transform, Parent: parent}
	mapping[n] = c
	c.Meshes = append([]int(nil), n.Meshes...)
	c.Children = make([]*Node, len(n.Children))
	for i, child := range n.Children {
		c.Children[i] = child.clone(c, mapping)
	}
	return c
}

// Clone copies the mesh. Bone references still point at the source
// graph; Scene.Clone remaps them.
func (m *Mesh) Clone() *Mesh {
	c := *m
	c.Positions = append([]mgl32.Vec3(nil), m.Positions...)
	c.Normals = append([]mgl32.Vec3(nil), m.Normals...)
	c.Bitangents = append([]mgl32.Vec3(nil), m.Bitangents...)
	c.Faces = append([][3]uint32(nil), m.Faces...)
	c.Tangents = make([][]mgl32.Vec3, len(m.Tangents))
	for i := range m.Tangents {
		c.Tangents[i] = append([]mgl32.Vec3(nil), m.Tangents[i]...)
	}
	c.UVs = make([][]mgl32.Vec3, len(m.UVs))
	for i := range m.UVs {
		c.UVs[i] = append([]mgl32.Vec3(nil), m.UVs[i]...)
	}
	c.Colors = make([][]mgl32.Vec4, len(m.Colors))
	for i := range m.Colors {
		c.Colors[i] = append([]mgl32.Vec4(nil), m.Colors[i]...)
	}
	c.Bones = make([]SkinBinding, len(m.Bones))
	for i, b := range m.Bones {
		c.Bones[i] = b
		c.Bones[i].Weights = append([]VertexWeight(nil), b.Weights...)
	}
	return &c
}

// Clone returns a deep copy, so exporters may transform a scene without
// touching the caller's graph.
func (s *Scene) Clone() *Scene {
	mapping := make(map[*Node]*Node)
	c := &Scene{
		Root:      s.Root.clone(nil, mapping),
		Materials: append([]Material(nil), s.Materials...),
		Meshes:    make([]*Mesh, len(s.Meshes)),
	}
	for i, m := range s.Meshes {
		c.Meshes[i] = m.Clone()
		for bi := range c.Meshes[i].Bones {
			b := &c.Meshes[i].Bones[bi]
			if b.Bone != nil {
				b.Bone = mapping[b.Bone]
			}
		}
	}
	return c
}
