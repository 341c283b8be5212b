package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

type Primitive struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Indices   []uint32 // nil means non-indexed triangle list
	Material  *Material
}

// TriangleCount returns the number of complete triangles.
func (p *Primitive) TriangleCount() int {
	if p.Indices != nil {
		return len(p.Indices) / 3
	}
	return len(p.Positions) / 3
}

// Triangle returns the vertex indices of triangle i.
func (p *Primitive) Triangle(i int) (uint32, uint32, uint32) {
	if p.Indices != nil {
		return p.Indices[3*i], p.Indices[3*i+1], p.Indices[3*i+2]
	}
	b := uint32(3 * i)
	return b, b + 1, b + 2
}

type Mesh struct {
	Name       string
	Primitives []*Primitive
}

// Node is one element of the scene graph. Visibility is inherited: a hidden
// node hides its whole subtree when rendering.
type Node struct {
	Name      string
	Visible   bool
	Transform Transform
	Mesh      *Mesh
	Parent    *Node
	Children  []*Node
}

func NewNode(name string) *Node {
	return &Node{
		Name:      name,
		Visible:   true,
		Transform: NewTransform(),
	}
}

func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		if c.Parent != nil {
			c.Parent.Remove(c)
		}
		c.Parent = n
		n.Children = append(n.Children, c)
	}
	return n
}

func (n *Node) Remove(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			return
		}
	}
}

// Traverse visits n and every descendant depth-first, parents before children.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Traverse(fn)
	}
}

// FindByName returns the first node in traversal order carrying name.
func (n *Node) FindByName(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, c := range n.Children {
		if found := c.FindByName(name); found != nil {
			return found
		}
	}
	return nil
}

func (n *Node) WorldMatrix() mgl32.Mat4 {
	m := n.Transform.Matrix()
	for p := n.Parent; p != nil; p = p.Parent {
		m = p.Transform.Matrix().Mul4(m)
	}
	return m
}

func (n *Node) LocalToWorld(p mgl32.Vec3) mgl32.Vec3 {
	return mgl32.TransformCoordinate(p, n.WorldMatrix())
}

func (n *Node) WorldToLocal(p mgl32.Vec3) mgl32.Vec3 {
	return mgl32.TransformCoordinate(p, n.WorldMatrix().Inv())
}

// WorldVisible reports whether n and all its ancestors are visible.
func (n *Node) WorldVisible() bool {
	for c := n; c != nil; c = c.Parent {
		if !c.Visible {
			return false
		}
	}
	return true
}

// Materials lists the materials of n's own mesh (not descendants).
func (n *Node) Materials() []*Material {
	if n.Mesh == nil {
		return nil
	}
	mats := make([]*Material, 0, len(n.Mesh.Primitives))
	for _, p := range n.Mesh.Primitives {
		if p.Material != nil {
			mats = append(mats, p.Material)
		}
	}
	return mats
}

// CloneMaterials gives n private copies of its materials so later edits do not
// bleed into other nodes sharing them.
func (n *Node) CloneMaterials() {
	if n.Mesh == nil {
		return
	}
	for _, p := range n.Mesh.Primitives {
		if p.Material != nil {
			p.Material = p.Material.Clone()
		}
	}
}

// IsMesh reports whether n carries geometry.
func (n *Node) IsMesh() bool {
	return n.Mesh != nil && len(n.Mesh.Primitives) > 0
}
