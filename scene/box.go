package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Box3 is an axis-aligned bounding box. An empty box has Min > Max.
type Box3 struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func EmptyBox() Box3 {
	inf := float32(math.Inf(1))
	return Box3{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

func (b Box3) IsEmpty() bool {
	return b.Max.X() < b.Min.X() || b.Max.Y() < b.Min.Y() || b.Max.Z() < b.Min.Z()
}

func (b *Box3) ExpandByPoint(p mgl32.Vec3) {
	b.Min = mgl32.Vec3{min(b.Min.X(), p.X()), min(b.Min.Y(), p.Y()), min(b.Min.Z(), p.Z())}
	b.Max = mgl32.Vec3{max(b.Max.X(), p.X()), max(b.Max.Y(), p.Y()), max(b.Max.Z(), p.Z())}
}

func (b *Box3) Union(o Box3) {
	if o.IsEmpty() {
		return
	}
	b.ExpandByPoint(o.Min)
	b.ExpandByPoint(o.Max)
}

func (b Box3) Size() mgl32.Vec3 {
	if b.IsEmpty() {
		return mgl32.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

func (b Box3) Center() mgl32.Vec3 {
	if b.IsEmpty() {
		return mgl32.Vec3{}
	}
	return b.Min.Add(b.Max).Mul(0.5)
}

// Corners returns the 8 corners of b.
func (b Box3) Corners() [8]mgl32.Vec3 {
	return [8]mgl32.Vec3{
		{b.Min.X(), b.Min.Y(), b.Min.Z()},
		{b.Max.X(), b.Min.Y(), b.Min.Z()},
		{b.Min.X(), b.Max.Y(), b.Min.Z()},
		{b.Max.X(), b.Max.Y(), b.Min.Z()},
		{b.Min.X(), b.Min.Y(), b.Max.Z()},
		{b.Max.X(), b.Min.Y(), b.Max.Z()},
		{b.Min.X(), b.Max.Y(), b.Max.Z()},
		{b.Max.X(), b.Max.Y(), b.Max.Z()},
	}
}

// LocalBounds returns the bounds of a primitive set in mesh space.
func (m *Mesh) LocalBounds() Box3 {
	box := EmptyBox()
	for _, p := range m.Primitives {
		for _, v := range p.Positions {
			box.ExpandByPoint(v)
		}
	}
	return box
}

// BoxFromNode computes the world-space bounds of n and its descendants,
// visible or not. Mesh bounds are transformed corner by corner.
func BoxFromNode(n *Node) Box3 {
	box := EmptyBox()
	n.Traverse(func(c *Node) {
		if !c.IsMesh() {
			return
		}
		local := c.Mesh.LocalBounds()
		if local.IsEmpty() {
			return
		}
		world := c.WorldMatrix()
		for _, corner := range local.Corners() {
			box.ExpandByPoint(mgl32.TransformCoordinate(corner, world))
		}
	})
	return box
}
