package render

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/gatelab/scene"
)

// View carries the camera matrices for one frame.
type View struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Eye        mgl32.Vec3
}

func (v View) ViewProjection() mgl32.Mat4 {
	return v.Projection.Mul4(v.View)
}

// Target is a linear colour buffer with depth.
type Target struct {
	Width, Height int
	Color         []mgl32.Vec3
	Depth         []float32
}

func NewTarget(width, height int) *Target {
	t := &Target{}
	t.Resize(width, height)
	return t
}

func (t *Target) Resize(width, height int) {
	t.Width, t.Height = max(width, 1), max(height, 1)
	n := t.Width * t.Height
	t.Color = make([]mgl32.Vec3, n)
	t.Depth = make([]float32, n)
}

func (t *Target) Clear(bg mgl32.Vec3) {
	n := len(t.Color)
	if n == 0 {
		return
	}
	t.Color[0] = bg
	t.Depth[0] = math.MaxFloat32
	for i := 1; i < n; i *= 2 {
		copy(t.Color[i:], t.Color[:i])
		copy(t.Depth[i:], t.Depth[:i])
	}
}

// screenVertex holds a vertex transformed to screen space.
type screenVertex struct {
	X, Y float32
	Z    float32
}

type face struct {
	v       [3]screenVertex
	color   mgl32.Vec3
	opacity float32
	write   bool
	depth   float32 // mean view distance, for sorting transparent faces
}

// BasePass draws every visible mesh with flat shading. Opaque faces go
// first; transparent faces follow, sorted far to near and alpha blended.
type BasePass struct {
	Lights []Light

	// Triangles counts faces submitted in the last Draw, for diagnostics.
	Triangles int

	transparent []face
}

func (p *BasePass) Draw(t *Target, root *scene.Node, view View) {
	p.Triangles = 0
	p.transparent = p.transparent[:0]
	if root == nil {
		return
	}
	vp := view.ViewProjection()
	p.walk(t, root, mgl32.Ident4(), vp, view.Eye)

	sort.SliceStable(p.transparent, func(i, j int) bool {
		return p.transparent[i].depth > p.transparent[j].depth
	})
	for i := range p.transparent {
		rasterize(t, &p.transparent[i])
	}
}

func (p *BasePass) walk(t *Target, n *scene.Node, parent mgl32.Mat4, vp mgl32.Mat4, eye mgl32.Vec3) {
	if !n.Visible {
		return
	}
	world := parent.Mul4(n.Transform.Matrix())
	if n.Mesh != nil {
		for _, prim := range n.Mesh.Primitives {
			p.primitive(t, prim, world, vp, eye)
		}
	}
	for _, c := range n.Children {
		p.walk(t, c, world, vp, eye)
	}
}

func (p *BasePass) primitive(t *Target, prim *scene.Primitive, world, vp mgl32.Mat4, eye mgl32.Vec3) {
	mat := prim.Material
	if mat == nil {
		mat = scene.NewMaterial("")
	}
	if !mat.Visible || mat.Opacity <= 0 {
		return
	}
	mvp := vp.Mul4(world)
	emissive := mat.Emissive.Mul(mat.EmissiveIntensity)

	for i := 0; i < prim.TriangleCount(); i++ {
		i0, i1, i2 := prim.Triangle(i)
		if int(max(i0, i1, i2)) >= len(prim.Positions) {
			continue
		}
		l0, l1, l2 := prim.Positions[i0], prim.Positions[i1], prim.Positions[i2]

		var f face
		ok := true
		for k, v := range [3]mgl32.Vec3{l0, l1, l2} {
			clip := mvp.Mul4x1(v.Vec4(1))
			if clip.W() <= 1e-6 {
				ok = false
				break
			}
			f.v[k] = screenVertex{
				X: (clip.X()/clip.W() + 1) * 0.5 * float32(t.Width),
				Y: (1 - clip.Y()/clip.W()) * 0.5 * float32(t.Height), // Y flipped
				Z: clip.Z() / clip.W(),
			}
		}
		if !ok {
			continue
		}
		p.Triangles++

		w0 := mgl32.TransformCoordinate(l0, world)
		w1 := mgl32.TransformCoordinate(l1, world)
		w2 := mgl32.TransformCoordinate(l2, world)
		normal := w1.Sub(w0).Cross(w2.Sub(w0))
		if normal.Len() == 0 {
			continue
		}
		normal = normal.Normalize()
		// Light both sides: face the normal towards the viewer.
		if normal.Dot(eye.Sub(w0)) < 0 {
			normal = normal.Mul(-1)
		}

		light := irradiance(p.Lights, normal)
		f.color = mgl32.Vec3{
			mat.Color.X()*light.X() + emissive.X(),
			mat.Color.Y()*light.Y() + emissive.Y(),
			mat.Color.Z()*light.Z() + emissive.Z(),
		}
		f.opacity = mgl32.Clamp(mat.Opacity, 0, 1)
		f.write = mat.DepthWrite

		if mat.Transparent && f.opacity < 1 {
			centre := w0.Add(w1).Add(w2).Mul(1.0 / 3)
			f.depth = centre.Sub(eye).Len()
			p.transparent = append(p.transparent, f)
			continue
		}
		f.opacity = 1
		rasterize(t, &f)
	}
}

func edge(a, b screenVertex, x, y float32) float32 {
	return (b.X-a.X)*(y-a.Y) - (b.Y-a.Y)*(x-a.X)
}

func rasterize(t *Target, f *face) {
	a, b, c := f.v[0], f.v[1], f.v[2]
	area := edge(a, b, c.X, c.Y)
	if area == 0 {
		return
	}

	minX := max(int(math.Floor(float64(min(a.X, b.X, c.X)))), 0)
	maxX := min(int(math.Ceil(float64(max(a.X, b.X, c.X)))), t.Width-1)
	minY := max(int(math.Floor(float64(min(a.Y, b.Y, c.Y)))), 0)
	maxY := min(int(math.Ceil(float64(max(a.Y, b.Y, c.Y)))), t.Height-1)

	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5
			w0 := edge(b, c, px, py) / area
			w1 := edge(c, a, px, py) / area
			w2 := edge(a, b, px, py) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*a.Z + w1*b.Z + w2*c.Z
			if z < -1 || z > 1 {
				continue
			}
			i := y*t.Width + x
			if z >= t.Depth[i] {
				continue
			}
			if f.opacity >= 1 {
				t.Color[i] = f.color
			} else {
				t.Color[i] = t.Color[i].Mul(1 - f.opacity).Add(f.color.Mul(f.opacity))
			}
			if f.write {
				t.Depth[i] = z
			}
		}
	}
}
