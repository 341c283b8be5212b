package gatelab

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/gatelab/render"
	"github.com/gekko3d/gatelab/scene"
)

// Camera is a perspective camera looking at Target. Fov is vertical, in degrees.
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
	Fov      float32
	Aspect   float32
	Near     float32
	Far      float32
}

func NewCamera(spec CameraSpec, aspect float32) *Camera {
	fov := float32(spec.Fov)
	if fov <= 0 {
		fov = 50
	}
	return &Camera{
		Position: vec3(spec.Position),
		Up:       mgl32.Vec3{0, 1, 0},
		Fov:      fov,
		Aspect:   aspect,
		Near:     0.1,
		Far:      2000,
	}
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

func (c *Camera) ProjectionMatrix() mgl32.Mat4 {
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(mgl32.DegToRad(c.Fov), aspect, c.Near, c.Far)
}

func (c *Camera) RenderView() render.View {
	return render.View{
		View:       c.ViewMatrix(),
		Projection: c.ProjectionMatrix(),
		Eye:        c.Position,
	}
}

// SetSize updates the aspect ratio for a width x height viewport.
func (c *Camera) SetSize(width, height int) {
	if width > 0 && height > 0 {
		c.Aspect = float32(width) / float32(height)
	}
}

// FitCamera frames box: the distance covers the largest box dimension for
// both the vertical and horizontal field of view, scaled by the padding, and
// the camera sits along the fixed oblique direction from the box centre.
// It returns the distance, or 0 when box is empty.
func FitCamera(cam *Camera, box scene.Box3, spec CameraSpec) float32 {
	if box.IsEmpty() {
		return 0
	}
	size := box.Size()
	center := box.Center()
	maxSize := max(size.X(), size.Y(), size.Z())

	fitHeight := maxSize / (2 * float32(math.Tan(float64(mgl32.DegToRad(cam.Fov*0.5)))))
	fitWidth := fitHeight
	if cam.Aspect > 0 {
		fitWidth = fitHeight / cam.Aspect
	}
	padding := float32(spec.FitPadding)
	if padding <= 0 {
		padding = 1
	}
	distance := padding * max(fitHeight, fitWidth)
	if distance <= 0 {
		distance = 1
	}

	dir := vec3(spec.FitDirection)
	if dir.Len() == 0 {
		dir = mgl32.Vec3{1, 1, 1}
	}
	cam.Position = center.Add(dir.Normalize().Mul(distance))
	cam.Target = center

	near := float32(spec.NearDivisor)
	if near <= 0 {
		near = 50
	}
	far := float32(spec.FarMultiplier)
	if far <= 0 {
		far = 100
	}
	cam.Near = distance / near
	cam.Far = distance * far
	return distance
}
