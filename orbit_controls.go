package gatelab

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/gatelab/host"
)

const minPolar = 1e-3

// OrbitControls turns pointer drags and wheel input into a damped orbit of
// the camera around its target.
type OrbitControls struct {
	Damping     float32
	RotateSpeed float32
	ZoomSpeed   float32
	Enabled     bool
	// MinDistance and MaxDistance bound the zoom. Zero takes twice the
	// camera's near plane and half its far plane.
	MinDistance float32
	MaxDistance float32

	camera   *Camera
	height   func() int
	theta    float32
	phi      float32
	scale    float32
	dragging bool
	lastX    float64
	lastY    float64
	removers []func()
	disposed bool
}

// NewOrbitControls listens for input on el. height reports the element's
// current height in pixels; a full-height drag turns the camera once around.
func NewOrbitControls(cam *Camera, el host.Element, height func() int) *OrbitControls {
	c := &OrbitControls{
		Damping:     0.08,
		RotateSpeed: 1,
		ZoomSpeed:   1,
		Enabled:     true,
		camera:      cam,
		height:      height,
		scale:       1,
	}
	if el != nil {
		c.removers = append(c.removers,
			el.On("pointerdown", c.onPointerDown),
			el.On("pointermove", c.onPointerMove),
			el.On("pointerup", c.onPointerUp),
			el.On("pointerleave", c.onPointerUp),
			el.On("wheel", c.onWheel),
		)
	}
	return c
}

func (c *OrbitControls) onPointerDown(ev host.Event) {
	if !c.Enabled {
		return
	}
	c.dragging = true
	c.lastX, c.lastY = ev.X, ev.Y
}

func (c *OrbitControls) onPointerMove(ev host.Event) {
	if !c.Enabled || !c.dragging {
		return
	}
	dx, dy := ev.X-c.lastX, ev.Y-c.lastY
	c.lastX, c.lastY = ev.X, ev.Y

	h := 360
	if c.height != nil {
		if v := c.height(); v > 0 {
			h = v
		}
	}
	turn := 2 * math.Pi * float64(c.RotateSpeed) / float64(h)
	c.Rotate(float32(-dx*turn), float32(-dy*turn))
}

func (c *OrbitControls) onPointerUp(host.Event) {
	c.dragging = false
}

func (c *OrbitControls) onWheel(ev host.Event) {
	if !c.Enabled || ev.DeltaY == 0 {
		return
	}
	step := float32(math.Pow(0.95, float64(c.ZoomSpeed)))
	if ev.DeltaY > 0 {
		c.Zoom(1 / step)
	} else {
		c.Zoom(step)
	}
}

// Rotate queues an azimuth and polar rotation in radians.
func (c *OrbitControls) Rotate(dTheta, dPhi float32) {
	c.theta += dTheta
	c.phi += dPhi
}

// Zoom queues a distance multiplier; below 1 moves closer.
func (c *OrbitControls) Zoom(factor float32) {
	if factor > 0 {
		c.scale *= factor
	}
}

// Update advances the orbit by one frame of length dt; dt <= 0 counts as a
// 60 Hz frame. Queued rotation decays by the damping factor per frame.
// It reports whether the camera moved.
func (c *OrbitControls) Update(dt time.Duration) bool {
	if c.disposed {
		return false
	}
	if abs32(c.theta) < 1e-6 && abs32(c.phi) < 1e-6 && c.scale == 1 {
		c.theta, c.phi = 0, 0
		return false
	}
	cam := c.camera
	factor := c.Damping
	if factor <= 0 || factor > 1 {
		factor = 1
	}
	if dt > 0 {
		frames := dt.Seconds() * 60
		factor = float32(1 - math.Pow(1-float64(factor), frames))
	}

	offset := cam.Position.Sub(cam.Target)
	radius := offset.Len()
	if radius == 0 {
		return false
	}
	theta := math.Atan2(float64(offset.X()), float64(offset.Z()))
	phi := math.Acos(float64(mgl32.Clamp(offset.Y()/radius, -1, 1)))

	theta += float64(c.theta * factor)
	phi += float64(c.phi * factor)
	phi = max(minPolar, min(math.Pi-minPolar, phi))
	radius = c.clampDistance(radius * c.scale)

	sinPhi := math.Sin(phi)
	next := mgl32.Vec3{
		float32(float64(radius) * sinPhi * math.Sin(theta)),
		float32(float64(radius) * math.Cos(phi)),
		float32(float64(radius) * sinPhi * math.Cos(theta)),
	}
	moved := next.Sub(offset).Len() > 1e-6
	cam.Position = cam.Target.Add(next)

	c.theta *= 1 - factor
	c.phi *= 1 - factor
	c.scale = 1
	return moved
}

func (c *OrbitControls) clampDistance(r float32) float32 {
	lo, hi := c.MinDistance, c.MaxDistance
	if lo <= 0 {
		lo = c.camera.Near * 2
	}
	if hi <= 0 {
		hi = c.camera.Far / 2
	}
	if hi <= lo {
		return r
	}
	return mgl32.Clamp(r, lo, hi)
}

// Dispose removes the input listeners. Safe to call more than once.
func (c *OrbitControls) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	for _, remove := range c.removers {
		remove()
	}
	c.removers = nil
}

func abs32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}

type CameraModule struct {
	Camera   *Camera
	Controls *OrbitControls
}

func (m CameraModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(m.Camera, m.Controls)
	cmd.UseSystem(System(orbitControlsSystem).InStage(Update))
}

func orbitControlsSystem(controls *OrbitControls, t *Time) {
	controls.Update(t.Dt)
}
