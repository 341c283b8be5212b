// Package render is a small CPU compositor: a z-buffered base pass, a bloom
// post-process and a 2D label overlay, producing an RGBA frame per call.
package render

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/gatelab/scene"
)

// MaxPixelRatio caps the framebuffer density.
const MaxPixelRatio = 2

type Composer struct {
	Background mgl32.Vec3
	Base       *BasePass
	Bloom      *BloomPass
	Labels     *LabelLayer

	width, height int
	ratio         float64
	target        *Target
	frame         *image.RGBA
	disposed      bool
}

// NewComposer sizes the compositor in CSS pixels at ratio 1.
func NewComposer(width, height int) *Composer {
	c := &Composer{
		Base:   &BasePass{},
		Bloom:  NewBloomPass(0, 0, 1),
		Labels: NewLabelLayer(),
		ratio:  1,
	}
	c.Bloom.Enabled = false
	c.SetSize(width, height)
	return c
}

// SetSize resizes every pass for a width x height CSS pixel output.
func (c *Composer) SetSize(width, height int) {
	if c.disposed {
		return
	}
	c.width, c.height = max(width, 1), max(height, 1)
	c.realloc()
}

// SetPixelRatio sets framebuffer pixels per CSS pixel, capped at MaxPixelRatio.
func (c *Composer) SetPixelRatio(ratio float64) {
	if c.disposed {
		return
	}
	if ratio <= 0 || math.IsNaN(ratio) {
		ratio = 1
	}
	c.ratio = min(ratio, MaxPixelRatio)
	c.realloc()
}

func (c *Composer) realloc() {
	w, h := c.FramebufferSize()
	if c.target == nil {
		c.target = NewTarget(w, h)
	} else {
		c.target.Resize(w, h)
	}
	c.frame = image.NewRGBA(image.Rect(0, 0, w, h))
	c.Labels.SetSize(c.width, c.height)
}

func (c *Composer) Size() (width, height int) {
	return c.width, c.height
}

func (c *Composer) PixelRatio() float64 {
	return c.ratio
}

func (c *Composer) FramebufferSize() (width, height int) {
	return max(int(float64(c.width)*c.ratio), 1), max(int(float64(c.height)*c.ratio), 1)
}

// Render draws root as seen from view and returns the composed frame. The
// frame is reused across calls. After Dispose it returns nil.
func (c *Composer) Render(root *scene.Node, view View, labels []Label) *image.RGBA {
	if c.disposed {
		return nil
	}
	c.target.Clear(c.Background)
	c.Base.Draw(c.target, root, view)
	c.Bloom.Apply(c.target)
	resolve(c.frame, c.target)
	c.Labels.Draw(c.frame, labels, view.ViewProjection())
	return c.frame
}

// resolve converts linear colour to 8-bit sRGB.
func resolve(dst *image.RGBA, t *Target) {
	for i, col := range t.Color {
		o := i * 4
		dst.Pix[o] = encode(col.X())
		dst.Pix[o+1] = encode(col.Y())
		dst.Pix[o+2] = encode(col.Z())
		dst.Pix[o+3] = 255
	}
}

func encode(v float32) uint8 {
	v = mgl32.Clamp(v, 0, 1)
	var s float64
	if v <= 0.0031308 {
		s = float64(v) * 12.92
	} else {
		s = 1.055*math.Pow(float64(v), 1/2.4) - 0.055
	}
	return uint8(s*255 + 0.5)
}

// Dispose releases the buffers. Safe to call more than once.
func (c *Composer) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	c.target = nil
	c.frame = nil
	c.Bloom.bright = nil
	c.Labels.overlay = nil
}

func (c *Composer) Disposed() bool {
	return c.disposed
}

// Linear converts an sRGB-encoded colour, such as a CSS hex, to linear.
func Linear(c mgl32.Vec3) mgl32.Vec3 {
	f := func(v float32) float32 {
		if v <= 0.04045 {
			return v / 12.92
		}
		return float32(math.Pow((float64(v)+0.055)/1.055, 2.4))
	}
	return mgl32.Vec3{f(c.X()), f(c.Y()), f(c.Z())}
}
