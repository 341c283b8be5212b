package render

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/blur"
	"github.com/go-gl/mathgl/mgl32"
)

// BloomPass adds a blurred copy of the bright parts of the frame back onto
// it. Radius is relative: 1 spreads glow over a twelfth of the shorter
// framebuffer side.
type BloomPass struct {
	Enabled   bool
	Strength  float32
	Radius    float32
	Threshold float32

	bright *image.RGBA
}

func NewBloomPass(strength, radius, threshold float32) *BloomPass {
	return &BloomPass{Enabled: true, Strength: strength, Radius: radius, Threshold: threshold}
}

func luminance(c mgl32.Vec3) float32 {
	return 0.2126*c.X() + 0.7152*c.Y() + 0.0722*c.Z()
}

// Apply blooms t in place. It is a no-op when disabled or at zero strength.
func (b *BloomPass) Apply(t *Target) {
	if !b.Enabled || b.Strength <= 0 {
		return
	}
	rect := image.Rect(0, 0, t.Width, t.Height)
	if b.bright == nil || b.bright.Bounds() != rect {
		b.bright = image.NewRGBA(rect)
	}

	lit := false
	for i, c := range t.Color {
		l := luminance(c)
		o := i * 4
		if l <= b.Threshold {
			b.bright.Pix[o], b.bright.Pix[o+1], b.bright.Pix[o+2], b.bright.Pix[o+3] = 0, 0, 0, 255
			continue
		}
		k := (l - b.Threshold) / l
		b.bright.SetRGBA(i%t.Width, i/t.Width, toRGBA(c.Mul(k)))
		lit = true
	}
	if !lit {
		return
	}

	radius := float64(b.Radius) * float64(min(t.Width, t.Height)) / 12
	if radius < 1 {
		radius = 1
	}
	glow := blur.Gaussian(b.bright, radius)

	for i := range t.Color {
		o := i * 4
		add := mgl32.Vec3{
			float32(glow.Pix[o]) / 255,
			float32(glow.Pix[o+1]) / 255,
			float32(glow.Pix[o+2]) / 255,
		}
		t.Color[i] = t.Color[i].Add(add.Mul(b.Strength))
	}
}

func toRGBA(c mgl32.Vec3) color.RGBA {
	return color.RGBA{
		R: uint8(mgl32.Clamp(c.X(), 0, 1)*255 + 0.5),
		G: uint8(mgl32.Clamp(c.Y(), 0, 1)*255 + 0.5),
		B: uint8(mgl32.Clamp(c.Z(), 0, 1)*255 + 0.5),
		A: 255,
	}
}
