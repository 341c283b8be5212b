package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/go-gl/mathgl/mgl32"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Label is a text tag pinned to a world position.
type Label struct {
	Text    string
	World   mgl32.Vec3
	Visible bool
}

// LabelLayer draws labels at CSS pixel size and scales the result onto the
// framebuffer, so text keeps its size at any pixel ratio.
type LabelLayer struct {
	Enabled    bool
	Face       font.Face
	Color      color.RGBA
	Background color.RGBA

	overlay *image.RGBA
}

func NewLabelLayer() *LabelLayer {
	return &LabelLayer{
		Enabled:    true,
		Face:       basicfont.Face7x13,
		Color:      color.RGBA{0xe8, 0xf1, 0xff, 0xff},
		Background: color.RGBA{0x0b, 0x10, 0x21, 0xb0},
	}
}

func (l *LabelLayer) SetSize(width, height int) {
	l.overlay = image.NewRGBA(image.Rect(0, 0, max(width, 1), max(height, 1)))
}

// Project maps a world position to overlay pixels. ok is false behind the camera.
func Project(world mgl32.Vec3, viewProj mgl32.Mat4, width, height int) (x, y int, ok bool) {
	clip := viewProj.Mul4x1(world.Vec4(1))
	if clip.W() <= 0 {
		return 0, 0, false
	}
	nx, ny := clip.X()/clip.W(), clip.Y()/clip.W()
	x = int((nx + 1) * 0.5 * float32(width))
	y = int((1 - ny) * 0.5 * float32(height))
	return x, y, true
}

// Draw composites visible labels over dst. It returns how many were drawn.
func (l *LabelLayer) Draw(dst *image.RGBA, labels []Label, viewProj mgl32.Mat4) int {
	if !l.Enabled || l.overlay == nil {
		return 0
	}
	draw.Draw(l.overlay, l.overlay.Bounds(), image.Transparent, image.Point{}, draw.Src)

	bounds := l.overlay.Bounds()
	metrics := l.Face.Metrics()
	ascent, height := metrics.Ascent.Ceil(), metrics.Height.Ceil()

	drawn := 0
	for _, lb := range labels {
		if !lb.Visible || lb.Text == "" {
			continue
		}
		x, y, ok := Project(lb.World, viewProj, bounds.Dx(), bounds.Dy())
		if !ok {
			continue
		}
		w := font.MeasureString(l.Face, lb.Text).Ceil()
		box := image.Rect(x-w/2-4, y-height-6, x+w/2+4, y-2)
		if !box.Overlaps(bounds) {
			continue
		}
		draw.Draw(l.overlay, box, image.NewUniform(l.Background), image.Point{}, draw.Over)
		d := font.Drawer{
			Dst:  l.overlay,
			Src:  image.NewUniform(l.Color),
			Face: l.Face,
			Dot:  fixed.P(box.Min.X+4, box.Min.Y+2+ascent),
		}
		d.DrawString(lb.Text)
		drawn++
	}
	if drawn == 0 {
		return 0
	}

	if dst.Bounds() == bounds {
		draw.Draw(dst, bounds, l.overlay, image.Point{}, draw.Over)
	} else {
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), l.overlay, bounds, xdraw.Over, nil)
	}
	return drawn
}
