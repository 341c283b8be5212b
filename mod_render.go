package gatelab

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/gatelab/host"
	"github.com/gekko3d/gatelab/render"
	"github.com/gekko3d/gatelab/scene"
)

// labelAnchor pins a label to an anchor node, or to the top centre of the
// target's bounds when the model has no anchor.
type labelAnchor struct {
	text   string
	target *scene.Node
	anchor *scene.Node
}

func (a labelAnchor) world() mgl32.Vec3 {
	if a.anchor != nil {
		return a.anchor.LocalToWorld(mgl32.Vec3{})
	}
	box := scene.BoxFromNode(a.target)
	c := box.Center()
	return mgl32.Vec3{c.X(), box.Max.Y(), c.Z()}
}

// viewport is the render resource of one viewer.
type viewport struct {
	composer   *render.Composer
	canvas     host.Canvas
	scene      *scene.Node
	anchors    []labelAnchor
	showLabels bool

	labels     []render.Label
	frame      *image.RGBA
	presentErr error
}

func (vp *viewport) buildLabels() []render.Label {
	vp.labels = vp.labels[:0]
	for _, a := range vp.anchors {
		vp.labels = append(vp.labels, render.Label{
			Text:    a.text,
			World:   a.world(),
			Visible: vp.showLabels && a.target.WorldVisible(),
		})
	}
	return vp.labels
}

type renderModule struct {
	viewport *viewport
}

func (m renderModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(m.viewport)
	cmd.UseSystem(System(renderSystem).InStage(Render))
	cmd.UseSystem(System(presentSystem).InStage(PostRender))
}

func renderSystem(vp *viewport, cam *Camera) {
	if vp.scene == nil {
		vp.frame = nil
		return
	}
	vp.composer.Labels.Enabled = vp.showLabels
	vp.frame = vp.composer.Render(vp.scene, cam.RenderView(), vp.buildLabels())
}

// presentSystem logs the first failed present only; the canvas keeps its
// last good frame.
func presentSystem(vp *viewport, log *logResource) {
	if vp.frame == nil || vp.canvas == nil {
		return
	}
	if err := vp.canvas.Present(vp.frame); err != nil {
		if vp.presentErr == nil {
			log.Errorf("present frame: %v", err)
		}
		vp.presentErr = err
		return
	}
	vp.presentErr = nil
}
