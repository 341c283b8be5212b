package gatelab

import (
	"fmt"
)

// resize matches the output to the container. A container that reports no
// size keeps the previous dimensions.
func (v *Viewer) resize() {
	if v.disposed {
		return
	}
	w, h := v.mount.container.Size()
	if w <= 0 || h <= 0 {
		w, h = v.width, v.height
	}
	v.width, v.height = w, h
	v.composer.SetPixelRatio(v.win.DevicePixelRatio())
	v.composer.SetSize(w, h)
	v.camera.SetSize(w, h)
}

// Size reports the output size in CSS pixels.
func (v *Viewer) Size() (width, height int) {
	return v.width, v.height
}

// Fullscreen reports whether the container is the fullscreen element.
func (v *Viewer) Fullscreen() bool {
	fs := v.doc.FullscreenElement()
	return fs != nil && fs == v.mount.container
}

// ToggleFullscreen enters or leaves fullscreen on the container. A refused
// request, reported now or later, is logged and the control panel is shown
// instead.
func (v *Viewer) ToggleFullscreen() {
	if v.disposed || !v.loaded {
		return
	}
	if v.Fullscreen() {
		if err := v.doc.ExitFullscreen(); err != nil {
			v.log.Errorf("%v", fmt.Errorf("%w: exit: %v", ErrFullscreen, err))
		}
		return
	}
	if err := v.doc.RequestFullscreen(v.mount.container); err != nil {
		v.onFullscreenError(err)
	}
}

// onFullscreenError handles a refused request, whether the host refused at
// once or later.
func (v *Viewer) onFullscreenError(err error) {
	if v.disposed {
		return
	}
	v.log.Errorf("%v", fmt.Errorf("%w: %v", ErrFullscreen, err))
	v.showPanel(true)
}

func (v *Viewer) onFullscreenChange() {
	if v.disposed {
		return
	}
	fs := v.Fullscreen()
	v.showPanel(fs)
	if fs {
		v.fsButton.SetText("Exit Fullscreen")
	} else {
		v.fsButton.SetText("Fullscreen")
	}
	v.resize()
}

func (v *Viewer) showPanel(visible bool) {
	if visible {
		v.mount.controls.SetStyle("display", "")
	} else {
		v.mount.controls.SetStyle("display", "none")
	}
}

// PanelVisible reports whether the control panel is shown.
func (v *Viewer) PanelVisible() bool {
	return v.mount.controls.Style("display") != "none"
}

// Dispose stops the loop, cancels a pending load, removes every listener and
// injected element and frees the render buffers. The container is released
// so a later Create builds a fresh viewer. Calling it again does nothing.
func (v *Viewer) Dispose() {
	if v.disposed {
		return
	}
	v.disposed = true
	if v.cancel != nil {
		v.cancel()
	}
	v.loop.Stop()

	for _, remove := range v.removers {
		remove()
	}
	v.removers = nil
	if v.panel != nil {
		v.panel.dispose()
	}
	v.orbit.Dispose()
	v.composer.Dispose()
	v.viewport.scene = nil
	v.viewport.frame = nil

	if v.Fullscreen() {
		if err := v.doc.ExitFullscreen(); err != nil {
			v.log.Debugf("exit fullscreen on dispose: %v", err)
		}
	}
	v.mount.teardown()
	if v.registry != nil {
		v.registry.release(v.mount.container, v)
	}
	v.log.Debugf("viewer %s disposed", v.id)
}

func (v *Viewer) Disposed() bool {
	return v.disposed
}
