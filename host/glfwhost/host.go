// Package glfwhost runs a viewer in a desktop window. The element tree and
// the task and frame queues come from memhost; GLFW supplies the window,
// input and fullscreen, and frames are put on screen through WebGPU.
package glfwhost

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gekko3d/gatelab/host"
	"github.com/gekko3d/gatelab/host/memhost"
)

type Options struct {
	Width  int
	Height int
	Title  string

	// ContainerID is the id of the container element that fills the window.
	ContainerID string
	// ContainerAttrs are extra attributes ("name" or "name=value") set on it.
	ContainerAttrs []string
}

// Host owns one GLFW window. All of its methods must be called from the
// goroutine that called New.
type Host struct {
	Doc       *Document
	Win       *Window
	Container *memhost.Element

	window    *glfw.Window
	presenter *presenter
	canvases  []*memhost.Canvas
	keys      map[Key]func()
	onClose   []func()

	// windowed geometry restored when leaving fullscreen
	restoreX, restoreY, restoreW, restoreH int
}

// New opens a window and its WebGPU surface.
func New(opts Options) (*Host, error) {
	if opts.Width <= 0 {
		opts.Width = 1280
	}
	if opts.Height <= 0 {
		opts.Height = 720
	}
	if opts.Title == "" {
		opts.Title = "gatelab"
	}

	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(opts.Width, opts.Height, opts.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}
	pr, err := newPresenter(win)
	if err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, err
	}

	h := &Host{
		window:    win,
		presenter: pr,
		keys:      make(map[Key]func()),
	}
	h.Doc = &Document{Document: memhost.NewDocument(), host: h}
	h.Win = &Window{Window: memhost.NewWindow(), window: win}
	w, hgt := win.GetSize()
	h.Container = h.Doc.NewContainer(opts.ContainerID, w, hgt, opts.ContainerAttrs...)

	win.SetFramebufferSizeCallback(h.onFramebufferSize)
	win.SetSizeCallback(h.onSize)
	win.SetKeyCallback(h.onKey)
	win.SetCursorPosCallback(h.onCursor)
	win.SetMouseButtonCallback(h.onButton)
	win.SetScrollCallback(h.onScroll)
	return h, nil
}

// Bind runs fn when key is pressed.
func (h *Host) Bind(key Key, fn func()) {
	h.keys[key] = fn
}

// OnClose registers fn to run when the run loop ends, while the window is
// still alive.
func (h *Host) OnClose(fn func()) {
	h.onClose = append(h.onClose, fn)
}

// Close asks the run loop to stop after the current iteration.
func (h *Host) Close() {
	h.window.SetShouldClose(true)
}

// Run pumps events, posted tasks and frame callbacks until the window is
// closed or ctx ends, then releases the window.
func (h *Host) Run(ctx context.Context) error {
	defer h.destroy()
	frame := time.Second / 60
	for !h.window.ShouldClose() {
		if err := ctx.Err(); err != nil {
			return err
		}
		glfw.WaitEventsTimeout(frame.Seconds())
		h.Win.Drain()
		h.Win.Tick()
	}
	return nil
}

func (h *Host) destroy() {
	for _, fn := range h.onClose {
		fn()
	}
	h.presenter.release()
	h.window.Destroy()
	glfw.Terminate()
}

func (h *Host) present(frame *image.RGBA) error {
	return h.presenter.present(frame)
}

func (h *Host) onFramebufferSize(_ *glfw.Window, width, height int) {
	h.presenter.resize(width, height)
}

func (h *Host) onSize(_ *glfw.Window, width, height int) {
	h.Win.Resize(h.Container, width, height)
}

func (h *Host) onKey(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if action == glfw.Release {
		return
	}
	k, ok := glfwToKey[key]
	if !ok {
		return
	}
	// Arrow keys repeat; toggles fire once per press.
	if action == glfw.Repeat && k != KeyLeft && k != KeyRight {
		return
	}
	if fn := h.keys[k]; fn != nil {
		fn()
	}
}

func (h *Host) dispatch(ev host.Event) {
	for _, c := range h.canvases {
		if c.Connected() {
			c.Dispatch(ev)
		}
	}
}

func (h *Host) onCursor(_ *glfw.Window, x, y float64) {
	h.dispatch(host.Event{Type: "pointermove", X: x, Y: y})
}

func (h *Host) onButton(w *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
	b, ok := buttonToDOM[button]
	if !ok {
		return
	}
	x, y := w.GetCursorPos()
	typ := "pointerdown"
	if action == glfw.Release {
		typ = "pointerup"
	}
	h.dispatch(host.Event{Type: typ, X: x, Y: y, Button: b})
}

func (h *Host) onScroll(_ *glfw.Window, _, yoff float64) {
	h.dispatch(host.Event{Type: "wheel", DeltaY: -yoff * wheelLine})
}

func (h *Host) enterFullscreen() error {
	monitor := glfw.GetPrimaryMonitor()
	if monitor == nil {
		return fmt.Errorf("glfwhost: no primary monitor")
	}
	mode := monitor.GetVideoMode()
	h.restoreX, h.restoreY = h.window.GetPos()
	h.restoreW, h.restoreH = h.window.GetSize()
	h.window.SetMonitor(monitor, 0, 0, mode.Width, mode.Height, mode.RefreshRate)
	return nil
}

func (h *Host) leaveFullscreen() {
	if h.window.GetMonitor() == nil {
		return
	}
	h.window.SetMonitor(nil, h.restoreX, h.restoreY, h.restoreW, h.restoreH, 0)
}

// Document is a memhost document whose canvases draw into the window and
// whose fullscreen requests switch the window to the primary monitor.
type Document struct {
	*memhost.Document
	host *Host
}

func (d *Document) CreateCanvas() host.Canvas {
	c := d.Document.CreateCanvas().(*memhost.Canvas)
	c.Sink = d.host.present
	d.host.canvases = append(d.host.canvases, c)
	return c
}

func (d *Document) RequestFullscreen(el host.Element) error {
	if err := d.host.enterFullscreen(); err != nil {
		return err
	}
	return d.Document.RequestFullscreen(el)
}

func (d *Document) ExitFullscreen() error {
	d.host.leaveFullscreen()
	return d.Document.ExitFullscreen()
}

// Window reports the monitor content scale as the device pixel ratio.
type Window struct {
	*memhost.Window
	window *glfw.Window
}

func (w *Window) DevicePixelRatio() float64 {
	sx, _ := w.window.GetContentScale()
	if sx <= 0 {
		return 1
	}
	return float64(sx)
}

// Post queues fn and wakes the event wait.
func (w *Window) Post(fn func()) {
	w.Window.Post(fn)
	glfw.PostEmptyEvent()
}
