package memhost

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/gekko3d/gatelab/host"
)

type frameRequest struct {
	id host.FrameID
	fn func()
}

type observer struct {
	el host.Element
	fn func()
}

// Window is a manually pumped event loop. Frame callbacks queue until Tick;
// posted tasks queue until Drain. Only Post may be called off the UI thread.
type Window struct {
	mu      sync.Mutex
	posted  []func()
	wake    chan struct{}
	nextID  host.FrameID
	frames  []frameRequest
	resize  []*func()
	observe []*observer

	// PixelRatio is returned by DevicePixelRatio. Defaults to 1.
	PixelRatio float64

	requested int
	ran       int
}

func NewWindow() *Window {
	return &Window{PixelRatio: 1, wake: make(chan struct{}, 1)}
}

func (w *Window) RequestFrame(fn func()) host.FrameID {
	w.nextID++
	w.frames = append(w.frames, frameRequest{id: w.nextID, fn: fn})
	w.requested++
	return w.nextID
}

func (w *Window) CancelFrame(id host.FrameID) {
	w.frames = slices.DeleteFunc(w.frames, func(r frameRequest) bool { return r.id == id })
}

func (w *Window) Post(fn func()) {
	w.mu.Lock()
	w.posted = append(w.posted, fn)
	w.mu.Unlock()
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Window) OnResize(fn func()) func() {
	h := &fn
	w.resize = append(w.resize, h)
	return func() {
		if i := slices.Index(w.resize, h); i >= 0 {
			w.resize = slices.Delete(w.resize, i, i+1)
		}
	}
}

func (w *Window) ObserveResize(el host.Element, fn func()) func() {
	o := &observer{el: el, fn: fn}
	w.observe = append(w.observe, o)
	return func() {
		if i := slices.Index(w.observe, o); i >= 0 {
			w.observe = slices.Delete(w.observe, i, i+1)
		}
	}
}

func (w *Window) DevicePixelRatio() float64 {
	if w.PixelRatio <= 0 {
		return 1
	}
	return w.PixelRatio
}

// Tick runs the frame callbacks pending at the time of the call. Callbacks
// requested while ticking wait for the next Tick. It returns how many ran.
func (w *Window) Tick() int {
	pending := w.frames
	w.frames = nil
	for _, r := range pending {
		r.fn()
	}
	w.ran += len(pending)
	return len(pending)
}

// Drain runs posted tasks until the queue is empty.
func (w *Window) Drain() int {
	n := 0
	for {
		w.mu.Lock()
		tasks := w.posted
		w.posted = nil
		w.mu.Unlock()
		if len(tasks) == 0 {
			return n
		}
		for _, fn := range tasks {
			fn()
		}
		n += len(tasks)
	}
}

// WaitPosted blocks until a task is posted or ctx ends, then drains.
func (w *Window) WaitPosted(ctx context.Context) error {
	for {
		if w.Drain() > 0 {
			return nil
		}
		select {
		case <-w.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Run pumps posted tasks and frames at the given interval until ctx ends.
func (w *Window) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		w.Drain()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.wake:
		case <-ticker.C:
			w.Tick()
		}
	}
}

// Resize changes el's size, then notifies its observers and the window
// resize listeners, as a browser layout pass would.
func (w *Window) Resize(el *Element, width, height int) {
	el.SetSize(width, height)
	for _, o := range slices.Clone(w.observe) {
		if asElement(o.el) == el {
			o.fn()
		}
	}
	for _, h := range slices.Clone(w.resize) {
		(*h)()
	}
}

// PendingFrames reports how many frame callbacks are queued.
func (w *Window) PendingFrames() int {
	return len(w.frames)
}

// FramesRequested reports the total number of RequestFrame calls.
func (w *Window) FramesRequested() int {
	return w.requested
}

// FramesRun reports the total number of frame callbacks executed.
func (w *Window) FramesRun() int {
	return w.ran
}

// Listeners reports the number of resize listeners and observers.
func (w *Window) Listeners() (resize, observers int) {
	return len(w.resize), len(w.observe)
}
