//go:build js && wasm

package jshost

import (
	"syscall/js"

	"github.com/gekko3d/gatelab/host"
)

// Window wraps the page window. Frame callbacks use requestAnimationFrame
// and posted tasks re-enter the event loop through setTimeout.
type Window struct {
	win   js.Value
	funcs map[host.FrameID]js.Func
}

func NewWindow() *Window {
	return &Window{
		win:   js.Global(),
		funcs: make(map[host.FrameID]js.Func),
	}
}

func (w *Window) RequestFrame(fn func()) host.FrameID {
	var id host.FrameID
	var cb js.Func
	cb = js.FuncOf(func(this js.Value, args []js.Value) any {
		delete(w.funcs, id)
		cb.Release()
		fn()
		return nil
	})
	id = host.FrameID(w.win.Call("requestAnimationFrame", cb).Int())
	w.funcs[id] = cb
	return id
}

func (w *Window) CancelFrame(id host.FrameID) {
	cb, ok := w.funcs[id]
	if !ok {
		return
	}
	w.win.Call("cancelAnimationFrame", int(id))
	delete(w.funcs, id)
	cb.Release()
}

func (w *Window) Post(fn func()) {
	var cb js.Func
	cb = js.FuncOf(func(this js.Value, args []js.Value) any {
		cb.Release()
		fn()
		return nil
	})
	w.win.Call("setTimeout", cb, 0)
}

func (w *Window) OnResize(fn func()) func() {
	return listen(w.win, "resize", func(js.Value) { fn() })
}

// ObserveResize uses ResizeObserver when the browser has it and falls back
// to window resize events.
func (w *Window) ObserveResize(el host.Element, fn func()) func() {
	ctor := w.win.Get("ResizeObserver")
	if ctor.Type() != js.TypeFunction {
		return w.OnResize(fn)
	}
	cb := js.FuncOf(func(this js.Value, args []js.Value) any {
		fn()
		return nil
	})
	obs := ctor.New(cb)
	obs.Call("observe", unwrap(el))
	done := false
	return func() {
		if done {
			return
		}
		done = true
		obs.Call("disconnect")
		cb.Release()
	}
}

func (w *Window) DevicePixelRatio() float64 {
	if r := w.win.Get("devicePixelRatio"); r.Type() == js.TypeNumber && r.Float() > 0 {
		return r.Float()
	}
	return 1
}
