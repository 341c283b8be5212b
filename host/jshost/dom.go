//go:build js && wasm

// Package jshost binds the host interfaces to a browser page through
// syscall/js.
package jshost

import (
	"errors"
	"image"
	"strings"
	"sync"
	"syscall/js"

	"github.com/gekko3d/gatelab/host"
)

var (
	ErrFullscreenUnavailable = errors.New("jshost: fullscreen is not available")
	ErrFullscreenRefused     = errors.New("jshost: fullscreen request refused")
)

// ignoreRejection keeps a refused requestFullscreen promise from being
// reported as unhandled; the refusal itself arrives as fullscreenerror.
var ignoreRejection = js.FuncOf(func(js.Value, []js.Value) any { return nil })

// nodeKey is the property that tags wrapped nodes with their wrapper id.
const nodeKey = "__gatelabNode"

// Document wraps the page document. Wrappers are cached per node so the
// same node always yields the same Element.
type Document struct {
	doc    js.Value
	mu     sync.Mutex
	nodes  map[int]host.Element
	nextID int
}

func NewDocument() *Document {
	return &Document{doc: js.Global().Get("document"), nodes: make(map[int]host.Element)}
}

func (d *Document) wrap(v js.Value) host.Element {
	if v.IsNull() || v.IsUndefined() {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if id := v.Get(nodeKey); id.Type() == js.TypeNumber {
		if el, ok := d.nodes[id.Int()]; ok {
			return el
		}
	}
	d.nextID++
	v.Set(nodeKey, d.nextID)
	var el host.Element
	e := &Element{v: v, doc: d}
	if strings.EqualFold(v.Get("tagName").String(), "canvas") {
		el = &Canvas{Element: e}
	} else {
		el = e
	}
	d.nodes[d.nextID] = el
	return el
}

func unwrap(el host.Element) js.Value {
	switch e := el.(type) {
	case *Element:
		return e.v
	case *Canvas:
		return e.v
	}
	return js.Null()
}

func (d *Document) Query(selector string) host.Element {
	return d.wrap(d.doc.Call("querySelector", selector))
}

func (d *Document) ElementByID(id string) host.Element {
	return d.wrap(d.doc.Call("getElementById", id))
}

func (d *Document) CreateElement(tag string) host.Element {
	return d.wrap(d.doc.Call("createElement", tag))
}

func (d *Document) CreateCanvas() host.Canvas {
	return d.wrap(d.doc.Call("createElement", "canvas")).(*Canvas)
}

// BaseURI is the URL relative asset paths resolve against.
func (d *Document) BaseURI() string {
	return d.doc.Get("baseURI").String()
}

func (d *Document) FullscreenElement() host.Element {
	return d.wrap(d.doc.Get("fullscreenElement"))
}

// RequestFullscreen fails at once only when the API is missing or
// disabled. Refusals such as a missing user gesture come later through
// OnFullscreenError.
func (d *Document) RequestFullscreen(el host.Element) error {
	v := unwrap(el)
	if !d.doc.Get("fullscreenEnabled").Truthy() || v.Get("requestFullscreen").Type() != js.TypeFunction {
		return ErrFullscreenUnavailable
	}
	if p := v.Call("requestFullscreen"); p.Type() == js.TypeObject && p.Get("catch").Type() == js.TypeFunction {
		p.Call("catch", ignoreRejection)
	}
	return nil
}

func (d *Document) ExitFullscreen() error {
	if d.doc.Get("fullscreenElement").IsNull() {
		return nil
	}
	d.doc.Call("exitFullscreen")
	return nil
}

func (d *Document) OnFullscreenChange(fn func()) func() {
	return listen(d.doc, "fullscreenchange", func(js.Value) { fn() })
}

func (d *Document) OnFullscreenError(fn func(error)) func() {
	return listen(d.doc, "fullscreenerror", func(js.Value) { fn(ErrFullscreenRefused) })
}

// listen adds a DOM listener and returns a remover that also releases the
// Go callback.
func listen(target js.Value, event string, fn func(js.Value)) func() {
	cb := js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) > 0 {
			fn(args[0])
		} else {
			fn(js.Undefined())
		}
		return nil
	})
	target.Call("addEventListener", event, cb)
	removed := false
	return func() {
		if removed {
			return
		}
		removed = true
		target.Call("removeEventListener", event, cb)
		cb.Release()
	}
}

type Element struct {
	v   js.Value
	doc *Document
}

func (e *Element) ID() string  { return e.v.Get("id").String() }
func (e *Element) Tag() string { return strings.ToLower(e.v.Get("tagName").String()) }

func (e *Element) Parent() host.Element {
	return e.doc.wrap(e.v.Get("parentElement"))
}

func (e *Element) Query(selector string) host.Element {
	return e.doc.wrap(e.v.Call("querySelector", selector))
}

func (e *Element) AppendChild(child host.Element) {
	e.v.Call("appendChild", unwrap(child))
}

func (e *Element) Remove() { e.v.Call("remove") }

func (e *Element) AddClass(name string) { e.v.Get("classList").Call("add", name) }
func (e *Element) HasClass(name string) bool {
	return e.v.Get("classList").Call("contains", name).Bool()
}

func (e *Element) SetAttr(name, value string) { e.v.Call("setAttribute", name, value) }
func (e *Element) Attr(name string) (string, bool) {
	if !e.v.Call("hasAttribute", name).Bool() {
		return "", false
	}
	return e.v.Call("getAttribute", name).String(), true
}

func (e *Element) SetStyle(property, value string) {
	e.v.Get("style").Call("setProperty", property, value)
}

func (e *Element) Style(property string) string {
	return e.v.Get("style").Call("getPropertyValue", property).String()
}

func (e *Element) SetText(text string) { e.v.Set("textContent", text) }
func (e *Element) Text() string        { return e.v.Get("textContent").String() }

func (e *Element) SetValue(value string) { e.v.Set("value", value) }
func (e *Element) Value() string         { return e.v.Get("value").String() }

func (e *Element) SetChecked(checked bool) { e.v.Set("checked", checked) }
func (e *Element) Checked() bool           { return e.v.Get("checked").Truthy() }

func (e *Element) Size() (int, int) {
	return e.v.Get("clientWidth").Int(), e.v.Get("clientHeight").Int()
}

func (e *Element) On(event string, fn func(host.Event)) func() {
	return listen(e.v, event, func(ev js.Value) {
		if event == "wheel" {
			ev.Call("preventDefault")
		}
		fn(toEvent(event, ev))
	})
}

func toEvent(typ string, ev js.Value) host.Event {
	out := host.Event{Type: typ}
	if ev.IsUndefined() {
		return out
	}
	num := func(name string) float64 {
		if v := ev.Get(name); v.Type() == js.TypeNumber {
			return v.Float()
		}
		return 0
	}
	out.X, out.Y = num("clientX"), num("clientY")
	out.DeltaY = num("deltaY")
	out.Button = int(num("button"))
	out.Buttons = int(num("buttons"))
	return out
}

// Canvas draws frames with putImageData on a 2D context.
type Canvas struct {
	*Element
	ctx   js.Value
	pix   js.Value
	width int
	hgt   int
}

func (c *Canvas) Present(frame *image.RGBA) error {
	b := frame.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}
	if c.ctx.IsUndefined() || c.width != w || c.hgt != h {
		c.v.Set("width", w)
		c.v.Set("height", h)
		c.ctx = c.v.Call("getContext", "2d")
		if c.ctx.IsNull() {
			return errors.New("jshost: 2d context unavailable")
		}
		c.pix = js.Global().Get("Uint8ClampedArray").New(len(frame.Pix))
		c.width, c.hgt = w, h
	}
	js.CopyBytesToJS(c.pix, frame.Pix)
	img := js.Global().Get("ImageData").New(c.pix, w, h)
	c.ctx.Call("putImageData", img, 0, 0)
	return nil
}
