// Package memhost is an in-memory host: a tiny element tree plus a manually
// pumped event loop. Tests drive it with Dispatch, Resize, Drain and Tick;
// headless tools drive it with Run.
package memhost

import (
	"errors"
	"image"
	"slices"
	"strings"

	"github.com/gekko3d/gatelab/host"
)

var ErrFullscreenDenied = errors.New("memhost: fullscreen request denied")

type listener struct {
	fn func(host.Event)
}

type Element struct {
	doc      *Document
	tag      string
	attrs    map[string]string
	classes  []string
	style    map[string]string
	text     string
	value    string
	checked  bool
	width    int
	height   int
	parent   *Element
	children []*Element

	// self is the value handed out for this node; a Canvas wraps its Element.
	self host.Element

	listeners map[string][]*listener
}

func (e *Element) ID() string {
	return e.attrs["id"]
}

func (e *Element) Tag() string {
	return e.tag
}

func (e *Element) Parent() host.Element {
	if e.parent == nil {
		return nil
	}
	return e.parent.self
}

func (e *Element) Children() []*Element {
	return slices.Clone(e.children)
}

func (e *Element) Query(selector string) host.Element {
	if found := e.find(selector); found != nil {
		return found.self
	}
	return nil
}

func (e *Element) find(selector string) *Element {
	for _, c := range e.children {
		if c.matches(selector) {
			return c
		}
		if found := c.find(selector); found != nil {
			return found
		}
	}
	return nil
}

func (e *Element) matches(selector string) bool {
	switch {
	case strings.HasPrefix(selector, "#"):
		return e.attrs["id"] == selector[1:]
	case strings.HasPrefix(selector, "."):
		return e.HasClass(selector[1:])
	case strings.HasPrefix(selector, "[") && strings.HasSuffix(selector, "]"):
		body := selector[1 : len(selector)-1]
		name, want, hasValue := strings.Cut(body, "=")
		got, ok := e.attrs[name]
		if !hasValue {
			return ok
		}
		return ok && got == strings.Trim(want, `"'`)
	default:
		return e.tag == selector
	}
}

func (e *Element) AppendChild(child host.Element) {
	c := asElement(child)
	if c.parent != nil {
		c.detach()
	}
	c.parent = e
	e.children = append(e.children, c)
}

func (e *Element) Remove() {
	e.detach()
}

func (e *Element) detach() {
	p := e.parent
	if p == nil {
		return
	}
	if i := slices.Index(p.children, e); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	e.parent = nil
}

// Connected reports whether e is attached to its document's body.
func (e *Element) Connected() bool {
	for c := e; c != nil; c = c.parent {
		if c == e.doc.body {
			return true
		}
	}
	return false
}

func (e *Element) AddClass(name string) {
	if !e.HasClass(name) {
		e.classes = append(e.classes, name)
	}
}

func (e *Element) HasClass(name string) bool {
	return slices.Contains(e.classes, name)
}

func (e *Element) SetAttr(name, value string) {
	e.attrs[name] = value
}

func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

func (e *Element) SetStyle(property, value string) {
	if value == "" {
		delete(e.style, property)
		return
	}
	e.style[property] = value
}

func (e *Element) Style(property string) string {
	return e.style[property]
}

func (e *Element) SetText(text string) { e.text = text }
func (e *Element) Text() string        { return e.text }

func (e *Element) SetValue(value string) { e.value = value }
func (e *Element) Value() string         { return e.value }

func (e *Element) SetChecked(checked bool) { e.checked = checked }
func (e *Element) Checked() bool           { return e.checked }

func (e *Element) Size() (int, int) {
	return e.width, e.height
}

// SetSize changes the reported client size without notifying observers.
// Use Window.Resize to simulate a layout change.
func (e *Element) SetSize(width, height int) {
	e.width, e.height = width, height
}

func (e *Element) On(event string, fn func(host.Event)) func() {
	l := &listener{fn: fn}
	e.listeners[event] = append(e.listeners[event], l)
	return func() {
		ls := e.listeners[event]
		if i := slices.Index(ls, l); i >= 0 {
			e.listeners[event] = slices.Delete(ls, i, i+1)
		}
	}
}

// Dispatch delivers an event to e's listeners synchronously.
func (e *Element) Dispatch(ev host.Event) {
	for _, l := range slices.Clone(e.listeners[ev.Type]) {
		l.fn(ev)
	}
}

// ListenerCount reports how many listeners are registered for event.
func (e *Element) ListenerCount(event string) int {
	return len(e.listeners[event])
}

// Canvas keeps every presented frame's latest copy.
type Canvas struct {
	*Element

	// Sink, when set, also receives each presented frame. A desktop host
	// uses it to put the frame on screen.
	Sink func(frame *image.RGBA) error

	last     *image.RGBA
	presents int
}

func (c *Canvas) Present(frame *image.RGBA) error {
	if c.last == nil || c.last.Bounds() != frame.Bounds() {
		c.last = image.NewRGBA(frame.Bounds())
	}
	copy(c.last.Pix, frame.Pix)
	c.presents++
	if c.Sink != nil {
		return c.Sink(c.last)
	}
	return nil
}

func (c *Canvas) LastFrame() *image.RGBA {
	return c.last
}

func (c *Canvas) Presents() int {
	return c.presents
}

type Document struct {
	body       *Element
	fullscreen *Element
	fsHandlers []*func()
	fsErrors   []*func(error)
	rejected   int

	// DenyFullscreen makes RequestFullscreen fail, as a browser does
	// without a user gesture or inside a restrictive iframe.
	DenyFullscreen bool
	// RejectFullscreen accepts requests and refuses them later, the way a
	// browser rejects the requestFullscreen promise. SettleFullscreen
	// delivers the refusals.
	RejectFullscreen bool
}

func NewDocument() *Document {
	d := &Document{}
	d.body = d.newElement("body")
	return d
}

func (d *Document) newElement(tag string) *Element {
	e := &Element{
		doc:       d,
		tag:       tag,
		attrs:     make(map[string]string),
		style:     make(map[string]string),
		listeners: make(map[string][]*listener),
	}
	e.self = e
	return e
}

func (d *Document) Body() *Element {
	return d.body
}

func (d *Document) Query(selector string) host.Element {
	if d.body.matches(selector) {
		return d.body.self
	}
	return d.body.Query(selector)
}

func (d *Document) ElementByID(id string) host.Element {
	return d.body.Query("#" + id)
}

func (d *Document) CreateElement(tag string) host.Element {
	return d.newElement(tag)
}

func (d *Document) CreateCanvas() host.Canvas {
	c := &Canvas{Element: d.newElement("canvas")}
	c.self = c
	return c
}

func (d *Document) FullscreenElement() host.Element {
	if d.fullscreen == nil {
		return nil
	}
	return d.fullscreen.self
}

func (d *Document) RequestFullscreen(el host.Element) error {
	if d.DenyFullscreen {
		return ErrFullscreenDenied
	}
	if d.RejectFullscreen {
		d.rejected++
		return nil
	}
	d.fullscreen = asElement(el)
	d.fireFullscreen()
	return nil
}

func (d *Document) ExitFullscreen() error {
	if d.fullscreen == nil {
		return nil
	}
	d.fullscreen = nil
	d.fireFullscreen()
	return nil
}

func (d *Document) OnFullscreenChange(fn func()) func() {
	h := &fn
	d.fsHandlers = append(d.fsHandlers, h)
	return func() {
		if i := slices.Index(d.fsHandlers, h); i >= 0 {
			d.fsHandlers = slices.Delete(d.fsHandlers, i, i+1)
		}
	}
}

func (d *Document) OnFullscreenError(fn func(error)) func() {
	h := &fn
	d.fsErrors = append(d.fsErrors, h)
	return func() {
		if i := slices.Index(d.fsErrors, h); i >= 0 {
			d.fsErrors = slices.Delete(d.fsErrors, i, i+1)
		}
	}
}

// SettleFullscreen delivers the refusals queued by RejectFullscreen and
// reports how many there were.
func (d *Document) SettleFullscreen() int {
	n := d.rejected
	d.rejected = 0
	for range n {
		for _, h := range slices.Clone(d.fsErrors) {
			(*h)(ErrFullscreenDenied)
		}
	}
	return n
}

// FullscreenHandlers reports the number of registered change and error
// handlers.
func (d *Document) FullscreenHandlers() int {
	return len(d.fsHandlers) + len(d.fsErrors)
}

func (d *Document) fireFullscreen() {
	for _, h := range slices.Clone(d.fsHandlers) {
		(*h)()
	}
}

func asElement(el host.Element) *Element {
	switch v := el.(type) {
	case *Element:
		return v
	case *Canvas:
		return v.Element
	}
	return nil
}

// NewContainer creates a div with the given id and data attributes, sized
// width x height, and appends it to the body.
func (d *Document) NewContainer(id string, width, height int, attrs ...string) *Element {
	el := d.newElement("div")
	if id != "" {
		el.SetAttr("id", id)
	}
	for _, a := range attrs {
		name, value, _ := strings.Cut(a, "=")
		el.SetAttr(name, value)
	}
	el.SetSize(width, height)
	d.body.AppendChild(el)
	return el
}
