// Package host declares the environment a viewer is mounted into: a small
// DOM-like element tree, a canvas that accepts rendered frames, and a
// single-threaded window event loop.
//
// Every callback registered through these interfaces runs on the host's UI
// thread, one at a time. Work started elsewhere (asset loading) re-enters the
// UI thread through Window.Post.
package host

import (
	"image"
)

// Event carries the payload of pointer, wheel and input events.
type Event struct {
	Type    string
	X, Y    float64
	DeltaY  float64
	Button  int
	Buttons int
}

// Element is a node of the host document. Implementations must return the
// same Element value for the same underlying node so that elements can be
// compared and used as map keys.
type Element interface {
	ID() string
	Tag() string
	Parent() Element

	// Query returns the first descendant matching selector, or nil.
	// Supported selectors: "#id", ".class", "[attr]", "[attr=value]", "tag".
	Query(selector string) Element
	AppendChild(child Element)
	Remove()

	AddClass(name string)
	HasClass(name string) bool
	SetAttr(name, value string)
	Attr(name string) (string, bool)
	SetStyle(property, value string)
	Style(property string) string
	SetText(text string)
	Text() string

	// Value and Checked mirror form control state.
	SetValue(value string)
	Value() string
	SetChecked(checked bool)
	Checked() bool

	// Size reports the client size in CSS pixels; zero when not laid out.
	Size() (width, height int)

	// On registers a listener and returns its remover.
	On(event string, fn func(Event)) (remove func())
}

// Canvas is an element that displays rendered frames.
type Canvas interface {
	Element
	Present(frame *image.RGBA) error
}

type Document interface {
	Query(selector string) Element
	ElementByID(id string) Element
	CreateElement(tag string) Element
	CreateCanvas() Canvas

	FullscreenElement() Element
	// RequestFullscreen reports a refusal it can detect immediately.
	// Refusals decided later reach OnFullscreenError handlers; success is
	// announced by a fullscreen change.
	RequestFullscreen(el Element) error
	ExitFullscreen() error
	OnFullscreenChange(fn func()) (remove func())
	OnFullscreenError(fn func(error)) (remove func())
}

type FrameID uint64

type Window interface {
	RequestFrame(fn func()) FrameID
	CancelFrame(id FrameID)
	// Post queues fn to run on the UI thread. Safe to call from any goroutine.
	Post(fn func())

	OnResize(fn func()) (remove func())
	ObserveResize(el Element, fn func()) (disconnect func())
	DevicePixelRatio() float64
}
