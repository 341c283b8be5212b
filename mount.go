package gatelab

import (
	"fmt"

	"github.com/gekko3d/gatelab/host"
)

// resolveContainer finds the element a viewer mounts on: the explicit
// selector first, then the profile's data attribute hook, then its default id.
func resolveContainer(doc host.Document, selector string, p *Profile) (host.Element, error) {
	if selector != "" {
		if el := doc.Query(selector); el != nil {
			return el, nil
		}
	}
	if p.DataHook != "" {
		if el := doc.Query("[" + p.DataHook + "]"); el != nil {
			return el, nil
		}
	}
	if p.DefaultID != "" {
		if el := doc.ElementByID(p.DefaultID); el != nil {
			return el, nil
		}
	}
	return nil, fmt.Errorf("%w: selector %q, [%s], #%s", ErrMountNotFound, selector, p.DataHook, p.DefaultID)
}

// mount is the set of elements a viewer decorates or injects into its
// container. Only injected elements are removed on teardown.
type mount struct {
	container host.Element
	canvas    host.Element
	controls  host.Element
	injected  []host.Element
}

func newMount(doc host.Document, container host.Element, p *Profile) *mount {
	m := &mount{container: container}
	container.AddClass(p.ClassPrefix + "-shell")
	m.canvas = m.ensure(doc, p.CanvasHook, p.ClassPrefix+"-viewer-canvas")
	m.controls = m.ensure(doc, p.ControlsHook, p.ClassPrefix+"-controls-panel")
	m.controls.SetStyle("display", "none")
	return m
}

// ensure reuses a pre-rendered placeholder tagged with hook, or creates one.
func (m *mount) ensure(doc host.Document, hook, class string) host.Element {
	if hook != "" {
		if el := m.container.Query("[" + hook + "]"); el != nil {
			el.AddClass(class)
			return el
		}
	}
	el := doc.CreateElement("div")
	if hook != "" {
		el.SetAttr(hook, "")
	}
	el.AddClass(class)
	m.container.AppendChild(el)
	m.injected = append(m.injected, el)
	return el
}

// inject appends el under parent and records it for removal.
func (m *mount) inject(parent, el host.Element) {
	parent.AppendChild(el)
	m.injected = append(m.injected, el)
}

func (m *mount) teardown() {
	for i := len(m.injected) - 1; i >= 0; i-- {
		m.injected[i].Remove()
	}
	m.injected = nil
}
