package gatelab

import (
	"sync"

	"github.com/gekko3d/gatelab/host"
)

// Registry tracks the live viewer of each container, so that attaching to
// an already attached container hands back the existing viewer. Containers
// are never marked; the registry owns the association.
type Registry struct {
	mu   sync.Mutex
	live map[host.Element]*Viewer
}

func NewRegistry() *Registry {
	return &Registry{live: make(map[host.Element]*Viewer)}
}

// DefaultRegistry backs the package-level Create.
var DefaultRegistry = NewRegistry()

// Lookup returns the live viewer attached to container, or nil.
func (r *Registry) Lookup(container host.Element) *Viewer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live[container]
}

// Len reports how many viewers are live.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// claim attaches v to container unless another viewer already holds it,
// in which case that viewer is returned.
func (r *Registry) claim(container host.Element, v *Viewer) *Viewer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing := r.live[container]; existing != nil {
		return existing
	}
	r.live[container] = v
	return v
}

// release detaches v. A container since claimed by another viewer is left alone.
func (r *Registry) release(container host.Element, v *Viewer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.live[container] == v {
		delete(r.live, container)
	}
}

// Create mounts a viewer per opts, or returns the viewer already attached to
// the resolved container. opts.Registry is ignored; r is used.
func (r *Registry) Create(doc host.Document, win host.Window, opts Options) (*Viewer, error) {
	p, err := opts.profile()
	if err != nil {
		return nil, err
	}
	log := opts.logger(p)

	container, err := resolveContainer(doc, opts.ContainerSelector, p)
	if err != nil {
		log.Errorf("%v", err)
		return nil, err
	}
	if existing := r.Lookup(container); existing != nil {
		log.Debugf("container already attached to viewer %s", existing.ID())
		return existing, nil
	}

	v, err := newViewer(doc, win, container, p, log, opts)
	if err != nil {
		log.Errorf("%v", err)
		return nil, err
	}
	v.registry = r
	if got := r.claim(container, v); got != v {
		v.Dispose()
		return got, nil
	}
	v.start()
	return v, nil
}

// Create mounts a viewer using opts.Registry, or DefaultRegistry when unset.
func Create(doc host.Document, win host.Window, opts Options) (*Viewer, error) {
	r := opts.Registry
	if r == nil {
		r = DefaultRegistry
	}
	return r.Create(doc, win, opts)
}
