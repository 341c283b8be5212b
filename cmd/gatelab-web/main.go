//go:build js && wasm

// Command gatelab-web is the browser build. It mounts a viewer on every
// container the built-in profiles recognise and exposes gatelab.create to
// page scripts for explicit mounts.
package main

import (
	"errors"
	"syscall/js"

	"github.com/gekko3d/gatelab"
	"github.com/gekko3d/gatelab/host/jshost"
)

var (
	doc = jshost.NewDocument()
	win = jshost.NewWindow()
	log = gatelab.NewDefaultLogger("", false)

	// models are fetched relative to the page, never from a filesystem
	source = gatelab.HTTPSource{Base: doc.BaseURI()}
)

func main() {
	api := js.Global().Get("Object").New()
	api.Set("create", js.FuncOf(create))
	api.Set("profiles", js.FuncOf(func(js.Value, []js.Value) any {
		keys := gatelab.ProfileKeys(gatelab.BuiltinProfiles())
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = k
		}
		return out
	}))
	js.Global().Set("gatelab", api)

	autoMount()
	select {}
}

// autoMount attaches each built-in profile whose hook or default id is
// present in the page.
func autoMount() {
	for _, key := range gatelab.ProfileKeys(gatelab.BuiltinProfiles()) {
		p := gatelab.BuiltinProfile(key)
		hooked := p.DataHook != "" && doc.Query("["+p.DataHook+"]") != nil
		if !hooked && (p.DefaultID == "" || doc.ElementByID(p.DefaultID) == nil) {
			continue
		}
		if _, err := gatelab.Create(doc, win, gatelab.Options{Profile: p, Logger: log, Source: source}); err != nil {
			log.Errorf("auto mount %s: %v", key, err)
		}
	}
}

// create(options) accepts {profile, selector, model, debug} and returns a
// handle object, or null when no container was found.
func create(_ js.Value, args []js.Value) any {
	opts := js.Undefined()
	if len(args) > 0 {
		opts = args[0]
	}
	str := func(name string) string {
		if opts.Type() != js.TypeObject {
			return ""
		}
		if v := opts.Get(name); v.Type() == js.TypeString {
			return v.String()
		}
		return ""
	}

	key := str("profile")
	if key == "" {
		key = "finfet"
	}
	p := gatelab.BuiltinProfile(key)
	if p == nil {
		log.Errorf("unknown profile %q", key)
		return js.Null()
	}
	l := log
	if opts.Type() == js.TypeObject && opts.Get("debug").Truthy() {
		l = gatelab.NewDefaultLogger("", true)
	}

	v, err := gatelab.Create(doc, win, gatelab.Options{
		Profile:           p,
		ContainerSelector: str("selector"),
		ModelURL:          str("model"),
		Logger:            l,
		Source:            source,
	})
	if err != nil {
		if !errors.Is(err, gatelab.ErrMountNotFound) {
			log.Errorf("%v", err)
		}
		return js.Null()
	}
	return handle(v)
}

func handle(v *gatelab.Viewer) js.Value {
	h := js.Global().Get("Object").New()
	method := func(name string, fn func(args []js.Value) any) {
		h.Set(name, js.FuncOf(func(_ js.Value, args []js.Value) any { return fn(args) }))
	}
	arg := func(args []js.Value, i int) js.Value {
		if i < len(args) {
			return args[i]
		}
		return js.Undefined()
	}

	h.Set("id", v.ID())
	method("setParameter", func(args []js.Value) any {
		if a := arg(args, 0); a.Type() == js.TypeNumber {
			v.SetParameter(a.Float())
		}
		return nil
	})
	method("setToggle", func(args []js.Value) any {
		v.SetToggle(arg(args, 0).Truthy())
		return nil
	})
	method("setEffect", func(args []js.Value) any {
		name := arg(args, 0)
		if name.Type() != js.TypeString {
			return false
		}
		return v.SetEffect(gatelab.Effect(name.String()), arg(args, 1).Truthy())
	})
	method("setBloom", func(args []js.Value) any {
		_, strength := v.Bloom()
		if a := arg(args, 1); a.Type() == js.TypeNumber {
			strength = a.Float()
		}
		v.SetBloom(arg(args, 0).Truthy(), strength)
		return nil
	})
	method("getState", func([]js.Value) any {
		s := v.GetState()
		effects := map[string]any{}
		for e, on := range s.Effects {
			effects[string(e)] = on
		}
		return map[string]any{
			"toggle":    s.Toggle,
			"parameter": s.Parameter,
			"effects":   effects,
		}
	})
	method("reset", func([]js.Value) any {
		v.Reset()
		return nil
	})
	method("toggleFullscreen", func([]js.Value) any {
		v.ToggleFullscreen()
		return nil
	})
	method("dispose", func([]js.Value) any {
		v.Dispose()
		return nil
	})
	return h
}
