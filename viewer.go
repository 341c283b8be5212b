package gatelab

import (
	"context"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/gekko3d/gatelab/host"
	"github.com/gekko3d/gatelab/render"
	"github.com/gekko3d/gatelab/scene"
)

const (
	defaultWidth     = 640
	defaultHeight    = 360
	MaxBloomStrength = 2.0
)

// Options configures Create. Profile is required.
type Options struct {
	Profile           *Profile
	ContainerSelector string
	// ModelURL overrides the profile's model.
	ModelURL string
	Logger   Logger
	Source   AssetSource
	Registry *Registry
	// Now overrides the frame clock.
	Now func() time.Time
}

func (o Options) profile() (*Profile, error) {
	if o.Profile == nil {
		return nil, fmt.Errorf("%w: no profile", ErrInvalidProfile)
	}
	if err := o.Profile.Validate(); err != nil {
		return nil, err
	}
	return o.Profile.Clone(), nil
}

func (o Options) logger(p *Profile) Logger {
	if o.Logger != nil {
		return WithPrefix(o.Logger, p.LogPrefix)
	}
	return NewDefaultLogger(p.LogPrefix, false)
}

// Viewer is one live viewer attached to a container. All methods must be
// called from the host's UI thread.
type Viewer struct {
	id       uuid.UUID
	profile  *Profile
	log      Logger
	doc      host.Document
	win      host.Window
	registry *Registry
	source   AssetSource
	modelURL string

	mount    *mount
	canvas   host.Canvas
	fsButton host.Element
	panel    *panel

	app      *App
	loop     *Loop
	camera   *Camera
	orbit    *OrbitControls
	composer *render.Composer
	viewport *viewport
	rules    []compiledRule
	store    *stateStore
	binder   *Binder
	index    *SceneIndex

	width, height int
	cancel        context.CancelFunc
	removers      []func()
	loaded        bool
	loadErr       error
	disposed      bool
}

func newViewer(doc host.Document, win host.Window, container host.Element, p *Profile, log Logger, opts Options) (*Viewer, error) {
	rules, err := p.compileRules()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	binder, err := NewBinder(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	bg, err := scene.ParseHex(p.Background)
	if err != nil {
		bg = mgl32.Vec3{}
	}

	v := &Viewer{
		id:       uuid.New(),
		profile:  p,
		log:      log,
		doc:      doc,
		win:      win,
		source:   opts.Source,
		modelURL: opts.ModelURL,
		rules:    rules,
		binder:   binder,
		store:    newStateStore(p),
		width:    defaultWidth,
		height:   defaultHeight,
	}
	if v.source == nil {
		v.source = DefaultSource()
	}
	if v.modelURL == "" {
		v.modelURL = p.ModelURL
	}
	v.store.refresh = v.refresh

	v.mount = newMount(doc, container, p)
	v.canvas = doc.CreateCanvas()
	v.canvas.AddClass(p.ClassPrefix + "-canvas")
	v.canvas.SetStyle("width", "100%")
	v.canvas.SetStyle("height", "100%")
	v.mount.inject(v.mount.canvas, v.canvas)

	v.composer = render.NewComposer(v.width, v.height)
	v.composer.Background = render.Linear(bg)
	v.composer.Base.Lights = buildLights(p.Lights)
	v.composer.Bloom = render.NewBloomPass(float32(p.Bloom.Strength), float32(p.Bloom.Radius), float32(p.Bloom.Threshold))
	v.composer.Bloom.Enabled = p.Bloom.Enabled

	v.camera = NewCamera(p.Camera, float32(v.width)/float32(v.height))
	v.orbit = NewOrbitControls(v.camera, v.canvas, func() int {
		_, h := v.canvas.Size()
		if h <= 0 {
			h = v.height
		}
		return h
	})
	if p.Camera.Damping > 0 {
		v.orbit.Damping = float32(p.Camera.Damping)
	}

	v.viewport = &viewport{composer: v.composer, canvas: v.canvas, showLabels: v.store.state.Effects[EffectLabels]}
	v.app = NewAppBuilder().
		UseModule(LoggingModule{Logger: log}).
		UseModule(TimeModule{Now: opts.Now}).
		UseModule(CameraModule{Camera: v.camera, Controls: v.orbit}).
		UseModule(renderModule{viewport: v.viewport}).
		Build()
	v.loop = NewLoop(win, v.app.Step)
	return v, nil
}

func buildLights(ls LightSpec) []render.Light {
	white := mgl32.Vec3{1, 1, 1}
	lights := []render.Light{{Type: render.LightTypeAmbient, Color: white, Intensity: float32(ls.Ambient)}}
	if ls.Hemi > 0 {
		sky, err := scene.ParseHex(ls.HemiSky)
		if err != nil {
			sky = white
		}
		ground, err := scene.ParseHex(ls.HemiGround)
		if err != nil {
			ground = mgl32.Vec3{}
		}
		lights = append(lights, render.Light{
			Type:      render.LightTypeHemisphere,
			Color:     render.Linear(sky),
			Ground:    render.Linear(ground),
			Intensity: float32(ls.Hemi),
		})
	}
	if ls.Directional > 0 {
		lights = append(lights, render.Light{
			Type:      render.LightTypeDirectional,
			Color:     white,
			Intensity: float32(ls.Directional),
			Position:  vec3(ls.DirectionalPosition),
		})
	}
	return lights
}

// start sizes the viewer, arms the resize listeners and begins the load.
// The render loop is armed only by a successful load.
func (v *Viewer) start() {
	v.resize()
	v.removers = append(v.removers,
		v.win.ObserveResize(v.mount.container, v.resize),
		v.win.OnResize(v.resize),
	)

	ctx, cancel := context.WithCancel(context.Background())
	v.cancel = cancel
	v.log.Debugf("loading %s", v.modelURL)
	loadAsset(ctx, v.win, v.source, v.modelURL, v.onLoaded)
}

func (v *Viewer) onLoaded(root *scene.Node, err error) {
	if v.disposed {
		return
	}
	if err != nil {
		v.loadErr = fmt.Errorf("%w: %s: %v", ErrAssetLoad, v.modelURL, err)
		v.log.Errorf("%v", v.loadErr)
		return
	}

	target := root
	if v.profile.RootName != "" {
		if n := root.FindByName(v.profile.RootName); n != nil {
			target = n
		}
	}
	v.index = Index(target, v.rules)
	if err := v.index.Check(v.profile); err != nil {
		v.log.Warnf("%v", err)
	}
	v.log.Debugf("indexed %d nodes, %d groups, %d singletons", v.index.Visited(), len(v.index.Groups), len(v.index.Singletons))

	for _, ls := range v.profile.Labels {
		n := v.index.Singletons[ls.Node]
		if n == nil {
			n = target.FindByName(ls.Node)
		}
		if n == nil {
			continue
		}
		a := labelAnchor{text: ls.Text, target: n}
		if ls.Anchor != "" {
			a.anchor = target.FindByName(ls.Anchor)
		}
		v.viewport.anchors = append(v.viewport.anchors, a)
	}
	v.viewport.scene = root

	v.loaded = true
	v.refresh(v.store.Get())
	v.frame()

	v.panel = newPanel(v.doc, v.mount, v)
	v.fsButton = v.doc.CreateElement("button")
	v.fsButton.AddClass(v.profile.ClassPrefix + "-fs-btn")
	v.fsButton.SetText("Fullscreen")
	v.mount.inject(v.mount.container, v.fsButton)
	v.removers = append(v.removers,
		v.fsButton.On("click", func(host.Event) { v.ToggleFullscreen() }),
		v.doc.OnFullscreenChange(v.onFullscreenChange),
		v.doc.OnFullscreenError(v.onFullscreenError),
	)

	v.loop.Start()
}

// frame fits the camera to the model as currently posed.
func (v *Viewer) frame() {
	if v.index == nil {
		return
	}
	FitCamera(v.camera, scene.BoxFromNode(v.index.Root), v.profile.Camera)
}

// refresh re-applies s to the scene. Before a load completes it only
// records the label setting.
func (v *Viewer) refresh(s ViewState) {
	v.viewport.showLabels = s.Effects[EffectLabels]
	if v.disposed {
		return
	}
	v.binder.Refresh(v.index, s)
}

func (v *Viewer) ID() string {
	return v.id.String()
}

func (v *Viewer) Profile() *Profile {
	return v.profile
}

// Container returns the element the viewer is mounted on.
func (v *Viewer) Container() host.Element {
	return v.mount.container
}

// Canvas returns the canvas frames are presented to.
func (v *Viewer) Canvas() host.Canvas {
	return v.canvas
}

// SetParameter clamps x into the parameter range and re-applies the state.
func (v *Viewer) SetParameter(x float64) {
	if v.disposed {
		return
	}
	v.store.SetParameter(x)
}

func (v *Viewer) SetToggle(on bool) {
	if v.disposed {
		return
	}
	v.store.SetToggle(on)
}

// SetEffect switches an optional visual aid. It reports false when the
// profile does not offer e or the viewer is disposed.
func (v *Viewer) SetEffect(e Effect, on bool) bool {
	if v.disposed {
		return false
	}
	return v.store.SetEffect(e, on)
}

// GetState returns a copy of the current view state.
func (v *Viewer) GetState() ViewState {
	return v.store.Get()
}

// SetBloom sets the cosmetic glow pass. Strength is clamped to [0, MaxBloomStrength].
func (v *Viewer) SetBloom(enabled bool, strength float64) {
	if v.disposed {
		return
	}
	if math.IsNaN(strength) {
		strength = 0
	}
	strength = max(0, min(MaxBloomStrength, strength))
	v.composer.Bloom.Enabled = enabled
	v.composer.Bloom.Strength = float32(strength)
	if v.panel != nil {
		v.panel.syncBloom(enabled, strength)
	}
}

func (v *Viewer) Bloom() (enabled bool, strength float64) {
	return v.composer.Bloom.Enabled, float64(v.composer.Bloom.Strength)
}

// Reset restores the visibility recorded at load, re-applies the current
// state and re-frames the camera.
func (v *Viewer) Reset() {
	if v.disposed || v.index == nil {
		return
	}
	v.index.RestoreVisibility()
	v.binder.Refresh(v.index, v.store.Get())
	v.frame()
}

// Loaded reports whether the model finished loading.
func (v *Viewer) Loaded() bool {
	return v.loaded
}

// LoadErr returns the load failure, wrapping ErrAssetLoad, or nil.
func (v *Viewer) LoadErr() error {
	return v.loadErr
}

// Frames reports how many frames the render loop has run.
func (v *Viewer) Frames() uint64 {
	return v.loop.Frames()
}

// Running reports whether the render loop is active.
func (v *Viewer) Running() bool {
	return v.loop.Running()
}

// Index returns the scene index, nil until loaded.
func (v *Viewer) Index() *SceneIndex {
	return v.index
}

// Camera exposes the viewer camera.
func (v *Viewer) Camera() *Camera {
	return v.camera
}

// RenderFrame renders and presents one frame outside the loop, for
// headless snapshots. It fails until the model has loaded.
func (v *Viewer) RenderFrame() error {
	if v.disposed {
		return ErrDisposed
	}
	if !v.loaded {
		if v.loadErr != nil {
			return v.loadErr
		}
		return fmt.Errorf("%w: model not loaded", ErrAssetLoad)
	}
	v.app.Step()
	return v.viewport.presentErr
}

// LastFrame returns the most recently rendered frame.
func (v *Viewer) LastFrame() *image.RGBA {
	return v.viewport.frame
}
