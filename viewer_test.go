package gatelab

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/gatelab/host"
	"github.com/gekko3d/gatelab/host/memhost"
	"github.com/gekko3d/gatelab/internal/fixture"
	"github.com/gekko3d/gatelab/render"
	"github.com/gekko3d/gatelab/scene"
)

type harness struct {
	doc       *memhost.Document
	win       *memhost.Window
	registry  *Registry
	container *memhost.Element
	logs      *bytes.Buffer
}

func newHarness(t *testing.T, id string, attrs ...string) *harness {
	doc := memhost.NewDocument()
	return &harness{
		doc:       doc,
		win:       memhost.NewWindow(),
		registry:  NewRegistry(),
		container: doc.NewContainer(id, 320, 180, attrs...),
		logs:      &bytes.Buffer{},
	}
}

func fixtureSource(b *fixture.Builder) AssetSource {
	return SourceFunc(func(context.Context, string) (*scene.Node, error) {
		return scene.Import(b.Doc())
	})
}

func (h *harness) options(key string, src AssetSource) Options {
	return Options{
		Profile: BuiltinProfile(key),
		Logger:  NewWriterLogger(h.logs, "", true),
		Source:  src,
		Now:     func() time.Time { return time.Unix(0, 0) },
	}
}

func (h *harness) create(t *testing.T, opts Options) *Viewer {
	t.Helper()
	v, err := h.registry.Create(h.doc, h.win, opts)
	require.NoError(t, err)
	require.NotNil(t, v)
	return v
}

// settle delivers the pending load result.
func (h *harness) settle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.win.WaitPosted(ctx))
}

func (h *harness) finfet(t *testing.T) *Viewer {
	t.Helper()
	v := h.create(t, h.options("finfet", fixtureSource(fixture.FinFET(5))))
	h.settle(t)
	require.True(t, v.Loaded())
	return v
}

func litFins(v *Viewer) []int {
	return visibleGroups(v.Index(), RoleStructural)
}

func TestResolveContainerOrder(t *testing.T) {
	doc := memhost.NewDocument()
	p := BuiltinProfile("finfet")
	byID := doc.NewContainer("finfet-viewer", 10, 10)
	byHook := doc.NewContainer("", 10, 10, "data-finfet-viewer")
	explicit := doc.NewContainer("custom", 10, 10)

	got, err := resolveContainer(doc, "#custom", p)
	require.NoError(t, err)
	assert.Equal(t, host.Element(explicit), got)

	got, err = resolveContainer(doc, "#absent", p)
	require.NoError(t, err)
	assert.Equal(t, host.Element(byHook), got)

	byHook.Remove()
	got, err = resolveContainer(doc, "", p)
	require.NoError(t, err)
	assert.Equal(t, host.Element(byID), got)

	byID.Remove()
	_, err = resolveContainer(doc, "", p)
	assert.ErrorIs(t, err, ErrMountNotFound)
}

func TestCreateMountNotFound(t *testing.T) {
	h := newHarness(t, "elsewhere")
	v, err := h.registry.Create(h.doc, h.win, h.options("finfet", fixtureSource(fixture.FinFET(5))))
	assert.Nil(t, v)
	assert.ErrorIs(t, err, ErrMountNotFound)
	assert.Contains(t, h.logs.String(), "ERROR: [FinFET Viewer]")
	assert.Zero(t, h.registry.Len())

	_, err = h.registry.Create(h.doc, h.win, Options{})
	assert.ErrorIs(t, err, ErrInvalidProfile)
}

func TestCreateMountsAndLoads(t *testing.T) {
	h := newHarness(t, "finfet-viewer")
	v := h.create(t, h.options("finfet", fixtureSource(fixture.FinFET(5))))

	assert.False(t, v.Loaded())
	assert.Zero(t, h.win.FramesRequested(), "nothing renders before the model arrives")
	assert.True(t, h.container.HasClass("finfet-shell"))
	require.NotNil(t, h.container.Query(".finfet-viewer-canvas"))
	require.NotNil(t, h.container.Query(".finfet-controls-panel"))
	assert.Nil(t, h.container.Query(".finfet-fs-btn"))
	assert.NotEmpty(t, v.ID())
	assert.Equal(t, host.Element(h.container), v.Container())

	h.settle(t)
	require.True(t, v.Loaded())
	require.NoError(t, v.LoadErr())
	assert.True(t, v.Running())
	assert.Equal(t, uint64(1), v.Frames())
	assert.Equal(t, 1, h.win.PendingFrames())
	assert.Equal(t, []int{2, 3, 4}, litFins(v))

	canvas := v.Canvas().(*memhost.Canvas)
	assert.Equal(t, 1, canvas.Presents())
	require.NotNil(t, canvas.LastFrame())
	assert.Equal(t, 320, canvas.LastFrame().Bounds().Dx())

	btn := h.container.Query(".finfet-fs-btn")
	require.NotNil(t, btn)
	assert.Equal(t, "Fullscreen", btn.Text())
	assert.False(t, v.PanelVisible(), "controls stay hidden outside fullscreen")

	h.win.Tick()
	h.win.Tick()
	assert.Equal(t, uint64(3), v.Frames())
	assert.Equal(t, 3, canvas.Presents())
}

func TestCreateReusesPlaceholders(t *testing.T) {
	h := newHarness(t, "finfet-viewer")
	slot := h.doc.CreateElement("div")
	slot.SetAttr("data-finfet-canvas", "")
	h.container.AppendChild(slot)

	v := h.create(t, h.options("finfet", fixtureSource(fixture.FinFET(5))))
	assert.True(t, slot.HasClass("finfet-viewer-canvas"))
	assert.Equal(t, slot, v.Canvas().Parent())

	v.Dispose()
	assert.Equal(t, host.Element(h.container), slot.Parent(), "placeholders belong to the page")
	assert.Nil(t, h.container.Query("canvas"))
	assert.Nil(t, h.container.Query(".finfet-controls-panel"))
}

func TestDuplicateAttachReturnsSameViewer(t *testing.T) {
	h := newHarness(t, "finfet-viewer")
	v := h.finfet(t)

	again, err := h.registry.Create(h.doc, h.win, h.options("finfet", fixtureSource(fixture.FinFET(5))))
	require.NoError(t, err)
	assert.Same(t, v, again)
	assert.Same(t, v, h.registry.Lookup(h.container))
	assert.Equal(t, 1, h.registry.Len())
	assert.Equal(t, 1, h.win.PendingFrames(), "one render loop")
	assert.Len(t, h.container.Children(), 3, "canvas mount, controls mount, fullscreen button")

	v.Dispose()
	fresh := h.create(t, h.options("finfet", fixtureSource(fixture.FinFET(5))))
	assert.NotSame(t, v, fresh)
	assert.NotEqual(t, v.ID(), fresh.ID())
}

func TestLoadFailureLeavesInertViewer(t *testing.T) {
	h := newHarness(t, "finfet-viewer")
	boom := errors.New("404 not found")
	v := h.create(t, h.options("finfet", SourceFunc(func(context.Context, string) (*scene.Node, error) {
		return nil, boom
	})))
	h.settle(t)

	assert.False(t, v.Loaded())
	assert.ErrorIs(t, v.LoadErr(), ErrAssetLoad)
	assert.ErrorContains(t, v.LoadErr(), "404")
	assert.Contains(t, h.logs.String(), "models/FinFET.glb")
	assert.Zero(t, h.win.FramesRequested(), "no frame callback was ever requested")
	assert.Zero(t, v.Frames())
	assert.False(t, v.PanelVisible())
	assert.Nil(t, h.container.Query(".finfet-fs-btn"))
	assert.Error(t, v.RenderFrame())

	v.SetParameter(5)
	v.ToggleFullscreen()
	assert.Nil(t, h.doc.FullscreenElement())

	assert.NotPanics(t, v.Dispose)
	assert.True(t, v.Disposed())
	assert.Zero(t, h.registry.Len())
}

func TestDisposeTwice(t *testing.T) {
	h := newHarness(t, "finfet-viewer")
	v := h.finfet(t)
	canvas := v.Canvas().(*memhost.Canvas)

	v.Dispose()
	assert.NotPanics(t, v.Dispose)
	assert.True(t, v.Disposed())
	assert.False(t, v.Running())
	assert.Zero(t, h.win.PendingFrames())
	resize, observers := h.win.Listeners()
	assert.Zero(t, resize)
	assert.Zero(t, observers)
	assert.Zero(t, h.doc.FullscreenHandlers())
	assert.Zero(t, canvas.ListenerCount("pointerdown"))
	assert.Empty(t, h.container.Children())
	assert.False(t, canvas.Connected())
	assert.Zero(t, h.registry.Len())
	assert.ErrorIs(t, v.RenderFrame(), ErrDisposed)

	h.win.Tick()
	assert.Equal(t, 1, canvas.Presents())

	v.SetParameter(1)
	v.SetToggle(false)
	assert.Equal(t, 3.0, v.GetState().Parameter)
	assert.True(t, v.GetState().Toggle)
}

func TestDisposeBeforeLoad(t *testing.T) {
	h := newHarness(t, "finfet-viewer")
	release := make(chan struct{})
	v := h.create(t, h.options("finfet", SourceFunc(func(ctx context.Context, _ string) (*scene.Node, error) {
		<-release
		return scene.Import(fixture.FinFET(5).Doc())
	})))
	v.Dispose()
	close(release)
	h.settle(t)

	assert.False(t, v.Loaded())
	assert.Nil(t, v.Index())
	assert.Zero(t, h.win.FramesRequested())
	assert.Empty(t, h.container.Children())
}

func TestParameterDrivesActiveGroups(t *testing.T) {
	h := newHarness(t, "finfet-viewer")
	v := h.finfet(t)

	for n, want := range map[float64][]int{1: {3}, 2: {2, 4}, 3: {2, 3, 4}, 4: {1, 2, 4, 5}, 5: {1, 2, 3, 4, 5}} {
		v.SetParameter(n)
		assert.Equal(t, want, litFins(v), "n=%v", n)
		assert.Equal(t, want, visibleGroups(v.Index(), RoleEffect), "n=%v", n)
	}

	for _, x := range []float64{-4, 0, 2.2, 3.7, 12} {
		v.SetParameter(x)
		raw := litFins(v)
		v.SetParameter(v.Profile().Parameter.Clamp(x))
		assert.Equal(t, raw, litFins(v), "x=%v", x)
	}
}

func TestToggleOffHidesEffects(t *testing.T) {
	h := newHarness(t, "finfet-viewer")
	v := h.finfet(t)
	v.SetParameter(3)

	v.SetToggle(false)
	assert.False(t, v.GetState().Toggle)
	assert.Equal(t, []int{2, 3, 4}, litFins(v))
	assert.Empty(t, visibleGroups(v.Index(), RoleEffect))

	v.SetToggle(true)
	assert.Equal(t, []int{2, 3, 4}, visibleGroups(v.Index(), RoleEffect))
}

func TestResetRestoresSnapshot(t *testing.T) {
	h := newHarness(t, "finfet-viewer")
	v := h.finfet(t)
	v.SetParameter(1)
	gate := v.Index().Root.FindByName("Gate")
	gate.Visible = false
	v.Camera().Position = v.Camera().Position.Mul(4)

	v.Reset()
	assert.True(t, gate.Visible)
	assert.Equal(t, []int{3}, litFins(v))
	assert.Equal(t, 1.0, v.GetState().Parameter)
	assert.Less(t, v.Camera().Position.Sub(v.Camera().Target).Len(), float32(200))
}

func TestPanelControls(t *testing.T) {
	h := newHarness(t, "finfet-viewer")
	v := h.finfet(t)
	pn := v.panel
	require.NotNil(t, pn)
	assert.Nil(t, pn.labels)
	assert.Nil(t, pn.xray)
	assert.Equal(t, "3", pn.slider.Value())
	assert.Equal(t, "2, 3, 4 fins", pn.value.Text())
	assert.True(t, pn.toggle.Checked())

	pn.slider.SetValue("5")
	pn.slider.(*memhost.Element).Dispatch(host.Event{Type: "input"})
	assert.Equal(t, 5.0, v.GetState().Parameter)
	assert.Equal(t, "1, 2, 3, 4, 5 fins", pn.value.Text())

	pn.toggle.SetChecked(false)
	pn.toggle.(*memhost.Element).Dispatch(host.Event{Type: "change"})
	assert.False(t, v.GetState().Toggle)

	v.SetParameter(2)
	assert.Equal(t, "2", pn.slider.Value(), "setters sync the controls")
	assert.Equal(t, "2, 4 fins", pn.value.Text())

	pn.strength.SetValue("1.5")
	pn.strength.(*memhost.Element).Dispatch(host.Event{Type: "input"})
	on, strength := v.Bloom()
	assert.True(t, on)
	assert.Equal(t, 1.5, strength)
	assert.Equal(t, "1.50", pn.strengthValue.Text())

	pn.bloom.SetChecked(false)
	pn.bloom.(*memhost.Element).Dispatch(host.Event{Type: "change"})
	on, _ = v.Bloom()
	assert.False(t, on)

	v.SetBloom(true, 7)
	_, strength = v.Bloom()
	assert.Equal(t, MaxBloomStrength, strength)
	assert.True(t, pn.bloom.Checked())
	assert.Equal(t, "2.00", pn.strengthValue.Text())

	state := v.GetState()
	v.SetBloom(false, 0.3)
	assert.Equal(t, state, v.GetState(), "bloom is not view state")

	v.SetParameter(4)
	reset := h.container.Query(".finfet-reset-btn").(*memhost.Element)
	reset.Dispatch(host.Event{Type: "click"})
	assert.Equal(t, []int{1, 2, 4, 5}, litFins(v))
}

func TestPlanarViewer(t *testing.T) {
	h := newHarness(t, "", "data-mosfet-viewer")
	v := h.create(t, h.options("planar", fixtureSource(fixture.Planar())))
	h.settle(t)
	require.True(t, v.Loaded())
	assert.NotContains(t, h.logs.String(), "WARN")
	ix := v.Index()

	assert.Equal(t, "Long", v.panel.value.Text())
	require.NotNil(t, v.panel.labels)
	require.NotNil(t, v.panel.xray)
	assert.True(t, v.panel.labels.Checked())

	v.SetParameter(1)
	assert.InDelta(t, -5.4, ix.Singletons["Source"].Transform.Position.X(), 1e-5)
	assert.Equal(t, "Ultra-short", v.panel.value.Text())

	v.SetToggle(false)
	assert.True(t, ix.Singletons["LeakArrow"].Visible)
	assert.False(t, ix.Singletons["CurrentArrow"].Visible)
	v.SetParameter(0.2)
	assert.False(t, ix.Singletons["LeakArrow"].Visible)

	assert.True(t, v.SetEffect(EffectXray, true))
	assert.True(t, v.panel.xray.Checked())
	assert.InDelta(t, 0.25, ix.Singletons["Si_Substrate"].Materials()[0].Opacity, 1e-6)

	require.Len(t, v.viewport.anchors, 3)
	labels := v.viewport.buildLabels()
	assert.True(t, labels[0].Visible)
	assert.Equal(t, "Source", labels[0].Text)
	src := ix.Singletons["Source"]
	assert.InDelta(t, src.Transform.Position.X(), labels[0].World.X(), 1e-4, "labels follow their part")

	assert.True(t, v.SetEffect(EffectLabels, false))
	assert.False(t, v.viewport.buildLabels()[0].Visible)
	require.NoError(t, v.RenderFrame())
	assert.False(t, v.composer.Labels.Enabled)

	assert.False(t, BuiltinProfile("finfet").HasEffect(EffectLabels))
}

func TestSceneMismatchIsNonFatal(t *testing.T) {
	h := newHarness(t, "mosfet-viewer")
	v := h.create(t, h.options("planar", fixtureSource(fixture.FinFET(5))))
	h.settle(t)

	assert.True(t, v.Loaded())
	assert.True(t, v.Running())
	assert.Contains(t, h.logs.String(), "WARN: [MOSFET Viewer]")
	assert.Contains(t, h.logs.String(), "LeakArrow")
	assert.NotPanics(t, func() { v.SetParameter(0.9) })
}

func TestFullscreenLifecycle(t *testing.T) {
	h := newHarness(t, "finfet-viewer")
	v := h.finfet(t)
	btn := h.container.Query(".finfet-fs-btn").(*memhost.Element)

	btn.Dispatch(host.Event{Type: "click"})
	assert.True(t, v.Fullscreen())
	assert.True(t, v.PanelVisible())
	assert.Equal(t, "Exit Fullscreen", btn.Text())

	v.ToggleFullscreen()
	assert.False(t, v.Fullscreen())
	assert.False(t, v.PanelVisible())
	assert.Equal(t, "Fullscreen", btn.Text())

	h.doc.DenyFullscreen = true
	v.ToggleFullscreen()
	assert.False(t, v.Fullscreen())
	assert.True(t, v.PanelVisible(), "controls stay reachable when fullscreen is refused")
	assert.Contains(t, h.logs.String(), "fullscreen request failed")

	h.doc.DenyFullscreen = false
	v.ToggleFullscreen()
	v.Dispose()
	assert.Nil(t, h.doc.FullscreenElement())
}

func TestFullscreenRejectedLater(t *testing.T) {
	h := newHarness(t, "finfet-viewer")
	v := h.finfet(t)
	assert.False(t, v.PanelVisible())

	h.doc.RejectFullscreen = true
	v.ToggleFullscreen()
	assert.False(t, v.PanelVisible(), "nothing is known until the request settles")
	assert.NotContains(t, h.logs.String(), "fullscreen request failed")

	assert.Equal(t, 1, h.doc.SettleFullscreen())
	assert.False(t, v.Fullscreen())
	assert.True(t, v.PanelVisible())
	assert.Contains(t, h.logs.String(), "fullscreen request failed")

	v.Dispose()
	assert.Zero(t, h.doc.FullscreenHandlers())
	v.ToggleFullscreen()
	assert.Zero(t, h.doc.SettleFullscreen(), "a disposed viewer makes no requests")
}

func TestResizeFollowsContainer(t *testing.T) {
	h := newHarness(t, "finfet-viewer")
	h.win.PixelRatio = 3
	v := h.finfet(t)

	w, hgt := v.Size()
	assert.Equal(t, 320, w)
	assert.Equal(t, 180, hgt)
	fw, fh := v.composer.FramebufferSize()
	assert.Equal(t, 640, fw, "pixel ratio is capped")
	assert.Equal(t, 360, fh)

	h.win.Resize(h.container, 800, 400)
	w, hgt = v.Size()
	assert.Equal(t, 800, w)
	assert.Equal(t, 400, hgt)
	assert.InDelta(t, 2, v.Camera().Aspect, 1e-6)

	h.win.Resize(h.container, 0, 0)
	w, hgt = v.Size()
	assert.Equal(t, 800, w, "collapsed containers keep the last size")
	assert.Equal(t, 400, hgt)

	h.win.Tick()
	assert.Equal(t, 1600, v.Canvas().(*memhost.Canvas).LastFrame().Bounds().Dx())
}

func TestCreateWithoutContainerSize(t *testing.T) {
	h := newHarness(t, "finfet-viewer")
	h.container.SetSize(0, 0)
	v := h.finfet(t)
	w, hgt := v.Size()
	assert.Equal(t, 640, w)
	assert.Equal(t, 360, hgt)
}

func TestExplicitSelectorAndModelURL(t *testing.T) {
	h := newHarness(t, "finfet-viewer")
	other := h.doc.NewContainer("second", 200, 100)
	var requested string
	opts := h.options("finfet", SourceFunc(func(_ context.Context, url string) (*scene.Node, error) {
		requested = url
		return scene.Import(fixture.FinFET(5).Doc())
	}))
	opts.ContainerSelector = "#second"
	opts.ModelURL = "assets/fin.glb"

	v := h.create(t, opts)
	h.settle(t)
	assert.Equal(t, host.Element(other), v.Container())
	assert.Equal(t, "assets/fin.glb", requested)
	assert.Empty(t, h.container.Children())
}

func TestPackageCreateUsesRegistry(t *testing.T) {
	h := newHarness(t, "finfet-viewer")
	opts := h.options("finfet", fixtureSource(fixture.FinFET(5)))
	opts.Registry = h.registry
	v, err := Create(h.doc, h.win, opts)
	require.NoError(t, err)
	assert.Same(t, v, h.registry.Lookup(h.container))
	v.Dispose()
	assert.Zero(t, h.registry.Len())
}

func TestLightsFromProfile(t *testing.T) {
	lights := buildLights(BuiltinProfile("planar").Lights)
	require.Len(t, lights, 3)
	assert.Equal(t, render.LightTypeAmbient, lights[0].Type)
	assert.InDelta(t, 0.55, lights[0].Intensity, 1e-6)
	assert.Equal(t, render.LightTypeHemisphere, lights[1].Type)
	assert.Equal(t, render.LightTypeDirectional, lights[2].Type)

	lights = buildLights(LightSpec{Ambient: 1})
	assert.Len(t, lights, 1)
}
