package gatelab

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/gatelab/internal/fixture"
	"github.com/gekko3d/gatelab/scene"
)

func importFixture(t *testing.T, b *fixture.Builder) *scene.Node {
	t.Helper()
	root, err := scene.Import(b.Doc())
	require.NoError(t, err)
	return root
}

func indexFor(t *testing.T, p *Profile, root *scene.Node) *SceneIndex {
	t.Helper()
	rules, err := p.compileRules()
	require.NoError(t, err)
	return Index(root, rules)
}

// nodeState captures what the binder is allowed to change.
type nodeState struct {
	visible   bool
	transform scene.Transform
	materials []scene.MaterialSnapshot
}

func captureScene(root *scene.Node) map[*scene.Node]nodeState {
	out := make(map[*scene.Node]nodeState)
	root.Traverse(func(n *scene.Node) {
		out[n] = nodeState{visible: n.Visible, transform: n.Transform, materials: scene.SnapshotNode(n)}
	})
	return out
}

func visibleGroups(ix *SceneIndex, role Role) []int {
	var lit []int
	for _, idx := range ix.GroupIndices() {
		g := ix.Groups[idx]
		nodes := g.Structural
		if role == RoleEffect {
			nodes = g.Effects
		}
		for _, n := range nodes {
			if n.Visible {
				lit = append(lit, idx)
				break
			}
		}
	}
	return lit
}

func TestActiveSetTable(t *testing.T) {
	want := map[int][]int{
		1: {3},
		2: {2, 4},
		3: {2, 3, 4},
		4: {1, 2, 4, 5},
		5: {1, 2, 3, 4, 5},
	}
	for n, set := range want {
		assert.Equal(t, set, ActiveSet(n, 5), "n=%d", n)
	}
	assert.Equal(t, []int{3}, ActiveSet(0, 5))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ActiveSet(8, 5))
	assert.Equal(t, []int{1, 3}, ActiveSet(2, 3))
	assert.Nil(t, ActiveSet(3, 0))
}

func TestIndexClassifiesFinFET(t *testing.T) {
	p := BuiltinProfile("finfet")
	root := importFixture(t, fixture.FinFET(5))
	ix := indexFor(t, p, root)

	assert.Equal(t, []int{1, 2, 3, 4, 5}, ix.GroupIndices())
	for i := 1; i <= 5; i++ {
		g := ix.Groups[i]
		require.Len(t, g.Structural, 1)
		assert.Equal(t, fmt.Sprintf("Fin_%d", i), g.Structural[0].Name)
		assert.Len(t, g.Effects, 2, "FinGlow and GateOxide")
		require.Len(t, g.Indicators, 1)
		role, ok := ix.RoleOf(g.Indicators[0])
		assert.True(t, ok)
		assert.Equal(t, RoleIndicator, role)
	}

	gate := root.FindByName("Gate")
	_, ok := ix.RoleOf(gate)
	assert.False(t, ok, "unmatched names are ignored")
	visible, ok := ix.OriginalVisibility(gate)
	assert.True(t, ok)
	assert.True(t, visible)

	count := 0
	root.Traverse(func(*scene.Node) { count++ })
	assert.Equal(t, count, ix.Visited())
	assert.Len(t, ix.Classified(), 20)
	assert.NoError(t, ix.Check(p))
}

func TestIndexFirstRuleWins(t *testing.T) {
	p := BuiltinProfile("finfet")
	p.Rules = append([]Rule{{Pattern: `^Fin(?:Glow)?_(\d+)$`, Role: RoleStructural}}, p.Rules...)
	ix := indexFor(t, p, importFixture(t, fixture.FinFET(5)))
	assert.Len(t, ix.Groups[3].Structural, 2)
	assert.Len(t, ix.Groups[3].Effects, 1)
}

func TestIndexReportsMismatch(t *testing.T) {
	planar := BuiltinProfile("planar")
	ix := indexFor(t, planar, importFixture(t, fixture.FinFET(5)))
	err := ix.Check(planar)
	require.ErrorIs(t, err, ErrSceneMismatch)
	assert.Contains(t, err.Error(), "Si_Substrate")
	assert.NotContains(t, err.Error(), "Gate,", "the FinFET model has a Gate")

	finfet := BuiltinProfile("finfet")
	ix = indexFor(t, finfet, importFixture(t, fixture.Planar()))
	assert.ErrorContains(t, ix.Check(finfet), "structural nodes")
}

func TestBinderActiveGroupsAndEffects(t *testing.T) {
	p := BuiltinProfile("finfet")
	ix := indexFor(t, p, importFixture(t, fixture.FinFET(5)))
	b, err := NewBinder(p)
	require.NoError(t, err)

	for n, want := range map[int][]int{1: {3}, 2: {2, 4}, 3: {2, 3, 4}, 4: {1, 2, 4, 5}, 5: {1, 2, 3, 4, 5}} {
		s := ViewState{Toggle: true, Parameter: float64(n)}
		b.Refresh(ix, s)
		assert.Equal(t, want, visibleGroups(ix, RoleStructural), "structural n=%d", n)
		assert.Equal(t, want, visibleGroups(ix, RoleEffect), "effects n=%d", n)

		s.Toggle = false
		b.Refresh(ix, s)
		assert.Equal(t, want, visibleGroups(ix, RoleStructural), "structural stays with toggle off, n=%d", n)
		assert.Empty(t, visibleGroups(ix, RoleEffect), "effects hide with toggle off, n=%d", n)
		for _, g := range ix.Groups {
			for _, ind := range g.Indicators {
				assert.False(t, ind.Visible)
			}
		}
	}
}

func TestBinderGlowFollowsToggle(t *testing.T) {
	p := BuiltinProfile("planar")
	root := importFixture(t, fixture.Planar())
	ix := indexFor(t, p, root)
	b, _ := NewBinder(p)
	channel := root.FindByName("Channel").Materials()[0]
	before := channel.Snapshot()

	b.Refresh(ix, ViewState{Toggle: true})
	assert.InDelta(t, 1.35, channel.EmissiveIntensity, 1e-6)
	assert.NotEqual(t, before.Emissive, channel.Emissive)

	b.Refresh(ix, ViewState{Toggle: false})
	assert.Equal(t, before, channel.Snapshot())

	finfet := BuiltinProfile("finfet")
	froot := importFixture(t, fixture.FinFET(5))
	fix := indexFor(t, finfet, froot)
	fb, _ := NewBinder(finfet)
	fb.Refresh(fix, ViewState{Toggle: false, Parameter: 3})
	glow := froot.FindByName("FinGlow_3")
	assert.False(t, glow.Visible)
	assert.InDelta(t, 1.6, glow.Materials()[0].EmissiveIntensity, 1e-6)
}

func TestBinderRefreshIsIdempotent(t *testing.T) {
	for _, key := range []string{"finfet", "planar"} {
		p := BuiltinProfile(key)
		model := fixture.FinFET(5)
		if key == "planar" {
			model = fixture.Planar()
		}
		root := importFixture(t, model)
		ix := indexFor(t, p, root)
		b, err := NewBinder(p)
		require.NoError(t, err)

		states := []ViewState{
			{Toggle: true, Parameter: p.Parameter.Default, Effects: map[Effect]bool{EffectXray: true}},
			{Toggle: false, Parameter: p.Parameter.Max},
			{Toggle: true, Parameter: p.Parameter.Min},
		}
		for _, s := range states {
			b.Refresh(ix, s)
			first := captureScene(root)
			b.Refresh(ix, s)
			assert.Equal(t, first, captureScene(root), "%s %+v", key, s)
		}
	}
}

func TestBinderPlanar(t *testing.T) {
	p := BuiltinProfile("planar")
	root := importFixture(t, fixture.Planar())
	ix := indexFor(t, p, root)
	require.NoError(t, ix.Check(p))
	b, err := NewBinder(p)
	require.NoError(t, err)

	source := ix.Singletons["Source"]
	drain := ix.Singletons["Drain"]
	channel := ix.Singletons["Channel"]
	current := ix.Singletons["CurrentArrow"]
	leak := ix.Singletons["LeakArrow"]
	baseScale := channel.Transform.Scale.X()

	b.Refresh(ix, ViewState{Toggle: true, Parameter: 0})
	assert.InDelta(t, -7, source.Transform.Position.X(), 1e-5)
	assert.InDelta(t, 7, drain.Transform.Position.X(), 1e-5)
	assert.InDelta(t, baseScale, channel.Transform.Scale.X(), 1e-5)
	assert.True(t, current.Visible)
	assert.False(t, leak.Visible)

	b.Refresh(ix, ViewState{Toggle: true, Parameter: 1})
	assert.InDelta(t, -5.4, source.Transform.Position.X(), 1e-5)
	assert.InDelta(t, 5.4, drain.Transform.Position.X(), 1e-5)
	assert.InDelta(t, baseScale*0.7714285714285715, channel.Transform.Scale.X(), 1e-4)
	assert.Equal(t, source.Transform.Position.Y(), ix.baseTransform(source).Position.Y())

	b.Refresh(ix, ViewState{Toggle: true, Parameter: 0.5})
	assert.InDelta(t, -6.2, source.Transform.Position.X(), 1e-5)
	assert.False(t, leak.Visible, "no leakage with the gate on")

	b.Refresh(ix, ViewState{Toggle: false, Parameter: 0.5})
	assert.False(t, current.Visible)
	assert.False(t, leak.Visible, "below the leak threshold")

	b.Refresh(ix, ViewState{Toggle: false, Parameter: 0.75})
	assert.False(t, b.Leaking(ViewState{Toggle: false, Parameter: 0.75}), "the threshold itself does not leak")
	assert.False(t, leak.Visible)

	b.Refresh(ix, ViewState{Toggle: false, Parameter: 0.8})
	assert.True(t, b.Leaking(ViewState{Toggle: false, Parameter: 0.8}))
	assert.True(t, leak.Visible)
	assert.False(t, current.Visible)
}

func TestBinderTranslucencyAndXray(t *testing.T) {
	p := BuiltinProfile("planar")
	root := importFixture(t, fixture.Planar())
	ix := indexFor(t, p, root)
	b, _ := NewBinder(p)

	oxide := ix.Singletons["Gate_Oxide"].Materials()[0]
	substrate := ix.Singletons["Si_Substrate"].Materials()[0]
	original := substrate.Snapshot()

	b.Refresh(ix, ViewState{Toggle: true, Effects: map[Effect]bool{}})
	assert.True(t, oxide.Transparent)
	assert.InDelta(t, 0.32, oxide.Opacity, 1e-6)
	assert.Equal(t, original, substrate.Snapshot())

	b.Refresh(ix, ViewState{Toggle: true, Effects: map[Effect]bool{EffectXray: true}})
	assert.True(t, substrate.Transparent)
	assert.InDelta(t, 0.25, substrate.Opacity, 1e-6)
	assert.False(t, substrate.DepthWrite)

	b.Refresh(ix, ViewState{Toggle: true, Effects: map[Effect]bool{EffectXray: false}})
	assert.Equal(t, original, substrate.Snapshot())
}

func TestRefreshWithoutIndex(t *testing.T) {
	b, err := NewBinder(BuiltinProfile("finfet"))
	require.NoError(t, err)
	assert.NotPanics(t, func() { b.Refresh(nil, ViewState{Toggle: true, Parameter: 3}) })
}
