package gatelab

import (
	"math"
	"slices"

	"github.com/gekko3d/gatelab/scene"
)

// MaxSlots is the widest group layout with a defined growth order.
const MaxSlots = 5

// ActiveSet returns the slot indices (1-based, ascending) lit for n out of
// slots. Odd n takes the centre slot plus n/2 pairs around it; even n takes
// n/2 pairs and leaves the centre dark. n is clamped to [1, slots].
func ActiveSet(n, slots int) []int {
	if slots <= 0 {
		return nil
	}
	n = max(1, min(slots, n))
	center := (slots + 1) / 2
	set := make([]int, 0, n)
	if n%2 == 1 {
		set = append(set, center)
	}
	for d := 1; d <= n/2; d++ {
		set = append(set, center-d, center+d)
	}
	slices.Sort(set)
	return set
}

type ramp struct {
	axis     scene.Axis
	from, to float64
}

func (r ramp) at(t float64) float32 {
	return float32(r.from + (r.to-r.from)*t)
}

type binding struct {
	node    string
	visible Condition
	glow    *glowValue
	offset  *ramp
	scale   *ramp
}

// Binder maps a ViewState onto an indexed scene. Refresh recomputes every
// bound property from scratch, so repeated calls with one state agree.
type Binder struct {
	profile  *Profile
	bindings []binding
}

func NewBinder(p *Profile) (*Binder, error) {
	b := &Binder{profile: p}
	for _, sb := range p.Singletons {
		glow, err := compileGlow(sb.Glow)
		if err != nil {
			return nil, err
		}
		bd := binding{node: sb.Node, visible: sb.VisibleWhen, glow: glow}
		if sb.Offset != nil {
			axis, _ := scene.ParseAxis(sb.Offset.Axis)
			bd.offset = &ramp{axis: axis, from: sb.Offset.From, to: sb.Offset.To}
		}
		if sb.Scale != nil {
			axis, _ := scene.ParseAxis(sb.Scale.Axis)
			bd.scale = &ramp{axis: axis, from: sb.Scale.From, to: sb.Scale.To}
		}
		b.bindings = append(b.bindings, bd)
	}
	return b, nil
}

type condState struct {
	on, leaking bool
}

func (c condState) holds(cond Condition) bool {
	switch cond {
	case WhenOn:
		return c.on
	case WhenOff:
		return !c.on
	case WhenLeaking:
		return c.leaking
	}
	return true
}

// Leaking reports whether s shows the off-state leakage visuals.
func (b *Binder) Leaking(s ViewState) bool {
	return !s.Toggle && b.profile.Parameter.Fraction(s.Parameter) > b.profile.LeakThreshold
}

// ActiveGroups returns the group indices lit by s.
func (b *Binder) ActiveGroups(s ViewState) []int {
	return ActiveSet(int(math.Round(s.Parameter)), b.profile.Slots)
}

func (b *Binder) Refresh(ix *SceneIndex, s ViewState) {
	if ix == nil {
		return
	}
	cs := condState{on: s.Toggle, leaking: b.Leaking(s)}
	t := b.profile.Parameter.Fraction(s.Parameter)

	for _, n := range ix.order {
		ix.restoreMaterials(n)
	}

	active := make(map[int]bool)
	for _, idx := range b.ActiveGroups(s) {
		active[idx] = true
	}
	for idx, g := range ix.Groups {
		lit := active[idx]
		for _, n := range g.Structural {
			n.Visible = lit
		}
		for _, n := range g.Effects {
			n.Visible = lit && s.Toggle
		}
		for _, n := range g.Indicators {
			n.Visible = lit && s.Toggle
		}
	}

	for _, n := range ix.order {
		if g := ix.glows[n]; g != nil && cs.holds(g.when) {
			scene.SetGlow(n, g.color, g.intensity)
		}
	}

	for _, bd := range b.bindings {
		n := ix.Singletons[bd.node]
		if n == nil {
			continue
		}
		base := ix.baseTransform(n)
		tr := base
		if bd.offset != nil {
			tr.Position[bd.offset.axis] = bd.offset.at(t)
		}
		if bd.scale != nil {
			tr.Scale[bd.scale.axis] = base.Scale[bd.scale.axis] * bd.scale.at(t)
		}
		n.Transform = tr

		if bd.visible != "" && bd.visible != Always {
			n.Visible = cs.holds(bd.visible)
		}
		if bd.glow != nil && cs.holds(bd.glow.when) {
			scene.SetGlow(n, bd.glow.color, bd.glow.intensity)
		}
	}

	for _, tl := range b.profile.Translucent {
		if n := ix.Singletons[tl.Node]; n != nil {
			scene.SetTransparency(n, float32(tl.Opacity))
		}
	}
	if x := b.profile.Xray; x != nil && s.Effects[EffectXray] {
		if n := ix.Singletons[x.Node]; n != nil {
			scene.SetTransparency(n, float32(x.Opacity))
		}
	}
}
