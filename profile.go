package gatelab

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/gatelab/scene"
)

// Role classifies an indexed node.
type Role string

const (
	RoleStructural Role = "structural"
	RoleEffect     Role = "effect"
	RoleIndicator  Role = "indicator"
	RoleSingleton  Role = "singleton"
)

// Condition gates a binding on the current view state.
type Condition string

const (
	Always      Condition = "always"
	WhenOn      Condition = "on"
	WhenOff     Condition = "off"
	WhenLeaking Condition = "leaking"
)

func (c Condition) valid() bool {
	switch c {
	case "", Always, WhenOn, WhenOff, WhenLeaking:
		return true
	}
	return false
}

type Glow struct {
	Color     string    `toml:"color"`
	Intensity float64   `toml:"intensity"`
	When      Condition `toml:"when"`
}

// Rule maps node names to a role. The first capture group, when present,
// is the node's group index.
type Rule struct {
	Pattern string `toml:"pattern"`
	Role    Role   `toml:"role"`
	Glow    *Glow  `toml:"glow"`
}

// Ramp interpolates one axis of a transform between From and To as the
// parameter moves across its range.
type Ramp struct {
	Axis string  `toml:"axis"`
	From float64 `toml:"from"`
	To   float64 `toml:"to"`
}

// Binding drives one singleton node from the view state. Offset sets the
// position on the axis; Scale multiplies the node's original scale.
type Binding struct {
	Node        string    `toml:"node"`
	VisibleWhen Condition `toml:"visible_when"`
	Glow        *Glow     `toml:"glow"`
	Offset      *Ramp     `toml:"offset"`
	Scale       *Ramp     `toml:"scale"`
}

type Translucency struct {
	Node    string  `toml:"node"`
	Opacity float64 `toml:"opacity"`
}

type LabelSpec struct {
	Node   string `toml:"node"`
	Text   string `toml:"text"`
	Anchor string `toml:"anchor"`
}

type Band struct {
	Above float64 `toml:"above"`
	Label string  `toml:"label"`
}

type ParameterSpec struct {
	Label    string  `toml:"label"`
	Min      float64 `toml:"min"`
	Max      float64 `toml:"max"`
	Step     float64 `toml:"step"`
	Default  float64 `toml:"default"`
	Discrete bool    `toml:"discrete"`
	// Display is "active_set", "bands" or "number".
	Display string `toml:"display"`
	Unit    string `toml:"unit"`
	Bands   []Band `toml:"bands"`
}

// Clamp is total: NaN maps to Min, discrete values snap to Step.
func (s ParameterSpec) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return s.Min
	}
	v = max(s.Min, min(s.Max, v))
	if s.Discrete {
		step := s.Step
		if step <= 0 {
			step = 1
		}
		v = s.Min + math.Round((v-s.Min)/step)*step
		v = max(s.Min, min(s.Max, v))
	}
	return v
}

// Fraction maps v onto [0, 1] across the declared range.
func (s ParameterSpec) Fraction(v float64) float64 {
	if s.Max <= s.Min {
		return 0
	}
	return (s.Clamp(v) - s.Min) / (s.Max - s.Min)
}

type ToggleSpec struct {
	Label   string `toml:"label"`
	Default bool   `toml:"default"`
}

type CameraSpec struct {
	Fov           float64    `toml:"fov"`
	FitPadding    float64    `toml:"fit_padding"`
	FitDirection  [3]float64 `toml:"fit_direction"`
	NearDivisor   float64    `toml:"near_divisor"`
	FarMultiplier float64    `toml:"far_multiplier"`
	Position      [3]float64 `toml:"initial_position"`
	Damping       float64    `toml:"damping"`
}

type BloomSpec struct {
	Enabled   bool    `toml:"enabled"`
	Strength  float64 `toml:"strength"`
	Radius    float64 `toml:"radius"`
	Threshold float64 `toml:"threshold"`
}

type LightSpec struct {
	Ambient             float64    `toml:"ambient"`
	HemiSky             string     `toml:"hemi_sky"`
	HemiGround          string     `toml:"hemi_ground"`
	Hemi                float64    `toml:"hemi"`
	Directional         float64    `toml:"directional"`
	DirectionalPosition [3]float64 `toml:"directional_position"`
}

// Profile describes one kind of viewer: how it mounts, which model it loads,
// how node names map to roles and how the view state drives the scene.
type Profile struct {
	Key          string `toml:"-"`
	Name         string `toml:"name"`
	Title        string `toml:"title"`
	LogPrefix    string `toml:"log_prefix"`
	ClassPrefix  string `toml:"class_prefix"`
	DataHook     string `toml:"data_hook"`
	DefaultID    string `toml:"default_id"`
	CanvasHook   string `toml:"canvas_hook"`
	ControlsHook string `toml:"controls_hook"`
	ModelURL     string `toml:"model_url"`
	RootName     string `toml:"root_name"`

	Parameter     ParameterSpec `toml:"parameter"`
	Toggle        ToggleSpec    `toml:"toggle"`
	Slots         int           `toml:"slots"`
	LeakThreshold float64       `toml:"leak_threshold"`

	Rules       []Rule         `toml:"rules"`
	Required    []string       `toml:"required"`
	Singletons  []Binding      `toml:"singletons"`
	Translucent []Translucency `toml:"translucent"`
	Xray        *Translucency  `toml:"xray"`
	Labels      []LabelSpec    `toml:"labels"`

	Camera     CameraSpec `toml:"camera"`
	Bloom      BloomSpec  `toml:"bloom"`
	Lights     LightSpec  `toml:"lights"`
	Background string     `toml:"background"`
}

type compiledRule struct {
	re   *regexp.Regexp
	role Role
	glow *glowValue
}

type glowValue struct {
	color     mgl32.Vec3
	intensity float32
	when      Condition
}

func compileGlow(g *Glow) (*glowValue, error) {
	if g == nil {
		return nil, nil
	}
	c, err := scene.ParseHex(g.Color)
	if err != nil {
		return nil, err
	}
	if !g.When.valid() {
		return nil, fmt.Errorf("unknown condition %q", g.When)
	}
	return &glowValue{color: c, intensity: float32(g.Intensity), when: g.When}, nil
}

func (p *Profile) compileRules() ([]compiledRule, error) {
	rules := make([]compiledRule, 0, len(p.Rules))
	for i, r := range p.Rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		switch r.Role {
		case RoleStructural, RoleEffect, RoleIndicator:
			if re.NumSubexp() < 1 {
				return nil, fmt.Errorf("rule %d: %s pattern %q has no group index capture", i, r.Role, r.Pattern)
			}
		case RoleSingleton:
		default:
			return nil, fmt.Errorf("rule %d: unknown role %q", i, r.Role)
		}
		glow, err := compileGlow(r.Glow)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rules = append(rules, compiledRule{re: re, role: r.Role, glow: glow})
	}
	return rules, nil
}

// Validate reports the first problem found, wrapped in ErrInvalidProfile.
func (p *Profile) Validate() error {
	if err := p.validate(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidProfile, p.Key, err)
	}
	return nil
}

func (p *Profile) validate() error {
	if len(p.Rules) == 0 && len(p.Singletons) == 0 {
		return fmt.Errorf("no rules and no singleton bindings")
	}
	if p.DataHook == "" && p.DefaultID == "" {
		return fmt.Errorf("no data_hook or default_id to mount on")
	}
	if _, err := p.compileRules(); err != nil {
		return err
	}

	ps := p.Parameter
	if ps.Min >= ps.Max {
		return fmt.Errorf("parameter range [%v, %v] is empty", ps.Min, ps.Max)
	}
	if ps.Default < ps.Min || ps.Default > ps.Max {
		return fmt.Errorf("parameter default %v outside [%v, %v]", ps.Default, ps.Min, ps.Max)
	}
	if ps.Discrete && ps.Step > 0 {
		n := (ps.Max - ps.Min) / ps.Step
		if math.Abs(n-math.Round(n)) > 1e-9 {
			return fmt.Errorf("discrete range [%v, %v] is not a multiple of step %v", ps.Min, ps.Max, ps.Step)
		}
	}
	switch ps.Display {
	case "", "number", "bands":
	case "active_set":
		if p.Slots == 0 {
			return fmt.Errorf("active_set display needs slots")
		}
	default:
		return fmt.Errorf("unknown parameter display %q", ps.Display)
	}

	// Only the five-slot growth table is defined; wider or even layouts
	// have no agreed centre.
	if p.Slots < 0 || p.Slots > MaxSlots || (p.Slots > 0 && p.Slots%2 == 0) {
		return fmt.Errorf("slots must be odd and at most %d, got %d", MaxSlots, p.Slots)
	}
	if p.LeakThreshold < 0 || p.LeakThreshold > 1 {
		return fmt.Errorf("leak_threshold %v outside [0, 1]", p.LeakThreshold)
	}

	for _, b := range p.Singletons {
		if b.Node == "" {
			return fmt.Errorf("singleton binding without node")
		}
		if !b.VisibleWhen.valid() {
			return fmt.Errorf("%s: unknown condition %q", b.Node, b.VisibleWhen)
		}
		if _, err := compileGlow(b.Glow); err != nil {
			return fmt.Errorf("%s: %w", b.Node, err)
		}
		for _, r := range []*Ramp{b.Offset, b.Scale} {
			if r == nil {
				continue
			}
			if _, ok := scene.ParseAxis(r.Axis); !ok {
				return fmt.Errorf("%s: unknown axis %q", b.Node, r.Axis)
			}
		}
	}
	for _, t := range p.Translucent {
		if t.Opacity < 0 || t.Opacity > 1 {
			return fmt.Errorf("%s: opacity %v outside [0, 1]", t.Node, t.Opacity)
		}
	}
	if p.Xray != nil && (p.Xray.Opacity < 0 || p.Xray.Opacity > 1) {
		return fmt.Errorf("xray opacity %v outside [0, 1]", p.Xray.Opacity)
	}
	if p.Background != "" {
		if _, err := scene.ParseHex(p.Background); err != nil {
			return err
		}
	}
	if p.Camera.Fov <= 0 || p.Camera.Fov >= 180 {
		return fmt.Errorf("camera fov %v outside (0, 180)", p.Camera.Fov)
	}
	return nil
}

// DescribeParameter renders v the way the control panel shows it.
func (p *Profile) DescribeParameter(v float64) string {
	ps := p.Parameter
	v = ps.Clamp(v)
	switch ps.Display {
	case "active_set":
		set := ActiveSet(int(math.Round(v)), p.Slots)
		parts := make([]string, len(set))
		for i, idx := range set {
			parts[i] = strconv.Itoa(idx)
		}
		unit := ps.Unit
		if len(set) > 1 {
			unit += "s"
		}
		return strings.TrimSpace(strings.Join(parts, ", ") + " " + unit)
	case "bands":
		if len(ps.Bands) == 0 {
			break
		}
		t := ps.Fraction(v)
		label := ps.Bands[0].Label
		for _, b := range ps.Bands[1:] {
			if t > b.Above {
				label = b.Label
			}
		}
		return label
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// HasEffect reports whether the profile supports the effect toggle.
func (p *Profile) HasEffect(e Effect) bool {
	switch e {
	case EffectLabels:
		return len(p.Labels) > 0
	case EffectXray:
		return p.Xray != nil
	}
	return false
}

func vec3(v [3]float64) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

// Clone copies p so that its tables can be edited without touching p.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Rules = append([]Rule(nil), p.Rules...)
	for i := range c.Rules {
		if g := c.Rules[i].Glow; g != nil {
			gc := *g
			c.Rules[i].Glow = &gc
		}
	}
	c.Required = append([]string(nil), p.Required...)
	c.Singletons = append([]Binding(nil), p.Singletons...)
	for i := range c.Singletons {
		b := &c.Singletons[i]
		if b.Glow != nil {
			g := *b.Glow
			b.Glow = &g
		}
		if b.Offset != nil {
			r := *b.Offset
			b.Offset = &r
		}
		if b.Scale != nil {
			r := *b.Scale
			b.Scale = &r
		}
	}
	c.Translucent = append([]Translucency(nil), p.Translucent...)
	c.Labels = append([]LabelSpec(nil), p.Labels...)
	c.Parameter.Bands = append([]Band(nil), p.Parameter.Bands...)
	if p.Xray != nil {
		x := *p.Xray
		c.Xray = &x
	}
	return &c
}
