package gatelab

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameterClamp(t *testing.T) {
	fins := BuiltinProfile("finfet").Parameter
	cases := map[float64]float64{
		-3: 1, 0: 1, 1: 1, 2.4: 2, 2.6: 3, 4.5: 5, 5: 5, 9: 5,
		math.Inf(1): 5, math.Inf(-1): 1, math.NaN(): 1,
	}
	for in, want := range cases {
		got := fins.Clamp(in)
		assert.Equal(t, want, got, "clamp(%v)", in)
		assert.Equal(t, got, fins.Clamp(got), "clamp is idempotent at %v", in)
	}

	length := BuiltinProfile("planar").Parameter
	assert.Equal(t, 0.0, length.Clamp(-1))
	assert.Equal(t, 1.0, length.Clamp(2))
	assert.Equal(t, 0.37, length.Clamp(0.37))
	assert.InDelta(t, 0.5, length.Fraction(0.5), 1e-12)
	assert.InDelta(t, 0.5, fins.Fraction(3), 1e-12)
}

func TestDescribeParameter(t *testing.T) {
	finfet := BuiltinProfile("finfet")
	assert.Equal(t, "3 fin", finfet.DescribeParameter(1))
	assert.Equal(t, "2, 4 fins", finfet.DescribeParameter(2))
	assert.Equal(t, "1, 2, 3, 4, 5 fins", finfet.DescribeParameter(7))

	planar := BuiltinProfile("planar")
	assert.Equal(t, "Long", planar.DescribeParameter(0))
	assert.Equal(t, "Long", planar.DescribeParameter(0.4))
	assert.Equal(t, "Short", planar.DescribeParameter(0.5))
	assert.Equal(t, "Ultra-short", planar.DescribeParameter(0.9))

	p := planar.Clone()
	p.Parameter.Display = "number"
	assert.Equal(t, "0.25", p.DescribeParameter(0.25))
}

func TestBuiltinProfiles(t *testing.T) {
	profiles := BuiltinProfiles()
	assert.Equal(t, []string{"finfet", "planar"}, ProfileKeys(profiles))

	finfet := profiles["finfet"]
	assert.Equal(t, "finfet", finfet.Key)
	assert.Equal(t, 5, finfet.Slots)
	assert.Equal(t, "data-finfet-viewer", finfet.DataHook)
	assert.Equal(t, 1.65, finfet.Camera.FitPadding)
	assert.False(t, finfet.HasEffect(EffectLabels))
	assert.False(t, finfet.HasEffect(EffectXray))

	planar := profiles["planar"]
	assert.True(t, planar.HasEffect(EffectLabels))
	assert.True(t, planar.HasEffect(EffectXray))
	assert.Len(t, planar.Required, 10)

	planar.Rules[0].Pattern = "changed"
	assert.NotEqual(t, "changed", BuiltinProfile("planar").Rules[0].Pattern)
}

const customProfile = `
[profiles.gaa]
title = "GAA Viewer"
log_prefix = "GAA Viewer"
class_prefix = "gaa"
default_id = "gaa-viewer"
model_url = "models/GAA.glb"
slots = 3

[profiles.gaa.parameter]
label = "Sheets"
min = 1.0
max = 3.0
step = 1.0
default = 2.0
discrete = true
display = "active_set"
unit = "sheet"

[[profiles.gaa.rules]]
pattern = '^Sheet_(\d+)$'
role = "structural"

[profiles.gaa.camera]
fov = 45.0
`

func TestLoadProfiles(t *testing.T) {
	profiles, err := LoadProfiles(strings.NewReader(customProfile))
	require.NoError(t, err)
	gaa := profiles["gaa"]
	require.NotNil(t, gaa)
	assert.Equal(t, "gaa", gaa.Name)
	assert.Equal(t, "1, 3 sheets", gaa.DescribeParameter(2))
}

func TestLoadProfileFileOverlays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.toml")
	require.NoError(t, os.WriteFile(path, []byte(customProfile), 0o644))

	profiles, err := LoadProfileFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"finfet", "gaa", "planar"}, ProfileKeys(profiles))

	profiles, err = LoadProfileFile("")
	require.NoError(t, err)
	assert.Len(t, profiles, 2)

	_, err = LoadProfileFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoadProfilesRejectsUnknownFields(t *testing.T) {
	_, err := LoadProfiles(strings.NewReader("[profiles.x]\nslotz = 3\n"))
	assert.ErrorIs(t, err, ErrInvalidProfile)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(p *Profile){
		"no rules":          func(p *Profile) { p.Rules = nil },
		"no mount":          func(p *Profile) { p.DataHook, p.DefaultID = "", "" },
		"bad pattern":       func(p *Profile) { p.Rules[0].Pattern = "(" },
		"missing capture":   func(p *Profile) { p.Rules[0].Pattern = "^Fin_" },
		"unknown role":      func(p *Profile) { p.Rules[0].Role = "decor" },
		"empty range":       func(p *Profile) { p.Parameter.Max = p.Parameter.Min },
		"default outside":   func(p *Profile) { p.Parameter.Default = 9 },
		"even slots":        func(p *Profile) { p.Slots = 4 },
		"too many slots":    func(p *Profile) { p.Slots = 7 },
		"misaligned step":   func(p *Profile) { p.Parameter.Step = 3 },
		"unknown display":   func(p *Profile) { p.Parameter.Display = "gauge" },
		"bad glow colour":   func(p *Profile) { p.Rules[1].Glow.Color = "cyan" },
		"unknown condition": func(p *Profile) { p.Rules[1].Glow.When = "sometimes" },
		"bad leak":          func(p *Profile) { p.LeakThreshold = 1.5 },
		"bad fov":           func(p *Profile) { p.Camera.Fov = 0 },
		"bad background":    func(p *Profile) { p.Background = "navy" },
	}
	require.NoError(t, BuiltinProfile("finfet").Validate())
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := BuiltinProfile("finfet")
			mutate(p)
			assert.ErrorIs(t, p.Validate(), ErrInvalidProfile)
		})
	}

	planar := BuiltinProfile("planar")
	planar.Singletons[0].Offset.Axis = "w"
	assert.ErrorIs(t, planar.Validate(), ErrInvalidProfile)
}
