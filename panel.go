package gatelab

import (
	"strconv"

	"github.com/gekko3d/gatelab/host"
)

// panel is the overlay control panel built inside the controls mount.
type panel struct {
	toggle        host.Element
	slider        host.Element
	value         host.Element
	bloom         host.Element
	strength      host.Element
	strengthValue host.Element
	labels        host.Element
	xray          host.Element
	reset         host.Element

	describe func(float64) string
	removers []func()
}

func newPanel(doc host.Document, m *mount, v *Viewer) *panel {
	p := v.profile
	cls := p.ClassPrefix
	pn := &panel{describe: p.DescribeParameter}

	title := doc.CreateElement("div")
	title.AddClass(cls + "-controls-title")
	title.SetText(p.Title)
	m.inject(m.controls, title)

	row := func(label string) host.Element {
		r := doc.CreateElement("label")
		r.AddClass(cls + "-control")
		text := doc.CreateElement("span")
		text.SetText(label)
		r.AppendChild(text)
		m.inject(m.controls, r)
		return r
	}
	checkbox := func(label string, set func(bool)) host.Element {
		r := row(label)
		in := doc.CreateElement("input")
		in.SetAttr("type", "checkbox")
		r.AppendChild(in)
		pn.removers = append(pn.removers, in.On("change", func(host.Event) { set(in.Checked()) }))
		return in
	}
	slider := func(label string, lo, hi, step float64, set func(float64)) (host.Element, host.Element) {
		r := row(label)
		in := doc.CreateElement("input")
		in.SetAttr("type", "range")
		in.SetAttr("min", formatNumber(lo))
		in.SetAttr("max", formatNumber(hi))
		in.SetAttr("step", formatNumber(step))
		out := doc.CreateElement("span")
		out.AddClass(cls + "-value")
		r.AppendChild(in)
		r.AppendChild(out)
		pn.removers = append(pn.removers, in.On("input", func(host.Event) {
			if x, err := strconv.ParseFloat(in.Value(), 64); err == nil {
				set(x)
			}
		}))
		return in, out
	}

	ps := p.Parameter
	step := ps.Step
	if step <= 0 {
		step = (ps.Max - ps.Min) / 100
	}
	pn.toggle = checkbox(p.Toggle.Label, v.SetToggle)
	pn.slider, pn.value = slider(ps.Label, ps.Min, ps.Max, step, v.SetParameter)
	pn.bloom = checkbox("Bloom", func(on bool) {
		_, strength := v.Bloom()
		v.SetBloom(on, strength)
	})
	pn.strength, pn.strengthValue = slider("Bloom Strength", 0, MaxBloomStrength, 0.01, func(x float64) {
		on, _ := v.Bloom()
		v.SetBloom(on, x)
	})
	if p.HasEffect(EffectLabels) {
		pn.labels = checkbox("Labels", func(on bool) { v.SetEffect(EffectLabels, on) })
	}
	if p.HasEffect(EffectXray) {
		pn.xray = checkbox("X-ray", func(on bool) { v.SetEffect(EffectXray, on) })
	}

	pn.reset = doc.CreateElement("button")
	pn.reset.AddClass(cls + "-reset-btn")
	pn.reset.SetText("Reset")
	m.inject(m.controls, pn.reset)
	pn.removers = append(pn.removers, pn.reset.On("click", func(host.Event) { v.Reset() }))

	pn.removers = append(pn.removers, v.store.Bind(pn.sync))
	pn.sync(v.store.Get())
	pn.syncBloom(v.Bloom())
	return pn
}

// sync mirrors the view state into the controls.
func (pn *panel) sync(s ViewState) {
	pn.toggle.SetChecked(s.Toggle)
	pn.slider.SetValue(formatNumber(s.Parameter))
	pn.value.SetText(pn.describe(s.Parameter))
	if pn.labels != nil {
		pn.labels.SetChecked(s.Effects[EffectLabels])
	}
	if pn.xray != nil {
		pn.xray.SetChecked(s.Effects[EffectXray])
	}
}

func (pn *panel) syncBloom(enabled bool, strength float64) {
	pn.bloom.SetChecked(enabled)
	pn.strength.SetValue(formatNumber(strength))
	pn.strengthValue.SetText(strconv.FormatFloat(strength, 'f', 2, 64))
}

func (pn *panel) dispose() {
	for _, remove := range pn.removers {
		remove()
	}
	pn.removers = nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
