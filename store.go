package gatelab

import (
	"maps"
	"slices"
)

// Effect names an optional visual aid a profile may offer.
type Effect string

const (
	EffectLabels Effect = "labels"
	EffectXray   Effect = "xray"
)

// ViewState is the semantic state of a viewer.
type ViewState struct {
	Toggle    bool
	Parameter float64
	Effects   map[Effect]bool
}

func (s ViewState) Clone() ViewState {
	s.Effects = maps.Clone(s.Effects)
	if s.Effects == nil {
		s.Effects = map[Effect]bool{}
	}
	return s
}

// stateStore owns the ViewState. Every setter clamps, stores, syncs bound
// controls and then refreshes the scene, in that order, before returning.
type stateStore struct {
	profile *Profile
	state   ViewState
	syncs   []*func(ViewState)
	refresh func(ViewState)
}

func newStateStore(p *Profile) *stateStore {
	s := &stateStore{
		profile: p,
		state: ViewState{
			Toggle:    p.Toggle.Default,
			Parameter: p.Parameter.Clamp(p.Parameter.Default),
			Effects:   map[Effect]bool{},
		},
	}
	if p.HasEffect(EffectLabels) {
		s.state.Effects[EffectLabels] = true
	}
	if p.HasEffect(EffectXray) {
		s.state.Effects[EffectXray] = false
	}
	return s
}

func (s *stateStore) SetParameter(v float64) {
	s.state.Parameter = s.profile.Parameter.Clamp(v)
	s.apply()
}

func (s *stateStore) SetToggle(on bool) {
	s.state.Toggle = on
	s.apply()
}

// SetEffect reports false for effects the profile does not offer.
func (s *stateStore) SetEffect(e Effect, on bool) bool {
	if !s.profile.HasEffect(e) {
		return false
	}
	s.state.Effects[e] = on
	s.apply()
	return true
}

func (s *stateStore) Get() ViewState {
	return s.state.Clone()
}

// Bind registers a control synchroniser and returns its remover.
func (s *stateStore) Bind(fn func(ViewState)) func() {
	h := &fn
	s.syncs = append(s.syncs, h)
	return func() {
		if i := slices.Index(s.syncs, h); i >= 0 {
			s.syncs = slices.Delete(s.syncs, i, i+1)
		}
	}
}

func (s *stateStore) apply() {
	snapshot := s.state.Clone()
	for _, fn := range s.syncs {
		(*fn)(snapshot)
	}
	if s.refresh != nil {
		s.refresh(snapshot)
	}
}
