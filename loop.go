package gatelab

import (
	"github.com/gekko3d/gatelab/host"
)

// Loop drives one step per animation frame until stopped. Stopping flips
// the running flag and cancels the single outstanding frame request.
type Loop struct {
	win     host.Window
	step    func()
	running bool
	handle  host.FrameID
	pending bool
	frames  uint64
}

func NewLoop(win host.Window, step func()) *Loop {
	return &Loop{win: win, step: step}
}

// Start runs the first step immediately and schedules the rest.
func (l *Loop) Start() {
	if l.running {
		return
	}
	l.running = true
	l.tick()
}

func (l *Loop) tick() {
	l.pending = false
	if !l.running {
		return
	}
	l.frames++
	l.step()
	if l.running {
		l.handle = l.win.RequestFrame(l.tick)
		l.pending = true
	}
}

func (l *Loop) Stop() {
	if !l.running {
		return
	}
	l.running = false
	if l.pending {
		l.win.CancelFrame(l.handle)
		l.pending = false
	}
}

func (l *Loop) Running() bool {
	return l.running
}

// Frames reports how many steps have run.
func (l *Loop) Frames() uint64 {
	return l.frames
}
