package gatelab

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gekko3d/gatelab/host/memhost"
)

func TestLoopRunsUntilStopped(t *testing.T) {
	win := memhost.NewWindow()
	steps := 0
	l := NewLoop(win, func() { steps++ })

	l.Start()
	assert.True(t, l.Running())
	assert.Equal(t, 1, steps, "first step runs immediately")
	assert.Equal(t, 1, win.PendingFrames())

	l.Start()
	assert.Equal(t, 1, win.PendingFrames(), "restarting a running loop is a no-op")

	win.Tick()
	win.Tick()
	assert.Equal(t, 3, steps)
	assert.Equal(t, uint64(3), l.Frames())

	l.Stop()
	assert.False(t, l.Running())
	assert.Zero(t, win.PendingFrames())
	win.Tick()
	assert.Equal(t, 3, steps)
	l.Stop()
}

func TestLoopStopFromStep(t *testing.T) {
	win := memhost.NewWindow()
	var l *Loop
	l = NewLoop(win, func() { l.Stop() })
	l.Start()
	assert.False(t, l.Running())
	assert.Zero(t, win.PendingFrames())
	assert.Zero(t, win.FramesRequested())
}
