package gatelab

import (
	"time"
)

type Time struct {
	Time  time.Time
	Dt    time.Duration
	Frame uint64

	now func() time.Time
}

type TimeModule struct {
	// Now overrides the clock, for tests.
	Now func() time.Time
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	now := mod.Now
	if now == nil {
		now = time.Now
	}
	cmd.AddResources(&Time{
		Time: now(),
		Dt:   0,
		now:  now,
	})
	cmd.UseSystem(System(timeSystem).InStage(PreUpdate))
}

func timeSystem(timeResource *Time) {
	now := timeResource.now()

	if timeResource.Frame > 0 {
		timeResource.Dt = now.Sub(timeResource.Time)
	}
	timeResource.Time = now
	timeResource.Frame++
}
