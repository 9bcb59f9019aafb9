package inject

import (
	"github.com/decbot-sim/fieldsim/control"
	"github.com/decbot-sim/fieldsim/spatialmath"
)

// Follower is an injectable pose follower.
type Follower struct {
	control.Follower
	FollowFunc func(start, target spatialmath.Pose)
	UpdateFunc func()
	StopFunc   func()
	BusyFunc   func() bool
}

// Follow calls the injected Follow or the real version.
func (f *Follower) Follow(start, target spatialmath.Pose) {
	if f.FollowFunc == nil {
		f.Follower.Follow(start, target)
		return
	}
	f.FollowFunc(start, target)
}

// Update calls the injected Update or the real version.
func (f *Follower) Update() {
	if f.UpdateFunc == nil {
		f.Follower.Update()
		return
	}
	f.UpdateFunc()
}

// Stop calls the injected Stop or the real version.
func (f *Follower) Stop() {
	if f.StopFunc == nil {
		f.Follower.Stop()
		return
	}
	f.StopFunc()
}

// Busy calls the injected Busy or the real version.
func (f *Follower) Busy() bool {
	if f.BusyFunc == nil {
		return f.Follower.Busy()
	}
	return f.BusyFunc()
}
