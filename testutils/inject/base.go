package inject

import (
	"github.com/decbot-sim/fieldsim/components/base"
	"github.com/decbot-sim/fieldsim/components/base/mecanum"
	"github.com/decbot-sim/fieldsim/spatialmath"
)

// Base is an injectable base.
type Base struct {
	base.Base
	PoseFunc           func() spatialmath.Pose
	SetMotorPowersFunc func(powers mecanum.MotorPowers)
	MotorPowersFunc    func() mecanum.MotorPowers
	SetPoseFunc        func(pose spatialmath.Pose)
	StopFunc           func()
	UpdateFunc         func(dt float64)
}

// Pose calls the injected Pose or the real version.
func (b *Base) Pose() spatialmath.Pose {
	if b.PoseFunc == nil {
		return b.Base.Pose()
	}
	return b.PoseFunc()
}

// SetMotorPowers calls the injected SetMotorPowers or the real version.
func (b *Base) SetMotorPowers(powers mecanum.MotorPowers) {
	if b.SetMotorPowersFunc == nil {
		b.Base.SetMotorPowers(powers)
		return
	}
	b.SetMotorPowersFunc(powers)
}

// MotorPowers calls the injected MotorPowers or the real version.
func (b *Base) MotorPowers() mecanum.MotorPowers {
	if b.MotorPowersFunc == nil {
		return b.Base.MotorPowers()
	}
	return b.MotorPowersFunc()
}

// SetPose calls the injected SetPose or the real version.
func (b *Base) SetPose(pose spatialmath.Pose) {
	if b.SetPoseFunc == nil {
		b.Base.SetPose(pose)
		return
	}
	b.SetPoseFunc(pose)
}

// Stop calls the injected Stop or the real version.
func (b *Base) Stop() {
	if b.StopFunc == nil {
		b.Base.Stop()
		return
	}
	b.StopFunc()
}

// Update calls the injected Update or the real version.
func (b *Base) Update(dt float64) {
	if b.UpdateFunc == nil {
		b.Base.Update(dt)
		return
	}
	b.UpdateFunc(dt)
}
