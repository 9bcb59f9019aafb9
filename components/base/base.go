// Package base defines the interfaces of a four wheeled mecanum base as seen by the controllers
// that drive it.
package base

import (
	"github.com/decbot-sim/fieldsim/components/base/mecanum"
	"github.com/decbot-sim/fieldsim/spatialmath"
)

// MotorDriver is the part of a base a closed-loop controller needs: it reads the pose and writes
// wheel powers.
type MotorDriver interface {
	// Pose returns a copy of the current pose.
	Pose() spatialmath.Pose
	// SetMotorPowers replaces all four wheel powers. They persist until replaced.
	SetMotorPowers(powers mecanum.MotorPowers)
}

// Base is a mecanum base advanced by an external tick.
type Base interface {
	MotorDriver

	// MotorPowers returns the last powers written.
	MotorPowers() mecanum.MotorPowers
	// SetPose teleports the base and clears its velocity.
	SetPose(pose spatialmath.Pose)
	// Stop zeroes all four wheel powers.
	Stop()
	// Update advances the base by dt seconds.
	Update(dt float64)
}
