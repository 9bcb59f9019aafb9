// Package mecanum implements the kinematics of a four wheeled mecanum base: the mapping from wheel
// powers to a robot-frame twist and its minimum-norm inverse.
//
// Wheels are ordered front-left, front-right, back-left, back-right. The robot frame has +X forward
// and +Y to the right. Positive angular velocity increases the heading.
package mecanum

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/decbot-sim/fieldsim/utils"
)

const (
	defaultMotorToLinear = 45.0
	defaultRotationGain  = 12.0
	defaultFootprint     = 15.0
)

// Calibration holds the constants that relate motor power to motion. The simulated base and the
// pose follower must be constructed with the same Calibration.
type Calibration struct {
	// MotorToLinear is the linear speed, in field units per second, produced by full power on all wheels.
	MotorToLinear float64 `json:"motor_to_linear" jsonschema:"minimum=0,exclusiveMinimum=true"`
	// RotationGain is the angular speed, in radians per second, produced by full differential power.
	RotationGain float64 `json:"rotation_gain" jsonschema:"minimum=0,exclusiveMinimum=true"`
	// Footprint is the side length of the square robot body in field units.
	Footprint float64 `json:"footprint" jsonschema:"minimum=0"`
}

// DefaultCalibration returns the calibration of the reference robot.
func DefaultCalibration() Calibration {
	return Calibration{
		MotorToLinear: defaultMotorToLinear,
		RotationGain:  defaultRotationGain,
		Footprint:     defaultFootprint,
	}
}

// HalfFootprint is the offset from the pose reference corner to the robot's center on each axis.
func (c Calibration) HalfFootprint() float64 {
	return c.Footprint / 2
}

// Validate ensures all parts of the calibration are valid.
func (c Calibration) Validate(path string) error {
	var err error
	if c.MotorToLinear == 0 {
		err = multierr.Append(err, goutils.NewConfigValidationFieldRequiredError(path, "motor_to_linear"))
	} else if c.MotorToLinear < 0 || !utils.IsFinite(c.MotorToLinear) {
		err = multierr.Append(err, goutils.NewConfigValidationError(path,
			utils.NewMustBePositiveError("motor_to_linear", c.MotorToLinear)))
	}
	if c.RotationGain == 0 {
		err = multierr.Append(err, goutils.NewConfigValidationFieldRequiredError(path, "rotation_gain"))
	} else if c.RotationGain < 0 || !utils.IsFinite(c.RotationGain) {
		err = multierr.Append(err, goutils.NewConfigValidationError(path,
			utils.NewMustBePositiveError("rotation_gain", c.RotationGain)))
	}
	if c.Footprint < 0 || !utils.IsFinite(c.Footprint) {
		err = multierr.Append(err, goutils.NewConfigValidationError(path,
			errors.Errorf("footprint must be a non-negative number, got %v", c.Footprint)))
	}
	return err
}
