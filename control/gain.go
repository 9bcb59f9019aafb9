package control

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/decbot-sim/fieldsim/utils"
)

// Gains tunes the pose follower. Distances are in field units, angles in radians.
type Gains struct {
	KPTranslation     float64 `json:"kp_translation"`
	PositionTolerance float64 `json:"position_tolerance" jsonschema:"minimum=0,exclusiveMinimum=true"`
	MaxLinearSpeed    float64 `json:"max_linear_speed" jsonschema:"minimum=0,exclusiveMinimum=true"`
	MinApproachSpeed  float64 `json:"min_approach_speed" jsonschema:"minimum=0"`
	SlowdownRadius    float64 `json:"slowdown_radius" jsonschema:"minimum=0,exclusiveMinimum=true"`
	KPHeading         float64 `json:"kp_heading"`
	MaxAngularSpeed   float64 `json:"max_angular_speed" jsonschema:"minimum=0"`
	KPLateral         float64 `json:"kp_lateral"`
	MotorDeadband     float64 `json:"motor_deadband" jsonschema:"minimum=0,maximum=1,exclusiveMaximum=true"`
}

// DefaultGains returns the tuned gains of the reference robot.
func DefaultGains() Gains {
	return Gains{
		KPTranslation:     2.0,
		PositionTolerance: 0.5,
		MaxLinearSpeed:    36,
		MinApproachSpeed:  1,
		SlowdownRadius:    6,
		KPHeading:         2.2,
		MaxAngularSpeed:   6,
		KPLateral:         0.35,
		MotorDeadband:     0.005,
	}
}

// Validate ensures all parts of the gains are valid.
func (g Gains) Validate(path string) error {
	var err error
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"kp_translation", g.KPTranslation},
		{"position_tolerance", g.PositionTolerance},
		{"max_linear_speed", g.MaxLinearSpeed},
		{"min_approach_speed", g.MinApproachSpeed},
		{"slowdown_radius", g.SlowdownRadius},
		{"kp_heading", g.KPHeading},
		{"max_angular_speed", g.MaxAngularSpeed},
		{"kp_lateral", g.KPLateral},
		{"motor_deadband", g.MotorDeadband},
	} {
		if !utils.IsFinite(v.value) {
			err = multierr.Append(err, goutils.NewConfigValidationError(path,
				errors.Errorf("%s must be a finite number", v.name)))
		}
	}
	if g.PositionTolerance <= 0 {
		err = multierr.Append(err, goutils.NewConfigValidationError(path,
			utils.NewMustBePositiveError("position_tolerance", g.PositionTolerance)))
	}
	if g.MaxLinearSpeed <= 0 {
		err = multierr.Append(err, goutils.NewConfigValidationError(path,
			utils.NewMustBePositiveError("max_linear_speed", g.MaxLinearSpeed)))
	}
	if g.SlowdownRadius <= 0 {
		err = multierr.Append(err, goutils.NewConfigValidationError(path,
			utils.NewMustBePositiveError("slowdown_radius", g.SlowdownRadius)))
	}
	if g.MinApproachSpeed < 0 || g.MinApproachSpeed > g.MaxLinearSpeed {
		err = multierr.Append(err, goutils.NewConfigValidationError(path,
			utils.NewOutOfRangeError("min_approach_speed", g.MinApproachSpeed, 0, g.MaxLinearSpeed)))
	}
	if g.MaxAngularSpeed < 0 {
		err = multierr.Append(err, goutils.NewConfigValidationError(path,
			errors.Errorf("max_angular_speed must be non-negative, got %v", g.MaxAngularSpeed)))
	}
	if g.MotorDeadband < 0 || g.MotorDeadband >= 1 {
		err = multierr.Append(err, goutils.NewConfigValidationError(path,
			errors.Errorf("motor_deadband must be in [0, 1), got %v", g.MotorDeadband)))
	}
	return err
}
