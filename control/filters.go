package control

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/decbot-sim/fieldsim/utils"
)

// Response holds the first-order response rates, in 1/s, of the simulated drivetrain. Accel rates
// apply while a velocity component rises toward its target and decel rates while it falls.
type Response struct {
	LinearAccel  float64 `json:"linear_accel" jsonschema:"minimum=0"`
	LinearDecel  float64 `json:"linear_decel" jsonschema:"minimum=0"`
	AngularAccel float64 `json:"angular_accel" jsonschema:"minimum=0"`
	AngularDecel float64 `json:"angular_decel" jsonschema:"minimum=0"`
}

// DefaultResponse returns the response rates of the reference robot.
func DefaultResponse() Response {
	return Response{
		LinearAccel:  25,
		LinearDecel:  15,
		AngularAccel: 8,
		AngularDecel: 6,
	}
}

// Validate ensures all rates are finite and non-negative.
func (r Response) Validate(path string) error {
	var err error
	for _, rate := range []struct {
		name  string
		value float64
	}{
		{"linear_accel", r.LinearAccel},
		{"linear_decel", r.LinearDecel},
		{"angular_accel", r.AngularAccel},
		{"angular_decel", r.AngularDecel},
	} {
		if rate.value < 0 || !utils.IsFinite(rate.value) {
			err = multierr.Append(err, goutils.NewConfigValidationError(path,
				errors.Errorf("%s must be a non-negative number, got %v", rate.name, rate.value)))
		}
	}
	return err
}

// AsymmetricLag is a first-order lag whose rate depends on the direction of change. Each step
// moves the output by rate*dt of the remaining error, with the blend factor capped at 1 so a long
// step lands on the target instead of overshooting it.
type AsymmetricLag struct {
	Accel float64
	Decel float64

	y float64
}

// NewAsymmetricLag returns a lag at rest.
func NewAsymmetricLag(accel, decel float64) *AsymmetricLag {
	return &AsymmetricLag{Accel: accel, Decel: decel}
}

// Next advances the lag by dt seconds toward target and returns the new output.
func (f *AsymmetricLag) Next(target, dt float64) float64 {
	rate := f.Decel
	if f.y < target {
		rate = f.Accel
	}
	f.y += utils.Clamp(rate*dt, 0, 1) * (target - f.y)
	return f.y
}

// Value returns the current output.
func (f *AsymmetricLag) Value() float64 {
	return f.y
}

// Reset forces the output to y.
func (f *AsymmetricLag) Reset(y float64) {
	f.y = y
}
