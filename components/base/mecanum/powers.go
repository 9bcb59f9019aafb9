package mecanum

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/decbot-sim/fieldsim/utils"
)

// MotorPowers are the four wheel powers. Values are nominally in [-1, 1] but nothing here clamps them.
type MotorPowers struct {
	FL float64 `json:"fl"`
	FR float64 `json:"fr"`
	BL float64 `json:"bl"`
	BR float64 `json:"br"`
}

// NewMotorPowersFromSlice builds MotorPowers from a slice ordered FL, FR, BL, BR.
func NewMotorPowersFromSlice(powers []float64) (MotorPowers, error) {
	if len(powers) != 4 {
		return MotorPowers{}, errors.Errorf("expected 4 motor powers but got %d", len(powers))
	}
	return MotorPowers{FL: powers[0], FR: powers[1], BL: powers[2], BR: powers[3]}, nil
}

// Slice returns the powers ordered FL, FR, BL, BR.
func (m MotorPowers) Slice() []float64 {
	return []float64{m.FL, m.FR, m.BL, m.BR}
}

// Map applies f to every power.
func (m MotorPowers) Map(f func(float64) float64) MotorPowers {
	return MotorPowers{FL: f(m.FL), FR: f(m.FR), BL: f(m.BL), BR: f(m.BR)}
}

// MaxAbs returns the largest absolute power.
func (m MotorPowers) MaxAbs() float64 {
	return utils.MaxAbs(m.FL, m.FR, m.BL, m.BR)
}

// Normalize scales all powers down uniformly so the largest magnitude is 1. Powers already within
// [-1, 1] are returned unchanged, so the direction of the command is preserved either way.
func (m MotorPowers) Normalize() MotorPowers {
	maxAbs := m.MaxAbs()
	if maxAbs <= 1 {
		return m
	}
	return m.Map(func(p float64) float64 { return p / maxAbs })
}

// Deadband replaces every power whose magnitude is below threshold with exactly zero.
func (m MotorPowers) Deadband(threshold float64) MotorPowers {
	return m.Map(func(p float64) float64 {
		if math.Abs(p) < threshold {
			return 0
		}
		return p
	})
}

// IsZero reports whether all four powers are exactly zero.
func (m MotorPowers) IsZero() bool {
	return m == MotorPowers{}
}

// IsFinite reports whether all four powers are finite.
func (m MotorPowers) IsFinite() bool {
	return utils.IsFinite(m.FL) && utils.IsFinite(m.FR) && utils.IsFinite(m.BL) && utils.IsFinite(m.BR)
}

func (m MotorPowers) String() string {
	return fmt.Sprintf("FL %.2f FR %.2f BL %.2f BR %.2f", m.FL, m.FR, m.BL, m.BR)
}
