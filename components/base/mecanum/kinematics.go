package mecanum

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Twist is a robot-frame velocity: Forward along +X, Lateral along +Y (right), Angular in rad/s.
type Twist struct {
	Forward float64 `json:"forward"`
	Lateral float64 `json:"lateral"`
	Angular float64 `json:"angular"`
}

// LinearSpeed is the magnitude of the translational part of the twist.
func (t Twist) LinearSpeed() float64 {
	return mat.Norm(mat.NewVecDense(2, []float64{t.Forward, t.Lateral}), 2)
}

func (t Twist) String() string {
	return fmt.Sprintf("vx %.2f vy %.2f omega %.2f", t.Forward, t.Lateral, t.Angular)
}

// Forward maps wheel powers to the twist they command:
//
//	forward = (FL + FR + BL + BR) / 4 * MotorToLinear
//	lateral = (-FL + FR - BL + BR) / 4 * MotorToLinear
//	angular = (-FL + FR + BL - BR) / 4 * RotationGain
func Forward(c Calibration, m MotorPowers) Twist {
	return Twist{
		Forward: (m.FL + m.FR + m.BL + m.BR) / 4 * c.MotorToLinear,
		Lateral: (-m.FL + m.FR - m.BL + m.BR) / 4 * c.MotorToLinear,
		Angular: (-m.FL + m.FR + m.BL - m.BR) / 4 * c.RotationGain,
	}
}

// Inverse returns the minimum-norm wheel powers that command t. The rows of the forward matrix are
// orthogonal, so the pseudoinverse reduces to the closed form below. The result is neither
// normalized nor deadbanded.
func Inverse(c Calibration, t Twist) MotorPowers {
	a := t.Forward / c.MotorToLinear
	b := t.Lateral / c.MotorToLinear
	r := t.Angular / c.RotationGain
	return MotorPowers{
		FL: a - b - r,
		FR: a + b + r,
		BL: a - b + r,
		BR: a + b - r,
	}
}

// ForwardMatrix returns the 3x4 matrix F with twist = F * powers, columns ordered FL, FR, BL, BR.
func ForwardMatrix(c Calibration) *mat.Dense {
	m := c.MotorToLinear / 4
	g := c.RotationGain / 4
	return mat.NewDense(3, 4, []float64{
		m, m, m, m,
		-m, m, -m, m,
		-g, g, g, -g,
	})
}

// PseudoInverse computes the 4x3 Moore-Penrose pseudoinverse F^T (F F^T)^-1 of the forward matrix.
func PseudoInverse(c Calibration) (*mat.Dense, error) {
	f := ForwardMatrix(c)
	var ffT mat.Dense
	ffT.Mul(f, f.T())
	var inv mat.Dense
	if err := inv.Inverse(&ffT); err != nil {
		return nil, errors.Wrap(err, "forward matrix is not full rank")
	}
	var pinv mat.Dense
	pinv.Mul(f.T(), &inv)
	return &pinv, nil
}
