package mecanum

import (
	"math"
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func TestForward(t *testing.T) {
	c := DefaultCalibration()
	for _, tc := range []struct {
		name   string
		powers MotorPowers
		twist  Twist
	}{
		{"rest", MotorPowers{}, Twist{}},
		{"full forward", MotorPowers{1, 1, 1, 1}, Twist{Forward: 45}},
		{"full reverse", MotorPowers{-1, -1, -1, -1}, Twist{Forward: -45}},
		{"strafe right", MotorPowers{-1, 1, -1, 1}, Twist{Lateral: 45}},
		{"spin", MotorPowers{-1, 1, 1, -1}, Twist{Angular: 12}},
		{"single wheel", MotorPowers{FL: 1}, Twist{Forward: 11.25, Lateral: -11.25, Angular: -3}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := Forward(c, tc.powers)
			test.That(t, got.Forward, test.ShouldAlmostEqual, tc.twist.Forward)
			test.That(t, got.Lateral, test.ShouldAlmostEqual, tc.twist.Lateral)
			test.That(t, got.Angular, test.ShouldAlmostEqual, tc.twist.Angular)
		})
	}
}

func TestInverseRoundTrip(t *testing.T) {
	c := DefaultCalibration()
	for _, twist := range []Twist{
		{Forward: 10},
		{Lateral: -7.5},
		{Angular: 2},
		{Forward: 12, Lateral: 3, Angular: -1.5},
		{Forward: -20, Lateral: 20, Angular: 0.25},
	} {
		powers := Inverse(c, twist)
		test.That(t, powers.MaxAbs(), test.ShouldBeLessThanOrEqualTo, 1)
		got := Forward(c, powers)
		test.That(t, got.Forward, test.ShouldAlmostEqual, twist.Forward, 1e-9)
		test.That(t, got.Lateral, test.ShouldAlmostEqual, twist.Lateral, 1e-9)
		test.That(t, got.Angular, test.ShouldAlmostEqual, twist.Angular, 1e-9)
	}
}

func TestInverseMatchesPseudoInverse(t *testing.T) {
	for _, c := range []Calibration{
		DefaultCalibration(),
		{MotorToLinear: 36, RotationGain: 12, Footprint: 15},
		{MotorToLinear: 3, RotationGain: 50},
	} {
		pinv, err := PseudoInverse(c)
		test.That(t, err, test.ShouldBeNil)
		rows, cols := pinv.Dims()
		test.That(t, rows, test.ShouldEqual, 4)
		test.That(t, cols, test.ShouldEqual, 3)

		twist := Twist{Forward: 8, Lateral: -3, Angular: 1.2}
		var want mat.VecDense
		want.MulVec(pinv, mat.NewVecDense(3, []float64{twist.Forward, twist.Lateral, twist.Angular}))

		got := Inverse(c, twist).Slice()
		for i := range got {
			test.That(t, got[i], test.ShouldAlmostEqual, want.AtVec(i), 1e-9)
		}
	}
}

func TestPseudoInverseSingular(t *testing.T) {
	_, err := PseudoInverse(Calibration{MotorToLinear: 45})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTwistLinearSpeed(t *testing.T) {
	test.That(t, Twist{Forward: 3, Lateral: -4}.LinearSpeed(), test.ShouldAlmostEqual, 5)
	test.That(t, Twist{Angular: 3}.LinearSpeed(), test.ShouldAlmostEqual, 0)
}

func TestMotorPowers(t *testing.T) {
	t.Run("normalize", func(t *testing.T) {
		m := MotorPowers{FL: 2, FR: -4, BL: 1, BR: 0}.Normalize()
		test.That(t, m, test.ShouldResemble, MotorPowers{FL: 0.5, FR: -1, BL: 0.25, BR: 0})

		within := MotorPowers{FL: 0.3, FR: -0.9, BL: 1, BR: 0}
		test.That(t, within.Normalize(), test.ShouldResemble, within)
	})

	t.Run("deadband", func(t *testing.T) {
		m := MotorPowers{FL: 0.004, FR: -0.0049, BL: 0.005, BR: -0.5}.Deadband(0.005)
		test.That(t, m.FL, test.ShouldEqual, 0.0)
		test.That(t, m.FR, test.ShouldEqual, 0.0)
		test.That(t, m.BL, test.ShouldEqual, 0.005)
		test.That(t, m.BR, test.ShouldEqual, -0.5)
		test.That(t, MotorPowers{FL: 0.001}.Deadband(0.005).IsZero(), test.ShouldBeTrue)
	})

	t.Run("slice", func(t *testing.T) {
		m, err := NewMotorPowersFromSlice([]float64{0.1, 0.2, 0.3, 0.4})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, m.Slice(), test.ShouldResemble, []float64{0.1, 0.2, 0.3, 0.4})

		_, err = NewMotorPowersFromSlice([]float64{1})
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("finite", func(t *testing.T) {
		test.That(t, MotorPowers{FL: 1}.IsFinite(), test.ShouldBeTrue)
		test.That(t, MotorPowers{BR: math.NaN()}.IsFinite(), test.ShouldBeFalse)
		test.That(t, MotorPowers{FR: math.Inf(1)}.IsFinite(), test.ShouldBeFalse)
	})
}

func TestCalibrationValidate(t *testing.T) {
	test.That(t, DefaultCalibration().Validate("calibration"), test.ShouldBeNil)

	err := Calibration{}.Validate("calibration")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "motor_to_linear")
	test.That(t, err.Error(), test.ShouldContainSubstring, "rotation_gain")

	err = Calibration{MotorToLinear: -1, RotationGain: 12, Footprint: 15}.Validate("calibration")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "must be positive")

	test.That(t, DefaultCalibration().HalfFootprint(), test.ShouldEqual, 7.5)
}
