package utils

import (
	"testing"

	"go.viam.com/test"
)

func TestNewUnexpectedTypeError(t *testing.T) {
	err := NewUnexpectedTypeError(1.0, "one")
	test.That(t, err.Error(), test.ShouldEqual, "expected float64 but got string")
}

func TestNewMustBePositiveError(t *testing.T) {
	err := NewMustBePositiveError("dt", -0.5)
	test.That(t, err.Error(), test.ShouldEqual, "dt must be positive, got -0.5")
}

func TestNewOutOfRangeError(t *testing.T) {
	err := NewOutOfRangeError("motor_deadband", 1.5, 0, 1)
	test.That(t, err.Error(), test.ShouldEqual, "motor_deadband must be in [0, 1], got 1.5")
}
