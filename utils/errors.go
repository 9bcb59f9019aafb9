package utils

import (
	"github.com/pkg/errors"
)

// NewUnexpectedTypeError is used when there is a type mismatch.
func NewUnexpectedTypeError(expected interface{}, actual interface{}) error {
	return errors.Errorf("expected %T but got %T", expected, actual)
}

// NewMustBePositiveError is used when a numeric setting must be strictly positive.
func NewMustBePositiveError(field string, value interface{}) error {
	return errors.Errorf("%s must be positive, got %v", field, value)
}

// NewOutOfRangeError is used when a numeric setting falls outside [lo, hi].
func NewOutOfRangeError(field string, value, lo, hi float64) error {
	return errors.Errorf("%s must be in [%v, %v], got %v", field, lo, hi, value)
}
