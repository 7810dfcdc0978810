package scans

import "errors"

// ErrAssessment wraps any failure of an external risk assessor.
var ErrAssessment = errors.New("risk assessment failed")

// ValidationError is malformed or missing input. Msg is safe to show to clients.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Invalid builds a ValidationError.
func Invalid(msg string) error { return &ValidationError{Msg: msg} }
