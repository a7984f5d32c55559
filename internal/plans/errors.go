package plans

import "errors"

var (
	// ErrGeneration is returned when the completion call fails.
	ErrGeneration = errors.New("plan generation failed")
	// ErrInvalidInput is returned for profiles missing required answers.
	ErrInvalidInput = errors.New("invalid input")
)
