package cinematic

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned by the pipeline when the source raster is
	// absent or its buffer does not match its dimensions. No stage runs.
	ErrInvalidInput = errors.New("cinematic: invalid input image")
	// ErrMalformedFrame is reported by a stage fed a frame whose shape is inconsistent.
	ErrMalformedFrame = errors.New("cinematic: malformed frame")
	// ErrNumeric is reported when a stage produced non-finite samples.
	ErrNumeric = errors.New("cinematic: non-finite sample")
)

// StageError records a failed stage. The pipeline substitutes the pre-stage
// frame and keeps going.
type StageError struct {
	Stage StageName
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
