package manager

import (
	"errors"
	"fmt"
	"strconv"
)

// errNoWeights is wrapped in EngineInitError when no weights exist for a scale.
var errNoWeights = errors.New("no weights registered for scale")

// EngineInitError reports that an engine could not be constructed (missing
// weights, runtime unavailable, device init failure). It is never cached: a
// later call for the same scale retries construction.
type EngineInitError struct {
	Scale int
	Err   error
}

func (e *EngineInitError) Error() string {
	return fmt.Sprintf("engine init x%d: %v", e.Scale, e.Err)
}

func (e *EngineInitError) Unwrap() error { return e.Err }

// IsEngineInit reports whether err is (or wraps) an EngineInitError.
func IsEngineInit(err error) bool {
	var e *EngineInitError
	return errors.As(err, &e)
}

// InferenceError wraps an opaque failure from the runtime during a pass.
type InferenceError struct {
	Scale int
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference x%d: %v", e.Scale, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// IsInference reports whether err is (or wraps) an InferenceError.
func IsInference(err error) bool {
	var e *InferenceError
	return errors.As(err, &e)
}

// tooBusyError signals queue timeout/overflow for 429 mapping.
type tooBusyError struct{ scale int }

func (e tooBusyError) Error() string { return "too busy: engine x" + strconv.Itoa(e.scale) }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	var e tooBusyError
	return errors.As(err, &e)
}

// dependencyUnavailableError signals a missing external dependency (engine
// binary, inference server) so callers can distinguish it from bad weights.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing/failed runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var e dependencyUnavailableError
	return errors.As(err, &e)
}
