package manager

import (
	"errors"
	"fmt"
)

// ErrCredentialsRejected is returned by authenticators when the model source
// refuses the token.
var ErrCredentialsRejected = errors.New("credentials rejected")

// AuthError reports a missing or rejected credential during a load.
type AuthError struct {
	ID    string
	Cause error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authenticate for model %q: %v", e.ID, e.Cause)
}

func (e *AuthError) Unwrap() error { return e.Cause }

// LoadError reports a failure to construct a handle: unknown model, device
// probe failure, backend construction failure, or a panic in any of them.
type LoadError struct {
	ID    string
	Cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load model %q: %v", e.ID, e.Cause)
}

func (e *LoadError) Unwrap() error { return e.Cause }

// GenerationError reports a runtime failure while invoking a handle.
type GenerationError struct {
	ID    string
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate with model %q: %v", e.ID, e.Cause)
}

func (e *GenerationError) Unwrap() error { return e.Cause }

// IsAuth reports whether err is (or wraps) an AuthError.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsLoad reports whether err is (or wraps) a LoadError.
func IsLoad(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// IsGeneration reports whether err is (or wraps) a GenerationError.
func IsGeneration(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}

type modelNotFoundError struct{ id string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.id }

// ErrModelNotFound returns an error for an id outside the allow-list.
func ErrModelNotFound(id string) error { return modelNotFoundError{id: id} }

// IsModelNotFound reports whether err indicates an unknown model id.
func IsModelNotFound(err error) bool {
	var mnf modelNotFoundError
	return errors.As(err, &mnf)
}

// dependencyUnavailableError signals a missing runtime dependency (e.g. a
// binary built without llama support) so shells can report 503.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var de dependencyUnavailableError
	return errors.As(err, &de)
}

type tooBusyError struct{ modelID string }

func (e tooBusyError) Error() string { return "too busy: " + e.modelID }

// IsTooBusy reports whether err indicates the handle stayed busy past the wait limit.
func IsTooBusy(err error) bool {
	var tb tooBusyError
	return errors.As(err, &tb)
}
