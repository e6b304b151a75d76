package rlmemory

import (
	"errors"
	"fmt"
)

// Sentinel errors for controller usage errors.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrIllegalAction indicates an action outside the currently computed legal
	// action set was submitted. This is a fatal usage error and is never corrected.
	ErrIllegalAction = errors.New("illegal action")

	// ErrMissingKey indicates a delete targeted an attribute the buffer does not hold.
	ErrMissingKey = errors.New("missing key")

	// ErrInvalidConfig indicates the provided configuration is invalid or incomplete.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Error kinds categorize errors by their type.
const (
	// KindNotFound represents errors where a buffer attribute or memory was not found.
	KindNotFound = "not_found"

	// KindValidation represents errors related to input validation.
	KindValidation = "validation"

	// KindUsage represents errors caused by calling the API outside its contract,
	// such as submitting an action that was not offered.
	KindUsage = "usage"

	// KindUnsupported represents operations a backend does not implement.
	KindUnsupported = "unsupported"

	// KindOutOfBounds represents cursor navigation past the ends of a result list.
	KindOutOfBounds = "out_of_bounds"

	// KindNetwork represents errors talking to a remote knowledge source.
	KindNetwork = "network"

	// KindConfiguration represents errors related to configuration.
	KindConfiguration = "configuration"

	// KindInternal represents internal errors.
	KindInternal = "internal"
)

// Error is a structured error type that wraps underlying errors with
// the operation that failed and the category of error.
//
// Error supports unwrapping, so it composes with errors.Is() and errors.As().
//
// Example usage:
//
//	err := &Error{
//		Op:   "Controller.React",
//		Kind: KindUsage,
//		Err:  ErrIllegalAction,
//	}
type Error struct {
	// Op is the operation that failed (e.g., "Controller.React", "Store.Retrieve").
	Op string

	// Kind categorizes the error (e.g., KindUsage, KindValidation).
	Kind string

	// Err is the underlying error that caused this error.
	Err error

	// Context provides additional context about the error (optional),
	// such as the offending action or buffer name.
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("rlmemory: %s: %s", e.Op, e.Kind)
	}

	if len(e.Context) > 0 {
		return fmt.Sprintf("rlmemory: %s (%s): %v [context: %+v]", e.Op, e.Kind, e.Err, e.Context)
	}

	return fmt.Sprintf("rlmemory: %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by Kind (and Op when the target sets one),
// otherwise it delegates to the wrapped error.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	if t, ok := target.(*Error); ok {
		if t.Kind != "" && e.Kind == t.Kind {
			if t.Op == "" || e.Op == t.Op {
				return true
			}
		}
	}

	return errors.Is(e.Err, target)
}

// WithContext returns a copy of the error with ctx merged into its context.
//
// Example:
//
//	err := NewUsageError("Controller.React", ErrIllegalAction).
//		WithContext(map[string]any{"action": a.String()})
func (e *Error) WithContext(ctx map[string]any) *Error {
	newErr := *e
	newErr.Context = make(map[string]any, len(e.Context)+len(ctx))
	for k, v := range e.Context {
		newErr.Context[k] = v
	}
	for k, v := range ctx {
		newErr.Context[k] = v
	}
	return &newErr
}

// NewNotFoundError creates a new Error with KindNotFound.
func NewNotFoundError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindNotFound, Err: err}
}

// NewValidationError creates a new Error with KindValidation.
func NewValidationError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindValidation, Err: err}
}

// NewUsageError creates a new Error with KindUsage.
func NewUsageError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindUsage, Err: err}
}

// NewUnsupportedError creates a new Error with KindUnsupported.
func NewUnsupportedError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindUnsupported, Err: err}
}

// NewOutOfBoundsError creates a new Error with KindOutOfBounds.
func NewOutOfBoundsError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindOutOfBounds, Err: err}
}

// NewNetworkError creates a new Error with KindNetwork.
func NewNetworkError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindNetwork, Err: err}
}

// NewConfigurationError creates a new Error with KindConfiguration.
func NewConfigurationError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindConfiguration, Err: err}
}

// NewInternalError creates a new Error with KindInternal.
func NewInternalError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindInternal, Err: err}
}
