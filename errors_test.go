package rlmemory

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "ErrIllegalAction", err: ErrIllegalAction, want: "illegal action"},
		{name: "ErrMissingKey", err: ErrMissingKey, want: "missing key"},
		{name: "ErrInvalidConfig", err: ErrInvalidConfig, want: "invalid configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("error message = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "basic error",
			err: &Error{
				Op:   "Controller.React",
				Kind: KindUsage,
				Err:  ErrIllegalAction,
			},
			want: "rlmemory: Controller.React (usage): illegal action",
		},
		{
			name: "error with context",
			err: &Error{
				Op:      "Controller.React",
				Kind:    KindUsage,
				Err:     ErrIllegalAction,
				Context: map[string]any{"action": "next-result"},
			},
			want: "rlmemory: Controller.React (usage): illegal action [context:",
		},
		{
			name: "error without underlying error",
			err:  &Error{Op: "Config.Validate", Kind: KindConfiguration},
			want: "rlmemory: Config.Validate: configuration",
		},
		{
			name: "error with wrapped error",
			err: &Error{
				Op:   "Config.Load",
				Kind: KindConfiguration,
				Err:  fmt.Errorf("unknown backend: %w", ErrInvalidConfig),
			},
			want: "rlmemory: Config.Load (configuration): unknown backend: invalid configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if !strings.Contains(got, tt.want) {
				t.Errorf("Error() = %q, want to contain %q", got, tt.want)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	base := &Error{Op: "Controller.React", Kind: KindUsage, Err: ErrIllegalAction}

	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{name: "matches underlying sentinel", err: base, target: ErrIllegalAction, want: true},
		{
			name:   "matches wrapped error",
			err:    &Error{Op: "Controller.React", Kind: KindNotFound, Err: fmt.Errorf("delete: %w", ErrMissingKey)},
			target: ErrMissingKey,
			want:   true,
		},
		{name: "matches by kind", err: base, target: &Error{Kind: KindUsage}, want: true},
		{name: "matches by kind and op", err: base, target: &Error{Op: "Controller.React", Kind: KindUsage}, want: true},
		{name: "different op", err: base, target: &Error{Op: "Controller.Reset", Kind: KindUsage}, want: false},
		{name: "different kind", err: base, target: &Error{Kind: KindValidation}, want: false},
		{name: "different sentinel", err: base, target: ErrMissingKey, want: false},
		{name: "nil target", err: base, target: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestError_As(t *testing.T) {
	original := NewUsageError("Controller.React", ErrIllegalAction).
		WithContext(map[string]any{"action": "copy"})
	wrapped := fmt.Errorf("step 3: %w", original)

	var rlErr *Error
	if !errors.As(wrapped, &rlErr) {
		t.Fatal("errors.As() failed to extract *Error")
	}
	if rlErr.Kind != KindUsage {
		t.Errorf("Kind = %q, want %q", rlErr.Kind, KindUsage)
	}
	if rlErr.Context["action"] != "copy" {
		t.Errorf("Context[action] = %v, want copy", rlErr.Context["action"])
	}
}

func TestError_WithContext(t *testing.T) {
	original := &Error{Op: "Controller.React", Kind: KindNotFound, Err: ErrMissingKey}

	withCtx := original.WithContext(map[string]any{"buffer": "query"})
	withMore := withCtx.WithContext(map[string]any{"attr": "index"})

	if original.Context != nil {
		t.Error("original error Context was modified")
	}
	if _, ok := withCtx.Context["attr"]; ok {
		t.Error("WithContext mutated the receiver's context")
	}
	if withMore.Context["buffer"] != "query" || withMore.Context["attr"] != "index" {
		t.Errorf("Context = %v, want buffer and attr", withMore.Context)
	}
}

func TestNewErrorFunctions(t *testing.T) {
	tests := []struct {
		name     string
		fn       func(string, error) *Error
		wantKind string
	}{
		{"NewNotFoundError", NewNotFoundError, KindNotFound},
		{"NewValidationError", NewValidationError, KindValidation},
		{"NewUsageError", NewUsageError, KindUsage},
		{"NewUnsupportedError", NewUnsupportedError, KindUnsupported},
		{"NewOutOfBoundsError", NewOutOfBoundsError, KindOutOfBounds},
		{"NewNetworkError", NewNetworkError, KindNetwork},
		{"NewConfigurationError", NewConfigurationError, KindConfiguration},
		{"NewInternalError", NewInternalError, KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			underlying := errors.New("test error")
			err := tt.fn("Test.Operation", underlying)

			if err.Op != "Test.Operation" {
				t.Errorf("Op = %q, want Test.Operation", err.Op)
			}
			if err.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", err.Kind, tt.wantKind)
			}
			if !errors.Is(err, underlying) {
				t.Error("underlying error not preserved")
			}
		})
	}
}
