package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestCommonErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ErrClosed", ErrClosed, "resource is closed"},
		{"ErrInvalidConfiguration", ErrInvalidConfiguration, "invalid configuration"},
		{"ErrWriteAfterEnd", ErrWriteAfterEnd, "write after end"},
		{"ErrAborted", ErrAborted, "stage aborted"},
		{"ErrTimeout", ErrTimeout, "operation timed out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "without value",
			err: &ValidationError{
				Module: "pipe",
				Field:  "callback",
				Reason: "could not be empty",
			},
			want: "pipe: callback could not be empty",
		},
		{
			name: "with value",
			err: &ValidationError{
				Module: "pipe",
				Field:  "streams",
				Value:  0,
				Reason: "could not be empty",
			},
			want: "pipe: streams could not be empty (got 0)",
		},
		{
			name: "with hint",
			err: &ValidationError{
				Module: "pipe",
				Field:  "stage[1]",
				Value:  "file",
				Reason: "must be a sink",
				Hint:   "only the first stage may be source-only",
			},
			want: "pipe: stage[1] must be a sink (got file) - only the first stage may be source-only",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	verr := NewValidationError("test", "field", 0, "test")

	if verr.Unwrap() != ErrInvalidConfiguration {
		t.Errorf("Unwrap() = %v, want ErrInvalidConfiguration", verr.Unwrap())
	}
	if !errors.Is(verr, ErrInvalidConfiguration) {
		t.Error("ValidationError should wrap ErrInvalidConfiguration")
	}
}

func TestValidationError_WithHint(t *testing.T) {
	err := NewValidationError("test", "field", 0, "invalid").
		WithHint("try using a positive value")

	if err.Hint != "try using a positive value" {
		t.Errorf("Hint = %q, want %q", err.Hint, "try using a positive value")
	}

	result := err.WithHint("new hint")
	if result != err {
		t.Error("WithHint should return the same instance")
	}
}

func TestOperationError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewOperationError("redisstage", "Append", cause).WithContext("key=logs")

	if got, want := err.Error(), "redisstage.Append failed: connection refused (key=logs)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("OperationError should wrap the cause error")
	}
}

func TestIsValidationError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"validation error", &ValidationError{Module: "test", Field: "field", Reason: "test"}, true},
		{"wrapped validation error", &OperationError{Cause: &ValidationError{Module: "test"}}, true},
		{"operation error", &OperationError{Cause: errors.New("test")}, false},
		{"standard error", errors.New("test"), false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidationError(tt.err); got != tt.want {
				t.Errorf("IsValidationError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsAborted(t *testing.T) {
	if !IsAborted(&OperationError{Cause: ErrAborted}) {
		t.Error("wrapped ErrAborted should be reported as aborted")
	}
	if IsAborted(ErrClosed) {
		t.Error("ErrClosed is not an abort")
	}
	if !IsRetryable(ErrTimeout) || IsRetryable(ErrAborted) {
		t.Error("only timeouts are retryable")
	}
}

func TestErrorMessages(t *testing.T) {
	err := NewValidationError("mymodule", "myfield", 42, "must be less than 10").
		WithHint("use a value between 0 and 10")

	msg := err.Error()
	for _, part := range []string{"mymodule", "myfield", "42", "must be less than 10", "use a value between 0 and 10"} {
		if !strings.Contains(msg, part) {
			t.Errorf("error message should contain %q, got %q", part, msg)
		}
	}
}
