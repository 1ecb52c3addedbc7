package validation

import (
	"testing"

	"github.com/vnykmshr/pipeflow/pkg/common/errors"
)

func TestValidatePositive(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		wantError bool
	}{
		{"positive value", 10, false},
		{"positive value 1", 1, false},
		{"zero value", 0, true},
		{"negative value", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositive("test", "count", tt.value)

			if tt.wantError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				if !errors.IsValidationError(err) {
					t.Errorf("expected ValidationError, got %T", err)
				}
			} else if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateNotNil(t *testing.T) {
	var nilFunc func(error)
	var nilPtr *int

	tests := []struct {
		name      string
		value     interface{}
		wantError bool
	}{
		{"non-nil int", 123, false},
		{"non-nil string", "value", false},
		{"non-nil func", func(error) {}, false},
		{"non-nil pointer", new(int), false},
		{"nil value", nil, true},
		{"typed nil func", nilFunc, true},
		{"typed nil pointer", nilPtr, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNotNil("test", "callback", tt.value)

			if tt.wantError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if got, want := err.Error(), "test: callback could not be empty"; got != want {
					t.Errorf("Error() = %q, want %q", got, want)
				}
			} else if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateNotEmpty(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantError bool
	}{
		{"non-empty string", "value", false},
		{"whitespace", " ", false}, // Whitespace is not empty
		{"empty string", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNotEmpty("fsstage", "path", tt.value)
			if (err != nil) != tt.wantError {
				t.Fatalf("ValidateNotEmpty(%q) error = %v, wantError %v", tt.value, err, tt.wantError)
			}
		})
	}
}

func TestValidateNotEmptySlice(t *testing.T) {
	for _, length := range []int{-1, 0} {
		err := ValidateNotEmptySlice("pipe", "streams", length)
		if err == nil {
			t.Fatalf("length %d: expected error", length)
		}
		if got, want := err.Error(), "pipe: streams could not be empty"; got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
	}

	if err := ValidateNotEmptySlice("pipe", "streams", 1); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestValidationErrorWrapping(t *testing.T) {
	testCases := []struct {
		name string
		err  error
	}{
		{"ValidatePositive", ValidatePositive("test", "field", -1)},
		{"ValidateNotNil", ValidateNotNil("test", "field", nil)},
		{"ValidateNotEmpty", ValidateNotEmpty("test", "field", "")},
		{"ValidateNotEmptySlice", ValidateNotEmptySlice("test", "field", 0)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			verr, ok := tc.err.(*errors.ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T", tc.err)
			}
			if verr.Unwrap() != errors.ErrInvalidConfiguration {
				t.Errorf("should unwrap to ErrInvalidConfiguration, got %v", verr.Unwrap())
			}
		})
	}
}

func TestValidateStruct(t *testing.T) {
	type inner struct {
		Kind string `yaml:"kind" validate:"required,oneof=a b"`
	}
	type outer struct {
		Name  string  `yaml:"name" validate:"required"`
		Items []inner `yaml:"items" validate:"required,min=1,dive"`
	}

	tests := []struct {
		name  string
		value outer
		field string
		want  string
	}{
		{"valid", outer{Name: "x", Items: []inner{{Kind: "a"}}}, "", ""},
		{"missing name", outer{Items: []inner{{Kind: "a"}}}, "name", "is required"},
		{"empty items", outer{Name: "x", Items: []inner{}}, "items", "must have at least 1 elements"},
		{"bad kind", outer{Name: "x", Items: []inner{{Kind: "c"}}}, "items[0].kind", "must be one of [a b]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct("plan", tt.value)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			verr, ok := err.(*errors.ValidationError)
			if !ok {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q", verr.Field, tt.field)
			}
			if verr.Reason != tt.want {
				t.Errorf("Reason = %q, want %q", verr.Reason, tt.want)
			}
		})
	}
}
