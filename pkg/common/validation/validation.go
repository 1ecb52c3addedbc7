// Package validation provides common validation utilities for the pipeflow library.
package validation

import (
	"reflect"

	pferrors "github.com/vnykmshr/pipeflow/pkg/common/errors"
)

// ValidatePositive validates that an integer value is positive (> 0).
// Returns a ValidationError if the value is not positive.
func ValidatePositive(module, field string, value int) error {
	if value <= 0 {
		return pferrors.NewValidationError(module, field, value, "must be positive").
			WithHint("value must be greater than 0")
	}
	return nil
}

// ValidateNotNil validates that an interface value is not nil.
// Typed nil pointers, funcs, maps and slices are rejected as well, since a
// nil callback or stage stored in an interface is still unusable.
func ValidateNotNil(module, field string, value interface{}) error {
	if isNil(value) {
		return pferrors.NewValidationError(module, field, nil, "could not be empty")
	}
	return nil
}

// ValidateNotEmpty validates that a string value is not empty.
// Returns a ValidationError if the string is empty.
func ValidateNotEmpty(module, field string, value string) error {
	if value == "" {
		return pferrors.NewValidationError(module, field, nil, "could not be empty").
			WithHint("provide a non-empty " + field)
	}
	return nil
}

// ValidateNotEmptySlice validates that a sequence has at least one element.
// length is the sequence length, or -1 when the sequence is missing entirely.
func ValidateNotEmptySlice(module, field string, length int) error {
	if length <= 0 {
		return pferrors.NewValidationError(module, field, nil, "could not be empty")
	}
	return nil
}

func isNil(value interface{}) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Func, reflect.Map, reflect.Slice, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
