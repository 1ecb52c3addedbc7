// Package validation provides common validation utilities for arguments and
// configuration parameters across the pipeflow library.
//
// Every helper returns a *errors.ValidationError so callers can report
// malformed input synchronously with a consistent message shape.
package validation
