package pipe

import (
	"fmt"

	pferrors "github.com/vnykmshr/pipeflow/pkg/common/errors"
	"github.com/vnykmshr/pipeflow/pkg/common/validation"
	"github.com/vnykmshr/pipeflow/pkg/streaming/stage"
)

const module = "pipe"

// validate checks the arguments of a pipe call without touching any stage.
func validate(stages []stage.Stage, callback Callback) error {
	if err := validation.ValidateNotEmptySlice(module, "streams", len(stages)); err != nil {
		return err
	}
	if err := validation.ValidateNotNil(module, "callback", callback); err != nil {
		return err
	}

	for i, s := range stages {
		field := fmt.Sprintf("stage[%d]", i)
		if err := validation.ValidateNotNil(module, field, s); err != nil {
			return err
		}
		if err := checkRole(field, i, len(stages), s); err != nil {
			return err
		}
	}
	return nil
}

func checkRole(field string, i, n int, s stage.Stage) error {
	_, isSource := s.(stage.Source)
	_, isSink := s.(stage.Sink)

	switch {
	case i == 0 && !isSource:
		return pferrors.NewValidationError(module, field, s.Name(), "must be readable").
			WithHint("the first stage must implement stage.Source")
	case i == n-1 && i > 0 && !isSink:
		return pferrors.NewValidationError(module, field, s.Name(), "must be writable").
			WithHint("the last stage must implement stage.Sink")
	case i > 0 && i < n-1 && !(isSource && isSink):
		return pferrors.NewValidationError(module, field, s.Name(), "must be readable and writable").
			WithHint("interior stages must implement stage.Through")
	}
	return nil
}
