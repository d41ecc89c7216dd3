package models

import (
	"fmt"

	dErrors "intake/pkg/domain-errors"
)

// Warning is a recovered failure reported alongside a successful submission.
// Ref names the record, library or plan concerned.
type Warning struct {
	Code dErrors.Code
	Ref  string
	Err  error
}

func NewWarning(code dErrors.Code, ref string, err error) Warning {
	return Warning{Code: code, Ref: ref, Err: err}
}

func (w Warning) String() string {
	if w.Ref == "" {
		return fmt.Sprintf("%s: %v", w.Code, w.Err)
	}
	return fmt.Sprintf("%s: %s: %v", w.Code, w.Ref, w.Err)
}
