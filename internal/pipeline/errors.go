package pipeline

import (
	"errors"
	"fmt"
)

// PreconditionError marks a failure that must abort the whole run before
// any document processing begins: missing OCR engine, missing language
// data, unreadable object-store credentials, empty input directory.
// Per-document failures are plain errors and only fail their document.
type PreconditionError struct {
	Reason string
	Err    error
}

func (e *PreconditionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// Preconditionf builds a PreconditionError with a formatted reason.
func Preconditionf(format string, args ...any) *PreconditionError {
	return &PreconditionError{Reason: fmt.Sprintf(format, args...)}
}

// IsPrecondition reports whether err is (or wraps) a PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}
