package domain

import (
	"errors"
	"fmt"
)

var (
	ErrIncompleteLine       = errors.New("line is missing product, zone, expiry or quantity")
	ErrEmptySelection       = errors.New("export must contain at least one product")
	ErrQuantityExceedsStock = errors.New("quantity exceeds available stock")
	ErrHeaderValidation     = errors.New("export header is invalid")
	ErrRemoteRequestFailed  = errors.New("warehouse API request failed")

	ErrLineNotFound = errors.New("line not found")
	ErrLineLocked   = errors.New("only the quantity of a saved line can change")
	ErrLastLine     = errors.New("export must keep at least one product")
)

// LineError ties a validation failure to one line
type LineError struct {
	LineID    string
	Err       error
	Requested int
	Available int
}

func (e *LineError) Error() string {
	if errors.Is(e.Err, ErrQuantityExceedsStock) {
		return fmt.Sprintf("line %s: %v (requested %d, available %d)", e.LineID, e.Err, e.Requested, e.Available)
	}
	return fmt.Sprintf("line %s: %v", e.LineID, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// HeaderError lists the header fields that failed validation
type HeaderError struct {
	Fields map[string]string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("%v: %d field(s)", ErrHeaderValidation, len(e.Fields))
}

func (e *HeaderError) Unwrap() error { return ErrHeaderValidation }

// ValidationError collects every failing line of a selection.
// errors.Is matches the sentinel of any contained line error.
type ValidationError struct {
	Lines []*LineError
}

func (e *ValidationError) Error() string {
	if len(e.Lines) == 1 {
		return e.Lines[0].Error()
	}
	return fmt.Sprintf("%s (and %d more)", e.Lines[0].Error(), len(e.Lines)-1)
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, len(e.Lines))
	for i, l := range e.Lines {
		errs[i] = l
	}
	return errs
}

// Code returns the stable error code of a domain error, or "" if err is not one.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrIncompleteLine):
		return "INCOMPLETE_LINE"
	case errors.Is(err, ErrQuantityExceedsStock):
		return "QUANTITY_EXCEEDS_STOCK"
	case errors.Is(err, ErrEmptySelection):
		return "EMPTY_SELECTION"
	case errors.Is(err, ErrHeaderValidation):
		return "HEADER_VALIDATION_ERROR"
	case errors.Is(err, ErrLineLocked):
		return "LINE_LOCKED"
	case errors.Is(err, ErrLastLine):
		return "LAST_LINE"
	case errors.Is(err, ErrLineNotFound):
		return "LINE_NOT_FOUND"
	case errors.Is(err, ErrRemoteRequestFailed):
		return "REMOTE_REQUEST_FAILED"
	}
	return ""
}
