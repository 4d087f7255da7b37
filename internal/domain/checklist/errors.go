package checklist

import "errors"

var (
	// ErrProjectNotFound indicates the project id doesn't resolve.
	// Callers treat this as a recoverable miss, not a crash.
	ErrProjectNotFound = errors.New("project not found")
	// ErrItemNotFound indicates the item id doesn't exist in the project.
	ErrItemNotFound = errors.New("checklist item not found")
	// ErrInvalidInput indicates invalid operation input.
	ErrInvalidInput = errors.New("invalid checklist input")
)
