package documents

import "errors"

var (
	// ErrNotFound indicates the document does not exist or belongs to another tenant.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidInput indicates bad caller input.
	ErrInvalidInput = errors.New("invalid input")
)
