package companies

import "errors"

var (
	// ErrNotFound indicates the company or profile does not exist.
	ErrNotFound = errors.New("company not found")
	// ErrNoCompany indicates the user has no company association yet.
	ErrNoCompany = errors.New("user not associated with a company")
	// ErrInvalidInput indicates bad caller input.
	ErrInvalidInput = errors.New("invalid input")
)
