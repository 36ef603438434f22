package ingest

import "errors"

var (
	// ErrStorage indicates the raw document bytes could not be read from
	// object storage.
	ErrStorage = errors.New("storage error")
	// ErrExtraction indicates text extraction failed.
	ErrExtraction = errors.New("extraction error")
	// ErrEmptyDocument indicates extraction produced no usable text.
	ErrEmptyDocument = errors.New("document contains no extractable text")
)
