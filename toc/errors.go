package toc

import "errors"

var (
	// ErrTargetNotFound is returned when document which should receive table
	// of contents does not exist under the root.
	ErrTargetNotFound = errors.New("target document not found")
	// ErrMalformedTag is returned for toc-order values which are neither
	// integer nor "last".
	ErrMalformedTag = errors.New("malformed toc-order tag")
	// ErrMissingMarker is returned when either start or end marker is absent
	// from target document.
	ErrMissingMarker = errors.New("table of contents marker not found")
)
