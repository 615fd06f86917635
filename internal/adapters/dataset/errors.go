package dataset

import "errors"

// Sentinel kinds for dataset errors.
var (
	ErrNoHeader      = errors.New("dataset has no header row")
	ErrMalformed     = errors.New("malformed dataset row")
	ErrMissingColumn = errors.New("dataset is missing required columns")
)
