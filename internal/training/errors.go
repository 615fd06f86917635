package training

import "errors"

// Sentinel error kinds for this package.
var (
	ErrEmptyDataset  = errors.New("dataset has no records")
	ErrTooFewMembers = errors.New("a class has too few members to split")
)
