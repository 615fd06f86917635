package labeling

import "errors"

// Sentinel error kinds for this package.
var (
	// ErrSingleClass means every record received the same label; no
	// classifier can be fit against it.
	ErrSingleClass = errors.New("label set has a single class")
)
