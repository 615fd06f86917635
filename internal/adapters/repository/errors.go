package repository

import "errors"

// Sentinel kinds for artifact store errors.
var (
	ErrNotFound       = errors.New("model artifact not found")
	ErrCorrupt        = errors.New("model artifact corrupt")
	ErrInvalidVersion = errors.New("invalid model version")
)
