package service

import (
	"errors"

	"github.com/okian/gamefit/internal/domain/prediction"
)

// Sentinel error kinds for the prediction service.
var (
	ErrUninitialized = errors.New("prediction service has no model loaded")
	ErrAlreadyLoaded = errors.New("prediction service already loaded a model")
	// ErrInvalidRequest is the request validation kind shared with the
	// prediction policy.
	ErrInvalidRequest = prediction.ErrInvalidRequest
)
